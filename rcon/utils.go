package rcon

import (
	"context"
	"log/slog"
	"net"
	"regexp"
	"strings"
	"time"
)

var colorCodeRx = regexp.MustCompile(`\^[0-9A-Za-z]`)

// WithPassword sets the rcon password used by Rcon, RconUpdate and Cvar
func WithPassword(password string) Option {
	return func(s *clientSettings) {
		s.password = password
	}
}

// WithTimeout sets how long each attempt waits for a reply. Non-positive values mean
// DefaultTimeout.
func WithTimeout(d time.Duration) Option {
	return func(s *clientSettings) {
		s.timeout = d
	}
}

// WithRetries sets the total number of send attempts per command. Non-positive values mean
// DefaultRetries.
func WithRetries(n int) Option {
	return func(s *clientSettings) {
		s.retries = n
	}
}

// WithReadExtension makes the client keep reading for d after each datagram and merge
// continuation packets of the same response type into one payload.
func WithReadExtension(d time.Duration) Option {
	return func(s *clientSettings) {
		if d < 0 {
			d = 0
		}
		s.readExtension = d
	}
}

// WithDialer replaces the UDP dialer
func WithDialer(dial DialFunc) Option {
	return func(s *clientSettings) {
		s.dial = dial
	}
}

// WithLogger sets the logger, slog.Default() is used otherwise
func WithLogger(logger *slog.Logger) Option {
	return func(s *clientSettings) {
		s.logger = logger
	}
}

// WithLegacySlotNumbers numbers every getstatus player 1 instead of by position
func WithLegacySlotNumbers() Option {
	return func(s *clientSettings) {
		s.legacySlots = true
	}
}

// WithCommandTimeout overrides the per-attempt timeout for one command. Non-positive values
// mean DefaultTimeout.
func WithCommandTimeout(d time.Duration) CommandOption {
	return func(s *commandSettings) {
		s.readTimeout = d
	}
}

// WithCommandRetries overrides the attempt budget for one command. Non-positive values mean
// DefaultRetries, so at least one packet is always sent.
func WithCommandRetries(n int) CommandOption {
	return func(s *commandSettings) {
		s.retries = n
	}
}

// WithCommandReadExtension overrides the read extension for one command
func WithCommandReadExtension(d time.Duration) CommandOption {
	return func(s *commandSettings) {
		if d < 0 {
			d = 0
		}
		s.readExtension = d
	}
}

// WithResponseType makes the command wait for a reply of type t. Datagrams of any other type,
// such as a late duplicate answer to an earlier command, are dropped without spending an
// attempt.
func WithResponseType(t string) CommandOption {
	return func(s *commandSettings) {
		s.responseType = t
	}
}

// LegacySlotNumbers makes ParseStatus and ParseStatusPlayers number every player 1
func LegacySlotNumbers() ParseOption {
	return func(s *parseSettings) {
		s.legacySlots = true
	}
}

// ParseLogger sets where skipped player lines are reported
func ParseLogger(logger *slog.Logger) ParseOption {
	return func(s *parseSettings) {
		s.logger = logger
	}
}

func dialUDP(ctx context.Context, network, address string) (Transport, error) {
	var d net.Dialer
	return d.DialContext(ctx, network, address)
}

// timeoutOrDefault returns d or the default if not set
func timeoutOrDefault(d time.Duration) time.Duration {
	if d <= 0 {
		return DefaultTimeout
	}
	return d
}

// retriesOrDefault returns n or the default if not set
func retriesOrDefault(n int) int {
	if n <= 0 {
		return DefaultRetries
	}
	return n
}

// StripColors removes ^N colour codes from a string
func StripColors(s string) string {
	if s == "" {
		return s
	}
	return colorCodeRx.ReplaceAllString(s, "")
}

// decodeLenient converts b to text, dropping invalid UTF-8 sequences
func decodeLenient(b []byte) string {
	return strings.ToValidUTF8(string(b), "")
}

// collapseSpaces squeezes runs of spaces into one and drops leading spaces
func collapseSpaces(s string) string {
	for strings.Contains(s, "  ") {
		s = strings.ReplaceAll(s, "  ", " ")
	}
	return strings.TrimLeft(s, " ")
}
