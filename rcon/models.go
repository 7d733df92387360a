package rcon

import (
	"context"
	"log/slog"
	"time"
)

// BotFlag reports whether a player is a bot. Not every source knows.
type BotFlag int

const (
	BotUnknown BotFlag = -1
	BotNo      BotFlag = 0
	BotYes     BotFlag = 1
)

type Player struct {
	Num     int
	Name    string
	Frags   int
	Ping    int
	Address string
	Bot     BotFlag
}

// String returns the player name as sent by the server, colour codes included
func (p Player) String() string {
	return p.Name
}

// CleanName returns the player name without colour codes
func (p Player) CleanName() string {
	return StripColors(p.Name)
}

// Response is a de-framed out-of-band reply
type Response struct {
	Type    string
	Payload string
}

// Transport is the datagram socket a Client talks through. Any connected net.Conn satisfies it.
type Transport interface {
	Read(b []byte) (int, error)
	Write(b []byte) (int, error)
	SetReadDeadline(t time.Time) error
	Close() error
}

// DialFunc opens a Transport to address.
type DialFunc func(ctx context.Context, network, address string) (Transport, error)

type clientSettings struct {
	password      string
	timeout       time.Duration
	retries       int
	readExtension time.Duration
	dial          DialFunc
	logger        *slog.Logger
	legacySlots   bool
}

// Option configures a Client
type Option func(*clientSettings)

type commandSettings struct {
	retries       int
	readTimeout   time.Duration
	readExtension time.Duration
	responseType  string
}

// CommandOption overrides client settings for a single command
type CommandOption func(*commandSettings)

type parseSettings struct {
	legacySlots bool
	logger      *slog.Logger
}

// ParseOption configures the status parsers
type ParseOption func(*parseSettings)
