// Package rcon queries Quake 3 engine servers over the out-of-band UDP protocol: getstatus and
// getinfo for server state, and rcon for password protected console commands.
package rcon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"net"
	"slices"
	"strconv"
	"strings"
	"sync"
	"time"
)

const (
	readBufferSize = 8192
	DefaultTimeout = time.Second
	DefaultRetries = 3
)

// Client is bound to a single server. Calls on one Client are serialised; query several
// servers with several clients.
type Client struct {
	mu       sync.Mutex
	host     string
	port     int
	password string
	conn     Transport
	settings clientSettings
	logger   *slog.Logger

	values  map[string]string
	players []Player
}

// New creates a Client for server, given as host:port, and opens its UDP transport.
func New(ctx context.Context, server string, opts ...Option) (*Client, error) {
	s := clientSettings{
		timeout: DefaultTimeout,
		retries: DefaultRetries,
		dial:    dialUDP,
	}
	for _, opt := range opts {
		opt(&s)
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	if s.dial == nil {
		s.dial = dialUDP
	}

	rc := &Client{
		password: s.password,
		settings: s,
		logger:   s.logger,
		values:   map[string]string{},
		players:  []Player{},
	}

	if err := rc.SetServer(ctx, server); err != nil {
		return nil, err
	}

	return rc, nil
}

// SetServer parses a host:port specifier and (re)opens the transport to it. On error the
// previous server and transport are kept.
func (rc *Client) SetServer(ctx context.Context, server string) error {
	host, port, err := splitServer(server)
	if err != nil {
		return err
	}

	address := net.JoinHostPort(host, strconv.Itoa(port))
	conn, errDial := rc.settings.dial(ctx, "udp", address)
	if errDial != nil {
		return errors.Join(errDial, fmt.Errorf("%w: %s", ErrDial, address))
	}

	rc.mu.Lock()
	defer rc.mu.Unlock()

	if rc.conn != nil {
		if errClose := rc.conn.Close(); errClose != nil {
			rc.logger.Warn("Failed to close previous transport", slog.String("error", errClose.Error()))
		}
	}

	rc.host = host
	rc.port = port
	rc.conn = conn

	return nil
}

// Address returns the server as host:port
func (rc *Client) Address() string {
	rc.mu.Lock()
	defer rc.mu.Unlock()

	return fmt.Sprintf("%s:%d", rc.host, rc.port)
}

// SetRconPassword sets the password sent with rcon commands
func (rc *Client) SetRconPassword(password string) {
	rc.mu.Lock()
	defer rc.mu.Unlock()

	rc.password = password
}

// Values returns a copy of the server variables from the last successful Update
func (rc *Client) Values() map[string]string {
	rc.mu.Lock()
	defer rc.mu.Unlock()

	return maps.Clone(rc.values)
}

// Players returns a copy of the player list from the last successful Update or RconUpdate
func (rc *Client) Players() []Player {
	rc.mu.Lock()
	defer rc.mu.Unlock()

	return slices.Clone(rc.players)
}

// Close the Client transport
func (rc *Client) Close() error {
	rc.mu.Lock()
	defer rc.mu.Unlock()

	if rc.conn == nil {
		return nil
	}
	err := rc.conn.Close()
	rc.conn = nil

	return err
}

// splitServer validates a host:port specifier
func splitServer(server string) (string, int, error) {
	if strings.Count(server, ":") != 1 {
		return "", 0, fmt.Errorf("%w: %q", ErrInvalidAddress, server)
	}

	host, portStr, _ := strings.Cut(server, ":")
	port, err := strconv.Atoi(portStr)
	if err != nil || port < 0 || port > 65535 {
		return "", 0, fmt.Errorf("%w: invalid port %q", ErrInvalidAddress, portStr)
	}

	return host, port, nil
}

// exchange sends packet once and waits for the reply. A nil Response with a nil error means
// the server sent an empty datagram. When s.responseType is set, replies of another type are
// dropped and the read continues until the attempt deadline.
func (rc *Client) exchange(ctx context.Context, packet []byte, s commandSettings) (*Response, error) {
	if _, err := rc.conn.Write(packet); err != nil {
		return nil, err
	}

	buf := make([]byte, readBufferSize)
	deadline := readDeadline(ctx, s.readTimeout)
	for {
		n, err := rc.readDatagram(buf, deadline)
		if err != nil {
			return nil, err
		}
		if n == 0 {
			return nil, nil
		}

		resp, err := ParsePacket(buf[:n])
		if err != nil {
			return nil, err
		}
		if s.responseType != "" && resp.Type != s.responseType {
			rc.logger.Debug("Dropping stale reply", slog.String("want", s.responseType), slog.String("got", resp.Type))
			continue
		}

		if s.readExtension > 0 {
			rc.readContinuation(ctx, &resp, buf, s.readExtension)
		}

		return &resp, nil
	}
}

// readContinuation appends follow-up datagrams of the same response type until the extension
// window passes without one.
func (rc *Client) readContinuation(ctx context.Context, resp *Response, buf []byte, extension time.Duration) {
	var payload strings.Builder
	payload.WriteString(resp.Payload)

	for {
		n, err := rc.readDatagram(buf, readDeadline(ctx, extension))
		if err != nil || n == 0 {
			break
		}

		next, err := ParsePacket(buf[:n])
		if err != nil {
			rc.logger.Debug("Ignoring malformed continuation packet", slog.String("error", err.Error()))
			continue
		}
		if next.Type != resp.Type {
			rc.logger.Debug("Ignoring continuation packet of another type",
				slog.String("want", resp.Type), slog.String("got", next.Type))
			continue
		}
		payload.WriteString(next.Payload)
	}

	resp.Payload = payload.String()
}

// readDeadline is now+timeout, or the context deadline when that comes first.
func readDeadline(ctx context.Context, timeout time.Duration) time.Time {
	deadline := time.Now().Add(timeout)
	if ctxDeadline, ok := ctx.Deadline(); ok && ctxDeadline.Before(deadline) {
		deadline = ctxDeadline
	}
	return deadline
}

func (rc *Client) readDatagram(buf []byte, deadline time.Time) (int, error) {
	if err := rc.conn.SetReadDeadline(deadline); err != nil {
		return 0, err
	}

	return rc.conn.Read(buf)
}
