package rcon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
)

// Replies the server sends instead of command output when the password is refused.
const (
	replyNoPassword  = "No rconpassword set on the server.\n"
	replyBadPassword = "Bad rconpassword.\n"
)

// Response types of the queries this package sends.
const (
	typeStatus = "statusResponse"
	typeInfo   = "infoResponse"
	typePrint  = "print"
)

// cvarRx matches `"name" is:"value"`, `name is: "value"` and `name: value` lines.
var cvarRx = regexp.MustCompile(`(?i)^"?([^"\s:=]+)"?\s*(?:is:|[:=])\s*(?:"([^"]*)"|(\S+))`)

// Command sends cmd as an out-of-band packet and returns the de-framed reply. Every attempt
// that times out, fails in the transport or reads an empty datagram is followed by a plain
// resend until the retry budget is spent, then ErrTimeout is returned. A malformed reply is
// returned as ErrMalformedPacket without retrying. Pass WithResponseType to ignore late
// replies to earlier commands.
func (rc *Client) Command(ctx context.Context, cmd string, opts ...CommandOption) (Response, error) {
	rc.mu.Lock()
	defer rc.mu.Unlock()

	return rc.command(ctx, cmd, cmd, opts)
}

// command must be called with mu held. label names the command in logs and errors so rcon
// passwords never show up there.
func (rc *Client) command(ctx context.Context, cmd, label string, opts []CommandOption) (Response, error) {
	if rc.conn == nil {
		return Response{}, ErrNotConnected
	}

	s := commandSettings{
		retries:       rc.settings.retries,
		readTimeout:   rc.settings.timeout,
		readExtension: rc.settings.readExtension,
	}
	for _, opt := range opts {
		opt(&s)
	}
	s.retries = retriesOrDefault(s.retries)
	s.readTimeout = timeoutOrDefault(s.readTimeout)

	packet := BuildPacket(cmd)
	address := fmt.Sprintf("%s:%d", rc.host, rc.port)

	var lerr error
	for attempt := 1; attempt <= s.retries; attempt++ {
		if err := ctx.Err(); err != nil {
			return Response{}, fmt.Errorf("command %q to %s cancelled: %w", label, address, err)
		}

		resp, err := rc.exchange(ctx, packet, s)
		switch {
		case errors.Is(err, ErrMalformedPacket):
			return Response{}, fmt.Errorf("command %q to %s: %w", label, address, err)
		case err != nil:
			lerr = err
			rc.logger.Debug("Command attempt failed", slog.String("server", address),
				slog.String("command", label), slog.Int("attempt", attempt), slog.String("error", err.Error()))
		case resp == nil:
			rc.logger.Debug("Command attempt got an empty reply", slog.String("server", address),
				slog.String("command", label), slog.Int("attempt", attempt))
		default:
			return *resp, nil
		}
	}

	if err := ctx.Err(); err != nil {
		return Response{}, fmt.Errorf("command %q to %s cancelled: %w", label, address, err)
	}

	errTimeout := fmt.Errorf("%w: %q to %s after %d attempts", ErrTimeout, label, address, s.retries)
	if lerr != nil {
		return Response{}, errors.Join(errTimeout, lerr)
	}

	return Response{}, errTimeout
}

// Rcon runs cmd on the server console. A refused password is reported as ErrAuthentication
// carrying the server's message.
func (rc *Client) Rcon(ctx context.Context, cmd string, opts ...CommandOption) (Response, error) {
	rc.mu.Lock()
	defer rc.mu.Unlock()

	return rc.rcon(ctx, cmd, opts)
}

func (rc *Client) rcon(ctx context.Context, cmd string, opts []CommandOption) (Response, error) {
	opts = append([]CommandOption{WithResponseType(typePrint)}, opts...)
	resp, err := rc.command(ctx, fmt.Sprintf(`rcon "%s" %s`, rc.password, cmd), "rcon "+cmd, opts)
	if err != nil {
		return Response{}, err
	}

	if resp.Payload == replyNoPassword || resp.Payload == replyBadPassword {
		return Response{}, fmt.Errorf("%w: %s", ErrAuthentication, strings.TrimSuffix(resp.Payload, "\n"))
	}

	return resp, nil
}

// Update queries getstatus and replaces the cached server values. The cached player list is
// replaced when the reply carries a player block. Nothing is changed on error.
func (rc *Client) Update(ctx context.Context) error {
	rc.mu.Lock()
	defer rc.mu.Unlock()

	resp, err := rc.command(ctx, "getstatus", "getstatus", []CommandOption{WithResponseType(typeStatus)})
	if err != nil {
		return err
	}

	values, players, hasPlayers := ParseStatus(resp.Payload, rc.parseOptions()...)
	rc.values = values
	if hasPlayers {
		rc.players = players
	}

	return nil
}

// RconUpdate replaces the cached player list with the table printed by rcon status. Unlike
// the getstatus list it carries slot numbers and addresses. Server values are not touched.
func (rc *Client) RconUpdate(ctx context.Context) error {
	rc.mu.Lock()
	defer rc.mu.Unlock()

	resp, err := rc.rcon(ctx, "status", nil)
	if err != nil {
		return err
	}

	rc.players = ParseRconPlayers(resp.Payload, rc.parseOptions()...)

	return nil
}

// Info queries getinfo. The result is not cached.
func (rc *Client) Info(ctx context.Context) (map[string]string, error) {
	rc.mu.Lock()
	defer rc.mu.Unlock()

	resp, err := rc.command(ctx, "getinfo", "getinfo", []CommandOption{WithResponseType(typeInfo)})
	if err != nil {
		return nil, err
	}

	return ParseInfoString(resp.Payload), nil
}

// Cvar reads a console variable over rcon, colour codes removed
func (rc *Client) Cvar(ctx context.Context, name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", fmt.Errorf("%w: empty cvar name", ErrCvarNotFound)
	}

	rc.mu.Lock()
	defer rc.mu.Unlock()

	resp, err := rc.rcon(ctx, name, nil)
	if err != nil {
		return "", err
	}

	value, ok := parseCvar(name, resp.Payload)
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrCvarNotFound, name)
	}

	return value, nil
}

// parseCvar extracts the value of name from either
//
//	"sv_hostname" is:"noname^7" default:"noname^7"
//	sv_hostname is: "noname"
func parseCvar(name, payload string) (string, bool) {
	for _, line := range strings.Split(payload, "\n") {
		m := cvarRx.FindStringSubmatch(strings.TrimSpace(StripColors(line)))
		if m == nil || !strings.EqualFold(m[1], name) {
			continue
		}
		if m[3] != "" {
			return m[3], true
		}
		return m[2], true
	}

	return "", false
}

func (rc *Client) parseOptions() []ParseOption {
	opts := []ParseOption{ParseLogger(rc.logger)}
	if rc.settings.legacySlots {
		opts = append(opts, LegacySlotNumbers())
	}
	return opts
}
