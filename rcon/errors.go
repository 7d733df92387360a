package rcon

import "errors"

var (
	ErrInvalidAddress  = errors.New("server address format must be host:port")
	ErrDial            = errors.New("failed to open UDP transport")
	ErrNotConnected    = errors.New("rcon transport is not established")
	ErrMalformedPacket = errors.New("malformed packet")
	ErrTimeout         = errors.New("server response timed out")
	ErrAuthentication  = errors.New("rcon authentication failed")
	ErrCvarNotFound    = errors.New("cvar not found in response")
)
