package rcon

import (
	"bytes"
	"fmt"
)

// packetPrefix marks every out-of-band datagram.
var packetPrefix = []byte{0xFF, 0xFF, 0xFF, 0xFF}

// BuildPacket frames cmd as an out-of-band packet. Embedded newlines are not escaped.
func BuildPacket(cmd string) []byte {
	packet := make([]byte, 0, len(packetPrefix)+len(cmd)+1)
	packet = append(packet, packetPrefix...)
	packet = append(packet, cmd...)
	return append(packet, '\n')
}

// ParsePacket splits an inbound datagram into its response type and payload
func ParsePacket(raw []byte) (Response, error) {
	if !bytes.HasPrefix(raw, packetPrefix) {
		return Response{}, fmt.Errorf("%w: missing out-of-band prefix", ErrMalformedPacket)
	}

	end := bytes.IndexByte(raw, '\n')
	if end == -1 {
		return Response{}, fmt.Errorf("%w: missing response type terminator", ErrMalformedPacket)
	}

	return Response{
		Type:    decodeLenient(raw[len(packetPrefix):end]),
		Payload: decodeLenient(raw[end+1:]),
	}, nil
}
