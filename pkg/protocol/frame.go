// Package protocol implements the nsqd wire framing.
//
// Frame format:
//
//	[4 bytes length, big endian][length bytes payload]
//
// Zero-length frames are legal. Server-to-client traffic is always framed;
// client-to-server framing is up to the command layer, which may use
// AppendFrame.
package protocol

import (
	"encoding/binary"
	"errors"
	"io"
)

// HeaderSize is the size of the length prefix.
const HeaderSize = 4

// MagicV2 is the preamble an nsqd expects immediately after connecting.
var MagicV2 = [4]byte{' ', ' ', 'V', '2'}

// ErrFrameTooLarge is returned by ReadFrame when a length prefix exceeds the
// caller's maximum.
var ErrFrameTooLarge = errors.New("protocol: frame too large")

// AppendFrame appends the length-prefixed encoding of payload to dst.
func AppendFrame(dst, payload []byte) []byte {
	dst = binary.BigEndian.AppendUint32(dst, uint32(len(payload)))
	return append(dst, payload...)
}

// EncodeFrame returns a new buffer holding the framed payload.
func EncodeFrame(payload []byte) []byte {
	return AppendFrame(make([]byte, 0, HeaderSize+len(payload)), payload)
}

// ReadFrame reads exactly one frame from r. io.ReadFull accumulates across
// short reads. maxPayload <= 0 trusts the length prefix as-is.
//
// A clean EOF before any header byte returns io.EOF; EOF anywhere later
// returns io.ErrUnexpectedEOF.
func ReadFrame(r io.Reader, maxPayload int) ([]byte, error) {
	n, err := ReadHeader(r)
	if err != nil {
		return nil, err
	}
	if maxPayload > 0 && uint64(n) > uint64(maxPayload) {
		return nil, ErrFrameTooLarge
	}
	return ReadPayload(r, n)
}

// ReadHeader reads the 4-byte length prefix.
func ReadHeader(r io.Reader) (uint32, error) {
	var hdr [HeaderSize]byte
	if _, err := io.ReadFull(r, hdr[:]); err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint32(hdr[:]), nil
}

// ReadPayload reads exactly n payload bytes following a header.
func ReadPayload(r io.Reader, n uint32) ([]byte, error) {
	if n == 0 {
		return []byte{}, nil
	}
	payload := make([]byte, n)
	if _, err := io.ReadFull(r, payload); err != nil {
		if err == io.EOF {
			err = io.ErrUnexpectedEOF
		}
		return nil, err
	}
	return payload, nil
}
