// Package protocol frames and parses the WORTH wire protocol: a 4-byte
// big-endian length prefix followed by exactly that many UTF-8 bytes of
// command text. Responses travel back as raw bytes with no prefix.
package protocol

import (
	"encoding/binary"
	"fmt"
	"io"
	"strings"
)

// MaxFrameSize bounds a single command frame. The protocol itself carries no
// validation beyond the byte count, but an arbitrary 32-bit length must not
// translate into an arbitrary allocation. Exceeding the cap is a decode
// error: the connection is closed, the frame is never answered.
const MaxFrameSize = 1 << 20

// Request is one decoded command: the verb plus its positional arguments,
// split on single spaces.
type Request struct {
	Verb string
	Args []string
}

// Encode frames a command string for the wire.
func Encode(command string) []byte {
	payload := []byte(command)
	frame := make([]byte, 4+len(payload))
	binary.BigEndian.PutUint32(frame[:4], uint32(len(payload)))
	copy(frame[4:], payload)
	return frame
}

// Decoder reads framed commands from a stream. It never partially consumes
// a frame: Next blocks until both the length prefix and the full payload
// have arrived.
type Decoder struct {
	r io.Reader
}

func NewDecoder(r io.Reader) *Decoder {
	return &Decoder{r: r}
}

// Next reads one complete frame and splits it into verb and arguments.
// It returns the reader's error verbatim (io.EOF on a clean close).
func (d *Decoder) Next() (Request, error) {
	var prefix [4]byte
	if _, err := io.ReadFull(d.r, prefix[:]); err != nil {
		return Request{}, err
	}

	n := binary.BigEndian.Uint32(prefix[:])
	if n > MaxFrameSize {
		return Request{}, fmt.Errorf("frame of %d bytes exceeds limit", n)
	}

	payload := make([]byte, n)
	if _, err := io.ReadFull(d.r, payload); err != nil {
		return Request{}, err
	}

	parts := strings.Split(string(payload), " ")
	return Request{Verb: parts[0], Args: parts[1:]}, nil
}

// Command reassembles the original command string of a request.
func (r Request) Command() string {
	if len(r.Args) == 0 {
		return r.Verb
	}
	return r.Verb + " " + strings.Join(r.Args, " ")
}
