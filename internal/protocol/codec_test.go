package protocol

import (
	"bytes"
	"encoding/binary"
	"errors"
	"io"
	"testing"
)

func TestDecoder_RoundTrip(t *testing.T) {
	var buf bytes.Buffer
	buf.Write(Encode("login ada secret"))
	buf.Write(Encode("list_projects"))

	dec := NewDecoder(&buf)

	req, err := dec.Next()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if req.Verb != "login" || len(req.Args) != 2 || req.Args[0] != "ada" || req.Args[1] != "secret" {
		t.Errorf("unexpected request: %+v", req)
	}

	req, err = dec.Next()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if req.Verb != "list_projects" || len(req.Args) != 0 {
		t.Errorf("unexpected request: %+v", req)
	}

	if _, err := dec.Next(); !errors.Is(err, io.EOF) {
		t.Fatalf("expected io.EOF at end of stream, got %v", err)
	}
}

// oneByteReader feeds a single byte per Read call, forcing the decoder to
// reassemble frames that arrive fragmented.
type oneByteReader struct {
	data []byte
}

func (r *oneByteReader) Read(p []byte) (int, error) {
	if len(r.data) == 0 {
		return 0, io.EOF
	}
	p[0] = r.data[0]
	r.data = r.data[1:]
	return 1, nil
}

func TestDecoder_FragmentedStream(t *testing.T) {
	dec := NewDecoder(&oneByteReader{data: Encode("move_card web deploy TODO INPROGRESS")})

	req, err := dec.Next()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if req.Command() != "move_card web deploy TODO INPROGRESS" {
		t.Errorf("unexpected command: %q", req.Command())
	}
}

func TestDecoder_TruncatedPayload(t *testing.T) {
	frame := Encode("login ada secret")
	dec := NewDecoder(bytes.NewReader(frame[:len(frame)-3]))

	if _, err := dec.Next(); !errors.Is(err, io.ErrUnexpectedEOF) {
		t.Fatalf("expected io.ErrUnexpectedEOF, got %v", err)
	}
}

func TestDecoder_OversizedFrameRejected(t *testing.T) {
	var prefix [4]byte
	binary.BigEndian.PutUint32(prefix[:], MaxFrameSize+1)
	dec := NewDecoder(bytes.NewReader(prefix[:]))

	if _, err := dec.Next(); err == nil {
		t.Fatal("expected error for oversized frame, got nil")
	}
}

func TestDecoder_EmptyFrame(t *testing.T) {
	dec := NewDecoder(bytes.NewReader(Encode("")))

	req, err := dec.Next()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if req.Verb != "" || len(req.Args) != 0 {
		t.Errorf("unexpected request: %+v", req)
	}
}

func TestRequest_CommandPreservesArgOrder(t *testing.T) {
	req := Request{Verb: "add_card", Args: []string{"web", "deploy", "ship", "it"}}
	if req.Command() != "add_card web deploy ship it" {
		t.Errorf("unexpected command: %q", req.Command())
	}
}
