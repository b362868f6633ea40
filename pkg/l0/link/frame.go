package link

import (
	"fmt"
	"io"
)

// Framing characters.
const (
	StartChar  byte = '#'
	Terminator byte = '*'
)

// MinFrameLen is the shortest valid frame: CMD DATA CHK TERM.
const MinFrameLen = 4

// Frame is an outbound command.
type Frame struct {
	Code byte
	Data []byte
}

// Encode8 encodes an 8-bit command. It doesn't validate, use Frame.Bytes
// to reject frames containing the terminator.
func Encode8(cmd, data byte) []byte {
	return []byte{cmd, data, Checksum8(cmd, data), Terminator}
}

// Encode16 encodes a 16-bit command without validation.
func Encode16(cmd, hi, lo byte) []byte {
	return []byte{cmd, hi, lo, Checksum16(cmd, hi, lo), Terminator}
}

// Validate checks the frame can be put on the wire.
func (f *Frame) Validate() error {
	if l := len(f.Data); l < 1 || l > 2 {
		return fmt.Errorf("%w: %d data bytes", ErrInvalidPayload, l)
	}
	if f.Code == Terminator {
		return fmt.Errorf("%w: command is terminator", ErrInvalidPayload)
	}
	for _, b := range f.Data {
		if b == Terminator {
			return fmt.Errorf("%w: data contains terminator", ErrInvalidPayload)
		}
	}
	if Checksum(f.Code, f.Data...) == Terminator {
		return fmt.Errorf("%w: checksum is terminator", ErrInvalidPayload)
	}
	return nil
}

// Bytes returns encoded bytes for sending.
func (f *Frame) Bytes() ([]byte, error) {
	if err := f.Validate(); err != nil {
		return nil, err
	}
	if len(f.Data) == 1 {
		return Encode8(f.Code, f.Data[0]), nil
	}
	return Encode16(f.Code, f.Data[0], f.Data[1]), nil
}

// WriteTo writes encoded bytes.
func (f *Frame) WriteTo(w io.Writer) (int64, error) {
	b, err := f.Bytes()
	if err != nil {
		return 0, err
	}
	n, err := w.Write(b)
	return int64(n), err
}

// String returns a printable form for logs.
func (f *Frame) String() string {
	return fmt.Sprintf("%c[% x]", f.Code, f.Data)
}

// Response is a decoded inbound frame.
type Response struct {
	// Raw is the complete buffer including the terminator.
	Raw      []byte
	Payload  [2]byte
	Checksum byte
	// Valid is set when the checksum matches.
	Valid bool
}

// PayloadString returns the two payload bytes as a status string.
func (r *Response) PayloadString() string {
	return string(r.Payload[:])
}

// DecodeAndVerify decodes a response buffer ending with Terminator.
// The checksum is the byte before the terminator, the payload the two
// bytes before the checksum. The checksum is recomputed over up to three
// bytes before the checksum byte, as the response length is not sent.
func DecodeAndVerify(buf []byte) (*Response, error) {
	n := len(buf)
	if n < MinFrameLen {
		return nil, &MalformedError{Len: n, Reason: "too short"}
	}
	if buf[n-1] != Terminator {
		return nil, &MalformedError{Len: n, Reason: "missing terminator"}
	}
	body := buf[:n-1]
	chk := body[len(body)-1]
	fields := body[:len(body)-1]
	if len(fields) > 3 {
		fields = fields[len(fields)-3:]
	}
	r := &Response{
		Raw:      append([]byte(nil), buf...),
		Checksum: chk,
		Valid:    Checksum(fields[0], fields[1:]...) == chk,
	}
	copy(r.Payload[:], body[len(body)-3:len(body)-1])
	return r, nil
}
