package link

import (
	"bytes"
	"context"
	"os"
	"time"

	"github.com/robotalks/robolink/pkg/l0/port"
)

// Default assembler settings.
const (
	DefaultReceiveTimeout = 2 * time.Second
	DefaultMaxFrameSize   = 64
	DefaultPollInterval   = 10 * time.Millisecond
)

// Assembler accumulates received bytes into frames.
type Assembler struct {
	// Timeout bounds a single ReceiveFrame, 0 waits forever.
	Timeout time.Duration
	// MaxFrameSize bounds the bytes accumulated before a terminator.
	MaxFrameSize int
	// PollInterval is the read timeout applied to the port.
	PollInterval time.Duration

	// bytes received after the last terminator.
	pending []byte
}

// NewAssembler creates an Assembler with default settings.
func NewAssembler() *Assembler {
	return &Assembler{
		Timeout:      DefaultReceiveTimeout,
		MaxFrameSize: DefaultMaxFrameSize,
		PollInterval: DefaultPollInterval,
	}
}

// Reset drops bytes carried over from previous reads.
func (a *Assembler) Reset() {
	a.pending = nil
}

// ReceiveFrame polls the port until a terminator is received and returns
// the frame including the terminator. Bytes following the first
// terminator are kept for the next call.
func (a *Assembler) ReceiveFrame(ctx context.Context, p port.Port) ([]byte, error) {
	if frame, err := a.cut(); frame != nil || err != nil {
		return frame, err
	}

	poll := a.PollInterval
	if poll <= 0 {
		poll = DefaultPollInterval
	}
	if err := p.SetReadTimeout(poll); err != nil {
		return nil, err
	}
	var deadline <-chan time.Time
	if a.Timeout > 0 {
		timer := time.NewTimer(a.Timeout)
		defer timer.Stop()
		deadline = timer.C
	}

	buf := make([]byte, 64)
	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-deadline:
			return nil, ErrTimeout
		default:
		}
		n, err := p.Read(buf)
		if err != nil && !os.IsTimeout(err) {
			return nil, err
		}
		if n == 0 {
			continue
		}
		a.pending = append(a.pending, buf[:n]...)
		if frame, err := a.cut(); frame != nil || err != nil {
			return frame, err
		}
		if a.MaxFrameSize > 0 && len(a.pending) > a.MaxFrameSize {
			a.pending = nil
			return nil, ErrFrameTooLong
		}
	}
}

// cut removes the first complete frame from pending bytes.
func (a *Assembler) cut() ([]byte, error) {
	idx := bytes.IndexByte(a.pending, Terminator)
	if idx < 0 {
		return nil, nil
	}
	var frame []byte
	var err error
	if a.MaxFrameSize > 0 && idx+1 > a.MaxFrameSize {
		err = ErrFrameTooLong
	} else {
		frame = append([]byte(nil), a.pending[:idx+1]...)
	}
	if a.pending = a.pending[idx+1:]; len(a.pending) == 0 {
		a.pending = nil
	}
	return frame, err
}
