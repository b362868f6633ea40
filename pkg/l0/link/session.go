package link

import (
	"context"
	"sync"

	"github.com/golang/glog"
)

// Session is a request/response conversation over a Manager.
// Requests are serialized: a command is not sent before the response of
// the previous one has been received.
type Session struct {
	Manager   *Manager
	Assembler *Assembler
	Log       *CommLog

	lock sync.Mutex
}

// NewSession creates a Session with a default Assembler.
func NewSession(m *Manager) *Session {
	return &Session{
		Manager:   m,
		Assembler: NewAssembler(),
		Log:       &CommLog{},
	}
}

// IsConnected tells if the underlying link is connected.
func (s *Session) IsConnected() bool {
	return s.Manager.IsConnected()
}

// Send writes raw bytes followed by the terminator, without checksum.
func (s *Session) Send(data []byte) error {
	s.lock.Lock()
	defer s.lock.Unlock()
	return s.write(append(append([]byte(nil), data...), Terminator))
}

// SendFrame writes an encoded frame.
func (s *Session) SendFrame(f *Frame) error {
	b, err := f.Bytes()
	if err != nil {
		return err
	}
	s.lock.Lock()
	defer s.lock.Unlock()
	return s.write(b)
}

// Receive waits for the next response.
func (s *Session) Receive(ctx context.Context) (*Response, error) {
	s.lock.Lock()
	defer s.lock.Unlock()
	return s.receive(ctx)
}

// Do sends a frame and waits for its response.
func (s *Session) Do(ctx context.Context, f *Frame) (*Response, error) {
	b, err := f.Bytes()
	if err != nil {
		return nil, err
	}
	s.lock.Lock()
	defer s.lock.Unlock()
	if err = s.write(b); err != nil {
		return nil, err
	}
	return s.receive(ctx)
}

// Do8 sends an 8-bit command and waits for its response.
func (s *Session) Do8(ctx context.Context, cmd, data byte) (*Response, error) {
	return s.Do(ctx, &Frame{Code: cmd, Data: []byte{data}})
}

// Do16 sends a 16-bit command and waits for its response.
func (s *Session) Do16(ctx context.Context, cmd, hi, lo byte) (*Response, error) {
	return s.Do(ctx, &Frame{Code: cmd, Data: []byte{hi, lo}})
}

func (s *Session) write(b []byte) error {
	p, err := s.Manager.Port()
	if err != nil {
		return err
	}
	if glog.V(2) {
		glog.Infof("SND % x", b)
	}
	// a new request discards stale bytes of earlier responses.
	s.Assembler.Reset()
	if _, err = p.Write(b); err != nil {
		return err
	}
	if s.Log != nil {
		s.Log.RecordSent(b)
	}
	return nil
}

func (s *Session) receive(ctx context.Context) (*Response, error) {
	p, err := s.Manager.Port()
	if err != nil {
		return nil, err
	}
	raw, err := s.Assembler.ReceiveFrame(ctx, p)
	if err != nil {
		return nil, err
	}
	if glog.V(2) {
		glog.Infof("RCV % x", raw)
	}
	r, err := DecodeAndVerify(raw)
	if err != nil {
		if s.Log != nil {
			s.Log.RecordReceived(raw, nil)
		}
		return nil, err
	}
	if s.Log != nil {
		s.Log.RecordReceived(raw, r.Payload[:])
	}
	if !r.Valid {
		glog.Warningf("checksum mismatch: got %02x in % x", r.Checksum, raw)
	}
	return r, nil
}
