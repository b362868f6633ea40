// Package porttest provides an in-memory Port for tests and simulation.
package porttest

import (
	"errors"
	"sync"
	"time"

	"github.com/robotalks/robolink/pkg/l0/port"
)

// Responder is invoked with every chunk written to the port.
type Responder func(p *Port, written []byte)

// Port is an in-memory port. Bytes injected are returned by Read,
// bytes written are recorded.
type Port struct {
	ID        string
	Responder Responder

	lock    sync.Mutex
	pending []byte
	written []byte
	timeout time.Duration
	closed  bool
	notify  chan struct{}
}

// New creates a Port.
func New(id string) *Port {
	return &Port{ID: id, notify: make(chan struct{}, 1)}
}

// Inject queues bytes to be read.
func (p *Port) Inject(b ...byte) {
	p.lock.Lock()
	p.pending = append(p.pending, b...)
	p.lock.Unlock()
	select {
	case p.notify <- struct{}{}:
	default:
	}
}

// Written returns a copy of all bytes written so far.
func (p *Port) Written() []byte {
	p.lock.Lock()
	defer p.lock.Unlock()
	return append([]byte(nil), p.written...)
}

// Closed tells if Close was called.
func (p *Port) Closed() bool {
	p.lock.Lock()
	defer p.lock.Unlock()
	return p.closed
}

// Read implements io.Reader. It returns 0, nil when the read timeout
// expires without data, like a serial device does.
func (p *Port) Read(b []byte) (int, error) {
	p.lock.Lock()
	timeout := p.timeout
	p.lock.Unlock()
	var expire <-chan time.Time
	if timeout > 0 {
		expire = time.After(timeout)
	}
	for {
		p.lock.Lock()
		if p.closed {
			p.lock.Unlock()
			return 0, port.ErrClosed
		}
		if len(p.pending) > 0 {
			n := copy(b, p.pending)
			p.pending = p.pending[n:]
			p.lock.Unlock()
			return n, nil
		}
		p.lock.Unlock()
		select {
		case <-p.notify:
		case <-expire:
			return 0, nil
		}
	}
}

// Write implements io.Writer.
func (p *Port) Write(b []byte) (int, error) {
	p.lock.Lock()
	if p.closed {
		p.lock.Unlock()
		return 0, port.ErrClosed
	}
	p.written = append(p.written, b...)
	responder := p.Responder
	p.lock.Unlock()
	if responder != nil {
		responder(p, append([]byte(nil), b...))
	}
	return len(b), nil
}

// Close implements io.Closer.
func (p *Port) Close() error {
	p.lock.Lock()
	p.closed = true
	p.lock.Unlock()
	select {
	case p.notify <- struct{}{}:
	default:
	}
	return nil
}

// SetReadTimeout implements port.Port.
func (p *Port) SetReadTimeout(d time.Duration) error {
	p.lock.Lock()
	p.timeout = d
	p.lock.Unlock()
	return nil
}

// Opener opens in-memory ports by identifier. Identifiers not present
// in Ports fail with the error in Errors, or a generic error.
type Opener struct {
	Ports  map[string]*Port
	Errors map[string]error

	lock   sync.Mutex
	opened []string
}

// NewOpener creates an Opener serving the given ports.
func NewOpener(ports ...*Port) *Opener {
	o := &Opener{Ports: make(map[string]*Port), Errors: make(map[string]error)}
	for _, p := range ports {
		o.Ports[p.ID] = p
	}
	return o
}

// Open implements port.Opener.
func (o *Opener) Open(id string, _ port.Mode) (port.Port, error) {
	o.lock.Lock()
	o.opened = append(o.opened, id)
	o.lock.Unlock()
	if p, ok := o.Ports[id]; ok {
		p.lock.Lock()
		p.closed = false
		p.lock.Unlock()
		return p, nil
	}
	if err, ok := o.Errors[id]; ok {
		return nil, err
	}
	return nil, errNoDevice
}

// Attempts returns identifiers passed to Open, in order.
func (o *Opener) Attempts() []string {
	o.lock.Lock()
	defer o.lock.Unlock()
	return append([]string(nil), o.opened...)
}

var errNoDevice = errors.New("no such device")
