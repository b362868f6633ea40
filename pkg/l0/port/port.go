// Package port provides access to the physical link between the host
// and the motion controller.
package port

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"time"
)

// DefaultBaudRate is the UART speed expected by the firmware.
const DefaultBaudRate = 115200

// ErrClosed indicates the port is already closed.
var ErrClosed = errors.New("port closed")

// Port is an opened link to the controller.
// Read returns 0, nil when the read timeout expires without data.
type Port interface {
	io.ReadWriteCloser
	SetReadTimeout(time.Duration) error
}

// Mode defines the line settings used when opening a port.
type Mode struct {
	BaudRate int
}

// Opener opens a port by identifier.
type Opener interface {
	Open(id string, mode Mode) (Port, error)
}

// OpenFunc is the func form of Opener.
type OpenFunc func(id string, mode Mode) (Port, error)

// Open implements Opener.
func (f OpenFunc) Open(id string, mode Mode) (Port, error) {
	return f(id, mode)
}

// Error wraps a failure opening a specific port.
type Error struct {
	ID  string
	Err error
}

// Error implements error.
func (e *Error) Error() string {
	return fmt.Sprintf("open %s: %v", e.ID, e.Err)
}

// Unwrap returns the underlying error.
func (e *Error) Unwrap() error {
	return e.Err
}

// Mux dispatches port identifiers by URL scheme.
// Identifiers without a registered scheme are opened by Default.
type Mux struct {
	Schemes map[string]Opener
	Default Opener
}

// NewMux creates a Mux with the builtin openers:
// tcp://host:port, ws:// and wss:// URLs, and serial devices.
func NewMux() *Mux {
	return &Mux{
		Schemes: map[string]Opener{
			"tcp": OpenFunc(OpenTCP),
			"ws":  OpenFunc(OpenWebsocket),
			"wss": OpenFunc(OpenWebsocket),
		},
		Default: OpenFunc(OpenSerial),
	}
}

// Handle registers an opener for a scheme.
func (m *Mux) Handle(scheme string, opener Opener) *Mux {
	if m.Schemes == nil {
		m.Schemes = make(map[string]Opener)
	}
	m.Schemes[scheme] = opener
	return m
}

// Open implements Opener.
func (m *Mux) Open(id string, mode Mode) (Port, error) {
	if id == "" {
		return nil, &Error{ID: id, Err: errors.New("empty port identifier")}
	}
	opener := m.Default
	if n := strings.Index(id, "://"); n > 0 {
		if o, ok := m.Schemes[id[:n]]; ok {
			opener = o
		}
	}
	if opener == nil {
		return nil, &Error{ID: id, Err: errors.New("no opener")}
	}
	p, err := opener.Open(id, mode)
	if err != nil {
		return nil, &Error{ID: id, Err: err}
	}
	return p, nil
}
