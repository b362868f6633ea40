package link

import (
	"context"
	"fmt"
	"sync"

	"github.com/golang/glog"

	fx "github.com/robotalks/robolink/pkg/framework"
	"github.com/robotalks/robolink/pkg/l0/port"
)

// Default port identifiers.
const (
	DefaultPrimaryPort   = "/dev/ttyAMA0"
	DefaultAlternatePort = "COM2"
)

// ConnectionState is either disconnected (empty Port) or connected
// to Port at BaudRate.
type ConnectionState struct {
	Port     string
	BaudRate int
}

// Connected tells if a port is held.
func (s ConnectionState) Connected() bool {
	return s.Port != ""
}

// String implements fmt.Stringer.
func (s ConnectionState) String() string {
	if !s.Connected() {
		return "disconnected"
	}
	return fmt.Sprintf("%s@%d", s.Port, s.BaudRate)
}

// Manager owns the physical port.
type Manager struct {
	PrimaryPort   string
	AlternatePort string
	BaudRate      int
	Opener        port.Opener

	lock   sync.Mutex
	port   port.Port
	active string
}

// NewManager creates a Manager with default ports opened by opener.
func NewManager(opener port.Opener) *Manager {
	return &Manager{
		PrimaryPort:   DefaultPrimaryPort,
		AlternatePort: DefaultAlternatePort,
		BaudRate:      port.DefaultBaudRate,
		Opener:        opener,
	}
}

// Open opens the primary port, falling back to the alternate one.
// When both fail the manager stays disconnected and the returned error
// matches ErrLinkUnavailable.
func (m *Manager) Open() error {
	m.lock.Lock()
	defer m.lock.Unlock()
	m.closeLocked()

	var errs fx.AggregatedError
	for _, id := range []string{m.PrimaryPort, m.AlternatePort} {
		if id == "" {
			continue
		}
		err := m.openLocked(id)
		if err == nil {
			return nil
		}
		glog.Warningf("open port %s failed: %v", id, err)
		errs.Add(err)
	}
	if len(errs.Errors) == 0 {
		errs.Add(fmt.Errorf("no port configured"))
	}
	return fmt.Errorf("%w: %v", ErrLinkUnavailable, errs.Aggregate())
}

// OpenPort opens the specified port only.
func (m *Manager) OpenPort(id string) error {
	m.lock.Lock()
	defer m.lock.Unlock()
	m.closeLocked()
	if err := m.openLocked(id); err != nil {
		glog.Warningf("open port %s failed: %v", id, err)
		return fmt.Errorf("%w: %v", ErrLinkUnavailable, err)
	}
	return nil
}

// Close releases the port. Closing a closed link is a no-op.
func (m *Manager) Close() error {
	m.lock.Lock()
	defer m.lock.Unlock()
	return m.closeLocked()
}

// Hold keeps the link until ctx is canceled, then closes it.
func (m *Manager) Hold(ctx context.Context) error {
	<-ctx.Done()
	m.Close()
	return ctx.Err()
}

// IsConnected tells if a port is held.
func (m *Manager) IsConnected() bool {
	m.lock.Lock()
	defer m.lock.Unlock()
	return m.port != nil
}

// State returns the connection state.
func (m *Manager) State() ConnectionState {
	m.lock.Lock()
	defer m.lock.Unlock()
	if m.port == nil {
		return ConnectionState{}
	}
	return ConnectionState{Port: m.active, BaudRate: m.baudRate()}
}

// Port returns the held port, or ErrLinkUnavailable.
func (m *Manager) Port() (port.Port, error) {
	m.lock.Lock()
	defer m.lock.Unlock()
	if m.port == nil {
		return nil, ErrLinkUnavailable
	}
	return m.port, nil
}

func (m *Manager) openLocked(id string) error {
	if m.Opener == nil {
		return fmt.Errorf("no opener")
	}
	p, err := m.Opener.Open(id, port.Mode{BaudRate: m.baudRate()})
	if err != nil {
		return err
	}
	m.port, m.active = p, id
	glog.Infof("link open on %s at %d baud", id, m.baudRate())
	return nil
}

func (m *Manager) closeLocked() error {
	if m.port == nil {
		return nil
	}
	err := m.port.Close()
	glog.Infof("link on %s closed", m.active)
	m.port, m.active = nil, ""
	return err
}

func (m *Manager) baudRate() int {
	if m.BaudRate == 0 {
		return port.DefaultBaudRate
	}
	return m.BaudRate
}
