package port

import (
	"net"
	"net/url"
	"strings"
	"sync"
	"time"

	"golang.org/x/net/websocket"
)

// netPort adapts a net.Conn to Port. The read timeout is applied
// as a deadline before each read.
type netPort struct {
	conn net.Conn

	lock    sync.Mutex
	timeout time.Duration
}

// NewNetPort wraps a connected net.Conn.
func NewNetPort(conn net.Conn) Port {
	return &netPort{conn: conn}
}

func (p *netPort) Read(b []byte) (int, error) {
	p.lock.Lock()
	timeout := p.timeout
	p.lock.Unlock()
	var deadline time.Time
	if timeout > 0 {
		deadline = time.Now().Add(timeout)
	}
	if err := p.conn.SetReadDeadline(deadline); err != nil {
		return 0, err
	}
	n, err := p.conn.Read(b)
	if ne, ok := err.(net.Error); ok && ne.Timeout() {
		return n, nil
	}
	return n, err
}

func (p *netPort) Write(b []byte) (int, error) {
	return p.conn.Write(b)
}

func (p *netPort) Close() error {
	return p.conn.Close()
}

func (p *netPort) SetReadTimeout(d time.Duration) error {
	p.lock.Lock()
	p.timeout = d
	p.lock.Unlock()
	return nil
}

// OpenTCP connects to a raw TCP serial server (e.g. ser2net).
// The id is tcp://host:port; baud rate is owned by the server.
func OpenTCP(id string, _ Mode) (Port, error) {
	addr := strings.TrimPrefix(id, "tcp://")
	conn, err := net.DialTimeout("tcp", addr, 5*time.Second)
	if err != nil {
		return nil, err
	}
	return NewNetPort(conn), nil
}

// OpenWebsocket connects to a websocket bridged link, typically a
// simulator or a remote serial proxy.
func OpenWebsocket(id string, _ Mode) (Port, error) {
	u, err := url.Parse(id)
	if err != nil {
		return nil, err
	}
	origin := "http://" + u.Host
	if u.Scheme == "wss" {
		origin = "https://" + u.Host
	}
	conn, err := websocket.Dial(id, "", origin)
	if err != nil {
		return nil, err
	}
	conn.PayloadType = websocket.BinaryFrame
	return NewNetPort(conn), nil
}
