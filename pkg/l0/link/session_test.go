package link

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/robotalks/robolink/pkg/l0/port/porttest"
)

// echoFirmware replies to each command with its own command and data.
func echoFirmware(p *porttest.Port, written []byte) {
	if len(written) >= MinFrameLen {
		p.Inject(written...)
	}
}

func newTestSession(t *testing.T, responder porttest.Responder) (*Session, *porttest.Port) {
	p := porttest.New(DefaultPrimaryPort)
	p.Responder = responder
	s := NewSession(NewManager(porttest.NewOpener(p)))
	s.Assembler.Timeout = 200 * time.Millisecond
	s.Assembler.PollInterval = time.Millisecond
	require.NoError(t, s.Manager.Open())
	return s, p
}

func TestSessionDo(t *testing.T) {
	s, p := newTestSession(t, echoFirmware)
	r, err := s.Do8(context.Background(), 'F', '0')
	require.NoError(t, err)
	require.True(t, r.Valid)
	require.Equal(t, "F0", r.PayloadString())
	require.Equal(t, Encode8('F', '0'), p.Written())

	r, err = s.Do16(context.Background(), 'G', '4', '5')
	require.NoError(t, err)
	require.True(t, r.Valid)
	require.Equal(t, "45", r.PayloadString())

	require.Equal(t, append(Encode8('F', '0'), Encode16('G', '4', '5')...), s.Log.Sent())
	require.Equal(t, Encode16('G', '4', '5'), s.Log.LastSent())
	require.Equal(t, []byte("45"), s.Log.LastReceived())
}

func TestSessionBadChecksum(t *testing.T) {
	s, _ := newTestSession(t, func(p *porttest.Port, written []byte) {
		p.Inject('D', 'O', 'K', 0x00, Terminator)
	})
	r, err := s.Do8(context.Background(), 'D', 1)
	require.NoError(t, err)
	require.False(t, r.Valid)
	require.Equal(t, "OK", r.PayloadString())
}

func TestSessionMalformed(t *testing.T) {
	s, _ := newTestSession(t, func(p *porttest.Port, written []byte) {
		p.Inject('x', Terminator)
	})
	_, err := s.Do8(context.Background(), 'S', '0')
	require.True(t, errors.Is(err, ErrMalformedResponse))
	require.Equal(t, []byte{'x', Terminator}, s.Log.Received())
}

func TestSessionTimeout(t *testing.T) {
	s, _ := newTestSession(t, nil)
	_, err := s.Do8(context.Background(), 'S', '0')
	require.Equal(t, ErrTimeout, err)
}

func TestSessionSend(t *testing.T) {
	s, p := newTestSession(t, nil)
	require.NoError(t, s.Send([]byte("hello")))
	require.Equal(t, []byte("hello*"), p.Written())
	require.Equal(t, []byte("hello*"), s.Log.LastSent())
}

func TestSessionDisconnected(t *testing.T) {
	s, p := newTestSession(t, echoFirmware)
	require.NoError(t, s.Manager.Close())
	_, err := s.Do8(context.Background(), 'F', '0')
	require.Equal(t, ErrLinkUnavailable, err)
	require.Equal(t, ErrLinkUnavailable, s.Send([]byte("x")))
	_, err = s.Receive(context.Background())
	require.Equal(t, ErrLinkUnavailable, err)
	require.Empty(t, p.Written())
}
