package mqtt

import (
	"context"
	"sync"
	"testing"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	"github.com/stretchr/testify/require"

	"github.com/robotalks/robolink/pkg/l0/link"
	"github.com/robotalks/robolink/pkg/l0/port/porttest"
	"github.com/robotalks/robolink/pkg/robot"
)

type publication struct {
	topic   string
	payload []byte
	retain  bool
}

type fakeQueue struct {
	lock   sync.Mutex
	subs   map[string]Handler
	pubCh  chan publication
	subbed chan struct{}
}

func newFakeQueue() *fakeQueue {
	return &fakeQueue{
		subs:   make(map[string]Handler),
		pubCh:  make(chan publication, 16),
		subbed: make(chan struct{}, 4),
	}
}

func (q *fakeQueue) Sub(topic string, handler Handler) paho.Token {
	q.lock.Lock()
	q.subs[topic] = handler
	q.lock.Unlock()
	q.subbed <- struct{}{}
	return &paho.DummyToken{}
}

func (q *fakeQueue) PubWith(topic string, payload []byte, qos byte, retain bool) paho.Token {
	q.pubCh <- publication{topic: topic, payload: payload, retain: retain}
	return &paho.DummyToken{}
}

func (q *fakeQueue) deliver(topic string, payload []byte) {
	q.lock.Lock()
	var handlers []Handler
	for pattern, h := range q.subs {
		if MatchTopic(topic, pattern) {
			handlers = append(handlers, h)
		}
	}
	q.lock.Unlock()
	for _, h := range handlers {
		h(topic, payload)
	}
}

func (q *fakeQueue) next(t *testing.T) publication {
	select {
	case pub := <-q.pubCh:
		return pub
	case <-time.After(time.Second):
		t.Fatal("publication timeout")
	}
	return publication{}
}

func newTestBridge(t *testing.T) (*Bridge, *fakeQueue, *porttest.Port) {
	p := porttest.New(link.DefaultPrimaryPort)
	p.Responder = func(p *porttest.Port, written []byte) {
		p.Inject(link.Encode16(written[0], 'O', 'K')...)
	}
	s := link.NewSession(link.NewManager(porttest.NewOpener(p)))
	s.Assembler.Timeout = 200 * time.Millisecond
	s.Assembler.PollInterval = time.Millisecond
	require.NoError(t, s.Manager.Open())
	q := newFakeQueue()
	return NewBridge(robot.New(s), q, "bot1"), q, p
}

func TestBridgeExecute(t *testing.T) {
	b, _, p := newTestBridge(t)
	ctx := context.Background()

	res, err := b.Execute(ctx, robot.CmdRotate, "45")
	require.NoError(t, err)
	require.Equal(t, robot.Result{Payload: "OK", Status: robot.StatusOK}, res)
	require.Equal(t, link.Encode16('G', '4', '5'), p.Written())

	_, err = b.Execute(ctx, robot.CmdRotate, "left")
	require.Error(t, err)
	_, err = b.Execute(ctx, robot.CmdSensor, "300")
	require.Error(t, err)

	res, err = b.Execute(ctx, robot.CmdSensor, "3")
	require.NoError(t, err)
	require.True(t, res.OK())
}

func TestBridgeRun(t *testing.T) {
	b, q, _ := newTestBridge(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	errCh := make(chan error, 1)
	go func() { errCh <- b.Run(ctx) }()
	<-q.subbed
	<-q.subbed

	meta := q.next(t)
	require.Equal(t, "bot1/meta", meta.topic)
	require.True(t, meta.retain)
	out, err := FormatJSON(meta.payload)
	require.NoError(t, err)
	require.Contains(t, out, `"connected":true`)

	q.deliver("bot1/cmd/forward", nil)
	pub := q.next(t)
	require.Equal(t, "bot1/result/forward", pub.topic)
	report, err := DecodeReport(pub.payload)
	require.NoError(t, err)
	require.Equal(t, "forward", report.Command)
	require.Equal(t, "OK", report.Payload)
	require.Equal(t, robot.StatusOK, report.Status)
	require.Empty(t, report.Error)

	q.deliver("bot1/link/close", nil)
	meta = q.next(t)
	require.Equal(t, "bot1/meta", meta.topic)
	out, err = FormatJSON(meta.payload)
	require.NoError(t, err)
	require.Contains(t, out, `"connected":false`)

	q.deliver("bot1/cmd/stop", nil)
	pub = q.next(t)
	report, err = DecodeReport(pub.payload)
	require.NoError(t, err)
	require.Equal(t, robot.StatusNoLink, report.Status)
	require.Equal(t, link.ErrLinkUnavailable.Error(), report.Error)

	q.deliver("bot1/link/open", []byte(link.DefaultPrimaryPort))
	meta = q.next(t)
	out, err = FormatJSON(meta.payload)
	require.NoError(t, err)
	require.Contains(t, out, `"connected":true`)

	cancel()
	require.Equal(t, context.Canceled, <-errCh)
}

func TestPollerPoll(t *testing.T) {
	b, q, _ := newTestBridge(t)
	poller := &Poller{Bridge: b, Sensors: []byte{1, 7}}
	poller.Poll(context.Background())
	for _, topic := range []string{"bot1/sensor/1", "bot1/sensor/7"} {
		pub := q.next(t)
		require.Equal(t, topic, pub.topic)
		report, err := DecodeReport(pub.payload)
		require.NoError(t, err)
		require.Equal(t, "sensor", report.Command)
		require.Equal(t, "OK", report.Payload)
	}

	require.NoError(t, b.Robot.Session.Manager.Close())
	poller.Poll(context.Background())
	select {
	case pub := <-q.pubCh:
		t.Fatalf("unexpected publication on %s", pub.topic)
	default:
	}
}
