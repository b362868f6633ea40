package mqtt

import (
	"context"
	"fmt"
	"path"
	"strconv"

	paho "github.com/eclipse/paho.mqtt.golang"
	"github.com/golang/glog"

	"github.com/robotalks/robolink/pkg/robot"
)

// Subscriber subscribes topics relative to a prefix.
type Subscriber interface {
	Sub(topic string, handler Handler) paho.Token
}

// PubSub is implemented by Queue.
type PubSub interface {
	Publisher
	Subscriber
}

// Topic names under the robot namespace.
const (
	TopicCmd    = "cmd"
	TopicResult = "result"
	TopicSensor = "sensor"
	TopicMeta   = "meta"
	TopicLink   = "link"
)

// Link operations accepted on <id>/link/<op>.
const (
	LinkOpen  = "open"
	LinkClose = "close"
)

// DefaultBacklog is the number of commands queued for execution.
const DefaultBacklog = 8

type request struct {
	cmd    robot.Command
	arg    string
	linkOp string
}

// Bridge executes commands received on <id>/cmd/<name> and publishes
// results on <id>/result/<name>.
type Bridge struct {
	Robot   *robot.Robot
	Queue   PubSub
	RobotID string

	reqCh chan request
}

// NewBridge creates a Bridge.
func NewBridge(r *robot.Robot, q PubSub, robotID string) *Bridge {
	return &Bridge{
		Robot:   r,
		Queue:   q,
		RobotID: robotID,
		reqCh:   make(chan request, DefaultBacklog),
	}
}

// Name implements framework.Named.
func (b *Bridge) Name() string {
	return "mqtt-bridge"
}

// Topic returns a topic in the robot namespace.
func (b *Bridge) Topic(elems ...string) string {
	return path.Join(append([]string{b.RobotID}, elems...)...)
}

// PublishState publishes the link state as a retained meta message.
func (b *Bridge) PublishState() error {
	payload, err := EncodeState(b.Robot.Session.Manager.State())
	if err != nil {
		return err
	}
	token := b.Queue.PubWith(b.Topic(TopicMeta), payload, 1, true)
	token.Wait()
	return token.Error()
}

// Publish publishes a report.
func (b *Bridge) Publish(topic string, report *Report) error {
	payload, err := report.Encode()
	if err != nil {
		return err
	}
	token := b.Queue.PubWith(topic, payload, 0, false)
	token.Wait()
	return token.Error()
}

// HandleMessage accepts a message from the cmd topic.
func (b *Bridge) HandleMessage(topic string, payload []byte) {
	name := path.Base(topic)
	cmd, ok := robot.ParseCommand(name)
	if !ok {
		glog.Warningf("unknown command %q", name)
		return
	}
	select {
	case b.reqCh <- request{cmd: cmd, arg: string(payload)}:
	default:
		glog.Warningf("command %s dropped: backlog full", name)
	}
}

// HandleLinkMessage accepts a message from the link topic. The payload
// of open is an optional port identifier; without it the configured
// ports are tried in order.
func (b *Bridge) HandleLinkMessage(topic string, payload []byte) {
	op := path.Base(topic)
	if op != LinkOpen && op != LinkClose {
		glog.Warningf("unknown link operation %q", op)
		return
	}
	select {
	case b.reqCh <- request{linkOp: op, arg: string(payload)}:
	default:
		glog.Warningf("link %s dropped: backlog full", op)
	}
}

// Run implements framework.Runnable.
func (b *Bridge) Run(ctx context.Context) error {
	for topic, handler := range map[string]Handler{
		b.Topic(TopicCmd, "+"):  b.HandleMessage,
		b.Topic(TopicLink, "+"): b.HandleLinkMessage,
	} {
		token := b.Queue.Sub(topic, handler)
		token.Wait()
		if err := token.Error(); err != nil {
			return err
		}
	}
	if err := b.PublishState(); err != nil {
		glog.Warningf("publish state failed: %v", err)
	}
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case req := <-b.reqCh:
			if req.linkOp != "" {
				if err := b.ExecuteLink(req.linkOp, req.arg); err != nil {
					glog.Warningf("link %s: %v", req.linkOp, err)
				}
				if err := b.PublishState(); err != nil {
					glog.Errorf("publish state failed: %v", err)
				}
				continue
			}
			res, err := b.Execute(ctx, req.cmd, req.arg)
			if err != nil {
				glog.Warningf("%s %s: %v", req.cmd, req.arg, err)
			}
			report := NewReport(req.cmd, req.arg, res, err)
			if err = b.Publish(b.Topic(TopicResult, req.cmd.String()), report); err != nil {
				glog.Errorf("publish result failed: %v", err)
			}
		}
	}
}

// ExecuteLink opens or closes the link.
func (b *Bridge) ExecuteLink(op, portID string) error {
	m := b.Robot.Session.Manager
	switch op {
	case LinkOpen:
		if portID != "" {
			return m.OpenPort(portID)
		}
		return m.Open()
	case LinkClose:
		return m.Close()
	}
	return fmt.Errorf("unsupported link operation %q", op)
}

// Execute runs a command with its textual argument.
func (b *Bridge) Execute(ctx context.Context, cmd robot.Command, arg string) (robot.Result, error) {
	switch cmd {
	case robot.CmdForward:
		return b.Robot.Forward(ctx)
	case robot.CmdBackward:
		return b.Robot.Backward(ctx)
	case robot.CmdTurnAround:
		return b.Robot.TurnAround(ctx)
	case robot.CmdRight:
		return b.Robot.Right(ctx)
	case robot.CmdLeft:
		return b.Robot.Left(ctx)
	case robot.CmdStop:
		return b.Robot.Stop(ctx)
	case robot.CmdRotate:
		deg, err := strconv.Atoi(arg)
		if err != nil {
			return robot.Result{Status: robot.StatusFailed}, fmt.Errorf("invalid angle %q: %v", arg, err)
		}
		return b.Robot.Rotate(ctx, deg)
	case robot.CmdSensor:
		id, err := strconv.ParseUint(arg, 10, 8)
		if err != nil {
			return robot.Result{Status: robot.StatusFailed}, fmt.Errorf("invalid sensor id %q: %v", arg, err)
		}
		return b.Robot.Sensor(ctx, byte(id))
	}
	return robot.Result{Status: robot.StatusFailed}, fmt.Errorf("unsupported command %s", cmd)
}
