package mqtt

import (
	"context"
	"strconv"
	"time"

	"github.com/golang/glog"

	"github.com/robotalks/robolink/pkg/robot"
)

// Poller queries sensors periodically and publishes readings on
// <id>/sensor/<sensor-id>.
type Poller struct {
	Bridge   *Bridge
	Sensors  []byte
	Interval time.Duration
}

// Name implements framework.Named.
func (p *Poller) Name() string {
	return "sensor-poller"
}

// Poll queries all sensors once.
func (p *Poller) Poll(ctx context.Context) {
	for _, id := range p.Sensors {
		arg := strconv.Itoa(int(id))
		res, err := p.Bridge.Robot.Sensor(ctx, id)
		if res.Status == robot.StatusNoLink {
			// nothing to report until the link is back.
			return
		}
		if err != nil {
			glog.V(1).Infof("sensor %d: %v", id, err)
		}
		report := NewReport(robot.CmdSensor, arg, res, err)
		if err = p.Bridge.Publish(p.Bridge.Topic(TopicSensor, arg), report); err != nil {
			glog.Errorf("publish sensor %d failed: %v", id, err)
		}
	}
}

// Run implements framework.Runnable.
func (p *Poller) Run(ctx context.Context) error {
	if len(p.Sensors) == 0 {
		<-ctx.Done()
		return ctx.Err()
	}
	interval := p.Interval
	if interval <= 0 {
		interval = time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			p.Poll(ctx)
		}
	}
}
