// Package robot maps robot actions onto L0 link commands.
package robot

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/robotalks/robolink/pkg/l0/link"
)

// Command is a single byte command code understood by the firmware.
type Command byte

// Commands.
const (
	CmdForward    Command = 'F'
	CmdBackward   Command = 'B'
	CmdTurnAround Command = 'I'
	CmdRight      Command = 'R'
	CmdLeft       Command = 'L'
	CmdStop       Command = 'S'
	CmdRotate     Command = 'G'
	CmdSensor     Command = 'D'
)

// Filler is the data byte of commands without an argument.
const Filler byte = '0'

var commandNames = map[Command]string{
	CmdForward:    "forward",
	CmdBackward:   "back",
	CmdTurnAround: "turn-around",
	CmdRight:      "right",
	CmdLeft:       "left",
	CmdStop:       "stop",
	CmdRotate:     "rotate",
	CmdSensor:     "sensor",
}

// String implements fmt.Stringer.
func (c Command) String() string {
	if name, ok := commandNames[c]; ok {
		return name
	}
	return fmt.Sprintf("cmd(%q)", byte(c))
}

// ParseCommand looks up a command by name.
func ParseCommand(name string) (Command, bool) {
	for cmd, n := range commandNames {
		if n == name {
			return cmd, true
		}
	}
	return 0, false
}

// Status is the outcome code of a command.
type Status string

// Status codes.
const (
	// StatusOK means the response checksum matched.
	StatusOK Status = "0"
	// StatusBadChecksum means the response checksum didn't match,
	// the payload is unreliable.
	StatusBadChecksum Status = "1"
	// StatusNoLink means nothing was sent, the link is not connected.
	StatusNoLink Status = "2"
	// StatusFailed means no usable response was received.
	StatusFailed Status = "3"
)

var (
	// ErrInvalidAngle indicates an angle which doesn't fit a frame.
	ErrInvalidAngle = errors.New("angle must be 1 or 2 characters")
)

// Result is the outcome of a command.
type Result struct {
	// Payload is the two character response payload.
	Payload string
	Status  Status
}

// OK tells if the payload can be trusted.
func (r Result) OK() bool {
	return r.Status == StatusOK
}

// Robot sends commands over a link session.
type Robot struct {
	Session *link.Session
}

// New creates a Robot.
func New(s *link.Session) *Robot {
	return &Robot{Session: s}
}

// Forward moves forward.
func (r *Robot) Forward(ctx context.Context) (Result, error) {
	return r.Do(ctx, CmdForward, Filler)
}

// Backward moves backward.
func (r *Robot) Backward(ctx context.Context) (Result, error) {
	return r.Do(ctx, CmdBackward, Filler)
}

// TurnAround rotates 180 degrees.
func (r *Robot) TurnAround(ctx context.Context) (Result, error) {
	return r.Do(ctx, CmdTurnAround, Filler)
}

// Right turns right.
func (r *Robot) Right(ctx context.Context) (Result, error) {
	return r.Do(ctx, CmdRight, Filler)
}

// Left turns left.
func (r *Robot) Left(ctx context.Context) (Result, error) {
	return r.Do(ctx, CmdLeft, Filler)
}

// Stop stops moving.
func (r *Robot) Stop(ctx context.Context) (Result, error) {
	return r.Do(ctx, CmdStop, Filler)
}

// Rotate rotates by degrees. The angle is sent as its decimal string,
// which must be 1 or 2 characters long.
func (r *Robot) Rotate(ctx context.Context, degrees int) (Result, error) {
	s := strconv.Itoa(degrees)
	if len(s) < 1 || len(s) > 2 {
		return Result{Status: StatusFailed}, fmt.Errorf("%w: %d", ErrInvalidAngle, degrees)
	}
	return r.Do(ctx, CmdRotate, []byte(s)...)
}

// Sensor queries a sensor.
func (r *Robot) Sensor(ctx context.Context, id byte) (Result, error) {
	return r.Do(ctx, CmdSensor, id)
}

// Command16 sends a command with a 16-bit argument.
func (r *Robot) Command16(ctx context.Context, cmd Command, val uint16) (Result, error) {
	return r.Do(ctx, cmd, byte(val>>8), byte(val))
}

// Do sends a command with 1 or 2 data bytes and waits for the response.
// When the link is not connected nothing is sent, StatusNoLink is returned
// with link.ErrLinkUnavailable. A checksum mismatch is not an error: the
// payload is returned with StatusBadChecksum.
func (r *Robot) Do(ctx context.Context, cmd Command, data ...byte) (Result, error) {
	if r.Session == nil || !r.Session.IsConnected() {
		return Result{Status: StatusNoLink}, link.ErrLinkUnavailable
	}
	resp, err := r.Session.Do(ctx, &link.Frame{Code: byte(cmd), Data: data})
	if err != nil {
		if errors.Is(err, link.ErrLinkUnavailable) {
			return Result{Status: StatusNoLink}, err
		}
		return Result{Status: StatusFailed}, fmt.Errorf("%s: %w", cmd, err)
	}
	res := Result{Payload: resp.PayloadString(), Status: StatusOK}
	if !resp.Valid {
		res.Status = StatusBadChecksum
	}
	return res, nil
}
