package mqtt

import (
	"time"

	"github.com/golang/protobuf/jsonpb"
	"github.com/golang/protobuf/proto"
	structpb "github.com/golang/protobuf/ptypes/struct"

	"github.com/robotalks/robolink/pkg/l0/link"
	"github.com/robotalks/robolink/pkg/robot"
)

// Report is published for every command result and sensor reading.
type Report struct {
	Command string
	// Arg is the command argument, e.g. sensor id or angle.
	Arg     string
	Payload string
	Status  robot.Status
	Error   string
	Time    time.Time
}

// NewReport creates a Report from a command outcome.
func NewReport(cmd robot.Command, arg string, res robot.Result, err error) *Report {
	r := &Report{
		Command: cmd.String(),
		Arg:     arg,
		Payload: res.Payload,
		Status:  res.Status,
		Time:    time.Now(),
	}
	if err != nil {
		r.Error = err.Error()
	}
	return r
}

// Struct converts the report to a protobuf Struct.
func (r *Report) Struct() *structpb.Struct {
	return &structpb.Struct{Fields: map[string]*structpb.Value{
		"command": stringValue(r.Command),
		"arg":     stringValue(r.Arg),
		"payload": stringValue(r.Payload),
		"status":  stringValue(string(r.Status)),
		"error":   stringValue(r.Error),
		"time":    stringValue(r.Time.UTC().Format(time.RFC3339Nano)),
	}}
}

// Encode serializes the report.
func (r *Report) Encode() ([]byte, error) {
	return proto.Marshal(r.Struct())
}

// DecodeReport deserializes a report.
func DecodeReport(data []byte) (*Report, error) {
	var s structpb.Struct
	if err := proto.Unmarshal(data, &s); err != nil {
		return nil, err
	}
	r := &Report{
		Command: fieldString(&s, "command"),
		Arg:     fieldString(&s, "arg"),
		Payload: fieldString(&s, "payload"),
		Status:  robot.Status(fieldString(&s, "status")),
		Error:   fieldString(&s, "error"),
	}
	if ts := fieldString(&s, "time"); ts != "" {
		t, err := time.Parse(time.RFC3339Nano, ts)
		if err != nil {
			return nil, err
		}
		r.Time = t
	}
	return r, nil
}

// EncodeState serializes the link state published on the meta topic.
func EncodeState(state link.ConnectionState) ([]byte, error) {
	return proto.Marshal(&structpb.Struct{Fields: map[string]*structpb.Value{
		"port":      stringValue(state.Port),
		"baud":      {Kind: &structpb.Value_NumberValue{NumberValue: float64(state.BaudRate)}},
		"connected": {Kind: &structpb.Value_BoolValue{BoolValue: state.Connected()}},
	}})
}

// FormatJSON renders an encoded payload as JSON.
func FormatJSON(data []byte) (string, error) {
	var s structpb.Struct
	if err := proto.Unmarshal(data, &s); err != nil {
		return "", err
	}
	return (&jsonpb.Marshaler{}).MarshalToString(&s)
}

func stringValue(s string) *structpb.Value {
	return &structpb.Value{Kind: &structpb.Value_StringValue{StringValue: s}}
}

func fieldString(s *structpb.Struct, key string) string {
	if v, ok := s.Fields[key]; ok {
		return v.GetStringValue()
	}
	return ""
}
