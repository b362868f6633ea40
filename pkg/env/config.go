// Package env sets up a link session and its surroundings from flags
// and environment variables.
package env

import (
	"flag"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/denisbrodbeck/machineid"

	"github.com/robotalks/robolink/pkg/l0/link"
	"github.com/robotalks/robolink/pkg/l0/port"
	"github.com/robotalks/robolink/pkg/robot"
)

// Config provides options to set up a link session.
type Config struct {
	PrimaryPort   string
	AlternatePort string
	BaudRate      int

	ReceiveTimeout time.Duration
	MaxFrameSize   int
	PollInterval   time.Duration
	// CommLogLimit caps the communication log, 0 is unlimited.
	CommLogLimit int

	// RobotID identifies the robot on MQTT topics.
	RobotID string
	// MQTTBrokerURL specifies the MQTT broker to use.
	// e.g. mqtt://host:port/topic-prefix
	MQTTBrokerURL string

	// Sensors lists sensor ids polled every SensorInterval.
	Sensors        SensorList
	SensorInterval time.Duration
}

var defaultConfig = Config{
	PrimaryPort:    link.DefaultPrimaryPort,
	AlternatePort:  link.DefaultAlternatePort,
	BaudRate:       port.DefaultBaudRate,
	ReceiveTimeout: link.DefaultReceiveTimeout,
	MaxFrameSize:   link.DefaultMaxFrameSize,
	PollInterval:   link.DefaultPollInterval,
	CommLogLimit:   64 * 1024,
	MQTTBrokerURL:  "mqtt://localhost:1883/robo/",
	SensorInterval: time.Second,
}

func init() {
	if val := os.Getenv("ROBO_PORT"); val != "" {
		defaultConfig.PrimaryPort = val
	}
	if val := os.Getenv("ROBO_ALT_PORT"); val != "" {
		defaultConfig.AlternatePort = val
	}
	if val := os.Getenv("ROBO_BAUD"); val != "" {
		if baud, err := strconv.Atoi(val); err == nil {
			defaultConfig.BaudRate = baud
		}
	}
	if val := os.Getenv("ROBO_MQTT_URL"); val != "" {
		defaultConfig.MQTTBrokerURL = val
	}
	if val := os.Getenv("ROBO_ID"); val != "" {
		defaultConfig.RobotID = val
	} else if id, err := machineid.ID(); err == nil {
		defaultConfig.RobotID = id
	}
}

// SetupFlags sets command line flags.
func SetupFlags() {
	flag.StringVar(&defaultConfig.PrimaryPort, "port", defaultConfig.PrimaryPort, "Primary port: serial device, tcp:// or ws:// URL.")
	flag.StringVar(&defaultConfig.AlternatePort, "alt-port", defaultConfig.AlternatePort, "Alternate port tried when the primary one fails.")
	flag.IntVar(&defaultConfig.BaudRate, "baud", defaultConfig.BaudRate, "Serial baud rate.")
	flag.DurationVar(&defaultConfig.ReceiveTimeout, "recv-timeout", defaultConfig.ReceiveTimeout, "Response timeout, 0 waits forever.")
	flag.IntVar(&defaultConfig.MaxFrameSize, "max-frame", defaultConfig.MaxFrameSize, "Maximum response size in bytes.")
	flag.StringVar(&defaultConfig.RobotID, "id", defaultConfig.RobotID, "Robot ID.")
	flag.StringVar(&defaultConfig.MQTTBrokerURL, "mqtt", defaultConfig.MQTTBrokerURL, "MQTT broker URL, empty to disable.")
	flag.Var(&defaultConfig.Sensors, "sensors", "Comma separated sensor ids to poll.")
	flag.DurationVar(&defaultConfig.SensorInterval, "sensor-interval", defaultConfig.SensorInterval, "Sensor polling interval.")
}

// NewConfig creates a Config with default configurations.
func NewConfig() *Config {
	conf := defaultConfig
	conf.Sensors = append(SensorList(nil), defaultConfig.Sensors...)
	return &conf
}

// NewManager creates a link Manager using opener, or the builtin
// port openers when opener is nil.
func (c *Config) NewManager(opener port.Opener) *link.Manager {
	if opener == nil {
		opener = port.NewMux()
	}
	m := link.NewManager(opener)
	m.PrimaryPort, m.AlternatePort, m.BaudRate = c.PrimaryPort, c.AlternatePort, c.BaudRate
	return m
}

// NewSession creates a Session, the link is not opened.
func (c *Config) NewSession(opener port.Opener) *link.Session {
	s := link.NewSession(c.NewManager(opener))
	s.Assembler.Timeout = c.ReceiveTimeout
	s.Assembler.MaxFrameSize = c.MaxFrameSize
	if c.PollInterval > 0 {
		s.Assembler.PollInterval = c.PollInterval
	}
	s.Log.Limit = c.CommLogLimit
	return s
}

// NewRobot creates a Robot over a new Session.
func (c *Config) NewRobot(opener port.Opener) *robot.Robot {
	return robot.New(c.NewSession(opener))
}

// MustOpen opens the link of the robot and fails when unavailable.
func MustOpen(r *robot.Robot) {
	if err := r.Session.Manager.Open(); err != nil {
		log.Fatalln(err)
	}
}

// SensorList is a flag.Value of sensor ids.
type SensorList []byte

// String implements flag.Value.
func (l *SensorList) String() string {
	items := make([]string, len(*l))
	for n, id := range *l {
		items[n] = strconv.Itoa(int(id))
	}
	return strings.Join(items, ",")
}

// Set implements flag.Value.
func (l *SensorList) Set(val string) error {
	var ids SensorList
	for _, item := range strings.Split(val, ",") {
		if item = strings.TrimSpace(item); item == "" {
			continue
		}
		id, err := strconv.ParseUint(item, 10, 8)
		if err != nil {
			return fmt.Errorf("invalid sensor id %q: %v", item, err)
		}
		ids = append(ids, byte(id))
	}
	*l = ids
	return nil
}
