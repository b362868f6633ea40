package main

//go-build: CGO_ENABLED=0

import (
	"flag"
	"fmt"

	"github.com/golang/glog"

	"github.com/robotalks/robolink/pkg/bridge/mqtt"
	"github.com/robotalks/robolink/pkg/env"
	fx "github.com/robotalks/robolink/pkg/framework"
	"github.com/robotalks/robolink/pkg/l0/port"
)

var (
	listPorts   bool
	requireLink bool
)

func init() {
	env.SetupFlags()
	flag.BoolVar(&listPorts, "list-ports", listPorts, "List serial ports and exit.")
	flag.BoolVar(&requireLink, "require-link", requireLink, "Exit when no port can be opened.")
}

func main() {
	flag.Parse()
	defer glog.Flush()

	if listPorts {
		ports, err := port.List()
		if err != nil {
			glog.Exit(err)
		}
		for _, p := range ports {
			fmt.Println(p)
		}
		return
	}

	conf := env.NewConfig()
	bot := conf.NewRobot(nil)
	if requireLink {
		env.MustOpen(bot)
	} else if err := bot.Session.Manager.Open(); err != nil {
		glog.Warningf("running without link: %v", err)
	}
	defer bot.Session.Manager.Close()
	glog.Infof("robot %s on %s", conf.RobotID, bot.Session.Manager.State())

	runner := fx.NewRunner().HandleSignals()
	if conf.MQTTBrokerURL == "" {
		glog.Info("MQTT disabled, holding the link only")
		runner.Go(fx.NamedRun("link", fx.RunFunc(bot.Session.Manager.Hold)))
	} else {
		q, err := mqtt.NewQueueFromURL(conf.MQTTBrokerURL)
		if err != nil {
			glog.Exitf("invalid MQTT broker URL: %v", err)
		}
		if err = q.Connect(); err != nil {
			glog.Exitf("MQTT connect error: %v", err)
		}
		defer q.Close()

		bridge := mqtt.NewBridge(bot, q, conf.RobotID)
		runner.Go(bridge, &mqtt.Poller{
			Bridge:   bridge,
			Sensors:  conf.Sensors,
			Interval: conf.SensorInterval,
		})
	}
	if err := runner.Wait(); err != nil {
		glog.Error(err)
	}
}
