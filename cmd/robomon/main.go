package main

import (
	"context"
	"flag"
	"log"
	"os"
	"strings"

	"github.com/robotalks/robolink/pkg/bridge/mqtt"
	fx "github.com/robotalks/robolink/pkg/framework"
)

var (
	mqttURL = "mqtt://localhost:1883/robo/"
)

func init() {
	if val := os.Getenv("ROBO_MQTT_URL"); val != "" {
		mqttURL = val
	}
	flag.StringVar(&mqttURL, "mqtt", mqttURL, "MQTT broker URL.")
}

func main() {
	flag.Parse()
	log.SetFlags(log.Lmicroseconds)

	q, err := mqtt.NewQueueFromURL(mqttURL)
	if err != nil {
		log.Fatalln(err)
	}
	if err = q.Connect(); err != nil {
		log.Fatalln(err)
	}

	q.Sub("#", mqtt.Handler(func(topic string, payload []byte) {
		if strings.Contains(topic, "/"+mqtt.TopicCmd+"/") || strings.Contains(topic, "/"+mqtt.TopicLink+"/") {
			log.Printf("%s: %q", topic, string(payload))
			return
		}
		out, err := mqtt.FormatJSON(payload)
		if err != nil {
			log.Printf("%s: bad message: %v", topic, err)
			return
		}
		log.Printf("%s: %s", topic, out)
	}))
	ctx := fx.NewRunner().HandleSignals().Context
	if err = fx.RunWithContextCloser(ctx, q, func() error {
		<-ctx.Done()
		return nil
	}); err != nil && err != context.Canceled {
		log.Fatalln(err)
	}
}
