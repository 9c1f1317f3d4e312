// Command ucncmonitor subscribes to a machine's published telemetry topic
// and prints each decoded Snapshot, a desktop counterpart to the on-device
// MQTT publisher.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/gocnc/ucnc/telemetry"
)

func main() {
	broker := flag.String("broker", "tcp://localhost:1883", "MQTT broker URL")
	topic := flag.String("topic", "ucnc/status", "telemetry topic to subscribe to")
	clientID := flag.String("client-id", "ucncmonitor", "MQTT client id")
	flag.Parse()

	opts := mqtt.NewClientOptions().
		AddBroker(*broker).
		SetClientID(*clientID).
		SetAutoReconnect(true)

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		log.Fatalf("ucncmonitor: connect: %v", token.Error())
	}
	defer client.Disconnect(250)

	if token := client.Subscribe(*topic, 0, handleMessage); token.Wait() && token.Error() != nil {
		log.Fatalf("ucncmonitor: subscribe: %v", token.Error())
	}
	fmt.Fprintf(os.Stdout, "ucncmonitor: subscribed to %s on %s\n", *topic, *broker)

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt)
	<-sig
}

func handleMessage(_ mqtt.Client, msg mqtt.Message) {
	var snap telemetry.Snapshot
	if err := json.Unmarshal(msg.Payload(), &snap); err != nil {
		log.Printf("ucncmonitor: bad payload on %s: %v", msg.Topic(), err)
		return
	}
	fmt.Printf("pos=%.3f,%.3f,%.3f state=%s alarm=%d\n",
		snap.Position[0], snap.Position[1], snap.Position[2], snap.ExecState, snap.Alarm)
}
