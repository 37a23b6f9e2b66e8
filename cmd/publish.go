// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/denisbrodbeck/machineid"
	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/fxamacker/cbor/v2"
	"github.com/golang/glog"
	"github.com/spf13/cobra"

	"github.com/Thermoquad/cemu/pkg/diaglog"
	"github.com/Thermoquad/cemu/pkg/ecbus"
)

var (
	mqttBroker   string
	mqttTopic    string
	mqttClientID string
	mqttQoS      int
	mqttFormat   string
)

var publishCmd = &cobra.Command{
	Use:   "publish",
	Short: "Forward decoded diagnostic records to an MQTT broker",
	Long: `Decode the emulator's diagnostic output and publish every record to MQTT.

Records are published to <topic>/packet (or <topic>/width with --widths).
<topic>/status carries a retained "online" message while connected and
"offline" as the last will.

Payload formats:
  text  the raw line as dumped by the firmware, e.g. "e716"
  cbor  a map {1: value, 2: name, 3: unix time in ms}

The client id defaults to one derived from the host's machine id.`,
	RunE: runPublish,
}

func init() {
	rootCmd.AddCommand(publishCmd)
	publishCmd.Flags().StringVar(&mqttBroker, "broker", "tcp://localhost:1883", "MQTT broker URL")
	publishCmd.Flags().StringVar(&mqttTopic, "topic", "cemu", "Topic prefix")
	publishCmd.Flags().StringVar(&mqttClientID, "client-id", "", "MQTT client id (default: derived from machine id)")
	publishCmd.Flags().IntVar(&mqttQoS, "qos", 0, "MQTT QoS level (0-2)")
	publishCmd.Flags().StringVar(&mqttFormat, "format", "text", "Payload format: text or cbor")
}

// recordPayload is the CBOR form of a published record
type recordPayload struct {
	Value uint32 `cbor:"1,keyasint"`
	Name  string `cbor:"2,keyasint,omitempty"`
	Time  int64  `cbor:"3,keyasint"`
}

// encodeRecord builds the MQTT payload for rec
func encodeRecord(format string, mode diaglog.Mode, rec *diaglog.Record, table ecbus.CommandTable) ([]byte, error) {
	switch format {
	case "text":
		return []byte(rec.Raw), nil
	case "cbor":
		p := recordPayload{
			Value: rec.Value,
			Time:  rec.Timestamp.UnixMilli(),
		}
		if mode == diaglog.ModePackets {
			p.Name = table.Name(rec.Value)
		} else {
			p.Name = ecbus.Classify(rec.Width()).String()
		}
		return cbor.Marshal(p)
	default:
		return nil, fmt.Errorf("unknown payload format %q (use text or cbor)", format)
	}
}

// recordTopic returns the topic records of mode are published on
func recordTopic(prefix string, mode diaglog.Mode) string {
	if mode == diaglog.ModeWidths {
		return prefix + "/width"
	}
	return prefix + "/packet"
}

// defaultClientID derives a stable client id from the machine id
func defaultClientID() string {
	id, err := machineid.ProtectedID("cemu")
	if err != nil {
		glog.Warningf("machine id unavailable, using timestamp: %v", err)
		return fmt.Sprintf("cemu-%d", time.Now().UnixNano())
	}
	return "cemu-" + id[:12]
}

func runPublish(cmd *cobra.Command, args []string) error {
	if mqttQoS < 0 || mqttQoS > 2 {
		return fmt.Errorf("invalid QoS %d", mqttQoS)
	}
	if _, err := encodeRecord(mqttFormat, diaglog.ModePackets, &diaglog.Record{}, nil); err != nil {
		return err
	}

	clientID := mqttClientID
	if clientID == "" {
		clientID = defaultClientID()
	}
	statusTopic := mqttTopic + "/status"

	opts := mqtt.NewClientOptions().
		AddBroker(mqttBroker).
		SetClientID(clientID).
		SetAutoReconnect(true).
		SetWill(statusTopic, "offline", 1, true)
	opts.SetConnectionLostHandler(func(c mqtt.Client, err error) {
		glog.Warningf("MQTT connection lost: %v", err)
	})

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return fmt.Errorf("failed to connect to %s: %w", mqttBroker, token.Error())
	}
	defer client.Disconnect(250)
	client.Publish(statusTopic, 1, true, "online").Wait()

	conn, connInfo, err := OpenConnection()
	if err != nil {
		return err
	}
	defer conn.Close()

	mode := diagMode(diagWidths)
	topic := recordTopic(mqttTopic, mode)
	table := ecbus.DefaultTable

	fmt.Printf("cemu - MQTT Publisher\n")
	fmt.Printf("Connection: %s\n", connInfo)
	fmt.Printf("Broker: %s (client %s)\n", mqttBroker, clientID)
	fmt.Printf("Topic: %s\n", topic)
	fmt.Printf("Press Ctrl+C to exit\n\n")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	published := 0
	events, errCh := streamRecords(ctx, conn, mode)
	for ev := range events {
		if ev.err != nil {
			glog.Warningf("decode error: %v", ev.err)
			continue
		}
		payload, err := encodeRecord(mqttFormat, mode, ev.rec, table)
		if err != nil {
			return err
		}
		token := client.Publish(topic, byte(mqttQoS), false, payload)
		if token.Wait() && token.Error() != nil {
			glog.Warningf("publish failed: %v", token.Error())
			continue
		}
		published++
		glog.V(1).Infof("published %s to %s", ev.rec.Raw, topic)
	}

	client.Publish(statusTopic, 1, true, "offline").Wait()
	fmt.Printf("Published %d records\n", published)

	select {
	case err := <-errCh:
		return fmt.Errorf("read error: %w", err)
	default:
		return nil
	}
}
