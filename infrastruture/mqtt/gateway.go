/*
Package mqtt is the phone-facing message plane.

Each visitor owns three topics: the phone publishes raw accelerometer and
magnetometer samples on wayfinder/<id>/accel and wayfinder/<id>/mag, and the
service publishes spoken cues on wayfinder/<id>/speak. All payloads are small
JSON objects at QoS 0; sensor streams are lossy by nature and a lost cue is
repeated by the next step anyway.
*/
package mqtt

import (
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	paho "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"
	"github.com/robel-ketema/wayfinder-api/motion"
	"github.com/robel-ketema/wayfinder-api/service/i"
)

const (
	accelTopicPattern = "wayfinder/%s/accel"
	magTopicPattern   = "wayfinder/%s/mag"
	speakTopicPattern = "wayfinder/%s/speak"
)

var (
	ErrNilClient = errors.New("mqtt: client is nil")
	ErrNilLogger = errors.New("mqtt: logger is nil")
)

// Dial connects a new MQTT client to the broker.
func Dial(broker, clientID string) (paho.Client, error) {
	opts := paho.NewClientOptions().
		AddBroker(broker).
		SetClientID(clientID)

	client := paho.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return nil, token.Error()
	}
	return client, nil
}

// SensorGateway routes each visitor's raw sensor topics to in-process
// handlers. Implements i.SensorSource.
type SensorGateway struct {
	client paho.Client
	logger i.Logger

	mu     sync.Mutex
	topics map[uuid.UUID][]string // subscribed topics per visitor
}

// NewSensorGateway creates a gateway on an already connected client.
func NewSensorGateway(client paho.Client, logger i.Logger) (*SensorGateway, error) {
	if client == nil {
		return nil, ErrNilClient
	}
	if logger == nil {
		return nil, ErrNilLogger
	}

	return &SensorGateway{
		client: client,
		logger: logger,
		topics: make(map[uuid.UUID][]string),
	}, nil
}

// Subscribe binds the visitor's sensor topics to the given handlers.
// Malformed payloads are dropped with a warning; the streams keep flowing.
func (g *SensorGateway) Subscribe(userID uuid.UUID, onAccel func(motion.AccelSample), onMag func(motion.MagSample)) error {
	accelTopic := fmt.Sprintf(accelTopicPattern, userID)
	magTopic := fmt.Sprintf(magTopicPattern, userID)

	token := g.client.Subscribe(accelTopic, 0, func(_ paho.Client, msg paho.Message) {
		var s motion.AccelSample
		if err := json.Unmarshal(msg.Payload(), &s); err != nil {
			g.logger.Warning(fmt.Sprintf("dropping accel sample on %s: %v", msg.Topic(), err))
			return
		}
		onAccel(s)
	})
	if token.Wait() && token.Error() != nil {
		return token.Error()
	}

	token = g.client.Subscribe(magTopic, 0, func(_ paho.Client, msg paho.Message) {
		var s motion.MagSample
		if err := json.Unmarshal(msg.Payload(), &s); err != nil {
			g.logger.Warning(fmt.Sprintf("dropping mag sample on %s: %v", msg.Topic(), err))
			return
		}
		onMag(s)
	})
	if token.Wait() && token.Error() != nil {
		// Roll back the half-open subscription.
		g.client.Unsubscribe(accelTopic)
		return token.Error()
	}

	g.mu.Lock()
	g.topics[userID] = []string{accelTopic, magTopic}
	g.mu.Unlock()

	g.logger.Info(fmt.Sprintf("listening to sensor topics for %s", userID))
	return nil
}

// Unsubscribe detaches the visitor's sensor topics.
func (g *SensorGateway) Unsubscribe(userID uuid.UUID) error {
	g.mu.Lock()
	topics := g.topics[userID]
	delete(g.topics, userID)
	g.mu.Unlock()

	if len(topics) == 0 {
		return nil
	}

	token := g.client.Unsubscribe(topics...)
	if token.Wait() && token.Error() != nil {
		return token.Error()
	}
	return nil
}
