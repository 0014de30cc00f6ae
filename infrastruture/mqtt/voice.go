package mqtt

import (
	"encoding/json"
	"fmt"

	paho "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"
	"github.com/robel-ketema/wayfinder-api/service/i"
)

// speakPayload is the wire form of one spoken cue. The phone's
// text-to-speech reads the text verbatim.
type speakPayload struct {
	Text string `json:"text"`
}

// VoiceSpeaker publishes spoken cues to each visitor's speak topic.
// Implements i.VoicePublisher.
type VoiceSpeaker struct {
	client paho.Client
	logger i.Logger
}

// NewVoiceSpeaker creates a speaker on an already connected client.
func NewVoiceSpeaker(client paho.Client, logger i.Logger) (*VoiceSpeaker, error) {
	if client == nil {
		return nil, ErrNilClient
	}
	if logger == nil {
		return nil, ErrNilLogger
	}

	return &VoiceSpeaker{
		client: client,
		logger: logger,
	}, nil
}

// Speak publishes one cue and returns without waiting for delivery.
// Failures are logged; navigation never sees them.
func (v *VoiceSpeaker) Speak(userID uuid.UUID, text string) {
	payload, err := json.Marshal(speakPayload{Text: text})
	if err != nil {
		v.logger.Error(fmt.Sprintf("encoding cue for %s: %v", userID, err))
		return
	}

	token := v.client.Publish(fmt.Sprintf(speakTopicPattern, userID), 0, false, payload)
	go func() {
		if token.Wait() && token.Error() != nil {
			v.logger.Error(fmt.Sprintf("publishing cue for %s: %v", userID, token.Error()))
		}
	}()
}
