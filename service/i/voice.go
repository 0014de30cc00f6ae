package i

import "github.com/google/uuid"

// VoicePublisher pushes spoken cues to a visitor's phone. Delivery is
// fire-and-forget; implementations log failures instead of returning them so
// a dead speaker never stalls navigation.
type VoicePublisher interface {
	Speak(userID uuid.UUID, text string)
}
