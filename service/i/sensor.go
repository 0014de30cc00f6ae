package i

import (
	"github.com/google/uuid"
	"github.com/robel-ketema/wayfinder-api/motion"
)

// SensorSource delivers one visitor's raw phone sensor streams.
type SensorSource interface {
	// Subscribe binds the visitor's accelerometer and magnetometer streams
	// to the given handlers. Samples arrive on transport goroutines; the
	// handlers must be safe for concurrent use.
	Subscribe(userID uuid.UUID, onAccel func(motion.AccelSample), onMag func(motion.MagSample)) error

	// Unsubscribe detaches the visitor's streams.
	Unsubscribe(userID uuid.UUID) error
}
