package motion

import "time"

// AccelSample is one 3-axis accelerometer reading as published by the phone,
// in device-native units (roughly m/s^2 including gravity).
type AccelSample struct {
	Ax float64 `json:"ax"`
	Ay float64 `json:"ay"`
	Az float64 `json:"az"`
}

// MagSample is one magnetometer reading. Heading only uses the horizontal
// plane; Mz is carried for completeness.
type MagSample struct {
	Mx float64 `json:"mx"`
	My float64 `json:"my"`
	Mz float64 `json:"mz"`
}

// StepEvent marks one accepted footstep.
type StepEvent struct {
	Magnitude float64   // acceleration magnitude that triggered the step
	At        time.Time // arrival time of the triggering sample
}

// HeadingUpdate carries the latest compass heading.
type HeadingUpdate struct {
	Degrees float64   // heading in [0,360)
	At      time.Time // arrival time of the sample
}
