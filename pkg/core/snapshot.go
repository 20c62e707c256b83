package core

import "time"

// Snapshot is one published LocationSet as written to the ride log.
type Snapshot struct {
	RecordedAt time.Time
	Device     DeviceIdentity
	Locations  LocationSet
}
