package gormstorage

import (
	"time"

	"github.com/groupride/convoy/internal/geo"
	"github.com/groupride/convoy/pkg/core"
	"gorm.io/datatypes"
)

// RideSnapshot is one published location set.
type RideSnapshot struct {
	ID           uint      `gorm:"primarykey"`
	RecordedAt   time.Time `gorm:"index"`
	Device       string    `gorm:"size:128;index"`
	Participants int
	Locations    datatypes.JSONSlice[core.Location]
	Positions    []ParticipantPosition `gorm:"foreignKey:SnapshotID"`
}

// ParticipantPosition is one participant row of a snapshot, kept separately
// so a trail is a single indexed query.
type ParticipantPosition struct {
	ID          uint      `gorm:"primarykey"`
	SnapshotID  uint      `gorm:"index"`
	Participant string    `gorm:"size:256;index:idx_participant_time,priority:1"`
	RecordedAt  time.Time `gorm:"index:idx_participant_time,priority:2"`
	Latitude    float64
	Longitude   float64
	// EPSG:3857
	X          float64
	Y          float64
	ReportedAt *time.Time
}

// Models lists every table the backend migrates.
var Models = []any{
	&RideSnapshot{},
	&ParticipantPosition{},
}

func toModel(s core.Snapshot) RideSnapshot {
	ids := s.Locations.Identifiers()
	locs := make([]core.Location, 0, len(ids))
	positions := make([]ParticipantPosition, 0, len(ids))

	for _, id := range ids {
		loc := s.Locations[id]
		locs = append(locs, loc)

		x, y := geo.To3857(loc.Coordinate())
		positions = append(positions, ParticipantPosition{
			Participant: id,
			RecordedAt:  s.RecordedAt,
			Latitude:    loc.Latitude,
			Longitude:   loc.Longitude,
			X:           x,
			Y:           y,
			ReportedAt:  loc.Timestamp,
		})
	}

	return RideSnapshot{
		RecordedAt:   s.RecordedAt,
		Device:       string(s.Device),
		Participants: len(ids),
		Locations:    datatypes.NewJSONSlice(locs),
		Positions:    positions,
	}
}

func (m RideSnapshot) toCore() core.Snapshot {
	return core.Snapshot{
		RecordedAt: m.RecordedAt,
		Device:     core.DeviceIdentity(m.Device),
		Locations:  core.NewLocationSet(m.Locations...),
	}
}
