package gathering

import "time"

// Gathering is a physical location hosting time-bounded events. Owned by the
// directory subsystem; read-only here.
type Gathering struct {
	ID       string
	Name     string
	Location string
	Timezone string
}

// Event is a scheduled event at a gathering. Owned by the directory
// subsystem; read-only here.
type Event struct {
	ID          string
	GatheringID string
	Name        string
	StartDate   time.Time
	EndDate     time.Time
	IsDeleted   bool
}

// Attendee is an aggregation row from the attendance store: a member ranked
// by how many distinct events they attend.
type Attendee struct {
	MemberID    string
	DisplayName string
	EventCount  int
}
