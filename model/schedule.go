package model

import "time"

// ScheduleType classifies one operating-calendar entry.
type ScheduleType string

const (
	ScheduleOperating     ScheduleType = "OPERATING"
	ScheduleTicketedEvent ScheduleType = "TICKETED_EVENT"
	SchedulePrivateEvent  ScheduleType = "PRIVATE_EVENT"
	ScheduleExtraHours    ScheduleType = "EXTRA_HOURS"
	ScheduleInfo          ScheduleType = "INFO"
)

// ScheduleEntry is one calendar slot for an entity. Date uses YYYY-MM-DD in
// the entity's local timezone.
type ScheduleEntry struct {
	Date        string       `json:"date"`
	OpeningTime time.Time    `json:"openingTime"`
	ClosingTime time.Time    `json:"closingTime"`
	Type        ScheduleType `json:"type"`
	Description string       `json:"description,omitempty"`
}
