package model

import "time"

// LiveStatus is the operational state of an entity at a point in time.
type LiveStatus string

const (
	StatusOperating     LiveStatus = "OPERATING"
	StatusDown          LiveStatus = "DOWN"
	StatusClosed        LiveStatus = "CLOSED"
	StatusRefurbishment LiveStatus = "REFURBISHMENT"
)

// QueueKind names the queue variants an attraction may expose.
type QueueKind string

const (
	QueueStandBy        QueueKind = "STANDBY"
	QueueSingleRider    QueueKind = "SINGLE_RIDER"
	QueueReturnTime     QueueKind = "RETURN_TIME"
	QueuePaidReturnTime QueueKind = "PAID_RETURN_TIME"
	QueueBoardingGroup  QueueKind = "BOARDING_GROUP"
)

// Queue carries the state of one queue variant. WaitTime is minutes; nil
// means the vendor reports the queue without a numeric wait.
type Queue struct {
	WaitTime        *int       `json:"waitTime,omitempty"`
	ReturnStart     *time.Time `json:"returnStart,omitempty"`
	ReturnEnd       *time.Time `json:"returnEnd,omitempty"`
	AllocationState string     `json:"allocationStatus,omitempty"`
	Price           *Price     `json:"price,omitempty"`
}

type Price struct {
	Amount   int    `json:"amount"` // minor units
	Currency string `json:"currency"`
}

// ShowTime is a single performance slot.
type ShowTime struct {
	Type      string    `json:"type,omitempty"`
	StartTime time.Time `json:"startTime"`
	EndTime   time.Time `json:"endTime"`
}

// LiveData is the point-in-time operational payload for one entity. It is
// the unit the live-data engine hashes and stores.
type LiveData struct {
	Status    LiveStatus          `json:"status"`
	Queues    map[QueueKind]Queue `json:"queue,omitempty"`
	ShowTimes []ShowTime          `json:"showtimes,omitempty"`
}
