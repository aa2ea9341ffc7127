package live

import (
	"fmt"

	"github.com/openparks/gondola/model"
)

// ValidationError reports a live-data payload that fails the shape contract.
// Such payloads are never written; the previously stored record is retained.
type ValidationError struct {
	EntityID string
	Field    string
	Reason   string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("live data for %s invalid: %s: %s", e.EntityID, e.Field, e.Reason)
}

func validate(entityID string, p model.LiveData) *ValidationError {
	switch p.Status {
	case model.StatusOperating, model.StatusDown, model.StatusClosed, model.StatusRefurbishment:
	default:
		return &ValidationError{
			EntityID: entityID,
			Field:    "status",
			Reason:   fmt.Sprintf("unknown status %q", p.Status),
		}
	}

	for kind, q := range p.Queues {
		switch kind {
		case model.QueueStandBy, model.QueueSingleRider, model.QueueReturnTime,
			model.QueuePaidReturnTime, model.QueueBoardingGroup:
		default:
			return &ValidationError{
				EntityID: entityID,
				Field:    "queue",
				Reason:   fmt.Sprintf("unknown queue kind %q", kind),
			}
		}
		if q.WaitTime != nil && *q.WaitTime < 0 {
			return &ValidationError{
				EntityID: entityID,
				Field:    fmt.Sprintf("queue.%s.waitTime", kind),
				Reason:   fmt.Sprintf("negative wait %d", *q.WaitTime),
			}
		}
	}

	for i, st := range p.ShowTimes {
		if st.EndTime.Before(st.StartTime) {
			return &ValidationError{
				EntityID: entityID,
				Field:    fmt.Sprintf("showtimes[%d]", i),
				Reason:   "ends before it starts",
			}
		}
	}

	return nil
}
