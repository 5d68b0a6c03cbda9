// Package schedule finds work orders booked at the same slot as a candidate.
package schedule

import (
	"strings"
	"time"

	"github.com/tm-acme-shop/acme-shop-tireshop-service/internal/apperrors"
	"github.com/tm-acme-shop/acme-shop-tireshop-service/internal/models"
)

const (
	dateLayout    = "2006-01-02"
	timeLayout    = "15:04"
	secondsLayout = "15:04:05"
)

// Slot is a normalized (date, time) pair. Time is empty when the order has
// no appointment time.
type Slot struct {
	Date string
	Time string
}

// NewSlot parses and normalizes a date (YYYY-MM-DD) and an optional time
// (HH:MM or HH:MM:SS). Whole minutes normalize to HH:MM; other seconds are
// kept, so 09:00:30 is a different slot from 09:00.
func NewSlot(date, clock string) (Slot, error) {
	d, err := time.Parse(dateLayout, strings.TrimSpace(date))
	if err != nil {
		return Slot{}, apperrors.NewValidationError("scheduled_date", "must be YYYY-MM-DD")
	}
	s := Slot{Date: d.Format(dateLayout)}

	clock = strings.TrimSpace(clock)
	if clock == "" {
		return s, nil
	}
	t, err := time.Parse(timeLayout, clock)
	if err != nil {
		t, err = time.Parse(secondsLayout, clock)
		if err != nil {
			return Slot{}, apperrors.NewValidationError("scheduled_time", "must be HH:MM")
		}
	}
	if t.Second() != 0 {
		s.Time = t.Format(secondsLayout)
	} else {
		s.Time = t.Format(timeLayout)
	}
	return s, nil
}

// slotOf normalizes what is stored on an order. Stored values that do not
// parse are compared as they are.
func slotOf(o *models.Order) Slot {
	if s, err := NewSlot(o.ScheduledDate, o.ScheduledTime); err == nil {
		return s
	}
	return Slot{Date: o.ScheduledDate, Time: o.ScheduledTime}
}

// FindConflicts returns the orders booked at exactly the candidate slot.
// There is no tolerance window, and a slot without a time never conflicts.
func FindConflicts(candidate Slot, orders []*models.Order) []*models.Order {
	if candidate.Time == "" {
		return nil
	}
	var conflicts []*models.Order
	for _, o := range orders {
		if slotOf(o) == candidate {
			conflicts = append(conflicts, o)
		}
	}
	return conflicts
}

// Except drops the order with the given id, used when an order is moved.
func Except(orders []*models.Order, id string) []*models.Order {
	if id == "" {
		return orders
	}
	kept := make([]*models.Order, 0, len(orders))
	for _, o := range orders {
		if o.ID != id {
			kept = append(kept, o)
		}
	}
	return kept
}
