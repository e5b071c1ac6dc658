package service

import (
	"fmt"
	"time"
)

// Business hours for pickup slots. This is the single source of truth for
// both customer-facing slot generation and server-side slot creation; the
// two surfaces historically drifted apart, so any change here changes both.
//
//	Sunday           closed
//	Saturday         08:00 - 14:00
//	Monday - Friday  07:00 - 15:00
type hoursWindow struct {
	open  int // minutes from midnight
	close int
}

func businessHours(weekday time.Weekday) (hoursWindow, bool) {
	switch weekday {
	case time.Sunday:
		return hoursWindow{}, false
	case time.Saturday:
		return hoursWindow{open: 8 * 60, close: 14 * 60}, true
	default:
		return hoursWindow{open: 7 * 60, close: 15 * 60}, true
	}
}

// slotStepMinutes is the pickup slot granularity shown to customers.
const slotStepMinutes = 30

// WithinBusinessHours reports whether the (date, slot) pair is a valid
// pickup time. The closing time itself is not a valid slot start.
func WithinBusinessHours(date time.Time, slot string) bool {
	w, open := businessHours(date.Weekday())
	if !open {
		return false
	}
	m, err := parseSlot(slot)
	if err != nil {
		return false
	}
	return m >= w.open && m < w.close
}

// GenerateSlots returns every slot label for the date, open or not yet
// booked out; availability filtering happens against capacity rows.
func GenerateSlots(date time.Time) []string {
	w, open := businessHours(date.Weekday())
	if !open {
		return nil
	}
	var slots []string
	for m := w.open; m < w.close; m += slotStepMinutes {
		slots = append(slots, fmt.Sprintf("%02d:%02d", m/60, m%60))
	}
	return slots
}

// parseSlot accepts HH:MM or HH:MM:SS and returns minutes from midnight.
func parseSlot(slot string) (int, error) {
	var h, m, s int
	if _, err := fmt.Sscanf(slot, "%d:%d:%d", &h, &m, &s); err != nil {
		if _, err := fmt.Sscanf(slot, "%d:%d", &h, &m); err != nil {
			return 0, fmt.Errorf("invalid slot %q", slot)
		}
	}
	if h < 0 || h > 23 || m < 0 || m > 59 {
		return 0, fmt.Errorf("invalid slot %q", slot)
	}
	return h*60 + m, nil
}

// canonicalSlot normalizes a client-submitted slot to HH:MM.
func canonicalSlot(slot string) (string, error) {
	m, err := parseSlot(slot)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%02d:%02d", m/60, m%60), nil
}
