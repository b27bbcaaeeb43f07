package domain

// TimeSlot is one bookable half-hour, identified by its display label. The
// catalog is closed: labels outside it never parse.
type TimeSlot string

const (
	Slot0900 TimeSlot = "9:00 AM"
	Slot0930 TimeSlot = "9:30 AM"
	Slot1000 TimeSlot = "10:00 AM"
	Slot1030 TimeSlot = "10:30 AM"
	Slot1100 TimeSlot = "11:00 AM"
	Slot1130 TimeSlot = "11:30 AM"
	Slot1400 TimeSlot = "2:00 PM"
	Slot1430 TimeSlot = "2:30 PM"
	Slot1500 TimeSlot = "3:00 PM"
	Slot1530 TimeSlot = "3:30 PM"
	Slot1600 TimeSlot = "4:00 PM"
	Slot1630 TimeSlot = "4:30 PM"
)

var slotCatalog = []TimeSlot{
	Slot0900, Slot0930, Slot1000, Slot1030, Slot1100, Slot1130,
	Slot1400, Slot1430, Slot1500, Slot1530, Slot1600, Slot1630,
}

var slotSet = func() map[TimeSlot]struct{} {
	set := make(map[TimeSlot]struct{}, len(slotCatalog))
	for _, slot := range slotCatalog {
		set[slot] = struct{}{}
	}
	return set
}()

// AllTimeSlots returns the full catalog in chronological order.
func AllTimeSlots() []TimeSlot {
	out := make([]TimeSlot, len(slotCatalog))
	copy(out, slotCatalog)
	return out
}

// ParseTimeSlot validates a label against the catalog. Matching is exact,
// including case and spacing.
func ParseTimeSlot(label string) (TimeSlot, bool) {
	slot := TimeSlot(label)
	_, ok := slotSet[slot]
	return slot, ok
}

// ParseTimeSlots validates a list of labels, preserving input order. On the
// first invalid label it returns nil and that label.
func ParseTimeSlots(labels []string) ([]TimeSlot, string) {
	out := make([]TimeSlot, 0, len(labels))
	for _, label := range labels {
		slot, ok := ParseTimeSlot(label)
		if !ok {
			return nil, label
		}
		out = append(out, slot)
	}
	return out, ""
}

// SlotStrings converts slots back to their wire labels.
func SlotStrings(slots []TimeSlot) []string {
	out := make([]string, 0, len(slots))
	for _, slot := range slots {
		out = append(out, string(slot))
	}
	return out
}
