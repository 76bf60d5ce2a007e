package usecase

import (
	"context"
	"time"

	"medminion/internal/domain/entity"
	"medminion/internal/domain/repository"
	"medminion/internal/service"
	"medminion/pkg/metrics"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// bookingWindow is the span of calendar dates whose scheduled appointments hold
// grid markers: today through today+days-1 in the clock's time zone. Booking
// accepts only these dates and reconciliation counts only these appointments.
type bookingWindow struct {
	from time.Time
	to   time.Time
}

func newBookingWindow(now time.Time, days int) bookingWindow {
	from := entity.CalendarDate(now)
	return bookingWindow{from: from, to: from.AddDate(0, 0, days-1)}
}

func (w bookingWindow) contains(date time.Time) bool {
	date = entity.CalendarDate(date)
	return !date.Before(w.from) && !date.After(w.to)
}

// gridSlotKeys lists the lock keys of every slot present in any of the grids
func gridSlotKeys(doctorID uuid.UUID, grids ...entity.AvailabilityGrid) []string {
	var keys []string
	for _, grid := range grids {
		for day, slots := range grid {
			for label := range slots {
				keys = append(keys, service.SlotKey(doctorID, day, label))
			}
		}
	}
	return keys
}

// coveredBy reports whether every slot of grid is among the held lock keys.
// A slot added after the keys were collected is not covered.
func coveredBy(keys []string, doctorID uuid.UUID, grid entity.AvailabilityGrid) bool {
	held := make(map[string]struct{}, len(keys))
	for _, k := range keys {
		held[k] = struct{}{}
	}
	for _, k := range gridSlotKeys(doctorID, grid) {
		if _, ok := held[k]; !ok {
			return false
		}
	}
	return true
}

// scheduledCounts counts the doctor's scheduled appointments in the window per (weekday, slot)
func scheduledCounts(ctx context.Context, appointmentRepo repository.AppointmentRepository, doctorID uuid.UUID, w bookingWindow) (map[entity.SlotRef]int, error) {
	appointments, err := appointmentRepo.FindScheduledByDoctorBetween(ctx, doctorID, w.from, w.to)
	if err != nil {
		return nil, storeError("find scheduled appointments", err)
	}
	scheduled := make(map[entity.SlotRef]int, len(appointments))
	for i := range appointments {
		scheduled[entity.SlotRef{Day: appointments[i].DayName(), Slot: appointments[i].AppointmentTime}]++
	}
	return scheduled, nil
}

func reportReconcile(log *logrus.Logger, m *metrics.Metrics, doctorID uuid.UUID, result entity.ReconcileResult) {
	for _, ref := range result.Overbooked {
		m.OverbookedSlot()
		log.Warnf("Doctor %s is overbooked on %s %s", doctorID, ref.Day, ref.Slot)
	}
	for _, ref := range result.Orphaned {
		log.Warnf("Doctor %s has scheduled appointments on %s %s which is not in the grid", doctorID, ref.Day, ref.Slot)
	}
	if result.Changed() {
		m.ReconcileFlips(result.Occupied, result.Freed)
	}
}
