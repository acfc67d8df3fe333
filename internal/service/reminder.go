package service

import (
	"context"
	"fmt"
	"time"

	"github.com/okhomenko/library-server/internal/logger"
	"github.com/okhomenko/library-server/internal/model"
)

// Reminders produces due-soon notices by joining reservations with their
// book and user. Pure read; delivery of the notices is someone else's job.
type Reminders struct {
	reservationStore model.ReservationStore
	bookStore        model.BookStore
	userStore        model.UserStore
	logger           *logger.Logger
	now              func() time.Time
}

func NewReminders(
	reservationStore model.ReservationStore,
	bookStore model.BookStore,
	userStore model.UserStore,
	logger *logger.Logger,
) *Reminders {
	return &Reminders{
		reservationStore: reservationStore,
		bookStore:        bookStore,
		userStore:        userStore,
		logger:           logger,
		now:              time.Now,
	}
}

// ScanDueSoon lists reservations whose until date falls within thresholdDays
// from today. Reservations without an until date never appear; overdue ones
// do, with a negative DaysLeft.
func (s *Reminders) ScanDueSoon(ctx context.Context, thresholdDays int) ([]model.Reminder, error) {
	today := dateOnly(s.now())
	threshold := today.AddDate(0, 0, thresholdDays)

	reservations, err := s.reservationStore.GetDueBefore(ctx, threshold)
	if err != nil {
		return nil, fmt.Errorf("failed to get due reservations: %w", err)
	}

	reminders := make([]model.Reminder, 0, len(reservations))
	for _, reservation := range reservations {
		book, err := s.bookStore.GetByID(ctx, reservation.BookID)
		if err != nil {
			return nil, fmt.Errorf("failed to get book %s: %w", reservation.BookID, err)
		}

		user, err := s.userStore.GetByID(ctx, reservation.UserID)
		if err != nil {
			return nil, fmt.Errorf("failed to get user %s: %w", reservation.UserID, err)
		}

		reminders = append(reminders, model.Reminder{
			ReservationID: reservation.ID,
			BookTitle:     book.Title,
			UserEmail:     user.Email,
			DaysLeft:      int(dateOnly(*reservation.Until).Sub(today).Hours() / 24),
		})
	}

	s.logger.Debug("Reminder service: scan completed",
		"threshold_days", thresholdDays,
		"count", len(reminders))

	return reminders, nil
}
