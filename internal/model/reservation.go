package model

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// ReservationStore defines persistence operations for reservations.
// Reservations are immutable once created; cancellation removes the row.
type ReservationStore interface {
	Create(ctx context.Context, reservation Reservation) (Reservation, error)
	GetByID(ctx context.Context, id uuid.UUID) (Reservation, error)
	// Remove deletes the reservation and returns the removed row, or
	// ErrNotFound when it does not exist.
	Remove(ctx context.Context, id uuid.UUID) (Reservation, error)
	GetByUserID(ctx context.Context, userID uuid.UUID) ([]Reservation, error)
	// GetDueBefore lists reservations whose Until is set and not after the
	// threshold date. Already-overdue reservations are included.
	GetDueBefore(ctx context.Context, threshold time.Time) ([]Reservation, error)
}

// Reservation commits one copy of a book to one user for an optional
// bounded period.
type Reservation struct {
	ID       uuid.UUID
	UserID   uuid.UUID
	BookID   uuid.UUID
	FromDate time.Time
	Until    *time.Time
}

// Reminder is a due-soon notice produced by the reminder scan.
// DaysLeft is negative for overdue reservations.
type Reminder struct {
	ReservationID uuid.UUID
	BookTitle     string
	UserEmail     string
	DaysLeft      int
}
