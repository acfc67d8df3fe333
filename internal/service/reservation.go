package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/okhomenko/library-server/internal/logger"
	"github.com/okhomenko/library-server/internal/model"
)

// UserDirectory is the identity resolution surface Reservations depends on.
// Implemented by Users.
type UserDirectory interface {
	ResolveOrCreateByEmail(ctx context.Context, email string) (model.User, error)
	GetByID(ctx context.Context, id uuid.UUID) (model.User, error)
}

// Reservations coordinates reservation creation and cancellation across the
// book and reservation stores. It owns no state of its own, only the
// transaction boundary: the reserve-and-insert pair and the remove-and-release
// pair each commit or roll back as a whole.
//
// Cancellation does not check that the caller owns the reservation; callers
// that need ownership enforcement must do it themselves.
type Reservations struct {
	bookStore        model.BookStore
	reservationStore model.ReservationStore
	users            UserDirectory
	tx               model.TxRunner
	logger           *logger.Logger
	now              func() time.Time
}

func NewReservations(
	bookStore model.BookStore,
	reservationStore model.ReservationStore,
	users UserDirectory,
	tx model.TxRunner,
	logger *logger.Logger,
) *Reservations {
	return &Reservations{
		bookStore:        bookStore,
		reservationStore: reservationStore,
		users:            users,
		tx:               tx,
		logger:           logger,
		now:              time.Now,
	}
}

// CreateReservationParams identifies the requesting user by id or email.
// Exactly one of UserID and Email is expected; an id must already exist,
// an email is provisioned on first contact.
type CreateReservationParams struct {
	UserID *uuid.UUID
	Email  string
	BookID uuid.UUID
	Until  *time.Time
}

func (s *Reservations) CreateReservation(ctx context.Context, params CreateReservationParams) (model.Reservation, error) {
	s.logger.Debug("Reservation service: creating reservation",
		"book_id", params.BookID)

	user, err := s.resolveUser(ctx, params)
	if err != nil {
		return model.Reservation{}, err
	}

	reservation := model.Reservation{
		ID:       uuid.New(),
		UserID:   user.ID,
		BookID:   params.BookID,
		FromDate: dateOnly(s.now()),
		Until:    params.Until,
	}

	err = s.tx.WithinTx(ctx, func(ctx context.Context) error {
		if err := s.bookStore.TryReserve(ctx, params.BookID); err != nil {
			if errors.Is(err, model.ErrNotFound) {
				return model.ErrBookNotFound
			}
			return err
		}

		saved, err := s.reservationStore.Create(ctx, reservation)
		if err != nil {
			return fmt.Errorf("failed to create reservation: %w", err)
		}
		reservation = saved

		return nil
	})
	if err != nil {
		if errors.Is(err, model.ErrNoCopiesAvailable) {
			s.logger.Info("Reservation service: no copies available",
				"book_id", params.BookID,
				"user_id", user.ID)
		}
		return model.Reservation{}, err
	}

	s.logger.Info("Reservation service: reservation created",
		"reservation_id", reservation.ID,
		"book_id", reservation.BookID,
		"user_id", reservation.UserID)

	return reservation, nil
}

func (s *Reservations) resolveUser(ctx context.Context, params CreateReservationParams) (model.User, error) {
	switch {
	case params.UserID != nil:
		return s.users.GetByID(ctx, *params.UserID)
	case params.Email != "":
		return s.users.ResolveOrCreateByEmail(ctx, params.Email)
	default:
		return model.User{}, model.ErrMissingUserIdentity
	}
}

// CancelReservation deletes the reservation and frees its copy. A second
// cancel of the same id reports ErrReservationNotFound; the copy is released
// exactly once.
func (s *Reservations) CancelReservation(ctx context.Context, id uuid.UUID) error {
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		removed, err := s.reservationStore.Remove(ctx, id)
		if err != nil {
			if errors.Is(err, model.ErrNotFound) {
				return model.ErrReservationNotFound
			}
			return fmt.Errorf("failed to remove reservation: %w", err)
		}

		if err := s.bookStore.Release(ctx, removed.BookID); err != nil && !errors.Is(err, model.ErrNotFound) {
			return fmt.Errorf("failed to release copy: %w", err)
		}

		return nil
	})
	if err != nil {
		return err
	}

	s.logger.Info("Reservation service: reservation cancelled",
		"reservation_id", id)

	return nil
}

func (s *Reservations) ListForUser(ctx context.Context, userID uuid.UUID) ([]model.Reservation, error) {
	reservations, err := s.reservationStore.GetByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get reservations by user id: %w", err)
	}

	return reservations, nil
}

// dateOnly truncates t to midnight UTC; reservation dates are calendar days.
func dateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
