package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/okhomenko/library-server/internal/model"
)

var _ model.ReservationStore = (*ReservationRepository)(nil)

const reservationColumns = "id, user_id, book_id, from_date, until_date"

type ReservationRepository struct {
	db *Connection
}

func NewReservationRepository(db *Connection) *ReservationRepository {
	return &ReservationRepository{
		db: db,
	}
}

func (r *ReservationRepository) Create(ctx context.Context, reservation model.Reservation) (model.Reservation, error) {
	query := `INSERT INTO reservations (id, user_id, book_id, from_date, until_date)
			  VALUES ($1, $2, $3, $4, $5)
			  RETURNING ` + reservationColumns

	saved, err := scanReservation(r.db.q(ctx).QueryRow(ctx, query,
		reservation.ID, reservation.UserID, reservation.BookID,
		reservation.FromDate, reservation.Until,
	))
	if err != nil {
		return model.Reservation{}, fmt.Errorf("failed to create reservation: %w", err)
	}

	return saved, nil
}

func (r *ReservationRepository) GetByID(ctx context.Context, id uuid.UUID) (model.Reservation, error) {
	query := `SELECT ` + reservationColumns + ` FROM reservations WHERE id = $1`

	reservation, err := scanReservation(r.db.q(ctx).QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Reservation{}, model.ErrNotFound
		}
		return model.Reservation{}, fmt.Errorf("failed to get reservation by id: %w", err)
	}

	return reservation, nil
}

func (r *ReservationRepository) Remove(ctx context.Context, id uuid.UUID) (model.Reservation, error) {
	query := `DELETE FROM reservations WHERE id = $1 RETURNING ` + reservationColumns

	removed, err := scanReservation(r.db.q(ctx).QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Reservation{}, model.ErrNotFound
		}
		return model.Reservation{}, fmt.Errorf("failed to remove reservation: %w", err)
	}

	return removed, nil
}

func (r *ReservationRepository) GetByUserID(ctx context.Context, userID uuid.UUID) ([]model.Reservation, error) {
	query := `SELECT ` + reservationColumns + `
			  FROM reservations WHERE user_id = $1
			  ORDER BY from_date DESC`

	rows, err := r.db.q(ctx).Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get reservations by user id: %w", err)
	}
	defer rows.Close()

	return collectReservations(rows)
}

func (r *ReservationRepository) GetDueBefore(ctx context.Context, threshold time.Time) ([]model.Reservation, error) {
	query := `SELECT ` + reservationColumns + `
			  FROM reservations
			  WHERE until_date IS NOT NULL AND until_date <= $1
			  ORDER BY until_date ASC`

	rows, err := r.db.q(ctx).Query(ctx, query, threshold)
	if err != nil {
		return nil, fmt.Errorf("failed to get due reservations: %w", err)
	}
	defer rows.Close()

	return collectReservations(rows)
}

func scanReservation(row pgx.Row) (model.Reservation, error) {
	var reservation model.Reservation
	err := row.Scan(
		&reservation.ID, &reservation.UserID, &reservation.BookID,
		&reservation.FromDate, &reservation.Until,
	)
	if err != nil {
		return model.Reservation{}, err
	}

	return reservation, nil
}

func collectReservations(rows pgx.Rows) ([]model.Reservation, error) {
	var reservations []model.Reservation
	for rows.Next() {
		reservation, err := scanReservation(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan reservation row: %w", err)
		}
		reservations = append(reservations, reservation)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return reservations, nil
}
