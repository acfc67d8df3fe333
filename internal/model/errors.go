package model

import "errors"

// ErrNotFound is the generic repository-level "no such row" error.
// Services translate it into the entity-specific variant below.
var ErrNotFound = errors.New("not found")

var (
	ErrBookNotFound        = errors.New("book not found")
	ErrUserNotFound        = errors.New("user not found")
	ErrReservationNotFound = errors.New("reservation not found")
)

var (
	// ErrNoCopiesAvailable is returned when every copy of a book is already reserved.
	ErrNoCopiesAvailable = errors.New("no copies available")
	// ErrMissingUserIdentity is returned when a reservation request carries
	// neither a user id nor an email.
	ErrMissingUserIdentity = errors.New("user id or email required")
	// ErrEmailTaken is returned on registration with an already-used email.
	ErrEmailTaken = errors.New("user with this email already exists")
	// ErrInvalidCredentials deliberately does not distinguish an unknown
	// email from a wrong password.
	ErrInvalidCredentials = errors.New("invalid email or password")
)
