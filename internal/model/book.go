package model

import (
	"context"

	"github.com/google/uuid"
)

// BookStore defines persistence operations for books.
//
// TryReserve and Release carry the copy-count invariant: at every point
// visible to another caller, 0 <= ReservedCount <= TotalCopies. The
// check-and-increment inside TryReserve must be indivisible with respect to
// concurrent callers touching the same book.
type BookStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (Book, error)
	List(ctx context.Context, filter BookFilter) ([]Book, error)
	Create(ctx context.Context, book Book) (Book, error)
	// Update applies only the fields set in the patch. When TotalCopies
	// shrinks below ReservedCount, ReservedCount is clamped down to it in
	// the same atomic step.
	Update(ctx context.Context, id uuid.UUID, patch BookPatch) (Book, error)
	Delete(ctx context.Context, id uuid.UUID) error
	// TryReserve atomically checks for a free copy and increments
	// ReservedCount. Returns ErrNoCopiesAvailable when every copy is held.
	TryReserve(ctx context.Context, id uuid.UUID) error
	// Release decrements ReservedCount, floored at zero.
	Release(ctx context.Context, id uuid.UUID) error
}

// Book represents a catalog entry with its copy counters.
type Book struct {
	ID            uuid.UUID
	ISBN          string
	Title         string
	Author        string
	Genres        []string
	TotalCopies   int
	ReservedCount int
}

// Available reports how many copies are free to reserve.
func (b Book) Available() int {
	return b.TotalCopies - b.ReservedCount
}

// BookFilter narrows a book listing. Zero value matches everything.
type BookFilter struct {
	// AvailableOnly keeps books with at least one free copy.
	AvailableOnly bool
	// Genres keeps books whose genre set intersects this one,
	// case-insensitively.
	Genres []string
	// TitleContains is a case-insensitive substring match.
	TitleContains string
}

// BookPatch is a partial book update; nil fields are left untouched.
type BookPatch struct {
	ISBN        *string
	Title       *string
	Author      *string
	Genres      []string
	TotalCopies *int
}

// IsEmpty reports whether the patch changes nothing.
func (p BookPatch) IsEmpty() bool {
	return p.ISBN == nil && p.Title == nil && p.Author == nil && p.Genres == nil && p.TotalCopies == nil
}
