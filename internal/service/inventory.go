package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/okhomenko/library-server/internal/logger"
	"github.com/okhomenko/library-server/internal/model"
)

// Inventory owns the catalog: book CRUD and the list filter. The reserve and
// release paths live on the store itself and are driven by Reservations.
type Inventory struct {
	bookStore model.BookStore
	logger    *logger.Logger
}

func NewInventory(bookStore model.BookStore, logger *logger.Logger) *Inventory {
	return &Inventory{
		bookStore: bookStore,
		logger:    logger,
	}
}

// CreateBookParams carries the fields of a new catalog entry.
type CreateBookParams struct {
	ISBN        string
	Title       string
	Author      string
	Genres      []string
	TotalCopies int
}

func (s *Inventory) GetBook(ctx context.Context, id uuid.UUID) (model.Book, error) {
	book, err := s.bookStore.GetByID(ctx, id)
	if errors.Is(err, model.ErrNotFound) {
		return model.Book{}, model.ErrBookNotFound
	}
	if err != nil {
		return model.Book{}, fmt.Errorf("failed to get book by id: %w", err)
	}

	return book, nil
}

func (s *Inventory) ListBooks(ctx context.Context, filter model.BookFilter) ([]model.Book, error) {
	books, err := s.bookStore.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list books: %w", err)
	}

	return books, nil
}

func (s *Inventory) CreateBook(ctx context.Context, params CreateBookParams) (model.Book, error) {
	book := model.Book{
		ID:          uuid.New(),
		ISBN:        params.ISBN,
		Title:       params.Title,
		Author:      params.Author,
		Genres:      params.Genres,
		TotalCopies: params.TotalCopies,
	}

	book, err := s.bookStore.Create(ctx, book)
	if err != nil {
		s.logger.Error("Inventory service: failed to create book",
			"isbn", params.ISBN,
			"error", err.Error())
		return model.Book{}, fmt.Errorf("failed to create book: %w", err)
	}

	s.logger.Info("Inventory service: book created",
		"book_id", book.ID,
		"isbn", book.ISBN)

	return book, nil
}

// UpdateBook applies a partial update. The store clamps the reserved count
// when total copies shrink below it, so the invariant holds across
// administrative edits.
func (s *Inventory) UpdateBook(ctx context.Context, id uuid.UUID, patch model.BookPatch) (model.Book, error) {
	book, err := s.bookStore.Update(ctx, id, patch)
	if errors.Is(err, model.ErrNotFound) {
		return model.Book{}, model.ErrBookNotFound
	}
	if err != nil {
		s.logger.Error("Inventory service: failed to update book",
			"book_id", id,
			"error", err.Error())
		return model.Book{}, fmt.Errorf("failed to update book: %w", err)
	}

	return book, nil
}

func (s *Inventory) DeleteBook(ctx context.Context, id uuid.UUID) error {
	err := s.bookStore.Delete(ctx, id)
	if errors.Is(err, model.ErrNotFound) {
		return model.ErrBookNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to delete book: %w", err)
	}

	s.logger.Info("Inventory service: book deleted", "book_id", id)

	return nil
}
