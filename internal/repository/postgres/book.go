package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres" // dialect import
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/okhomenko/library-server/internal/model"
)

var _ model.BookStore = (*BookRepository)(nil)

const bookColumns = "id, isbn, title, author, genres, total_copies, reserved_count"

var dialect = goqu.Dialect("postgres")

type BookRepository struct {
	db *Connection
}

func NewBookRepository(db *Connection) *BookRepository {
	return &BookRepository{
		db: db,
	}
}

func (r *BookRepository) GetByID(ctx context.Context, id uuid.UUID) (model.Book, error) {
	query := `SELECT ` + bookColumns + ` FROM books WHERE id = $1`

	book, err := scanBook(r.db.q(ctx).QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Book{}, model.ErrNotFound
		}
		return model.Book{}, fmt.Errorf("failed to get book by id: %w", err)
	}

	return book, nil
}

// List builds the filter clause dynamically; every filter field is optional.
func (r *BookRepository) List(ctx context.Context, filter model.BookFilter) ([]model.Book, error) {
	ds := dialect.
		From("books").
		Select(goqu.L(bookColumns)).
		Order(goqu.I("title").Asc())

	if filter.AvailableOnly {
		ds = ds.Where(goqu.L("total_copies - reserved_count > 0"))
	}
	if filter.TitleContains != "" {
		ds = ds.Where(goqu.L("title ILIKE ?", "%"+filter.TitleContains+"%"))
	}
	if len(filter.Genres) > 0 {
		wanted := make([]string, 0, len(filter.Genres))
		for _, g := range filter.Genres {
			wanted = append(wanted, strings.ToLower(g))
		}
		sub := dialect.From(goqu.L("unnest(genres) AS g")).
			Select(goqu.V(1)).
			Where(goqu.L("lower(g)").In(wanted))
		ds = ds.Where(goqu.Func("EXISTS", sub))
	}

	query, args, err := ds.Prepared(true).ToSQL()
	if err != nil {
		return nil, fmt.Errorf("failed to build book list query: %w", err)
	}

	rows, err := r.db.q(ctx).Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list books: %w", err)
	}
	defer rows.Close()

	var books []model.Book
	for rows.Next() {
		book, err := scanBook(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan book row: %w", err)
		}
		books = append(books, book)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return books, nil
}

func (r *BookRepository) Create(ctx context.Context, book model.Book) (model.Book, error) {
	query := `INSERT INTO books (id, isbn, title, author, genres, total_copies, reserved_count)
			  VALUES ($1, $2, $3, $4, $5, $6, $7)
			  RETURNING ` + bookColumns

	saved, err := scanBook(r.db.q(ctx).QueryRow(ctx, query,
		book.ID, book.ISBN, book.Title, book.Author, book.Genres,
		book.TotalCopies, book.ReservedCount,
	))
	if err != nil {
		return model.Book{}, fmt.Errorf("failed to create book: %w", err)
	}

	return saved, nil
}

// Update applies only the set fields of the patch. Shrinking total_copies
// clamps reserved_count in the same statement, so no other caller can
// observe reserved_count > total_copies.
func (r *BookRepository) Update(ctx context.Context, id uuid.UUID, patch model.BookPatch) (model.Book, error) {
	if patch.IsEmpty() {
		return r.GetByID(ctx, id)
	}

	rec := goqu.Record{}
	if patch.ISBN != nil {
		rec["isbn"] = *patch.ISBN
	}
	if patch.Title != nil {
		rec["title"] = *patch.Title
	}
	if patch.Author != nil {
		rec["author"] = *patch.Author
	}
	if patch.Genres != nil {
		rec["genres"] = patch.Genres
	}
	if patch.TotalCopies != nil {
		rec["total_copies"] = *patch.TotalCopies
		rec["reserved_count"] = goqu.L("LEAST(reserved_count, ?)", *patch.TotalCopies)
	}

	query, args, err := dialect.
		Update("books").
		Set(rec).
		Where(goqu.Ex{"id": id}).
		Returning(goqu.L(bookColumns)).
		Prepared(true).
		ToSQL()
	if err != nil {
		return model.Book{}, fmt.Errorf("failed to build book update query: %w", err)
	}

	book, err := scanBook(r.db.q(ctx).QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Book{}, model.ErrNotFound
		}
		return model.Book{}, fmt.Errorf("failed to update book: %w", err)
	}

	return book, nil
}

func (r *BookRepository) Delete(ctx context.Context, id uuid.UUID) error {
	const query = `DELETE FROM books WHERE id = $1`

	cmd, err := r.db.q(ctx).Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to delete book: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return model.ErrNotFound
	}

	return nil
}

// TryReserve is the atomic check-and-increment: the WHERE clause and the
// increment run as one statement, so two callers racing for the last copy
// cannot both succeed.
func (r *BookRepository) TryReserve(ctx context.Context, id uuid.UUID) error {
	const query = `UPDATE books SET reserved_count = reserved_count + 1
				   WHERE id = $1 AND total_copies - reserved_count > 0`

	cmd, err := r.db.q(ctx).Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to reserve copy: %w", err)
	}
	if cmd.RowsAffected() > 0 {
		return nil
	}

	var exists bool
	if err := r.db.q(ctx).QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM books WHERE id = $1)`, id).Scan(&exists); err != nil {
		return fmt.Errorf("failed to check book existence: %w", err)
	}
	if !exists {
		return model.ErrNotFound
	}

	return model.ErrNoCopiesAvailable
}

// Release floors at zero so an extra release never drives the count negative.
func (r *BookRepository) Release(ctx context.Context, id uuid.UUID) error {
	const query = `UPDATE books SET reserved_count = GREATEST(reserved_count - 1, 0) WHERE id = $1`

	cmd, err := r.db.q(ctx).Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to release copy: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return model.ErrNotFound
	}

	return nil
}

func scanBook(row pgx.Row) (model.Book, error) {
	var book model.Book
	err := row.Scan(
		&book.ID, &book.ISBN, &book.Title, &book.Author, &book.Genres,
		&book.TotalCopies, &book.ReservedCount,
	)
	if err != nil {
		return model.Book{}, err
	}

	return book, nil
}
