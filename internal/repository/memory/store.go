// Package memory implements every store interface over plain maps guarded by
// one process-wide mutex. It backs tests and the standalone (non-postgres)
// mode; the coarse lock is the whole point: any read-decide-write sequence
// that holds it is indivisible.
package memory

import (
	"context"
	"maps"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/okhomenko/library-server/internal/model"
)

var (
	_ model.BookStore        = (*BookStore)(nil)
	_ model.UserStore        = (*UserStore)(nil)
	_ model.ReservationStore = (*ReservationStore)(nil)
	_ model.TxRunner         = (*Store)(nil)
)

type txKey struct{}

// Store holds all three entity maps behind one mutex. The per-entity store
// interfaces are exposed as views sharing that mutex.
type Store struct {
	mu           sync.Mutex
	books        map[uuid.UUID]model.Book
	users        map[uuid.UUID]model.User
	usersByEmail map[string]uuid.UUID
	reservations map[uuid.UUID]model.Reservation
}

func NewStore() *Store {
	return &Store{
		books:        make(map[uuid.UUID]model.Book),
		users:        make(map[uuid.UUID]model.User),
		usersByEmail: make(map[string]uuid.UUID),
		reservations: make(map[uuid.UUID]model.Reservation),
	}
}

func (s *Store) Books() *BookStore               { return &BookStore{s: s} }
func (s *Store) Users() *UserStore               { return &UserStore{s: s} }
func (s *Store) Reservations() *ReservationStore { return &ReservationStore{s: s} }

// WithinTx holds the store mutex for the whole of fn and restores a snapshot
// of every map if fn fails, so a multi-step unit of work commits or rolls
// back as a whole. Nested calls join the surrounding unit.
func (s *Store) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if inTx(ctx) {
		return fn(ctx)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	books := maps.Clone(s.books)
	users := maps.Clone(s.users)
	usersByEmail := maps.Clone(s.usersByEmail)
	reservations := maps.Clone(s.reservations)

	if err := fn(context.WithValue(ctx, txKey{}, struct{}{})); err != nil {
		s.books = books
		s.users = users
		s.usersByEmail = usersByEmail
		s.reservations = reservations
		return err
	}

	return nil
}

func inTx(ctx context.Context) bool {
	return ctx.Value(txKey{}) != nil
}

// acquire takes the store mutex unless the context already holds it via
// WithinTx. Returns the matching release func.
func (s *Store) acquire(ctx context.Context) func() {
	if inTx(ctx) {
		return func() {}
	}
	s.mu.Lock()
	return s.mu.Unlock
}

// BookStore is the book view of the shared store.
type BookStore struct {
	s *Store
}

func (b *BookStore) GetByID(ctx context.Context, id uuid.UUID) (model.Book, error) {
	defer b.s.acquire(ctx)()

	book, ok := b.s.books[id]
	if !ok {
		return model.Book{}, model.ErrNotFound
	}
	return book, nil
}

func (b *BookStore) List(ctx context.Context, filter model.BookFilter) ([]model.Book, error) {
	defer b.s.acquire(ctx)()

	var books []model.Book
	for _, book := range b.s.books {
		if matchesFilter(book, filter) {
			books = append(books, book)
		}
	}
	sort.Slice(books, func(i, j int) bool { return books[i].Title < books[j].Title })

	return books, nil
}

func matchesFilter(book model.Book, filter model.BookFilter) bool {
	if filter.AvailableOnly && book.Available() <= 0 {
		return false
	}
	if filter.TitleContains != "" &&
		!strings.Contains(strings.ToLower(book.Title), strings.ToLower(filter.TitleContains)) {
		return false
	}
	if len(filter.Genres) > 0 && !genresIntersect(book.Genres, filter.Genres) {
		return false
	}
	return true
}

func genresIntersect(have, want []string) bool {
	for _, h := range have {
		for _, w := range want {
			if strings.EqualFold(h, w) {
				return true
			}
		}
	}
	return false
}

func (b *BookStore) Create(ctx context.Context, book model.Book) (model.Book, error) {
	defer b.s.acquire(ctx)()

	b.s.books[book.ID] = book
	return book, nil
}

func (b *BookStore) Update(ctx context.Context, id uuid.UUID, patch model.BookPatch) (model.Book, error) {
	defer b.s.acquire(ctx)()

	book, ok := b.s.books[id]
	if !ok {
		return model.Book{}, model.ErrNotFound
	}

	if patch.ISBN != nil {
		book.ISBN = *patch.ISBN
	}
	if patch.Title != nil {
		book.Title = *patch.Title
	}
	if patch.Author != nil {
		book.Author = *patch.Author
	}
	if patch.Genres != nil {
		book.Genres = patch.Genres
	}
	if patch.TotalCopies != nil {
		book.TotalCopies = max(*patch.TotalCopies, 0)
		// re-establish the invariant after an administrative shrink
		if book.ReservedCount > book.TotalCopies {
			book.ReservedCount = book.TotalCopies
		}
	}

	b.s.books[id] = book
	return book, nil
}

func (b *BookStore) Delete(ctx context.Context, id uuid.UUID) error {
	defer b.s.acquire(ctx)()

	if _, ok := b.s.books[id]; !ok {
		return model.ErrNotFound
	}
	delete(b.s.books, id)
	return nil
}

func (b *BookStore) TryReserve(ctx context.Context, id uuid.UUID) error {
	defer b.s.acquire(ctx)()

	book, ok := b.s.books[id]
	if !ok {
		return model.ErrNotFound
	}
	if book.Available() <= 0 {
		return model.ErrNoCopiesAvailable
	}

	book.ReservedCount++
	b.s.books[id] = book
	return nil
}

func (b *BookStore) Release(ctx context.Context, id uuid.UUID) error {
	defer b.s.acquire(ctx)()

	book, ok := b.s.books[id]
	if !ok {
		return model.ErrNotFound
	}
	if book.ReservedCount > 0 {
		book.ReservedCount--
	}
	b.s.books[id] = book
	return nil
}

// UserStore is the user view of the shared store.
type UserStore struct {
	s *Store
}

func (u *UserStore) GetByEmail(ctx context.Context, email string) (model.User, error) {
	defer u.s.acquire(ctx)()

	id, ok := u.s.usersByEmail[email]
	if !ok {
		return model.User{}, model.ErrNotFound
	}
	return u.s.users[id], nil
}

func (u *UserStore) GetByID(ctx context.Context, id uuid.UUID) (model.User, error) {
	defer u.s.acquire(ctx)()

	user, ok := u.s.users[id]
	if !ok {
		return model.User{}, model.ErrNotFound
	}
	return user, nil
}

func (u *UserStore) Create(ctx context.Context, user model.User) (model.User, error) {
	defer u.s.acquire(ctx)()

	if _, ok := u.s.usersByEmail[user.Email]; ok {
		return model.User{}, model.ErrEmailTaken
	}

	u.s.users[user.ID] = user
	u.s.usersByEmail[user.Email] = user.ID
	return user, nil
}

func (u *UserStore) CreateIfAbsent(ctx context.Context, user model.User) (model.User, error) {
	defer u.s.acquire(ctx)()

	if id, ok := u.s.usersByEmail[user.Email]; ok {
		return u.s.users[id], nil
	}

	u.s.users[user.ID] = user
	u.s.usersByEmail[user.Email] = user.ID
	return user, nil
}

// ReservationStore is the reservation view of the shared store.
type ReservationStore struct {
	s *Store
}

func (r *ReservationStore) Create(ctx context.Context, reservation model.Reservation) (model.Reservation, error) {
	defer r.s.acquire(ctx)()

	r.s.reservations[reservation.ID] = reservation
	return reservation, nil
}

func (r *ReservationStore) GetByID(ctx context.Context, id uuid.UUID) (model.Reservation, error) {
	defer r.s.acquire(ctx)()

	reservation, ok := r.s.reservations[id]
	if !ok {
		return model.Reservation{}, model.ErrNotFound
	}
	return reservation, nil
}

func (r *ReservationStore) Remove(ctx context.Context, id uuid.UUID) (model.Reservation, error) {
	defer r.s.acquire(ctx)()

	reservation, ok := r.s.reservations[id]
	if !ok {
		return model.Reservation{}, model.ErrNotFound
	}
	delete(r.s.reservations, id)
	return reservation, nil
}

func (r *ReservationStore) GetByUserID(ctx context.Context, userID uuid.UUID) ([]model.Reservation, error) {
	defer r.s.acquire(ctx)()

	var reservations []model.Reservation
	for _, res := range r.s.reservations {
		if res.UserID == userID {
			reservations = append(reservations, res)
		}
	}
	sort.Slice(reservations, func(i, j int) bool {
		return reservations[i].FromDate.After(reservations[j].FromDate)
	})

	return reservations, nil
}

func (r *ReservationStore) GetDueBefore(ctx context.Context, threshold time.Time) ([]model.Reservation, error) {
	defer r.s.acquire(ctx)()

	var reservations []model.Reservation
	for _, res := range r.s.reservations {
		if res.Until != nil && !res.Until.After(threshold) {
			reservations = append(reservations, res)
		}
	}
	sort.Slice(reservations, func(i, j int) bool {
		return reservations[i].Until.Before(*reservations[j].Until)
	})

	return reservations, nil
}
