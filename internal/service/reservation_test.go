package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/okhomenko/library-server/internal/model"
	"github.com/okhomenko/library-server/internal/testutil"
)

// MockBookStore mocks the BookStore interface
type MockBookStore struct {
	mock.Mock
}

func (m *MockBookStore) GetByID(ctx context.Context, id uuid.UUID) (model.Book, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(model.Book), args.Error(1)
}

func (m *MockBookStore) List(ctx context.Context, filter model.BookFilter) ([]model.Book, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).([]model.Book), args.Error(1)
}

func (m *MockBookStore) Create(ctx context.Context, book model.Book) (model.Book, error) {
	args := m.Called(ctx, book)
	if args.Get(0) == nil {
		return book, args.Error(1)
	}
	return args.Get(0).(model.Book), args.Error(1)
}

func (m *MockBookStore) Update(ctx context.Context, id uuid.UUID, patch model.BookPatch) (model.Book, error) {
	args := m.Called(ctx, id, patch)
	return args.Get(0).(model.Book), args.Error(1)
}

func (m *MockBookStore) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockBookStore) TryReserve(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockBookStore) Release(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// MockReservationStore mocks the ReservationStore interface
type MockReservationStore struct {
	mock.Mock
}

func (m *MockReservationStore) Create(ctx context.Context, reservation model.Reservation) (model.Reservation, error) {
	args := m.Called(ctx, reservation)
	if args.Get(0) == nil {
		return reservation, args.Error(1)
	}
	return args.Get(0).(model.Reservation), args.Error(1)
}

func (m *MockReservationStore) GetByID(ctx context.Context, id uuid.UUID) (model.Reservation, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(model.Reservation), args.Error(1)
}

func (m *MockReservationStore) Remove(ctx context.Context, id uuid.UUID) (model.Reservation, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(model.Reservation), args.Error(1)
}

func (m *MockReservationStore) GetByUserID(ctx context.Context, userID uuid.UUID) ([]model.Reservation, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).([]model.Reservation), args.Error(1)
}

func (m *MockReservationStore) GetDueBefore(ctx context.Context, threshold time.Time) ([]model.Reservation, error) {
	args := m.Called(ctx, threshold)
	return args.Get(0).([]model.Reservation), args.Error(1)
}

// MockUserDirectory mocks the UserDirectory interface
type MockUserDirectory struct {
	mock.Mock
}

func (m *MockUserDirectory) ResolveOrCreateByEmail(ctx context.Context, email string) (model.User, error) {
	args := m.Called(ctx, email)
	return args.Get(0).(model.User), args.Error(1)
}

func (m *MockUserDirectory) GetByID(ctx context.Context, id uuid.UUID) (model.User, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(model.User), args.Error(1)
}

// passthroughTx runs fn directly; transactional behavior is covered by the
// memory and postgres store tests.
type passthroughTx struct{}

func (passthroughTx) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

func newTestReservations(books *MockBookStore, reservations *MockReservationStore, users *MockUserDirectory) *Reservations {
	s := NewReservations(books, reservations, users, passthroughTx{}, testutil.MakeNoopLogger())
	s.now = func() time.Time { return time.Date(2026, 8, 28, 15, 4, 5, 0, time.UTC) }
	return s
}

func TestReservations_CreateReservation_MissingIdentity(t *testing.T) {
	books := new(MockBookStore)
	store := new(MockReservationStore)
	users := new(MockUserDirectory)
	s := newTestReservations(books, store, users)

	_, err := s.CreateReservation(context.Background(), CreateReservationParams{
		BookID: uuid.New(),
	})

	require.ErrorIs(t, err, model.ErrMissingUserIdentity)
	books.AssertNotCalled(t, "TryReserve", mock.Anything, mock.Anything)
}

func TestReservations_CreateReservation_UserNotFound(t *testing.T) {
	books := new(MockBookStore)
	store := new(MockReservationStore)
	users := new(MockUserDirectory)
	s := newTestReservations(books, store, users)

	userID := uuid.New()
	users.On("GetByID", mock.Anything, userID).Return(model.User{}, model.ErrUserNotFound)

	_, err := s.CreateReservation(context.Background(), CreateReservationParams{
		UserID: &userID,
		BookID: uuid.New(),
	})

	require.ErrorIs(t, err, model.ErrUserNotFound)
	books.AssertNotCalled(t, "TryReserve", mock.Anything, mock.Anything)
}

func TestReservations_CreateReservation_BookNotFound(t *testing.T) {
	books := new(MockBookStore)
	store := new(MockReservationStore)
	users := new(MockUserDirectory)
	s := newTestReservations(books, store, users)

	bookID := uuid.New()
	users.On("ResolveOrCreateByEmail", mock.Anything, "a@x.com").
		Return(model.User{ID: uuid.New(), Email: "a@x.com"}, nil)
	books.On("TryReserve", mock.Anything, bookID).Return(model.ErrNotFound)

	_, err := s.CreateReservation(context.Background(), CreateReservationParams{
		Email:  "a@x.com",
		BookID: bookID,
	})

	require.ErrorIs(t, err, model.ErrBookNotFound)
	store.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestReservations_CreateReservation_NoCopiesAvailable(t *testing.T) {
	books := new(MockBookStore)
	store := new(MockReservationStore)
	users := new(MockUserDirectory)
	s := newTestReservations(books, store, users)

	bookID := uuid.New()
	users.On("ResolveOrCreateByEmail", mock.Anything, "a@x.com").
		Return(model.User{ID: uuid.New(), Email: "a@x.com"}, nil)
	books.On("TryReserve", mock.Anything, bookID).Return(model.ErrNoCopiesAvailable)

	_, err := s.CreateReservation(context.Background(), CreateReservationParams{
		Email:  "a@x.com",
		BookID: bookID,
	})

	require.ErrorIs(t, err, model.ErrNoCopiesAvailable)
	store.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestReservations_CreateReservation_Success(t *testing.T) {
	books := new(MockBookStore)
	store := new(MockReservationStore)
	users := new(MockUserDirectory)
	s := newTestReservations(books, store, users)

	user := model.User{ID: uuid.New(), Email: "a@x.com"}
	bookID := uuid.New()
	until := time.Date(2026, 9, 10, 0, 0, 0, 0, time.UTC)

	users.On("ResolveOrCreateByEmail", mock.Anything, "a@x.com").Return(user, nil)
	books.On("TryReserve", mock.Anything, bookID).Return(nil)
	store.On("Create", mock.Anything, mock.AnythingOfType("model.Reservation")).Return(nil, nil)

	reservation, err := s.CreateReservation(context.Background(), CreateReservationParams{
		Email:  "a@x.com",
		BookID: bookID,
		Until:  &until,
	})

	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, reservation.ID)
	assert.Equal(t, user.ID, reservation.UserID)
	assert.Equal(t, bookID, reservation.BookID)
	assert.Equal(t, time.Date(2026, 8, 28, 0, 0, 0, 0, time.UTC), reservation.FromDate)
	require.NotNil(t, reservation.Until)
	assert.Equal(t, until, *reservation.Until)

	books.AssertExpectations(t)
	store.AssertExpectations(t)
}

func TestReservations_CreateReservation_InsertFails(t *testing.T) {
	books := new(MockBookStore)
	store := new(MockReservationStore)
	users := new(MockUserDirectory)
	s := newTestReservations(books, store, users)

	bookID := uuid.New()
	users.On("ResolveOrCreateByEmail", mock.Anything, "a@x.com").
		Return(model.User{ID: uuid.New(), Email: "a@x.com"}, nil)
	books.On("TryReserve", mock.Anything, bookID).Return(nil)
	store.On("Create", mock.Anything, mock.Anything).Return(nil, errors.New("insert failed"))

	_, err := s.CreateReservation(context.Background(), CreateReservationParams{
		Email:  "a@x.com",
		BookID: bookID,
	})

	require.Error(t, err)
}

func TestReservations_CancelReservation(t *testing.T) {
	books := new(MockBookStore)
	store := new(MockReservationStore)
	users := new(MockUserDirectory)
	s := newTestReservations(books, store, users)

	bookID := uuid.New()
	reservationID := uuid.New()
	store.On("Remove", mock.Anything, reservationID).
		Return(model.Reservation{ID: reservationID, BookID: bookID}, nil)
	books.On("Release", mock.Anything, bookID).Return(nil)

	err := s.CancelReservation(context.Background(), reservationID)

	require.NoError(t, err)
	books.AssertExpectations(t)
	store.AssertExpectations(t)
}

func TestReservations_CancelReservation_NotFound(t *testing.T) {
	books := new(MockBookStore)
	store := new(MockReservationStore)
	users := new(MockUserDirectory)
	s := newTestReservations(books, store, users)

	reservationID := uuid.New()
	store.On("Remove", mock.Anything, reservationID).
		Return(model.Reservation{}, model.ErrNotFound)

	err := s.CancelReservation(context.Background(), reservationID)

	require.ErrorIs(t, err, model.ErrReservationNotFound)
	books.AssertNotCalled(t, "Release", mock.Anything, mock.Anything)
}

func TestReservations_ListForUser(t *testing.T) {
	books := new(MockBookStore)
	store := new(MockReservationStore)
	users := new(MockUserDirectory)
	s := newTestReservations(books, store, users)

	userID := uuid.New()
	want := []model.Reservation{
		{ID: uuid.New(), UserID: userID, BookID: uuid.New()},
	}
	store.On("GetByUserID", mock.Anything, userID).Return(want, nil)

	got, err := s.ListForUser(context.Background(), userID)

	require.NoError(t, err)
	assert.Equal(t, want, got)
}
