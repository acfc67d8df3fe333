package service

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/okhomenko/library-server/internal/model"
	"github.com/okhomenko/library-server/internal/security"
	"github.com/okhomenko/library-server/internal/testutil"
)

// MockUserStore mocks the UserStore interface
type MockUserStore struct {
	mock.Mock
}

func (m *MockUserStore) GetByEmail(ctx context.Context, email string) (model.User, error) {
	args := m.Called(ctx, email)
	return args.Get(0).(model.User), args.Error(1)
}

func (m *MockUserStore) GetByID(ctx context.Context, id uuid.UUID) (model.User, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(model.User), args.Error(1)
}

func (m *MockUserStore) Create(ctx context.Context, user model.User) (model.User, error) {
	args := m.Called(ctx, user)
	if args.Get(0) == nil {
		return user, args.Error(1)
	}
	return args.Get(0).(model.User), args.Error(1)
}

func (m *MockUserStore) CreateIfAbsent(ctx context.Context, user model.User) (model.User, error) {
	args := m.Called(ctx, user)
	if args.Get(0) == nil {
		return user, args.Error(1)
	}
	return args.Get(0).(model.User), args.Error(1)
}

func TestUsers_ResolveOrCreateByEmail_Existing(t *testing.T) {
	store := new(MockUserStore)
	s := NewUsers(store, testutil.MakeNoopLogger())

	existing := model.User{ID: uuid.New(), Email: "a@x.com"}
	store.On("GetByEmail", mock.Anything, "a@x.com").Return(existing, nil)

	user, err := s.ResolveOrCreateByEmail(context.Background(), "  A@X.com ")

	require.NoError(t, err)
	assert.Equal(t, existing.ID, user.ID)
	store.AssertNotCalled(t, "CreateIfAbsent", mock.Anything, mock.Anything)
}

func TestUsers_ResolveOrCreateByEmail_Provisions(t *testing.T) {
	store := new(MockUserStore)
	s := NewUsers(store, testutil.MakeNoopLogger())

	store.On("GetByEmail", mock.Anything, "new@x.com").Return(model.User{}, model.ErrNotFound)
	store.On("CreateIfAbsent", mock.Anything, mock.AnythingOfType("model.User")).Return(nil, nil)

	user, err := s.ResolveOrCreateByEmail(context.Background(), "New@X.com")

	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, user.ID)
	assert.Equal(t, "new@x.com", user.Email)
	assert.Equal(t, model.RoleUser, user.Role)
	assert.NotEmpty(t, user.PasswordHash)
	store.AssertExpectations(t)
}

func TestUsers_GetByID_NotFound(t *testing.T) {
	store := new(MockUserStore)
	s := NewUsers(store, testutil.MakeNoopLogger())

	id := uuid.New()
	store.On("GetByID", mock.Anything, id).Return(model.User{}, model.ErrNotFound)

	_, err := s.GetByID(context.Background(), id)

	require.ErrorIs(t, err, model.ErrUserNotFound)
}

func TestUsers_Register(t *testing.T) {
	store := new(MockUserStore)
	s := NewUsers(store, testutil.MakeNoopLogger())

	store.On("GetByEmail", mock.Anything, "a@x.com").Return(model.User{}, model.ErrNotFound)
	store.On("Create", mock.Anything, mock.AnythingOfType("model.User")).Return(nil, nil)

	user, err := s.Register(context.Background(), "A@X.com", "s3cret", "")

	require.NoError(t, err)
	assert.Equal(t, "a@x.com", user.Email)
	assert.Equal(t, model.RoleUser, user.Role)
	assert.True(t, security.VerifyPassword(user.PasswordHash, "s3cret"))
}

func TestUsers_Register_EmailTaken(t *testing.T) {
	store := new(MockUserStore)
	s := NewUsers(store, testutil.MakeNoopLogger())

	store.On("GetByEmail", mock.Anything, "a@x.com").
		Return(model.User{ID: uuid.New(), Email: "a@x.com"}, nil)

	_, err := s.Register(context.Background(), "a@x.com", "s3cret", model.RoleUser)

	require.ErrorIs(t, err, model.ErrEmailTaken)
	store.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestUsers_Authenticate(t *testing.T) {
	hash, err := security.HashPassword("s3cret")
	require.NoError(t, err)

	registered := model.User{ID: uuid.New(), Email: "a@x.com", PasswordHash: hash}

	tests := []struct {
		name     string
		email    string
		password string
		found    bool
		wantErr  error
	}{
		{name: "valid credentials", email: "a@x.com", password: "s3cret", found: true},
		{name: "wrong password", email: "a@x.com", password: "wrong", found: true, wantErr: model.ErrInvalidCredentials},
		{name: "unknown email", email: "b@x.com", password: "s3cret", wantErr: model.ErrInvalidCredentials},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := new(MockUserStore)
			s := NewUsers(store, testutil.MakeNoopLogger())

			if tt.found {
				store.On("GetByEmail", mock.Anything, tt.email).Return(registered, nil)
			} else {
				store.On("GetByEmail", mock.Anything, tt.email).Return(model.User{}, model.ErrNotFound)
			}

			user, err := s.Authenticate(context.Background(), tt.email, tt.password)

			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, registered.ID, user.ID)
		})
	}
}
