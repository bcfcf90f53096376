package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"estoque/internal/models"
	"estoque/internal/repositories"
)

// mockUserRepository is a testify mock of repositories.UserRepository.
type mockUserRepository struct {
	mock.Mock
}

func (m *mockUserRepository) Create(ctx context.Context, user *models.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *mockUserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	args := m.Called(ctx, email)
	if user, ok := args.Get(0).(*models.User); ok {
		return user, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockUserRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	args := m.Called(ctx, id)
	if user, ok := args.Get(0).(*models.User); ok {
		return user, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockUserRepository) List(ctx context.Context) ([]models.User, error) {
	args := m.Called(ctx)
	if users, ok := args.Get(0).([]models.User); ok {
		return users, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockUserRepository) UpdatePassword(ctx context.Context, id string, hash string) error {
	args := m.Called(ctx, id, hash)
	return args.Error(0)
}

func (m *mockUserRepository) TouchLastLogin(ctx context.Context, id string, at time.Time) error {
	args := m.Called(ctx, id, at)
	return args.Error(0)
}

func hashFor(t *testing.T, password string) string {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	return string(hash)
}

func TestRegisterUser(t *testing.T) {
	ctx := context.Background()

	t.Run("hashes password and defaults role", func(t *testing.T) {
		repo := new(mockUserRepository)
		repo.On("GetByEmail", ctx, "maria@example.com").Return(nil, repositories.ErrNotFound)
		repo.On("Create", ctx, mock.AnythingOfType("*models.User")).Return(nil)

		service := NewAuthService(repo, "test-secret")
		user := &models.User{Name: "Maria", Email: "maria@example.com", Password: "secret123"}
		require.NoError(t, service.RegisterUser(ctx, user))

		assert.Equal(t, "USER", user.Role)
		assert.NotEqual(t, "secret123", user.Password)
		assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(user.Password), []byte("secret123")))
		repo.AssertExpectations(t)
	})

	t.Run("rejects taken email", func(t *testing.T) {
		repo := new(mockUserRepository)
		repo.On("GetByEmail", ctx, "maria@example.com").Return(&models.User{ID: "u1"}, nil)

		service := NewAuthService(repo, "test-secret")
		err := service.RegisterUser(ctx, &models.User{Name: "Maria", Email: "maria@example.com", Password: "secret123"})
		assert.ErrorIs(t, err, ErrEmailTaken)
		repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})

	t.Run("keeps an explicit role", func(t *testing.T) {
		repo := new(mockUserRepository)
		repo.On("GetByEmail", ctx, "admin@example.com").Return(nil, repositories.ErrNotFound)
		repo.On("Create", ctx, mock.AnythingOfType("*models.User")).Return(nil)

		service := NewAuthService(repo, "test-secret")
		user := &models.User{Name: "Admin", Email: "admin@example.com", Password: "secret123", Role: "ADMIN"}
		require.NoError(t, service.RegisterUser(ctx, user))
		assert.Equal(t, "ADMIN", user.Role)
	})
}

func TestLoginUser(t *testing.T) {
	ctx := context.Background()

	t.Run("returns a token carrying the user claims", func(t *testing.T) {
		repo := new(mockUserRepository)
		repo.On("GetByEmail", ctx, "maria@example.com").Return(&models.User{
			ID:       "u1",
			Name:     "Maria",
			Email:    "maria@example.com",
			Password: hashFor(t, "secret123"),
			Role:     "ADMIN",
		}, nil)
		repo.On("TouchLastLogin", ctx, "u1", mock.AnythingOfType("time.Time")).Return(nil)

		service := NewAuthService(repo, "test-secret")
		token, user, err := service.LoginUser(ctx, "maria@example.com", "secret123")
		require.NoError(t, err)
		require.NotEmpty(t, token)
		assert.Empty(t, user.Password)
		require.NotNil(t, user.LastLogin)

		claims, err := service.ValidateToken(token)
		require.NoError(t, err)
		assert.Equal(t, "u1", claims["id"])
		assert.Equal(t, "maria@example.com", claims["email"])
		assert.Equal(t, "ADMIN", claims["role"])
	})

	t.Run("wrong password and unknown email fail the same way", func(t *testing.T) {
		repo := new(mockUserRepository)
		repo.On("GetByEmail", ctx, "maria@example.com").Return(&models.User{
			ID:       "u1",
			Email:    "maria@example.com",
			Password: hashFor(t, "secret123"),
		}, nil)
		repo.On("GetByEmail", ctx, "nobody@example.com").Return(nil, repositories.ErrNotFound)

		service := NewAuthService(repo, "test-secret")

		_, _, errWrongPassword := service.LoginUser(ctx, "maria@example.com", "wrong")
		_, _, errUnknownEmail := service.LoginUser(ctx, "nobody@example.com", "secret123")

		assert.ErrorIs(t, errWrongPassword, ErrInvalidCredentials)
		assert.ErrorIs(t, errUnknownEmail, ErrInvalidCredentials)
		assert.Equal(t, errWrongPassword, errUnknownEmail)
	})

	t.Run("login survives a failing last login stamp", func(t *testing.T) {
		repo := new(mockUserRepository)
		repo.On("GetByEmail", ctx, "maria@example.com").Return(&models.User{
			ID:       "u1",
			Email:    "maria@example.com",
			Password: hashFor(t, "secret123"),
		}, nil)
		repo.On("TouchLastLogin", ctx, "u1", mock.AnythingOfType("time.Time")).Return(assert.AnError)

		service := NewAuthService(repo, "test-secret")
		token, _, err := service.LoginUser(ctx, "maria@example.com", "secret123")
		require.NoError(t, err)
		assert.NotEmpty(t, token)
	})
}

func TestValidateToken(t *testing.T) {
	service := NewAuthService(new(mockUserRepository), "test-secret")

	t.Run("rejects garbage", func(t *testing.T) {
		_, err := service.ValidateToken("not.a.token")
		assert.Error(t, err)
	})

	t.Run("rejects tokens signed with another secret", func(t *testing.T) {
		ctx := context.Background()
		repo := new(mockUserRepository)
		repo.On("GetByEmail", ctx, "maria@example.com").Return(&models.User{
			ID:       "u1",
			Email:    "maria@example.com",
			Password: hashFor(t, "secret123"),
		}, nil)
		repo.On("TouchLastLogin", ctx, "u1", mock.AnythingOfType("time.Time")).Return(nil)

		other := NewAuthService(repo, "other-secret")
		token, _, err := other.LoginUser(ctx, "maria@example.com", "secret123")
		require.NoError(t, err)

		_, err = service.ValidateToken(token)
		assert.Error(t, err)
	})
}

func TestChangePassword(t *testing.T) {
	ctx := context.Background()

	t.Run("verifies the current password before updating", func(t *testing.T) {
		repo := new(mockUserRepository)
		repo.On("GetByID", ctx, "u1").Return(&models.User{
			ID:       "u1",
			Password: hashFor(t, "old-pass"),
		}, nil)
		repo.On("UpdatePassword", ctx, "u1", mock.AnythingOfType("string")).Return(nil)

		service := NewAuthService(repo, "test-secret")
		require.NoError(t, service.ChangePassword(ctx, "u1", "old-pass", "new-pass"))
		repo.AssertExpectations(t)
	})

	t.Run("rejects a wrong current password", func(t *testing.T) {
		repo := new(mockUserRepository)
		repo.On("GetByID", ctx, "u1").Return(&models.User{
			ID:       "u1",
			Password: hashFor(t, "old-pass"),
		}, nil)

		service := NewAuthService(repo, "test-secret")
		err := service.ChangePassword(ctx, "u1", "wrong", "new-pass")
		assert.ErrorIs(t, err, ErrInvalidCredentials)
		repo.AssertNotCalled(t, "UpdatePassword", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("unknown user", func(t *testing.T) {
		repo := new(mockUserRepository)
		repo.On("GetByID", ctx, "missing").Return(nil, repositories.ErrNotFound)

		service := NewAuthService(repo, "test-secret")
		err := service.ChangePassword(ctx, "missing", "a", "b")
		assert.ErrorIs(t, err, ErrUserNotFound)
	})
}

func TestListUsers(t *testing.T) {
	ctx := context.Background()
	repo := new(mockUserRepository)
	repo.On("List", ctx).Return([]models.User{
		{ID: "u1", Email: "a@example.com", Password: "hash-a"},
		{ID: "u2", Email: "b@example.com", Password: "hash-b"},
	}, nil)

	service := NewAuthService(repo, "test-secret")
	users, err := service.ListUsers(ctx)
	require.NoError(t, err)
	require.Len(t, users, 2)
	for _, user := range users {
		assert.Empty(t, user.Password)
	}
}
