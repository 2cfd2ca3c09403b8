package service

import (
	"context"
	"testing"

	"github.com/shreyaskr77/Solvathon/internal/domain"

	"github.com/golang-jwt/jwt/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

func registerInput() RegisterInput {
	return RegisterInput{
		Name:               "Asha",
		Email:              "asha@example.edu",
		RegistrationNumber: "21BCA042",
		Password:           "correct horse battery",
		Role:               domain.RoleStudent,
		Course:             "BCA",
		Semester:           5,
	}
}

func TestRegister(t *testing.T) {
	t.Run("returns token and sanitized user", func(t *testing.T) {
		svc := NewAuthService(newFakeUserRepo(), testSecret, 0)

		token, user, err := svc.Register(context.Background(), registerInput())
		require.NoError(t, err)
		assert.NotEmpty(t, token)
		assert.Empty(t, user.PasswordHash)
		assert.False(t, user.ID.IsZero())

		claims := &AuthClaims{}
		parsed, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (interface{}, error) {
			return []byte(testSecret), nil
		})
		require.NoError(t, err)
		assert.True(t, parsed.Valid)
		assert.Equal(t, user.ID.Hex(), claims.UserID)
		assert.Equal(t, domain.RoleStudent, claims.Role)
		assert.Equal(t, "Asha", claims.Name)
	})

	t.Run("role defaults to student", func(t *testing.T) {
		svc := NewAuthService(newFakeUserRepo(), testSecret, 0)
		in := registerInput()
		in.Role = ""

		_, user, err := svc.Register(context.Background(), in)
		require.NoError(t, err)
		assert.Equal(t, domain.RoleStudent, user.Role)
	})

	t.Run("unknown role rejected", func(t *testing.T) {
		svc := NewAuthService(newFakeUserRepo(), testSecret, 0)
		in := registerInput()
		in.Role = "Dean"

		_, _, err := svc.Register(context.Background(), in)
		assert.ErrorIs(t, err, ErrInvalidRole)
	})

	t.Run("duplicate email rejected", func(t *testing.T) {
		repo := newFakeUserRepo(&domain.User{Name: "Existing", Email: "asha@example.edu", Role: domain.RoleStudent})
		svc := NewAuthService(repo, testSecret, 0)

		_, _, err := svc.Register(context.Background(), registerInput())
		assert.ErrorIs(t, err, ErrUserAlreadyExists)
	})
}

func TestLogin(t *testing.T) {
	setup := func(t *testing.T) AuthService {
		t.Helper()
		svc := NewAuthService(newFakeUserRepo(), testSecret, 0)
		_, _, err := svc.Register(context.Background(), registerInput())
		require.NoError(t, err)
		return svc
	}

	t.Run("by email", func(t *testing.T) {
		svc := setup(t)
		token, user, err := svc.Login(context.Background(), "asha@example.edu", "", "correct horse battery")
		require.NoError(t, err)
		assert.NotEmpty(t, token)
		assert.Empty(t, user.PasswordHash)
	})

	t.Run("by registration number", func(t *testing.T) {
		svc := setup(t)
		_, user, err := svc.Login(context.Background(), "", "21BCA042", "correct horse battery")
		require.NoError(t, err)
		assert.Equal(t, "asha@example.edu", user.Email)
	})

	t.Run("wrong password", func(t *testing.T) {
		svc := setup(t)
		_, _, err := svc.Login(context.Background(), "asha@example.edu", "", "wrong")
		assert.ErrorIs(t, err, ErrAuthenticationFailed)
	})

	t.Run("unknown user", func(t *testing.T) {
		svc := setup(t)
		_, _, err := svc.Login(context.Background(), "nobody@example.edu", "", "whatever")
		assert.ErrorIs(t, err, ErrAuthenticationFailed)
	})

	t.Run("no identifier", func(t *testing.T) {
		svc := setup(t)
		_, _, err := svc.Login(context.Background(), "", "", "whatever")
		assert.ErrorIs(t, err, ErrAuthenticationFailed)
	})
}
