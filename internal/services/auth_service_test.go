package services

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestAuthService_Register(t *testing.T) {
	env := setupTestEnv(t)

	user, tok, err := env.auth.Register(RegisterInput{
		Email:    "Alice@Example.com",
		Password: "supersecret",
		Name:     "Alice",
	})
	require.NoError(t, err)
	require.NotEmpty(t, tok)
	require.Equal(t, "alice@example.com", user.Email, "email is stored lowercased")
	require.NotEqual(t, "supersecret", user.PasswordHash, "password is never stored in the clear")
}

func TestAuthService_RegisterDuplicateEmail(t *testing.T) {
	env := setupTestEnv(t)

	_, _, err := env.auth.Register(RegisterInput{
		Email:    "alice@example.com",
		Password: "supersecret",
		Name:     "Alice",
	})
	require.NoError(t, err)

	// Same address with different casing is still a duplicate.
	_, _, err = env.auth.Register(RegisterInput{
		Email:    "ALICE@example.com",
		Password: "othersecret",
		Name:     "Imposter",
	})
	require.ErrorIs(t, err, ErrUserExists)
}

func TestAuthService_RegisterValidation(t *testing.T) {
	env := setupTestEnv(t)

	_, _, err := env.auth.Register(RegisterInput{
		Email:    "short@example.com",
		Password: "12345",
		Name:     "Shorty",
	})
	require.ErrorIs(t, err, ErrPasswordTooShort)

	_, _, err = env.auth.Register(RegisterInput{
		Email:    "noname@example.com",
		Password: "supersecret",
		Name:     "x",
	})
	require.ErrorIs(t, err, ErrNameTooShort)
}

func TestAuthService_Login(t *testing.T) {
	env := setupTestEnv(t)

	_, _, err := env.auth.Register(RegisterInput{
		Email:    "bob@example.com",
		Password: "supersecret",
		Name:     "Bob",
	})
	require.NoError(t, err)

	user, tok, err := env.auth.Login(LoginInput{
		Email:    "BOB@example.com",
		Password: "supersecret",
	})
	require.NoError(t, err)
	require.NotEmpty(t, tok)
	require.Equal(t, "bob@example.com", user.Email)
}

func TestAuthService_LoginDoesNotLeakWhichPartFailed(t *testing.T) {
	env := setupTestEnv(t)

	_, _, err := env.auth.Register(RegisterInput{
		Email:    "bob@example.com",
		Password: "supersecret",
		Name:     "Bob",
	})
	require.NoError(t, err)

	_, _, wrongPassword := env.auth.Login(LoginInput{
		Email:    "bob@example.com",
		Password: "wrong",
	})
	_, _, unknownEmail := env.auth.Login(LoginInput{
		Email:    "nobody@example.com",
		Password: "supersecret",
	})

	require.ErrorIs(t, wrongPassword, ErrInvalidCredentials)
	require.ErrorIs(t, unknownEmail, ErrInvalidCredentials)
	require.Equal(t, wrongPassword.Error(), unknownEmail.Error())
}
