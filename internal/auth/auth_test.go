package auth_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"uniportal/internal/auth"
	"uniportal/internal/kv"
)

func newService(store kv.Store) *auth.Service {
	return auth.NewService(store, "uniportal-test", "test-signing-key", time.Hour)
}

func TestAuthenticate(t *testing.T) {
	ctx := context.Background()

	t.Run("TeacherSuccess", func(t *testing.T) {
		svc := newService(kv.NewMemory())
		sess, err := svc.Authenticate(ctx, "teacher@email.com", "teacher", auth.RoleTeacher)
		require.NoError(t, err)
		assert.NotEmpty(t, sess.Token)
		assert.Equal(t, "teacher@email.com", sess.User.Email)
		assert.Equal(t, auth.RoleTeacher, sess.User.Role)
	})

	t.Run("StudentSuccess", func(t *testing.T) {
		svc := newService(kv.NewMemory())
		sess, err := svc.Authenticate(ctx, "student3@example.com", "student3", auth.RoleStudent)
		require.NoError(t, err)
		assert.Equal(t, auth.RoleStudent, sess.User.Role)
	})

	t.Run("WrongPassword", func(t *testing.T) {
		svc := newService(kv.NewMemory())
		_, err := svc.Authenticate(ctx, "teacher@email.com", "nope", auth.RoleTeacher)
		assert.ErrorIs(t, err, auth.ErrInvalidCredentials)
	})

	t.Run("RoleMismatch", func(t *testing.T) {
		// A valid student row must not authenticate as a teacher.
		svc := newService(kv.NewMemory())
		_, err := svc.Authenticate(ctx, "student1@example.com", "student1", auth.RoleTeacher)
		assert.ErrorIs(t, err, auth.ErrInvalidCredentials)
	})

	t.Run("FailureLeavesSessionUntouched", func(t *testing.T) {
		store := kv.NewMemory()
		svc := newService(store)
		_, err := svc.Authenticate(ctx, "teacher@email.com", "teacher", auth.RoleTeacher)
		require.NoError(t, err)

		_, err = svc.Authenticate(ctx, "intruder@example.com", "guess", auth.RoleStudent)
		require.ErrorIs(t, err, auth.ErrInvalidCredentials)

		user, ok, err := svc.Current(ctx)
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Equal(t, "teacher@email.com", user.Email)
	})

	t.Run("NewLoginOverwrites", func(t *testing.T) {
		store := kv.NewMemory()
		svc := newService(store)
		_, err := svc.Authenticate(ctx, "teacher@email.com", "teacher", auth.RoleTeacher)
		require.NoError(t, err)
		_, err = svc.Authenticate(ctx, "student2@example.com", "student2", auth.RoleStudent)
		require.NoError(t, err)

		user, ok, err := svc.Current(ctx)
		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, "student2@example.com", user.Email)
	})
}

func TestLogout(t *testing.T) {
	ctx := context.Background()
	svc := newService(kv.NewMemory())

	_, err := svc.Authenticate(ctx, "teacher@email.com", "teacher", auth.RoleTeacher)
	require.NoError(t, err)

	require.NoError(t, svc.Logout(ctx))
	_, ok, err := svc.Current(ctx)
	require.NoError(t, err)
	assert.False(t, ok)

	// Logging out twice is a no-op, not an error.
	require.NoError(t, svc.Logout(ctx))
}

func TestRegisterDisabled(t *testing.T) {
	svc := newService(kv.NewMemory())
	err := svc.Register(context.Background(), "new@example.com", "pw", auth.RoleStudent)
	assert.ErrorIs(t, err, auth.ErrRegistrationDisabled)
}

func TestTokens(t *testing.T) {
	t.Run("IssueParseRoundTrip", func(t *testing.T) {
		token, exp, err := auth.Issue("teacher@email.com", auth.RoleTeacher, "iss", "key", time.Hour)
		require.NoError(t, err)
		assert.WithinDuration(t, time.Now().Add(time.Hour), exp, 5*time.Second)

		claims, err := auth.Parse(token, "key", "iss")
		require.NoError(t, err)
		assert.Equal(t, "teacher@email.com", claims.Subject)
		assert.Equal(t, auth.RoleTeacher, claims.Role)
	})

	t.Run("WrongKey", func(t *testing.T) {
		token, _, err := auth.Issue("x", auth.RoleStudent, "iss", "key", time.Hour)
		require.NoError(t, err)
		_, err = auth.Parse(token, "other-key", "iss")
		assert.Error(t, err)
	})

	t.Run("WrongIssuer", func(t *testing.T) {
		token, _, err := auth.Issue("x", auth.RoleStudent, "iss", "key", time.Hour)
		require.NoError(t, err)
		_, err = auth.Parse(token, "key", "someone-else")
		assert.Error(t, err)
	})
}
