package cli

import (
	"bytes"
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"finassist.com/finance-chatbot/internal/auth"
	"finassist.com/finance-chatbot/internal/store"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := NewRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestTokenCommand(t *testing.T) {
	t.Setenv("JWT_SECRET", "cli-secret")
	t.Setenv("LOG_LEVEL", "ERROR")

	out, err := run(t, "token", "user-7")
	require.NoError(t, err)

	sub, err := auth.ValidateJWT("cli-secret", strings.TrimSpace(out))
	require.NoError(t, err)
	assert.Equal(t, "user-7", sub)
}

func TestTokenCommand_NeedsSecret(t *testing.T) {
	t.Setenv("JWT_SECRET", "")

	_, err := run(t, "token", "user-7")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "JWT_SECRET")
}

func TestSeedCommand(t *testing.T) {
	t.Setenv("STORAGE_BACKEND", "sqlite")
	t.Setenv("DATABASE_URL", filepath.Join(t.TempDir(), "seed.db"))
	t.Setenv("LOG_LEVEL", "ERROR")

	out, err := run(t, "seed")
	require.NoError(t, err)
	assert.Contains(t, out, "Successfully seeded 20 real finance FAQs")

	out, err = run(t, "seed")
	require.NoError(t, err)
	assert.Contains(t, out, "FAQs already exist (20 entries)")
}

func TestGrantAdminCommand(t *testing.T) {
	dsn := filepath.Join(t.TempDir(), "roles.db")
	t.Setenv("STORAGE_BACKEND", "sqlite")
	t.Setenv("DATABASE_URL", dsn)
	t.Setenv("LOG_LEVEL", "ERROR")

	out, err := run(t, "grant-admin", "user-3")
	require.NoError(t, err)
	assert.Contains(t, out, "user-3 is now an admin")

	db, err := store.NewSQLiteStore(dsn, zap.NewNop())
	require.NoError(t, err)
	defer db.Close()
	ok, err := db.HasRole(context.Background(), "user-3", store.AppRoleAdmin)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestServeCommand_RejectsIncompleteConfig(t *testing.T) {
	t.Setenv("COMPLETION_PROVIDER", "gateway")
	t.Setenv("COMPLETION_API_KEY", "")
	t.Setenv("JWT_SECRET", "")

	_, err := run(t, "serve")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "COMPLETION_API_KEY")
}
