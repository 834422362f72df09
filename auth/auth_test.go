package auth

import (
	"context"
	"os"
	"testing"

	"github.com/lazharichir/jpoker/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestStaticVerifier(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("hunter2"), bcrypt.MinCost)
	require.NoError(t, err)

	v := NewStatic(map[string]string{
		"alice": string(hash),
		"bob":   "not-a-bcrypt-hash",
	})
	ctx := context.Background()

	tests := []struct {
		name    string
		user    string
		pass    string
		want    bool
		wantErr bool
	}{
		{"correct password", "alice", "hunter2", true, false},
		{"wrong password", "alice", "hunter3", false, false},
		{"unknown user", "carol", "hunter2", false, false},
		{"corrupt hash", "bob", "anything", false, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ok, err := v.Verify(ctx, tt.user, tt.pass)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
			assert.Equal(t, tt.want, ok)
		})
	}
}

func TestFunc(t *testing.T) {
	var v Verifier = Func(func(_ context.Context, user, pass string) (bool, error) {
		return user == pass, nil
	})
	ok, err := v.Verify(context.Background(), "x", "x")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestHashPassword(t *testing.T) {
	hash, err := HashPassword("secret")
	require.NoError(t, err)
	ok, err := checkHash([]byte(hash), "secret")
	require.NoError(t, err)
	assert.True(t, ok)
}

// Runs against a real database when JPOKER_TEST_POSTGRES_DSN is set.
func TestPostgresVerifier(t *testing.T) {
	dsn := os.Getenv("JPOKER_TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("JPOKER_TEST_POSTGRES_DSN not set")
	}
	ctx := context.Background()

	v, err := OpenPostgres(ctx, dsn, logging.Discard())
	require.NoError(t, err)
	defer v.Close()

	require.NoError(t, v.AddUser(ctx, "alice", "hunter2"))

	ok, err := v.Verify(ctx, "alice", "hunter2")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = v.Verify(ctx, "alice", "wrong")
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = v.Verify(ctx, "nobody", "hunter2")
	require.NoError(t, err)
	assert.False(t, ok)
}
