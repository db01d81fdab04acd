package pass

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStorePutInsertsUnderNamespace(t *testing.T) {
	t.Parallel()

	called := false
	store := &Store{
		namespace: "visionary",
		run: func(ctx context.Context, input string, args ...string) (string, string, error) {
			called = true
			assert.Equal(t, []string{"insert", "--multiline", "--force", "visionary/ingest/password"}, args)
			assert.Equal(t, "s3cret\n", input)
			return "", "", nil
		},
	}

	require.NoError(t, store.Put(context.Background(), "ingest/password", "s3cret\n"))
	assert.True(t, called)
}

func TestStoreGetTrimsTrailingNewline(t *testing.T) {
	t.Parallel()

	store := &Store{
		namespace: "visionary",
		run: func(ctx context.Context, input string, args ...string) (string, string, error) {
			assert.Equal(t, []string{"show", "visionary/ingest/password"}, args)
			assert.Empty(t, input)
			return "s3cret\r\n", "", nil
		},
	}

	value, err := store.Get(context.Background(), "/ingest/password")
	require.NoError(t, err)
	assert.Equal(t, "s3cret", value)
}

func TestStoreDeleteWithoutNamespace(t *testing.T) {
	t.Parallel()

	store := &Store{
		run: func(ctx context.Context, input string, args ...string) (string, string, error) {
			assert.Equal(t, []string{"rm", "--force", "ingest/password"}, args)
			return "", "", nil
		},
	}

	require.NoError(t, store.Delete(context.Background(), "ingest/password"))
}

func TestStoreErrorsIncludeEntryAndStderr(t *testing.T) {
	t.Parallel()

	store := &Store{
		namespace: "visionary",
		run: func(ctx context.Context, input string, args ...string) (string, string, error) {
			return "", "Error: visionary/ingest/password is not in the password store.", errors.New("exit status 1")
		},
	}

	_, err := store.Get(context.Background(), "ingest/password")
	require.Error(t, err)
	assert.ErrorContains(t, err, `pass show "visionary/ingest/password"`)
	assert.ErrorContains(t, err, "is not in the password store")
}

func TestStoreHonoursCancelledContext(t *testing.T) {
	t.Parallel()

	store := NewStore("visionary")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := store.Get(ctx, "ingest/password")
	require.ErrorIs(t, err, context.Canceled)
}
