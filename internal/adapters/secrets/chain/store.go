package chain

import (
	"context"
	"errors"
	"fmt"

	filestore "github.com/bnema/visionary-cli/internal/adapters/secrets/file"
	passstore "github.com/bnema/visionary-cli/internal/adapters/secrets/pass"
	"github.com/bnema/visionary-cli/internal/ports"
)

var errNoBackends = errors.New("secret store chain has no backends")

// Backend is one named store in the chain.
type Backend struct {
	Name  string
	Store ports.SecretStore
}

// Store tries each backend in order and stops at the first success.
// Cancellation is returned immediately without consulting later backends.
type Store struct {
	backends []Backend
}

var _ ports.SecretStore = (*Store)(nil)

func NewStore(backends ...Backend) (*Store, error) {
	kept := make([]Backend, 0, len(backends))
	for _, backend := range backends {
		if backend.Store != nil {
			kept = append(kept, backend)
		}
	}
	if len(kept) == 0 {
		return nil, errNoBackends
	}

	return &Store{backends: kept}, nil
}

// NewPassFirstWithFileFallback prefers the pass password manager and falls
// back to 0600 files under fileRoot when pass is missing or fails.
func NewPassFirstWithFileFallback(namespace string, fileRoot string) (*Store, error) {
	return NewStore(
		Backend{Name: "pass", Store: passstore.NewStore(namespace)},
		Backend{Name: "file", Store: filestore.NewStore(fileRoot)},
	)
}

func (s *Store) Put(ctx context.Context, key string, value string) error {
	return s.each("put", key, func(store ports.SecretStore) error {
		return store.Put(ctx, key, value)
	})
}

func (s *Store) Get(ctx context.Context, key string) (string, error) {
	var value string
	err := s.each("get", key, func(store ports.SecretStore) error {
		var err error
		value, err = store.Get(ctx, key)
		return err
	})
	if err != nil {
		return "", err
	}

	return value, nil
}

func (s *Store) Delete(ctx context.Context, key string) error {
	return s.each("delete", key, func(store ports.SecretStore) error {
		return store.Delete(ctx, key)
	})
}

func (s *Store) each(op string, key string, fn func(ports.SecretStore) error) error {
	var errs []error
	for _, backend := range s.backends {
		err := fn(backend.Store)
		if err == nil {
			return nil
		}
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return err
		}
		errs = append(errs, fmt.Errorf("%s backend: %w", backend.Name, err))
	}

	return fmt.Errorf("%s secret %q: %w", op, key, errors.Join(errs...))
}
