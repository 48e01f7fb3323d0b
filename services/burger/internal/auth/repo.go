package auth

import (
	"context"
	"sync"
)

// Repo persists credentials per session name.
type Repo interface {
	Load(ctx context.Context, session string) (Credentials, error)
	Save(ctx context.Context, creds Credentials) error
	Clear(ctx context.Context, session string) error
}

// MemoryRepo keeps credentials for the lifetime of the process.
type MemoryRepo struct {
	mu    sync.RWMutex
	creds map[string]Credentials
}

func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{
		creds: make(map[string]Credentials),
	}
}

func (r *MemoryRepo) Load(ctx context.Context, session string) (Credentials, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	creds, ok := r.creds[session]
	if !ok {
		return Credentials{}, ErrCredentialsNotFound
	}
	return creds, nil
}

func (r *MemoryRepo) Save(ctx context.Context, creds Credentials) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.creds[creds.Session] = creds
	return nil
}

func (r *MemoryRepo) Clear(ctx context.Context, session string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.creds, session)
	return nil
}
