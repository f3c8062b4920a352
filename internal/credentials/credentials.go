// Package credentials resolves the provider cookies used to read private
// leagues. The values are opaque to the rest of the system.
package credentials

import (
	"context"
	"errors"
	"sync"
)

// ErrUnauthenticated is returned when no credentials are known for a user.
var ErrUnauthenticated = errors.New("credentials: user is not authenticated")

type Credentials struct {
	SWID   string
	ESPNS2 string
}

// Empty reports whether the credentials carry no cookies.
func (c Credentials) Empty() bool {
	return c.SWID == "" || c.ESPNS2 == ""
}

type Provider interface {
	Resolve(ctx context.Context, userID string) (Credentials, error)
}

// Static serves credentials from memory. It is populated from the
// environment at startup and can be updated at runtime.
type Static struct {
	mu    sync.RWMutex
	users map[string]Credentials
}

func NewStatic() *Static {
	return &Static{users: make(map[string]Credentials)}
}

func (s *Static) Set(userID string, c Credentials) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[userID] = c
}

func (s *Static) Resolve(ctx context.Context, userID string) (Credentials, error) {
	if err := ctx.Err(); err != nil {
		return Credentials{}, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.users[userID]
	if !ok || c.Empty() {
		return Credentials{}, ErrUnauthenticated
	}
	return c, nil
}
