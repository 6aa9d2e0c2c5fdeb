/*
 * Copyright (c) 2018 Miguel Ángel Ortuño.
 * See the LICENSE file for more information.
 */

package memorystorage

import (
	"context"
	"sync"

	"github.com/ortuman/vysper/model"
)

// User represents an in-memory user repository.
type User struct {
	mu    sync.RWMutex
	users map[string]model.User
}

// NewUser returns an empty in-memory user repository.
func NewUser() *User {
	return &User{users: make(map[string]model.User)}
}

// UpsertUser inserts a new user entity into storage, or updates it in case it's been previously inserted.
func (m *User) UpsertUser(_ context.Context, user *model.User) error {
	u := *user
	u.Password = append([]byte(nil), user.Password...)

	m.mu.Lock()
	m.users[user.Username] = u
	m.mu.Unlock()
	return nil
}

// DeleteUser deletes a user entity from storage.
func (m *User) DeleteUser(_ context.Context, username string) error {
	m.mu.Lock()
	delete(m.users, username)
	m.mu.Unlock()
	return nil
}

// FetchUser retrieves from storage a user entity.
func (m *User) FetchUser(_ context.Context, username string) (*model.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	u, ok := m.users[username]
	if !ok {
		return nil, nil
	}
	u.Password = append([]byte(nil), u.Password...)
	return &u, nil
}

// UserExists returns whether or not a user exists within storage.
func (m *User) UserExists(_ context.Context, username string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.users[username]
	return ok, nil
}
