/*
 * Copyright (c) 2018 Miguel Ángel Ortuño.
 * See the LICENSE file for more information.
 */

package auth

import (
	"context"

	"github.com/ortuman/vysper/model"
	"github.com/ortuman/vysper/storage/repository"
	"github.com/ortuman/vysper/xmpp/jid"
	"github.com/pkg/errors"
	"golang.org/x/crypto/bcrypt"
)

// ErrAccountNotFound is returned when an account does not exist.
var ErrAccountNotFound = errors.New("auth: account not found")

// AccountVerifier verifies user credentials.
type AccountVerifier interface {
	VerifyCredentials(ctx context.Context, bare *jid.JID, password string) (bool, error)
}

// AccountManager manages user accounts backed by a user repository.
// Passwords are kept as bcrypt hashes.
type AccountManager struct {
	rep  repository.User
	cost int
}

// NewAccountManager returns an account manager storing into rep.
func NewAccountManager(rep repository.User) *AccountManager {
	return &AccountManager{rep: rep, cost: bcrypt.DefaultCost}
}

// VerifyCredentials reports whether password matches bare account password.
func (m *AccountManager) VerifyCredentials(ctx context.Context, bare *jid.JID, password string) (bool, error) {
	usr, err := m.rep.FetchUser(ctx, bare.ToBareJID().String())
	if err != nil {
		return false, err
	}
	if usr == nil {
		return false, nil
	}
	return bcrypt.CompareHashAndPassword(usr.Password, []byte(password)) == nil, nil
}

// AccountExists reports whether bare account exists.
func (m *AccountManager) AccountExists(ctx context.Context, bare *jid.JID) (bool, error) {
	return m.rep.UserExists(ctx, bare.ToBareJID().String())
}

// AddUser creates or replaces bare account.
func (m *AccountManager) AddUser(ctx context.Context, bare *jid.JID, password string) error {
	if bare.IsServer() {
		return errors.Errorf("auth: account requires a node: %s", bare)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), m.cost)
	if err != nil {
		return errors.Wrap(err, "auth: hash password")
	}
	return m.rep.UpsertUser(ctx, &model.User{
		Username: bare.ToBareJID().String(),
		Password: hash,
	})
}

// ChangePassword replaces bare account password.
func (m *AccountManager) ChangePassword(ctx context.Context, bare *jid.JID, password string) error {
	usr, err := m.rep.FetchUser(ctx, bare.ToBareJID().String())
	if err != nil {
		return err
	}
	if usr == nil {
		return ErrAccountNotFound
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), m.cost)
	if err != nil {
		return errors.Wrap(err, "auth: hash password")
	}
	usr.Password = hash
	return m.rep.UpsertUser(ctx, usr)
}
