/*
 * Copyright (c) 2018 Miguel Ángel Ortuño.
 * See the LICENSE file for more information.
 */

package auth

import (
	"context"

	"github.com/ortuman/vysper/xmpp/jid"
	"github.com/rs/xid"
)

// Anonymous represents the ANONYMOUS SASL mechanism.
// Every exchange succeeds with a freshly generated node.
type Anonymous struct{}

// NewAnonymous returns an ANONYMOUS mechanism.
func NewAnonymous() *Anonymous { return &Anonymous{} }

// Name satisfies Mechanism interface.
func (a *Anonymous) Name() string { return "ANONYMOUS" }

// Available satisfies Mechanism interface.
func (a *Anonymous) Available() bool { return true }

// Authenticate satisfies Mechanism interface.
func (a *Anonymous) Authenticate(_ context.Context, _ string, domain string) (*jid.JID, error) {
	return jid.New(xid.New().String(), domain, "", true)
}
