/*
 * Copyright (c) 2018 Miguel Ángel Ortuño.
 * See the LICENSE file for more information.
 */

package auth

import (
	"context"

	"github.com/ortuman/vysper/xmpp/jid"
)

// External represents the EXTERNAL SASL mechanism.
// It is declared so that clients requesting it get a proper failure,
// but it is never advertised.
type External struct{}

// NewExternal returns an EXTERNAL mechanism.
func NewExternal() *External { return &External{} }

// Name satisfies Mechanism interface.
func (e *External) Name() string { return "EXTERNAL" }

// Available satisfies Mechanism interface.
func (e *External) Available() bool { return false }

// Authenticate satisfies Mechanism interface.
func (e *External) Authenticate(_ context.Context, _ string, _ string) (*jid.JID, error) {
	return nil, ErrMechanismUnavailable
}
