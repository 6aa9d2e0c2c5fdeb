/*
 * Copyright (c) 2018 Miguel Ángel Ortuño.
 * See the LICENSE file for more information.
 */

package auth

import (
	"bytes"
	"context"
	"encoding/base64"
	"strings"

	"github.com/ortuman/vysper/xmpp/jid"
	"github.com/pkg/errors"
)

// Plain represents the PLAIN SASL mechanism.
type Plain struct {
	verifier AccountVerifier
}

// NewPlain returns a PLAIN mechanism verifying credentials against verifier.
func NewPlain(verifier AccountVerifier) *Plain {
	return &Plain{verifier: verifier}
}

// Name satisfies Mechanism interface.
func (p *Plain) Name() string { return "PLAIN" }

// Available satisfies Mechanism interface.
func (p *Plain) Available() bool { return true }

// Authenticate satisfies Mechanism interface.
func (p *Plain) Authenticate(ctx context.Context, payload string, domain string) (*jid.JID, error) {
	b, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, ErrSASLIncorrectEncoding
	}
	s := bytes.Split(b, []byte{0})
	if len(s) != 3 {
		return nil, ErrSASLMalformedRequest
	}
	authcid := string(s[1])
	password := string(s[2])
	if len(authcid) == 0 || len(password) == 0 {
		return nil, ErrSASLNotAuthorized
	}
	if !strings.Contains(authcid, "@") {
		authcid = authcid + "@" + domain
	}
	j, err := jid.NewWithString(authcid, false)
	if err != nil {
		return nil, ErrSASLNotAuthorized
	}
	j = j.ToBareJID()

	ok, err := p.verifier.VerifyCredentials(ctx, j, password)
	if err != nil {
		return nil, errors.Wrap(err, "auth: verify credentials")
	}
	if !ok {
		return nil, ErrSASLNotAuthorized
	}
	return j, nil
}
