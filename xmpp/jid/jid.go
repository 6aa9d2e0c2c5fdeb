/*
 * Copyright (c) 2018 Miguel Ángel Ortuño.
 * See the LICENSE file for more information.
 */

package jid

import (
	"bytes"
	"net"
	"strings"
	"unicode/utf8"

	"github.com/ortuman/vysper/pool"
	"github.com/pkg/errors"
	"golang.org/x/net/idna"
	"golang.org/x/text/secure/precis"
)

const maxPartLength = 1023

var bufPool = pool.NewBufferPool()

var (
	// ErrEmptyDomain is returned when an address carries no domain part.
	ErrEmptyDomain = errors.New("jid: empty domain")

	// ErrEmptyResource is returned when an address ends in a bare slash.
	ErrEmptyResource = errors.New("jid: empty resource")

	// ErrEmptyNode is returned when an address starts with '@'.
	ErrEmptyNode = errors.New("jid: empty node")
)

// MatchingOptions represents a matching jid mask.
type MatchingOptions int8

const (
	// MatchesNode indicates that left and right operand has same node value.
	MatchesNode = MatchingOptions(1)

	// MatchesDomain indicates that left and right operand has same domain value.
	MatchesDomain = MatchingOptions(2)

	// MatchesResource indicates that left and right operand has same resource value.
	MatchesResource = MatchingOptions(4)

	// MatchesBare indicates that left and right operand has same node and domain value.
	MatchesBare = MatchesNode | MatchesDomain

	// MatchesFull indicates that every part of both operands is equal.
	MatchesFull = MatchesBare | MatchesResource
)

// JID represents an XMPP address: node@domain/resource.
// Node and resource are optional, domain is required.
// A JID value is never modified once constructed.
type JID struct {
	node     string
	domain   string
	resource string
}

// New constructs a JID given a node, domain, and resource.
// When skipStringPrep is set the parts are taken verbatim.
func New(node, domain, resource string, skipStringPrep bool) (*JID, error) {
	if len(domain) == 0 {
		return nil, ErrEmptyDomain
	}
	if skipStringPrep {
		return &JID{node: node, domain: domain, resource: resource}, nil
	}
	return prepare(node, domain, resource)
}

// NewWithString parses and prepares a JID from its string representation.
func NewWithString(str string, skipStringPrep bool) (*JID, error) {
	node, domain, resource, err := split(str)
	if err != nil {
		return nil, err
	}
	return New(node, domain, resource, skipStringPrep)
}

// MustParse is like NewWithString but panics on invalid input.
// Intended for constants and tests.
func MustParse(str string) *JID {
	j, err := NewWithString(str, false)
	if err != nil {
		panic(err)
	}
	return j
}

// Node returns the node part, or an empty string.
func (j *JID) Node() string { return j.node }

// Domain returns the domain part.
func (j *JID) Domain() string { return j.domain }

// Resource returns the resource part, or an empty string.
func (j *JID) Resource() string { return j.resource }

// ToBareJID returns a copy of the JID with the resource removed.
func (j *JID) ToBareJID() *JID {
	if len(j.resource) == 0 {
		return j
	}
	return &JID{node: j.node, domain: j.domain}
}

// WithResource returns a copy of the bare part of j bound to resource.
func (j *JID) WithResource(resource string) *JID {
	return &JID{node: j.node, domain: j.domain, resource: resource}
}

// IsServer returns true if the JID has no node part.
func (j *JID) IsServer() bool {
	return len(j.node) == 0
}

// IsBare returns true if the JID has a node but no resource.
func (j *JID) IsBare() bool {
	return len(j.node) > 0 && len(j.resource) == 0
}

// IsFull returns true if the JID carries a resource.
func (j *JID) IsFull() bool {
	return len(j.resource) > 0
}

// IsFullWithUser returns true if the JID carries both a node and a resource.
func (j *JID) IsFullWithUser() bool {
	return len(j.node) > 0 && len(j.resource) > 0
}

// Matches reports whether j and j2 agree on every part selected by options.
func (j *JID) Matches(j2 *JID, options MatchingOptions) bool {
	if j2 == nil {
		return false
	}
	if (options&MatchesNode) > 0 && j.node != j2.node {
		return false
	}
	if (options&MatchesDomain) > 0 && j.domain != j2.domain {
		return false
	}
	if (options&MatchesResource) > 0 && j.resource != j2.resource {
		return false
	}
	return true
}

// Equal reports whether j and j2 denote the same full address.
func (j *JID) Equal(j2 *JID) bool {
	return j.Matches(j2, MatchesFull)
}

// String returns the canonical string representation of the JID.
func (j *JID) String() string {
	buf := bufPool.Get()
	defer bufPool.Put(buf)

	if len(j.node) > 0 {
		buf.WriteString(j.node)
		buf.WriteByte('@')
	}
	buf.WriteString(j.domain)
	if len(j.resource) > 0 {
		buf.WriteByte('/')
		buf.WriteString(j.resource)
	}
	return buf.String()
}

func split(str string) (node, domain, resource string, err error) {
	if len(str) == 0 {
		return "", "", "", ErrEmptyDomain
	}
	// the resource may legitimately contain '@' and '/', so cut it first
	rest := str
	if i := strings.IndexByte(rest, '/'); i >= 0 {
		resource = rest[i+1:]
		if len(resource) == 0 {
			return "", "", "", ErrEmptyResource
		}
		rest = rest[:i]
	}
	if i := strings.IndexByte(rest, '@'); i >= 0 {
		if i == 0 {
			return "", "", "", ErrEmptyNode
		}
		node = rest[:i]
		rest = rest[i+1:]
	}
	if len(rest) == 0 {
		return "", "", "", ErrEmptyDomain
	}
	return node, rest, resource, nil
}

// prepare applies the RFC 7622 preparation and enforcement rules.
func prepare(node, domain, resource string) (*JID, error) {
	if !utf8.ValidString(node) || !utf8.ValidString(resource) {
		return nil, errors.New("jid: invalid UTF-8")
	}
	// A-labels must be converted to U-labels for the domain slot.
	domain, err := idna.ToUnicode(domain)
	if err != nil {
		return nil, errors.Wrap(err, "jid: domain")
	}
	if !utf8.ValidString(domain) {
		return nil, errors.New("jid: domain contains invalid UTF-8")
	}
	domain = strings.ToLower(domain)

	if len(node) > 0 {
		if node, err = precis.UsernameCaseMapped.String(node); err != nil {
			return nil, errors.Wrap(err, "jid: node")
		}
	}
	if len(resource) > 0 {
		if resource, err = precis.OpaqueString.String(resource); err != nil {
			return nil, errors.Wrap(err, "jid: resource")
		}
	}
	if err := validate(node, domain, resource); err != nil {
		return nil, err
	}
	return &JID{node: node, domain: domain, resource: resource}, nil
}

func validate(node, domain, resource string) error {
	if len(node) > maxPartLength {
		return errors.New("jid: node must be smaller than 1024 bytes")
	}
	// RFC 7622 §3.3.1 characters still forbidden in nodes
	if bytes.ContainsAny([]byte(node), `"&'/:<>@`) {
		return errors.New("jid: node contains forbidden characters")
	}
	if len(resource) > maxPartLength {
		return errors.New("jid: resource must be smaller than 1024 bytes")
	}
	if len(domain) < 1 || len(domain) > maxPartLength {
		return errors.New("jid: domain must be between 1 and 1023 bytes")
	}
	if l := len(domain); l > 2 && domain[0] == '[' && domain[l-1] == ']' {
		if ip := net.ParseIP(domain[1 : l-1]); ip == nil || ip.To4() != nil {
			return errors.New("jid: domain is not a valid IPv6 address")
		}
	}
	return nil
}
