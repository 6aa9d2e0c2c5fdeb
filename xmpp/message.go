/*
 * Copyright (c) 2018 Miguel Ángel Ortuño.
 * See the LICENSE file for more information.
 */

package xmpp

import (
	"github.com/ortuman/vysper/xmpp/jid"
	"github.com/pkg/errors"
)

const (
	// NormalType represents a 'normal' message type.
	NormalType = "normal"

	// HeadlineType represents a 'headline' message type.
	HeadlineType = "headline"

	// ChatType represents a 'chat' message type.
	ChatType = "chat"

	// GroupChatType represents a 'groupchat' message type.
	GroupChatType = "groupchat"
)

// Message type represents a <message> element.
type Message struct {
	stanzaElement
}

// NewMessageFromElement creates a Message object from XElement.
func NewMessageFromElement(e XElement, from *jid.JID, to *jid.JID) (*Message, error) {
	if e.Name() != MessageName {
		return nil, errors.Errorf("xmpp: wrong Message element name: %s", e.Name())
	}
	if !isMessageType(e.Type()) {
		return nil, errors.Errorf(`xmpp: invalid Message "type" attribute: %s`, e.Type())
	}
	m := &Message{}
	m.init(e, from, to)
	return m, nil
}

// NewMessageType creates and returns a new Message element.
func NewMessageType(identifier, messageType string, from, to *jid.JID, children ...XElement) *Message {
	b := NewElementBuilder(MessageName).WithID(identifier).WithType(messageType)
	b.AppendElements(children)

	m := &Message{}
	m.init(b.Build(), from, to)
	return m
}

// IsChat returns true if this is a 'chat' type Message.
func (m *Message) IsChat() bool {
	return m.Type() == ChatType
}

// Body returns the message default body text, or an empty string
// if the message carries no <body/> child.
func (m *Message) Body() string {
	if body := m.elements.Child("body"); body != nil {
		return body.Text()
	}
	return ""
}

func isMessageType(messageType string) bool {
	switch messageType {
	case "", ErrorType, NormalType, HeadlineType, ChatType, GroupChatType:
		return true
	}
	return false
}
