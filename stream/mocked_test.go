/*
 * Copyright (c) 2018 Miguel Ángel Ortuño.
 * See the LICENSE file for more information.
 */

package stream

import (
	"testing"

	"github.com/ortuman/vysper/session"
	"github.com/ortuman/vysper/xmpp"
	"github.com/ortuman/vysper/xmpp/jid"
	"github.com/ortuman/vysper/xmpp/streamerror"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
)

func TestMockC2S(t *testing.T) {
	stm := NewMockC2S("abcd", jid.MustParse("romeo@montague.lit/orchard"))
	require.Equal(t, "abcd", stm.ID())
	require.Equal(t, session.Authenticated, stm.Context().State())
	require.True(t, stm.Context().IsBound())

	require.Nil(t, stm.WriteElement(xmpp.NewElementName("a")))
	require.Nil(t, stm.WriteElement(xmpp.NewElementName("b")))
	require.Equal(t, "a", stm.ReceiveElement().Name())
	require.Len(t, stm.Elements(), 1)
	require.Len(t, stm.Elements(), 0)

	werr := errors.New("broken pipe")
	stm.SetWriteError(werr)
	require.Equal(t, werr, stm.WriteElement(xmpp.NewElementName("c")))
	stm.SetWriteError(nil)

	stm.Disconnect(streamerror.ErrPolicyViolation)
	stm.Disconnect(streamerror.ErrConflict)
	require.Equal(t, streamerror.ErrPolicyViolation, stm.WaitDisconnection())
	require.True(t, stm.IsDisconnected())
	require.True(t, stm.Context().IsTerminated())
	require.Equal(t, ErrClosed, stm.WriteElement(xmpp.NewElementName("d")))
}
