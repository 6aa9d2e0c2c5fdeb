/*
 * Copyright (c) 2018 Miguel Ángel Ortuño.
 * See the LICENSE file for more information.
 */

package xep0199

import (
	"context"
	"testing"
	"time"

	"github.com/ortuman/vysper/stream"
	"github.com/ortuman/vysper/xmpp"
	"github.com/ortuman/vysper/xmpp/jid"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v2"
)

func TestConfig(t *testing.T) {
	var cfg Config
	require.Nil(t, yaml.Unmarshal([]byte("send: true\nsend_interval: 30\n"), &cfg))
	require.True(t, cfg.Send)
	require.Equal(t, 30*time.Second, cfg.SendInterval)
	require.Equal(t, 10*time.Second, cfg.Timeout)

	cfg = Config{}
	require.Nil(t, yaml.Unmarshal([]byte("send: true\n"), &cfg))
	require.Equal(t, defaultSendInterval, cfg.SendInterval)

	cfg = Config{}
	require.NotNil(t, yaml.Unmarshal([]byte("send: true\nsend_interval: -1\n"), &cfg))
}

func TestPing_Answer(t *testing.T) {
	srv := jid.MustParse("montague.lit")
	romeo := jid.MustParse("romeo@montague.lit/orchard")
	stm := stream.NewMockC2S("s1", romeo)

	x := New(&Config{})
	defer func() { _ = x.Shutdown(context.Background()) }()

	iq := xmpp.NewIQType("p1", xmpp.GetType, romeo, srv, xmpp.NewElementNamespace("ping", pingNamespace))
	require.True(t, x.MatchesIQ(iq))
	require.False(t, x.MatchesIQ(xmpp.NewIQType("p2", xmpp.GetType, romeo, srv, xmpp.NewElementNamespace("query", "jabber:iq:version"))))

	x.ProcessIQ(context.Background(), iq, stm)
	res := stm.ReceiveElement()
	require.Equal(t, xmpp.ResultType, res.Type())
	require.Equal(t, "p1", res.ID())
	require.Equal(t, 0, res.Elements().Count())

	// set is not allowed
	iq = xmpp.NewIQType("p3", xmpp.SetType, romeo, srv, xmpp.NewElementNamespace("ping", pingNamespace))
	x.ProcessIQ(context.Background(), iq, stm)
	require.Equal(t, xmpp.ErrorType, stm.ReceiveElement().Type())

	// pinging other user account
	iq = xmpp.NewIQType("p4", xmpp.GetType, romeo, jid.MustParse("juliet@capulet.lit"), xmpp.NewElementNamespace("ping", pingNamespace))
	x.ProcessIQ(context.Background(), iq, stm)
	require.NotNil(t, stm.ReceiveElement().Error().Elements().Child("forbidden"))
}

func TestPing_KeepAlive(t *testing.T) {
	romeo := jid.MustParse("romeo@montague.lit/orchard")
	stm := stream.NewMockC2S("s1", romeo)

	x := New(&Config{Send: true, SendInterval: 50 * time.Millisecond, Timeout: 50 * time.Millisecond})
	defer func() { _ = x.Shutdown(context.Background()) }()

	x.SessionBound(context.Background(), stm)

	ping := stm.ReceiveElement()
	require.NotNil(t, ping)
	require.Equal(t, xmpp.GetType, ping.Type())

	// answer first ping
	pong := xmpp.NewIQType(ping.ID(), xmpp.ResultType, romeo, jid.MustParse("montague.lit"), nil)
	require.True(t, x.MatchesIQ(pong))
	x.ProcessIQ(context.Background(), pong, stm)

	// second ping is left unanswered
	require.NotNil(t, stm.ReceiveElement())
	require.NotNil(t, stm.WaitDisconnection())
	require.True(t, stm.IsDisconnected())
}

func TestPing_SessionTerminated(t *testing.T) {
	romeo := jid.MustParse("romeo@montague.lit/orchard")
	stm := stream.NewMockC2S("s1", romeo)

	x := New(&Config{Send: true, SendInterval: 50 * time.Millisecond, Timeout: 50 * time.Millisecond})
	x.SessionBound(context.Background(), stm)
	x.SessionTerminated(context.Background(), stm)

	time.Sleep(100 * time.Millisecond)
	require.Len(t, stm.Elements(), 0)
}
