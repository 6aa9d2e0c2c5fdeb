/*
 * Copyright (c) 2018 Miguel Ángel Ortuño.
 * See the LICENSE file for more information.
 */

package xep0199

import (
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/ortuman/vysper/stream"
	"github.com/ortuman/vysper/xmpp"
	"github.com/ortuman/vysper/xmpp/jid"
	"github.com/stretchr/testify/require"
)

type countingListener struct {
	mu       sync.Mutex
	pongs    int
	timeouts int
	doneCh   chan struct{}
}

func newCountingListener() *countingListener {
	return &countingListener{doneCh: make(chan struct{}, 8)}
}

func (l *countingListener) Pong() {
	l.mu.Lock()
	l.pongs++
	l.mu.Unlock()
	l.doneCh <- struct{}{}
}

func (l *countingListener) Timeout() {
	l.mu.Lock()
	l.timeouts++
	l.mu.Unlock()
	l.doneCh <- struct{}{}
}

func (l *countingListener) counts() (int, int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.pongs, l.timeouts
}

func TestPinger_Pong(t *testing.T) {
	srv := jid.MustParse("montague.lit")
	romeo := jid.MustParse("romeo@montague.lit/orchard")
	stm := stream.NewMockC2S("s1", romeo)

	p := NewPinger()
	l := newCountingListener()
	id, err := p.Ping(stm, srv, romeo, time.Minute, l)
	require.Nil(t, err)
	require.True(t, strings.HasPrefix(id, "xmppping-"))

	elem := stm.ReceiveElement()
	require.Equal(t, id, elem.ID())
	require.Equal(t, xmpp.GetType, elem.Type())
	require.NotNil(t, elem.Elements().ChildNamespace("ping", pingNamespace))

	// requests are not answers
	require.False(t, p.HandleAnswer(xmpp.NewIQType(id, xmpp.GetType, romeo, srv, nil)))

	require.True(t, p.HandleAnswer(xmpp.NewIQType(id, xmpp.ResultType, romeo, srv, nil)))
	require.False(t, p.HandleAnswer(xmpp.NewIQType(id, xmpp.ResultType, romeo, srv, nil)))
	require.False(t, p.IsPending(id))

	pongs, timeouts := l.counts()
	require.Equal(t, 1, pongs)
	require.Equal(t, 0, timeouts)

	id2, _ := p.Ping(stm, srv, romeo, time.Minute, l)
	require.NotEqual(t, id, id2)
}

func TestPinger_Timeout(t *testing.T) {
	srv := jid.MustParse("montague.lit")
	romeo := jid.MustParse("romeo@montague.lit/orchard")
	stm := stream.NewMockC2S("s1", romeo)

	p := NewPinger()
	l := newCountingListener()
	id, err := p.Ping(stm, srv, romeo, 50*time.Millisecond, l)
	require.Nil(t, err)

	select {
	case <-l.doneCh:
	case <-time.After(time.Second):
		require.Fail(t, "ping timeout not fired")
	}
	// late answer is ignored
	require.False(t, p.HandleAnswer(xmpp.NewIQType(id, xmpp.ResultType, romeo, srv, nil)))

	time.Sleep(100 * time.Millisecond)
	pongs, timeouts := l.counts()
	require.Equal(t, 0, pongs)
	require.Equal(t, 1, timeouts)
}

func TestPinger_WriteFailure(t *testing.T) {
	romeo := jid.MustParse("romeo@montague.lit/orchard")
	stm := stream.NewMockC2S("s1", romeo)
	stm.SetWriteError(stream.ErrClosed)

	p := NewPinger()
	_, err := p.Ping(stm, jid.MustParse("montague.lit"), romeo, time.Minute, newCountingListener())
	require.Equal(t, stream.ErrClosed, err)
	require.Len(t, p.pending, 0)
}
