/*
 * Copyright (c) 2018 Miguel Ángel Ortuño.
 * See the LICENSE file for more information.
 */

package router

import (
	"strings"
	"testing"

	"github.com/ortuman/vysper/stream"
	"github.com/ortuman/vysper/xmpp/jid"
	"github.com/stretchr/testify/require"
)

func TestResourceRegistry_Bind(t *testing.T) {
	r := NewResourceRegistry()

	stm1 := stream.NewMockC2S("s1", jid.MustParse("romeo@montague.lit"))
	full, err := r.BindWithResource(stm1, "balcony")
	require.Nil(t, err)
	require.Equal(t, "romeo@montague.lit/balcony", full.String())

	// conflicting resource for the same bare JID
	stm2 := stream.NewMockC2S("s2", jid.MustParse("romeo@montague.lit"))
	full2, err := r.BindWithResource(stm2, "balcony")
	require.Nil(t, err)
	require.True(t, strings.HasPrefix(full2.Resource(), "balcony-"))

	// same resource under another bare JID does not conflict
	stm3 := stream.NewMockC2S("s3", jid.MustParse("juliet@capulet.lit"))
	full3, err := r.BindWithResource(stm3, "balcony")
	require.Nil(t, err)
	require.Equal(t, "juliet@capulet.lit/balcony", full3.String())

	generated, err := r.Bind(stm1)
	require.Nil(t, err)
	require.NotEmpty(t, generated.Resource())

	require.Equal(t, 2, r.SessionCount())
	require.Equal(t, 4, r.ResourceCount())
	require.Nil(t, r.UniqueResourceForSession(stm1))
	require.True(t, r.UniqueResourceForSession(stm2).Equal(full2))

	_, err = r.Bind(stream.NewMockC2S("s4", jid.MustParse("montague.lit")))
	require.Equal(t, ErrNotAuthenticated, err)
}

func TestResourceRegistry_Unbind(t *testing.T) {
	r := NewResourceRegistry()
	stm := stream.NewMockC2S("s1", jid.MustParse("romeo@montague.lit"))

	j1, _ := r.BindWithResource(stm, "a")
	j2, _ := r.BindWithResource(stm, "b")

	require.False(t, r.Unbind(j1))
	require.Nil(t, r.Stream(j1))
	require.Equal(t, stm, r.Stream(j2))
	require.True(t, r.Unbind(j2))
	require.Equal(t, 0, r.SessionCount())
	require.False(t, r.Unbind(j2))

	j3, _ := r.BindWithResource(stm, "c")
	unbound := r.UnbindSession(stm)
	require.Len(t, unbound, 1)
	require.True(t, unbound[0].Equal(j3))
	require.Equal(t, 0, r.ResourceCount())
}

func TestResourceRegistry_State(t *testing.T) {
	r := NewResourceRegistry()
	stm := stream.NewMockC2S("s1", jid.MustParse("romeo@montague.lit"))
	full, _ := r.BindWithResource(stm, "orchard")

	st, ok := r.State(full)
	require.True(t, ok)
	require.Equal(t, Connected, st)

	changed, err := r.SetState(full, MakeInterested(st))
	require.Nil(t, err)
	require.True(t, changed)
	changed, _ = r.SetState(full, ConnectedInterested)
	require.False(t, changed)

	require.Len(t, r.InterestedResources(full.ToBareJID()), 1)
	require.Len(t, r.AvailableResources(full.ToBareJID()), 0)

	_, _ = r.SetState(full, MakeAvailable(ConnectedInterested))
	st, _ = r.State(full)
	require.Equal(t, AvailableInterested, st)
	require.Len(t, r.AvailableResources(full.ToBareJID()), 1)

	_, err = r.SetState(jid.MustParse("romeo@montague.lit/none"), Available)
	require.Equal(t, ErrResourceNotFound, err)
}

func TestResourceRegistry_HighestPriority(t *testing.T) {
	r := NewResourceRegistry()
	bare := jid.MustParse("romeo@montague.lit")

	stm1 := stream.NewMockC2S("s1", bare)
	stm2 := stream.NewMockC2S("s2", bare)
	stm3 := stream.NewMockC2S("s3", bare)
	j1, _ := r.BindWithResource(stm1, "a")
	j2, _ := r.BindWithResource(stm2, "b")
	j3, _ := r.BindWithResource(stm3, "c")

	r.SetPriority(j1, 5)
	r.SetPriority(j2, 10)
	r.SetPriority(j3, 10)
	require.Equal(t, 10, r.Priority(j2))

	stms := r.HighestPrioritySessions(bare, 0)
	require.Len(t, stms, 2)
	require.Equal(t, stm2, stms[0])
	require.Equal(t, stm3, stms[1])

	require.Len(t, r.SessionsWithPriority(bare, 6), 2)

	r.SetPriority(j2, -1)
	r.SetPriority(j3, -1)
	r.SetPriority(j1, -1)
	require.Len(t, r.HighestPrioritySessions(bare, 0), 0)

	// full JID ignores threshold
	require.Equal(t, []stream.C2S{stm1}, r.HighestPrioritySessions(j1, 0))
	require.Len(t, r.BoundResources(j1, true), 3)
	require.Len(t, r.BoundResources(j1, false), 1)
}
