/*
 * Copyright (c) 2018 Miguel Ángel Ortuño.
 * See the LICENSE file for more information.
 */

package roster

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ortuman/vysper/model"
	"github.com/ortuman/vysper/model/rostermodel"
	"github.com/ortuman/vysper/module/presencehub"
	"github.com/ortuman/vysper/router"
	memorystorage "github.com/ortuman/vysper/storage/memory"
	"github.com/ortuman/vysper/storage/repository"
	"github.com/ortuman/vysper/stream"
	"github.com/ortuman/vysper/xmpp"
	"github.com/ortuman/vysper/xmpp/jid"
	"github.com/stretchr/testify/require"
)

type fakeHosts struct{}

func (fakeHosts) IsLocalHost(host string) bool { return host == "montague.lit" || host == "capulet.lit" }

type fakeOutProvider struct {
	out *stream.MockC2S
}

func (p *fakeOutProvider) Out(_ context.Context, _, _ string) (stream.Writer, error) {
	return p.out, nil
}

// interleavedRoster runs onFetch once, right after the next fetch of an item owned by owner.
type interleavedRoster struct {
	repository.Roster
	owner   string
	armed   int32
	onFetch func()
}

func (r *interleavedRoster) FetchRosterItem(ctx context.Context, username, jid string) (*rostermodel.Item, error) {
	item, err := r.Roster.FetchRosterItem(ctx, username, jid)
	if username == r.owner && atomic.CompareAndSwapInt32(&r.armed, 1, 0) {
		r.onFetch()
	}
	return item, err
}

type testEnv struct {
	r     *Roster
	rep   *memorystorage.Roster
	reg   *router.ResourceRegistry
	relay *router.Relay
	cache *presencehub.Cache
	out   *stream.MockC2S
}

func setupTest(t *testing.T) *testEnv {
	users := memorystorage.NewUser()
	for _, username := range []string{"romeo@montague.lit", "juliet@capulet.lit"} {
		require.Nil(t, users.UpsertUser(context.Background(), &model.User{Username: username}))
	}
	reg := router.NewResourceRegistry()
	relay := router.NewRelay(fakeHosts{}, reg, users)
	out := stream.NewMockC2S("out", jid.MustParse("verona.lit"))
	relay.SetOutProvider(&fakeOutProvider{out: out}, nil)

	rep := memorystorage.NewRoster()
	cache := presencehub.New()
	return &testEnv{r: New(relay, rep, cache), rep: rep, reg: reg, relay: relay, cache: cache, out: out}
}

func (env *testEnv) bind(t *testing.T, id, full string, st router.ResourceState) *stream.MockC2S {
	j := jid.MustParse(full)
	stm := stream.NewMockC2S(id, j)
	bound, err := env.reg.BindWithResource(stm, j.Resource())
	require.Nil(t, err)
	require.True(t, bound.Equal(j))
	_, err = env.reg.SetState(j, st)
	require.Nil(t, err)
	return stm
}

func (env *testEnv) addItem(t *testing.T, owner, contact string, sub rostermodel.Subscription) {
	require.Nil(t, env.rep.UpsertRosterItem(context.Background(), &rostermodel.Item{
		Username:     owner,
		JID:          contact,
		Subscription: sub,
	}))
}

func (env *testEnv) item(t *testing.T, owner, contact string) *rostermodel.Item {
	it, err := env.rep.FetchRosterItem(context.Background(), owner, contact)
	require.Nil(t, err)
	return it
}

func rosterQuery(items ...xmpp.XElement) xmpp.XElement {
	return xmpp.NewElementBuilderNamespace("query", rosterNamespace).AppendElements(items).Build()
}

func filter(elems []xmpp.XElement, name, tp string) []xmpp.XElement {
	var ret []xmpp.XElement
	for _, elem := range elems {
		if elem.Name() == name && elem.Type() == tp {
			ret = append(ret, elem)
		}
	}
	return ret
}

func TestRoster_GetAndSet(t *testing.T) {
	env := setupTest(t)
	ctx := context.Background()
	romeo := jid.MustParse("romeo@montague.lit/orchard")
	stm := env.bind(t, "s1", romeo.String(), router.Connected)

	require.True(t, env.r.MatchesIQ(xmpp.NewIQType("r1", xmpp.GetType, romeo, romeo.ToBareJID(), rosterQuery())))

	env.r.ProcessIQ(ctx, xmpp.NewIQType("r1", xmpp.GetType, romeo, romeo.ToBareJID(), rosterQuery()), stm)
	res := stm.ReceiveElement()
	require.Equal(t, xmpp.ResultType, res.Type())
	require.Equal(t, 0, res.Elements().ChildNamespace("query", rosterNamespace).Elements().Count())

	st, _ := env.reg.State(romeo)
	require.True(t, st.IsInterested())

	item := xmpp.NewElementBuilder("item").
		WithAttribute("jid", "juliet@capulet.lit").
		WithAttribute("name", "Juliet").
		WithAttribute("subscription", "both").
		Build()
	env.r.ProcessIQ(ctx, xmpp.NewIQType("r2", xmpp.SetType, romeo, romeo.ToBareJID(), rosterQuery(item)), stm)

	elems := stm.Elements()
	pushes := filter(elems, xmpp.IQName, xmpp.SetType)
	require.Len(t, pushes, 1)
	require.Equal(t, romeo.String(), pushes[0].To())
	require.Len(t, filter(elems, xmpp.IQName, xmpp.ResultType), 1)

	// subscription attribute is ignored
	it := env.item(t, "romeo@montague.lit", "juliet@capulet.lit")
	require.Equal(t, "Juliet", it.Name)
	require.Equal(t, rostermodel.SubscriptionNone, it.Subscription)

	// remove
	remove := xmpp.NewElementBuilder("item").
		WithAttribute("jid", "juliet@capulet.lit").
		WithAttribute("subscription", "remove").
		Build()
	env.r.ProcessIQ(ctx, xmpp.NewIQType("r3", xmpp.SetType, romeo, romeo.ToBareJID(), rosterQuery(remove)), stm)
	elems = stm.Elements()
	pushes = filter(elems, xmpp.IQName, xmpp.SetType)
	require.Len(t, pushes, 1)
	pushedItem := pushes[0].Elements().ChildNamespace("query", rosterNamespace).Elements().Child("item")
	require.Equal(t, "remove", pushedItem.Attributes().Get("subscription"))
	require.Nil(t, env.item(t, "romeo@montague.lit", "juliet@capulet.lit"))

	// unknown item removal
	env.r.ProcessIQ(ctx, xmpp.NewIQType("r4", xmpp.SetType, romeo, romeo.ToBareJID(), rosterQuery(remove)), stm)
	errIQ := stm.ReceiveElement()
	require.Equal(t, xmpp.ErrorType, errIQ.Type())
	require.NotNil(t, errIQ.Error().Elements().Child("item-not-found"))

	// more than one item
	env.r.ProcessIQ(ctx, xmpp.NewIQType("r5", xmpp.SetType, romeo, romeo.ToBareJID(), rosterQuery(item, item)), stm)
	errIQ = stm.ReceiveElement()
	require.NotNil(t, errIQ.Error().Elements().Child("bad-request"))
}

func TestRoster_PushFanOut(t *testing.T) {
	env := setupTest(t)
	stms := []*stream.MockC2S{
		env.bind(t, "s1", "romeo@montague.lit/r1", router.ConnectedInterested),
		env.bind(t, "s2", "romeo@montague.lit/r2", router.AvailableInterested),
		env.bind(t, "s3", "romeo@montague.lit/r3", router.ConnectedInterested),
	}
	notInterested := env.bind(t, "s4", "romeo@montague.lit/r4", router.Available)

	romeo := jid.MustParse("romeo@montague.lit/r1")
	item := xmpp.NewElementBuilder("item").WithAttribute("jid", "juliet@capulet.lit").Build()
	env.r.ProcessIQ(context.Background(), xmpp.NewIQType("r1", xmpp.SetType, romeo, nil, rosterQuery(item)), stms[0])

	ids := make(map[string]struct{})
	for _, stm := range stms {
		pushes := filter(stm.Elements(), xmpp.IQName, xmpp.SetType)
		require.Len(t, pushes, 1)
		require.True(t, jid.MustParse(pushes[0].To()).IsFull())
		ids[pushes[0].ID()] = struct{}{}
	}
	require.Len(t, ids, 3)
	require.Len(t, notInterested.Elements(), 0)
}

func TestRoster_SubscriptionSymmetry(t *testing.T) {
	env := setupTest(t)
	ctx := context.Background()
	romeo := jid.MustParse("romeo@montague.lit/orchard")
	juliet := jid.MustParse("juliet@capulet.lit/balcony")
	romeoStm := env.bind(t, "s1", romeo.String(), router.ConnectedInterested)
	julietStm := env.bind(t, "s2", juliet.String(), router.ConnectedInterested)

	require.Nil(t, env.r.ProcessPresence(ctx, xmpp.NewPresence(romeo, juliet.ToBareJID(), xmpp.SubscribeType), romeoStm))

	it := env.item(t, "romeo@montague.lit", "juliet@capulet.lit")
	require.Equal(t, rostermodel.SubscriptionNone, it.Subscription)
	require.Equal(t, rostermodel.AskSubscribe, it.Ask)
	require.Len(t, filter(romeoStm.Elements(), xmpp.IQName, xmpp.SetType), 1)

	subscribes := filter(julietStm.Elements(), xmpp.PresenceName, xmpp.SubscribeType)
	require.Len(t, subscribes, 1)
	require.Equal(t, "romeo@montague.lit", subscribes[0].From())

	// juliet approves
	require.Nil(t, env.r.ProcessPresence(ctx, xmpp.NewPresence(juliet, romeo.ToBareJID(), xmpp.SubscribedType), julietStm))

	it = env.item(t, "romeo@montague.lit", "juliet@capulet.lit")
	require.True(t, it.HasTo())
	require.Equal(t, rostermodel.AskNone, it.Ask)

	it = env.item(t, "juliet@capulet.lit", "romeo@montague.lit")
	require.Equal(t, rostermodel.SubscriptionFrom, it.Subscription)
	require.Equal(t, rostermodel.AskNone, it.Ask)

	romeoElems := romeoStm.Elements()
	require.Len(t, filter(romeoElems, xmpp.PresenceName, xmpp.SubscribedType), 1)
	require.Len(t, filter(romeoElems, xmpp.IQName, xmpp.SetType), 1)
	require.Len(t, filter(julietStm.Elements(), xmpp.PresenceName, xmpp.SubscribeType), 0)

	// romeo unsubscribes
	require.Nil(t, env.r.ProcessPresence(ctx, xmpp.NewPresence(romeo, juliet.ToBareJID(), xmpp.UnsubscribeType), romeoStm))
	require.Equal(t, rostermodel.SubscriptionNone, env.item(t, "romeo@montague.lit", "juliet@capulet.lit").Subscription)
	require.Equal(t, rostermodel.SubscriptionNone, env.item(t, "juliet@capulet.lit", "romeo@montague.lit").Subscription)
	require.Len(t, filter(julietStm.Elements(), xmpp.PresenceName, xmpp.UnsubscribeType), 1)
}

func TestRoster_SubscribeToUnknownUser(t *testing.T) {
	env := setupTest(t)
	romeo := jid.MustParse("romeo@montague.lit/orchard")
	stm := env.bind(t, "s1", romeo.String(), router.Connected)

	require.Nil(t, env.r.ProcessPresence(context.Background(), xmpp.NewPresence(romeo, jid.MustParse("mercutio@capulet.lit"), xmpp.SubscribeType), stm))

	replies := filter(stm.Elements(), xmpp.PresenceName, xmpp.UnsubscribedType)
	require.Len(t, replies, 1)
	require.Equal(t, "mercutio@capulet.lit", replies[0].From())
}

func TestRoster_AvailabilityBroadcast(t *testing.T) {
	env := setupTest(t)
	ctx := context.Background()

	env.addItem(t, "romeo@montague.lit", "a@verona.lit", rostermodel.SubscriptionBoth)
	env.addItem(t, "romeo@montague.lit", "b@verona.lit", rostermodel.SubscriptionFrom)
	env.addItem(t, "romeo@montague.lit", "c@verona.lit", rostermodel.SubscriptionTo)
	env.addItem(t, "romeo@montague.lit", "d@verona.lit", rostermodel.SubscriptionNone)

	r1 := jid.MustParse("romeo@montague.lit/r1")
	stm1 := env.bind(t, "s1", r1.String(), router.Connected)
	stm2 := env.bind(t, "s2", "romeo@montague.lit/r2", router.Available)
	stm3 := env.bind(t, "s3", "romeo@montague.lit/r3", router.Connected)

	// initial presence: K + M presences and P probes
	require.Nil(t, env.r.ProcessPresence(ctx, xmpp.NewPresence(r1, r1.ToBareJID(), xmpp.AvailableType), stm1))

	outElems := env.out.Elements()
	require.Len(t, filter(outElems, xmpp.PresenceName, xmpp.AvailableType), 2)
	require.Len(t, filter(outElems, xmpp.PresenceName, xmpp.ProbeType), 2)
	require.Len(t, stm2.Elements(), 1)
	require.Len(t, stm3.Elements(), 0)

	st, _ := env.reg.State(r1)
	require.True(t, st.IsAvailable())
	require.NotNil(t, env.cache.Get(r1))

	// update presence: no probes
	update := xmpp.NewPresence(r1, r1.ToBareJID(), xmpp.AvailableType,
		xmpp.NewElementBuilder("priority").WithText("5").Build())
	require.Nil(t, env.r.ProcessPresence(ctx, update, stm1))

	outElems = env.out.Elements()
	require.Len(t, outElems, 2)
	require.Len(t, filter(outElems, xmpp.PresenceName, xmpp.ProbeType), 0)
	require.Len(t, stm2.Elements(), 1)
	require.Equal(t, 5, env.reg.Priority(r1))

	// unavailable
	require.Nil(t, env.r.ProcessPresence(ctx, xmpp.NewPresence(r1, r1.ToBareJID(), xmpp.UnavailableType), stm1))
	require.Len(t, filter(env.out.Elements(), xmpp.PresenceName, xmpp.UnavailableType), 2)
	require.Nil(t, env.cache.Get(r1))
	st, _ = env.reg.State(r1)
	require.False(t, st.IsAvailable())

	// directed presence
	err := env.r.ProcessPresence(ctx, xmpp.NewPresence(r1, jid.MustParse("a@verona.lit"), xmpp.AvailableType), stm1)
	require.Equal(t, ErrDirectedPresenceUnsupported, err)
}

func TestRoster_ProbePrivacy(t *testing.T) {
	env := setupTest(t)
	ctx := context.Background()
	romeo := jid.MustParse("romeo@montague.lit/orchard")
	juliet := jid.MustParse("juliet@capulet.lit/balcony")
	romeoStm := env.bind(t, "s1", romeo.String(), router.Connected)
	julietStm := env.bind(t, "s2", juliet.String(), router.Connected)

	require.Nil(t, env.r.ProcessPresence(ctx, xmpp.NewPresence(juliet, juliet.ToBareJID(), xmpp.AvailableType), julietStm))

	probe := xmpp.NewPresence(romeo, juliet.ToBareJID(), xmpp.ProbeType)

	// not subscribed
	env.r.sendSubscription(ctx, probe, romeoStm, router.IgnoreFailureStrategy)
	elems := romeoStm.Elements()
	require.Len(t, elems, 1)
	require.Equal(t, xmpp.UnsubscribedType, elems[0].Type())
	require.Equal(t, "juliet@capulet.lit", elems[0].From())

	// subscribed
	env.addItem(t, "juliet@capulet.lit", "romeo@montague.lit", rostermodel.SubscriptionFrom)
	env.r.sendSubscription(ctx, probe, romeoStm, router.IgnoreFailureStrategy)
	elems = romeoStm.Elements()
	require.Len(t, elems, 1)
	require.Equal(t, xmpp.AvailableType, elems[0].Type())
	require.Equal(t, juliet.String(), elems[0].From())
	require.Equal(t, romeo.String(), elems[0].To())

	// subscribed but offline
	require.Nil(t, env.r.ProcessPresence(ctx, xmpp.NewPresence(juliet, juliet.ToBareJID(), xmpp.UnavailableType), julietStm))
	require.Len(t, romeoStm.Elements(), 1) // broadcast to FROM contact

	env.r.sendSubscription(ctx, probe, romeoStm, router.IgnoreFailureStrategy)
	elems = romeoStm.Elements()
	require.Len(t, elems, 1)
	require.Equal(t, xmpp.UnavailableType, elems[0].Type())
}

func TestRoster_ProbeLatestPresence(t *testing.T) {
	env := setupTest(t)
	ctx := context.Background()
	romeo := jid.MustParse("romeo@montague.lit/orchard")
	balcony := jid.MustParse("juliet@capulet.lit/balcony")
	chamber := jid.MustParse("juliet@capulet.lit/chamber")
	romeoStm := env.bind(t, "s1", romeo.String(), router.Connected)
	balconyStm := env.bind(t, "s2", balcony.String(), router.Connected)
	chamberStm := env.bind(t, "s3", chamber.String(), router.Connected)

	env.addItem(t, "juliet@capulet.lit", "romeo@montague.lit", rostermodel.SubscriptionFrom)

	require.Nil(t, env.r.ProcessPresence(ctx, xmpp.NewPresence(balcony, balcony.ToBareJID(), xmpp.AvailableType), balconyStm))
	require.Nil(t, env.r.ProcessPresence(ctx, xmpp.NewPresence(chamber, chamber.ToBareJID(), xmpp.AvailableType), chamberStm))
	_ = romeoStm.Elements()

	env.r.sendSubscription(ctx, xmpp.NewPresence(romeo, balcony.ToBareJID(), xmpp.ProbeType), romeoStm, router.IgnoreFailureStrategy)

	elems := romeoStm.Elements()
	require.Len(t, elems, 1)
	require.Equal(t, xmpp.AvailableType, elems[0].Type())
	require.Equal(t, chamber.String(), elems[0].From())
	require.Equal(t, romeo.String(), elems[0].To())
}

func TestRoster_ClientProbe(t *testing.T) {
	env := setupTest(t)
	ctx := context.Background()
	romeo := jid.MustParse("romeo@montague.lit/orchard")
	juliet := jid.MustParse("juliet@capulet.lit/balcony")
	romeoStm := env.bind(t, "s1", romeo.String(), router.Connected)
	julietStm := env.bind(t, "s2", juliet.String(), router.Connected)

	env.addItem(t, "juliet@capulet.lit", "romeo@montague.lit", rostermodel.SubscriptionFrom)
	require.Nil(t, env.r.ProcessPresence(ctx, xmpp.NewPresence(juliet, juliet.ToBareJID(), xmpp.AvailableType), julietStm))
	_ = romeoStm.Elements()

	require.Nil(t, env.r.ProcessPresence(ctx, xmpp.NewPresence(romeo, juliet.ToBareJID(), xmpp.ProbeType), romeoStm))

	elems := romeoStm.Elements()
	require.Len(t, elems, 1)
	require.Equal(t, xmpp.ErrorType, elems[0].Type())
	require.NotNil(t, elems[0].Error().Elements().Child("bad-request"))
	require.Len(t, julietStm.Elements(), 0)
}

func TestRoster_ConcurrentItemUpdates(t *testing.T) {
	env := setupTest(t)
	ctx := context.Background()
	romeo := jid.MustParse("romeo@montague.lit/orchard")
	juliet := jid.MustParse("juliet@capulet.lit/balcony")
	romeoStm := env.bind(t, "s1", romeo.String(), router.ConnectedInterested)
	julietStm := env.bind(t, "s2", juliet.String(), router.ConnectedInterested)

	// romeo asked, juliet did not answer yet
	require.Nil(t, env.rep.UpsertRosterItem(ctx, &rostermodel.Item{
		Username:     "romeo@montague.lit",
		JID:          "juliet@capulet.lit",
		Subscription: rostermodel.SubscriptionNone,
		Ask:          rostermodel.AskSubscribe,
	}))
	require.Nil(t, env.rep.UpsertRosterItem(ctx, &rostermodel.Item{
		Username:     "juliet@capulet.lit",
		JID:          "romeo@montague.lit",
		Subscription: rostermodel.SubscriptionNone,
		Ask:          rostermodel.AskSubscribed,
	}))
	rep := &interleavedRoster{Roster: env.rep, owner: "romeo@montague.lit"}
	r := New(env.relay, rep, env.cache)

	// juliet approves while romeo renames her
	approvedCh := make(chan error, 1)
	rep.onFetch = func() {
		go func() {
			approvedCh <- r.ProcessPresence(ctx, xmpp.NewPresence(juliet, romeo.ToBareJID(), xmpp.SubscribedType), julietStm)
		}()
		select {
		case err := <-approvedCh:
			approvedCh <- err
		case <-time.After(100 * time.Millisecond):
		}
	}
	atomic.StoreInt32(&rep.armed, 1)

	item := xmpp.NewElementBuilder("item").
		WithAttribute("jid", "juliet@capulet.lit").
		WithAttribute("name", "J").
		Build()
	r.ProcessIQ(ctx, xmpp.NewIQType("r1", xmpp.SetType, romeo, romeo.ToBareJID(), rosterQuery(item)), romeoStm)

	select {
	case err := <-approvedCh:
		require.Nil(t, err)
	case <-time.After(5 * time.Second):
		require.FailNow(t, "subscription approval timed out")
	}
	it := env.item(t, "romeo@montague.lit", "juliet@capulet.lit")
	require.Equal(t, "J", it.Name)
	require.Equal(t, rostermodel.SubscriptionTo, it.Subscription)
	require.Equal(t, rostermodel.AskNone, it.Ask)

	it = env.item(t, "juliet@capulet.lit", "romeo@montague.lit")
	require.Equal(t, rostermodel.SubscriptionFrom, it.Subscription)
	require.Equal(t, rostermodel.AskNone, it.Ask)
}

func TestRoster_MutualSubscriptionRequests(t *testing.T) {
	env := setupTest(t)
	ctx := context.Background()
	romeo := jid.MustParse("romeo@montague.lit/orchard")
	juliet := jid.MustParse("juliet@capulet.lit/balcony")
	romeoStm := env.bind(t, "s1", romeo.String(), router.ConnectedInterested)
	julietStm := env.bind(t, "s2", juliet.String(), router.ConnectedInterested)

	// juliet asks first, romeo asks back before answering
	require.Nil(t, env.r.ProcessPresence(ctx, xmpp.NewPresence(juliet, romeo.ToBareJID(), xmpp.SubscribeType), julietStm))
	require.Nil(t, env.r.ProcessPresence(ctx, xmpp.NewPresence(romeo, juliet.ToBareJID(), xmpp.SubscribeType), romeoStm))

	require.Equal(t, rostermodel.AskBoth, env.item(t, "romeo@montague.lit", "juliet@capulet.lit").Ask)
	require.Equal(t, rostermodel.AskBoth, env.item(t, "juliet@capulet.lit", "romeo@montague.lit").Ask)

	// the inbound request is still delivered on initial presence
	_ = romeoStm.Elements()
	require.Nil(t, env.r.ProcessPresence(ctx, xmpp.NewPresence(romeo, romeo.ToBareJID(), xmpp.AvailableType), romeoStm))
	subscribes := filter(romeoStm.Elements(), xmpp.PresenceName, xmpp.SubscribeType)
	require.Len(t, subscribes, 1)
	require.Equal(t, "juliet@capulet.lit", subscribes[0].From())

	require.Nil(t, env.r.ProcessPresence(ctx, xmpp.NewPresence(romeo, juliet.ToBareJID(), xmpp.SubscribedType), romeoStm))
	require.Nil(t, env.r.ProcessPresence(ctx, xmpp.NewPresence(juliet, romeo.ToBareJID(), xmpp.SubscribedType), julietStm))

	for _, it := range []*rostermodel.Item{
		env.item(t, "romeo@montague.lit", "juliet@capulet.lit"),
		env.item(t, "juliet@capulet.lit", "romeo@montague.lit"),
	} {
		require.Equal(t, rostermodel.SubscriptionBoth, it.Subscription)
		require.Equal(t, rostermodel.AskNone, it.Ask)
	}
}
