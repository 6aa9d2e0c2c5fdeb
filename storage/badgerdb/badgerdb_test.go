/*
 * Copyright (c) 2019 Miguel Ángel Ortuño.
 * See the LICENSE file for more information.
 */

package badgerdb

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/ortuman/vysper/model"
	"github.com/ortuman/vysper/model/rostermodel"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v2"
)

func newTestContainer(t *testing.T) *badgerDBContainer {
	c, err := New(&Config{
		DataDir:        filepath.Join(t.TempDir(), "badger"),
		GCInterval:     time.Hour,
		GCDiscardRatio: defaultGCDiscardRatio,
	})
	require.Nil(t, err)
	t.Cleanup(func() { _ = c.Close(context.Background()) })
	return c.(*badgerDBContainer)
}

func TestConfig(t *testing.T) {
	var cfg Config
	require.Nil(t, yaml.Unmarshal([]byte("{gc_interval: 30}"), &cfg))
	require.Equal(t, defaultDataDir, cfg.DataDir)
	require.Equal(t, 30*time.Second, cfg.GCInterval)
	require.Equal(t, defaultGCDiscardRatio, cfg.GCDiscardRatio)

	require.NotNil(t, yaml.Unmarshal([]byte("{gc_discard_ratio: 1.5}"), &cfg))
}

func TestBadgerDB_User(t *testing.T) {
	c := newTestContainer(t)
	ctx := context.Background()

	usr, err := c.User().FetchUser(ctx, "romeo")
	require.Nil(t, err)
	require.Nil(t, usr)

	require.Nil(t, c.User().UpsertUser(ctx, &model.User{Username: "romeo", Password: []byte("hash")}))

	usr, err = c.User().FetchUser(ctx, "romeo")
	require.Nil(t, err)
	require.Equal(t, "romeo", usr.Username)
	require.Equal(t, []byte("hash"), usr.Password)

	ok, err := c.User().UserExists(ctx, "romeo")
	require.Nil(t, err)
	require.True(t, ok)

	require.Nil(t, c.Roster().UpsertRosterItem(ctx, &rostermodel.Item{Username: "romeo", JID: "juliet@capulet.lit"}))
	require.Nil(t, c.User().DeleteUser(ctx, "romeo"))

	ok, err = c.User().UserExists(ctx, "romeo")
	require.Nil(t, err)
	require.False(t, ok)

	ris, err := c.Roster().FetchRosterItems(ctx, "romeo")
	require.Nil(t, err)
	require.Len(t, ris, 0)
}

func TestBadgerDB_Roster(t *testing.T) {
	c := newTestContainer(t)
	ctx := context.Background()

	ri := rostermodel.Item{
		Username:     "romeo@montague.lit",
		JID:          "juliet@capulet.lit",
		Name:         "Juliet",
		Subscription: rostermodel.SubscriptionFrom,
		Ask:          rostermodel.AskSubscribe,
		Groups:       []string{"Friends", "Capulets"},
	}
	require.Nil(t, c.Roster().UpsertRosterItem(ctx, &ri))
	require.Nil(t, c.Roster().UpsertRosterItem(ctx, &rostermodel.Item{Username: "romeo@montague.lit", JID: "benvolio@montague.lit"}))
	require.Nil(t, c.Roster().UpsertRosterItem(ctx, &rostermodel.Item{Username: "romeo@montague.lit.other", JID: "tybalt@capulet.lit"}))

	ris, err := c.Roster().FetchRosterItems(ctx, "romeo@montague.lit")
	require.Nil(t, err)
	require.Len(t, ris, 2)
	require.Equal(t, "benvolio@montague.lit", ris[0].JID)
	require.Equal(t, ri, ris[1])

	it, err := c.Roster().FetchRosterItem(ctx, "romeo@montague.lit", "juliet@capulet.lit")
	require.Nil(t, err)
	require.Equal(t, &ri, it)

	require.Nil(t, c.Roster().DeleteRosterItem(ctx, "romeo@montague.lit", "juliet@capulet.lit"))
	require.Equal(t, rostermodel.ErrItemNotFound, c.Roster().DeleteRosterItem(ctx, "romeo@montague.lit", "juliet@capulet.lit"))

	it, err = c.Roster().FetchRosterItem(ctx, "romeo@montague.lit", "juliet@capulet.lit")
	require.Nil(t, err)
	require.Nil(t, it)
}
