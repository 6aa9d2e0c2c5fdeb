/*
 * Copyright (c) 2018 Miguel Ángel Ortuño.
 * See the LICENSE file for more information.
 */

package repository

import (
	"context"

	"github.com/ortuman/vysper/model/rostermodel"
)

// Roster defines storage operations for user's roster.
type Roster interface {
	// UpsertRosterItem inserts a new roster item entity into storage,
	// or updates it in case it's been previously inserted.
	UpsertRosterItem(ctx context.Context, ri *rostermodel.Item) error

	// DeleteRosterItem deletes a roster item entity from storage.
	// rostermodel.ErrItemNotFound is returned if the item does not exist.
	DeleteRosterItem(ctx context.Context, username, jid string) error

	// FetchRosterItems retrieves from storage all roster item entities
	// associated to a given user.
	FetchRosterItems(ctx context.Context, username string) ([]rostermodel.Item, error)

	// FetchRosterItem retrieves from storage a roster item entity, or nil if not found.
	FetchRosterItem(ctx context.Context, username, jid string) (*rostermodel.Item, error)
}
