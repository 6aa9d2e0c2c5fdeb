/*
 * Copyright (c) 2019 Miguel Ángel Ortuño.
 * See the LICENSE file for more information.
 */

package pgsql

import (
	"context"
	"database/sql"

	sq "github.com/Masterminds/squirrel"
	"github.com/lib/pq"
	"github.com/ortuman/vysper/model/rostermodel"
)

var rosterItemColumns = []string{"username", "jid", "name", "subscription", "ask", "groups"}

type pgSQLRoster struct {
	db *sql.DB
}

func (r *pgSQLRoster) UpsertRosterItem(ctx context.Context, ri *rostermodel.Item) error {
	q := psql.Insert(rosterItemsTableName).
		Columns(rosterItemColumns...).
		Values(ri.Username, ri.JID, ri.Name, string(ri.Subscription), string(ri.Ask), pq.Array(ri.Groups)).
		Suffix("ON CONFLICT (username, jid) DO UPDATE SET name = $3, subscription = $4, ask = $5, groups = $6, updated_at = NOW()")

	_, err := q.RunWith(r.db).ExecContext(ctx)
	return err
}

func (r *pgSQLRoster) DeleteRosterItem(ctx context.Context, username, jid string) error {
	res, err := psql.Delete(rosterItemsTableName).
		Where(sq.And{sq.Eq{"username": username}, sq.Eq{"jid": jid}}).
		RunWith(r.db).ExecContext(ctx)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return rostermodel.ErrItemNotFound
	}
	return nil
}

func (r *pgSQLRoster) FetchRosterItems(ctx context.Context, username string) ([]rostermodel.Item, error) {
	q := psql.Select(rosterItemColumns...).
		From(rosterItemsTableName).
		Where(sq.Eq{"username": username}).
		OrderBy("created_at")

	rows, err := q.RunWith(r.db).QueryContext(ctx)
	if err != nil {
		return nil, err
	}
	defer closeRows(rows)

	var ris []rostermodel.Item
	for rows.Next() {
		ri, err := scanRosterItem(rows)
		if err != nil {
			return nil, err
		}
		ris = append(ris, *ri)
	}
	return ris, rows.Err()
}

func (r *pgSQLRoster) FetchRosterItem(ctx context.Context, username, jid string) (*rostermodel.Item, error) {
	q := psql.Select(rosterItemColumns...).
		From(rosterItemsTableName).
		Where(sq.And{sq.Eq{"username": username}, sq.Eq{"jid": jid}})

	ri, err := scanRosterItem(q.RunWith(r.db).QueryRowContext(ctx))
	switch err {
	case nil:
		return ri, nil
	case sql.ErrNoRows:
		return nil, nil
	default:
		return nil, err
	}
}

func scanRosterItem(scanner sq.RowScanner) (*rostermodel.Item, error) {
	var ri rostermodel.Item
	var subscription, ask string
	if err := scanner.Scan(&ri.Username, &ri.JID, &ri.Name, &subscription, &ask, pq.Array(&ri.Groups)); err != nil {
		return nil, err
	}
	ri.Subscription = rostermodel.Subscription(subscription)
	ri.Ask = rostermodel.Ask(ask)
	return &ri, nil
}
