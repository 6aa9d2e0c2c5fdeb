/*
 * Copyright (c) 2018 Miguel Ángel Ortuño.
 * See the LICENSE file for more information.
 */

package mysql

import (
	"context"
	"database/sql"
	"encoding/json"

	sq "github.com/Masterminds/squirrel"
	"github.com/ortuman/vysper/model/rostermodel"
)

type mySQLRoster struct {
	*mySQLStorage
}

func (s *mySQLRoster) UpsertRosterItem(ctx context.Context, ri *rostermodel.Item) error {
	groupsBytes, err := json.Marshal(ri.Groups)
	if err != nil {
		return err
	}
	q := sq.Insert("roster_items").
		Columns("username", "jid", "name", "subscription", "ask", "`groups`", "created_at", "updated_at").
		Values(ri.Username, ri.JID, ri.Name, string(ri.Subscription), string(ri.Ask), groupsBytes, nowExpr, nowExpr).
		Suffix("ON DUPLICATE KEY UPDATE name = ?, subscription = ?, ask = ?, `groups` = ?, updated_at = NOW()",
			ri.Name, string(ri.Subscription), string(ri.Ask), groupsBytes)

	_, err = q.RunWith(s.db).ExecContext(ctx)
	return err
}

func (s *mySQLRoster) DeleteRosterItem(ctx context.Context, username, jid string) error {
	res, err := sq.Delete("roster_items").
		Where(sq.And{sq.Eq{"username": username}, sq.Eq{"jid": jid}}).
		RunWith(s.db).ExecContext(ctx)
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

func (s *mySQLRoster) FetchRosterItems(ctx context.Context, username string) ([]rostermodel.Item, error) {
	q := sq.Select("username", "jid", "name", "subscription", "ask", "`groups`").
		From("roster_items").
		Where(sq.Eq{"username": username}).
		OrderBy("created_at")

	rows, err := q.RunWith(s.db).QueryContext(ctx)
	if err != nil {
		return nil, err
	}
	defer closeRows(rows)

	return scanRosterItemEntities(rows)
}

func (s *mySQLRoster) FetchRosterItem(ctx context.Context, username, jid string) (*rostermodel.Item, error) {
	q := sq.Select("username", "jid", "name", "subscription", "ask", "`groups`").
		From("roster_items").
		Where(sq.And{sq.Eq{"username": username}, sq.Eq{"jid": jid}})

	var ri rostermodel.Item
	err := scanRosterItemEntity(&ri, q.RunWith(s.db).QueryRowContext(ctx))
	switch err {
	case nil:
		return &ri, nil
	case sql.ErrNoRows:
		return nil, nil
	default:
		return nil, err
	}
}

func scanRosterItemEntities(scanner rowsScanner) ([]rostermodel.Item, error) {
	var ret []rostermodel.Item
	for scanner.Next() {
		var ri rostermodel.Item
		if err := scanRosterItemEntity(&ri, scanner); err != nil {
			return nil, err
		}
		ret = append(ret, ri)
	}
	return ret, scanner.Err()
}

func scanRosterItemEntity(ri *rostermodel.Item, scanner sq.RowScanner) error {
	var subscription, ask string
	var groups string
	if err := scanner.Scan(&ri.Username, &ri.JID, &ri.Name, &subscription, &ask, &groups); err != nil {
		return err
	}
	ri.Subscription = rostermodel.Subscription(subscription)
	ri.Ask = rostermodel.Ask(ask)
	if len(groups) > 0 {
		if err := json.Unmarshal([]byte(groups), &ri.Groups); err != nil {
			return err
		}
	}
	return nil
}

type rowsScanner interface {
	sq.RowScanner
	Next() bool
	Err() error
}
