/*
 * Copyright (c) 2019 Miguel Ángel Ortuño.
 * See the LICENSE file for more information.
 */

package mysql

import (
	"context"
	"database/sql"

	sq "github.com/Masterminds/squirrel"
	"github.com/ortuman/vysper/model"
)

type mySQLUser struct {
	*mySQLStorage
}

func (u *mySQLUser) UpsertUser(ctx context.Context, usr *model.User) error {
	q := sq.Insert("users").
		Columns("username", "password", "updated_at", "created_at").
		Values(usr.Username, usr.Password, nowExpr, nowExpr).
		Suffix("ON DUPLICATE KEY UPDATE password = ?, updated_at = NOW()", usr.Password)

	_, err := q.RunWith(u.db).ExecContext(ctx)
	return err
}

func (u *mySQLUser) FetchUser(ctx context.Context, username string) (*model.User, error) {
	q := sq.Select("username", "password", "created_at", "updated_at").
		From("users").
		Where(sq.Eq{"username": username})

	var usr model.User
	err := q.RunWith(u.db).
		QueryRowContext(ctx).
		Scan(&usr.Username, &usr.Password, &usr.CreatedAt, &usr.UpdatedAt)
	switch err {
	case nil:
		return &usr, nil
	case sql.ErrNoRows:
		return nil, nil
	default:
		return nil, err
	}
}

func (u *mySQLUser) DeleteUser(ctx context.Context, username string) error {
	return u.inTransaction(ctx, func(tx *sql.Tx) error {
		_, err := sq.Delete("roster_items").Where(sq.Eq{"username": username}).RunWith(tx).ExecContext(ctx)
		if err != nil {
			return err
		}
		_, err = sq.Delete("users").Where(sq.Eq{"username": username}).RunWith(tx).ExecContext(ctx)
		return err
	})
}

func (u *mySQLUser) UserExists(ctx context.Context, username string) (bool, error) {
	q := sq.Select("COUNT(*)").
		From("users").
		Where(sq.Eq{"username": username})

	var count int
	if err := q.RunWith(u.db).QueryRowContext(ctx).Scan(&count); err != nil {
		return false, err
	}
	return count > 0, nil
}
