/*
 * Copyright (c) 2019 Miguel Ángel Ortuño.
 * See the LICENSE file for more information.
 */

package pgsql

import (
	"context"
	"database/sql"

	sq "github.com/Masterminds/squirrel"
	"github.com/ortuman/vysper/model"
)

type pgSQLUser struct {
	db *sql.DB
}

func (u *pgSQLUser) UpsertUser(ctx context.Context, usr *model.User) error {
	q := psql.Insert(usersTableName).
		Columns("username", "password").
		Values(usr.Username, usr.Password).
		Suffix("ON CONFLICT (username) DO UPDATE SET password = $2, updated_at = NOW()")

	_, err := q.RunWith(u.db).ExecContext(ctx)
	return err
}

func (u *pgSQLUser) FetchUser(ctx context.Context, username string) (*model.User, error) {
	q := psql.Select("username", "password", "created_at", "updated_at").
		From(usersTableName).
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

func (u *pgSQLUser) DeleteUser(ctx context.Context, username string) error {
	return inTransaction(ctx, u.db, func(tx *sql.Tx) error {
		_, err := psql.Delete(rosterItemsTableName).Where(sq.Eq{"username": username}).RunWith(tx).ExecContext(ctx)
		if err != nil {
			return err
		}
		_, err = psql.Delete(usersTableName).Where(sq.Eq{"username": username}).RunWith(tx).ExecContext(ctx)
		return err
	})
}

func (u *pgSQLUser) UserExists(ctx context.Context, username string) (bool, error) {
	q := psql.Select("COUNT(*)").
		From(usersTableName).
		Where(sq.Eq{"username": username})

	var count int
	if err := q.RunWith(u.db).QueryRowContext(ctx).Scan(&count); err != nil {
		return false, err
	}
	return count > 0, nil
}

func inTransaction(ctx context.Context, db *sql.DB, f func(tx *sql.Tx) error) error {
	tx, txErr := db.BeginTx(ctx, nil)
	if txErr != nil {
		return txErr
	}
	if err := f(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}
