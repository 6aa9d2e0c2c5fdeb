/*
 * Copyright (c) 2019 Miguel Ángel Ortuño.
 * See the LICENSE file for more information.
 */

package mysql

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	_ "github.com/go-sql-driver/mysql" // SQL driver
	"github.com/ortuman/vysper/log"
	"github.com/ortuman/vysper/storage/repository"
	"github.com/pkg/errors"
)

var nowExpr = sq.Expr("NOW()")

type mySQLContainer struct {
	user   *mySQLUser
	roster *mySQLRoster

	h      *sql.DB
	doneCh chan chan bool
}

// New initializes MySQL storage and returns associated container.
func New(cfg *Config) (repository.Container, error) {
	dsn := fmt.Sprintf("%s:%s@tcp(%s)/%s?parseTime=true", cfg.User, cfg.Password, cfg.Host, cfg.Database)
	h, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, errors.Wrap(err, "mysql: failed to open connection")
	}
	h.SetMaxOpenConns(cfg.PoolSize) // set max opened connection count

	if err := h.Ping(); err != nil {
		return nil, errors.Wrap(err, "mysql: unable to verify connection")
	}
	log.Infow("dialed MySQL connection", "host", cfg.Host)

	c := newContainer(h)
	go c.loop()
	return c, nil
}

func newContainer(h *sql.DB) *mySQLContainer {
	s := &mySQLStorage{db: h}
	return &mySQLContainer{
		user:   &mySQLUser{mySQLStorage: s},
		roster: &mySQLRoster{mySQLStorage: s},
		h:      h,
		doneCh: make(chan chan bool, 1),
	}
}

func (c *mySQLContainer) User() repository.User     { return c.user }
func (c *mySQLContainer) Roster() repository.Roster { return c.roster }

func (c *mySQLContainer) Close(ctx context.Context) error {
	ch := make(chan bool)
	c.doneCh <- ch
	select {
	case <-ch:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (c *mySQLContainer) loop() {
	tc := time.NewTicker(time.Second * 15)
	defer tc.Stop()

	for {
		select {
		case <-tc.C:
			if err := c.h.Ping(); err != nil {
				log.Error(err)
			}
		case ch := <-c.doneCh:
			if err := c.h.Close(); err != nil {
				log.Error(err)
			}
			close(ch)
			return
		}
	}
}

type mySQLStorage struct {
	db *sql.DB
}

func (s *mySQLStorage) inTransaction(ctx context.Context, f func(tx *sql.Tx) error) error {
	tx, txErr := s.db.BeginTx(ctx, nil)
	if txErr != nil {
		return txErr
	}
	if err := f(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}

func closeRows(rows *sql.Rows) {
	if err := rows.Close(); err != nil {
		log.Warnf("failed to close SQL rows: %v", err)
	}
}
