/*
 * Copyright (c) 2019 Miguel Ángel Ortuño.
 * See the LICENSE file for more information.
 */

package pgsql

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	_ "github.com/lib/pq" // PostgreSQL driver
	"github.com/ortuman/vysper/log"
	"github.com/ortuman/vysper/storage/repository"
	"github.com/pkg/errors"
)

const (
	usersTableName       = "users"
	rosterItemsTableName = "roster_items"
)

// psql builds statements with PostgreSQL '$n' placeholders.
var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

type pgSQLContainer struct {
	user   *pgSQLUser
	roster *pgSQLRoster

	h      *sql.DB
	doneCh chan chan bool
}

// New initializes PgSQL storage and returns associated container.
func New(cfg *Config) (repository.Container, error) {
	dsn := fmt.Sprintf("postgres://%s:%s@%s/%s?sslmode=%s", cfg.User, cfg.Password, cfg.Host, cfg.Database, cfg.SSLMode)
	h, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, errors.Wrap(err, "pgsql: failed to open connection")
	}
	h.SetMaxOpenConns(cfg.PoolSize) // set max opened connection count

	if err := h.Ping(); err != nil {
		return nil, errors.Wrap(err, "pgsql: unable to verify connection")
	}
	log.Infow("dialed PgSQL connection", "host", cfg.Host)

	c := newContainer(h)
	go c.loop()
	return c, nil
}

func newContainer(h *sql.DB) *pgSQLContainer {
	return &pgSQLContainer{
		user:   &pgSQLUser{db: h},
		roster: &pgSQLRoster{db: h},
		h:      h,
		doneCh: make(chan chan bool, 1),
	}
}

func (c *pgSQLContainer) User() repository.User     { return c.user }
func (c *pgSQLContainer) Roster() repository.Roster { return c.roster }

func (c *pgSQLContainer) Close(ctx context.Context) error {
	ch := make(chan bool)
	c.doneCh <- ch
	select {
	case <-ch:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (c *pgSQLContainer) loop() {
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

func closeRows(rows *sql.Rows) {
	if err := rows.Close(); err != nil {
		log.Warnf("failed to close SQL rows: %v", err)
	}
}
