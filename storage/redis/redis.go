/*
 * Copyright (c) 2019 Miguel Ángel Ortuño.
 * See the LICENSE file for more information.
 */

package redisstorage

import (
	"context"
	"encoding/json"
	"sort"

	"github.com/go-redis/redis/v8"
	"github.com/ortuman/vysper/log"
	"github.com/ortuman/vysper/model"
	"github.com/ortuman/vysper/model/rostermodel"
	"github.com/ortuman/vysper/storage/repository"
	"github.com/pkg/errors"
)

type redisContainer struct {
	user   *redisUser
	roster *redisRoster
	db     *redis.Client
}

// New connects to the configured Redis service and returns associated container.
func New(cfg *Config) (repository.Container, error) {
	db := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Username: cfg.Username,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := db.Ping(context.Background()).Err(); err != nil {
		return nil, errors.Wrap(err, "redis: failed to ping service")
	}
	log.Infow("connected to Redis service", "addr", cfg.Addr, "db", cfg.DB)
	return newContainer(db, cfg.Prefix), nil
}

func newContainer(db *redis.Client, prefix string) *redisContainer {
	s := &redisStorage{db: db, prefix: prefix}
	return &redisContainer{
		user:   &redisUser{redisStorage: s},
		roster: &redisRoster{redisStorage: s},
		db:     db,
	}
}

func (c *redisContainer) User() repository.User     { return c.user }
func (c *redisContainer) Roster() repository.Roster { return c.roster }

func (c *redisContainer) Close(_ context.Context) error { return c.db.Close() }

type redisStorage struct {
	db     *redis.Client
	prefix string
}

func (s *redisStorage) usersKey() string {
	return s.prefix + "users"
}

func (s *redisStorage) rosterKey(username string) string {
	return s.prefix + "roster:" + username
}

type redisUser struct {
	*redisStorage
}

func (u *redisUser) UpsertUser(ctx context.Context, usr *model.User) error {
	b, err := json.Marshal(usr)
	if err != nil {
		return err
	}
	return u.db.HSet(ctx, u.usersKey(), usr.Username, b).Err()
}

func (u *redisUser) DeleteUser(ctx context.Context, username string) error {
	_, err := u.db.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.Del(ctx, u.rosterKey(username))
		p.HDel(ctx, u.usersKey(), username)
		return nil
	})
	return err
}

func (u *redisUser) FetchUser(ctx context.Context, username string) (*model.User, error) {
	b, err := u.db.HGet(ctx, u.usersKey(), username).Bytes()
	switch {
	case err == nil:
		break
	case errors.Is(err, redis.Nil):
		return nil, nil
	default:
		return nil, err
	}
	var usr model.User
	if err := json.Unmarshal(b, &usr); err != nil {
		return nil, err
	}
	return &usr, nil
}

func (u *redisUser) UserExists(ctx context.Context, username string) (bool, error) {
	return u.db.HExists(ctx, u.usersKey(), username).Result()
}

type redisRoster struct {
	*redisStorage
}

func (r *redisRoster) UpsertRosterItem(ctx context.Context, ri *rostermodel.Item) error {
	b, err := json.Marshal(ri)
	if err != nil {
		return err
	}
	return r.db.HSet(ctx, r.rosterKey(ri.Username), ri.JID, b).Err()
}

func (r *redisRoster) DeleteRosterItem(ctx context.Context, username, jid string) error {
	n, err := r.db.HDel(ctx, r.rosterKey(username), jid).Result()
	if err != nil {
		return err
	}
	if n == 0 {
		return rostermodel.ErrItemNotFound
	}
	return nil
}

// FetchRosterItems returns user roster items sorted by contact JID.
func (r *redisRoster) FetchRosterItems(ctx context.Context, username string) ([]rostermodel.Item, error) {
	rows, err := r.db.HGetAll(ctx, r.rosterKey(username)).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return nil, err
	}
	ris := make([]rostermodel.Item, 0, len(rows))
	for _, row := range rows {
		var ri rostermodel.Item
		if err := json.Unmarshal([]byte(row), &ri); err != nil {
			return nil, err
		}
		ris = append(ris, ri)
	}
	sort.Slice(ris, func(i, j int) bool { return ris[i].JID < ris[j].JID })
	return ris, nil
}

func (r *redisRoster) FetchRosterItem(ctx context.Context, username, jid string) (*rostermodel.Item, error) {
	b, err := r.db.HGet(ctx, r.rosterKey(username), jid).Bytes()
	switch {
	case err == nil:
		break
	case errors.Is(err, redis.Nil):
		return nil, nil
	default:
		return nil, err
	}
	var ri rostermodel.Item
	if err := json.Unmarshal(b, &ri); err != nil {
		return nil, err
	}
	return &ri, nil
}
