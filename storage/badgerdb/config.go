/*
 * Copyright (c) 2019 Miguel Ángel Ortuño.
 * See the LICENSE file for more information.
 */

package badgerdb

import (
	"time"

	"github.com/pkg/errors"
)

const (
	defaultDataDir        = "./data"
	defaultGCInterval     = 5 * time.Minute
	defaultGCDiscardRatio = 0.5
)

// Config represents BadgerDB storage configuration.
type Config struct {
	DataDir        string
	GCInterval     time.Duration
	GCDiscardRatio float64
}

type configProxy struct {
	DataDir        string  `yaml:"data_dir"`
	GCInterval     int     `yaml:"gc_interval"`
	GCDiscardRatio float64 `yaml:"gc_discard_ratio"`
}

// UnmarshalYAML satisfies Unmarshaler interface.
func (c *Config) UnmarshalYAML(unmarshal func(interface{}) error) error {
	p := configProxy{}
	if err := unmarshal(&p); err != nil {
		return err
	}
	c.DataDir = p.DataDir
	if len(c.DataDir) == 0 {
		c.DataDir = defaultDataDir
	}
	c.GCInterval = defaultGCInterval
	if p.GCInterval > 0 {
		c.GCInterval = time.Duration(p.GCInterval) * time.Second
	}
	switch {
	case p.GCDiscardRatio == 0:
		c.GCDiscardRatio = defaultGCDiscardRatio
	case p.GCDiscardRatio < 0 || p.GCDiscardRatio >= 1:
		return errors.Errorf("badgerdb.Config: invalid gc discard ratio: %v", p.GCDiscardRatio)
	default:
		c.GCDiscardRatio = p.GCDiscardRatio
	}
	return nil
}
