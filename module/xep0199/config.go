/*
 * Copyright (c) 2018 Miguel Ángel Ortuño.
 * See the LICENSE file for more information.
 */

package xep0199

import (
	"time"

	"github.com/pkg/errors"
)

const defaultSendInterval = 60 * time.Second

// Config represents XMPP Ping module (XEP-0199) configuration.
type Config struct {
	// Send enables server initiated keepalive pings.
	Send bool

	// SendInterval is the idle period between keepalive pings.
	SendInterval time.Duration

	// Timeout is the period a pinged session has to answer.
	Timeout time.Duration
}

type configProxy struct {
	Send         bool `yaml:"send"`
	SendInterval int  `yaml:"send_interval"`
	Timeout      int  `yaml:"timeout"`
}

// UnmarshalYAML satisfies Unmarshaler interface.
func (c *Config) UnmarshalYAML(unmarshal func(interface{}) error) error {
	p := configProxy{}
	if err := unmarshal(&p); err != nil {
		return err
	}
	c.Send = p.Send
	c.SendInterval = time.Second * time.Duration(p.SendInterval)
	c.Timeout = time.Second * time.Duration(p.Timeout)
	if !c.Send {
		return nil
	}
	if c.SendInterval == 0 {
		c.SendInterval = defaultSendInterval
	}
	if c.SendInterval < time.Second {
		return errors.New("xep0199.Config: send interval must be 1 or higher")
	}
	if c.Timeout == 0 {
		c.Timeout = c.SendInterval / 3
	}
	return nil
}
