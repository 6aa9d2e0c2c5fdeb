/*
 * Copyright (c) 2018 Miguel Ángel Ortuño.
 * See the LICENSE file for more information.
 */

package c2s

import (
	"strings"
	"time"

	"github.com/ortuman/vysper/auth"
	"github.com/ortuman/vysper/transport"
	"github.com/pkg/errors"
)

const (
	defaultTransportPort          = 5222
	defaultTransportKeepAlive     = time.Duration(120) * time.Second
	defaultTransportURLPath       = "/xmpp/ws"
	defaultConnectTimeout         = time.Duration(5) * time.Second
	defaultTransportMaxStanzaSize = 32768
)

// TransportConfig represents a C2S listener transport configuration.
type TransportConfig struct {
	Type        transport.Type
	BindAddress string
	Port        int
	URLPath     string
	KeepAlive   time.Duration
}

type transportProxyType struct {
	Type        string `yaml:"type"`
	BindAddress string `yaml:"bind_addr"`
	Port        int    `yaml:"port"`
	URLPath     string `yaml:"url_path"`
	KeepAlive   int    `yaml:"keep_alive"`
}

// UnmarshalYAML satisfies Unmarshaler interface.
func (t *TransportConfig) UnmarshalYAML(unmarshal func(interface{}) error) error {
	p := transportProxyType{}
	if err := unmarshal(&p); err != nil {
		return err
	}
	switch p.Type {
	case "", "socket":
		t.Type = transport.Socket
	case "websocket":
		t.Type = transport.WebSocket
	default:
		return errors.Errorf("c2s.TransportConfig: unrecognized transport type: %s", p.Type)
	}
	t.BindAddress = p.BindAddress
	t.Port = p.Port
	if t.Port == 0 {
		t.Port = defaultTransportPort
	}
	t.URLPath = p.URLPath
	if t.Type == transport.WebSocket && len(t.URLPath) == 0 {
		t.URLPath = defaultTransportURLPath
	}
	t.KeepAlive = time.Duration(p.KeepAlive) * time.Second
	if t.KeepAlive == 0 {
		t.KeepAlive = defaultTransportKeepAlive
	}
	return nil
}

// Config represents a C2S listener configuration.
type Config struct {
	ID               string
	Transport        TransportConfig
	ConnectTimeout   time.Duration
	MaxStanzaSize    int
	SASL             []string
	MaxAuthAttempts  int
	StartTLSRequired bool
}

type configProxy struct {
	ID               string          `yaml:"id"`
	Transport        TransportConfig `yaml:"transport"`
	ConnectTimeout   int             `yaml:"connect_timeout"`
	MaxStanzaSize    int             `yaml:"max_stanza_size"`
	SASL             []string        `yaml:"sasl"`
	MaxAuthAttempts  int             `yaml:"max_auth_attempts"`
	StartTLSRequired bool            `yaml:"starttls_required"`
}

// UnmarshalYAML satisfies Unmarshaler interface.
func (cfg *Config) UnmarshalYAML(unmarshal func(interface{}) error) error {
	p := configProxy{}
	if err := unmarshal(&p); err != nil {
		return err
	}
	if len(p.ID) == 0 {
		return errors.New("c2s.Config: empty listener identifier")
	}
	// validate SASL mechanisms
	for i, mech := range p.SASL {
		mech = strings.ToLower(mech)
		switch mech {
		case "plain", "anonymous", "external":
			p.SASL[i] = mech
		default:
			return errors.Errorf("c2s.Config: unrecognized SASL mechanism: %s", mech)
		}
	}
	if len(p.SASL) == 0 {
		p.SASL = []string{"plain"}
	}
	if p.MaxAuthAttempts < 0 {
		return errors.Errorf("c2s.Config: invalid max_auth_attempts value: %d", p.MaxAuthAttempts)
	}
	cfg.ID = p.ID
	if p.Transport.Type == 0 {
		// transport section omitted
		if err := p.Transport.UnmarshalYAML(func(interface{}) error { return nil }); err != nil {
			return err
		}
	}
	cfg.Transport = p.Transport
	cfg.ConnectTimeout = time.Duration(p.ConnectTimeout) * time.Second
	if cfg.ConnectTimeout == 0 {
		cfg.ConnectTimeout = defaultConnectTimeout
	}
	cfg.MaxStanzaSize = p.MaxStanzaSize
	if cfg.MaxStanzaSize == 0 {
		cfg.MaxStanzaSize = defaultTransportMaxStanzaSize
	}
	cfg.SASL = p.SASL
	cfg.MaxAuthAttempts = p.MaxAuthAttempts
	if cfg.MaxAuthAttempts == 0 {
		cfg.MaxAuthAttempts = auth.DefaultMaxAttempts
	}
	cfg.StartTLSRequired = p.StartTLSRequired
	return nil
}
