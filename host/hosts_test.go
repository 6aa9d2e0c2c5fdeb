/*
 * Copyright (c) 2018 Miguel Ángel Ortuño.
 * See the LICENSE file for more information.
 */

package host

import (
	"crypto/tls"
	"testing"

	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v2"
)

func useTempCertDir(t *testing.T) {
	prev := selfSignedCertDir
	selfSignedCertDir = t.TempDir()
	t.Cleanup(func() { selfSignedCertDir = prev })
}

func TestHosts_Default(t *testing.T) {
	useTempCertDir(t)

	hs, err := New(nil)
	require.Nil(t, err)
	require.Equal(t, "localhost", hs.DefaultHostName())
	require.True(t, hs.IsLocalHost("localhost"))
	require.False(t, hs.IsLocalHost("montague.lit"))
	require.Len(t, hs.Certificates(), 1)
	require.Len(t, hs.TLSConfig().Certificates, 1)

	// reuses the generated certificate
	_, err = New([]Config{{Name: "localhost"}})
	require.Nil(t, err)
}

func TestHosts_MissingCertificate(t *testing.T) {
	useTempCertDir(t)

	_, err := New([]Config{{Name: "montague.lit"}})
	require.NotNil(t, err)

	_, err = New([]Config{{Name: "montague.lit", TLS: TLSConfig{CertFile: "a.crt", PrivKeyFile: "a.key"}}})
	require.NotNil(t, err)
}

func TestHosts_Register(t *testing.T) {
	hs := &Hosts{hosts: make(map[string]tls.Certificate)}
	hs.RegisterDefaultHost("montague.lit", tls.Certificate{})
	hs.RegisterHost("capulet.lit", tls.Certificate{})

	require.Equal(t, "montague.lit", hs.DefaultHostName())
	require.Equal(t, []string{"capulet.lit", "montague.lit"}, hs.HostNames())
	require.Len(t, hs.Certificates(), 0)
}

func TestConfig(t *testing.T) {
	var cfg Config
	require.NotNil(t, yaml.Unmarshal([]byte(`name montague.lit`), &cfg))
	require.NotNil(t, yaml.Unmarshal([]byte(`tls: {cert_path: a.crt}`), &cfg))

	rawCfg := `
name: montague.lit
tls:
  privkey_path: "server.key"
  cert_path: "server.crt"`
	require.Nil(t, yaml.Unmarshal([]byte(rawCfg), &cfg))
	require.Equal(t, "montague.lit", cfg.Name)
	require.Equal(t, "server.crt", cfg.TLS.CertFile)
}
