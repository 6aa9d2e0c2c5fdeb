/*
 * Copyright (c) 2018 Miguel Ángel Ortuño.
 * See the LICENSE file for more information.
 */

package app

import (
	"bytes"
	"testing"
	"time"

	"github.com/ortuman/vysper/log"
	"github.com/ortuman/vysper/module/roster"
	"github.com/ortuman/vysper/module/xep0092"
	"github.com/ortuman/vysper/module/xep0199"
	"github.com/ortuman/vysper/router"
	"github.com/ortuman/vysper/storage"
	"github.com/ortuman/vysper/transport"
	"github.com/stretchr/testify/require"
)

func TestConfig_FromFile(t *testing.T) {
	var cfg Config
	require.Nil(t, cfg.FromFile("testdata/config_basic.yml"))

	require.Equal(t, "test.vysper.pid", cfg.PIDFile)
	require.Equal(t, log.DebugLevel, cfg.Logger.Level)
	require.Equal(t, storage.Memory, cfg.Storage.Type)
	require.Len(t, cfg.Hosts, 1)
	require.Equal(t, "localhost", cfg.Hosts[0].Name)

	require.True(t, cfg.Modules.IsEnabled(roster.ModuleName))
	require.True(t, cfg.Modules.IsEnabled(xep0092.ModuleName))
	require.True(t, cfg.Modules.IsEnabled(xep0199.ModuleName))
	require.True(t, cfg.Modules.Version.ShowOS)

	require.Equal(t, uint32(3), cfg.Router.Breaker.MaxFailures)
	require.Equal(t, 30*time.Second, cfg.Router.Breaker.Timeout)

	require.Len(t, cfg.C2S, 1)
	require.Equal(t, "default", cfg.C2S[0].ID)
	require.Equal(t, transport.Socket, cfg.C2S[0].Transport.Type)
	require.Equal(t, 15222, cfg.C2S[0].Transport.Port)
	require.Equal(t, []string{"plain", "anonymous"}, cfg.C2S[0].SASL)
}

func TestConfig_Defaults(t *testing.T) {
	var cfg Config
	b := bytes.NewBufferString(`
c2s:
  - id: default
`)
	require.Nil(t, cfg.FromBuffer(b))
	require.Equal(t, log.InfoLevel, cfg.Logger.Level)
	require.Equal(t, router.DefaultConfig(), cfg.Router)
	require.True(t, cfg.Modules.IsEnabled(roster.ModuleName))
	require.True(t, cfg.Modules.IsEnabled(xep0199.ModuleName))
	require.False(t, cfg.Modules.IsEnabled(xep0092.ModuleName))
}

func TestConfig_Invalid(t *testing.T) {
	var cfg Config
	require.NotNil(t, cfg.FromBuffer(bytes.NewBufferString(`pid_path: vysper.pid`)))
	require.NotNil(t, cfg.FromBuffer(bytes.NewBufferString("c2s:\n  - id: default\nstorage:\n  type: cassandra\n")))
	require.NotNil(t, cfg.FromBuffer(bytes.NewBufferString("c2s:\n  - id: default\nmodules:\n  enabled: [muc]\n")))
}
