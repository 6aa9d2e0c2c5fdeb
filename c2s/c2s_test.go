/*
 * Copyright (c) 2018 Miguel Ángel Ortuño.
 * See the LICENSE file for more information.
 */

package c2s

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/ortuman/vysper/auth"
	"github.com/ortuman/vysper/module"
	"github.com/ortuman/vysper/router"
	memorystorage "github.com/ortuman/vysper/storage/memory"
	"github.com/ortuman/vysper/transport"
	"github.com/stretchr/testify/require"
)

func newTestC2S(t *testing.T, configs []Config) (*C2S, error) {
	users := memorystorage.NewUser()
	relay := router.NewRelay(fakeHosts{}, router.NewResourceRegistry(), users)
	return New(configs, fakeHosts{}, auth.NewAccountManager(users), relay, module.New())
}

func TestC2S_New(t *testing.T) {
	_, err := newTestC2S(t, nil)
	require.NotNil(t, err)

	_, err = newTestC2S(t, []Config{{ID: "a"}, {ID: "a"}})
	require.NotNil(t, err)
}

func TestC2S_StartAndShutdown(t *testing.T) {
	c, err := newTestC2S(t, []Config{{
		ID:            "default",
		Transport:     TransportConfig{Type: transport.Socket, BindAddress: "127.0.0.1"},
		MaxStanzaSize: defaultTransportMaxStanzaSize,
		SASL:          []string{"plain"},
	}})
	require.Nil(t, err)
	require.Nil(t, c.Start())

	srv := c.servers["default"]
	conn, err := net.Dial("tcp", srv.ln.Addr().String())
	require.Nil(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	cli := newTestClient(t, conn)
	features := cli.open()
	require.NotNil(t, features.Elements().Child("mechanisms"))
	require.Equal(t, 1, c.StreamCount())

	go func() { _ = c.Shutdown(context.Background()) }()
	cli.requireStreamError("system-shutdown")

	require.Eventually(t, func() bool { return c.StreamCount() == 0 }, 2*time.Second, 10*time.Millisecond)
}
