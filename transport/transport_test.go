/*
 * Copyright (c) 2018 Miguel Ángel Ortuño.
 * See the LICENSE file for more information.
 */

package transport

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestType_String(t *testing.T) {
	tests := []struct {
		tt   Type
		want string
	}{
		{Socket, "socket"},
		{WebSocket, "websocket"},
		{Type(0), ""},
		{Type(99), ""},
	}
	for _, tc := range tests {
		require.Equal(t, tc.want, tc.tt.String())
	}
}
