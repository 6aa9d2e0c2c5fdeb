/*
 * Copyright (c) 2018 Miguel Ángel Ortuño.
 * See the LICENSE file for more information.
 */

package main

import (
	"bytes"
	"testing"

	"github.com/ortuman/vysper/version"
	"github.com/stretchr/testify/require"
)

func TestVersionCommand(t *testing.T) {
	buf := bytes.NewBuffer(nil)
	rootCmd.SetOut(buf)
	rootCmd.SetArgs([]string{"version"})
	require.Nil(t, rootCmd.Execute())
	require.Equal(t, "vysper version: "+version.ApplicationVersion.String()+"\n", buf.String())
}

func TestServeCommand_MissingConfig(t *testing.T) {
	rootCmd.SetArgs([]string{"serve", "--config", "testdata/not_found.yml"})
	require.NotNil(t, rootCmd.Execute())
}
