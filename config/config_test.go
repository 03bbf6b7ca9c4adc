// Copyright 2020 The Kvs Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package config

import (
	"io/ioutil"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"kvs.io/errors"
	"kvs.io/kvs"
)

func write(t *testing.T, content string) (string, func()) {
	t.Helper()
	dir, err := ioutil.TempDir("", "config")
	require.NoError(t, err)
	path := filepath.Join(dir, "kvsserver.yaml")
	require.NoError(t, ioutil.WriteFile(path, []byte(content), 0600))
	return path, func() { os.RemoveAll(dir) }
}

func TestDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	require.Equal(t, kvs.DefaultAddr, cfg.Addr)
	require.Equal(t, "kvs", cfg.Engine)
	require.Equal(t, 50, cfg.CompactAfter)
	require.NoError(t, cfg.Validate())
}

func TestLoad(t *testing.T) {
	path, cleanup := write(t, `
addr: 127.0.0.1:5000
engine: tree
dir: /var/lib/kvs
workers: 2
compactafter: 10
`)
	defer cleanup()

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, "127.0.0.1:5000", cfg.Addr)
	require.Equal(t, "tree", cfg.Engine)
	require.Equal(t, "/var/lib/kvs", cfg.Dir)
	require.Equal(t, 2, cfg.Workers)
	require.Equal(t, 10, cfg.CompactAfter)
	// Untouched values keep their defaults.
	require.Equal(t, 256, cfg.MaxConns)
	require.Equal(t, "info", cfg.Log)
}

func TestUnknownEngine(t *testing.T) {
	path, cleanup := write(t, "engine: sled\n")
	defer cleanup()

	_, err := Load(path)
	require.True(t, errors.Is(errors.Invalid, err), "got %v", err)
}

func TestUnknownField(t *testing.T) {
	path, cleanup := write(t, "replication: 3\n")
	defer cleanup()

	_, err := Load(path)
	require.True(t, errors.Is(errors.Invalid, err), "got %v", err)
}

func TestMissingFile(t *testing.T) {
	_, err := Load("/does/not/exist.yaml")
	require.True(t, errors.Is(errors.Invalid, err), "got %v", err)
}

func TestBadValues(t *testing.T) {
	for _, content := range []string{
		"workers: 0\n",
		"compactafter: -1\n",
		"maxconns: 0\n",
	} {
		path, cleanup := write(t, content)
		_, err := Load(path)
		cleanup()
		require.True(t, errors.Is(errors.Invalid, err), "config %q: got %v", content, err)
	}
}
