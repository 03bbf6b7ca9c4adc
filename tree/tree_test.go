// Copyright 2020 The Kvs Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package tree

import (
	"io/ioutil"
	"os"
	"path/filepath"
	"testing"

	"github.com/boltdb/bolt"
	"github.com/stretchr/testify/require"

	"kvs.io/errors"
)

func setup(t *testing.T) (string, func()) {
	t.Helper()
	dir, err := ioutil.TempDir("", "tree")
	require.NoError(t, err)
	return dir, func() { os.RemoveAll(dir) }
}

func TestCRUD(t *testing.T) {
	dir, cleanup := setup(t)
	defer cleanup()

	tr, err := Open(dir)
	require.NoError(t, err)
	defer tr.Close()

	items := map[string]string{
		"a":          "1",
		"full/path":  "\x01\x02",
		"öö":         "üü",
		"empty":      "",
		"\x00binary": "ok",
	}
	for k, v := range items {
		require.NoError(t, tr.Set(k, v))
	}
	for k, v := range items {
		got, found, err := tr.Get(k)
		require.NoError(t, err)
		require.True(t, found, "key %q", k)
		require.Equal(t, v, got, "key %q", k)
	}

	_, found, err := tr.Get("missing")
	require.NoError(t, err)
	require.False(t, found)

	require.NoError(t, tr.Remove("a"))
	_, found, err = tr.Get("a")
	require.NoError(t, err)
	require.False(t, found)
}

func TestOverwrite(t *testing.T) {
	dir, cleanup := setup(t)
	defer cleanup()

	tr, err := Open(dir)
	require.NoError(t, err)
	defer tr.Close()

	require.NoError(t, tr.Set("k", "old"))
	require.NoError(t, tr.Set("k", "new"))
	got, found, err := tr.Get("k")
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, "new", got)
}

func TestRemoveMissing(t *testing.T) {
	dir, cleanup := setup(t)
	defer cleanup()

	tr, err := Open(dir)
	require.NoError(t, err)
	defer tr.Close()

	err = tr.Remove("never-set")
	require.True(t, errors.Is(errors.NotExist, err), "got %v", err)
}

func TestReopen(t *testing.T) {
	dir, cleanup := setup(t)
	defer cleanup()

	tr, err := Open(dir)
	require.NoError(t, err)
	require.NoError(t, tr.Set("k", "v"))
	require.NoError(t, tr.Close())

	tr, err = Open(dir)
	require.NoError(t, err)
	defer tr.Close()
	got, found, err := tr.Get("k")
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, "v", got)
}

func TestEngineGuard(t *testing.T) {
	dir, cleanup := setup(t)
	defer cleanup()

	require.NoError(t, ioutil.WriteFile(filepath.Join(dir, "3.log"), []byte("x"), 0600))
	_, err := Open(dir)
	require.True(t, errors.Is(errors.EngineMismatch, err), "got %v", err)
}

func TestNonUTF8Payload(t *testing.T) {
	dir, cleanup := setup(t)
	defer cleanup()

	tr, err := Open(dir)
	require.NoError(t, err)
	require.NoError(t, tr.Close())

	// Sneak an invalid payload in underneath the adapter.
	db, err := bolt.Open(filepath.Join(dir, dataFile), 0600, nil)
	require.NoError(t, err)
	err = db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucket).Put([]byte("bad"), []byte{0xff, 0xfe})
	})
	require.NoError(t, err)
	require.NoError(t, db.Close())

	tr, err = Open(dir)
	require.NoError(t, err)
	defer tr.Close()
	_, _, err = tr.Get("bad")
	require.True(t, errors.Is(errors.Backend, err), "got %v", err)
}
