// Copyright 2020 The Kvs Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package tree implements the storage engine contract over an
// embedded B+tree key-value library. It is an adapter: the tree's
// own algorithms are the library's business, this package maps the
// engine operations and error taxonomy onto it.
package tree

import (
	"os"
	"path/filepath"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/boltdb/bolt"

	"kvs.io/errors"
	"kvs.io/kvs"
)

// dataFile is the name of the tree's data file inside the store
// directory. It doubles as the marker the log engine's guard checks.
const dataFile = "tree.db"

// bucket is the single bolt bucket holding all entries.
var bucket = []byte("kvs")

// Tree is the tree-backed engine. Like the log-structured store, a
// *Tree is a shared handle; bolt serializes access internally.
type Tree struct {
	db *bolt.DB
}

var _ kvs.Engine = (*Tree)(nil)

// Open opens the tree store in dir, creating the directory and data
// file if necessary. A directory holding log-engine files is refused
// with kind EngineMismatch.
func Open(dir string) (*Tree, error) {
	const op = "tree.Open"
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, errors.E(op, errors.IO, err)
	}
	owned, err := hasLogFiles(dir)
	if err != nil {
		return nil, errors.E(op, errors.IO, err)
	}
	if owned {
		return nil, errors.E(op, errors.EngineMismatch,
			errors.Errorf("%s holds log engine data", dir))
	}
	db, err := bolt.Open(filepath.Join(dir, dataFile), 0600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, errors.E(op, errors.Backend, err)
	}
	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucket)
		return err
	})
	if err != nil {
		db.Close()
		return nil, errors.E(op, errors.Backend, err)
	}
	return &Tree{db: db}, nil
}

// Set stores value under key.
func (t *Tree) Set(key, value string) error {
	const op = "tree.Set"
	err := t.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucket).Put([]byte(key), []byte(value))
	})
	if err != nil {
		return errors.E(op, errors.Backend, kvs.Key(key), err)
	}
	return nil
}

// Get returns the value stored under key. A stored payload that is
// not valid UTF-8 cannot have come from this adapter and is reported
// as a backend failure.
func (t *Tree) Get(key string) (string, bool, error) {
	const op = "tree.Get"
	var value string
	var found bool
	err := t.db.View(func(tx *bolt.Tx) error {
		v := tx.Bucket(bucket).Get([]byte(key))
		if v == nil {
			return nil
		}
		if !utf8.Valid(v) {
			return errors.Errorf("stored value for %q is not valid UTF-8", key)
		}
		value = string(v) // copies out of the transaction
		found = true
		return nil
	})
	if err != nil {
		return "", false, errors.E(op, errors.Backend, kvs.Key(key), err)
	}
	return value, found, nil
}

// Remove deletes the entry for key. A missing key is reported with
// kind NotExist, not as a generic backend failure.
func (t *Tree) Remove(key string) error {
	const op = "tree.Remove"
	missing := false
	err := t.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucket)
		if b.Get([]byte(key)) == nil {
			missing = true
			return nil
		}
		return b.Delete([]byte(key))
	})
	if err != nil {
		return errors.E(op, errors.Backend, kvs.Key(key), err)
	}
	if missing {
		return errors.E(op, errors.NotExist, kvs.Key(key))
	}
	return nil
}

// Close releases the data file.
func (t *Tree) Close() error {
	if err := t.db.Close(); err != nil {
		return errors.E("tree.Close", errors.Backend, err)
	}
	return nil
}

// hasLogFiles reports whether dir contains any log-engine file: a
// name with a leading run of decimal digits and a .log suffix.
func hasLogFiles(dir string) (bool, error) {
	f, err := os.Open(dir)
	if err != nil {
		return false, err
	}
	defer f.Close()
	infos, err := f.Readdir(-1)
	if err != nil {
		return false, err
	}
	for _, fi := range infos {
		name := fi.Name()
		if fi.IsDir() || !strings.HasSuffix(name, ".log") {
			continue
		}
		if name[0] >= '0' && name[0] <= '9' {
			return true, nil
		}
	}
	return false, nil
}
