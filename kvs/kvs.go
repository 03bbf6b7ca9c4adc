// Copyright 2020 The Kvs Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package kvs defines the types shared by all components of the
// key-value store: the engine contract, the key type used in error
// reporting, and process-wide constants.
package kvs

// Version is the release string reported by the -V flag of the
// server and client binaries.
const Version = "1.0.0"

// DefaultAddr is the address the server binds and the client dials
// when no -addr flag is given.
const DefaultAddr = "127.0.0.1:4000"

// Key is the type of a store key as it appears in error values.
// Engine methods take plain strings; Key exists so the errors package
// can tell a key apart from an operation name.
type Key string

// Engine is the storage engine contract. Both the log-structured
// store and the tree-backed store satisfy it.
//
// Implementations are handles: every Engine value is a pointer to
// state shared by all copies of that value, so handing an Engine to
// another goroutine shares the store rather than duplicating it. All
// synchronization is internal; any number of goroutines may call the
// methods concurrently.
type Engine interface {
	// Set stores value under key, overwriting any existing entry.
	// The record is durably appended before Set returns.
	Set(key, value string) error

	// Get returns the value stored under key. Absence is reported
	// by found == false, not by an error.
	Get(key string) (value string, found bool, err error)

	// Remove deletes the entry for key. If there is no entry the
	// returned error has kind NotExist and carries the key.
	Remove(key string) error

	// Close releases the store. After Close, all handles sharing
	// the same store are invalid.
	Close() error
}
