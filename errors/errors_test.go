// Copyright 2020 The Kvs Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package errors

import (
	"io"
	"testing"

	"kvs.io/kvs"
)

func TestMessageFormat(t *testing.T) {
	// Single error, all fields.
	err := E("store.Remove", NotExist, kvs.Key("banana"))
	want := "key banana: store.Remove: key not found"
	if err.Error() != want {
		t.Errorf("err = %q, want %q", err, want)
	}

	// Underlying plain error on the same line.
	err = E("store.Open", IO, Str("disk on fire"))
	want = "store.Open: I/O error: disk on fire"
	if err.Error() != want {
		t.Errorf("err = %q, want %q", err, want)
	}

	// Nested kvs errors are indented by Separator.
	inner := E("store.Get", Corruption, kvs.Key("k"))
	err = E("server.Serve", inner)
	want = "server.Serve: corrupt store" + Separator + "key k: store.Get"
	if err.Error() != want {
		t.Errorf("err = %q, want %q", err, want)
	}
}

func TestDoesNotChangePreviousError(t *testing.T) {
	err := E(NotExist)
	err2 := E("I will NOT modify err", err)

	expected := "I will NOT modify err: key not found"
	if err2.Error() != expected {
		t.Fatalf("got %q, want %q", err2, expected)
	}
	kind := err.(*Error).Kind
	if kind != NotExist {
		t.Fatalf("got kind %v, want %v", kind, NotExist)
	}
}

func TestKindPulledUp(t *testing.T) {
	// A wrapper without a kind takes the kind of the inner error.
	inner := E("tree.Remove", NotExist, kvs.Key("k"))
	outer := E("client.Remove", inner)
	if !Is(NotExist, outer) {
		t.Fatalf("outer error lost the inner kind: %v", outer)
	}
}

func TestMatch(t *testing.T) {
	key := kvs.Key("k")
	err := Str("network unreachable")

	// Flat matching cases.
	match := []struct{ err1, err2 error }{
		{E(NotExist), E(NotExist, "Get")},
		{E(key), E(key, NotExist, "Get")},
		{E(key, NotExist), E(key, NotExist, "Get")},
		{E("Get"), E("Get", key, NotExist)},
		{E(key, err), E(key, NotExist, "Get", err)},
	}
	for i, tc := range match {
		if !Match(tc.err1, tc.err2) {
			t.Errorf("#%d: Match(%q, %q) = false, want true", i, tc.err1, tc.err2)
		}
	}

	noMatch := []struct{ err1, err2 error }{
		{E(NotExist), E(IO)},
		{E(kvs.Key("other")), E(key, NotExist)},
		{E("Get"), E("Set", key)},
		{E(key, Str("a")), E(key, Str("b"))},
		{Str("plain"), E(key)},
	}
	for i, tc := range noMatch {
		if Match(tc.err1, tc.err2) {
			t.Errorf("#%d: Match(%q, %q) = true, want false", i, tc.err1, tc.err2)
		}
	}

	// Nested templates recur into nested errors.
	nested := E("server.Serve", E(key, NotExist))
	if !Match(E("server.Serve", E(key)), nested) {
		t.Error("nested template failed to match")
	}
}

func TestIs(t *testing.T) {
	if Is(IO, nil) {
		t.Error("Is on nil = true")
	}
	if Is(IO, io.EOF) {
		t.Error("Is on non-Error type = true")
	}
	if !Is(EngineMismatch, E("store.Open", EngineMismatch)) {
		t.Error("Is missed a direct kind")
	}
	if Is(IO, E("store.Open", EngineMismatch)) {
		t.Error("Is matched the wrong kind")
	}
}

func TestBadCall(t *testing.T) {
	err := E(3.14)
	if err == nil {
		t.Fatal("E with a bad argument type returned nil")
	}
}

func TestSeparatorOverride(t *testing.T) {
	defer func(prev string) { Separator = prev }(Separator)
	Separator = ":: "
	inner := E("store.Get", IO)
	err := E("server.Serve", inner)
	want := "server.Serve: I/O error:: store.Get"
	if err.Error() != want {
		t.Errorf("err = %q, want %q", err, want)
	}
}
