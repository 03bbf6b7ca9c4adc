// Copyright 2020 The Kvs Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package wire

import (
	"bytes"
	"testing"

	"kvs.io/codec"
	"kvs.io/errors"
)

func TestRequestRoundTrip(t *testing.T) {
	for _, req := range []Request{
		{Kind: ReqSet, Key: "k", Value: "v"},
		{Kind: ReqSet, Key: "", Value: ""},
		{Kind: ReqGet, Key: "some key"},
		{Kind: ReqRemove, Key: "gone"},
	} {
		var b bytes.Buffer
		if err := WriteRequest(&b, &req); err != nil {
			t.Fatal(err)
		}
		got, err := ReadRequest(&b)
		if err != nil {
			t.Fatal(err)
		}
		if got != req {
			t.Errorf("request %+v round-tripped to %+v", req, got)
		}
	}
}

func TestResultRoundTrip(t *testing.T) {
	for _, res := range []Result{
		{OK: true},
		{Err: "key k: store.Remove: key not found"},
	} {
		var b bytes.Buffer
		if err := WriteResult(&b, &res); err != nil {
			t.Fatal(err)
		}
		got, err := ReadResult(&b)
		if err != nil {
			t.Fatal(err)
		}
		if got != res {
			t.Errorf("result %+v round-tripped to %+v", res, got)
		}
	}
}

func TestGetResultRoundTrip(t *testing.T) {
	for _, res := range []GetResult{
		{OK: true, Value: "v", Found: true},
		{OK: true, Value: "", Found: true},
		{OK: true},
		{Err: "disk on fire"},
	} {
		var b bytes.Buffer
		if err := WriteGetResult(&b, &res); err != nil {
			t.Fatal(err)
		}
		got, err := ReadGetResult(&b)
		if err != nil {
			t.Fatal(err)
		}
		if got != res {
			t.Errorf("get result %+v round-tripped to %+v", res, got)
		}
	}
}

func TestOKCarriesNoPayload(t *testing.T) {
	var b bytes.Buffer
	res := Result{OK: true}
	if err := WriteResult(&b, &res); err != nil {
		t.Fatal(err)
	}
	if b.Len() != 4 {
		t.Fatalf("ok result is %d bytes on the wire, want just the 4-byte tag", b.Len())
	}
}

func TestUnknownRequestTag(t *testing.T) {
	var b bytes.Buffer
	codec.WriteTag(&b, 99)
	codec.WriteString(&b, "k")
	_, err := ReadRequest(&b)
	if !errors.Is(errors.Serialization, err) {
		t.Fatalf("unknown tag = %v, want Serialization", err)
	}
}

func TestTruncatedRequest(t *testing.T) {
	var full bytes.Buffer
	if err := WriteRequest(&full, &Request{Kind: ReqSet, Key: "key", Value: "value"}); err != nil {
		t.Fatal(err)
	}
	data := full.Bytes()
	_, err := ReadRequest(bytes.NewReader(data[:len(data)-2]))
	if !errors.Is(errors.IO, err) {
		t.Fatalf("truncated request = %v, want IO", err)
	}
}

func TestResultFrom(t *testing.T) {
	if res := ResultFrom(nil); !res.OK || res.Err != "" {
		t.Errorf("ResultFrom(nil) = %+v", res)
	}
	res := ResultFrom(errors.Str("boom"))
	if res.OK || res.Err != "boom" {
		t.Errorf("ResultFrom(err) = %+v", res)
	}
	g := GetResultFrom("v", true, nil)
	if !g.OK || !g.Found || g.Value != "v" {
		t.Errorf("GetResultFrom = %+v", g)
	}
	g = GetResultFrom("", false, errors.Str("boom"))
	if g.OK || g.Err != "boom" {
		t.Errorf("GetResultFrom(err) = %+v", g)
	}
}
