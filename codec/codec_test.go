// Copyright 2020 The Kvs Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package codec

import (
	"bytes"
	"encoding/binary"
	"io"
	"strings"
	"testing"
)

func TestTagRoundTrip(t *testing.T) {
	var b bytes.Buffer
	for _, tag := range []uint32{0, 1, 2, 1<<32 - 1} {
		b.Reset()
		if err := WriteTag(&b, tag); err != nil {
			t.Fatal(err)
		}
		got, err := ReadTag(&b)
		if err != nil {
			t.Fatal(err)
		}
		if got != tag {
			t.Errorf("tag %d round-tripped to %d", tag, got)
		}
	}
}

func TestStringRoundTrip(t *testing.T) {
	for _, s := range []string{"", "a", "hello", "日本語", strings.Repeat("x", 4096)} {
		var b bytes.Buffer
		if err := WriteString(&b, s); err != nil {
			t.Fatal(err)
		}
		got, err := ReadString(&b)
		if err != nil {
			t.Fatal(err)
		}
		if got != s {
			t.Errorf("string %q round-tripped to %q", s, got)
		}
	}
}

func TestReadTagCleanEOF(t *testing.T) {
	_, err := ReadTag(bytes.NewReader(nil))
	if err != io.EOF {
		t.Fatalf("ReadTag on empty input = %v, want io.EOF", err)
	}
}

func TestTruncated(t *testing.T) {
	var b bytes.Buffer
	WriteTag(&b, 0)
	WriteString(&b, "hello")
	data := b.Bytes()

	// Every non-empty proper prefix, including those that cut the
	// tag itself short, must report a torn record, not a clean end.
	for i := 1; i < len(data); i++ {
		r := bytes.NewReader(data[:i])
		if _, err := ReadTag(r); err != nil {
			if i >= 4 {
				t.Fatalf("prefix %d: tag unreadable: %v", i, err)
			}
			if err != io.ErrUnexpectedEOF {
				t.Fatalf("prefix %d: ReadTag = %v, want io.ErrUnexpectedEOF", i, err)
			}
			continue
		}
		if _, err := ReadString(r); err != io.ErrUnexpectedEOF {
			t.Fatalf("prefix %d: ReadString = %v, want io.ErrUnexpectedEOF", i, err)
		}
	}
}

func TestOversizedLength(t *testing.T) {
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], MaxStringLen+1)
	_, err := ReadString(bytes.NewReader(buf[:]))
	if err != ErrTooLong {
		t.Fatalf("oversized length = %v, want ErrTooLong", err)
	}
}
