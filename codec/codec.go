// Copyright 2020 The Kvs Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package codec implements the self-describing binary encoding shared
// by the on-disk log and the wire protocol: fixed-size little-endian
// variant tags and length-prefixed UTF-8 strings. Record and message
// boundaries are determined entirely by the decoded field lengths;
// there are no separators.
package codec

import (
	"encoding/binary"
	"errors"
	"io"
)

// MaxStringLen bounds the length prefix a decoder will accept.
// A larger prefix cannot come from a well-formed writer and is
// treated as corrupt input rather than an allocation request.
const MaxStringLen = 64 << 20 // 64 MiB

// ErrTooLong is returned by ReadString when a length prefix exceeds
// MaxStringLen. Callers use it to tell corrupt input apart from a
// merely truncated stream.
var ErrTooLong = errors.New("length prefix exceeds maximum")

// WriteTag writes a variant tag as a fixed-size unsigned integer.
func WriteTag(w io.Writer, tag uint32) error {
	var buf [4]byte
	binary.LittleEndian.PutUint32(buf[:], tag)
	_, err := w.Write(buf[:])
	return err
}

// ReadTag reads a variant tag written by WriteTag.
// At a clean boundary between records it returns io.EOF;
// a tag cut short by the end of input returns io.ErrUnexpectedEOF.
func ReadTag(r io.Reader) (uint32, error) {
	var buf [4]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(buf[:]), nil
}

// WriteString writes a length-prefixed string: the byte length as an
// unsigned 64-bit little-endian integer followed by the bytes.
func WriteString(w io.Writer, s string) error {
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], uint64(len(s)))
	if _, err := w.Write(buf[:]); err != nil {
		return err
	}
	_, err := io.WriteString(w, s)
	return err
}

// ReadString reads a string written by WriteString.
func ReadString(r io.Reader) (string, error) {
	var buf [8]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		if err == io.EOF {
			err = io.ErrUnexpectedEOF
		}
		return "", err
	}
	n := binary.LittleEndian.Uint64(buf[:])
	if n > MaxStringLen {
		return "", ErrTooLong
	}
	b := make([]byte, n)
	if _, err := io.ReadFull(r, b); err != nil {
		if err == io.EOF {
			err = io.ErrUnexpectedEOF
		}
		return "", err
	}
	return string(b), nil
}

// WriteByte writes a single byte, used for option discriminators.
func WriteByte(w io.Writer, b byte) error {
	_, err := w.Write([]byte{b})
	return err
}

// ReadByte reads a single byte written by WriteByte.
func ReadByte(r io.Reader) (byte, error) {
	var buf [1]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		if err == io.EOF {
			err = io.ErrUnexpectedEOF
		}
		return 0, err
	}
	return buf[0], nil
}
