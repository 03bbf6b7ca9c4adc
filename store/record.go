// Copyright 2020 The Kvs Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package store

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"kvs.io/codec"
	"kvs.io/errors"
)

// recordKind tags a log record.
type recordKind uint32

const (
	opSet recordKind = iota
	opRm
)

// record is the unit of logging: a write-or-overwrite intent or a
// removal intent. Records are concatenated in the log without
// separators; the decoder finds the record boundary from the field
// lengths alone.
type record struct {
	kind  recordKind
	key   string
	value string // set only
}

// marshal packs the record into a new byte slice for appending.
func (rec *record) marshal() []byte {
	var b bytes.Buffer
	codec.WriteTag(&b, uint32(rec.kind))
	codec.WriteString(&b, rec.key)
	if rec.kind == opSet {
		codec.WriteString(&b, rec.value)
	}
	return b.Bytes()
}

// readRecord decodes one record from r. At a clean record boundary
// with no further data it returns io.EOF; a record cut short by the
// end of the file returns io.ErrUnexpectedEOF.
func readRecord(r io.Reader) (record, error) {
	var rec record
	tag, err := codec.ReadTag(r)
	if err != nil {
		return rec, err
	}
	switch recordKind(tag) {
	case opSet, opRm:
		rec.kind = recordKind(tag)
	default:
		return rec, errors.Errorf("unknown log record tag %d", tag)
	}
	if rec.key, err = codec.ReadString(r); err != nil {
		return rec, err
	}
	if rec.kind == opSet {
		if rec.value, err = codec.ReadString(r); err != nil {
			return rec, err
		}
	}
	return rec, nil
}

// logName returns the name of log file n within dir.
func logName(dir string, n uint64) string {
	return filepath.Join(dir, strconv.FormatUint(n, 10)+".log")
}

// parseFileNum extracts the log file number from a file name: the
// longest leading run of ASCII decimal digits, parsed as an unsigned
// 64-bit integer. Names with no leading digits or without the .log
// suffix are rejected.
func parseFileNum(name string) (uint64, bool) {
	if !strings.HasSuffix(name, ".log") {
		return 0, false
	}
	i := 0
	for i < len(name) && name[i] >= '0' && name[i] <= '9' {
		i++
	}
	if i == 0 {
		return 0, false
	}
	n, err := strconv.ParseUint(name[:i], 10, 64)
	if err != nil {
		return 0, false
	}
	return n, true
}

// logFileNums returns the numbers of all log files in dir in
// ascending order. Subdirectories and non-matching names are ignored.
func logFileNums(dir string) ([]uint64, error) {
	f, err := os.Open(dir)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	infos, err := f.Readdir(-1)
	if err != nil {
		return nil, err
	}
	var nums []uint64
	for _, fi := range infos {
		if fi.IsDir() {
			continue
		}
		if n, ok := parseFileNum(fi.Name()); ok {
			nums = append(nums, n)
		}
	}
	sort.Slice(nums, func(i, j int) bool { return nums[i] < nums[j] })
	return nums, nil
}
