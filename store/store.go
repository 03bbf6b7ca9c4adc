// Copyright 2020 The Kvs Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package store implements the log-structured storage engine: an
// append-only log of set and remove records on the local filesystem,
// an in-memory index from key to log position, and online compaction
// that rewrites the live records into a fresh log.
package store

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"kvs.io/codec"
	"kvs.io/errors"
	"kvs.io/kvs"
	"kvs.io/log"
)

// CompactAfter is the number of stale log records a store tolerates
// before it compacts automatically. It can be modified before opening
// a store, such as for testing or from server configuration.
var CompactAfter = 50

// treeMarker is the data file the tree-backed engine keeps in its
// directory. Its presence means the directory is not ours.
const treeMarker = "tree.db"

// Store is the log-structured engine. A *Store is a handle: copies of
// the pointer share one underlying store, guarded by a single
// readers-writer lock, so it can be handed freely to server workers.
type Store struct {
	mu sync.RWMutex // guards all fields below

	dir          string
	active       *os.File // append handle to <monotonic>.log
	index        map[string]logPtr
	stale        int    // superseded index updates since the last compaction
	monotonic    uint64 // number of the active log file
	compactAfter int
	closed       bool
}

var _ kvs.Engine = (*Store)(nil)

// logPtr locates one record in the log.
type logPtr struct {
	file   uint64
	offset uint64
}

// Open opens the store in dir, creating the directory if necessary.
// A populated directory is replayed in log file order to rebuild the
// in-memory index; a directory owned by the tree-backed engine is
// refused with kind EngineMismatch.
func Open(dir string) (*Store, error) {
	const op = "store.Open"
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, errors.E(op, errors.IO, err)
	}
	if _, err := os.Stat(filepath.Join(dir, treeMarker)); err == nil {
		return nil, errors.E(op, errors.EngineMismatch,
			errors.Errorf("%s holds tree engine data", dir))
	}
	nums, err := logFileNums(dir)
	if err != nil {
		return nil, errors.E(op, errors.IO, err)
	}

	s := &Store{
		dir:          dir,
		index:        make(map[string]logPtr),
		monotonic:    1,
		compactAfter: CompactAfter,
	}
	if len(nums) > 0 {
		for _, n := range nums {
			if err := s.replay(n); err != nil {
				return nil, errors.E(op, err)
			}
		}
		s.monotonic = nums[len(nums)-1]
	}
	s.active, err = openAppend(logName(dir, s.monotonic))
	if err != nil {
		return nil, errors.E(op, errors.IO, err)
	}
	return s, nil
}

// replay reads log file n from offset zero and folds its records into
// the index. A record cut short by the end of the file is the residue
// of a crashed writer: replay truncates the file there so the next
// append starts at a record boundary. An oversized length prefix is
// reported as Corruption instead.
func (s *Store) replay(n uint64) error {
	f, err := os.Open(logName(s.dir, n))
	if err != nil {
		return errors.E(errors.IO, err)
	}
	defer f.Close()

	r := &countingReader{r: f}
	for {
		offset := r.n
		rec, err := readRecord(r)
		if err != nil {
			if err == codec.ErrTooLong {
				return errors.E(errors.Corruption,
					errors.Errorf("%d.log at offset %d: %v", n, offset, err))
			}
			if err != io.EOF {
				log.Debugf("store: truncating %d.log at offset %d: %v", n, offset, err)
				if err := os.Truncate(logName(s.dir, n), offset); err != nil {
					return errors.E(errors.IO, err)
				}
			}
			return nil
		}
		switch rec.kind {
		case opSet:
			if _, ok := s.index[rec.key]; ok {
				s.stale++
			}
			s.index[rec.key] = logPtr{file: n, offset: uint64(offset)}
		case opRm:
			delete(s.index, rec.key)
			s.stale++
		}
	}
}

// Set stores value under key, overwriting any existing entry.
func (s *Store) Set(key, value string) error {
	const op = "store.Set"
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return errors.E(op, errors.Invalid, errors.Str("store is closed"))
	}

	offset, err := s.append(&record{kind: opSet, key: key, value: value})
	if err != nil {
		return errors.E(op, kvs.Key(key), err)
	}
	_, displaced := s.index[key]
	s.index[key] = logPtr{file: s.monotonic, offset: uint64(offset)}
	if displaced {
		s.stale++
		if s.stale >= s.compactAfter {
			if err := s.compact(); err != nil {
				return errors.E(op, err)
			}
		}
	}
	return nil
}

// Get returns the value stored under key, reading it back from the
// log position recorded in the index. Absence is not an error.
func (s *Store) Get(key string) (string, bool, error) {
	const op = "store.Get"
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return "", false, errors.E(op, errors.Invalid, errors.Str("store is closed"))
	}

	ptr, ok := s.index[key]
	if !ok {
		return "", false, nil
	}
	value, err := s.valueAt(ptr)
	if err != nil {
		return "", false, errors.E(op, kvs.Key(key), err)
	}
	return value, true, nil
}

// Remove deletes the entry for key. A missing key is reported with
// kind NotExist.
func (s *Store) Remove(key string) error {
	const op = "store.Remove"
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return errors.E(op, errors.Invalid, errors.Str("store is closed"))
	}

	if _, ok := s.index[key]; !ok {
		return errors.E(op, errors.NotExist, kvs.Key(key))
	}
	if _, err := s.append(&record{kind: opRm, key: key}); err != nil {
		return errors.E(op, kvs.Key(key), err)
	}
	delete(s.index, key)
	s.stale++
	if s.stale >= s.compactAfter {
		if err := s.compact(); err != nil {
			return errors.E(op, err)
		}
	}
	return nil
}

// Compact rewrites the live records into a fresh log file and deletes
// the old ones. It is called automatically when enough records have
// gone stale but may also be invoked manually.
func (s *Store) Compact() error {
	const op = "store.Compact"
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return errors.E(op, errors.Invalid, errors.Str("store is closed"))
	}
	if err := s.compact(); err != nil {
		return errors.E(op, err)
	}
	return nil
}

// Close releases the store's file handles. Close is idempotent;
// operations after Close report Invalid.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	err := s.active.Close()
	s.active = nil
	s.index = nil
	if err != nil {
		return errors.E("store.Close", errors.IO, err)
	}
	return nil
}

// append encodes rec and appends it to the active log, returning the
// offset at which the record begins. s.mu must be held exclusively.
func (s *Store) append(rec *record) (int64, error) {
	offset, err := s.active.Seek(0, io.SeekEnd)
	if err != nil {
		return 0, errors.E(errors.IO, err)
	}
	if _, err := s.active.Write(rec.marshal()); err != nil {
		return 0, errors.E(errors.IO, err)
	}
	return offset, nil
}

// valueAt reads the record at ptr through a fresh read-only
// descriptor, so it never disturbs the append handle's offset. The
// record must be a set; finding a remove there means the index and
// the log disagree.
func (s *Store) valueAt(ptr logPtr) (string, error) {
	f, err := os.Open(logName(s.dir, ptr.file))
	if err != nil {
		return "", errors.E(errors.IO, err)
	}
	defer f.Close()
	return valueFrom(f, ptr)
}

// valueFrom reads the set record at ptr from an already-open
// descriptor for ptr's file.
func valueFrom(f *os.File, ptr logPtr) (string, error) {
	if _, err := f.Seek(int64(ptr.offset), io.SeekStart); err != nil {
		return "", errors.E(errors.IO, err)
	}
	rec, err := readRecord(f)
	if err != nil {
		// A length prefix no writer could have produced means the
		// log bytes themselves are bad, not merely cut short.
		if err == codec.ErrTooLong {
			return "", errors.E(errors.Corruption, err)
		}
		return "", errors.E(errors.Serialization, err)
	}
	if rec.kind != opSet {
		return "", errors.E(errors.Corruption,
			errors.Errorf("index points at a remove record in %d.log at offset %d", ptr.file, ptr.offset))
	}
	return rec.value, nil
}

// compact writes every live record into <monotonic+1>.log, repoints
// the index, and deletes all older log files. s.mu must be held
// exclusively.
//
// A crash partway through leaves both the old and new files on disk;
// Open handles that by replaying files in ascending order, where the
// new file's records supersede the old ones.
func (s *Store) compact() error {
	next := s.monotonic + 1
	newLog, err := openAppend(logName(s.dir, next))
	if err != nil {
		return errors.E(errors.IO, err)
	}

	// Keep one read descriptor per source file for the sweep.
	readers := make(map[uint64]*os.File)
	closeAll := func() {
		newLog.Close()
		for _, f := range readers {
			f.Close()
		}
	}
	for key, ptr := range s.index {
		f := readers[ptr.file]
		if f == nil {
			f, err = os.Open(logName(s.dir, ptr.file))
			if err != nil {
				closeAll()
				return errors.E(errors.IO, err)
			}
			readers[ptr.file] = f
		}
		value, err := valueFrom(f, ptr)
		if err != nil {
			closeAll()
			return err
		}
		offset, err := newLog.Seek(0, io.SeekEnd)
		if err != nil {
			closeAll()
			return errors.E(errors.IO, err)
		}
		rec := record{kind: opSet, key: key, value: value}
		if _, err := newLog.Write(rec.marshal()); err != nil {
			closeAll()
			return errors.E(errors.IO, err)
		}
		s.index[key] = logPtr{file: next, offset: uint64(offset)}
	}
	for n, f := range readers {
		f.Close()
		delete(readers, n)
	}

	// Drop every log file the new one supersedes. After a recovered
	// crash there can be more than one.
	nums, err := logFileNums(s.dir)
	if err != nil {
		newLog.Close()
		return errors.E(errors.IO, err)
	}
	for _, n := range nums {
		if n >= next {
			continue
		}
		if err := os.Remove(logName(s.dir, n)); err != nil {
			newLog.Close()
			return errors.E(errors.IO, err)
		}
	}

	s.active.Close()
	s.active = newLog
	s.monotonic = next
	log.Debugf("store: compacted %d stale records into %d.log (%d live keys)", s.stale, next, len(s.index))
	s.stale = 0
	return nil
}

// openAppend opens name for appending, creating it if necessary.
func openAppend(name string) (*os.File, error) {
	return os.OpenFile(name, os.O_APPEND|os.O_WRONLY|os.O_CREATE, 0600)
}

// countingReader tracks how many bytes have been consumed, giving the
// replay loop the offset at which each record begins.
type countingReader struct {
	r io.Reader
	n int64
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.n += int64(n)
	return n, err
}

// Dir returns the directory the store was opened on.
func (s *Store) Dir() string {
	return s.dir
}

// String implements fmt.Stringer for diagnostics.
func (s *Store) String() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return fmt.Sprintf("store(%s, %d keys, log %d)", s.dir, len(s.index), s.monotonic)
}
