// Copyright 2020 The Kvs Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package log provides the leveled logging used by all kvs software.
// Each line carries a UTC microsecond timestamp and a single-letter
// level tag (D, I, E) so server logs from many workers interleave
// legibly. Messages go to stderr by default.
package log

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"
)

// Level classifies the importance of a message.
type Level int

// The levels, in increasing order of importance.
const (
	DebugLevel Level = iota
	InfoLevel
	ErrorLevel
	DisabledLevel
)

func (l Level) String() string {
	switch l {
	case DebugLevel:
		return "debug"
	case InfoLevel:
		return "info"
	case ErrorLevel:
		return "error"
	case DisabledLevel:
		return "disabled"
	}
	return "unknown"
}

// tag is the single-letter marker written before each message.
func (l Level) tag() byte {
	switch l {
	case DebugLevel:
		return 'D'
	case ErrorLevel:
		return 'E'
	}
	return 'I'
}

func parseLevel(name string) (Level, error) {
	for _, l := range []Level{DebugLevel, InfoLevel, ErrorLevel, DisabledLevel} {
		if l.String() == name {
			return l, nil
		}
	}
	return DisabledLevel, fmt.Errorf("invalid log level %q", name)
}

var (
	mu    sync.Mutex // guards level and out
	level = InfoLevel
	out   io.Writer = os.Stderr
)

// SetOutput directs all subsequent messages to w.
// A nil w disables logging entirely.
func SetOutput(w io.Writer) {
	mu.Lock()
	out = w
	mu.Unlock()
}

// SetLevel sets the current level of logging by name: one of
// "debug", "info", "error" or "disabled".
func SetLevel(name string) error {
	l, err := parseLevel(name)
	if err != nil {
		return err
	}
	mu.Lock()
	level = l
	mu.Unlock()
	return nil
}

// GetLevel returns the name of the current logging level.
func GetLevel() string {
	mu.Lock()
	defer mu.Unlock()
	return level.String()
}

// At reports whether messages at the named level would be logged
// currently, so callers can skip building expensive arguments.
func At(name string) bool {
	l, err := parseLevel(name)
	if err != nil {
		return false
	}
	mu.Lock()
	defer mu.Unlock()
	return level <= l
}

// Debugf writes a formatted message at debug level.
func Debugf(format string, v ...interface{}) {
	output(DebugLevel, format, v...)
}

// Infof writes a formatted message at info level.
func Infof(format string, v ...interface{}) {
	output(InfoLevel, format, v...)
}

// Printf is shorthand for Infof, for callers that treat this package
// as a drop-in logger.
func Printf(format string, v ...interface{}) {
	output(InfoLevel, format, v...)
}

// Errorf writes a formatted message at error level.
func Errorf(format string, v ...interface{}) {
	output(ErrorLevel, format, v...)
}

// Fatalf writes a formatted message regardless of the current level
// and aborts the process.
func Fatalf(format string, v ...interface{}) {
	write(ErrorLevel, fmt.Sprintf(format, v...))
	os.Exit(1)
}

// Fatal writes a message regardless of the current level and aborts
// the process.
func Fatal(v ...interface{}) {
	write(ErrorLevel, fmt.Sprint(v...))
	os.Exit(1)
}

func output(l Level, format string, v ...interface{}) {
	mu.Lock()
	enabled := out != nil && l >= level
	mu.Unlock()
	if !enabled {
		return
	}
	write(l, fmt.Sprintf(format, v...))
}

// write emits one formatted line. It serializes concurrent callers so
// lines from different workers never shear.
func write(l Level, msg string) {
	stamp := time.Now().UTC().Format("2006/01/02 15:04:05.000000")
	mu.Lock()
	defer mu.Unlock()
	if out == nil {
		return
	}
	fmt.Fprintf(out, "%s %c %s\n", stamp, l.tag(), msg)
}
