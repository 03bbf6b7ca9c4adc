// Copyright 2020 The Kvs Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package flags defines command-line flags to make them consistent
// between binaries. Not all flags make sense for all binaries.
package flags

import (
	"flag"

	"kvs.io/kvs"
	"kvs.io/log"
)

// We define the flags as plain variables so clients don't have to
// write *flags.Flag. Parse registers only the named subset, so each
// binary advertises just the flags it honors.

var (
	// Addr is the network address the server listens on and the
	// client dials.
	Addr = kvs.DefaultAddr

	// Engine selects the storage engine: "kvs" or "tree".
	Engine = "kvs"

	// Dir is the directory holding the store's data.
	Dir = "."

	// ConfigFile names an optional YAML configuration file for the
	// server; flags override its values.
	ConfigFile = ""

	// Version requests that the binary print its version and exit.
	Version = false

	// Log sets the level of logging.
	Log logFlag
)

type logFlag string

// String implements flag.Value.
func (l *logFlag) String() string {
	return string(*l)
}

// Set implements flag.Value.
func (l *logFlag) Set(level string) error {
	err := log.SetLevel(level)
	if err != nil {
		return err
	}
	*l = logFlag(log.GetLevel())
	return nil
}

// Get implements flag.Getter.
func (l *logFlag) Get() interface{} {
	return log.GetLevel()
}

var registry = map[string]func(){
	"addr": func() {
		flag.StringVar(&Addr, "addr", Addr, "network `address` (IP:PORT)")
	},
	"engine": func() {
		flag.StringVar(&Engine, "engine", Engine, "storage `engine`: kvs or tree")
	},
	"dir": func() {
		flag.StringVar(&Dir, "dir", Dir, "`directory` holding the store")
	},
	"config": func() {
		flag.StringVar(&ConfigFile, "config", ConfigFile, "server configuration `file`")
	},
	"log": func() {
		Log = logFlag(log.GetLevel())
		flag.Var(&Log, "log", "`level` of logging: debug, info, error, disabled")
	},
	"version": func() {
		flag.BoolVar(&Version, "V", false, "print the version and exit")
	},
}

// Parse registers the named flags and calls flag.Parse. Passing an
// unknown name triggers a panic; it is a programming error.
func Parse(names ...string) {
	for _, name := range names {
		register, ok := registry[name]
		if !ok {
			panic("flags: unknown flag name " + name)
		}
		register()
	}
	flag.Parse()
}
