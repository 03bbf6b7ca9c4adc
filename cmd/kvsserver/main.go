// Copyright 2020 The Kvs Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Kvsserver is the key-value store server: it opens the requested
// storage engine on a local directory and serves it to remote
// clients over TCP.
package main

import (
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"kvs.io/config"
	"kvs.io/flags"
	"kvs.io/kvs"
	"kvs.io/log"
	"kvs.io/pool"
	"kvs.io/server"
	"kvs.io/store"
	"kvs.io/tree"
	"kvs.io/version"
)

const serverName = "kvsserver"

// gracePeriod bounds how long teardown may take once a shutdown
// signal arrives before the process exits forcefully.
const gracePeriod = time.Minute

func main() {
	flags.Parse("addr", "engine", "dir", "config", "log", "version")
	if flags.Version {
		fmt.Printf("%s version %s\n", serverName, version.Version())
		return
	}

	cfg, err := config.Load(flags.ConfigFile)
	if err != nil {
		log.Fatal(err)
	}
	// Flags given explicitly on the command line win over the file.
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "addr":
			cfg.Addr = flags.Addr
		case "engine":
			cfg.Engine = flags.Engine
		case "dir":
			cfg.Dir = flags.Dir
		case "log":
			cfg.Log = string(flags.Log)
		}
	})
	if err := cfg.Validate(); err != nil {
		log.Fatal(err)
	}
	if err := log.SetLevel(cfg.Log); err != nil {
		log.Fatal(err)
	}
	store.CompactAfter = cfg.CompactAfter
	server.MaxConns = cfg.MaxConns

	var engine kvs.Engine
	switch cfg.Engine {
	case "kvs":
		engine, err = store.Open(cfg.Dir)
	case "tree":
		engine, err = tree.Open(cfg.Dir)
	}
	if err != nil {
		log.Fatal(err)
	}

	workers := pool.New(cfg.Workers)
	srv := server.New(engine, workers)

	// A signal stops the accept loop; Serve then returns and the
	// teardown below runs in order: no new connections, drain the
	// workers, close the store. A stuck teardown or a second signal
	// exits without ceremony.
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
	go func() {
		s := <-sig
		log.Infof("%s: received %v, shutting down", serverName, s)
		srv.Close()
		go func() {
			<-sig
			os.Exit(1)
		}()
		time.AfterFunc(gracePeriod, func() {
			fmt.Fprintf(os.Stderr, "%s: shutdown stalled for %v; exiting forcefully\n", serverName, gracePeriod)
			os.Exit(1)
		})
	}()

	log.Infof("%s %s: engine %s, dir %s", serverName, kvs.Version, cfg.Engine, cfg.Dir)
	serveErr := srv.Serve(cfg.Addr)

	workers.Close()
	if err := engine.Close(); err != nil {
		log.Errorf("%s: closing engine: %v", serverName, err)
	}
	if serveErr != nil {
		log.Fatal(serveErr)
	}
}
