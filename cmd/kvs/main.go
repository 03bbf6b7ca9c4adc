// Copyright 2020 The Kvs Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Kvs is the command-line client for the key-value store server.
//
// Usage:
//
//	kvs [-V] <command> [-addr IP:PORT] [arguments]
//
// The commands are:
//
//	set KEY VALUE   store VALUE under KEY
//	get KEY         print the value stored under KEY
//	rm KEY          remove the entry for KEY
package main

import (
	"flag"
	"fmt"
	"os"

	"kvs.io/client"
	"kvs.io/errors"
	"kvs.io/flags"
	"kvs.io/kvs"
	"kvs.io/version"
)

var commands = map[string]func(*client.Client, []string){
	"set": set,
	"get": get,
	"rm":  rm,
}

func main() {
	flag.Usage = usage
	flags.Parse("version")
	if flags.Version {
		fmt.Printf("kvs version %s\n", version.Version())
		return
	}
	args := flag.Args()
	if len(args) < 1 {
		usage()
		os.Exit(2)
	}
	fn := commands[args[0]]
	if fn == nil {
		fmt.Fprintf(os.Stderr, "kvs: no such command %q\n", args[0])
		usage()
		os.Exit(2)
	}

	fs := flag.NewFlagSet(args[0], flag.ExitOnError)
	addr := fs.String("addr", kvs.DefaultAddr, "server `address` (IP:PORT)")
	fs.Parse(args[1:])

	fn(client.New(*addr), fs.Args())
}

func set(c *client.Client, args []string) {
	if len(args) != 2 {
		fatalf("usage: kvs set [-addr IP:PORT] KEY VALUE")
	}
	if err := c.Set(args[0], args[1]); err != nil {
		fatalf("%s", err)
	}
}

func get(c *client.Client, args []string) {
	if len(args) != 1 {
		fatalf("usage: kvs get [-addr IP:PORT] KEY")
	}
	value, found, err := c.Get(args[0])
	if err != nil {
		fatalf("%s", err)
	}
	if !found {
		fmt.Println("Key not found")
		return
	}
	fmt.Println(value)
}

func rm(c *client.Client, args []string) {
	if len(args) != 1 {
		fatalf("usage: kvs rm [-addr IP:PORT] KEY")
	}
	err := c.Remove(args[0])
	if errors.Is(errors.NotExist, err) {
		fmt.Println("Key not found")
		os.Exit(1)
	}
	if err != nil {
		fatalf("%s", err)
	}
}

func fatalf(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, "kvs: "+format+"\n", args...)
	os.Exit(1)
}

func usage() {
	fmt.Fprintln(os.Stderr, "usage: kvs [-V] <command> [-addr IP:PORT] [arguments]")
	fmt.Fprintln(os.Stderr, "commands: set KEY VALUE | get KEY | rm KEY")
	flag.PrintDefaults()
}
