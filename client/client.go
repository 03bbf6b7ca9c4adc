// Copyright 2020 The Kvs Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package client implements the remote side of the engine contract:
// each operation dials the server, performs the single framed
// request/response round trip the protocol allows per connection,
// and closes the stream.
package client

import (
	"net"
	"strings"
	"time"

	"kvs.io/errors"
	"kvs.io/kvs"
	"kvs.io/wire"
)

// DialTimeout bounds connection establishment; the per-operation read
// and write timeouts mirror the server's.
var DialTimeout = 30 * time.Second

// Client issues engine operations against a remote server.
type Client struct {
	addr string
}

// New returns a client for the server at addr. No connection is made
// until an operation is invoked.
func New(addr string) *Client {
	return &Client{addr: addr}
}

// Set stores value under key on the remote store.
func (c *Client) Set(key, value string) error {
	const op = "client.Set"
	res, err := c.roundTrip(op, &wire.Request{Kind: wire.ReqSet, Key: key, Value: value})
	if err != nil {
		return err
	}
	if !res.OK {
		return remoteErr(op, key, res.Err)
	}
	return nil
}

// Get returns the value stored under key on the remote store.
// Absence is reported by found == false.
func (c *Client) Get(key string) (value string, found bool, err error) {
	const op = "client.Get"
	conn, err := c.dial(op)
	if err != nil {
		return "", false, err
	}
	defer conn.Close()
	if err := wire.WriteRequest(conn, &wire.Request{Kind: wire.ReqGet, Key: key}); err != nil {
		return "", false, errors.E(op, kvs.Key(key), err)
	}
	res, err := wire.ReadGetResult(conn)
	if err != nil {
		return "", false, errors.E(op, kvs.Key(key), err)
	}
	if !res.OK {
		return "", false, remoteErr(op, key, res.Err)
	}
	return res.Value, res.Found, nil
}

// Remove deletes the entry for key on the remote store. A missing key
// is reported with kind NotExist, recovered from the server's error
// text so callers can treat local and remote engines alike.
func (c *Client) Remove(key string) error {
	const op = "client.Remove"
	res, err := c.roundTrip(op, &wire.Request{Kind: wire.ReqRemove, Key: key})
	if err != nil {
		return err
	}
	if !res.OK {
		return remoteErr(op, key, res.Err)
	}
	return nil
}

// roundTrip performs one set/remove exchange on a fresh connection.
func (c *Client) roundTrip(op string, req *wire.Request) (wire.Result, error) {
	conn, err := c.dial(op)
	if err != nil {
		return wire.Result{}, err
	}
	defer conn.Close()
	if err := wire.WriteRequest(conn, req); err != nil {
		return wire.Result{}, errors.E(op, kvs.Key(req.Key), err)
	}
	res, err := wire.ReadResult(conn)
	if err != nil {
		return wire.Result{}, errors.E(op, kvs.Key(req.Key), err)
	}
	return res, nil
}

func (c *Client) dial(op string) (net.Conn, error) {
	conn, err := net.DialTimeout("tcp", c.addr, DialTimeout)
	if err != nil {
		return nil, errors.E(op, errors.IO, err)
	}
	deadline := time.Now().Add(DialTimeout)
	conn.SetReadDeadline(deadline)
	conn.SetWriteDeadline(deadline)
	return conn, nil
}

// remoteErr turns a server failure message into an error value. The
// server renders a missing key with the taxonomy's "key not found"
// text; that one is translated back to kind NotExist so the command
// line can distinguish it from a genuine failure.
func remoteErr(op, key, msg string) error {
	if strings.Contains(msg, errors.NotExist.String()) {
		return errors.E(op, errors.NotExist, kvs.Key(key))
	}
	return errors.E(op, errors.Remote, errors.Str(msg))
}
