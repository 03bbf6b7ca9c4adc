// Copyright 2020 The Kvs Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package server implements the TCP front end of the store: an accept
// loop that hands each connection to the worker pool, where exactly
// one request is read, dispatched to the engine, and answered.
package server

import (
	"net"
	"sync"
	"time"

	"golang.org/x/net/netutil"

	"kvs.io/errors"
	"kvs.io/kvs"
	"kvs.io/log"
	"kvs.io/pool"
	"kvs.io/wire"
)

// IOTimeout bounds how long a worker waits on a client for the
// request to arrive or the reply to drain.
var IOTimeout = 30 * time.Second

// MaxConns bounds how many accepted connections may be open at once.
// Beyond it, new connections queue in the listener backlog. It can be
// modified before Serve, such as from server configuration.
var MaxConns = 256

// Server serves engine operations to remote clients.
type Server struct {
	engine kvs.Engine
	pool   *pool.Pool

	mu       sync.Mutex
	listener net.Listener
	closed   bool
}

// New returns a server that answers requests against engine,
// dispatching connections to p.
func New(engine kvs.Engine, p *pool.Pool) *Server {
	return &Server{engine: engine, pool: p}
}

// Serve binds a TCP listener on addr and accepts connections until
// Close is called, handing each accepted stream to the pool. Accept
// failures are logged and the loop continues.
func (s *Server) Serve(addr string) error {
	const op = "server.Serve"
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return errors.E(op, errors.IO, err)
	}
	ln = netutil.LimitListener(ln, MaxConns)

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		ln.Close()
		return errors.E(op, errors.Invalid, errors.Str("server is closed"))
	}
	s.listener = ln
	s.mu.Unlock()

	log.Infof("server: listening on %s", ln.Addr())
	for {
		conn, err := ln.Accept()
		if err != nil {
			if s.closing() {
				return nil
			}
			log.Errorf("server: accept: %v", err)
			continue
		}
		// The engine is a shared handle; copying it into the task
		// is the clone that lets every worker reach the one store.
		engine := s.engine
		s.pool.Spawn(func() {
			serveConn(engine, conn)
		})
	}
}

// Addr returns the bound listener address, or nil before Serve.
func (s *Server) Addr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}

// Close shuts the listener down; Serve then returns nil. In-flight
// connections finish in their workers.
func (s *Server) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	if s.listener == nil {
		return nil
	}
	return s.listener.Close()
}

func (s *Server) closing() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

// serveConn handles one connection: one request, one reply, close.
// Engine failures still produce a framed reply so the client always
// hears back; only transport failures drop the connection.
func serveConn(engine kvs.Engine, conn net.Conn) {
	defer conn.Close()
	deadline := time.Now().Add(IOTimeout)
	if err := conn.SetReadDeadline(deadline); err != nil {
		log.Errorf("server: %s: set read deadline: %v", conn.RemoteAddr(), err)
		return
	}
	if err := conn.SetWriteDeadline(deadline); err != nil {
		log.Errorf("server: %s: set write deadline: %v", conn.RemoteAddr(), err)
		return
	}

	req, err := wire.ReadRequest(conn)
	if err != nil {
		log.Errorf("server: %s: read request: %v", conn.RemoteAddr(), err)
		return
	}
	log.Debugf("server: %s: %s %q", conn.RemoteAddr(), req.Kind, req.Key)

	switch req.Kind {
	case wire.ReqSet:
		res := wire.ResultFrom(engine.Set(req.Key, req.Value))
		err = wire.WriteResult(conn, &res)
	case wire.ReqGet:
		value, found, getErr := engine.Get(req.Key)
		res := wire.GetResultFrom(value, found, getErr)
		err = wire.WriteGetResult(conn, &res)
	case wire.ReqRemove:
		res := wire.ResultFrom(engine.Remove(req.Key))
		err = wire.WriteResult(conn, &res)
	}
	if err != nil {
		log.Errorf("server: %s: write response: %v", conn.RemoteAddr(), err)
	}
}
