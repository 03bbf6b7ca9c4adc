// Copyright 2020 The Kvs Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package wire defines the request and response messages exchanged
// between client and server and their binary encoding. Messages are
// self-delimiting: a fixed-size variant tag followed by
// length-prefixed fields, with no framing beyond the field lengths.
package wire

import (
	"bufio"
	"io"
	"net"

	"kvs.io/codec"
	"kvs.io/errors"
)

// ReqKind tags a request variant. The values are assigned in
// declaration order and are part of the wire format.
type ReqKind uint32

// Request variants.
const (
	ReqSet ReqKind = iota
	ReqGet
	ReqRemove
)

func (k ReqKind) String() string {
	switch k {
	case ReqSet:
		return "set"
	case ReqGet:
		return "get"
	case ReqRemove:
		return "remove"
	}
	return "invalid"
}

// Response variant tags, shared by all response types.
const (
	tagOK uint32 = iota
	tagErr
)

// Request is one client command. Value is meaningful only for ReqSet.
type Request struct {
	Kind  ReqKind
	Key   string
	Value string
}

// Result is the reply to a set or remove request: success, or a
// failure message rendered by the server.
type Result struct {
	OK  bool
	Err string
}

// GetResult is the reply to a get request. Found distinguishes a
// missing key from an empty value.
type GetResult struct {
	OK    bool
	Value string
	Found bool
	Err   string
}

// ResultFrom renders the outcome of an engine call as a Result.
func ResultFrom(err error) Result {
	if err != nil {
		return Result{Err: err.Error()}
	}
	return Result{OK: true}
}

// GetResultFrom renders the outcome of an engine get as a GetResult.
func GetResultFrom(value string, found bool, err error) GetResult {
	if err != nil {
		return GetResult{Err: err.Error()}
	}
	return GetResult{OK: true, Value: value, Found: found}
}

// WriteRequest encodes req onto w through a buffered writer and
// flushes before returning.
func WriteRequest(w io.Writer, req *Request) error {
	const op = "wire.WriteRequest"
	b := bufio.NewWriter(w)
	codec.WriteTag(b, uint32(req.Kind))
	codec.WriteString(b, req.Key)
	if req.Kind == ReqSet {
		codec.WriteString(b, req.Value)
	}
	if err := b.Flush(); err != nil {
		return errors.E(op, errors.IO, err)
	}
	return nil
}

// ReadRequest decodes exactly one request from r.
func ReadRequest(r io.Reader) (Request, error) {
	const op = "wire.ReadRequest"
	var req Request
	tag, err := codec.ReadTag(r)
	if err != nil {
		return req, errors.E(op, classify(err), err)
	}
	switch ReqKind(tag) {
	case ReqSet, ReqGet, ReqRemove:
		req.Kind = ReqKind(tag)
	default:
		return req, errors.E(op, errors.Serialization,
			errors.Errorf("unknown request tag %d", tag))
	}
	if req.Key, err = codec.ReadString(r); err != nil {
		return req, errors.E(op, classify(err), err)
	}
	if req.Kind == ReqSet {
		if req.Value, err = codec.ReadString(r); err != nil {
			return req, errors.E(op, classify(err), err)
		}
	}
	return req, nil
}

// WriteResult encodes a set/remove reply onto w and flushes.
// The ok variant carries no payload beyond its tag.
func WriteResult(w io.Writer, res *Result) error {
	const op = "wire.WriteResult"
	b := bufio.NewWriter(w)
	if res.OK {
		codec.WriteTag(b, tagOK)
	} else {
		codec.WriteTag(b, tagErr)
		codec.WriteString(b, res.Err)
	}
	if err := b.Flush(); err != nil {
		return errors.E(op, errors.IO, err)
	}
	return nil
}

// ReadResult decodes a set/remove reply from r.
func ReadResult(r io.Reader) (Result, error) {
	const op = "wire.ReadResult"
	var res Result
	tag, err := codec.ReadTag(r)
	if err != nil {
		return res, errors.E(op, classify(err), err)
	}
	switch tag {
	case tagOK:
		res.OK = true
	case tagErr:
		if res.Err, err = codec.ReadString(r); err != nil {
			return res, errors.E(op, classify(err), err)
		}
	default:
		return res, errors.E(op, errors.Serialization,
			errors.Errorf("unknown response tag %d", tag))
	}
	return res, nil
}

// WriteGetResult encodes a get reply onto w and flushes. The value is
// an option: a one-byte discriminator, then the text when present.
func WriteGetResult(w io.Writer, res *GetResult) error {
	const op = "wire.WriteGetResult"
	b := bufio.NewWriter(w)
	if res.OK {
		codec.WriteTag(b, tagOK)
		if res.Found {
			codec.WriteByte(b, 1)
			codec.WriteString(b, res.Value)
		} else {
			codec.WriteByte(b, 0)
		}
	} else {
		codec.WriteTag(b, tagErr)
		codec.WriteString(b, res.Err)
	}
	if err := b.Flush(); err != nil {
		return errors.E(op, errors.IO, err)
	}
	return nil
}

// ReadGetResult decodes a get reply from r.
func ReadGetResult(r io.Reader) (GetResult, error) {
	const op = "wire.ReadGetResult"
	var res GetResult
	tag, err := codec.ReadTag(r)
	if err != nil {
		return res, errors.E(op, classify(err), err)
	}
	switch tag {
	case tagOK:
		res.OK = true
		disc, err := codec.ReadByte(r)
		if err != nil {
			return res, errors.E(op, classify(err), err)
		}
		switch disc {
		case 0:
		case 1:
			if res.Value, err = codec.ReadString(r); err != nil {
				return res, errors.E(op, classify(err), err)
			}
			res.Found = true
		default:
			return res, errors.E(op, errors.Serialization,
				errors.Errorf("bad option discriminator %d", disc))
		}
	case tagErr:
		if res.Err, err = codec.ReadString(r); err != nil {
			return res, errors.E(op, classify(err), err)
		}
	default:
		return res, errors.E(op, errors.Serialization,
			errors.Errorf("unknown response tag %d", tag))
	}
	return res, nil
}

// classify maps a low-level decode failure onto the error taxonomy:
// transport failures (timeouts, resets, truncated streams) are IO;
// anything else means the peer sent bytes we cannot make sense of.
func classify(err error) errors.Kind {
	if err == io.EOF || err == io.ErrUnexpectedEOF {
		return errors.IO
	}
	if _, ok := err.(net.Error); ok {
		return errors.IO
	}
	return errors.Serialization
}
