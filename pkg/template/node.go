// Copyright Open Responses Gateway Authors
// SPDX-License-Identifier: Apache-2.0

// Package template fills {key} placeholders in JSON-like request templates.
//
// A template is a tree of Node values. Only String leaves are substituted;
// arrays and objects are rebuilt element by element and every other leaf is
// passed through unchanged.
package template

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
)

// Node is one value of a template tree. The set of implementations is closed:
// String, Array, Object, Number, Bool and Null.
type Node interface {
	json.Marshaler
	node()
}

// String is a string leaf; it is the only node kind that carries placeholders.
type String string

// Array is an ordered sequence of nodes.
type Array []Node

// Object is an ordered set of fields. Key order is kept so formatted request
// bodies serialize the way they were written.
type Object []Field

// Field is one key/value pair of an Object.
type Field struct {
	Key   string
	Value Node
}

// Number is a numeric leaf holding its JSON literal, so integers wider than
// a float64 mantissa survive a round trip.
type Number string

// Bool is a boolean leaf.
type Bool bool

// Null is the null leaf.
type Null struct{}

func (String) node() {}
func (Array) node()  {}
func (Object) node() {}
func (Number) node() {}
func (Bool) node()   {}
func (Null) node()   {}

// Get returns the value of the first field named key.
func (o Object) Get(key string) (Node, bool) {
	for _, f := range o {
		if f.Key == key {
			return f.Value, true
		}
	}
	return nil, false
}

// set replaces the value of an existing key in place or appends a new field.
func (o Object) set(key string, value Node) Object {
	for i := range o {
		if o[i].Key == key {
			o[i].Value = value
			return o
		}
	}
	return append(o, Field{Key: key, Value: value})
}

// MarshalJSON implements json.Marshaler.
func (s String) MarshalJSON() ([]byte, error) {
	return json.Marshal(string(s))
}

// MarshalJSON implements json.Marshaler.
func (a Array) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('[')
	for i, item := range a {
		if i > 0 {
			buf.WriteByte(',')
		}
		b, err := marshalNode(item)
		if err != nil {
			return nil, err
		}
		buf.Write(b)
	}
	buf.WriteByte(']')
	return buf.Bytes(), nil
}

// MarshalJSON implements json.Marshaler. Fields are written in order.
func (o Object) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, f := range o {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(f.Key)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		b, err := marshalNode(f.Value)
		if err != nil {
			return nil, err
		}
		buf.Write(b)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// MarshalJSON implements json.Marshaler.
func (n Number) MarshalJSON() ([]byte, error) {
	if !json.Valid([]byte(n)) {
		return nil, fmt.Errorf("invalid number literal %q", string(n))
	}
	return []byte(n), nil
}

// MarshalJSON implements json.Marshaler.
func (b Bool) MarshalJSON() ([]byte, error) {
	return []byte(strconv.FormatBool(bool(b))), nil
}

// MarshalJSON implements json.Marshaler.
func (Null) MarshalJSON() ([]byte, error) {
	return []byte("null"), nil
}

func marshalNode(n Node) ([]byte, error) {
	if n == nil {
		return []byte("null"), nil
	}
	return n.MarshalJSON()
}
