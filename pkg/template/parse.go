// Copyright Open Responses Gateway Authors
// SPDX-License-Identifier: Apache-2.0

package template

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"sort"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Parse reads a JSON or YAML document into a template tree, keeping the
// order of object keys. Input starting with '{', '[' or '"' is read as
// JSON; anything else is read as YAML.
func Parse(data []byte) (Node, error) {
	trimmed := bytes.TrimLeft(data, " \t\r\n")
	if len(trimmed) > 0 && (trimmed[0] == '{' || trimmed[0] == '[' || trimmed[0] == '"') {
		n, err := parseJSON(trimmed)
		if err != nil {
			return nil, fmt.Errorf("parse template: %w", err)
		}
		return n, nil
	}

	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse template: %w", err)
	}
	if doc.Kind == 0 {
		return nil, fmt.Errorf("parse template: empty document")
	}
	return FromYAML(&doc)
}

func parseJSON(data []byte) (Node, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	n, err := decodeJSON(dec)
	if err != nil {
		return nil, err
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, errors.New("unexpected data after top-level value")
	}
	return n, nil
}

// decodeJSON reads one value from the token stream. Duplicate object keys
// keep their first position and take the last value.
func decodeJSON(dec *json.Decoder) (Node, error) {
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}

	switch t := tok.(type) {
	case json.Delim:
		switch t {
		case '[':
			out := make(Array, 0)
			for dec.More() {
				item, err := decodeJSON(dec)
				if err != nil {
					return nil, err
				}
				out = append(out, item)
			}
			if _, err := dec.Token(); err != nil {
				return nil, err
			}
			return out, nil
		case '{':
			out := make(Object, 0)
			for dec.More() {
				keyTok, err := dec.Token()
				if err != nil {
					return nil, err
				}
				key, ok := keyTok.(string)
				if !ok {
					return nil, fmt.Errorf("object key %v is not a string", keyTok)
				}
				value, err := decodeJSON(dec)
				if err != nil {
					return nil, err
				}
				out = out.set(key, value)
			}
			if _, err := dec.Token(); err != nil {
				return nil, err
			}
			return out, nil
		}
		return nil, fmt.Errorf("unexpected delimiter %q", t)
	case string:
		return String(t), nil
	case json.Number:
		return Number(t), nil
	case bool:
		return Bool(t), nil
	case nil:
		return Null{}, nil
	default:
		return nil, fmt.Errorf("unexpected token %v", tok)
	}
}

// FromYAML converts a decoded YAML node, such as a template embedded in a
// configuration file.
func FromYAML(n *yaml.Node) (Node, error) {
	switch n.Kind {
	case yaml.DocumentNode:
		if len(n.Content) == 0 {
			return Null{}, nil
		}
		return FromYAML(n.Content[0])
	case yaml.AliasNode:
		return FromYAML(n.Alias)
	case yaml.SequenceNode:
		out := make(Array, 0, len(n.Content))
		for _, c := range n.Content {
			item, err := FromYAML(c)
			if err != nil {
				return nil, err
			}
			out = append(out, item)
		}
		return out, nil
	case yaml.MappingNode:
		out := make(Object, 0, len(n.Content)/2)
		for i := 0; i+1 < len(n.Content); i += 2 {
			value, err := FromYAML(n.Content[i+1])
			if err != nil {
				return nil, err
			}
			out = out.set(n.Content[i].Value, value)
		}
		return out, nil
	case yaml.ScalarNode:
		return scalar(n)
	default:
		return nil, fmt.Errorf("line %d: unsupported yaml node kind %d", n.Line, n.Kind)
	}
}

func scalar(n *yaml.Node) (Node, error) {
	switch n.ShortTag() {
	case "!!null":
		return Null{}, nil
	case "!!bool":
		var b bool
		if err := n.Decode(&b); err != nil {
			return nil, fmt.Errorf("line %d: %w", n.Line, err)
		}
		return Bool(b), nil
	case "!!int":
		var i int64
		if err := n.Decode(&i); err == nil {
			return Number(strconv.FormatInt(i, 10)), nil
		}
		var u uint64
		if err := n.Decode(&u); err == nil {
			return Number(strconv.FormatUint(u, 10)), nil
		}
		return floatScalar(n)
	case "!!float":
		return floatScalar(n)
	default:
		return String(n.Value), nil
	}
}

func floatScalar(n *yaml.Node) (Node, error) {
	var f float64
	if err := n.Decode(&f); err != nil {
		return nil, fmt.Errorf("line %d: %w", n.Line, err)
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return nil, fmt.Errorf("line %d: %s is not representable in JSON", n.Line, n.Value)
	}
	return floatNumber(f), nil
}

// floatNumber formats f the way encoding/json does.
func floatNumber(f float64) Number {
	format := byte('f')
	if abs := math.Abs(f); abs != 0 && (abs < 1e-6 || abs >= 1e21) {
		format = 'e'
	}
	return Number(strconv.FormatFloat(f, format, -1, 64))
}

// FromValue converts a decoded JSON-like Go value. Map keys are sorted since
// Go maps carry no order.
func FromValue(v any) (Node, error) {
	switch x := v.(type) {
	case nil:
		return Null{}, nil
	case Node:
		return x, nil
	case string:
		return String(x), nil
	case bool:
		return Bool(x), nil
	case float64:
		return floatNumber(x), nil
	case float32:
		return floatNumber(float64(x)), nil
	case int:
		return Number(strconv.Itoa(x)), nil
	case int64:
		return Number(strconv.FormatInt(x, 10)), nil
	case json.Number:
		if !json.Valid([]byte(x)) {
			return nil, fmt.Errorf("invalid number %q", x)
		}
		return Number(x), nil
	case []any:
		out := make(Array, 0, len(x))
		for _, item := range x {
			n, err := FromValue(item)
			if err != nil {
				return nil, err
			}
			out = append(out, n)
		}
		return out, nil
	case map[string]any:
		keys := make([]string, 0, len(x))
		for k := range x {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		out := make(Object, 0, len(x))
		for _, k := range keys {
			n, err := FromValue(x[k])
			if err != nil {
				return nil, err
			}
			out = append(out, Field{Key: k, Value: n})
		}
		return out, nil
	default:
		return nil, fmt.Errorf("unsupported template value of type %T", v)
	}
}
