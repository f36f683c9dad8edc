package workflow

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

var ErrMalformedDefinition = errors.New("malformed workflow definition")

// Flatten walks root in pre-order and returns every node once. Nesting is
// discarded: the returned nodes carry no children and only their order
// remains.
func Flatten(root Node) []Node {
	var out []Node
	var walk func(n Node)
	walk = func(n Node) {
		children := n.Children
		n.Children = nil
		out = append(out, n)
		for _, c := range children {
			walk(c)
		}
	}
	walk(root)
	return out
}

// DecodeDefinition reads a persisted definition. It accepts the flat array
// written by Serialize and the legacy tree object, which is flattened. Empty
// input and an object without id and nodeType decode to no nodes.
func DecodeDefinition(data []byte) ([]Node, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return []Node{}, nil
	}

	switch data[0] {
	case '[':
		var seq []Node
		if err := json.Unmarshal(data, &seq); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrMalformedDefinition, err)
		}
		out := make([]Node, 0, len(seq))
		for _, n := range seq {
			out = append(out, Flatten(n)...)
		}
		return out, nil
	case '{':
		var probe struct {
			ID       string `json:"id"`
			NodeType string `json:"nodeType"`
		}
		if err := json.Unmarshal(data, &probe); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrMalformedDefinition, err)
		}
		if probe.ID == "" && probe.NodeType == "" {
			return []Node{}, nil
		}
		var root Node
		if err := json.Unmarshal(data, &root); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrMalformedDefinition, err)
		}
		return Flatten(root), nil
	default:
		return nil, fmt.Errorf("%w: expected object or array", ErrMalformedDefinition)
	}
}

// ParseDefinition is the lenient counterpart of DecodeDefinition used by the
// editor. raw may be a JSON string, raw bytes, a Node tree, a node slice or an
// already-decoded JSON value. Anything that cannot be read yields an empty
// sequence; corrupt and empty definitions are indistinguishable here.
func ParseDefinition(raw any) []Node {
	var data []byte
	switch v := raw.(type) {
	case nil:
		return []Node{}
	case string:
		data = []byte(v)
	case []byte:
		data = v
	case json.RawMessage:
		data = v
	case Node:
		return Flatten(v)
	case []Node:
		out := make([]Node, 0, len(v))
		for _, n := range v {
			out = append(out, Flatten(n)...)
		}
		return out
	default:
		b, err := json.Marshal(v)
		if err != nil {
			return []Node{}
		}
		data = b
	}

	nodes, err := DecodeDefinition(data)
	if err != nil {
		return []Node{}
	}
	return nodes
}

// Serialize renders a flat sequence as a JSON array. Children are dropped so
// the output is always flat.
func Serialize(nodes []Node) (string, error) {
	flat := make([]Node, len(nodes))
	for i, n := range nodes {
		n.Children = nil
		flat[i] = n
	}
	b, err := json.Marshal(flat)
	if err != nil {
		return "", err
	}
	return string(b), nil
}
