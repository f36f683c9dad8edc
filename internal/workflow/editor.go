package workflow

import (
	"fmt"
	"slices"
	"sync"
	"time"
)

// IDGenerator returns candidate node ids. The editor retries until the id is
// unused in its sequence.
type IDGenerator func() string

// TimeIDs returns a generator of "node_<unix ms>" ids that never repeats a
// value, even when called several times within one millisecond.
func TimeIDs(now func() time.Time) IDGenerator {
	var mu sync.Mutex
	var last int64
	return func() string {
		mu.Lock()
		defer mu.Unlock()
		ms := now().UnixMilli()
		if ms <= last {
			ms = last + 1
		}
		last = ms
		return fmt.Sprintf("node_%d", ms)
	}
}

type EditorOption func(*Editor)

func WithIDGenerator(gen IDGenerator) EditorOption {
	return func(e *Editor) {
		e.newID = gen
	}
}

// Editor holds one workflow's flat node sequence and the current selection.
// It is safe for concurrent use.
type Editor struct {
	mu       sync.Mutex
	nodes    []Node
	selected string
	newID    IDGenerator
}

// NewEditor starts an editor over nodes. Tree nodes are flattened.
func NewEditor(nodes []Node, opts ...EditorOption) *Editor {
	e := &Editor{
		nodes: ParseDefinition(nodes),
		newID: TimeIDs(time.Now),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// NewEditorFromDefinition parses a persisted definition leniently.
func NewEditorFromDefinition(raw any, opts ...EditorOption) *Editor {
	return NewEditor(ParseDefinition(raw), opts...)
}

// Nodes returns a copy of the current sequence.
func (e *Editor) Nodes() []Node {
	e.mu.Lock()
	defer e.mu.Unlock()
	return slices.Clone(e.nodes)
}

func (e *Editor) Len() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.nodes)
}

// AddNode appends a node of type t with a fresh id, the type's default label
// and default payload. The new node becomes the selection.
func (e *Editor) AddNode(t NodeType) (Node, error) {
	payload := DefaultPayload(t)
	if payload == nil {
		return Node{}, fmt.Errorf("%w: %q", ErrUnknownNodeType, t)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	id := e.newID()
	for e.indexOf(id) >= 0 {
		id = e.newID()
	}

	n := Node{ID: id, Text: t.Label(), Payload: payload}
	e.nodes = append(e.nodes, n)
	e.selected = id
	return n, nil
}

// UpdateNode merges patch into the node with the given id. It reports
// whether a node was found; a missing id is a no-op.
func (e *Editor) UpdateNode(id string, patch NodePatch) (Node, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()

	i := e.indexOf(id)
	if i < 0 {
		return Node{}, false
	}
	e.nodes[i].Apply(patch)
	return e.nodes[i], true
}

// DeleteNode removes the node with the given id and clears the selection if
// it pointed at that node.
func (e *Editor) DeleteNode(id string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	i := e.indexOf(id)
	if i < 0 {
		return false
	}
	e.nodes = slices.Delete(e.nodes, i, i+1)
	if e.selected == id {
		e.selected = ""
	}
	return true
}

// Select marks the node with the given id as selected. An empty id clears the
// selection.
func (e *Editor) Select(id string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	if id == "" {
		e.selected = ""
		return true
	}
	if e.indexOf(id) < 0 {
		return false
	}
	e.selected = id
	return true
}

// Selected returns the selected node, if any.
func (e *Editor) Selected() (Node, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.selected == "" {
		return Node{}, false
	}
	i := e.indexOf(e.selected)
	if i < 0 {
		return Node{}, false
	}
	return e.nodes[i], true
}

func (e *Editor) Serialize() (string, error) {
	return Serialize(e.Nodes())
}

func (e *Editor) indexOf(id string) int {
	return slices.IndexFunc(e.nodes, func(n Node) bool { return n.ID == id })
}
