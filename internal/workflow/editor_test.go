package workflow

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixedClock(ms int64) func() time.Time {
	return func() time.Time { return time.UnixMilli(ms) }
}

func ptr[T any](v T) *T { return &v }

func TestTimeIDs_StrictlyIncreasing(t *testing.T) {
	gen := TimeIDs(fixedClock(1700000000000))

	assert.Equal(t, "node_1700000000000", gen())
	assert.Equal(t, "node_1700000000001", gen())
	assert.Equal(t, "node_1700000000002", gen())
}

func TestEditor_AddNodeAppendsWithFreshID(t *testing.T) {
	e := NewEditor(Flatten(sampleTree()))
	before := e.Nodes()

	n, err := e.AddNode(TypeDelay)
	require.NoError(t, err)

	after := e.Nodes()
	require.Len(t, after, len(before)+1)
	last := after[len(after)-1]
	assert.Equal(t, n, last)
	assert.Equal(t, TypeDelay, last.Type())
	assert.Equal(t, "延迟节点", last.Text)
	assert.Equal(t, Delay{Mode: DelayFixed}, last.Payload)
	assert.NotContains(t, ids(before), last.ID)
	assert.Regexp(t, `^node_\d+$`, last.ID)

	sel, ok := e.Selected()
	require.True(t, ok)
	assert.Equal(t, last.ID, sel.ID)
}

func TestEditor_AddNodeSkipsTakenIDs(t *testing.T) {
	existing := []Node{{ID: "node_1000", Payload: Notify{}}}
	e := NewEditor(existing, WithIDGenerator(TimeIDs(fixedClock(1000))))

	n, err := e.AddNode(TypeNotify)
	require.NoError(t, err)
	assert.Equal(t, "node_1001", n.ID)
}

func TestEditor_AddNodeUnknownType(t *testing.T) {
	e := NewEditor(nil)
	_, err := e.AddNode("ship")
	assert.ErrorIs(t, err, ErrUnknownNodeType)
	assert.Equal(t, 0, e.Len())
}

func TestEditor_AddNodeDefaultsPerType(t *testing.T) {
	e := NewEditor(nil)
	for _, typ := range NodeTypes {
		n, err := e.AddNode(typ)
		require.NoError(t, err)
		assert.Equal(t, typ, n.Type())
		assert.Equal(t, typ.Label(), n.Text)
	}
	assert.Equal(t, len(NodeTypes), e.Len())
}

func TestEditor_DeleteNode(t *testing.T) {
	e := NewEditor(Flatten(sampleTree()))

	assert.True(t, e.DeleteNode("c"))
	nodes := e.Nodes()
	assert.Len(t, nodes, 4)
	assert.NotContains(t, ids(nodes), "c")

	assert.False(t, e.DeleteNode("c"))
	assert.Len(t, e.Nodes(), 4)
}

func TestEditor_DeleteSelectedClearsSelection(t *testing.T) {
	e := NewEditor(Flatten(sampleTree()))

	require.True(t, e.Select("b"))
	require.True(t, e.DeleteNode("d"))
	sel, ok := e.Selected()
	require.True(t, ok)
	assert.Equal(t, "b", sel.ID)

	require.True(t, e.DeleteNode("b"))
	_, ok = e.Selected()
	assert.False(t, ok)
}

func TestEditor_SelectUnknown(t *testing.T) {
	e := NewEditor(Flatten(sampleTree()))
	assert.False(t, e.Select("missing"))
	assert.True(t, e.Select(""))
	_, ok := e.Selected()
	assert.False(t, ok)
}

func TestEditor_UpdateNodeMergesFields(t *testing.T) {
	e := NewEditor(Flatten(sampleTree()))

	n, ok := e.UpdateNode("b", NodePatch{
		Text:      ptr("wait"),
		DelayMs:   ptr(int64(5000)),
		DelayMode: ptr(DelaySmart),
		Message:   ptr("ignored for delay nodes"),
	})
	require.True(t, ok)
	assert.Equal(t, "wait", n.Text)
	assert.Equal(t, Delay{Mode: DelaySmart, Ms: 5000}, n.Payload)

	assert.Equal(t, n, e.Nodes()[1])
}

func TestEditor_UpdateNodeMissingIsNoop(t *testing.T) {
	e := NewEditor(Flatten(sampleTree()))
	before := e.Nodes()

	_, ok := e.UpdateNode("missing", NodePatch{Text: ptr("x")})
	assert.False(t, ok)
	assert.Equal(t, before, e.Nodes())
}

func TestEditor_NodesIsACopy(t *testing.T) {
	e := NewEditor(Flatten(sampleTree()))
	nodes := e.Nodes()
	nodes[0].Text = "changed"
	assert.Equal(t, "A", e.Nodes()[0].Text)
}

func TestEditor_BuildScenario(t *testing.T) {
	e := NewEditorFromDefinition("")
	require.Equal(t, 0, e.Len())

	_, err := e.AddNode(TypeDelivery)
	require.NoError(t, err)
	delay, err := e.AddNode(TypeDelay)
	require.NoError(t, err)

	_, ok := e.UpdateNode(delay.ID, NodePatch{DelayMs: ptr(int64(5000))})
	require.True(t, ok)

	nodes := e.Nodes()
	require.Len(t, nodes, 2)
	assert.Equal(t, TypeDelivery, nodes[0].Type())
	assert.Equal(t, TypeDelay, nodes[1].Type())
	assert.Equal(t, int64(5000), nodes[1].Payload.(Delay).Ms)

	out, err := e.Serialize()
	require.NoError(t, err)
	assert.JSONEq(t, fmt.Sprintf(`[
		{"id": %q, "text": "发货节点", "nodeType": "delivery", "deliveryMode": "virtual"},
		{"id": %q, "text": "延迟节点", "nodeType": "delay", "delayMode": "fixed", "delayMs": 5000}
	]`, nodes[0].ID, nodes[1].ID), out)
}

func TestEditor_ConcurrentAdds(t *testing.T) {
	e := NewEditor(nil)
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := e.AddNode(TypeNotify)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	nodes := e.Nodes()
	require.Len(t, nodes, 50)
	seen := map[string]bool{}
	for _, n := range nodes {
		assert.False(t, seen[n.ID], "duplicate id %s", n.ID)
		seen[n.ID] = true
	}
}
