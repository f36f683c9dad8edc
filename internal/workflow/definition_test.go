package workflow

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const legacyTree = `{
  "id": "root",
  "text": "开始",
  "nodeType": "delivery",
  "deliveryMode": "virtual",
  "children": [
    {"id": "node_1", "text": "发送商品卡密", "nodeType": "delivery", "deliveryMode": "virtual", "deliveryContent": "您的卡密是：{{card_key}}"},
    {"id": "node_2", "text": "延迟30秒", "nodeType": "delay", "delayMode": "fixed", "delayMs": 30000,
     "children": [
       {"id": "node_2a", "text": "通知", "nodeType": "notify", "message": "已发货"}
     ]},
    {"id": "node_3", "text": "发送确认消息", "nodeType": "autoreply", "message": "请查收，如有问题请联系客服"}
  ]
}`

func sampleTree() Node {
	return Node{
		ID: "a", Text: "A", Payload: Delivery{Mode: DeliveryVirtual},
		Children: []Node{
			{ID: "b", Text: "B", Payload: Delay{Mode: DelayFixed, Ms: 100},
				Children: []Node{
					{ID: "c", Text: "C", Payload: Notify{Message: "hi"}},
					{ID: "d", Text: "D", Payload: Condition{MatchMode: MatchExact, Keywords: "x"}},
				}},
			{ID: "e", Text: "E", Payload: AutoReply{Message: "bye"}},
		},
	}
}

func ids(nodes []Node) []string {
	out := make([]string, len(nodes))
	for i, n := range nodes {
		out[i] = n.ID
	}
	return out
}

func TestFlatten_PreOrderEveryNodeOnce(t *testing.T) {
	flat := Flatten(sampleTree())

	assert.Equal(t, []string{"a", "b", "c", "d", "e"}, ids(flat))
	for _, n := range flat {
		assert.Nil(t, n.Children, "node %s kept children", n.ID)
	}
}

func TestFlatten_SingleNode(t *testing.T) {
	flat := Flatten(Node{ID: "only", Payload: Notify{}})
	require.Len(t, flat, 1)
	assert.Equal(t, "only", flat[0].ID)
}

func TestFlatten_DoesNotMutateTree(t *testing.T) {
	tree := sampleTree()
	Flatten(tree)
	assert.Len(t, tree.Children, 2)
	assert.Len(t, tree.Children[0].Children, 2)
}

func TestParseDefinition_LegacyTree(t *testing.T) {
	nodes := ParseDefinition(legacyTree)

	require.Equal(t, []string{"root", "node_1", "node_2", "node_2a", "node_3"}, ids(nodes))
	assert.Equal(t, Delivery{Mode: DeliveryVirtual, Content: "您的卡密是：{{card_key}}"}, nodes[1].Payload)
	assert.Equal(t, Delay{Mode: DelayFixed, Ms: 30000}, nodes[2].Payload)
	assert.Equal(t, Notify{Message: "已发货"}, nodes[3].Payload)
	assert.Equal(t, "发送确认消息", nodes[4].Text)
}

func TestParseDefinition_AcceptsDecodedValues(t *testing.T) {
	var decoded map[string]any
	require.NoError(t, json.Unmarshal([]byte(legacyTree), &decoded))

	fromMap := ParseDefinition(decoded)
	fromBytes := ParseDefinition([]byte(legacyTree))
	fromTree := ParseDefinition(sampleTree())

	assert.Equal(t, fromBytes, fromMap)
	assert.Len(t, fromTree, 5)
}

func TestParseDefinition_RoundTripsFlatSequence(t *testing.T) {
	tree := sampleTree()
	flat := Flatten(tree)

	serialized, err := Serialize(flat)
	require.NoError(t, err)

	parsed := ParseDefinition(serialized)
	assert.Equal(t, flat, parsed)
}

// Flattening loses nesting, so a saved definition never reads back as the
// original tree.
func TestParseDefinition_DoesNotRoundTripTree(t *testing.T) {
	tree := sampleTree()

	serialized, err := Serialize(Flatten(tree))
	require.NoError(t, err)
	parsed := ParseDefinition(serialized)

	require.NotEmpty(t, parsed)
	assert.Equal(t, tree.ID, parsed[0].ID)
	assert.NotEqual(t, tree, parsed[0])
	assert.Nil(t, parsed[0].Children)
	assert.Len(t, parsed, 5)
}

func TestParseDefinition_MalformedInputIsEmpty(t *testing.T) {
	cases := map[string]any{
		"not json":        "not json",
		"truncated":       `{"id": "a", "nodeType": "delay"`,
		"number":          "42",
		"unknown type":    `{"id": "a", "nodeType": "ship"}`,
		"unknown in list": `[{"id": "a", "nodeType": "delay"}, {"id": "b", "nodeType": "trigger"}]`,
		"nil":             nil,
		"empty string":    "",
		"empty object":    "{}",
		"graph form":      `{"nodes": [], "connections": []}`,
		"channel":         make(chan int),
	}

	for name, raw := range cases {
		t.Run(name, func(t *testing.T) {
			var nodes []Node
			assert.NotPanics(t, func() { nodes = ParseDefinition(raw) })
			assert.NotNil(t, nodes)
			assert.Empty(t, nodes)
		})
	}
}

func TestDecodeDefinition_ReportsErrors(t *testing.T) {
	_, err := DecodeDefinition([]byte("not json"))
	assert.ErrorIs(t, err, ErrMalformedDefinition)

	_, err = DecodeDefinition([]byte(`[{"id": "x", "nodeType": "ship"}]`))
	assert.ErrorIs(t, err, ErrUnknownNodeType)

	nodes, err := DecodeDefinition([]byte("  {}  "))
	assert.NoError(t, err)
	assert.Empty(t, nodes)
}

func TestDecodeDefinition_FillsDefaultModes(t *testing.T) {
	nodes, err := DecodeDefinition([]byte(`[
		{"id": "a", "text": "A", "nodeType": "delivery"},
		{"id": "b", "text": "B", "nodeType": "delay"},
		{"id": "c", "text": "C", "nodeType": "condition", "keywords": "hi"}
	]`))
	require.NoError(t, err)

	assert.Equal(t, Delivery{Mode: DeliveryVirtual}, nodes[0].Payload)
	assert.Equal(t, Delay{Mode: DelayFixed}, nodes[1].Payload)
	assert.Equal(t, Condition{MatchMode: MatchContains, Keywords: "hi"}, nodes[2].Payload)
}

func TestDecodeDefinition_DropsForeignFields(t *testing.T) {
	nodes, err := DecodeDefinition([]byte(`[{"id": "a", "nodeType": "notify", "message": "m", "delayMs": 5, "deliveryMode": "real"}]`))
	require.NoError(t, err)
	assert.Equal(t, Notify{Message: "m"}, nodes[0].Payload)

	out, err := Serialize(nodes)
	require.NoError(t, err)
	assert.JSONEq(t, `[{"id": "a", "text": "", "nodeType": "notify", "message": "m"}]`, out)
}

func TestSerialize_FlatArray(t *testing.T) {
	out, err := Serialize(nil)
	require.NoError(t, err)
	assert.Equal(t, "[]", out)

	out, err = Serialize([]Node{sampleTree()})
	require.NoError(t, err)
	assert.JSONEq(t, `[{"id": "a", "text": "A", "nodeType": "delivery", "deliveryMode": "virtual"}]`, out)
}

func TestSerialize_DelayAlwaysCarriesDelayMs(t *testing.T) {
	out, err := Serialize([]Node{{ID: "d", Text: "wait", Payload: Delay{Mode: DelayRandom, MinMs: 10, MaxMs: 20}}})
	require.NoError(t, err)
	assert.JSONEq(t, `[{"id": "d", "text": "wait", "nodeType": "delay", "delayMode": "random", "delayMs": 0, "delayMinMs": 10, "delayMaxMs": 20}]`, out)
}

func TestSerialize_RejectsNodeWithoutPayload(t *testing.T) {
	_, err := Serialize([]Node{{ID: "x"}})
	assert.ErrorIs(t, err, ErrUnknownNodeType)
}

func TestCondition_KeywordList(t *testing.T) {
	c := Condition{Keywords: "价格, 多少钱，包邮,, "}
	assert.Equal(t, []string{"价格", "多少钱", "包邮"}, c.KeywordList())
	assert.Empty(t, Condition{}.KeywordList())
}
