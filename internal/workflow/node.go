// Package workflow holds the delivery pipeline definition model: typed nodes,
// the tree and flat representations of a definition, and the editor used to
// mutate a flat node sequence before it is saved.
package workflow

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"
)

// NodeType is the discriminant of a workflow node.
type NodeType string

const (
	TypeDelivery  NodeType = "delivery"
	TypeDelay     NodeType = "delay"
	TypeCondition NodeType = "condition"
	TypeAutoReply NodeType = "autoreply"
	TypeNotify    NodeType = "notify"
)

// NodeTypes lists every node type in palette order.
var NodeTypes = []NodeType{TypeDelivery, TypeDelay, TypeCondition, TypeAutoReply, TypeNotify}

var nodeLabels = map[NodeType]string{
	TypeDelivery:  "发货节点",
	TypeDelay:     "延迟节点",
	TypeCondition: "条件节点",
	TypeAutoReply: "自动回复",
	TypeNotify:    "通知节点",
}

// Valid reports whether t is a known node type.
func (t NodeType) Valid() bool {
	_, ok := nodeLabels[t]
	return ok
}

// Label returns the default display label for nodes of type t.
func (t NodeType) Label() string {
	return nodeLabels[t]
}

type DeliveryMode string

const (
	DeliveryVirtual DeliveryMode = "virtual"
	DeliveryReal    DeliveryMode = "real"
)

type DelayMode string

const (
	DelayFixed  DelayMode = "fixed"
	DelayRandom DelayMode = "random"
	DelaySmart  DelayMode = "smart"
)

type MatchMode string

const (
	MatchContains MatchMode = "contains"
	MatchExact    MatchMode = "exact"
	MatchRegex    MatchMode = "regex"
)

var ErrUnknownNodeType = errors.New("unknown node type")

// Payload is the type-specific part of a node. The set of implementations is
// closed: Delivery, Delay, Condition, AutoReply and Notify.
type Payload interface {
	NodeType() NodeType
	isPayload()
}

// Delivery sends goods to the buyer. Content may contain {{variable}}
// placeholders.
type Delivery struct {
	Mode    DeliveryMode `validate:"oneof=virtual real"`
	Content string
}

type Delay struct {
	Mode  DelayMode `validate:"oneof=fixed random smart"`
	Ms    int64     `validate:"gte=0"`
	MinMs int64     `validate:"gte=0"`
	MaxMs int64     `validate:"gte=0"`
}

type Condition struct {
	MatchMode  MatchMode `validate:"oneof=contains exact regex"`
	Keywords   string
	Expression string
}

// KeywordList splits Keywords on ASCII and full-width commas, dropping blanks.
// It is meaningful for contains and exact matching.
func (c Condition) KeywordList() []string {
	fields := strings.FieldsFunc(c.Keywords, func(r rune) bool {
		return r == ',' || r == '，'
	})
	out := make([]string, 0, len(fields))
	for _, f := range fields {
		if f = strings.TrimSpace(f); f != "" {
			out = append(out, f)
		}
	}
	return out
}

type AutoReply struct {
	Message string
}

type Notify struct {
	Message string
}

func (Delivery) NodeType() NodeType  { return TypeDelivery }
func (Delay) NodeType() NodeType     { return TypeDelay }
func (Condition) NodeType() NodeType { return TypeCondition }
func (AutoReply) NodeType() NodeType { return TypeAutoReply }
func (Notify) NodeType() NodeType    { return TypeNotify }

func (Delivery) isPayload()  {}
func (Delay) isPayload()     {}
func (Condition) isPayload() {}
func (AutoReply) isPayload() {}
func (Notify) isPayload()    {}

// DefaultPayload returns the payload a freshly added node of type t starts
// with. It returns nil for unknown types.
func DefaultPayload(t NodeType) Payload {
	switch t {
	case TypeDelivery:
		return Delivery{Mode: DeliveryVirtual}
	case TypeDelay:
		return Delay{Mode: DelayFixed}
	case TypeCondition:
		return Condition{MatchMode: MatchContains}
	case TypeAutoReply:
		return AutoReply{}
	case TypeNotify:
		return Notify{}
	}
	return nil
}

// Node is one step of a workflow. Children is only populated for
// tree-shaped definitions; flat sequences never carry children.
type Node struct {
	ID       string
	Text     string
	Payload  Payload
	Children []Node
}

// Type returns the node's discriminant, or "" when it has no payload.
func (n Node) Type() NodeType {
	if n.Payload == nil {
		return ""
	}
	return n.Payload.NodeType()
}

// Millis is a millisecond count in the wire form. Any JSON number with a
// whole value is accepted, so 5000 and 5000.0 decode alike; fractions are
// rejected, matching the "integer" type of DefinitionSchema.
type Millis int64

func (m *Millis) UnmarshalJSON(data []byte) error {
	if len(data) > 0 && data[0] == '"' {
		return fmt.Errorf("%w: delay must be a number, got %s", ErrInvalidPayload, data)
	}
	var num json.Number
	if err := json.Unmarshal(data, &num); err != nil {
		return err
	}
	if i, err := num.Int64(); err == nil {
		*m = Millis(i)
		return nil
	}
	f, err := num.Float64()
	if err != nil || f != math.Trunc(f) || f < math.MinInt64 || f >= math.MaxInt64 {
		return fmt.Errorf("%w: %s is not a whole number of milliseconds", ErrInvalidPayload, num)
	}
	*m = Millis(f)
	return nil
}

// wireNode is the persisted JSON shape shared by the tree and flat forms.
type wireNode struct {
	ID              string       `json:"id"`
	Text            string       `json:"text"`
	NodeType        NodeType     `json:"nodeType"`
	DeliveryMode    DeliveryMode `json:"deliveryMode,omitempty"`
	DeliveryContent string       `json:"deliveryContent,omitempty"`
	DelayMs         *Millis      `json:"delayMs,omitempty"`
	DelayMode       DelayMode    `json:"delayMode,omitempty"`
	DelayMinMs      *Millis      `json:"delayMinMs,omitempty"`
	DelayMaxMs      *Millis      `json:"delayMaxMs,omitempty"`
	MatchMode       MatchMode    `json:"matchMode,omitempty"`
	Keywords        string       `json:"keywords,omitempty"`
	Expression      string       `json:"expression,omitempty"`
	Message         string       `json:"message,omitempty"`
	Children        []Node       `json:"children,omitempty"`
}

func (n Node) MarshalJSON() ([]byte, error) {
	w := wireNode{
		ID:       n.ID,
		Text:     n.Text,
		NodeType: n.Type(),
		Children: n.Children,
	}
	switch p := n.Payload.(type) {
	case Delivery:
		w.DeliveryMode = p.Mode
		w.DeliveryContent = p.Content
	case Delay:
		w.DelayMode = p.Mode
		w.DelayMs = (*Millis)(&p.Ms)
		if p.MinMs != 0 || p.MaxMs != 0 {
			w.DelayMinMs = (*Millis)(&p.MinMs)
			w.DelayMaxMs = (*Millis)(&p.MaxMs)
		}
	case Condition:
		w.MatchMode = p.MatchMode
		w.Keywords = p.Keywords
		w.Expression = p.Expression
	case AutoReply:
		w.Message = p.Message
	case Notify:
		w.Message = p.Message
	case nil:
		return nil, fmt.Errorf("node %q: %w", n.ID, ErrUnknownNodeType)
	}
	return json.Marshal(w)
}

// UnmarshalJSON decodes the wire shape. Fields that do not belong to the
// node's type are dropped; missing modes fall back to the editor defaults.
func (n *Node) UnmarshalJSON(data []byte) error {
	var w wireNode
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}

	var payload Payload
	switch w.NodeType {
	case TypeDelivery:
		d := Delivery{Mode: w.DeliveryMode, Content: w.DeliveryContent}
		if d.Mode == "" {
			d.Mode = DeliveryVirtual
		}
		payload = d
	case TypeDelay:
		d := Delay{Mode: w.DelayMode}
		if d.Mode == "" {
			d.Mode = DelayFixed
		}
		if w.DelayMs != nil {
			d.Ms = int64(*w.DelayMs)
		}
		if w.DelayMinMs != nil {
			d.MinMs = int64(*w.DelayMinMs)
		}
		if w.DelayMaxMs != nil {
			d.MaxMs = int64(*w.DelayMaxMs)
		}
		payload = d
	case TypeCondition:
		c := Condition{MatchMode: w.MatchMode, Keywords: w.Keywords, Expression: w.Expression}
		if c.MatchMode == "" {
			c.MatchMode = MatchContains
		}
		payload = c
	case TypeAutoReply:
		payload = AutoReply{Message: w.Message}
	case TypeNotify:
		payload = Notify{Message: w.Message}
	default:
		return fmt.Errorf("node %q: %w: %q", w.ID, ErrUnknownNodeType, w.NodeType)
	}

	*n = Node{ID: w.ID, Text: w.Text, Payload: payload, Children: w.Children}
	return nil
}
