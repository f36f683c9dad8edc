package workflow

// NodePatch is a partial update for a node. Nil fields are left untouched and
// fields that do not belong to the node's type are ignored.
type NodePatch struct {
	Text            *string       `json:"text,omitempty"`
	DeliveryMode    *DeliveryMode `json:"deliveryMode,omitempty"`
	DeliveryContent *string       `json:"deliveryContent,omitempty"`
	DelayMode       *DelayMode    `json:"delayMode,omitempty"`
	DelayMs         *int64        `json:"delayMs,omitempty"`
	DelayMinMs      *int64        `json:"delayMinMs,omitempty"`
	DelayMaxMs      *int64        `json:"delayMaxMs,omitempty"`
	MatchMode       *MatchMode    `json:"matchMode,omitempty"`
	Keywords        *string       `json:"keywords,omitempty"`
	Expression      *string       `json:"expression,omitempty"`
	Message         *string       `json:"message,omitempty"`
}

// Apply merges p into n.
func (n *Node) Apply(p NodePatch) {
	if p.Text != nil {
		n.Text = *p.Text
	}

	switch pl := n.Payload.(type) {
	case Delivery:
		setIf(&pl.Mode, p.DeliveryMode)
		setIf(&pl.Content, p.DeliveryContent)
		n.Payload = pl
	case Delay:
		setIf(&pl.Mode, p.DelayMode)
		setIf(&pl.Ms, p.DelayMs)
		setIf(&pl.MinMs, p.DelayMinMs)
		setIf(&pl.MaxMs, p.DelayMaxMs)
		n.Payload = pl
	case Condition:
		setIf(&pl.MatchMode, p.MatchMode)
		setIf(&pl.Keywords, p.Keywords)
		setIf(&pl.Expression, p.Expression)
		n.Payload = pl
	case AutoReply:
		setIf(&pl.Message, p.Message)
		n.Payload = pl
	case Notify:
		setIf(&pl.Message, p.Message)
		n.Payload = pl
	}
}

func setIf[T any](dst *T, src *T) {
	if src != nil {
		*dst = *src
	}
}
