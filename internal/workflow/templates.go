package workflow

// Template is a built-in starting definition for new workflows.
type Template struct {
	Key         string `json:"key"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Root        Node   `json:"definition"`
}

// Templates returns the built-in templates. Each call returns fresh values.
func Templates() []Template {
	return []Template{
		{
			Key:         "virtual",
			Name:        "默认发货流程",
			Description: "适用于虚拟商品的自动发货流程",
			Root: Node{
				ID: "root", Text: "开始", Payload: Delivery{Mode: DeliveryVirtual},
				Children: []Node{
					{ID: "node_1", Text: "发送商品卡密", Payload: Delivery{Mode: DeliveryVirtual, Content: "您的卡密是：{{card_key}}"}},
					{ID: "node_2", Text: "延迟30秒", Payload: Delay{Mode: DelayFixed, Ms: 30000}},
					{ID: "node_3", Text: "发送确认消息", Payload: AutoReply{Message: "请查收，如有问题请联系客服"}},
				},
			},
		},
		{
			Key:         "real",
			Name:        "实物发货流程",
			Description: "适用于需要物流的实物商品",
			Root:        Node{ID: "root", Text: "开始", Payload: Delivery{Mode: DeliveryReal}},
		},
		{
			Key:         "smart_reply",
			Name:        "智能回复流程",
			Description: "基于关键词的智能客服回复流程",
			Root:        Node{ID: "root", Text: "开始", Payload: Condition{MatchMode: MatchContains, Keywords: "价格,多少钱"}},
		},
	}
}

// LookupTemplate finds a template by key.
func LookupTemplate(key string) (Template, bool) {
	for _, t := range Templates() {
		if t.Key == key {
			return t, true
		}
	}
	return Template{}, false
}
