package model

import "github.com/cloudwego/eino/schema"

// ToSchemaMessages converts conversation history to eino messages in order.
func ToSchemaMessages(messages []Message) []*schema.Message {
	out := make([]*schema.Message, len(messages))
	for i, m := range messages {
		out[i] = &schema.Message{
			Role:    toSchemaRole(m.Role),
			Content: m.Content,
		}
	}
	return out
}

func toSchemaRole(r Role) schema.RoleType {
	switch r {
	case RoleSystem:
		return schema.System
	case RoleAssistant:
		return schema.Assistant
	default:
		return schema.User
	}
}
