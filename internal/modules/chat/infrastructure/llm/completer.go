package llm

import (
	"context"
	"fmt"

	chatEntity "ChatLens/internal/modules/chat/domain/entity"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
)

const systemPrompt = "你是亞馬遜賣家客服助理，請用繁體中文簡潔回答賣家營運相關問題。"

// Completer 文本补全协作方：输入按时间排列的角色消息，返回回复文本。
// 单次不透明调用，不做重试，失败语义由调用方决定。
type Completer interface {
	Complete(ctx context.Context, history []chatEntity.Message) (string, error)
}

type einoCompleter struct {
	cm model.BaseChatModel
}

func NewCompleter(cm model.BaseChatModel) Completer {
	return &einoCompleter{cm: cm}
}

func (c *einoCompleter) Complete(ctx context.Context, history []chatEntity.Message) (string, error) {
	if c.cm == nil {
		return "", fmt.Errorf("chat model not configured")
	}

	msgs := make([]*schema.Message, 0, len(history)+1)
	msgs = append(msgs, schema.SystemMessage(systemPrompt))
	for i := range history {
		m := &history[i]
		switch m.Role {
		case chatEntity.RoleAssistant:
			msgs = append(msgs, schema.AssistantMessage(m.Content, nil))
		default:
			msgs = append(msgs, schema.UserMessage(m.Content))
		}
	}

	out, err := c.cm.Generate(ctx, msgs)
	if err != nil {
		return "", err
	}
	return out.Content, nil
}
