package request

// SendMessageRequest 发送消息。SessionId 为空时使用当前会话（没有则自动创建）
type SendMessageRequest struct {
	SessionId string `json:"session_id"`
	Content   string `json:"content"`
}
