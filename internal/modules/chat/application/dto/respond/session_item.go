package respond

// OpenSessionRespond 当前会话信息
type OpenSessionRespond struct {
	SessionId string `json:"session_id"`
	CreatedAt string `json:"created_at"`
}

// SendMessageRespond 发送结果：用户消息与助手回复（生成失败时为兜底回复）
type SendMessageRespond struct {
	UserMessage      MessageItem `json:"user_message"`
	AssistantMessage MessageItem `json:"assistant_message"`
}
