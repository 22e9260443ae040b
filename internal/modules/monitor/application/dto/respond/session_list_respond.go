package respond

// SessionItem 管理端会话列表条目，统计值由当前消息日志实时推导
type SessionItem struct {
	SessionId       string `json:"session_id"`
	UserId          string `json:"user_id"`
	UserName        string `json:"user_name"`
	UserEmail       string `json:"user_email"`
	Notes           string `json:"notes"`
	MessagesCount   int    `json:"messages_count"`
	AttentionCount  int    `json:"attention_count"`
	LatestMessageAt string `json:"latest_message_at"`
	CreatedAt       string `json:"created_at"`
}

type SessionListRespond struct {
	Sessions []SessionItem `json:"sessions"`
	Total    int64         `json:"total"`
	Page     int           `json:"page"`
	PageSize int           `json:"page_size"`
}

type ActiveCountRespond struct {
	ActiveCount int64 `json:"active_count"`
}
