package respond

type MessageItem struct {
	Uuid      string `json:"uuid"`
	SessionId string `json:"session_id"`
	Role      string `json:"role"`
	Content   string `json:"content"`
	CreatedAt string `json:"created_at"`
}
