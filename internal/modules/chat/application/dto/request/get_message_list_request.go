package request

type GetMessageListRequest struct {
	SessionId string `json:"session_id"`
}
