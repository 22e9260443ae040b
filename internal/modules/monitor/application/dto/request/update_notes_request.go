package request

type UpdateNotesRequest struct {
	SessionId string `json:"session_id"`
	Notes     string `json:"notes"`
}
