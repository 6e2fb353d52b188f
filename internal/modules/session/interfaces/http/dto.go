package http

import (
	"time"

	"github.com/saransh1220/qrdrop/internal/modules/session/domain"
)

type ServerInfoResponse struct {
	IP   string `json:"ip"`
	Port int    `json:"port"`
}

type CreateSessionResponse struct {
	SessionID string `json:"sessionId"`
}

type SessionResponse struct {
	SessionID string    `json:"sessionId"`
	CreatedAt time.Time `json:"createdAt"`
	FileCount int       `json:"fileCount"`
	UploadURL string    `json:"uploadUrl"`
	Viewers   *int      `json:"viewers,omitempty"`
}

type UploadResponse struct {
	Success  bool               `json:"success"`
	Files    []domain.File      `json:"files"`
	Rejected []domain.Rejection `json:"rejected"`
}

type UploadRejectedResponse struct {
	Error    string             `json:"error"`
	Rejected []domain.Rejection `json:"rejected"`
}

type DeleteResponse struct {
	Success bool `json:"success"`
}
