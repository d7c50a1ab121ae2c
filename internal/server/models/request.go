package models

import (
	"encoding/json"
	"time"
)

// RequestTypeSimpleCertificate is the only request type the API creates.
const RequestTypeSimpleCertificate = "Certificado simple"

// Request is a document request owned by a user.
type Request struct {
	ID          int64     `json:"id"`
	UserID      int64     `json:"user_id"`
	RequestType string    `json:"request_type"`
	Status      Status    `json:"status"`
	StatusNote  *string   `json:"status_note"`
	Details     Details   `json:"details"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// MarshalJSON adds the display label next to the persisted status.
func (r Request) MarshalJSON() ([]byte, error) {
	type plain Request
	return json.Marshal(struct {
		plain
		StatusLabel string `json:"status_label"`
	}{plain(r), r.Status.Label()})
}

// RequestView is a list row. Admin listings carry details and the owner's
// name and email; a user's own listing leaves them nil.
type RequestView struct {
	ID          int64     `json:"id"`
	UserID      int64     `json:"user_id"`
	RequestType string    `json:"request_type"`
	Status      Status    `json:"status"`
	StatusLabel string    `json:"status_label"`
	StatusNote  *string   `json:"status_note"`
	Details     *Details  `json:"details,omitempty"`
	UserName    *string   `json:"user_name,omitempty"`
	UserEmail   *string   `json:"user_email,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// RequestWithOwner is a request joined with its owner's contact data.
type RequestWithOwner struct {
	Request
	UserName  string `json:"user_name"`
	UserEmail string `json:"user_email"`
}

func (r RequestWithOwner) MarshalJSON() ([]byte, error) {
	type plain Request
	return json.Marshal(struct {
		plain
		StatusLabel string `json:"status_label"`
		UserName    string `json:"user_name"`
		UserEmail   string `json:"user_email"`
	}{plain(r.Request), r.Status.Label(), r.UserName, r.UserEmail})
}
