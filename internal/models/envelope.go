package models

// Envelope is the response shape of every endpoint. Exactly one of Data or
// Error is set.
type Envelope struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
}

// ChatData is the payload of a successful inference response.
type ChatData struct {
	Message string `json:"message"`
}

// LeadReceipt is the payload of a successful lead submission.
type LeadReceipt struct {
	ID string `json:"id"`
}
