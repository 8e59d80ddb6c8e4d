package notify

import "time"

// Notice tells one person that an appraisal needs them or changed. Email is
// filled from the directory at dispatch time and is not stored.
type Notice struct {
	ID          string     `json:"id"`
	Kind        Kind       `json:"kind"`
	AppraisalID string     `json:"appraisalId"`
	RecipientID string     `json:"recipientId"`
	Email       string     `json:"email,omitempty"`
	Level       int        `json:"level,omitempty"`
	Title       string     `json:"title"`
	Body        string     `json:"body,omitempty"`
	ReadAt      *time.Time `json:"readAt,omitempty"`
	OccurredAt  time.Time  `json:"occurredAt"`
}
