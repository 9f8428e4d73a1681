package model

// EmailMessage represents a single fetched mailbox message. It is immutable
// once fetched; Received is kept as an RFC3339 string so that timestamps from
// different cycles stay lexicographically comparable.
type EmailMessage struct {
	ID          string `json:"id"`
	SenderName  string `json:"sender_name"`
	SenderEmail string `json:"sender_email"`
	Subject     string `json:"subject"`
	Received    string `json:"received"`
	Body        string `json:"body"`
}

// ClassifiedEmail pairs a message with its classification result. Result is
// nil when classification failed or returned an unusable payload; downstream
// code treats that the same as not-a-lead.
type ClassifiedEmail struct {
	Email  EmailMessage
	Result *Classification
}

// IsLead reports whether the message was accepted as a sales lead.
func (c ClassifiedEmail) IsLead() bool {
	return c.Result != nil && c.Result.IsLead
}
