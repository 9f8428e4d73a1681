package model

// Opportunity is the durable record tracking a sales relationship with one
// sender. The ID is a deterministic function of the normalized sender address,
// so repeated messages from the same sender always resolve to the same record.
// FolderLink is assigned exactly once, at creation; Phone is unpopulated by
// default.
type Opportunity struct {
	ID            string `json:"id"`
	ContactName   string `json:"contact_name"`
	Company       string `json:"company"`
	Email         string `json:"email"`
	Phone         string `json:"phone"`
	Title         string `json:"opportunity_title"`
	LeadStatus    string `json:"lead_status"`
	Notes         string `json:"notes"`
	LastContacted string `json:"last_contacted"`
	FolderLink    string `json:"folder_link"`
}
