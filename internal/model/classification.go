package model

// Classification is the structured verdict for one message. It is a tagged
// variant: when IsLead is false the remaining fields are empty, and Meeting is
// only non-nil when the classifier detected meeting intent.
type Classification struct {
	IsLead      bool
	LeadStatus  string
	ActionItems string
	Deadline    string
	Meeting     *MeetingDetails
}

// MeetingDetails carries the meeting intent extracted from a lead message.
// Date and StartTime may be empty when the classifier saw intent but no
// concrete slot; scheduling treats that as not applicable.
type MeetingDetails struct {
	Subject     string
	Date        string // YYYY-MM-DD
	StartTime   string // HH:MM
	MeetingType string
}

// HasSlot reports whether the meeting carries a concrete date and start time.
func (m *MeetingDetails) HasSlot() bool {
	return m != nil && m.Date != "" && m.StartTime != ""
}
