package model

// Mailbox is a flattened mailbox/folder entry. ParentID is nil for
// top-level mailboxes.
type Mailbox struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	ParentID    *string `json:"parent_id"`
	UnreadCount int     `json:"unread_count"`
	TotalCount  int     `json:"total_count"`
}

// ParseMailbox builds a Mailbox from a raw record with defensive
// defaults; mailbox listings have no required fields beyond id.
func ParseMailbox(raw Raw) Mailbox {
	mailbox := Mailbox{
		ID:          rawString(raw, "id"),
		Name:        rawString(raw, "name"),
		UnreadCount: rawInt(raw, "unreadEmails"),
		TotalCount:  rawInt(raw, "totalEmails"),
	}
	if parent := rawString(raw, "parentId", "parent_id"); parent != "" {
		mailbox.ParentID = &parent
	}
	return mailbox
}

// SyntheticInbox is the minimal structural fallback used when the live
// mailbox listing is unavailable.
func SyntheticInbox() Mailbox {
	return Mailbox{ID: "inbox", Name: "Inbox"}
}
