package model

import "fmt"

// Contact is a flattened address-book entry.
type Contact struct {
	ID          string
	DisplayName string
	Email       string
}

// ParseContact builds a Contact from a raw record. The primary email is
// the first entry in the emails list carrying a value; contacts without
// one keep an empty email.
func ParseContact(raw Raw) (Contact, error) {
	id := rawString(raw, "id")
	if id == "" {
		return Contact{}, fmt.Errorf("contact record missing id")
	}
	return Contact{
		ID:          id,
		DisplayName: rawString(raw, "display_name", "name"),
		Email:       firstEmail(raw["emails"]),
	}, nil
}

// Summary returns the wire form of the contact for listing responses.
func (c Contact) Summary() Raw {
	summary := Raw{
		"id":           c.ID,
		"display_name": c.DisplayName,
	}
	if c.Email != "" {
		summary["email"] = c.Email
	} else {
		summary["email"] = nil
	}
	return summary
}

func firstEmail(entries any) string {
	list, ok := entries.([]any)
	if !ok {
		return ""
	}
	for _, entry := range list {
		m, ok := entry.(map[string]any)
		if !ok {
			continue
		}
		if value := rawString(m, "value", "email"); value != "" {
			return value
		}
	}
	return ""
}
