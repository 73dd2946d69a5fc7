package jmap

// JMAP capability URIs. An account advertises a subset of these in its
// session's primaryAccounts mapping; absence means the feature is
// unsupported for that account.
const (
	CapabilityCore      = "urn:ietf:params:jmap:core"
	CapabilityMail      = "urn:ietf:params:jmap:mail"
	CapabilityContacts  = "urn:ietf:params:jmap:contacts"
	CapabilityCalendars = "urn:ietf:params:jmap:calendars"
)

// WellKnownPath is the discovery endpoint relative to the base URL.
const WellKnownPath = "/.well-known/jmap"
