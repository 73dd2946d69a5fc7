package jmap

// Property sets requested from the backend. Listings carry the minimal
// set; search results carry the extended set needed for read-state and
// mailbox derivation.
var (
	messageListProperties   = []string{"id", "subject", "preview", "receivedAt"}
	messageSearchProperties = []string{
		"id", "subject", "preview", "receivedAt",
		"from", "to", "keywords", "hasAttachment", "mailboxIds",
	}
	contactProperties = []string{"id", "name", "emails"}
	eventProperties   = []string{"id", "title", "start", "end"}
	mailboxProperties = []string{"id", "name", "parentId", "unreadEmails", "totalEmails"}
)

// SearchOptions parameterizes the email search builder. Filter is the
// already-converted JMAP filter object; Offset is used as the query's
// position cursor.
type SearchOptions struct {
	Limit         int
	Offset        int
	Filter        map[string]any
	SortBy        string
	SortAscending bool
}

func sortDescriptor(property string, ascending bool) []any {
	return []any{map[string]any{
		"property":    property,
		"isAscending": ascending,
	}}
}

func idsReference(tag, method string) ResultReference {
	return ResultReference{ResultOf: tag, Name: method, Path: "/ids"}
}

// queryGetPair builds the canonical two-step batch: query IDs, then get
// records by back-reference.
func queryGetPair(capability, queryMethod, getMethod string, queryArgs map[string]any, accountID string, properties []string) Request {
	return Request{
		Using: []string{CapabilityCore, capability},
		MethodCalls: []Invocation{
			{Name: queryMethod, Args: queryArgs, Tag: "a"},
			{
				Name: getMethod,
				Args: map[string]any{
					"accountId":  accountID,
					"properties": properties,
					"#ids":       idsReference("a", queryMethod),
				},
				Tag: "b",
			},
		},
	}
}

func buildEmailList(accountID string, limit int) Request {
	return queryGetPair(CapabilityMail, "Email/query", "Email/get",
		map[string]any{
			"accountId": accountID,
			"limit":     limit,
			"sort":      sortDescriptor("receivedAt", false),
		},
		accountID, messageListProperties)
}

func buildContactList(accountID string, limit int) Request {
	return queryGetPair(CapabilityContacts, "Contact/query", "Contact/get",
		map[string]any{
			"accountId": accountID,
			"limit":     limit,
			"sort":      sortDescriptor("name", true),
		},
		accountID, contactProperties)
}

func buildEventList(accountID string, limit int) Request {
	return queryGetPair(CapabilityCalendars, "CalendarEvent/query", "CalendarEvent/get",
		map[string]any{
			"accountId": accountID,
			"limit":     limit,
			"sort":      sortDescriptor("start", true),
		},
		accountID, eventProperties)
}

func buildEmailSearch(accountID string, opts SearchOptions) Request {
	queryArgs := map[string]any{
		"accountId": accountID,
		"limit":     opts.Limit,
		"position":  opts.Offset,
		"sort":      sortDescriptor(opts.SortBy, opts.SortAscending),
	}
	if len(opts.Filter) > 0 {
		queryArgs["filter"] = opts.Filter
	}

	return Request{
		Using: []string{CapabilityCore, CapabilityMail},
		MethodCalls: []Invocation{
			{Name: "Email/query", Args: queryArgs, Tag: "search"},
			{
				Name: "Email/get",
				Args: map[string]any{
					"accountId":  accountID,
					"properties": messageSearchProperties,
					"#ids":       idsReference("search", "Email/query"),
				},
				Tag: "get",
			},
		},
	}
}

// buildEmailGet addresses messages by explicit id; there is no query
// step and no back-reference.
func buildEmailGet(accountID, messageID string, properties []string) Request {
	return Request{
		Using: []string{CapabilityCore, CapabilityMail},
		MethodCalls: []Invocation{
			{
				Name: "Email/get",
				Args: map[string]any{
					"accountId":  accountID,
					"ids":        []string{messageID},
					"properties": properties,
				},
				Tag: "get",
			},
		},
	}
}

func buildMailboxList(accountID string, limit, offset int) Request {
	return Request{
		Using: []string{CapabilityCore, CapabilityMail},
		MethodCalls: []Invocation{
			{
				Name: "Mailbox/query",
				Args: map[string]any{
					"accountId": accountID,
					"limit":     limit,
					"position":  offset,
					"sort":      sortDescriptor("name", true),
				},
				Tag: "query",
			},
			{
				Name: "Mailbox/get",
				Args: map[string]any{
					"accountId":  accountID,
					"properties": mailboxProperties,
					"#ids":       idsReference("query", "Mailbox/query"),
				},
				Tag: "get",
			},
		},
	}
}
