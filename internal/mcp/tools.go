package mcp

import "github.com/mark3labs/mcp-go/mcp"

var listMessagesToolDef = mcp.NewTool("mail_list_messages",
	mcp.WithDescription("List recent messages for the authenticated account, newest first."),
	mcp.WithNumber("limit",
		mcp.Description("Maximum number of messages to return (1-100, default 10)."),
	),
)

var searchMessagesToolDef = mcp.NewTool("mail_search_messages",
	mcp.WithDescription("Search messages with filtering, sorting and pagination."),
	mcp.WithString("sender", mcp.Description("Match messages from this address.")),
	mcp.WithString("subject", mcp.Description("Match messages whose subject contains this text.")),
	mcp.WithString("mailbox", mcp.Description("Restrict the search to one mailbox id.")),
	mcp.WithBoolean("read", mcp.Description("Match only read (true) or unread (false) messages.")),
	mcp.WithBoolean("has_attachment", mcp.Description("Match only messages with (true) or without (false) attachments.")),
	mcp.WithString("start_date", mcp.Description("Earliest received time, RFC 3339.")),
	mcp.WithString("end_date", mcp.Description("Latest received time, RFC 3339.")),
	mcp.WithString("sort_by", mcp.Description("Sort field: receivedAt, sentAt, subject or from (default receivedAt).")),
	mcp.WithBoolean("sort_ascending", mcp.Description("Sort ascending instead of the default descending.")),
	mcp.WithNumber("limit", mcp.Description("Page size (1-100, default 10).")),
	mcp.WithNumber("offset", mcp.Description("Position cursor into the result set (default 0).")),
)

var getMessageToolDef = mcp.NewTool("mail_get_message",
	mcp.WithDescription("Fetch one message by id."),
	mcp.WithString("message_id",
		mcp.Required(),
		mcp.Description("The message id to fetch."),
	),
	mcp.WithBoolean("include_body", mcp.Description("Include body parts and attachments.")),
	mcp.WithBoolean("include_headers", mcp.Description("Include raw message headers.")),
)

var listMailboxesToolDef = mcp.NewTool("mail_list_mailboxes",
	mcp.WithDescription("List mailboxes/folders with unread and total counts."),
	mcp.WithNumber("limit", mcp.Description("Page size (1-100, default 10).")),
	mcp.WithNumber("offset", mcp.Description("Position cursor into the mailbox list (default 0).")),
)

var listContactsToolDef = mcp.NewTool("contacts_list",
	mcp.WithDescription("List contacts for the account, sorted by name."),
	mcp.WithNumber("limit", mcp.Description("Maximum number of contacts to return (1-100, default 10).")),
)

var listEventsToolDef = mcp.NewTool("calendar_list_events",
	mcp.WithDescription("List upcoming calendar events, soonest first."),
	mcp.WithNumber("limit", mcp.Description("Maximum number of events to return (1-100, default 10).")),
)

var sendMessageToolDef = mcp.NewTool("mail_send_message",
	mcp.WithDescription("Validate and stage an outgoing message. Delivery is not implemented; the result always reports accepted=false."),
	mcp.WithArray("to",
		mcp.Required(),
		mcp.Description("Recipient email addresses."),
	),
	mcp.WithString("subject",
		mcp.Required(),
		mcp.Description("Message subject."),
	),
	mcp.WithString("body_text", mcp.Description("Plain-text body.")),
	mcp.WithString("body_html", mcp.Description("HTML body.")),
	mcp.WithArray("cc", mcp.Description("Carbon-copy addresses.")),
	mcp.WithArray("bcc", mcp.Description("Blind-carbon-copy addresses.")),
)
