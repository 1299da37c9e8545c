package mcp

import "github.com/mark3labs/mcp-go/mcp"

var sessionStartToolDef = mcp.NewTool("session_start",
	mcp.WithDescription("Start (or resume) a work session scoped to a calendar day, flight number and optional client. The session becomes the active target for scans."),
	mcp.WithString("date", mcp.Description("ISO calendar day (YYYY-MM-DD); defaults to today")),
	mcp.WithString("flight", mcp.Required(), mcp.Description("Flight number, e.g. AB123; stored uppercase")),
	mcp.WithString("client", mcp.Description("Optional handling client name")),
	mcp.WithBoolean("remember", mcp.Description("Persist the active session across restarts; default false (ephemeral)")),
)

var sessionEndToolDef = mcp.NewTool("session_end",
	mcp.WithDescription("End the active session. Recorded scans are kept; only the active-session pointer is cleared."),
)

var sessionsListToolDef = mcp.NewTool("sessions_list",
	mcp.WithDescription("List recent sessions, most recently used first, plus the active session if any."),
	mcp.WithNumber("limit", mcp.Description("Maximum sessions to return")),
)

var scanSubmitToolDef = mcp.NewTool("scan_submit",
	mcp.WithDescription("Submit a barcode value to the active session. In tag mode the code is recorded as checked in; in retrieve mode it is matched against tags for the same day and flight across all clients."),
	mcp.WithString("code", mcp.Required(), mcp.Description("Raw barcode value; digits are canonicalized (10 or 13 digit bag tag)")),
	mcp.WithString("mode", mcp.Required(), mcp.Description("\"tag\" or \"retrieve\""), mcp.Enum("tag", "retrieve")),
	mcp.WithString("session_id", mcp.Description("Explicit session ID; defaults to the active session")),
)

var reportToolDef = mcp.NewTool("report",
	mcp.WithDescription("List recorded scans with tag/retrieve/matched counters. All filters optional."),
	mcp.WithString("date", mcp.Description("Filter by calendar day (YYYY-MM-DD)")),
	mcp.WithString("flight", mcp.Description("Filter by flight number")),
	mcp.WithString("client", mcp.Description("Filter by handling client")),
)

var exportToolDef = mcp.NewTool("export",
	mcp.WithDescription("Export filtered scan records to a CSV file and return its path."),
	mcp.WithString("path", mcp.Description("Destination file path; defaults to the exports directory with a generated name")),
	mcp.WithString("date", mcp.Description("Filter by calendar day")),
	mcp.WithString("flight", mcp.Description("Filter by flight number")),
	mcp.WithString("client", mcp.Description("Filter by handling client")),
)

var hardwareToolDef = mcp.NewTool("hardware",
	mcp.WithDescription("Read or set the hardware-scanner input flag. With no arguments, reports the current state (including device-signature auto-detection)."),
	mcp.WithBoolean("enable", mcp.Description("Set the flag; omit to only read")),
	mcp.WithString("device_signature", mcp.Description("Device identity string used for auto-detection when the flag was never set")),
)

var purgeToolDef = mcp.NewTool("purge",
	mcp.WithDescription("Permanently delete sessions (and their records) older than the given number of days."),
	mcp.WithNumber("older_than_days", mcp.Required(), mcp.Description("Delete sessions not used for this many days")),
)
