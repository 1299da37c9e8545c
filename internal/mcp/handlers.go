package mcp

import (
	"context"
	"database/sql"
	"encoding/json"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/bagvoyage/bagvoyage/internal/config"
	"github.com/bagvoyage/bagvoyage/internal/errors"
	"github.com/bagvoyage/bagvoyage/internal/ops"
)

// Handlers holds dependencies for MCP tool handlers.
type Handlers struct {
	db  *sql.DB
	cfg *config.Config
}

// NewHandlers creates a new Handlers instance.
func NewHandlers(db *sql.DB, cfg *config.Config) *Handlers {
	return &Handlers{db: db, cfg: cfg}
}

// Request types for each tool

// SessionStartRequest represents the arguments for session_start.
type SessionStartRequest struct {
	Date     string `json:"date,omitempty"`
	Flight   string `json:"flight"`
	Client   string `json:"client,omitempty"`
	Remember bool   `json:"remember,omitempty"`
}

// SessionsListRequest represents the arguments for sessions_list.
type SessionsListRequest struct {
	Limit int `json:"limit,omitempty"`
}

// ScanSubmitRequest represents the arguments for scan_submit.
type ScanSubmitRequest struct {
	Code      string `json:"code"`
	Mode      string `json:"mode"`
	SessionID string `json:"session_id,omitempty"`
}

// ReportRequest represents the arguments for report.
type ReportRequest struct {
	Date   *string `json:"date,omitempty"`
	Flight *string `json:"flight,omitempty"`
	Client *string `json:"client,omitempty"`
}

// ExportRequest represents the arguments for export.
type ExportRequest struct {
	Path   string  `json:"path,omitempty"`
	Date   *string `json:"date,omitempty"`
	Flight *string `json:"flight,omitempty"`
	Client *string `json:"client,omitempty"`
}

// HardwareRequest represents the arguments for hardware.
type HardwareRequest struct {
	Enable          *bool  `json:"enable,omitempty"`
	DeviceSignature string `json:"device_signature,omitempty"`
}

// PurgeRequest represents the arguments for purge.
type PurgeRequest struct {
	OlderThanDays int `json:"older_than_days"`
}

// Handler implementations

// HandleSessionStart handles the session_start tool call.
func (h *Handlers) HandleSessionStart(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[SessionStartRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	result, err := ops.StartSession(h.db, h.cfg, ops.StartSessionInput{
		Date:     input.Date,
		Flight:   input.Flight,
		Client:   input.Client,
		Remember: input.Remember,
	})
	if err != nil {
		return errorResult(err), nil
	}

	return successResult(result)
}

// HandleSessionEnd handles the session_end tool call.
func (h *Handlers) HandleSessionEnd(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	result, err := ops.EndSession(h.db)
	if err != nil {
		return errorResult(err), nil
	}

	return successResult(result)
}

// HandleSessionsList handles the sessions_list tool call.
func (h *Handlers) HandleSessionsList(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[SessionsListRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	result, err := ops.Sessions(h.db, ops.SessionsInput{Limit: input.Limit})
	if err != nil {
		return errorResult(err), nil
	}

	return successResult(result)
}

// HandleScanSubmit handles the scan_submit tool call.
func (h *Handlers) HandleScanSubmit(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[ScanSubmitRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	switch input.Mode {
	case "tag":
		result, err := ops.Tag(h.db, h.cfg, ops.TagInput{
			SessionID: input.SessionID,
			Code:      input.Code,
		})
		if err != nil {
			return errorResult(err), nil
		}
		return successResult(result)
	case "retrieve":
		result, err := ops.Retrieve(h.db, h.cfg, ops.RetrieveInput{
			SessionID: input.SessionID,
			Code:      input.Code,
		})
		if err != nil {
			return errorResult(err), nil
		}
		return successResult(result)
	default:
		return errorResult(errors.NewInvalidRequest("mode must be \"tag\" or \"retrieve\"")), nil
	}
}

// HandleReport handles the report tool call.
func (h *Handlers) HandleReport(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[ReportRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	result, err := ops.Report(h.db, ops.ReportInput{
		Date:   input.Date,
		Flight: input.Flight,
		Client: input.Client,
	})
	if err != nil {
		return errorResult(err), nil
	}

	return successResult(result)
}

// HandleExport handles the export tool call.
func (h *Handlers) HandleExport(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[ExportRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	result, err := ops.Export(h.db, ops.ExportInput{
		Path:   input.Path,
		Date:   input.Date,
		Flight: input.Flight,
		Client: input.Client,
	})
	if err != nil {
		return errorResult(err), nil
	}

	return successResult(result)
}

// HandleHardware handles the hardware tool call.
func (h *Handlers) HandleHardware(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[HardwareRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	result, err := ops.Hardware(h.db, h.cfg, ops.HardwareInput{
		Enable:          input.Enable,
		DeviceSignature: input.DeviceSignature,
	})
	if err != nil {
		return errorResult(err), nil
	}

	return successResult(result)
}

// HandlePurge handles the purge tool call.
func (h *Handlers) HandlePurge(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[PurgeRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	result, err := ops.Purge(h.db, ops.PurgeInput{
		OlderThanDays: input.OlderThanDays,
	})
	if err != nil {
		return errorResult(err), nil
	}

	return successResult(result)
}

// Result helpers

// errorResult renders an error as a structured tool failure. INTERNAL
// errors keep their details out of the payload; everything the client
// needs is the code, message and status.
func errorResult(err error) *mcp.CallToolResult {
	body := map[string]any{
		"code":    "INTERNAL",
		"message": "an internal error occurred",
		"status":  500,
	}

	if bagErr, ok := err.(*errors.BagError); ok {
		body["code"] = bagErr.Code
		body["message"] = bagErr.Message
		body["status"] = bagErr.Status
		if bagErr.Code != errors.ErrInternal && bagErr.Details != nil {
			body["details"] = bagErr.Details
		}
	}

	content, _ := json.Marshal(map[string]any{"error": body})
	return &mcp.CallToolResult{
		Content: []mcp.Content{mcp.TextContent{Type: "text", Text: string(content)}},
		IsError: true,
	}
}

// successResult renders an operation output as a JSON tool result.
func successResult(data any) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultJSON(data)
}
