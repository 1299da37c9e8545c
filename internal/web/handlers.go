package web

import (
	"database/sql"
	"encoding/json"
	stderrors "errors"
	"log"
	"net/http"
	"strconv"

	"github.com/bagvoyage/bagvoyage/internal/config"
	"github.com/bagvoyage/bagvoyage/internal/errors"
	"github.com/bagvoyage/bagvoyage/internal/export"
	"github.com/bagvoyage/bagvoyage/internal/ops"
)

// Handlers contains HTTP route handlers for the API.
type Handlers struct {
	db      *sql.DB
	cfg     *config.Config
	version string
}

// HandleHealth handles GET /healthz.
func (h *Handlers) HandleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"version": h.version,
	})
}

// HandleSessions handles GET /api/sessions — recent sessions plus the active one.
func (h *Handlers) HandleSessions(w http.ResponseWriter, r *http.Request) {
	out, err := ops.Sessions(h.db, ops.SessionsInput{
		Limit: parseIntParam(r, "limit", 0),
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

// HandleSessionStart handles POST /api/sessions — start (or resume) a session.
func (h *Handlers) HandleSessionStart(w http.ResponseWriter, r *http.Request) {
	var input ops.StartSessionInput
	if err := decodeBody(r, &input); err != nil {
		writeError(w, err)
		return
	}

	out, err := ops.StartSession(h.db, h.cfg, input)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, out)
}

// HandleSessionEnd handles DELETE /api/sessions/active.
func (h *Handlers) HandleSessionEnd(w http.ResponseWriter, r *http.Request) {
	out, err := ops.EndSession(h.db)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

// HandleRecords handles GET /api/records — filtered listing with counters.
func (h *Handlers) HandleRecords(w http.ResponseWriter, r *http.Request) {
	out, err := ops.Report(h.db, ops.ReportInput{
		Date:   ptrString(r.URL.Query().Get("date")),
		Flight: ptrString(r.URL.Query().Get("flight")),
		Client: ptrString(r.URL.Query().Get("client")),
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

type scanRequest struct {
	SessionID string `json:"session_id,omitempty"`
	Mode      string `json:"mode"`
	Code      string `json:"code"`
}

// HandleScan handles POST /api/scans — a manually keyed or externally
// decoded code, routed to tag or retrieve by mode.
func (h *Handlers) HandleScan(w http.ResponseWriter, r *http.Request) {
	var req scanRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err)
		return
	}

	switch req.Mode {
	case "tag":
		out, err := ops.Tag(h.db, h.cfg, ops.TagInput{SessionID: req.SessionID, Code: req.Code})
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, out)
	case "retrieve":
		out, err := ops.Retrieve(h.db, h.cfg, ops.RetrieveInput{SessionID: req.SessionID, Code: req.Code})
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, out)
	default:
		writeError(w, errors.NewInvalidRequest("mode must be \"tag\" or \"retrieve\""))
	}
}

// HandleHardware handles GET and POST /api/hardware — hardware-scanner flag.
func (h *Handlers) HandleHardware(w http.ResponseWriter, r *http.Request) {
	input := ops.HardwareInput{
		DeviceSignature: r.URL.Query().Get("signature"),
	}

	if r.Method == http.MethodPost {
		var req struct {
			Enable          *bool  `json:"enable"`
			DeviceSignature string `json:"device_signature,omitempty"`
		}
		if err := decodeBody(r, &req); err != nil {
			writeError(w, err)
			return
		}
		input.Enable = req.Enable
		if req.DeviceSignature != "" {
			input.DeviceSignature = req.DeviceSignature
		}
	}

	out, err := ops.Hardware(h.db, h.cfg, input)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

// HandleExportCSV handles GET /export.csv — stream the filtered records
// as a CSV download.
func (h *Handlers) HandleExportCSV(w http.ResponseWriter, r *http.Request) {
	date := r.URL.Query().Get("date")
	flight := r.URL.Query().Get("flight")
	client := r.URL.Query().Get("client")

	out, err := ops.Report(h.db, ops.ReportInput{
		Date:   ptrString(date),
		Flight: ptrString(flight),
		Client: ptrString(client),
	})
	if err != nil {
		writeError(w, err)
		return
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="`+export.FileName(date, flight, client)+`"`)
	if err := export.WriteCSV(w, out.Records); err != nil {
		log.Printf("csv export failed: %v", err)
	}
}

// HandlePrint handles GET /print — printable HTML report.
func (h *Handlers) HandlePrint(w http.ResponseWriter, r *http.Request) {
	out, err := ops.Print(h.db, ops.PrintInput{
		Date:   ptrString(r.URL.Query().Get("date")),
		Flight: ptrString(r.URL.Query().Get("flight")),
		Client: ptrString(r.URL.Query().Get("client")),
	})
	if err != nil {
		writeError(w, err)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(out.HTML))
}

// decodeBody decodes a JSON request body into dst.
func decodeBody(r *http.Request, dst any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return errors.NewInvalidRequest("invalid JSON body: " + err.Error())
	}
	return nil
}

// writeJSON writes a JSON response with the given status.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("failed to encode response: %v", err)
	}
}

// writeError maps an error onto its HTTP status and JSON shape.
func writeError(w http.ResponseWriter, err error) {
	var be *errors.BagError
	if stderrors.As(err, &be) {
		writeJSON(w, be.Status, map[string]any{
			"error":   be.Code,
			"message": be.Message,
			"details": be.Details,
		})
		return
	}
	writeJSON(w, http.StatusInternalServerError, map[string]any{
		"error":   errors.ErrInternal,
		"message": err.Error(),
	})
}

// parseIntParam parses an integer query parameter with a default value.
func parseIntParam(r *http.Request, name string, defaultVal int) int {
	s := r.URL.Query().Get(name)
	if s == "" {
		return defaultVal
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return defaultVal
	}
	return v
}

// ptrString returns a pointer to s if non-empty, nil otherwise.
func ptrString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
