package web

import (
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/hitpa/claimupload/internal/core"
	"github.com/hitpa/claimupload/internal/logging"
)

// OperationInfo describes a configured service operation.
type OperationInfo struct {
	Name   string `json:"name"`
	URL    string `json:"url"`
	Method string `json:"method"`
	Action string `json:"soap_action"`
	Result string `json:"result"`
}

// ConvertResponse is returned by POST /api/convert.
type ConvertResponse struct {
	File    string `json:"file"`
	Rows    int    `json:"rows"`
	Records int    `json:"records"`
	XML     string `json:"xml"`
	Pretty  string `json:"pretty,omitempty"`
}

// TableResponse is a flattened service result.
type TableResponse struct {
	Pretty  string              `json:"pretty"`
	Columns []string            `json:"columns"`
	Rows    []map[string]string `json:"rows"`
}

// SubmitResponse is returned by POST /api/submit/{operation}.
type SubmitResponse struct {
	Operation  string         `json:"operation"`
	Records    int            `json:"records"`
	StatusCode int            `json:"status_code"`
	Accepted   bool           `json:"accepted"`
	DurationMS int64          `json:"duration_ms"`
	Response   string         `json:"response"`
	Parsed     *TableResponse `json:"parsed,omitempty"`
	ParseError *ErrorResponse `json:"parse_error,omitempty"`
}

func (s *Server) handleAPIOperations(w http.ResponseWriter, r *http.Request) {
	ops := s.service.Operations()
	out := make([]OperationInfo, len(ops))
	for i, op := range ops {
		out[i] = OperationInfo{
			Name:   string(op.Name),
			URL:    op.URL,
			Method: op.Method,
			Action: op.Action,
			Result: op.Result,
		}
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleAPIStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"submissions": s.service.SubmissionStatus(),
		"sessions":    s.sessions.Len(),
	})
}

// handleAPIConvert converts a multipart "file" upload. The upload is
// archived and logged like a browser upload. ?pretty=true adds an indented
// copy of the document.
func (s *Server) handleAPIConvert(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	fileName, data, err := s.readUpload(w, r)
	if err != nil {
		s.respondError(w, r, err, statusForUpload(err))
		return
	}

	sheet, err := s.service.ReadSheet(ctx, fileName, data)
	if err != nil {
		s.respondError(w, r, err, statusFor(err))
		return
	}
	if _, err := s.service.Archive(ctx, fileName, data); err != nil {
		s.respondError(w, r, err, statusFor(err))
		return
	}
	if _, err := s.service.LogUpload(ctx, fileName); err != nil {
		logging.FromContext(ctx).Error("upload log write failed", "file", fileName, "error", err)
	}

	conv, err := s.service.Convert(ctx, sheet.Headers, sheet.Rows)
	if err != nil {
		s.respondError(w, r, err, statusFor(err))
		return
	}

	resp := ConvertResponse{File: fileName, Rows: len(sheet.Rows), Records: conv.Records, XML: conv.XML}
	if queryBool(r, "pretty") {
		if pretty, err := s.service.PrettyXML(conv.XML); err == nil {
			resp.Pretty = pretty
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

// handleAPISubmit posts the request body, an INPUT document, to the named
// operation. Bodies that are not INPUT documents are refused before any
// remote call. The service's status is reported, not mirrored: any answered
// call is a 200 with accepted set from the service status. ?parse=true
// unwraps the result and appends it to the response history.
func (s *Server) handleAPISubmit(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	body, err := s.readBody(w, r)
	if err != nil {
		s.respondError(w, r, err, statusForUpload(err))
		return
	}
	if len(body) == 0 {
		s.respondError(w, r, core.ErrEmptyFile, http.StatusBadRequest)
		return
	}

	records, err := s.service.CheckDocument(ctx, string(body))
	if err != nil {
		s.respondError(w, r, err, statusFor(err))
		return
	}

	sub, err := s.service.Submit(ctx, chi.URLParam(r, "operation"), string(body))
	if err != nil {
		s.respondError(w, r, err, statusFor(err))
		return
	}
	if err := sub.Err(); err != nil {
		s.respondError(w, r, err, statusFor(err))
		return
	}

	resp := SubmitResponse{
		Operation:  string(sub.Operation.Name),
		Records:    records,
		StatusCode: sub.StatusCode,
		Accepted:   sub.Accepted,
		DurationMS: sub.Response.Duration.Milliseconds(),
		Response:   sub.Response.Body,
	}

	if queryBool(r, "parse") {
		parsed, err := s.service.ParseResponse(ctx, sub.Response.Body)
		if err != nil {
			msg := core.MapError(err)
			resp.ParseError = &ErrorResponse{Error: msg.Message, Message: msg.Message, Action: msg.Action, Code: msg.Code}
		} else {
			resp.Parsed = tableResponse(parsed)
			if err := s.service.SaveHistory(ctx, sub.Operation.Name, parsed.Table); err != nil {
				logging.FromContext(ctx).Error("history append failed", "error", err)
			}
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

// handleAPIUnwrap flattens a raw service response posted as the body.
func (s *Server) handleAPIUnwrap(w http.ResponseWriter, r *http.Request) {
	body, err := s.readBody(w, r)
	if err != nil {
		s.respondError(w, r, err, statusForUpload(err))
		return
	}

	parsed, err := s.service.ParseResponse(r.Context(), string(body))
	if err != nil {
		s.respondError(w, r, err, statusFor(err))
		return
	}
	writeJSON(w, http.StatusOK, tableResponse(parsed))
}

func (s *Server) readBody(w http.ResponseWriter, r *http.Request) ([]byte, error) {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.Upload.MaxFileSize)
	body, err := io.ReadAll(r.Body)
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	return body, nil
}

func tableResponse(p core.Parsed) *TableResponse {
	t := &TableResponse{Pretty: p.Pretty, Columns: p.Table.Columns, Rows: p.Table.Rows}
	if t.Columns == nil {
		t.Columns = []string{}
	}
	if t.Rows == nil {
		t.Rows = []map[string]string{}
	}
	return t
}

// statusForUpload is statusFor with malformed requests reported as 400.
func statusForUpload(err error) int {
	if code := statusFor(err); code != http.StatusInternalServerError {
		return code
	}
	return http.StatusBadRequest
}

func queryBool(r *http.Request, name string) bool {
	v, _ := strconv.ParseBool(r.URL.Query().Get(name))
	return v
}
