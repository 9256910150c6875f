package web

import (
	"bytes"
	"fmt"
	"io"
	"net/http"

	"github.com/a-h/templ"
	"github.com/hitpa/claimupload/internal/claimxml"
	"github.com/hitpa/claimupload/internal/core"
	"github.com/hitpa/claimupload/internal/logging"
	"github.com/hitpa/claimupload/internal/session"
	"github.com/hitpa/claimupload/internal/soap"
	"github.com/hitpa/claimupload/internal/spreadsheet"
	"github.com/hitpa/claimupload/internal/web/pages"
)

const (
	xmlFileName      = "converted_claim.xml"
	responseFileName = "uiic_response.xlsx"
	historyFileName  = "response_history.xlsx"
	xlsxContentType  = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

// handleUploadPage renders the upload workflow for the current session.
func (s *Server) handleUploadPage(w http.ResponseWriter, r *http.Request) {
	sess := session.FromContext(r.Context())
	sess.Lock()
	defer sess.Unlock()

	sess.View = session.ViewUpload
	render(w, r, pages.Upload(s.uploadData(sess)))
}

// handleLogsPage renders the upload log.
func (s *Server) handleLogsPage(w http.ResponseWriter, r *http.Request) {
	sess := session.FromContext(r.Context())
	sess.Lock()
	defer sess.Unlock()

	sess.View = session.ViewLogs
	entries, err := s.service.UploadLog()
	if err != nil {
		notifyError(r, sess, fmt.Errorf("read upload log: %w", err))
	}
	render(w, r, pages.Logs(sess.TakeNotices(), entries))
}

// handleSelectOperation changes the service the session submits to.
func (s *Server) handleSelectOperation(w http.ResponseWriter, r *http.Request) {
	sess := session.FromContext(r.Context())
	sess.Lock()
	defer sess.Unlock()

	op, err := s.service.Operation(r.FormValue("operation"))
	if err != nil {
		notifyError(r, sess, err)
		redirectHome(w, r)
		return
	}
	if op.Name != sess.Operation {
		sess.Operation = op.Name
		sess.ClearResponse()
	}
	redirectHome(w, r)
}

// handleUpload reads, archives and logs an uploaded sheet, then converts it.
func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sess := session.FromContext(ctx)
	sess.Lock()
	defer sess.Unlock()
	defer redirectHome(w, r)

	fileName, data, err := s.readUpload(w, r)
	if err != nil {
		notifyError(r, sess, err)
		return
	}

	sheet, err := s.service.ReadSheet(ctx, fileName, data)
	if err != nil {
		notifyError(r, sess, err)
		return
	}
	if _, err := s.service.Archive(ctx, fileName, data); err != nil {
		notifyError(r, sess, err)
		return
	}

	sess.SetUpload(fileName, sheet.Headers, sheet.Rows)
	if !sess.Logged {
		if _, err := s.service.LogUpload(ctx, fileName); err != nil {
			logging.FromContext(ctx).Error("upload log write failed", "file", fileName, "error", err)
			sess.Notify(session.LevelWarning, "The upload could not be written to the log", "")
		} else {
			sess.Logged = true
		}
	}
	sess.Notify(session.LevelSuccess, "Uploaded "+fileName, fmt.Sprintf("%d rows read", len(sheet.Rows)))

	s.convertSession(r, sess)
}

// handleRegenerate converts the cached sheet again.
func (s *Server) handleRegenerate(w http.ResponseWriter, r *http.Request) {
	sess := session.FromContext(r.Context())
	sess.Lock()
	defer sess.Unlock()
	defer redirectHome(w, r)

	if !sess.HasUpload() {
		sess.Notify(session.LevelWarning, "Upload a sheet first", "")
		return
	}
	s.convertSession(r, sess)
}

func (s *Server) convertSession(r *http.Request, sess *session.Session) {
	conv, err := s.service.Convert(r.Context(), sess.Headers, sess.Rows)
	if err != nil {
		sess.SetXML("", 0)
		notifyError(r, sess, err)
		return
	}
	sess.SetXML(conv.XML, conv.Records)
	sess.Notify(session.LevelSuccess, "XML generated", fmt.Sprintf("%d records", conv.Records))
}

// handleDownloadXML serves the converted document as an attachment.
func (s *Server) handleDownloadXML(w http.ResponseWriter, r *http.Request) {
	sess := session.FromContext(r.Context())
	sess.Lock()
	defer sess.Unlock()

	if sess.XML == "" {
		sess.Notify(session.LevelWarning, "There is no XML to download", "Upload a sheet first")
		redirectHome(w, r)
		return
	}
	attachment(w, "application/xml; charset=utf-8", xmlFileName, []byte(sess.XML))
}

// handleSubmit posts the session's document to the selected operation.
func (s *Server) handleSubmit(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sess := session.FromContext(ctx)
	sess.Lock()
	defer sess.Unlock()
	defer redirectHome(w, r)

	if sess.XML == "" {
		sess.Notify(session.LevelWarning, "Generate the XML before submitting", "")
		return
	}

	operation := r.FormValue("operation")
	if operation == "" {
		operation = string(s.selectedOperation(sess))
	}

	sub, err := s.service.Submit(ctx, operation, sess.XML)
	if err != nil {
		notifyError(r, sess, err)
		return
	}
	sess.Operation = sub.Operation.Name
	sess.SetResponse(sub.Response)

	switch {
	case sub.Err() != nil:
		notifyError(r, sess, sub.Err())
	case sub.Accepted:
		sess.Notify(session.LevelSuccess, "Submitted to "+string(sub.Operation.Name),
			fmt.Sprintf("HTTP %d in %d ms", sub.StatusCode, sub.Response.Duration.Milliseconds()))
	default:
		sess.Notify(session.LevelWarning,
			fmt.Sprintf("%s returned HTTP %d", sub.Operation.Name, sub.StatusCode),
			"Review the raw response below")
	}
}

// handleParseResponse unwraps the last response into a table and appends it
// to the response history.
func (s *Server) handleParseResponse(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sess := session.FromContext(ctx)
	sess.Lock()
	defer sess.Unlock()
	defer redirectHome(w, r)

	if sess.Response == nil {
		sess.Notify(session.LevelWarning, "Submit the XML first", "")
		return
	}

	parsed, err := s.service.ParseResponse(ctx, sess.Response.Body)
	if err != nil {
		logging.FromContext(ctx).Warn("response not parsed", "error", err)
		sess.SetParseError(core.FormatUserError(err))
		return
	}
	sess.SetParsed(parsed.Pretty, parsed.Table)

	if parsed.Table.Len() == 0 {
		sess.Notify(session.LevelWarning, "The response contains no records", "")
		return
	}
	if err := s.service.SaveHistory(ctx, s.selectedOperation(sess), parsed.Table); err != nil {
		notifyError(r, sess, err)
		return
	}
	sess.Notify(session.LevelSuccess,
		fmt.Sprintf("%d response rows added to history", parsed.Table.Len()), "")
}

// handleDownloadResponse serves the parsed response table as a workbook.
func (s *Server) handleDownloadResponse(w http.ResponseWriter, r *http.Request) {
	sess := session.FromContext(r.Context())
	sess.Lock()
	defer sess.Unlock()

	if sess.Table == nil || sess.Table.Len() == 0 {
		sess.Notify(session.LevelWarning, "There is no response table to download", "")
		redirectHome(w, r)
		return
	}
	s.writeTable(w, r, responseFileName, *sess.Table)
}

// handleDownloadHistory serves every saved response row as a workbook.
func (s *Server) handleDownloadHistory(w http.ResponseWriter, r *http.Request) {
	table, err := s.service.History(r.Context())
	if err != nil {
		s.respondError(w, r, err, http.StatusInternalServerError)
		return
	}
	if table.Len() == 0 {
		sess := session.FromContext(r.Context())
		sess.Lock()
		sess.Notify(session.LevelInfo, "No response history yet", "")
		sess.Unlock()
		redirectHome(w, r)
		return
	}
	s.writeTable(w, r, historyFileName, table)
}

// handleReset clears the session's upload and response.
func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	sess := session.FromContext(r.Context())
	sess.Lock()
	defer sess.Unlock()

	sess.Reset()
	redirectHome(w, r)
}

// readUpload returns the name and content of the "file" form field.
func (s *Server) readUpload(w http.ResponseWriter, r *http.Request) (string, []byte, error) {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.Upload.MaxFileSize)
	if err := r.ParseMultipartForm(s.cfg.Upload.MaxFileSize); err != nil {
		return "", nil, fmt.Errorf("parse upload form: %w", err)
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		return "", nil, fmt.Errorf("read upload: %w", err)
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return "", nil, fmt.Errorf("read upload: %w", err)
	}
	return header.Filename, data, nil
}

func (s *Server) selectedOperation(sess *session.Session) soap.OperationName {
	if sess.Operation != "" {
		return sess.Operation
	}
	return soap.Intimation
}

func (s *Server) uploadData(sess *session.Session) pages.UploadData {
	d := pages.UploadData{
		Notices:   sess.TakeNotices(),
		Selected:  string(s.selectedOperation(sess)),
		FileName:  sess.FileName,
		Headers:   sess.Headers,
		TotalRows: len(sess.Rows),
		XML:       sess.XML,
		Records:   sess.Records,
	}
	for _, op := range s.service.Operations() {
		d.Operations = append(d.Operations, string(op.Name))
	}

	n := min(len(sess.Rows), pages.PreviewRows)
	d.Preview = make([][]string, n)
	for i := 0; i < n; i++ {
		d.Preview[i] = rowValues(sess.Rows[i], len(sess.Headers))
	}

	if sess.XML != "" {
		if pretty, err := s.service.PrettyXML(sess.XML); err == nil {
			d.PrettyXML = pretty
		}
	}

	if sess.Response != nil {
		resp := &pages.ResponseData{
			Operation:  d.Selected,
			StatusCode: sess.Response.StatusCode,
			Accepted:   sess.Response.OK(),
			Raw:        sess.Response.Body,
			Pretty:     sess.Pretty,
			ParseErr:   sess.ParseErr,
			Parsed:     sess.Table != nil,
		}
		if sess.Table != nil {
			resp.Columns = sess.Table.Columns
			resp.Rows = tableRows(*sess.Table)
		}
		d.Response = resp
	}
	return d
}

func rowValues(row claimxml.Row, width int) []string {
	out := make([]string, width)
	for i := 0; i < width; i++ {
		out[i] = row.Cell(i).String()
	}
	return out
}

func tableRows(t soap.Table) [][]string {
	rows := make([][]string, t.Len())
	for i := range rows {
		rows[i] = t.Values(i)
	}
	return rows
}

// writeTable renders t to a workbook before sending any headers so a write
// failure can still be reported.
func (s *Server) writeTable(w http.ResponseWriter, r *http.Request, fileName string, t soap.Table) {
	var buf bytes.Buffer
	if err := spreadsheet.WriteXLSX(&buf, t.Columns, tableRows(t)); err != nil {
		s.respondError(w, r, fmt.Errorf("write %s: %w", fileName, err), http.StatusInternalServerError)
		return
	}
	attachment(w, xlsxContentType, fileName, buf.Bytes())
}

func attachment(w http.ResponseWriter, contentType, fileName string, body []byte) {
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, fileName))
	w.Write(body)
}

func render(w http.ResponseWriter, r *http.Request, c templ.Component) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := c.Render(r.Context(), w); err != nil {
		logging.FromContext(r.Context()).Error("render failed", "path", r.URL.Path, "error", err)
	}
}

func redirectHome(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, "/", http.StatusSeeOther)
}
