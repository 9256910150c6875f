// Package pages renders the HTML views of the upload workflow.
//
// Components are written in the .templ files next to this one; run
// `templ generate` after editing them.
package pages

import (
	"strconv"

	"github.com/hitpa/claimupload/internal/session"
	"github.com/hitpa/claimupload/internal/uploadlog"
)

// Title is shown in the page header and the browser tab.
const Title = "UIIC Claim Upload"

// PreviewRows is the number of sheet rows shown before conversion.
const PreviewRows = 50

// UploadData is the view model of the upload page.
type UploadData struct {
	Notices    []session.Notice
	Operations []string
	Selected   string

	FileName  string
	Headers   []string
	Preview   [][]string
	TotalRows int

	XML       string
	PrettyXML string
	Records   int

	Response *ResponseData
}

func (d UploadData) rowSummary() string {
	s := strconv.Itoa(d.TotalRows) + " rows"
	if d.TotalRows > len(d.Preview) {
		s += ", first " + strconv.Itoa(len(d.Preview)) + " shown"
	}
	return s
}

func (d UploadData) recordSummary() string {
	return strconv.Itoa(d.Records) + " records"
}

func (d UploadData) xmlText() string {
	if d.PrettyXML != "" {
		return d.PrettyXML
	}
	return d.XML
}

// ResponseData is the last submission shown on the upload page.
type ResponseData struct {
	Operation  string
	StatusCode int
	Accepted   bool
	Raw        string
	Pretty     string
	ParseErr   string
	Columns    []string
	Rows       [][]string
	Parsed     bool
}

// statusLine reports the transport outcome only. Per-claim results are in
// the parsed table.
func (r *ResponseData) statusLine() string {
	outcome := "rejected"
	if r.Accepted {
		outcome = "accepted"
	}
	return r.Operation + " returned status " + strconv.Itoa(r.StatusCode) + " (" + outcome + ")"
}

func noticeClass(level session.Level) string {
	if level == "" {
		level = session.LevelInfo
	}
	return "notice " + string(level)
}

func cellAt(row []string, i int) string {
	if i < len(row) {
		return row[i]
	}
	return ""
}

var logColumns = []string{"File name", "Timestamp (IST)", "Client IP"}

func logRows(entries []uploadlog.Entry) [][]string {
	rows := make([][]string, len(entries))
	for i, e := range entries {
		ts := ""
		if !e.Timestamp.IsZero() {
			ts = e.Timestamp.Format(uploadlog.TimestampLayout)
		}
		rows[i] = []string{e.FileName, ts, e.ClientIP}
	}
	return rows
}
