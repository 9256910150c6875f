// Package session holds per-browser state for the upload workflow.
package session

import (
	"sync"
	"time"

	"github.com/hitpa/claimupload/internal/claimxml"
	"github.com/hitpa/claimupload/internal/soap"
)

// View is the page a session is currently on.
type View string

const (
	ViewUpload View = "upload"
	ViewLogs   View = "logs"
)

// Session is the state of one user's workflow. Handlers hold Lock for the
// whole of an interaction so interactions within a session never overlap.
type Session struct {
	sync.Mutex

	ID       string
	View     View
	LastSeen time.Time

	Operation soap.OperationName

	// Upload
	FileName string
	Headers  []string
	Rows     []claimxml.Row
	Records  int
	XML      string
	// Logged is set once the current upload has been written to the upload
	// log, so reruns of the page do not log it again.
	Logged bool

	// Submission
	Response *soap.Response
	Pretty   string
	Table    *soap.Table
	ParseErr string

	notices []Notice
}

// Level is the severity of a Notice.
type Level string

const (
	LevelSuccess Level = "success"
	LevelInfo    Level = "info"
	LevelWarning Level = "warning"
	LevelError   Level = "error"
)

// Notice is a message shown once on the next page render.
type Notice struct {
	Level   Level
	Message string
	Detail  string
}

// Notify queues a notice for the next render.
func (s *Session) Notify(level Level, message, detail string) {
	s.notices = append(s.notices, Notice{Level: level, Message: message, Detail: detail})
}

// TakeNotices returns the queued notices and clears them.
func (s *Session) TakeNotices() []Notice {
	n := s.notices
	s.notices = nil
	return n
}

// HasUpload reports whether a sheet has been uploaded and read.
func (s *Session) HasUpload() bool {
	return s.FileName != "" && s.Headers != nil
}

// SetUpload replaces the cached sheet and clears every result derived from
// the previous one.
func (s *Session) SetUpload(fileName string, headers []string, rows []claimxml.Row) {
	if fileName != s.FileName {
		s.Logged = false
	}
	s.FileName = fileName
	s.Headers = headers
	s.Rows = rows
	s.XML = ""
	s.Records = 0
	s.ClearResponse()
}

// SetXML stores a newly generated document and drops any response to the
// previous one.
func (s *Session) SetXML(xml string, records int) {
	s.XML = xml
	s.Records = records
	s.ClearResponse()
}

// SetResponse records the outcome of a submission.
func (s *Session) SetResponse(resp soap.Response) {
	s.ClearResponse()
	s.Response = &resp
}

// SetParsed records the unwrapped response and its table.
func (s *Session) SetParsed(pretty string, table soap.Table) {
	s.Pretty = pretty
	s.Table = &table
	s.ParseErr = ""
}

// SetParseError records why the response could not be unwrapped.
func (s *Session) SetParseError(msg string) {
	s.Pretty = ""
	s.Table = nil
	s.ParseErr = msg
}

// ClearResponse drops the submission result.
func (s *Session) ClearResponse() {
	s.Response = nil
	s.Pretty = ""
	s.Table = nil
	s.ParseErr = ""
}

// Reset returns the session to a fresh upload page.
// The selected operation is kept.
func (s *Session) Reset() {
	s.View = ViewUpload
	s.FileName = ""
	s.Headers = nil
	s.Rows = nil
	s.Records = 0
	s.XML = ""
	s.Logged = false
	s.ClearResponse()
}
