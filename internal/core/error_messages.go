package core

// # Error Codes Reference
//
// This file defines user-friendly error messages with codes for support reference.
// When users encounter errors, they can quote the error code to support staff
// for faster diagnosis.
//
// # Conversion Errors (CNV001-CNV099)
//
//	CNV001 - Conversion failed: the sheet produced no usable XML
//	         Action: Check the sheet has a header row and at least one data row
//	CNV002 - Unreadable sheet: the upload is not a readable .xlsx or .csv
//	         Action: Re-save the file as .xlsx and upload again
//	CNV003 - Duplicate columns: two headers normalize to the same tag
//	         Action: Rename one of the columns
//	CNV004 - No header: the sheet is empty
//	         Action: Add the header row
//	CNV005 - Not a claim document: posted XML is not an INPUT document
//	         Action: Send the XML produced by the converter
//
// # Service Errors (SVC001-SVC099)
//
//	SVC001 - Unknown operation
//	         Action: Choose one of the listed services
//	SVC002 - Service unreachable: the request never got a response
//	         Action: Check connectivity and try again
//	SVC003 - Service busy: another submission is in progress
//	         Action: Wait for it to finish and try again
//
// # Response Errors (RSP001-RSP099)
//
//	RSP001 - Result element missing from the service response
//	         Action: Check the selected service matches the uploaded data
//	RSP002 - Result payload is not valid XML
//	         Action: Review the raw response shown on the page
//
// # Encryption Errors (ENC001-ENC099)
//
//	ENC001 - Encryption key unavailable
//	         Action: Generate a key with keygen or fix ENCRYPTION_KEY_FILE
//
// # File Errors (FILE001-FILE099)
//
//	FILE001 - File too large
//	FILE004 - No file was selected
//	FILE005 - The uploaded file is empty
//
// # Request Errors (REQ001-REQ099)
//
//	REQ001 - Request cancelled
//	REQ002 - Request timed out
//
// # Default Error (ERR000)
//
//	ERR000 - Unknown error: An unexpected error occurred
//	         Action: Please try again or contact support
//
// # Matching
//
// Sentinel errors are matched first with errors.Is, in table order. Errors
// that carry no sentinel fall back to case-insensitive substring patterns.
// The first match wins.

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/hitpa/claimupload/internal/archive"
	"github.com/hitpa/claimupload/internal/claimxml"
	"github.com/hitpa/claimupload/internal/soap"
	"github.com/hitpa/claimupload/internal/spreadsheet"
)

// UserMessage provides user-friendly error information with actionable guidance.
type UserMessage struct {
	Message string // What happened (user-friendly)
	Action  string // What to do about it
	Code    string // Error code for support reference
}

type errorSentinel struct {
	target error
	msg    UserMessage
}

var errorSentinels = []errorSentinel{
	{ErrConversion, UserMessage{
		Message: "The sheet could not be converted to XML",
		Action:  "Check the sheet has a header row and at least one data row",
		Code:    "CNV001",
	}},
	{spreadsheet.ErrUnreadable, UserMessage{
		Message: "The uploaded file is not a readable spreadsheet",
		Action:  "Re-save the file as .xlsx and upload again",
		Code:    "CNV002",
	}},
	{claimxml.ErrTagCollision, UserMessage{
		Message: "Two columns map to the same XML tag",
		Action:  "Rename one of the duplicate columns",
		Code:    "CNV003",
	}},
	{spreadsheet.ErrNoHeader, UserMessage{
		Message: "The sheet has no header row",
		Action:  "Add the column headers in the first row",
		Code:    "CNV004",
	}},
	{claimxml.ErrNotClaimDocument, UserMessage{
		Message: "The XML is not a claim INPUT document",
		Action:  "Send the XML produced by the converter",
		Code:    "CNV005",
	}},
	{soap.ErrUnknownOperation, UserMessage{
		Message: "Unknown service operation",
		Action:  "Choose one of the listed services",
		Code:    "SVC001",
	}},
	{ErrTransport, UserMessage{
		Message: "The claim service could not be reached",
		Action:  "Check connectivity and try again",
		Code:    "SVC002",
	}},
	{ErrSubmissionBusy, UserMessage{
		Message: "Another submission is in progress",
		Action:  "Wait for it to finish and try again",
		Code:    "SVC003",
	}},
	{soap.ErrResultTagNotFound, UserMessage{
		Message: "The service response has no result element",
		Action:  "Check the selected service matches the uploaded data",
		Code:    "RSP001",
	}},
	{soap.ErrInnerPayload, UserMessage{
		Message: "The service result is not valid XML",
		Action:  "Review the raw response shown on the page",
		Code:    "RSP002",
	}},
	{archive.ErrKeyMaterial, UserMessage{
		Message: "The encryption key is unavailable",
		Action:  "Generate a key with keygen or fix ENCRYPTION_KEY_FILE",
		Code:    "ENC001",
	}},
	{ErrEmptyFile, UserMessage{
		Message: "The uploaded file is empty",
		Action:  "Please upload a sheet with data rows",
		Code:    "FILE005",
	}},
	{context.Canceled, UserMessage{
		Message: "Request was cancelled",
		Action:  "Please try again",
		Code:    "REQ001",
	}},
	{context.DeadlineExceeded, UserMessage{
		Message: "Request timed out",
		Action:  "Please try again in a few moments",
		Code:    "REQ002",
	}},
}

// errorPattern defines a pattern to match and its corresponding user message.
type errorPattern struct {
	pattern string
	msg     UserMessage
}

// errorPatterns maps technical error text (case-insensitive) to user messages
// for errors without a sentinel, such as those produced by net/http.
var errorPatterns = []errorPattern{
	{
		pattern: "request body too large",
		msg: UserMessage{
			Message: "File exceeds the maximum upload size",
			Action:  "Split the sheet into smaller files",
			Code:    "FILE001",
		},
	},
	{
		pattern: "file too large",
		msg: UserMessage{
			Message: "File exceeds the maximum upload size",
			Action:  "Split the sheet into smaller files",
			Code:    "FILE001",
		},
	},
	{
		pattern: "no such file",
		msg: UserMessage{
			Message: "No file was selected",
			Action:  "Please select a spreadsheet to upload",
			Code:    "FILE004",
		},
	},
	{
		pattern: "no file provided",
		msg: UserMessage{
			Message: "No file was selected",
			Action:  "Please select a spreadsheet to upload",
			Code:    "FILE004",
		},
	},
	{
		pattern: "empty file",
		msg: UserMessage{
			Message: "The uploaded file is empty",
			Action:  "Please upload a sheet with data rows",
			Code:    "FILE005",
		},
	},
}

// defaultMessage is returned when nothing matches (ERR000).
// Support staff should check application logs for the original technical
// error when users report ERR000.
var defaultMessage = UserMessage{
	Message: "An unexpected error occurred",
	Action:  "Please try again or contact support",
	Code:    "ERR000",
}

// MapError converts a technical error to a user-friendly message.
//
// Example:
//
//	msg := MapError(fmt.Errorf("submit: %w", soap.ErrUnknownOperation))
//	// msg.Code == "SVC001"
func MapError(err error) UserMessage {
	if err == nil {
		return UserMessage{}
	}

	for _, s := range errorSentinels {
		if errors.Is(err, s.target) {
			return s.msg
		}
	}

	errStr := strings.ToLower(err.Error())
	for _, ep := range errorPatterns {
		if strings.Contains(errStr, ep.pattern) {
			return ep.msg
		}
	}

	return defaultMessage
}

// FormatUserError creates a formatted error string for display.
// The format is: "Message (Code: XXX). Action"
func FormatUserError(err error) string {
	msg := MapError(err)
	if msg.Message == "" {
		return ""
	}
	return fmt.Sprintf("%s (Code: %s). %s", msg.Message, msg.Code, msg.Action)
}

// IsUserFacing reports whether err maps to a specific message rather than
// the ERR000 fallback.
func IsUserFacing(err error) bool {
	if err == nil {
		return false
	}
	return MapError(err).Code != defaultMessage.Code
}

// UserError wraps a technical error with a user-friendly message.
// The original error is preserved for logging.
type UserError struct {
	Technical error       // Original technical error for logging
	User      UserMessage // User-friendly message for display
}

func (e *UserError) Error() string {
	return e.User.Message
}

func (e *UserError) Unwrap() error {
	return e.Technical
}

// NewUserError creates a UserError by mapping a technical error to a user-friendly message.
// Returns nil if err is nil.
func NewUserError(err error) *UserError {
	if err == nil {
		return nil
	}
	return &UserError{
		Technical: err,
		User:      MapError(err),
	}
}
