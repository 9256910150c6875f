// Package core provides the business logic for the claim upload workflow.
//
// This package holds the domain pipeline independent of any UI or transport
// layer. It can be used by web handlers, the JSON API, or tests without
// modification.
//
// # Pipeline
//
// A claim sheet moves through these steps, each a method on [Service]:
//
//  1. [Service.ReadSheet] parses an uploaded .xlsx or .csv into raw cells.
//  2. [Service.Archive] stores an encrypted copy of the original upload.
//  3. [Service.LogUpload] appends the upload to the CSV upload log.
//  4. [Service.Convert] normalizes headers into tags, cleans every cell and
//     serializes the records as an INPUT document.
//  5. [Service.Submit] wraps the document in a SOAP envelope and posts it to
//     the selected operation. Submissions run one at a time through the
//     [SubmissionGate].
//  6. [Service.ParseResponse] unwraps the escaped result payload, pretty
//     prints it and flattens its RECORD elements into a table, which is then
//     appended to the response history.
//
// # Acceptance and business outcome
//
// A [Submission] reports the HTTP status of the call (Accepted is true only
// for 200). Whether the claims themselves were accepted is only visible in
// the parsed result table; the two are never collapsed into one flag.
//
// # Error Handling
//
// Technical errors are mapped to user-friendly messages using [MapError].
// Each error category has a unique code for support reference:
//
//   - CNV001-CNV005: Conversion errors (unreadable sheet, duplicate tags, no header, foreign XML)
//   - SVC001-SVC003: Service errors (unknown operation, unreachable, busy)
//   - RSP001-RSP002: Response errors (missing result element, invalid payload)
//   - FILE001-FILE005: Upload errors (too large, no file selected, empty file)
//   - REQ001-REQ002: Request errors (cancelled, timed out)
//   - ENC001: Encryption key errors
package core
