// Package logging provides opt-in file-based logging with rotation for
// TallyMCP. When the --debug flag is set, structured JSON logs are written to
// ~/.tallymcp/logs/ for debugging and troubleshooting.
//
// By default (without --debug), logging is minimal and goes to stderr only.
package logging
