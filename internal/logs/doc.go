// Package logs reads back the wrapped log file.
//
// Tail returns the last N lines or everything after a byte offset, and can
// wait for new lines in follow mode. Filters narrow the output to one export
// job or a minimum level; they understand both the console and JSON formats
// the logging package writes.
package logs
