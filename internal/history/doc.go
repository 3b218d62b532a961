// Package history keeps a SQLite ledger of export jobs.
//
// Each image or video export writes one row when it starts and updates it on
// success or failure. Only metadata is kept (panel ids, outcome, output path,
// byte size); the exported media itself is never stored. Rows still marked
// running at startup belonged to a process that exited mid-export and are
// closed out by MarkInterrupted.
//
// Schema changes bump schemaVersion in store.go; users delete the database
// to adopt the new schema.
package history
