// Package cli provides the interactive trackmeta command-line client.
//
// It wires configuration, storage, the track service and an interactive REPL.
// Tracks are imported from JSON documents, edited tag by tag, compared with
// each other and archived to an S3-compatible bucket.
//
// The REPL is started via App.Run(ctx), which blocks until the user exits or
// stdin is exhausted. See App and runREPL for details.
package cli
