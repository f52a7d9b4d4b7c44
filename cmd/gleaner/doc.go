// Package main hosts the gleaner CLI.
//
// The Cobra command tree loads configuration, builds a logger and an
// extractor, and hands files to the library. Subcommands extract a single
// file, serve the HTTP API, validate saved JSON results and scaffold a
// configuration file.
package main
