// Package cli implements the courier command line.
//
// Every command reads its settings from the environment (optionally seeded
// from a .env file) and prints its result as JSON or YAML on stdout. Logs go
// to stderr. Commands exit non-zero when a send, validation or health check
// fails, after printing the result.
package cli
