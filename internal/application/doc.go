// Package application wires the resolved configuration into the external
// API: a settings snapshot, its handler and router, and the HTTP server.
// Keeping this here leaves the main package focused on CLI parsing and
// orchestration.
package application
