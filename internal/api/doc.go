// Package api exposes scanning over HTTP.
//
// Scans run as in-memory jobs: POST /api/v1/scans starts one and returns 202,
// GET /api/v1/scans/{id} polls it and /report renders the finished report in
// any report format. Job updates are also pushed as Server-Sent Events on
// /api/v1/scans-stream. Nothing is persisted; finished jobs expire after the
// retention window.
package api
