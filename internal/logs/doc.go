// Package logs powers `streamkeeper logs`: it reads structured events from
// the daemon's /api/logs endpoint and falls back to tailing the daemon log
// file over IPC when the HTTP API is disabled.
package logs
