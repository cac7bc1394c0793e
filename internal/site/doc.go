// Package site defines the adapter contract used to poll live-stream sites and
// the dispatch table that maps site abbreviations (e.g. "CB") to adapters.
//
// Adapters are fail-closed: transport and decode failures are logged and
// reported as "not live" so the monitor simply retries on its next cycle.
package site
