// Package notifications publishes streamer events to ntfy.
//
// NewService returns a no-op implementation when no topic is configured, so
// callers can publish unconditionally. Events cover a streamer coming online,
// the start and end of a recording, and capture failures; each one can be
// switched off in the [notifications] config section.
package notifications
