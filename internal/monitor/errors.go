package monitor

import (
	"fmt"

	"streamkeeper/internal/services"
)

var (
	// ErrDuplicateStreamer is returned by Add for an identity already registered.
	ErrDuplicateStreamer = fmt.Errorf("%w: streamer already monitored", services.ErrValidation)
	// ErrUnknownStreamer is returned when no registered streamer matches.
	ErrUnknownStreamer = fmt.Errorf("%w: streamer not monitored", services.ErrNotFound)
	// ErrInvalidUsername is returned for usernames unusable as a path component.
	ErrInvalidUsername = fmt.Errorf("%w: invalid username", services.ErrValidation)
	// ErrStopping is returned by Start while a previous Stop is still tearing down.
	ErrStopping = fmt.Errorf("%w: streamer is stopping", services.ErrTransient)
	// ErrClosed is returned by mutations after Shutdown.
	ErrClosed = fmt.Errorf("%w: monitor is shut down", services.ErrValidation)
)
