// Package errs holds the sentinel errors shared by the transport layer.
// None of them are fatal to a running task; every loop in this module
// reacts to them and keeps going, except on ErrStopped, where it exits
// cleanly (see SPEC_FULL.md §3, spec.md §7).
package errs

import "errors"

var (
	// ErrNoConnection is raised by a blocked read/write when the link
	// is not in the Connected state, or drops out of it mid-call.
	ErrNoConnection = errors.New("streamctl: no connection")

	// ErrNoDataAvailable is raised by a non-blocking queue pop that
	// found nothing to return.
	ErrNoDataAvailable = errors.New("streamctl: no data available")

	// ErrInvalidPacketType is raised by the packet decoder when it
	// reads a tag byte outside the known enum range. The caller enters
	// resync.
	ErrInvalidPacketType = errors.New("streamctl: invalid packet type")

	// ErrDecode is raised by a decoder back-end on a malformed or
	// unsupported (e.g. DIFF_FRAME) encoded frame.
	ErrDecode = errors.New("streamctl: decode error")

	// ErrStopped unwinds a blocking operation when Stop() was called
	// concurrently. It is never surfaced to a user; loops treat it as
	// a clean exit.
	ErrStopped = errors.New("streamctl: stopped")

	// ErrAlreadyStarted is a programmer error: Start() called twice on
	// a task that is already running.
	ErrAlreadyStarted = errors.New("streamctl: already started")
)
