// Copyright 2025 Joseph Cumines
//
// Permission to use, copy, modify, and distribute this software for any
// purpose with or without fee is hereby granted, provided that this copyright
// notice appears in all copies.

// Package thread is the thread runtime at the heart of the gtk-gnutella
// peer-to-peer daemon: a uniform, portable thread abstraction layered over
// goroutines, providing thread discovery, per-thread lock accounting,
// in-process signals delivered only at safe points, cooperative suspension,
// POSIX-like deferred cancellation with a cleanup stack, and a crash-mode
// degradation switch for running diagnostics inside a wedged process.
//
// The runtime never manages kernel-level preemption, real-time scheduling,
// thread pools, or work stealing; it is a bookkeeping and coordination layer
// above whatever the host scheduler does.
//
// Callers interact with the runtime through package-level functions (Spawn,
// Join, WaitUntil, Cancel, Kill, Block/Unblock, ...). Entry points that act
// on the caller first resolve the calling goroutine to its Element via the
// discovery engine, so
// that goroutines never explicitly created by this package (foreign callers
// invoking any instrumented primitive) are still tracked once they first
// touch it.
package thread
