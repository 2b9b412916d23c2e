// Copyright 2025 Joseph Cumines
//
// Permission to use, copy, modify, and distribute this software for any
// purpose with or without fee is hereby granted, provided that this copyright
// notice appears in all copies.

// Package thread implements a portable, in-process thread runtime: thread
// discovery and small-id assignment, per-thread lock-order accounting with
// deadlock detection, signal-like asynchronous notification delivered only
// at safe points, cooperative suspension, POSIX-style deferred
// cancellation with LIFO cleanup stacks, and a one-way crash-mode
// degradation switch. It does not manage a pool of worker goroutines, does
// not schedule work, and has no opinion on storage, compression, or wire
// protocols — those are the concerns of whatever embeds it.
package thread

import (
	"sync"
	"time"
)

// Runtime is the top-level handle through which every operation in this
// package is invoked. There is normally exactly one process-wide instance
// (see Default), but tests and embedders that need isolated small-id
// spaces or independent watchdog tuning can construct private ones with
// New.
type Runtime struct {
	reg       *registry
	opts      *options
	log       Logger
	metrics   *lockMetrics
	exitQueue *exitCallbackQueue
}

// New constructs an independent Runtime. Most programs want Default
// instead; New exists for tests and for embedders that need more than one
// isolated small-id space in the same process.
func New(opts ...Option) *Runtime {
	o := resolveOptions(opts)
	return &Runtime{
		reg:       newRegistry(o.nMax),
		opts:      o,
		metrics:   newLockMetrics(),
		exitQueue: newExitCallbackQueue(),
	}
}

// WithLogger attaches logger to rt, overriding the process-wide default
// installed via SetStructuredLogger for every call made through rt.
func (rt *Runtime) WithLogger(logger Logger) *Runtime {
	rt.log = logger
	return rt
}

var (
	defaultOnce sync.Once
	defaultRT   *Runtime
)

// Default returns the process-wide Runtime, constructing it on first use
// with package defaults (spec.md's "global mutable state: initialize
// once, never tear down"). Most callers should use the package-level
// functions below rather than calling Default directly; they exist so a
// single process can still opt into a private Runtime via New when it
// needs one.
func Default() *Runtime {
	defaultOnce.Do(func() {
		defaultRT = New()
	})
	return defaultRT
}

// The functions below forward to Default(), giving callers who never need
// more than one Runtime a flat, package-level API shaped like the
// operations in spec.md §6, without having to thread a *Runtime through
// their own call graphs.

func Self() *Element                    { return Default().Self() }
func Spawn(entry func(arg any) any, arg any, flags SpawnFlags, stackBytes int, exitCB func(arg any)) (int32, error) {
	return Default().Spawn(entry, arg, flags, stackBytes, exitCB)
}
func Exit(value any)                              { Default().Exit(value) }
func Join(id int32, nowait bool) (any, error)      { return Default().Join(id, nowait) }
func WaitUntil(id int32, deadline time.Time) (any, error) { return Default().WaitUntil(id, deadline) }
func Detach(id int32) error                        { return Default().Detach(id) }
func CancelSetState(new CancelState) (CancelState, error) { return Default().CancelSetState(new) }
func Cancel(id int32) error                        { return Default().Cancel(id) }
func CancelTest()                                  { Default().CancelTest() }
func CleanupPush(fn func(arg any), arg any, site string) { Default().CleanupPush(fn, arg, site) }
func CleanupPop(run bool, site string) error       { return Default().CleanupPop(run, site) }
func Kill(id int32, sig int) error                 { return Default().Kill(id, sig) }
func SigMask(how SigMaskHow, set uint32) (uint32, error) { return Default().SigMask(how, set) }
func SetHandler(sig int, h SignalHandler) error    { return Default().SetHandler(sig, h) }
func SigSuspend(mask uint32) bool                  { return Default().SigSuspend(mask) }
func Pause() bool                                  { return Default().Pause() }
func BlockPrepare() uint64                         { return Default().BlockPrepare() }
func Block(events uint64) error                    { return Default().Block(events) }
func TimedBlock(events uint64, deadline time.Time) error { return Default().TimedBlock(events, deadline) }
func Unblock(id int32) error                       { return Default().Unblock(id) }
func SleepMS(ms int64)                             { Default().SleepMS(ms) }
func SuspendOthers(waitForLocks bool)              { Default().SuspendOthers(waitForLocks) }
func UnsuspendOthers()                             { Default().UnsuspendOthers() }
func CheckSuspended() bool                         { return Default().CheckSuspended() }
func DrainExitCallbacks()                          { Default().DrainExitCallbacks() }
func EnterCrashMode()                              { Default().EnterCrashMode() }
