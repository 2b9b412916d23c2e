// Copyright 2025 Joseph Cumines
//
// Permission to use, copy, modify, and distribute this software for any
// purpose with or without fee is hereby granted, provided that this copyright
// notice appears in all copies.

package thread

import "time"

// options holds the tunables for a Runtime. There is normally exactly one
// Runtime per process (see runtime.go's idempotent Default), but tests
// construct private ones to exercise small N_MAX / short watchdog behavior
// without process-wide side effects.
type options struct {
	nMax               int
	lockStackCapacity  int
	reusableHighWater  int
	watchdogInterval   time.Duration
	reclaimHoldTime    time.Duration
}

// Option configures a Runtime at construction time.
type Option interface {
	apply(*options)
}

type optionFunc func(*options)

func (f optionFunc) apply(o *options) { f(o) }

// WithMaxThreads sets N_MAX, the size of the dense small_id space.
func WithMaxThreads(n int) Option {
	return optionFunc(func(o *options) { o.nMax = n })
}

// WithLockStackCapacity bounds how many frames a single thread's lock
// stack may hold before lock_got treats growth as a fatal overflow.
func WithLockStackCapacity(n int) Option {
	return optionFunc(func(o *options) { o.lockStackCapacity = n })
}

// WithSuspendWatchdog sets the bound after which a thread stuck honoring a
// suspend request panics with diagnostic output (spec.md §4.8).
func WithSuspendWatchdog(d time.Duration) Option {
	return optionFunc(func(o *options) { o.watchdogInterval = d })
}

// WithReclaimHoldTime sets how long a detached, exited thread's element is
// held before becoming eligible for reuse (spec.md §4.10 step 7).
func WithReclaimHoldTime(d time.Duration) Option {
	return optionFunc(func(o *options) { o.reclaimHoldTime = d })
}

func resolveOptions(opts []Option) *options {
	o := &options{
		nMax:              defaultNMax,
		lockStackCapacity: defaultLockStackCapacity,
		reusableHighWater: defaultReusableHighWater,
		watchdogInterval:  defaultWatchdogInterval,
		reclaimHoldTime:   defaultReclaimHoldTime,
	}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		opt.apply(o)
	}
	return o
}

const (
	defaultNMax              = 4096
	defaultLockStackCapacity = 320
	defaultReusableHighWater = 1024
	defaultWatchdogInterval  = 15 * time.Second
	defaultReclaimHoldTime   = 50 * time.Millisecond
)
