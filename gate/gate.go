// Package gate delays delivery of parsed atlas and font tables until the base
// image they reference has finished decoding.
package gate

import "sync"

// Image is a handle to an asynchronously decoded image.
type Image interface {
	// Loaded reports whether decoding has completed.
	Loaded() bool
	// OnLoaded subscribes to decode completion. Implementations must call fn
	// exactly once, immediately if decoding has already completed.
	OnLoaded(fn func())
}

// Register delivers result to onReady once img has loaded: synchronously if it
// already has, otherwise from the completion notification. onReady is invoked
// at most once per registration.
func Register[T any](img Image, result T, onReady func(T)) {
	var once sync.Once
	deliver := func() {
		once.Do(func() { onReady(result) })
	}
	if img.Loaded() {
		deliver()
		return
	}
	img.OnLoaded(deliver)
}
