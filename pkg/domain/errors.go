package domain

import "errors"

// ErrPreloadFailed is returned when the native dependency check fails before binding.
var ErrPreloadFailed = errors.New("native preload failed")

// ErrBindExhausted is returned when every bind attempt failed.
// The aggregated per-attempt errors are joined to it.
var ErrBindExhausted = errors.New("no ephemeral port could be bound")

// ErrPublishFailed is returned when the bound port could not be written to the registry.
var ErrPublishFailed = errors.New("failed to publish port")

// ErrKeyNotFound is returned by registries when a key does not exist.
var ErrKeyNotFound = errors.New("registry key not found")

// ErrPoolClosed is returned when a task is submitted to a pool that was shut down.
var ErrPoolClosed = errors.New("worker pool is shut down")

// ErrPoolSaturated is returned when every worker is busy and the queue is full.
var ErrPoolSaturated = errors.New("worker pool is saturated")

// ErrEmptyFrame is returned when a peer closed the connection without sending anything.
var ErrEmptyFrame = errors.New("empty frame")

// ErrFrameTooLarge is returned when a frame exceeds the configured maximum size.
var ErrFrameTooLarge = errors.New("frame exceeds maximum size")

// ErrUnknownCommand is returned by routers when no handler is registered for a command.
var ErrUnknownCommand = errors.New("unknown command")

// ErrMissingCommand is returned when a decoded message carries no command.
var ErrMissingCommand = errors.New("message has no command")
