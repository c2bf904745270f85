package models

import "errors"

var (
	// ErrInvalidInput marks requests missing required fields. Never retried.
	ErrInvalidInput = errors.New("invalid input")
	// ErrUpstreamUnavailable marks provider failures after retries are exhausted.
	ErrUpstreamUnavailable = errors.New("upstream unavailable")
	// ErrPartialPipelineFailure marks an orchestrator run where a stage failed.
	ErrPartialPipelineFailure = errors.New("partial pipeline failure")
	// ErrNoData marks a successful query that returned nothing usable.
	ErrNoData = errors.New("no data")
)
