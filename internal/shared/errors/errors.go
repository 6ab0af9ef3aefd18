package errors

import "errors"

// Authentication
var (
	ErrMissingSignature     = errors.New("missing signature")
	ErrNoMatchingChannel    = errors.New("signature does not match any channel")
	ErrNoChannelsConfigured = errors.New("no channels configured")
)

// Registry and settings
var (
	ErrChannelNotFound = errors.New("channel not found")
	ErrChannelDisabled = errors.New("channel is disabled")
	ErrRuleNotFound    = errors.New("activity rule not found")
	ErrRecordNotFound  = errors.New("dispatch record not found")
)

// Content and dispatch
var (
	ErrInvalidContent       = errors.New("invalid content")
	ErrMulticastCapacity    = errors.New("multicast recipient limit exceeded")
	ErrFollowersUnsupported = errors.New("follower listing not supported for this channel")
	ErrNoRecipients         = errors.New("no recipients")
)

// Configuration
var (
	ErrInvalidConfig = errors.New("invalid configuration")
)
