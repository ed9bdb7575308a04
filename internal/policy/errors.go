package policy

import "errors"

var (
	// ErrOffline is returned when a policy demands the network but the
	// monitor says no attempt should be made.
	ErrOffline = errors.New("offline: network required by request policy")
	// ErrUnknownPolicy is returned for values outside models.AllPolicies.
	ErrUnknownPolicy = errors.New("unknown request policy")
)
