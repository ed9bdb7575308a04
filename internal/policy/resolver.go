// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

// Package policy turns a request policy plus the current connectivity into
// an execution path. Record operations, batch submission and passthrough
// sends all describe themselves as an [Operation] and hand it to [Resolve];
// no other package branches on policy values.
package policy

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/MKhiriev/go-offline-sync/internal/adapter"
	"github.com/MKhiriev/go-offline-sync/internal/logger"
	"github.com/MKhiriev/go-offline-sync/models"
)

// CacheMode tells the cache leg how to flag what it writes.
type CacheMode struct {
	// NoSync marks writes as local-only: they never enter the pending queue.
	NoSync bool
}

// Operation describes one unit of work in its network and cache forms.
type Operation[T any] struct {
	// Name is used in logs.
	Name string
	// Network performs the remote call.
	Network func(ctx context.Context) (T, error)
	// Mirror writes a confirmed network result into the local store and
	// returns the value handed to the caller. Nil means no mirroring.
	Mirror func(ctx context.Context, result T) (T, error)
	// Cache applies the operation to the local store only.
	Cache func(ctx context.Context, mode CacheMode) (T, error)
}

// Connectivity is the part of the connectivity monitor the resolver needs.
type Connectivity interface {
	ShouldAttemptNetwork() bool
	ReportNetworkFailure()
	ReportNetworkSuccess()
}

// Resolver runs operations according to a request policy.
type Resolver struct {
	monitor Connectivity
	logger  *logger.Logger

	background sync.WaitGroup
}

// NewResolver returns a resolver reporting network outcomes to monitor.
func NewResolver(monitor Connectivity, log *logger.Logger) *Resolver {
	if log == nil {
		log = logger.Nop()
	}
	return &Resolver{monitor: monitor, logger: log}
}

// Wait blocks until every detached cacheFirst network leg has finished.
func (r *Resolver) Wait() {
	r.background.Wait()
}

// Online reports whether a network attempt should be made right now.
func (r *Resolver) Online() bool {
	return r.monitor.ShouldAttemptNetwork()
}

// Resolve executes op under policy p.
//
//   - networkOnly: network or ErrOffline; the result is not mirrored.
//   - cacheOnly: local store only, written as local-only.
//   - networkFirst: network or ErrOffline/the network error; success is mirrored.
//   - cacheFirst: local store now, network and mirror in a detached goroutine.
//   - cacheAndNetwork: network and mirror when possible, otherwise local store
//     written as pending.
func Resolve[T any](ctx context.Context, r *Resolver, p models.RequestPolicy, op Operation[T]) (T, error) {
	var zero T

	switch p.OrDefault() {
	case models.NetworkOnly:
		if !r.Online() {
			return zero, fmt.Errorf("%s: %w", op.Name, ErrOffline)
		}
		return runNetwork(ctx, r, op)

	case models.CacheOnly:
		return op.Cache(ctx, CacheMode{NoSync: true})

	case models.NetworkFirst:
		if !r.Online() {
			return zero, fmt.Errorf("%s: %w", op.Name, ErrOffline)
		}
		result, err := runNetwork(ctx, r, op)
		if err != nil {
			return zero, err
		}
		return mirror(ctx, r, op, result), nil

	case models.CacheFirst:
		result, err := op.Cache(ctx, CacheMode{})
		if err != nil {
			return zero, err
		}
		if r.Online() {
			detached := context.WithoutCancel(ctx)
			r.background.Add(1)
			go func() {
				defer r.background.Done()
				background(detached, r, op)
			}()
		}
		return result, nil

	case models.CacheAndNetwork:
		if r.Online() {
			result, err := runNetwork(ctx, r, op)
			if err == nil {
				return mirror(ctx, r, op, result), nil
			}
			r.logger.Warn().Err(err).
				Str("func", "policy.Resolve").
				Str("op", op.Name).
				Msg("network attempt failed, falling back to local store")
		} else {
			r.logger.Debug().
				Str("func", "policy.Resolve").
				Str("op", op.Name).
				Msg("offline, applying to local store")
		}
		return op.Cache(ctx, CacheMode{})

	default:
		return zero, fmt.Errorf("%w: %q", ErrUnknownPolicy, p)
	}
}

// runNetwork calls op.Network and feeds the outcome into the monitor: an
// unreachable service counts as a failure, any answer counts as a success.
func runNetwork[T any](ctx context.Context, r *Resolver, op Operation[T]) (T, error) {
	result, err := op.Network(ctx)
	switch {
	case err == nil:
		r.monitor.ReportNetworkSuccess()
	case errors.Is(err, context.Canceled):
		// the caller gave up; says nothing about the network
	case adapter.IsUnreachable(err):
		r.monitor.ReportNetworkFailure()
	default:
		r.monitor.ReportNetworkSuccess()
	}
	return result, err
}

// mirror writes a confirmed result locally. A mirror failure is logged and
// the network result is still returned.
func mirror[T any](ctx context.Context, r *Resolver, op Operation[T], result T) T {
	if op.Mirror == nil {
		return result
	}
	mirrored, err := op.Mirror(ctx, result)
	if err != nil {
		r.logger.Error().Err(err).
			Str("func", "policy.mirror").
			Str("op", op.Name).
			Msg("failed to mirror network result into local store")
		return result
	}
	return mirrored
}

func background[T any](ctx context.Context, r *Resolver, op Operation[T]) {
	result, err := runNetwork(ctx, r, op)
	if err != nil {
		r.logger.Warn().Err(err).
			Str("func", "policy.background").
			Str("op", op.Name).
			Msg("background network leg failed, change stays pending")
		return
	}
	mirror(ctx, r, op, result)
}
