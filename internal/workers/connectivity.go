// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package workers

import (
	"context"
	"time"

	"github.com/MKhiriev/go-offline-sync/internal/logger"
)

const DefaultConnectivityInterval = 10 * time.Second

// PlatformPoller is the part of the connectivity monitor the poller drives.
// PollPlatform may take connectivity away but must not grant it.
type PlatformPoller interface {
	PollPlatform(ctx context.Context) bool
}

type connectivityPoller struct {
	checker  PlatformPoller
	interval time.Duration
	logger   *logger.Logger
}

// NewConnectivityPoller reports the platform's interface state to the
// monitor right away and then once per interval.
func NewConnectivityPoller(checker PlatformPoller, interval time.Duration, logger *logger.Logger) Worker {
	if interval <= 0 {
		interval = DefaultConnectivityInterval
	}
	return &connectivityPoller{checker: checker, interval: interval, logger: logger}
}

func (p *connectivityPoller) Run(ctx context.Context) {
	p.logger.Info().Str("func", "connectivityPoller.Run").Dur("interval", p.interval).Msg("connectivity poller started")

	p.checker.PollPlatform(ctx)

	t := time.NewTicker(p.interval)
	defer t.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			platform := p.checker.PollPlatform(ctx)
			p.logger.Debug().Str("func", "connectivityPoller.Run").Bool("platform_connected", platform).Msg("platform polled")
		}
	}
}
