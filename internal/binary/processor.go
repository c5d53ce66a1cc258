package binary

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
)

// Processor periodically runs the pending-order sweep. It is the durability
// backstop for the in-memory scheduler: after a restart it settles every
// expired order whose timer was lost.
type Processor struct {
	service  *Service
	interval time.Duration
}

func NewProcessor(service *Service, interval time.Duration) *Processor {
	if interval <= 0 {
		interval = time.Minute
	}
	return &Processor{
		service:  service,
		interval: interval,
	}
}

// Start begins the sweep loop. Blocks until ctx is canceled.
func (p *Processor) Start(ctx context.Context) {
	logger := log.With().Str("component", "binary_processor").Logger()
	logger.Info().Dur("interval", p.interval).Msg("starting binary settlement processor")

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Info().Msg("shutting down binary settlement processor")
			return
		case <-ticker.C:
			if _, err := p.service.ProcessPendingOrders(ctx, true); err != nil {
				logger.Error().Err(err).Msg("failed to process pending binary orders")
			}
		}
	}
}
