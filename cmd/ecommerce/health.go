package main

import (
	"context"
	"time"

	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"github.com/wyfcoding/ecommerce/pkg/logger"
)

type pinger interface {
	Ping(ctx context.Context) error
}

// watchHealth 周期性探测文档存储，据此设置 gRPC 健康状态，ctx 结束时置为 NOT_SERVING
func watchHealth(ctx context.Context, store pinger, hs *health.Server, interval time.Duration) {
	if interval <= 0 {
		interval = 10 * time.Second
	}

	last := healthpb.HealthCheckResponse_UNKNOWN
	probe := func() {
		pingCtx, cancel := context.WithTimeout(ctx, interval)
		defer cancel()

		next := healthpb.HealthCheckResponse_SERVING
		err := store.Ping(pingCtx)
		if err != nil {
			next = healthpb.HealthCheckResponse_NOT_SERVING
		}
		if next != last {
			logger.Info(ctx, "Health status changed", "status", next.String(), "error", err)
			last = next
		}
		hs.SetServingStatus("", next)
	}

	probe()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			hs.Shutdown()
			return
		case <-ticker.C:
			probe()
		}
	}
}
