package telemetry

import (
	"context"
	"log/slog"
	"runtime"
	"time"

	"github.com/shirou/gopsutil/v4/cpu"
	"go.opentelemetry.io/otel"
)

var meter = otel.Meter("pdm.runtime")
var cpuGauge, _ = meter.Float64Gauge("process_cpu_percent")
var heapGauge, _ = meter.Int64Gauge("heap_alloc_mb")
var heapObjectsGauge, _ = meter.Int64Gauge("heap_objects")
var goroutineGauge, _ = meter.Int64Gauge("goroutines")
var gcCyclesGauge, _ = meter.Int64Gauge("gc_cycles")

// InstrumentPerfStats samples process-level runtime stats until ctx is
// cancelled. The poller is the long-lived process here, so a 15 second
// sample window is plenty.
func InstrumentPerfStats(ctx context.Context) {
	go func() {
		var memStats runtime.MemStats
		ticker := time.NewTicker(time.Second * 15)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				runtime.ReadMemStats(&memStats)

				cpuUsage, err := cpu.PercentWithContext(ctx, 0, false)
				if err == nil && len(cpuUsage) > 0 {
					cpuGauge.Record(ctx, cpuUsage[0])
				} else if err != nil {
					slog.Warn("failed to read cpu usage", "err", err)
				}

				heapGauge.Record(ctx, int64(memStats.HeapAlloc/1_000_000))
				heapObjectsGauge.Record(ctx, int64(memStats.HeapObjects))
				goroutineGauge.Record(ctx, int64(runtime.NumGoroutine()))
				gcCyclesGauge.Record(ctx, int64(memStats.NumGC))
			case <-ctx.Done():
				return
			}
		}
	}()
}
