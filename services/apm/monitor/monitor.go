// Package monitor polls APM measurements on an interval, runs them
// through a failure predictor and files alerts.
package monitor

import (
	"context"
	"log/slog"
	"sort"
	"time"

	"pdm-backend/services/apm"

	"go.opentelemetry.io/otel"
)

var tracer = otel.Tracer("apm/monitor")

// APMClient is the slice of apm.Client the monitor needs.
type APMClient interface {
	FetchMeasurements(ctx context.Context, from time.Time) ([]apm.Point, time.Time, error)
	CreateAlert(ctx context.Context) error
}

// TypeFeature is the synthetic feature carrying the machine's load
// class, encoded L=0, M=1, H=2.
const TypeFeature = "Type"

var typeEncoding = map[string]float64{"L": 0, "M": 1, "H": 2}

type Monitor struct {
	client      APMClient
	store       *Store
	predictor   Predictor
	interval    time.Duration
	machineType string
	features    []string
}

// New builds a monitor. featureNames lists every feature the predictor
// expects besides TypeFeature; measurements missing from a cycle are
// filled with zero.
func New(
	client APMClient,
	store *Store,
	predictor Predictor,
	interval time.Duration,
	machineType string,
	featureNames []string,
) *Monitor {
	return &Monitor{
		client:      client,
		store:       store,
		predictor:   predictor,
		interval:    interval,
		machineType: machineType,
		features:    featureNames,
	}
}

// Run polls until ctx is cancelled. Poll errors are logged and the next
// tick tries again.
func (m *Monitor) Run(ctx context.Context) error {
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		if err := m.Poll(ctx); err != nil {
			slog.ErrorContext(ctx, "poll failed", "err", err)
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// Poll fetches everything newer than the persisted cursor, predicts on
// each measurement timestamp, and files at most one alert per cycle.
func (m *Monitor) Poll(ctx context.Context) error {
	ctx, span := tracer.Start(ctx, "Poll")
	defer span.End()

	from, err := m.store.LastSeen(ctx)
	if err != nil {
		return err
	}
	if from.IsZero() {
		from = time.Now().Add(-m.interval)
	}

	points, newest, err := m.client.FetchMeasurements(ctx, from)
	if err != nil {
		return err
	}

	alerted := false
	for _, sample := range groupByTime(points) {
		failure, err := m.predict(sample)
		if err != nil {
			slog.ErrorContext(ctx, "prediction failed",
				"time", sample.time, "err", err)
			continue
		}
		if !failure || alerted {
			continue
		}
		slog.WarnContext(ctx, "failure predicted, filing alert",
			"time", sample.time, "features", sample.features)
		if err := m.client.CreateAlert(ctx); err != nil {
			return err
		}
		if err := m.store.RecordAlert(ctx, sample.time); err != nil {
			return err
		}
		alerted = true
	}

	return m.store.SetLastSeen(ctx, newest)
}

type sample struct {
	time     time.Time
	features map[string]float64
}

func groupByTime(points []apm.Point) []sample {
	byTime := map[time.Time]map[string]float64{}
	for _, p := range points {
		key := p.Time.UTC()
		if byTime[key] == nil {
			byTime[key] = map[string]float64{}
		}
		byTime[key][p.Feature] = p.Value
	}

	out := make([]sample, 0, len(byTime))
	for t, features := range byTime {
		out = append(out, sample{time: t, features: features})
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].time.Before(out[j].time)
	})
	return out
}

func (m *Monitor) predict(s sample) (bool, error) {
	vector := map[string]float64{
		TypeFeature: typeEncoding[m.machineType],
	}
	for _, name := range m.features {
		vector[name] = s.features[name]
	}
	return m.predictor.Predict(vector)
}
