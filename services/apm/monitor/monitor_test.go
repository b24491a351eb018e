package monitor

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"pdm-backend/lib/telemetry"
	"pdm-backend/services/apm"

	"github.com/stretchr/testify/require"
)

func init() {
	telemetry.SetupForTesting("monitor-test")
}

type fakeClient struct {
	points []apm.Point
	newest time.Time
	alerts int
}

func (f *fakeClient) FetchMeasurements(ctx context.Context, from time.Time) ([]apm.Point, time.Time, error) {
	newest := f.newest
	if newest.IsZero() {
		newest = from
	}
	return f.points, newest, nil
}

func (f *fakeClient) CreateAlert(ctx context.Context) error {
	f.alerts++
	return nil
}

func newTestStore(t *testing.T) *Store {
	store, err := OpenStore(filepath.Join(t.TempDir(), "monitor.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func floatPtr(f float64) *float64 { return &f }

func TestThresholdPredictor(t *testing.T) {
	predictor := ThresholdPredictor{Rules: map[string]ThresholdRule{
		"Torque":   {Max: floatPtr(60)},
		"RotSpeed": {Min: floatPtr(1200)},
	}}

	for _, test := range []struct {
		name     string
		features map[string]float64
		failure  bool
	}{
		{"nominal", map[string]float64{"Torque": 40, "RotSpeed": 1500}, false},
		{"torque over max", map[string]float64{"Torque": 75, "RotSpeed": 1500}, true},
		{"speed under min", map[string]float64{"Torque": 40, "RotSpeed": 900}, true},
		{"unknown feature ignored", map[string]float64{"AirTemp": 300}, false},
	} {
		t.Run(test.name, func(t *testing.T) {
			failure, err := predictor.Predict(test.features)
			require.NoError(t, err)
			require.Equal(t, test.failure, failure)
		})
	}
}

func TestStoreCursorRoundTrip(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	last, err := store.LastSeen(ctx)
	require.NoError(t, err)
	require.True(t, last.IsZero())

	cursor := time.Date(2026, 8, 29, 10, 30, 0, 0, time.UTC)
	require.NoError(t, store.SetLastSeen(ctx, cursor))
	require.NoError(t, store.SetLastSeen(ctx, cursor.Add(time.Hour)))

	last, err = store.LastSeen(ctx)
	require.NoError(t, err)
	require.Equal(t, cursor.Add(time.Hour), last)
}

func TestPollFilesOneAlertPerCycle(t *testing.T) {
	base := time.Date(2026, 8, 29, 10, 0, 0, 0, time.UTC)
	client := &fakeClient{
		points: []apm.Point{
			{Time: base, Feature: "Torque", Value: 80},
			{Time: base.Add(time.Minute), Feature: "Torque", Value: 85},
		},
		newest: base.Add(time.Minute),
	}
	store := newTestStore(t)
	m := New(
		client,
		store,
		ThresholdPredictor{Rules: map[string]ThresholdRule{
			"Torque": {Max: floatPtr(60)},
		}},
		time.Minute,
		"M",
		[]string{"Torque"},
	)

	ctx := context.Background()
	require.NoError(t, m.Poll(ctx))

	// both samples breach the threshold but only one alert goes out
	require.Equal(t, 1, client.alerts)

	filed, err := store.AlertCount(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, filed)

	last, err := store.LastSeen(ctx)
	require.NoError(t, err)
	require.Equal(t, base.Add(time.Minute), last)
}

func TestPollNominal(t *testing.T) {
	base := time.Date(2026, 8, 29, 10, 0, 0, 0, time.UTC)
	client := &fakeClient{
		points: []apm.Point{
			{Time: base, Feature: "Torque", Value: 40},
		},
		newest: base,
	}
	store := newTestStore(t)
	m := New(
		client,
		store,
		ThresholdPredictor{Rules: map[string]ThresholdRule{
			"Torque": {Max: floatPtr(60)},
		}},
		time.Minute,
		"L",
		[]string{"Torque"},
	)

	require.NoError(t, m.Poll(context.Background()))
	require.Equal(t, 0, client.alerts)
}

func TestTypeEncoding(t *testing.T) {
	var seen map[string]float64
	predictor := predictorFunc(func(features map[string]float64) (bool, error) {
		seen = features
		return false, nil
	})

	client := &fakeClient{
		points: []apm.Point{
			{Time: time.Date(2026, 8, 29, 10, 0, 0, 0, time.UTC), Feature: "Torque", Value: 40},
		},
	}
	m := New(client, newTestStore(t), predictor, time.Minute, "H", []string{"Torque", "AirTemp"})
	require.NoError(t, m.Poll(context.Background()))

	require.Equal(t, map[string]float64{
		"Type":    2,
		"Torque":  40,
		"AirTemp": 0,
	}, seen)
}

type predictorFunc func(map[string]float64) (bool, error)

func (f predictorFunc) Predict(features map[string]float64) (bool, error) {
	return f(features)
}
