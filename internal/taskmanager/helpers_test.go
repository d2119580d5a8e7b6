package taskmanager

import (
	"context"
	"testing"

	"github.com/colonyops/taskmanager/internal/core/config"
	"github.com/colonyops/taskmanager/internal/core/eventbus/testbus"
	"github.com/colonyops/taskmanager/internal/core/item"
	"github.com/colonyops/taskmanager/internal/data/db"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

type testEnv struct {
	app     *App
	bus     *testbus.Bus
	spans   *tracetest.SpanRecorder
	metrics *sdkmetric.ManualReader
	project *item.Project
}

func newTestEnv(t *testing.T, muted ...string) *testEnv {
	t.Helper()

	dir := t.TempDir()
	database, err := db.Open(dir, db.DefaultOpenOptions())
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.Close() })

	cfg := config.DefaultConfig()
	cfg.DataDir = dir
	cfg.Communication.MutedProjects = muted

	tb := testbus.New(t)
	spans := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(spans))
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))

	app, err := newApp(&cfg, database, tb.EventBus, zerolog.Nop(), tp.Tracer("test"), mp.Meter("test"))
	require.NoError(t, err)

	project := &item.Project{
		Name:         "shield",
		ProductOwner: &item.Person{Name: "Nick Fury", Email: "nick.fury@shield.marvel.com"},
		Teams:        []item.Team{{Name: "avengers"}, {Name: "agents"}},
	}
	require.NoError(t, app.Items.CreateProject(context.Background(), project))

	return &testEnv{app: app, bus: tb, spans: spans, metrics: reader, project: project}
}

func (e *testEnv) createEpic(t *testing.T) *item.Epic {
	t.Helper()
	epic := &item.Epic{Header: item.Header{Title: "Helicarrier", Project: e.project}}
	require.NoError(t, e.app.Items.Create(context.Background(), epic))
	return epic
}

func (e *testEnv) createStory(t *testing.T, assignee string) *item.Story {
	t.Helper()
	story := &item.Story{Header: item.Header{Title: "Recruit", Project: e.project}, Assignee: assignee}
	require.NoError(t, e.app.Items.Create(context.Background(), story))
	return story
}

func (e *testEnv) createTask(t *testing.T, story *item.Story, sprint *item.Sprint) *item.Task {
	t.Helper()
	task := &item.Task{Header: item.Header{Title: "Find", Project: e.project}, Story: story, CurrentSprint: sprint}
	require.NoError(t, e.app.Items.Create(context.Background(), task))
	return task
}

func (e *testEnv) createSprint(t *testing.T) *item.Sprint {
	t.Helper()
	sprint := &item.Sprint{ProjectID: e.project.ID, Name: "sprint 1"}
	require.NoError(t, e.app.Items.CreateSprint(context.Background(), sprint))
	return sprint
}

func (e *testEnv) status(t *testing.T, id item.ID) item.Status {
	t.Helper()
	it, err := e.app.Items.Get(context.Background(), id)
	require.NoError(t, err)
	return it.Head().Status
}

// transitionCount sums the transitions counter across all attribute sets
// matching the given outcome ("" for any).
func (e *testEnv) transitionCount(t *testing.T, outcome string) int64 {
	t.Helper()

	var rm metricdata.ResourceMetrics
	require.NoError(t, e.metrics.Collect(context.Background(), &rm))

	var total int64
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if m.Name != "taskmanager.transitions" {
				continue
			}
			sum, ok := m.Data.(metricdata.Sum[int64])
			require.True(t, ok, "unexpected data type %T", m.Data)
			for _, dp := range sum.DataPoints {
				if outcome != "" {
					if v, ok := dp.Attributes.Value("outcome"); !ok || v.AsString() != outcome {
						continue
					}
				}
				total += dp.Value
			}
		}
	}
	return total
}
