package application

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ahrav/go-arena/internal/domain"
	"github.com/ahrav/go-arena/internal/ports"
	"github.com/ahrav/go-arena/internal/testutils"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestDispatcher(cfg DispatcherConfig) *Dispatcher {
	return NewDispatcher(cfg, quietLogger(), nil)
}

// recordingMetrics captures everything the dispatcher reports.
type recordingMetrics struct {
	mu        sync.Mutex
	latencies map[string]int
	counters  map[string]float64
}

func newRecordingMetrics() *recordingMetrics {
	return &recordingMetrics{latencies: map[string]int{}, counters: map[string]float64{}}
}

func (r *recordingMetrics) RecordLatency(op string, _ time.Duration, labels map[string]string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.latencies[op+"/"+labels["status"]]++
}

func (r *recordingMetrics) RecordCounter(metric string, v float64, labels map[string]string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.counters[metric+"/"+labels["status"]] += v
}

func (r *recordingMetrics) RecordGauge(string, float64, map[string]string)     {}
func (r *recordingMetrics) RecordHistogram(string, float64, map[string]string) {}

func TestDispatchOrderingIsDeterministic(t *testing.T) {
	prompts := []string{"p0", "p1", "p2", "p3"}
	pairs := []domain.LanguagePair{
		{Source: "en", Target: "fr"},
		{Source: "en", Target: "de"},
		{Source: "fr", Target: "en"},
		{Source: "de", Target: "es"},
	}

	for run := range 5 {
		fakes := make([]*testutils.FakeBackend, 3)
		for i := range fakes {
			fakes[i] = testutils.NewFakeBackend(fmt.Sprintf("b%d", i))
			fakes[i].Jitter = 5 * time.Millisecond
		}

		matrix, err := newTestDispatcher(DispatcherConfig{}).Dispatch(
			context.Background(), prompts, testutils.Backends(fakes...),
			domain.TaskTranslate, domain.AuxInputs{LanguagePairs: pairs})
		require.NoError(t, err, "run %d", run)

		require.Equal(t, 3, matrix.NumBackends())
		require.Equal(t, 4, matrix.NumPrompts())
		for b := range 3 {
			for p, prompt := range prompts {
				assert.Equal(t, fmt.Sprintf("b%d:%s", b, prompt), matrix[b][p], "run %d cell [%d][%d]", run, b, p)
			}
		}
	}
}

func TestDispatchRunsPromptsInSequentialWaves(t *testing.T) {
	fakes := []*testutils.FakeBackend{
		testutils.NewFakeBackend("fast"),
		testutils.NewFakeBackend("slow"),
	}
	fakes[0].Jitter = 2 * time.Millisecond
	fakes[1].Delay = 10 * time.Millisecond
	prompts := []string{"a", "b", "c"}

	_, err := newTestDispatcher(DispatcherConfig{}).Dispatch(
		context.Background(), prompts, testutils.Backends(fakes...), domain.TaskSummarize, domain.AuxInputs{})
	require.NoError(t, err)

	waveStart := map[string]time.Time{}
	waveEnd := map[string]time.Time{}
	for _, f := range fakes {
		require.Equal(t, len(prompts), f.CallCount())
		for _, c := range f.Calls() {
			assert.Equal(t, domain.TaskSummarize, c.Kind)
			if s, ok := waveStart[c.Prompt]; !ok || c.Start.Before(s) {
				waveStart[c.Prompt] = c.Start
			}
			if e, ok := waveEnd[c.Prompt]; !ok || c.End.After(e) {
				waveEnd[c.Prompt] = c.End
			}
		}
	}

	for i := 1; i < len(prompts); i++ {
		prev, cur := prompts[i-1], prompts[i]
		assert.False(t, waveStart[cur].Before(waveEnd[prev]),
			"wave %q started before wave %q finished", cur, prev)
	}
}

func TestDispatchValidatesAuxInputsBeforeWork(t *testing.T) {
	tests := []struct {
		name string
		kind domain.TaskKind
		aux  domain.AuxInputs
	}{
		{
			name: "three prompts two language pairs",
			kind: domain.TaskTranslate,
			aux: domain.AuxInputs{LanguagePairs: []domain.LanguagePair{
				{Source: "en", Target: "fr"}, {Source: "en", Target: "de"},
			}},
		},
		{
			name: "translation without language pairs",
			kind: domain.TaskTranslate,
		},
		{
			name: "missing word with too few option lists",
			kind: domain.TaskCompleteMissingWord,
			aux:  domain.AuxInputs{Options: [][]string{{"a", "b"}}},
		},
		{
			name: "unknown task",
			kind: domain.TaskKind("haiku"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fake := testutils.NewFakeBackend("b0")
			matrix, err := newTestDispatcher(DispatcherConfig{}).Dispatch(
				context.Background(), []string{"x", "y", "z"}, testutils.Backends(fake), tt.kind, tt.aux)

			assert.ErrorIs(t, err, domain.ErrInvalidInput)
			assert.Nil(t, matrix)
			assert.Zero(t, fake.CallCount(), "no backend may be invoked")
		})
	}
}

func TestDispatchNoBackends(t *testing.T) {
	d := newTestDispatcher(DispatcherConfig{})

	matrix, err := d.Dispatch(context.Background(), []string{"x", "y"}, nil, domain.TaskCall, domain.AuxInputs{})
	require.NoError(t, err)
	assert.Zero(t, matrix.NumBackends())

	_, err = d.Dispatch(context.Background(), []string{"x"}, nil, domain.TaskTranslate, domain.AuxInputs{})
	assert.ErrorIs(t, err, domain.ErrInvalidInput, "aux inputs are still validated")

	_, err = d.Dispatch(context.Background(), []string{"x"}, []ports.Backend{nil}, domain.TaskCall, domain.AuxInputs{})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestDispatchFailsFast(t *testing.T) {
	boom := errors.New("vendor exploded")
	fakes := []*testutils.FakeBackend{
		testutils.NewFakeBackend("b0"),
		testutils.NewFakeBackend("b1"),
		testutils.NewFakeBackend("b2"),
	}
	fakes[1].Errors["p0"] = boom

	matrix, err := newTestDispatcher(DispatcherConfig{}).Dispatch(
		context.Background(), []string{"p0", "p1", "p2"}, testutils.Backends(fakes...),
		domain.TaskAnswerQuestion, domain.AuxInputs{})

	require.Error(t, err)
	assert.Nil(t, matrix, "no partial matrix")
	assert.ErrorIs(t, err, domain.ErrBackend)
	assert.ErrorIs(t, err, boom)

	var be *domain.BackendError
	require.ErrorAs(t, err, &be)
	assert.Equal(t, 0, be.PromptIndex)
	assert.Equal(t, 1, be.BackendIndex)
	assert.Equal(t, "b1", be.Backend)
	assert.Equal(t, domain.TaskAnswerQuestion, be.Kind)

	for _, f := range fakes {
		for _, c := range f.Calls() {
			assert.Equal(t, "p0", c.Prompt, "later prompts must not be dispatched")
		}
	}
}

func TestDispatchCancelsSiblingsOnFailure(t *testing.T) {
	slow := testutils.NewFakeBackend("slow")
	slow.Delay = 5 * time.Second
	failing := testutils.NewFakeBackend("failing")
	failing.Errors["p0"] = errors.New("rate limited")

	start := time.Now()
	_, err := newTestDispatcher(DispatcherConfig{}).Dispatch(
		context.Background(), []string{"p0"}, testutils.Backends(slow, failing),
		domain.TaskCall, domain.AuxInputs{})

	require.ErrorIs(t, err, domain.ErrBackend)
	assert.Less(t, time.Since(start), 2*time.Second, "slow sibling should observe cancellation")
}

func TestDispatchTaskTimeout(t *testing.T) {
	slow := testutils.NewFakeBackend("slow")
	slow.Delay = time.Second

	_, err := newTestDispatcher(DispatcherConfig{TaskTimeout: 20 * time.Millisecond}).Dispatch(
		context.Background(), []string{"p0"}, testutils.Backends(slow), domain.TaskCall, domain.AuxInputs{})

	assert.ErrorIs(t, err, domain.ErrBackend)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestDispatchCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	fake := testutils.NewFakeBackend("b0")

	_, err := newTestDispatcher(DispatcherConfig{}).Dispatch(
		ctx, []string{"p0"}, testutils.Backends(fake), domain.TaskCall, domain.AuxInputs{})

	assert.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, fake.CallCount())
}

func TestDispatchPassesAuxInputs(t *testing.T) {
	fake := testutils.NewFakeBackend("b0")
	d := newTestDispatcher(DispatcherConfig{})

	_, err := d.Dispatch(context.Background(), []string{"Hello", "Bye"}, testutils.Backends(fake),
		domain.TaskTranslate, domain.AuxInputs{LanguagePairs: []domain.LanguagePair{
			{Source: "en", Target: "fr"}, {Source: "en", Target: "it"},
		}})
	require.NoError(t, err)

	calls := fake.Calls()
	require.Len(t, calls, 2)
	assert.Equal(t, "fr", calls[0].Target)
	assert.Equal(t, "it", calls[1].Target)

	_, err = d.Dispatch(context.Background(), []string{"I park my car in the ___."}, testutils.Backends(fake),
		domain.TaskCompleteMissingWord, domain.AuxInputs{Options: [][]string{{"garage", "kitchen"}}})
	require.NoError(t, err)
	last := fake.Calls()[2]
	assert.Equal(t, domain.TaskCompleteMissingWord, last.Kind)
	assert.Equal(t, []string{"garage", "kitchen"}, last.Options)
}

func TestDispatchOne(t *testing.T) {
	fakes := []*testutils.FakeBackend{testutils.NewFakeBackend("b0"), testutils.NewFakeBackend("b1")}
	fakes[1].Outputs["Once upon a"] = "time"

	out, err := newTestDispatcher(DispatcherConfig{}).DispatchOne(
		context.Background(), "Once upon a", testutils.Backends(fakes...), domain.TaskCompleteSentence, domain.AuxInputs{})
	require.NoError(t, err)
	assert.Equal(t, []string{"b0:Once upon a", "time"}, out)
}

func TestDispatchEmptyPrompts(t *testing.T) {
	fake := testutils.NewFakeBackend("b0")
	matrix, err := newTestDispatcher(DispatcherConfig{}).Dispatch(
		context.Background(), nil, testutils.Backends(fake), domain.TaskCall, domain.AuxInputs{})
	require.NoError(t, err)
	assert.Equal(t, 1, matrix.NumBackends())
	assert.Zero(t, matrix.NumPrompts())
	assert.Zero(t, fake.CallCount())
}

func TestDispatchRecordsMetrics(t *testing.T) {
	metrics := newRecordingMetrics()
	d := NewDispatcher(DispatcherConfig{}, quietLogger(), metrics)
	fakes := []*testutils.FakeBackend{testutils.NewFakeBackend("b0"), testutils.NewFakeBackend("b1")}

	_, err := d.Dispatch(context.Background(), []string{"p0", "p1"}, testutils.Backends(fakes...),
		domain.TaskCall, domain.AuxInputs{})
	require.NoError(t, err)

	assert.Equal(t, 4.0, metrics.counters[MetricDispatchTasks+"/ok"])
	assert.Equal(t, 4, metrics.latencies[MetricDispatchTask+"/ok"])
	assert.Equal(t, 2, metrics.latencies[MetricDispatchWave+"/ok"])
}
