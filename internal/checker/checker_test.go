// SPDX-License-Identifier: MIT

package checker

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/videolinks/statuscheck/internal/links"
	xglog "github.com/videolinks/statuscheck/internal/log"
	"github.com/videolinks/statuscheck/internal/platform/httpx"
	"github.com/videolinks/statuscheck/internal/probe"
)

// fakeProber answers from a function and counts calls per target.
type fakeProber struct {
	name  string
	fn    func(ctx context.Context, target string) (probe.Result, error)
	mu    sync.Mutex
	calls map[string]int
}

func newFake(name string, fn func(ctx context.Context, target string) (probe.Result, error)) *fakeProber {
	return &fakeProber{name: name, fn: fn, calls: map[string]int{}}
}

func (f *fakeProber) Name() string { return f.name }

func (f *fakeProber) Probe(ctx context.Context, target string) (probe.Result, error) {
	f.mu.Lock()
	f.calls[target]++
	f.mu.Unlock()
	return f.fn(ctx, target)
}

func (f *fakeProber) count(target string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[target]
}

// pauseRecorder records inter-batch waits without sleeping.
type pauseRecorder struct {
	mu     sync.Mutex
	delays []time.Duration
}

func (p *pauseRecorder) pause(ctx context.Context, d time.Duration) error {
	p.mu.Lock()
	p.delays = append(p.delays, d)
	p.mu.Unlock()
	return ctx.Err()
}

func (p *pauseRecorder) n() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.delays)
}

func live(context.Context, string) (probe.Result, error) {
	return probe.Result{Live: true, StatusCode: http.StatusOK}, nil
}

func testConfig() Config {
	cfg := DefaultConfig()
	cfg.RequestTimeout = time.Second
	return cfg
}

func genericEntries(n int) []links.Entry {
	out := make([]links.Entry, n)
	for i := range out {
		out[i] = links.NewEntry(fmt.Sprintf("entry-%02d", i), fmt.Sprintf("https://cdn.example.com/%02d.mp4", i))
	}
	return out
}

func statuses(entries []links.Entry) []links.Status {
	out := make([]links.Status, len(entries))
	for i, e := range entries {
		out[i] = e.Status
	}
	return out
}

func TestRun_BatchesOfTenWithPauses(t *testing.T) {
	pauses := &pauseRecorder{}
	perBatch := map[int]int{}
	var mu sync.Mutex
	var inFlight, maxInFlight atomic.Int32

	fake := newFake(probe.ProviderGeneric, func(context.Context, string) (probe.Result, error) {
		cur := inFlight.Add(1)
		defer inFlight.Add(-1)
		for {
			prev := maxInFlight.Load()
			if cur <= prev || maxInFlight.CompareAndSwap(prev, cur) {
				break
			}
		}
		mu.Lock()
		perBatch[pauses.n()]++
		mu.Unlock()
		time.Sleep(5 * time.Millisecond)
		return probe.Result{Live: true, StatusCode: http.StatusOK}, nil
	})

	c := New(testConfig(), WithProber(fake), WithPause(pauses.pause))
	report, err := c.Run(context.Background(), genericEntries(25))
	require.NoError(t, err)

	assert.Equal(t, 3, report.Batches)
	assert.Equal(t, map[int]int{0: 10, 1: 10, 2: 5}, perBatch)
	assert.Equal(t, []time.Duration{500 * time.Millisecond, 500 * time.Millisecond}, pauses.delays)
	assert.LessOrEqual(t, maxInFlight.Load(), int32(10))
	assert.Equal(t, 25, report.Online)
	assert.Equal(t, 0, report.Offline)
}

func TestRun_ChecksWithinBatchRunConcurrently(t *testing.T) {
	var started sync.WaitGroup
	started.Add(4)
	release := make(chan struct{})
	go func() {
		started.Wait()
		close(release)
	}()

	fake := newFake(probe.ProviderGeneric, func(ctx context.Context, _ string) (probe.Result, error) {
		started.Done()
		select {
		case <-release:
			return probe.Result{Live: true}, nil
		case <-ctx.Done():
			return probe.Result{}, ctx.Err()
		}
	})

	cfg := testConfig()
	cfg.BatchSize = 4
	report, err := New(cfg, WithProber(fake), WithPause((&pauseRecorder{}).pause)).Run(context.Background(), genericEntries(4))
	require.NoError(t, err)
	assert.Equal(t, 4, report.Online, "all four checks must be in flight together")
}

func TestRun_EmptyList(t *testing.T) {
	pauses := &pauseRecorder{}
	report, err := New(testConfig(), WithPause(pauses.pause)).Run(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, report.Entries)
	assert.Zero(t, report.Batches)
	assert.Zero(t, pauses.n())
}

func TestRun_SingleBatchHasNoPause(t *testing.T) {
	pauses := &pauseRecorder{}
	fake := newFake(probe.ProviderGeneric, live)
	_, err := New(testConfig(), WithProber(fake), WithPause(pauses.pause)).Run(context.Background(), genericEntries(10))
	require.NoError(t, err)
	assert.Zero(t, pauses.n())
}

func TestRun_IsolatesFailures(t *testing.T) {
	fake := newFake(probe.ProviderGeneric, func(_ context.Context, target string) (probe.Result, error) {
		switch {
		case strings.HasSuffix(target, "/panic"):
			panic("boom")
		case strings.HasSuffix(target, "/error"):
			return probe.Result{}, &probe.Error{Sentinel: probe.ErrUnavailable, Provider: probe.ProviderGeneric, Target: target}
		case strings.HasSuffix(target, "/dead"):
			return probe.Result{StatusCode: http.StatusNotFound}, nil
		}
		return probe.Result{Live: true, StatusCode: http.StatusOK}, nil
	})

	entries := []links.Entry{
		links.NewEntry("ok-1", "https://a.example/ok"),
		links.NewEntry("panics", "https://a.example/panic"),
		links.NewEntry("errors", "https://a.example/error"),
		links.NewEntry("bad url", "not a url"),
		links.NewEntry("dead", "https://a.example/dead"),
		links.NewEntry("twitch no channel", "https://twitch.tv/"),
		links.NewEntry("ok-2", "https://b.example/ok"),
	}

	report, err := New(testConfig(), WithProber(fake), WithPause((&pauseRecorder{}).pause)).Run(context.Background(), entries)
	require.NoError(t, err)

	want := []links.Status{
		links.StatusOnline,
		links.StatusOffline,
		links.StatusOffline,
		links.StatusOffline,
		links.StatusOffline,
		links.StatusOffline,
		links.StatusOnline,
	}
	if diff := cmp.Diff(want, statuses(report.Entries)); diff != "" {
		t.Errorf("statuses mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, 2, report.Online)
	assert.Equal(t, 5, report.Offline)
}

func TestRun_PreservesOrderAndChecksDuplicatesIndependently(t *testing.T) {
	var n atomic.Int32
	fake := newFake(probe.ProviderGeneric, func(_ context.Context, target string) (probe.Result, error) {
		// Alternate answers for the same URL: each position gets its own verdict.
		if strings.HasSuffix(target, "/dup") {
			return probe.Result{Live: n.Add(1) == 1}, nil
		}
		return probe.Result{Live: false}, nil
	})

	cfg := testConfig()
	cfg.BatchSize = 1
	entries := []links.Entry{
		links.NewEntry("first", "https://x.example/dup"),
		links.NewEntry("middle", "https://x.example/other"),
		links.NewEntry("second", "https://x.example/dup"),
	}
	report, err := New(cfg, WithProber(fake), WithPause((&pauseRecorder{}).pause)).Run(context.Background(), entries)
	require.NoError(t, err)

	require.Len(t, report.Entries, 3)
	for i := range entries {
		assert.Equal(t, entries[i].Name, report.Entries[i].Name)
		assert.Equal(t, entries[i].URL, report.Entries[i].URL)
	}
	assert.Equal(t, 2, fake.count("https://x.example/dup"))
	assert.Equal(t, []links.Status{links.StatusOnline, links.StatusOffline, links.StatusOffline}, statuses(report.Entries))
}

func TestRun_DoesNotMutateInput(t *testing.T) {
	entries := genericEntries(3)
	_, err := New(testConfig(), WithProber(newFake(probe.ProviderGeneric, live)), WithPause((&pauseRecorder{}).pause)).
		Run(context.Background(), entries)
	require.NoError(t, err)
	for _, e := range entries {
		assert.Empty(t, e.Status)
	}
}

func TestRun_StatusClosure(t *testing.T) {
	var n atomic.Int32
	fake := newFake(probe.ProviderGeneric, func(context.Context, string) (probe.Result, error) {
		switch n.Add(1) % 3 {
		case 0:
			return probe.Result{}, errors.New("weird")
		case 1:
			return probe.Result{Live: true}, nil
		}
		return probe.Result{}, nil
	})
	entries := append(genericEntries(12), links.NewEntry("", ""), links.NewEntry("x", "ftp://x"))

	report, err := New(testConfig(), WithProber(fake), WithPause((&pauseRecorder{}).pause)).Run(context.Background(), entries)
	require.NoError(t, err)
	require.Len(t, report.Entries, len(entries))
	for i, e := range report.Entries {
		assert.True(t, e.Status.Persistable(), "entry %d has status %q", i, e.Status)
	}
	assert.Equal(t, len(entries), report.Online+report.Offline)
}

func TestRun_CancelledDuringPause(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pause := func(ctx context.Context, _ time.Duration) error {
		cancel()
		<-ctx.Done()
		return ctx.Err()
	}
	fake := newFake(probe.ProviderGeneric, live)
	report, err := New(testConfig(), WithProber(fake), WithPause(pause)).Run(ctx, genericEntries(15))
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.Canceled))
	assert.Nil(t, report.Entries)
	assert.Equal(t, 0, fake.count("https://cdn.example.com/10.mp4"), "second batch must not start")
}

func TestRun_CancelledBeforeStart(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := New(testConfig(), WithProber(newFake(probe.ProviderGeneric, live)), WithPause((&pauseRecorder{}).pause)).
		Run(ctx, genericEntries(3))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestCheck_TimeoutIsOffline(t *testing.T) {
	fake := newFake(probe.ProviderGeneric, func(ctx context.Context, _ string) (probe.Result, error) {
		<-ctx.Done()
		return probe.Result{}, &probe.Error{Sentinel: probe.ErrTimeout, Provider: probe.ProviderGeneric, Err: ctx.Err()}
	})
	cfg := testConfig()
	cfg.RequestTimeout = 20 * time.Millisecond

	start := time.Now()
	status := New(cfg, WithProber(fake)).Check(context.Background(), 0, links.NewEntry("slow", "https://slow.example"))
	assert.Equal(t, links.StatusOffline, status)
	assert.Less(t, time.Since(start), time.Second)
}

func TestCheck_Dispatch(t *testing.T) {
	generic := newFake(probe.ProviderGeneric, live)
	twitch := newFake(probe.ProviderTwitch, live)
	kick := newFake(probe.ProviderKick, live)
	c := New(testConfig(), WithProber(generic), WithProber(twitch), WithProber(kick))

	ctx := context.Background()
	assert.Equal(t, links.StatusOnline, c.Check(ctx, 0, links.NewEntry("t", "https://www.twitch.tv/chan/videos")))
	assert.Equal(t, links.StatusOnline, c.Check(ctx, 1, links.NewEntry("k", "https://KICK.com/streamer")))
	assert.Equal(t, links.StatusOnline, c.Check(ctx, 2, links.NewEntry("g", "https://cdn.example.com/a.m3u8")))

	assert.Equal(t, 1, twitch.count("chan"))
	assert.Equal(t, 1, kick.count("streamer"))
	assert.Equal(t, 1, generic.count("https://cdn.example.com/a.m3u8"))
}

func TestRun_Idempotent(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/twitch/live_chan", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`<script>{"isLiveBroadcast":true}</script>`))
	})
	mux.HandleFunc("/twitch/", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`<html>offline</html>`))
	})
	mux.HandleFunc("/kick/on", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"livestream":{"is_live":true}}`))
	})
	mux.HandleFunc("/kick/", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"livestream":null}`))
	})
	mux.HandleFunc("/files/ok.mp4", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	mux.HandleFunc("/files/partial.mp4", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusPartialContent)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	client := httpx.NewClient(time.Second)
	defer client.CloseIdleConnections()

	cfg := testConfig()
	cfg.BatchSize = 3
	cfg.TwitchBaseURL = srv.URL + "/twitch"
	cfg.KickAPIBaseURL = srv.URL + "/kick"

	entries := []links.Entry{
		links.NewEntry("twitch live", "https://twitch.tv/live_chan"),
		links.NewEntry("twitch off", "https://www.twitch.tv/someone_else"),
		links.NewEntry("kick live", "https://kick.com/on"),
		links.NewEntry("kick off", "https://kick.com/off"),
		links.NewEntry("file", srv.URL+"/files/ok.mp4"),
		links.NewEntry("partial", srv.URL+"/files/partial.mp4"),
		links.NewEntry("missing", srv.URL+"/files/missing.mp4"),
	}

	c := New(cfg, WithClient(client), WithPause((&pauseRecorder{}).pause))
	first, err := c.Run(context.Background(), entries)
	require.NoError(t, err)
	second, err := c.Run(context.Background(), first.Entries)
	require.NoError(t, err)

	want := []links.Status{
		links.StatusOnline, links.StatusOffline,
		links.StatusOnline, links.StatusOffline,
		links.StatusOnline, links.StatusOnline, links.StatusOffline,
	}
	if diff := cmp.Diff(want, statuses(first.Entries)); diff != "" {
		t.Errorf("first run mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(statuses(first.Entries), statuses(second.Entries)); diff != "" {
		t.Errorf("second run differs (-first +second):\n%s", diff)
	}
	assert.Equal(t, 3, first.Batches)
}

func TestNew_ClampsBatchSize(t *testing.T) {
	cfg := testConfig()
	cfg.BatchSize = 0
	report, err := New(cfg, WithProber(newFake(probe.ProviderGeneric, live)), WithPause((&pauseRecorder{}).pause)).
		Run(context.Background(), genericEntries(3))
	require.NoError(t, err)
	assert.Equal(t, 3, report.Batches)
}

func TestSleep(t *testing.T) {
	require.NoError(t, sleep(context.Background(), time.Millisecond))
	require.NoError(t, sleep(context.Background(), 0))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	start := time.Now()
	assert.ErrorIs(t, sleep(ctx, time.Hour), context.Canceled)
	assert.Less(t, time.Since(start), time.Second)
}

func TestCheck_NonStringURLIsOffline(t *testing.T) {
	fake := newFake(probe.ProviderGeneric, live)
	c := New(testConfig(), WithProber(fake))

	entries, err := links.Decode(strings.NewReader(`[
		{"name": "good", "url": "https://a.example/ok"},
		{"name": "number", "url": 12345},
		{"name": "null", "url": null},
		{"name": 7, "url": "https://b.example/ok"}
	]`))
	require.NoError(t, err)

	report, err := c.Run(context.Background(), entries)
	require.NoError(t, err)
	want := []links.Status{links.StatusOnline, links.StatusOffline, links.StatusOffline, links.StatusOnline}
	if diff := cmp.Diff(want, statuses(report.Entries)); diff != "" {
		t.Errorf("statuses mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, 1, fake.count("https://a.example/ok"))
	assert.Equal(t, 1, fake.count("https://b.example/ok"))
	assert.Zero(t, fake.count(""))
}

func TestCheck_LogsFailureCause(t *testing.T) {
	var buf bytes.Buffer
	xglog.Configure(xglog.Config{Output: &buf})
	t.Cleanup(func() { xglog.Configure(xglog.Config{}) })

	fake := newFake(probe.ProviderGeneric, func(_ context.Context, target string) (probe.Result, error) {
		return probe.Result{}, &probe.Error{
			Sentinel: probe.ErrUnavailable,
			Provider: probe.ProviderGeneric,
			Target:   target,
			Err:      errors.New("connection refused"),
		}
	})
	c := New(testConfig(), WithProber(fake))

	status := c.Check(context.Background(), 0, links.NewEntry("down", "https://a.example/down"))
	assert.Equal(t, links.StatusOffline, status)
	assert.Contains(t, buf.String(), `"event":"check.failed"`)
	assert.Contains(t, buf.String(), `"cause":"connection refused"`)
}
