package cache

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/jadujoel/scode/internal/events"
)

var errFakeFetch = errors.New("fake fetch failed")

// fakeFetcher serves bytes from an in-memory map, counting calls per file
// name and optionally gating completion on a channel so tests can observe
// single-flight behavior deterministically instead of racing on sleeps.
type fakeFetcher struct {
	mu    sync.Mutex
	data  map[string][]byte
	fail  map[string]bool
	calls map[string]int
	gate  map[string]chan struct{}
}

func newFakeFetcher() *fakeFetcher {
	return &fakeFetcher{
		data:  make(map[string][]byte),
		fail:  make(map[string]bool),
		calls: make(map[string]int),
		gate:  make(map[string]chan struct{}),
	}
}

func (f *fakeFetcher) Fetch(_ context.Context, fileName string) ([]byte, error) {
	f.mu.Lock()
	f.calls[fileName]++
	gate := f.gate[fileName]
	f.mu.Unlock()

	if gate != nil {
		<-gate
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	if f.fail[fileName] {
		return nil, errFakeFetch
	}

	return f.data[fileName], nil
}

func (f *fakeFetcher) callCount(fileName string) int {
	f.mu.Lock()
	defer f.mu.Unlock()

	return f.calls[fileName]
}

// fakeDecoder turns fetched bytes into a buffer of d.channels channels, each
// holding the byte values as float32, so tests can assert on decoded content.
type fakeDecoder struct {
	channels uint
}

func (d fakeDecoder) Decode(_ context.Context, data []byte) (*Buffer, error) {
	out := &Buffer{Channels: d.channels, SampleRate: 48000, Data: make([][]float32, d.channels)}

	for ch := range out.Data {
		samples := make([]float32, len(data))
		for i, b := range data {
			samples[i] = float32(b)
		}

		out.Data[ch] = samples
	}

	return out, nil
}

func waitOrTimeout(t *testing.T, ch <-chan *Buffer) *Buffer {
	t.Helper()

	select {
	case b := <-ch:
		return b
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for RequestAsync result")

		return nil
	}
}

func TestRequestAsyncSingleFlight(t *testing.T) {
	fetcher := newFakeFetcher()
	fetcher.data["f1"] = []byte{1, 2, 3, 4}
	fetcher.gate["f1"] = make(chan struct{})

	c := New(fetcher, fakeDecoder{channels: 1}, nil)

	ch1 := c.RequestAsync(context.Background(), "f1")
	ch2 := c.RequestAsync(context.Background(), "f1")

	close(fetcher.gate["f1"])

	b1 := waitOrTimeout(t, ch1)
	b2 := waitOrTimeout(t, ch2)

	if b1 != b2 {
		t.Fatal("two concurrent RequestAsync calls for the same file must resolve to the same buffer reference")
	}

	if fetcher.callCount("f1") != 1 {
		t.Fatalf("expected exactly one fetch, got %d", fetcher.callCount("f1"))
	}
}

func TestRequestAsyncDecodesContent(t *testing.T) {
	fetcher := newFakeFetcher()
	fetcher.data["f1"] = []byte{10, 20, 30}

	c := New(fetcher, fakeDecoder{channels: 1}, nil)

	b := waitOrTimeout(t, c.RequestAsync(context.Background(), "f1"))
	if b == nil {
		t.Fatal("expected a decoded buffer")
	}

	want := []float32{10, 20, 30}
	for i, v := range want {
		if b.Data[0][i] != v {
			t.Errorf("Data[0][%d] = %v, want %v", i, b.Data[0][i], v)
		}
	}
}

func TestRequestSyncReturnsPlaceholderThenFillsInPlace(t *testing.T) {
	fetcher := newFakeFetcher()
	fetcher.data["f1"] = []byte{9, 9}
	fetcher.gate["f1"] = make(chan struct{})

	var tbl events.Table

	loaded := make(chan events.Event, 1)

	tbl.AddListener(events.SoundLoaded, func(ev events.Event) { loaded <- ev })

	c := New(fetcher, fakeDecoder{channels: 1}, &tbl)

	shape := Shape{Channels: 1, SampleCount: 4}

	placeholder := c.RequestSync(context.Background(), "f1", shape, 48000)
	if placeholder == nil {
		t.Fatal("RequestSync must return a non-nil placeholder")
	}

	if !placeholder.IsSilent() {
		t.Fatal("placeholder must be silent before decode completes")
	}

	if placeholder.Channels != 1 || len(placeholder.Data[0]) != 4 {
		t.Fatalf("placeholder shape = (%d, %d), want (1, 4)", placeholder.Channels, len(placeholder.Data[0]))
	}

	close(fetcher.gate["f1"])

	select {
	case ev := <-loaded:
		if ev.FileName != "f1" {
			t.Errorf("sound-loaded FileName = %q, want f1", ev.FileName)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for sound-loaded")
	}

	if placeholder.IsSilent() {
		t.Fatal("placeholder must be filled in place once decode completes")
	}

	same, ok := c.Get("f1")
	if !ok || same != placeholder {
		t.Fatal("cache must retain the same buffer object installed by RequestSync")
	}
}

func TestRequestSyncReturnsExistingDecodedBuffer(t *testing.T) {
	fetcher := newFakeFetcher()
	fetcher.data["f1"] = []byte{1, 2, 3}

	c := New(fetcher, fakeDecoder{channels: 1}, nil)

	decoded := waitOrTimeout(t, c.RequestAsync(context.Background(), "f1"))

	got := c.RequestSync(context.Background(), "f1", Shape{Channels: 1, SampleCount: 99}, 48000)
	if got != decoded {
		t.Fatal("RequestSync must return the already-decoded buffer, not a new placeholder")
	}
}

func TestDecodeErrorKeepsExistingPlaceholderAndEmitsError(t *testing.T) {
	fetcher := newFakeFetcher()
	fetcher.fail["f1"] = true

	var tbl events.Table

	errs := make(chan events.Event, 1)

	tbl.AddListener(events.SoundLoadError, func(ev events.Event) { errs <- ev })

	c := New(fetcher, fakeDecoder{channels: 1}, &tbl)

	placeholder := c.RequestSync(context.Background(), "f1", Shape{Channels: 1, SampleCount: 4}, 48000)

	select {
	case ev := <-errs:
		if ev.FileName != "f1" {
			t.Errorf("sound-load-error FileName = %q, want f1", ev.FileName)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for sound-load-error")
	}

	still, ok := c.Get("f1")
	if !ok || still != placeholder {
		t.Fatal("a placeholder must never be replaced with nil on decode failure")
	}

	if !still.IsSilent() {
		t.Fatal("placeholder must remain silent; nothing decoded")
	}
}

func TestRequestAsyncFailureWithoutPlaceholderResolvesNil(t *testing.T) {
	fetcher := newFakeFetcher()
	fetcher.fail["f1"] = true

	c := New(fetcher, fakeDecoder{channels: 1}, nil)

	got := waitOrTimeout(t, c.RequestAsync(context.Background(), "f1"))
	if got != nil {
		t.Fatalf("expected nil on fetch failure with no pre-existing placeholder, got %+v", got)
	}
}

func TestOrderByPriority(t *testing.T) {
	c := New(newFakeFetcher(), fakeDecoder{channels: 1}, nil)
	c.SetPriority([]string{"b", "a"})

	got := c.OrderByPriority([]string{"x", "a", "y", "b", "z"})
	want := []string{"b", "a", "x", "y", "z"}

	if len(got) != len(want) {
		t.Fatalf("OrderByPriority() = %v, want %v", got, want)
	}

	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("OrderByPriority() = %v, want %v", got, want)
		}
	}
}

func TestOrderByPriorityNoPriorityConfigured(t *testing.T) {
	c := New(newFakeFetcher(), fakeDecoder{channels: 1}, nil)

	names := []string{"x", "y", "z"}

	got := c.OrderByPriority(names)
	for i := range names {
		if got[i] != names[i] {
			t.Fatalf("OrderByPriority() with no priority set must preserve order, got %v", got)
		}
	}
}

func TestRankOf(t *testing.T) {
	c := New(newFakeFetcher(), fakeDecoder{channels: 1}, nil)
	c.SetPriority([]string{"b", "a"})

	if r, ok := c.RankOf("b"); !ok || r != 0 {
		t.Fatalf("RankOf(b) = (%d, %v), want (0, true)", r, ok)
	}

	if r, ok := c.RankOf("a"); !ok || r != 1 {
		t.Fatalf("RankOf(a) = (%d, %v), want (1, true)", r, ok)
	}

	if _, ok := c.RankOf("z"); ok {
		t.Fatal("RankOf() for an unranked name must report not found")
	}
}

func TestDisposeAllAwaitsPendingThenEmpties(t *testing.T) {
	fetcher := newFakeFetcher()
	fetcher.data["f1"] = []byte{1, 2}
	fetcher.gate["f1"] = make(chan struct{})

	c := New(fetcher, fakeDecoder{channels: 1}, nil)

	ch := c.RequestAsync(context.Background(), "f1")

	done := make(chan struct{})

	go func() {
		c.DisposeAll()
		close(done)
	}()

	// DisposeAll must block on the in-flight ticket, not race ahead of it.
	select {
	case <-done:
		t.Fatal("DisposeAll returned before the in-flight ticket resolved")
	case <-time.After(50 * time.Millisecond):
	}

	close(fetcher.gate["f1"])
	<-ch
	<-done

	if _, ok := c.Get("f1"); ok {
		t.Fatal("buffers must be empty after DisposeAll")
	}
}
