package cache

import (
	"context"
	"sync"

	"github.com/jadujoel/scode/internal/events"
)

// Fetcher retrieves the raw encoded bytes for a file name from the current
// load path. LoadPath and extension are the caller's concern; Cache only
// ever deals in file names.
type Fetcher interface {
	Fetch(ctx context.Context, fileName string) ([]byte, error)
}

// Decoder turns fetched bytes into PCM frames.
type Decoder interface {
	Decode(ctx context.Context, data []byte) (*Buffer, error)
}

type ticket struct {
	done chan struct{}
	buf  *Buffer // on decode/fetch failure: the existing placeholder, or nil if none
}

// Cache is the buffer cache: a single-flight decode ticket table plus a
// decoded/placeholder buffer table, both keyed by file name.
type Cache struct {
	fetcher Fetcher
	decoder Decoder
	events  *events.Table

	mu       sync.Mutex
	pending  map[string]*ticket
	buffers  map[string]*Buffer
	priority map[string]int
}

// New constructs a Cache. emit may be nil, in which case no events fire.
func New(fetcher Fetcher, decoder Decoder, emit *events.Table) *Cache {
	return &Cache{
		fetcher: fetcher,
		decoder: decoder,
		events:  emit,
		pending: make(map[string]*ticket),
		buffers: make(map[string]*Buffer),
	}
}

// SetPriority installs an ordered list of priority source names (highest
// priority first). OrderByPriority consults it.
func (c *Cache) SetPriority(sourceNames []string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.priority = make(map[string]int, len(sourceNames))
	for i, name := range sourceNames {
		c.priority[name] = i
	}
}

// OrderByPriority stable-sorts names so that priority names come first, in
// priority rank order, followed by the rest in their original relative
// order.
func (c *Cache) OrderByPriority(names []string) []string {
	c.mu.Lock()
	priority := c.priority
	c.mu.Unlock()

	if len(priority) == 0 {
		out := make([]string, len(names))
		copy(out, names)

		return out
	}

	ranked := make([]string, 0, len(names))
	rest := make([]string, 0, len(names))

	for _, n := range names {
		if _, ok := priority[n]; ok {
			ranked = append(ranked, n)
		} else {
			rest = append(rest, n)
		}
	}

	sortStableByRank(ranked, priority)

	return append(ranked, rest...)
}

// RankOf reports the priority rank installed by SetPriority for name, if
// any. Lower ranks are higher priority.
func (c *Cache) RankOf(name string) (int, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	r, ok := c.priority[name]

	return r, ok
}

func sortStableByRank(names []string, rank map[string]int) {
	for i := 1; i < len(names); i++ {
		for j := i; j > 0 && rank[names[j-1]] > rank[names[j]]; j-- {
			names[j-1], names[j] = names[j], names[j-1]
		}
	}
}

// Get returns the buffer currently installed for fileName, if any.
func (c *Cache) Get(fileName string) (*Buffer, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	b, ok := c.buffers[fileName]

	return b, ok
}

// RequestAsync resolves fileName's buffer, single-flighting concurrent
// requests for the same file. The returned channel receives exactly once:
// the decoded buffer, the existing placeholder if fetch/decode failed, or
// nil if no placeholder exists and the load failed.
func (c *Cache) RequestAsync(ctx context.Context, fileName string) <-chan *Buffer {
	out := make(chan *Buffer, 1)

	c.mu.Lock()
	if b, ok := c.buffers[fileName]; ok {
		if _, pending := c.pending[fileName]; !pending {
			c.mu.Unlock()
			out <- b

			return out
		}
	}

	t, inFlight := c.pending[fileName]
	if !inFlight {
		t = &ticket{done: make(chan struct{})}
		c.pending[fileName] = t

		go c.load(ctx, fileName, t)
	}
	c.mu.Unlock()

	go func() {
		<-t.done

		c.mu.Lock()
		b := c.buffers[fileName]
		c.mu.Unlock()

		out <- b
	}()

	return out
}

// RequestSync returns the decoded buffer for fileName if one already exists;
// otherwise it allocates a placeholder of shape, installs it, kicks off the
// background load, and returns the placeholder immediately.
func (c *Cache) RequestSync(ctx context.Context, fileName string, shape Shape, sampleRate int) *Buffer {
	c.mu.Lock()

	if b, ok := c.buffers[fileName]; ok {
		c.mu.Unlock()

		return b
	}

	placeholder := NewPlaceholder(shape, sampleRate)
	c.buffers[fileName] = placeholder

	if _, inFlight := c.pending[fileName]; !inFlight {
		t := &ticket{done: make(chan struct{})}
		c.pending[fileName] = t
		c.mu.Unlock()

		go c.load(ctx, fileName, t)

		return placeholder
	}

	c.mu.Unlock()

	return placeholder
}

func (c *Cache) load(ctx context.Context, fileName string, t *ticket) {
	defer close(t.done)

	data, err := c.fetcher.Fetch(ctx, fileName)
	if err != nil {
		c.finishFailed(fileName, t)

		return
	}

	decoded, err := c.decoder.Decode(ctx, data)
	if err != nil {
		c.finishFailed(fileName, t)

		return
	}

	c.mu.Lock()

	if existing, ok := c.buffers[fileName]; ok {
		fillInPlace(existing, decoded)
		t.buf = existing
	} else {
		c.buffers[fileName] = decoded
		t.buf = decoded
	}

	delete(c.pending, fileName)
	c.mu.Unlock()

	c.emit(events.SoundLoaded, fileName)
}

func (c *Cache) finishFailed(fileName string, t *ticket) {
	c.mu.Lock()
	// Placeholder buffers are never replaced with nil on failure so that
	// already-scheduled playback does not observe a disappearing buffer.
	t.buf = c.buffers[fileName]
	delete(c.pending, fileName)
	c.mu.Unlock()

	c.emit(events.SoundLoadError, fileName)
}

func (c *Cache) emit(kind events.Kind, fileName string) {
	if c.events == nil {
		return
	}

	c.events.Emit(events.Event{Kind: kind, FileName: fileName})
}

// DisposeAll awaits every in-flight ticket and then empties both tables, per
// the lifecycle's disposal contract: a ticket's post-resolution cache write
// must never resurrect an entry that disposal has already removed.
func (c *Cache) DisposeAll() {
	c.mu.Lock()
	pending := make([]*ticket, 0, len(c.pending))
	for _, t := range c.pending {
		pending = append(pending, t)
	}
	c.mu.Unlock()

	for _, t := range pending {
		<-t.done
	}

	c.mu.Lock()
	c.pending = make(map[string]*ticket)
	c.buffers = make(map[string]*Buffer)
	c.mu.Unlock()
}
