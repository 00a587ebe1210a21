package scode

import (
	"context"

	"github.com/jadujoel/scode/internal/cache"
)

// SetPriority installs an ordered list of priority source names (highest
// priority first), consulted by every bulk load operation.
func (m *SoundManager) SetPriority(sourceNames []string) {
	m.cache.SetPriority(sourceNames)
}

// LoadFile requests a single file by its resolved file name directly,
// bypassing the resolver. Used when a caller already knows the exact asset.
func (m *SoundManager) LoadFile(ctx context.Context, fileName string) <-chan *cache.Buffer {
	if m.lifecycle.current() != Running {
		out := make(chan *cache.Buffer, 1)
		out <- nil

		return out
	}

	return m.cache.RequestAsync(ctx, fileName)
}

// LoadItems bulk-loads a list of source names, priority-ordered first.
func (m *SoundManager) LoadItems(ctx context.Context, sourceNames []string) []<-chan *cache.Buffer {
	ordered := m.cache.OrderByPriority(sourceNames)

	out := make([]<-chan *cache.Buffer, len(ordered))
	for i, name := range ordered {
		out[i] = m.RequestAsync(ctx, name)
	}

	return out
}

// LoadPackage bulk-loads every file in pkg across every language tag
// present, independent of the currently selected package or language.
func (m *SoundManager) LoadPackage(ctx context.Context, pkg string) []<-chan *cache.Buffer {
	return m.loadFiles(ctx, m.atlas.Items(pkg))
}

// LoadLanguage bulk-loads every file tagged with language across the given
// packages, independent of the currently selected package or language.
func (m *SoundManager) LoadLanguage(ctx context.Context, language string, packages []string) []<-chan *cache.Buffer {
	var items []AtlasItem

	for _, pkg := range packages {
		for _, it := range m.atlas.Items(pkg) {
			if it.LanguageTag == language {
				items = append(items, it)
			}
		}
	}

	return m.loadFiles(ctx, items)
}

// loadFiles requests items' files directly by name, bypassing the resolver
// entirely: the caller already knows the exact (package, language) the
// files belong to, so re-resolving against the manager's current selection
// would be wrong whenever that selection differs from the bulk target.
// Items are priority-ordered by source name first, as with LoadItems.
func (m *SoundManager) loadFiles(ctx context.Context, items []AtlasItem) []<-chan *cache.Buffer {
	if m.lifecycle.current() != Running {
		return nil
	}

	ordered := m.orderItemsByPriority(items)

	out := make([]<-chan *cache.Buffer, len(ordered))
	for i, it := range ordered {
		out[i] = m.cache.RequestAsync(ctx, it.FileName)
	}

	return out
}

// orderItemsByPriority stable-sorts items so that items whose source name
// is in the installed priority list come first, in rank order, followed by
// the rest in their original relative order.
func (m *SoundManager) orderItemsByPriority(items []AtlasItem) []AtlasItem {
	ranked := make([]AtlasItem, 0, len(items))
	rest := make([]AtlasItem, 0, len(items))

	for _, it := range items {
		if _, ok := m.cache.RankOf(it.SourceName); ok {
			ranked = append(ranked, it)
		} else {
			rest = append(rest, it)
		}
	}

	for i := 1; i < len(ranked); i++ {
		for j := i; j > 0; j-- {
			rj, _ := m.cache.RankOf(ranked[j-1].SourceName)
			ri, _ := m.cache.RankOf(ranked[j].SourceName)

			if rj <= ri {
				break
			}

			ranked[j-1], ranked[j] = ranked[j], ranked[j-1]
		}
	}

	return append(ranked, rest...)
}
