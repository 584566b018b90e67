// Package tcm is the Tree Cache Manager: it materializes selected
// subtrees of the coordination store to a bounded depth and delivers
// ordered change events to registered listeners (spec.md §4.2).
package tcm

import (
	"context"
	"strings"
	"sync"

	"go.uber.org/zap"

	"shardkeeper/internal/cc"
)

// EventType enumerates the event kinds TCM delivers.
type EventType int

const (
	NodeAdded EventType = iota
	NodeUpdated
	NodeRemoved
	Initialized
)

func (t EventType) String() string {
	switch t {
	case NodeAdded:
		return "NODE_ADDED"
	case NodeUpdated:
		return "NODE_UPDATED"
	case NodeRemoved:
		return "NODE_REMOVED"
	case Initialized:
		return "INITIALIZED"
	default:
		return "UNKNOWN"
	}
}

// Event carries (path, data, version) for one node change; Type is
// always one of NodeAdded/NodeUpdated/NodeRemoved/Initialized.
type Event struct {
	Type    EventType
	Path    string
	Data    []byte
	Version int64
}

// Listener receives Events for one cache, serially and in store-observed
// order. Listeners must not block; long work belongs on EI's queue.
type Listener func(Event)

type cacheKey struct {
	path  string
	depth int
}

// Manager owns every (path, depth) cache created through it.
type Manager struct {
	client *cc.Client
	log    *zap.Logger

	mu     sync.Mutex
	caches map[cacheKey]*cache
}

func NewManager(client *cc.Client, log *zap.Logger) *Manager {
	return &Manager{
		client: client,
		log:    log.Named("tcm"),
		caches: make(map[cacheKey]*cache),
	}
}

// AddCacheIfAbsent starts a cache for (path, depth) if one does not
// already exist; idempotent per spec.md §4.2.
func (m *Manager) AddCacheIfAbsent(ctx context.Context, path string, depth int) {
	key := cacheKey{path: path, depth: depth}

	m.mu.Lock()
	c, ok := m.caches[key]
	if !ok {
		c = newCache(m.client, m.log, path, depth)
		m.caches[key] = c
	}
	m.mu.Unlock()

	if !ok {
		c.start(ctx)
	}
}

// AddListenerIfAbsent attaches listener to the cache for (path, depth),
// which must already have been created via AddCacheIfAbsent.
func (m *Manager) AddListenerIfAbsent(path string, depth int, listener Listener) {
	m.mu.Lock()
	c := m.caches[cacheKey{path: path, depth: depth}]
	m.mu.Unlock()
	if c == nil {
		m.log.Warn("AddListenerIfAbsent: no cache for path", zap.String("path", path), zap.Int("depth", depth))
		return
	}
	c.addListener(listener)
}

// Shutdown stops every cache's watch and drops the caches, and with them
// their listeners, from the manager. The caches are stopped in map
// iteration order, not in reverse of creation order.
func (m *Manager) Shutdown() {
	m.mu.Lock()
	caches := make([]*cache, 0, len(m.caches))
	for _, c := range m.caches {
		caches = append(caches, c)
	}
	m.caches = make(map[cacheKey]*cache)
	m.mu.Unlock()

	for i := len(caches) - 1; i >= 0; i-- {
		caches[i].stop()
	}
}

// relativeDepth returns how many path segments childPath has beyond
// root; root itself is depth 0.
func relativeDepth(root, childPath string) int {
	rest := strings.TrimPrefix(childPath, root)
	rest = strings.Trim(rest, "/")
	if rest == "" {
		return 0
	}
	return strings.Count(rest, "/") + 1
}
