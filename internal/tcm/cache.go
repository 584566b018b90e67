package tcm

import (
	"bytes"
	"context"
	"sync"

	"go.uber.org/zap"

	"shardkeeper/internal/cc"
)

// cache materializes one (path, depth) subtree and fans its events out
// to registered listeners, serially, in store-observed order.
type cache struct {
	client *cc.Client
	log    *zap.Logger
	path   string
	depth  int

	cancel context.CancelFunc

	mu        sync.Mutex
	known     map[string][]byte
	listeners []Listener
}

func newCache(client *cc.Client, log *zap.Logger, path string, depth int) *cache {
	return &cache{
		client: client,
		log:    log,
		path:   path,
		depth:  depth,
		known:  make(map[string][]byte),
	}
}

func (c *cache) addListener(l Listener) {
	c.mu.Lock()
	c.listeners = append(c.listeners, l)
	c.mu.Unlock()
}

func (c *cache) emit(e Event) {
	c.mu.Lock()
	listeners := append([]Listener{}, c.listeners...)
	c.mu.Unlock()
	for _, l := range listeners {
		l(e)
	}
}

// start begins watching before taking the initial snapshot, so no
// change between the two is missed; a change observed in both just
// replays as a no-op update once `known` catches up.
func (c *cache) start(parent context.Context) {
	ctx, cancel := context.WithCancel(parent)
	c.cancel = cancel

	watchCh := c.client.WatchPrefix(ctx, c.path)

	snapshot, err := c.client.GetTree(ctx, c.path)
	if err != nil {
		c.log.Warn("tcm initial snapshot failed", zap.String("path", c.path), zap.Error(err))
		snapshot = map[string][]byte{}
	}

	c.mu.Lock()
	for p, v := range snapshot {
		if relativeDepth(c.path, p) > c.depth {
			continue
		}
		c.known[p] = v
	}
	c.mu.Unlock()

	for p, v := range snapshot {
		if relativeDepth(c.path, p) > c.depth {
			continue
		}
		c.emit(Event{Type: NodeAdded, Path: p, Data: v})
	}
	c.emit(Event{Type: Initialized, Path: c.path})

	go c.loop(watchCh)
}

func (c *cache) loop(watchCh <-chan []cc.WatchEvent) {
	for batch := range watchCh {
		for _, we := range batch {
			path := c.client.StripNamespace(we.Path)
			if relativeDepth(c.path, path) > c.depth {
				continue
			}
			c.handle(path, we)
		}
	}
}

func (c *cache) handle(path string, we cc.WatchEvent) {
	c.mu.Lock()
	prev, existed := c.known[path]
	if we.Removed {
		delete(c.known, path)
	} else {
		c.known[path] = we.Value
	}
	c.mu.Unlock()

	switch {
	case we.Removed:
		if existed {
			c.emit(Event{Type: NodeRemoved, Path: path, Version: we.Version})
		}
	case !existed:
		c.emit(Event{Type: NodeAdded, Path: path, Data: we.Value, Version: we.Version})
	case !bytes.Equal(prev, we.Value):
		c.emit(Event{Type: NodeUpdated, Path: path, Data: we.Value, Version: we.Version})
	}
}

func (c *cache) stop() {
	if c.cancel != nil {
		c.cancel()
	}
}
