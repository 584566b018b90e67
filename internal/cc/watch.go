package cc

import (
	"context"

	clientv3 "go.etcd.io/etcd/client/v3"
	"go.uber.org/zap"
)

// WatchEvent is CC's store-agnostic projection of a single watched
// change, carrying exactly the fields TCM needs to build NODE_ADDED /
// NODE_UPDATED / NODE_REMOVED events (spec.md §4.2).
type WatchEvent struct {
	Path    string
	Value   []byte
	Version int64 // ModRevision
	Removed bool
}

// WatchPrefix streams changes under path (recursively) until ctx is
// canceled. The returned channel closes when the watch ends (ctx
// canceled or a watch error); TCM's cache then stops delivering events
// for that subtree and does not re-watch or resync it.
func (c *Client) WatchPrefix(ctx context.Context, path string) <-chan []WatchEvent {
	out := make(chan []WatchEvent)
	prefix := c.fullPath(path)

	go func() {
		defer close(out)
		wch := c.raw.Watch(ctx, prefix, clientv3.WithPrefix())
		for resp := range wch {
			if resp.Err() != nil {
				c.log.Warn("watch error", zap.Error(resp.Err()))
				return
			}
			events := make([]WatchEvent, 0, len(resp.Events))
			for _, ev := range resp.Events {
				we := WatchEvent{Path: string(ev.Kv.Key)}
				if ev.Type == clientv3.EventTypeDelete {
					we.Removed = true
					we.Version = ev.Kv.ModRevision
				} else {
					we.Value = ev.Kv.Value
					we.Version = ev.Kv.ModRevision
				}
				events = append(events, we)
			}
			select {
			case out <- events:
			case <-ctx.Done():
				return
			}
		}
	}()

	return out
}

// StripNamespace removes CC's namespace prefix from a full key returned
// by WatchPrefix/Get, so callers work in namespace-relative paths.
func (c *Client) StripNamespace(fullKey string) string {
	if len(fullKey) >= len(c.cfg.Namespace) && fullKey[:len(c.cfg.Namespace)] == c.cfg.Namespace {
		return fullKey[len(c.cfg.Namespace):]
	}
	return fullKey
}
