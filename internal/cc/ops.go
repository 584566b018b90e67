package cc

import (
	"bytes"
	"context"
	"strconv"
	"strings"

	clientv3 "go.etcd.io/etcd/client/v3"
)

// Exists reports whether path has a value.
func (c *Client) Exists(ctx context.Context, path string) (bool, error) {
	_, ok, err := c.Get(ctx, path)
	return ok, err
}

// Get returns path's value, or ok=false if absent.
func (c *Client) Get(ctx context.Context, path string) ([]byte, bool, error) {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	resp, err := c.raw.Get(ctx, c.fullPath(path))
	if err != nil {
		return nil, false, Classify("get", err)
	}
	if len(resp.Kvs) == 0 {
		return nil, false, nil
	}
	return resp.Kvs[0].Value, true, nil
}

// GetWithVersion is like Get but also returns the node's mod revision,
// used by SE's leader-version check at commit time.
func (c *Client) GetWithVersion(ctx context.Context, path string) ([]byte, int64, bool, error) {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	resp, err := c.raw.Get(ctx, c.fullPath(path))
	if err != nil {
		return nil, 0, false, Classify("get", err)
	}
	if len(resp.Kvs) == 0 {
		return nil, 0, false, nil
	}
	kv := resp.Kvs[0]
	return kv.Value, kv.ModRevision, true, nil
}

// Children lists the immediate child path segments of path.
func (c *Client) Children(ctx context.Context, path string) ([]string, error) {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	prefix := c.fullPath(path)
	if !strings.HasSuffix(prefix, "/") {
		prefix += "/"
	}
	resp, err := c.raw.Get(ctx, prefix, clientv3.WithPrefix(), clientv3.WithKeysOnly())
	if err != nil {
		return nil, Classify("children", err)
	}

	seen := make(map[string]bool)
	var children []string
	for _, kv := range resp.Kvs {
		rest := strings.TrimPrefix(string(kv.Key), prefix)
		if rest == "" {
			continue
		}
		child := rest
		if idx := strings.IndexByte(rest, '/'); idx >= 0 {
			child = rest[:idx]
		}
		if !seen[child] {
			seen[child] = true
			children = append(children, child)
		}
	}
	return children, nil
}

// GetTree returns every descendant key (relative to path, namespace
// already stripped) and its value under path, for TCM's initial cache
// population.
func (c *Client) GetTree(ctx context.Context, path string) (map[string][]byte, error) {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	prefix := c.fullPath(path)
	resp, err := c.raw.Get(ctx, prefix, clientv3.WithPrefix())
	if err != nil {
		return nil, Classify("get-tree", err)
	}

	result := make(map[string][]byte, len(resp.Kvs))
	for _, kv := range resp.Kvs {
		result[c.StripNamespace(string(kv.Key))] = kv.Value
	}
	return result, nil
}

// CreatePersistent creates path with value if it does not already
// exist; it is a no-op if it does (idempotent creation, as EI's root
// pre-creation relies on).
func (c *Client) CreatePersistent(ctx context.Context, path, value string) error {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	key := c.fullPath(path)
	_, err := c.raw.Txn(ctx).
		If(clientv3.Compare(clientv3.CreateRevision(key), "=", 0)).
		Then(clientv3.OpPut(key, value)).
		Commit()
	if err != nil {
		return Classify("create-persistent", err)
	}
	return nil
}

// CreateEphemeralExclusive attempts to create path bound to CC's
// session lease, reporting won=false (no error) if it already existed,
// instead of silently succeeding. SE's leader election uses this:
// first-writer-wins, no ranking (spec.md §4.4.1).
func (c *Client) CreateEphemeralExclusive(ctx context.Context, path, value string) (won bool, err error) {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	key := c.fullPath(path)
	resp, err := c.raw.Txn(ctx).
		If(clientv3.Compare(clientv3.CreateRevision(key), "=", 0)).
		Then(clientv3.OpPut(key, value, clientv3.WithLease(c.session.Lease()))).
		Commit()
	if err != nil {
		return false, Classify("create-ephemeral-exclusive", err)
	}
	return resp.Succeeded, nil
}

// CreateEphemeral creates path with value bound to CC's session lease:
// it disappears when the session is lost, per spec.md's ephemeral
// contract.
func (c *Client) CreateEphemeral(ctx context.Context, path, value string) error {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	key := c.fullPath(path)
	_, err := c.raw.Txn(ctx).
		If(clientv3.Compare(clientv3.CreateRevision(key), "=", 0)).
		Then(clientv3.OpPut(key, value, clientv3.WithLease(c.session.Lease()))).
		Commit()
	if err != nil {
		return Classify("create-ephemeral", err)
	}
	return nil
}

// CreateEphemeralSequential creates a uniquely-ordered child of path
// bound to the session lease and returns the assigned full path (the
// revision-ordered suffix plays the role ZooKeeper's sequence counter
// would).
func (c *Client) CreateEphemeralSequential(ctx context.Context, path string) (string, error) {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	key := c.fullPath(path)
	resp, err := c.raw.Put(ctx, key+"/seq-placeholder", "", clientv3.WithLease(c.session.Lease()))
	if err != nil {
		return "", Classify("create-ephemeral-sequential", err)
	}
	rev := resp.Header.Revision
	assigned := path + "/" + zeroPad(rev)
	if _, err := c.raw.Put(ctx, c.fullPath(assigned), "", clientv3.WithLease(c.session.Lease())); err != nil {
		return "", Classify("create-ephemeral-sequential", err)
	}
	c.raw.Delete(ctx, key+"/seq-placeholder")
	return assigned, nil
}

func zeroPad(rev int64) string {
	const width = 20
	s := strconv.FormatInt(rev, 10)
	for len(s) < width {
		s = "0" + s
	}
	return s
}

// Set writes value at path only if it differs from the current value,
// so replaying an identical event produces no store write (P4 in
// spec.md §8). It creates the node if absent.
func (c *Client) Set(ctx context.Context, path, value string) error {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	current, ok, err := c.Get(ctx, path)
	if err != nil {
		return err
	}
	if ok && bytes.Equal(current, []byte(value)) {
		return nil
	}
	_, err = c.raw.Put(ctx, c.fullPath(path), value)
	if err != nil {
		return Classify("set", err)
	}
	return nil
}

// Delete recursively removes path and everything beneath it.
func (c *Client) Delete(ctx context.Context, path string) error {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	key := c.fullPath(path)
	_, err := c.raw.Delete(ctx, key)
	if err != nil {
		return Classify("delete", err)
	}
	_, err = c.raw.Delete(ctx, key+"/", clientv3.WithPrefix())
	if err != nil {
		return Classify("delete", err)
	}
	return nil
}
