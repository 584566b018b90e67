package cc

import (
	"context"

	clientv3 "go.etcd.io/etcd/client/v3"
)

// OpKind discriminates a transaction op.
type OpKind int

const (
	OpPut OpKind = iota
	OpCreate
	OpDelete
)

// Op is one write in a Transaction batch.
type Op struct {
	Kind  OpKind
	Path  string
	Value string
}

func PutOp(path, value string) Op    { return Op{Kind: OpPut, Path: path, Value: value} }
func CreateOp(path, value string) Op { return Op{Kind: OpCreate, Path: path, Value: value} }
func DeleteOp(path string) Op        { return Op{Kind: OpDelete, Path: path} }

// LeaderCheck guards a Transaction with the leader lock's expected mod
// revision; the whole transaction aborts if it changed, implementing
// I4/spec.md §4.4.5's "prefixed with a check of /leader/host's version".
type LeaderCheck struct {
	Path            string
	ExpectedVersion int64
}

// ErrTransactionAborted is returned when the leader-version check (or
// any other guard) fails and the transaction did not commit.
var ErrTransactionAborted = &CoordinationError{Kind: KindFatal, Op: "transaction", Err: errAborted{}}

type errAborted struct{}

func (errAborted) Error() string { return "transaction aborted: precondition failed" }

// Transaction commits ops atomically, guarded by an optional leader
// version check. Returns ErrTransactionAborted if etcd reports the
// transaction did not succeed (the guard failed), or the classified
// error if the commit call itself failed.
func (c *Client) Transaction(ctx context.Context, ops []Op, guard *LeaderCheck) error {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	var cmps []clientv3.Cmp
	if guard != nil {
		cmps = append(cmps, clientv3.Compare(clientv3.ModRevision(c.fullPath(guard.Path)), "=", guard.ExpectedVersion))
	}

	etcdOps := make([]clientv3.Op, 0, len(ops))
	for _, op := range ops {
		key := c.fullPath(op.Path)
		switch op.Kind {
		case OpPut, OpCreate:
			etcdOps = append(etcdOps, clientv3.OpPut(key, op.Value))
		case OpDelete:
			etcdOps = append(etcdOps, clientv3.OpDelete(key))
		}
	}

	txn := c.raw.Txn(ctx)
	if len(cmps) > 0 {
		txn = txn.If(cmps...)
	}
	resp, err := txn.Then(etcdOps...).Commit()
	if err != nil {
		return Classify("transaction", err)
	}
	if !resp.Succeeded {
		return ErrTransactionAborted
	}
	return nil
}
