package ei

import (
	"context"

	"go.uber.org/zap"

	"shardkeeper/internal/cc"
)

// ExecutorCleaner purges an offline executor's per-job state so SE sees
// a clean slate (spec.md §4.3's ExecutorOffline side effect).
type ExecutorCleaner interface {
	Clean(ctx context.Context, executor string) error
}

// CoordinationCleaner implements ExecutorCleaner by deleting
// /jobs/<job>/servers/<exe>/* for every known job.
type CoordinationCleaner struct {
	client *cc.Client
	log    *zap.Logger
}

func NewCoordinationCleaner(client *cc.Client, log *zap.Logger) *CoordinationCleaner {
	return &CoordinationCleaner{client: client, log: log.Named("executor-clean")}
}

func (c *CoordinationCleaner) Clean(ctx context.Context, executor string) error {
	jobs, err := c.client.Children(ctx, JobsPath)
	if err != nil {
		return err
	}
	for _, job := range jobs {
		path := JobsPath + "/" + job + "/servers/" + executor
		if err := c.client.Delete(ctx, path); err != nil {
			c.log.Warn("clean executor state failed",
				zap.String("job", job), zap.String("executor", executor), zap.Error(err))
			continue
		}
	}
	return nil
}
