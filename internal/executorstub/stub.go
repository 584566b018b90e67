// Package executorstub is a thin reference executor: it registers
// itself, reports liveness, and tags itself as a container-task host
// while any locally-running container carries the job label. It is a
// test/dev collaborator for exercising the coordinator end to end, not
// a job runtime — running the job payload itself is out of scope.
package executorstub

import (
	"context"
	"os"
	"time"

	"github.com/docker/docker/api/types"
	"github.com/docker/docker/client"
	"go.uber.org/zap"

	"shardkeeper/internal/cc"
)

const (
	jobLabel               = "shardkeeper.job"
	heartbeatInterval      = 3 * time.Second
	taskPollInterval       = 5 * time.Second
	defaultExecutorVersion = "dev"
)

// Stub is one executor's registration/liveness/container-tagging
// agent.
type Stub struct {
	id     string
	client *cc.Client
	log    *zap.Logger
	docker *client.Client // nil if Docker isn't reachable; task tagging is then skipped
}

// New builds a Stub for id. Docker connectivity is optional: if it
// can't be reached, the stub still registers liveness, it just never
// reports HasTask.
func New(cc *cc.Client, id string, log *zap.Logger) *Stub {
	s := &Stub{id: id, client: cc, log: log.Named("executorstub")}

	dockerCli, err := client.NewClientWithOpts(client.FromEnv, client.WithAPIVersionNegotiation())
	if err != nil {
		s.log.Warn("docker unavailable, container-task tagging disabled", zap.Error(err))
		return s
	}
	s.docker = dockerCli
	return s
}

// Run registers the executor and blocks, refreshing liveness and
// container-task state until ctx is cancelled.
func (s *Stub) Run(ctx context.Context) {
	s.register(ctx)

	heartbeat := time.NewTicker(heartbeatInterval)
	defer heartbeat.Stop()
	taskPoll := time.NewTicker(taskPollInterval)
	defer taskPoll.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-heartbeat.C:
			s.register(ctx)
		case <-taskPoll.C:
			if s.docker != nil {
				s.refreshTask(ctx)
			}
		}
	}
}

func (s *Stub) register(ctx context.Context) {
	path := executorPath(s.id)
	if err := s.client.CreateEphemeral(ctx, path+"/ip", localIP()); err != nil {
		s.log.Warn("register ip failed", zap.Error(err))
	}
	if err := s.client.Set(ctx, path+"/version", defaultExecutorVersion); err != nil {
		s.log.Warn("report version failed", zap.Error(err))
	}
}

// refreshTask tags the executor as container-busy for as long as any
// locally-running container carries the job label, and clears the tag
// otherwise.
func (s *Stub) refreshTask(ctx context.Context) {
	containers, err := s.docker.ContainerList(ctx, types.ContainerListOptions{})
	if err != nil {
		s.log.Warn("container list failed", zap.Error(err))
		return
	}

	path := executorPath(s.id) + "/task"
	var activeJob string
	for _, c := range containers {
		if job, ok := c.Labels[jobLabel]; ok {
			activeJob = job
			break
		}
	}

	if activeJob != "" {
		if err := s.client.Set(ctx, path, activeJob); err != nil {
			s.log.Warn("set task tag failed", zap.Error(err))
		}
		return
	}
	if err := s.client.Delete(ctx, path); err != nil {
		s.log.Warn("clear task tag failed", zap.Error(err))
	}
}

func executorPath(id string) string {
	return "/executors/" + id
}

func localIP() string {
	hostname, err := os.Hostname()
	if err != nil || hostname == "" {
		return "0.0.0.0"
	}
	return hostname
}
