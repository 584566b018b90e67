package se

import (
	"context"
	"strconv"
	"strings"

	"shardkeeper/internal/cc"
	"shardkeeper/internal/config"
	"shardkeeper/internal/ei"
	"shardkeeper/pkg/model"
)

// loadExecutors reads the full /executors subtree into an ExecutorView.
// An executor is online iff its "ip" leaf exists, per spec.md §4.3.
func loadExecutors(ctx context.Context, client *cc.Client) (model.ExecutorView, error) {
	tree, err := client.GetTree(ctx, ei.ExecutorsPath)
	if err != nil {
		return nil, err
	}

	view := make(model.ExecutorView)
	get := func(id string) *model.Executor {
		e, ok := view[id]
		if !ok {
			e = &model.Executor{ID: id, ContainerOnly: strings.HasPrefix(id, model.ContainerPrefix)}
			view[id] = e
		}
		return e
	}

	for path, value := range tree {
		rest := strings.TrimPrefix(path, ei.ExecutorsPath+"/")
		if rest == path {
			continue
		}
		parts := strings.SplitN(rest, "/", 2)
		if len(parts) != 2 {
			continue
		}
		exe := get(parts[0])
		switch parts[1] {
		case "ip":
			exe.Online = true
			exe.IP = string(value)
		case "version":
			exe.Version = string(value)
		case "task":
			exe.HasTask = true
		case "capacity":
			if n, err := strconv.Atoi(string(value)); err == nil {
				exe.Capacity = n
			}
		}
	}
	return view, nil
}

// loadJobs reads the full /jobs subtree into a JobIndex (config) and an
// Assignment (committed shard state), per spec.md §3's data model.
func loadJobs(ctx context.Context, client *cc.Client) (model.JobIndex, model.Assignment, error) {
	tree, err := client.GetTree(ctx, ei.JobsPath)
	if err != nil {
		return nil, nil, err
	}

	rawConfig := make(map[string]map[string]string)
	assignment := make(model.Assignment)

	for path, value := range tree {
		rest := strings.TrimPrefix(path, ei.JobsPath+"/")
		if rest == path {
			continue
		}
		parts := strings.SplitN(rest, "/", 4)
		if len(parts) < 2 {
			continue
		}
		job := parts[0]

		switch parts[1] {
		case "config":
			if len(parts) != 3 {
				continue
			}
			m := rawConfig[job]
			if m == nil {
				m = make(map[string]string)
				rawConfig[job] = m
			}
			m[parts[2]] = string(value)
		case "servers":
			if len(parts) != 4 || parts[3] != "sharding" {
				continue
			}
			exe := parts[2]
			shards, err := model.DecodeShards(string(value))
			if err != nil {
				continue
			}
			assignment.Set(job, exe, shards)
		}
	}

	jobs := make(model.JobIndex, len(rawConfig))
	for job, raw := range rawConfig {
		jobs[job] = config.BuildJobView(job, raw)
	}
	return jobs, assignment, nil
}
