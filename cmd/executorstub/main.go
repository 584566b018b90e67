package main

import (
	"context"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"go.uber.org/zap"

	"shardkeeper/internal/cc"
	"shardkeeper/internal/executorstub"
)

const (
	envEndpoints = "SHARDKEEPER_ETCD_ENDPOINTS"
	envNamespace = "SHARDKEEPER_NAMESPACE"
	envExecutor  = "SHARDKEEPER_EXECUTOR_ID"
)

func main() {
	log, err := zap.NewProduction()
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	endpoints := strings.Split(os.Getenv(envEndpoints), ",")
	if len(endpoints) == 0 || endpoints[0] == "" {
		endpoints = []string{"localhost:2379"}
	}
	namespace := os.Getenv(envNamespace)
	if namespace == "" {
		namespace = "/shardkeeper"
	}

	id := os.Getenv(envExecutor)
	if id == "" {
		if hostname, err := os.Hostname(); err == nil && hostname != "" {
			id = hostname
		} else {
			id = "executor-unknown"
		}
	}

	client, err := cc.NewClient(cc.Config{Endpoints: endpoints, Namespace: namespace}, log)
	if err != nil {
		log.Fatal("failed to connect to coordination store", zap.Error(err))
	}
	defer client.Close()

	stub := executorstub.New(client, id, log)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go stub.Run(ctx)
	log.Info("executor stub started", zap.String("id", id), zap.String("namespace", namespace))

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("executor stub shutting down")
}
