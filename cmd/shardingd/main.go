package main

import (
	"context"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"go.uber.org/zap"

	"shardkeeper/internal/alarm"
	"shardkeeper/internal/cc"
	"shardkeeper/internal/nc"
)

const (
	envEndpoints = "SHARDKEEPER_ETCD_ENDPOINTS"
	envNamespace = "SHARDKEEPER_NAMESPACE"
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

	hostID, err := os.Hostname()
	if err != nil || hostID == "" {
		hostID = "shardingd-unknown"
	}

	cfg := cc.Config{Endpoints: endpoints, Namespace: namespace}
	controller := nc.NewController(cfg, hostID, alarm.NewLogSink(log), log)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := controller.Start(ctx); err != nil {
		log.Fatal("failed to start namespace controller", zap.Error(err))
	}
	log.Info("shardingd started", zap.String("namespace", namespace), zap.String("host", hostID))

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down")
	if err := controller.Stop(); err != nil {
		log.Error("shutdown reported errors", zap.Error(err))
	}
}
