// Package nc is the Namespace Controller: it owns one namespace's full
// CC/TCM/EI/SE stack, brings it up in the order spec.md §4.5 requires,
// and supervises the connection, rebuilding the stack from scratch on
// reconnect.
package nc

import (
	"context"
	"sync"
	"time"

	"go.uber.org/multierr"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"shardkeeper/internal/alarm"
	"shardkeeper/internal/cc"
	"shardkeeper/internal/ei"
	"shardkeeper/internal/se"
	"shardkeeper/internal/tcm"
)

// Controller is the only component that creates or tears down a
// namespace's CC/TCM/EI/SE stack; nothing else reaches past it to
// those packages directly.
type Controller struct {
	cfg       cc.Config
	hostID    string
	alarmSink alarm.Sink
	log       *zap.Logger

	// limiter bounds how often bringUp may be retried during a
	// reconnect storm; exponential backoff (below) handles the common
	// case, the limiter is the floor under it.
	limiter *rate.Limiter

	mu     sync.Mutex
	client *cc.Client
	tm     *tcm.Manager
	intake *ei.Intake
	engine *se.Engine

	lostCh          chan struct{}
	superviseCancel context.CancelFunc
	superviseDone   chan struct{}
}

func NewController(cfg cc.Config, hostID string, alarmSink alarm.Sink, log *zap.Logger) *Controller {
	cfg = cfg.WithDefaults()
	if alarmSink == nil {
		alarmSink = alarm.NewLogSink(log)
	}
	return &Controller{
		cfg:       cfg,
		hostID:    hostID,
		alarmSink: alarmSink,
		log:       log.Named("nc"),
		limiter:   rate.NewLimiter(rate.Every(cfg.RetryBaseDelay), 1),
		lostCh:    make(chan struct{}, 1),
	}
}

// Start brings up the stack and begins supervising the connection.
func (n *Controller) Start(ctx context.Context) error {
	if err := n.bringUp(ctx); err != nil {
		return err
	}

	superviseCtx, cancel := context.WithCancel(ctx)
	n.superviseCancel = cancel
	n.superviseDone = make(chan struct{})
	go n.supervise(superviseCtx)
	return nil
}

// bringUp executes the fixed startup order: dial and establish the
// session, attempt leader election, then pre-create the four roots and
// attach EI's listeners. Idempotent: safe to call again after a full
// teardown to rejoin the namespace from a clean state.
func (n *Controller) bringUp(ctx context.Context) error {
	client, err := cc.NewClient(n.cfg, n.log)
	if err != nil {
		return err
	}

	tm := tcm.NewManager(client, n.log)
	cleaner := ei.NewCoordinationCleaner(client, n.log)
	intake := ei.New(tm, client, n.log, cleaner)
	engine := se.NewEngine(client, intake.Events(), n.alarmSink, n.hostID, n.log)

	if err := engine.Start(ctx); err != nil {
		client.Close()
		return err
	}
	intake.Start(ctx)

	n.mu.Lock()
	n.client = client
	n.tm = tm
	n.intake = intake
	n.engine = engine
	n.mu.Unlock()

	client.SubscribeConnectionState(n.onConnState)
	n.log.Info("namespace controller up", zap.String("namespace", n.cfg.Namespace), zap.String("host", n.hostID))
	return nil
}

// onConnState runs on CC's session-watch goroutine and must not block;
// it only wakes the supervise loop, which does the actual teardown.
func (n *Controller) onConnState(s cc.ConnState) {
	if s != cc.StateLost && s != cc.StateSuspended {
		return
	}
	select {
	case n.lostCh <- struct{}{}:
	default:
	}
}

func (n *Controller) supervise(ctx context.Context) {
	defer close(n.superviseDone)
	for {
		select {
		case <-ctx.Done():
			return
		case <-n.lostCh:
			n.log.Warn("connection lost; tearing down")
			n.teardown()
			n.reconnectLoop(ctx)
		}
	}
}

// teardown releases whatever the current stack holds without
// attempting to report errors anywhere but the log: this runs on the
// path to a reconnect attempt, not to an orderly Stop.
func (n *Controller) teardown() {
	n.mu.Lock()
	tm, intake, engine, client := n.tm, n.intake, n.engine, n.client
	n.client, n.tm, n.intake, n.engine = nil, nil, nil, nil
	n.mu.Unlock()

	if engine != nil {
		engine.Stop()
	}
	if tm != nil {
		tm.Shutdown()
	}
	if intake != nil {
		intake.Stop()
	}
	if client != nil {
		if err := client.Close(); err != nil {
			n.log.Warn("close stale client failed", zap.Error(err))
		}
	}
}

// reconnectLoop retries bringUp with exponential backoff, floored by
// limiter, until it succeeds or ctx is cancelled.
func (n *Controller) reconnectLoop(ctx context.Context) {
	delay := n.cfg.RetryBaseDelay
	for {
		if ctx.Err() != nil {
			return
		}
		if err := n.limiter.Wait(ctx); err != nil {
			return
		}
		if err := n.bringUp(ctx); err != nil {
			n.log.Warn("reconnect attempt failed", zap.Error(err))
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return
			}
			delay *= 2
			if delay > n.cfg.RetryMaxDelay {
				delay = n.cfg.RetryMaxDelay
			}
			continue
		}
		n.log.Info("reconnected")
		return
	}
}

// Stop tears the stack down in reverse dependency order and stops
// supervising the connection. Only the client's Close reports an error
// here; the engine, TCM and intake teardown steps return nothing, and
// the engine logs its own failure to release the leader lock.
func (n *Controller) Stop() error {
	if n.superviseCancel != nil {
		n.superviseCancel()
	}
	if n.superviseDone != nil {
		<-n.superviseDone
	}

	n.mu.Lock()
	tm, intake, engine, client := n.tm, n.intake, n.engine, n.client
	n.client, n.tm, n.intake, n.engine = nil, nil, nil, nil
	n.mu.Unlock()

	var err error
	if engine != nil {
		engine.Stop()
	}
	if tm != nil {
		tm.Shutdown()
	}
	if intake != nil {
		intake.Stop()
	}
	if client != nil {
		err = multierr.Append(err, client.Close())
	}
	return err
}
