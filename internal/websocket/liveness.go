package websocket

import (
	"sync"
	"time"

	"go.uber.org/zap"
)

// Liveness periodically probes a peer. The first failed probe ends the loop;
// the read side notices the dead connection through its deadline.
type Liveness struct {
	interval time.Duration
	probe    func() error
	logger   *zap.Logger

	stopChan chan struct{}
	stopOnce sync.Once
	started  sync.Once
}

// NewLiveness creates a liveness probe that calls probe every interval
func NewLiveness(interval time.Duration, probe func() error, logger *zap.Logger) *Liveness {
	return &Liveness{
		interval: interval,
		probe:    probe,
		logger:   logger,
		stopChan: make(chan struct{}),
	}
}

// Start begins probing in the background. Later calls are no-ops.
func (l *Liveness) Start() {
	l.started.Do(func() {
		go l.loop()
	})
}

// Stop cancels the probe. It is safe to call more than once.
func (l *Liveness) Stop() {
	l.stopOnce.Do(func() {
		close(l.stopChan)
	})
}

func (l *Liveness) loop() {
	ticker := time.NewTicker(l.interval)
	defer ticker.Stop()

	for {
		select {
		case <-l.stopChan:
			return
		case <-ticker.C:
			select {
			case <-l.stopChan:
				return
			default:
			}
			if err := l.probe(); err != nil {
				l.logger.Debug("Liveness probe failed", zap.Error(err))
				return
			}
		}
	}
}
