package worker

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/BuzzLyutic/tarefas-api/internal/model"
)

type StatsSource interface {
	GetStats(ctx context.Context) (model.Stats, error)
}

// Auditor периодически сверяет порядок задач и пишет в лог дырки после удалений.
// Ничего не исправляет: перенумерация не делается намеренно.
type Auditor struct {
	source   StatsSource
	logger   *zap.Logger
	interval time.Duration
	wg       sync.WaitGroup
	stop     chan struct{}
	once     sync.Once
}

func NewAuditor(source StatsSource, logger *zap.Logger, interval time.Duration) *Auditor {
	return &Auditor{
		source:   source,
		logger:   logger,
		interval: interval,
		stop:     make(chan struct{}),
	}
}

func (a *Auditor) Start(ctx context.Context) {
	if a.interval <= 0 {
		a.logger.Info("Rank auditor disabled")
		return
	}
	a.logger.Info("Starting rank auditor", zap.Duration("interval", a.interval))

	a.wg.Add(1)
	go a.run(ctx)
}

func (a *Auditor) Stop() {
	a.logger.Info("Stopping rank auditor...")
	a.once.Do(func() { close(a.stop) })
	a.wg.Wait()
	a.logger.Info("Rank auditor stopped")
}

func (a *Auditor) run(ctx context.Context) {
	defer a.wg.Done()

	ticker := time.NewTicker(a.interval)
	defer ticker.Stop()

	for {
		select {
		case <-a.stop:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := a.auditOnce(ctx); err != nil && ctx.Err() == nil {
				a.logger.Error("rank audit failed", zap.Error(err))
			}
		}
	}
}

func (a *Auditor) auditOnce(ctx context.Context) (model.Stats, error) {
	stats, err := a.source.GetStats(ctx)
	if err != nil {
		return stats, err
	}

	fields := []zap.Field{
		zap.Int("tasks", stats.TotalTasks),
		zap.Int("max_rank", stats.MaxRank),
		zap.Int("gaps", stats.RankGaps),
		zap.Int("highlighted", stats.Highlighted),
	}
	if stats.RankGaps > 0 {
		a.logger.Warn("Rank gaps detected", fields...)
	} else {
		a.logger.Debug("Rank audit ok", fields...)
	}
	return stats, nil
}
