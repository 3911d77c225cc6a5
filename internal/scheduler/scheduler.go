package scheduler

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// CycleRunner 周期任务（MonitorService 满足）
type CycleRunner interface {
	RunCycle(ctx context.Context) error
}

// Scheduler 固定间隔调度器
// 状态机：Stopped ⇄ Running。周期错误只记录日志，调度继续；
// Stop 只中断周期之间的等待，正在执行的周期自然跑完后 Stop 才返回。
type Scheduler struct {
	interval time.Duration
	runner   CycleRunner
	logger   *zap.Logger

	mu      sync.Mutex
	stop    chan struct{}
	done    chan struct{}
	running bool
}

// NewScheduler 创建调度器
func NewScheduler(interval time.Duration, runner CycleRunner, logger *zap.Logger) *Scheduler {
	return &Scheduler{
		interval: interval,
		runner:   runner,
		logger:   logger,
	}
}

// Start 启动调度循环（已在运行时为空操作）
func (s *Scheduler) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		s.logger.Warn("Scheduler already running")
		return
	}

	s.stop = make(chan struct{})
	s.done = make(chan struct{})
	s.running = true

	s.logger.Info("Scheduler started",
		zap.Duration("interval", s.interval),
	)

	go s.loop(s.stop, s.done)
}

// Stop 停止调度并等待当前周期结束（未运行时为空操作）
// 不取消进行中的周期：只截断下一次等待，周期完成后返回
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	stop := s.stop
	done := s.done
	s.running = false
	s.mu.Unlock()

	close(stop)
	<-done

	s.logger.Info("Scheduler stopped")
}

// IsRunning 当前是否在运行
func (s *Scheduler) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// loop 先跑一个周期，再按固定间隔循环
// 周期使用独立于停止信号的上下文，Stop 不会中断已开始的周期
func (s *Scheduler) loop(stop chan struct{}, done chan struct{}) {
	defer close(done)

	timer := time.NewTimer(0)
	defer timer.Stop()

	for {
		select {
		case <-stop:
			return
		case <-timer.C:
		}

		if err := s.runner.RunCycle(context.Background()); err != nil {
			s.logger.Error("Cycle failed", zap.Error(err))
		}

		timer.Reset(s.interval)
	}
}
