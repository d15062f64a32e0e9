package store

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
)

type Sweepable interface {
	Sweep() int
}

// Sweeper 用 cron 定期清理过期数据
type Sweeper struct {
	c *cron.Cron
}

func NewSweeper(interval time.Duration, targets map[string]Sweepable) (*Sweeper, error) {
	if interval <= 0 {
		return nil, fmt.Errorf("store: invalid sweep interval %s", interval)
	}

	c := cron.New()
	for name, target := range targets {
		name, target := name, target
		_, err := c.AddFunc(fmt.Sprintf("@every %s", interval), func() {
			if n := target.Sweep(); n > 0 {
				slog.Info("swept expired entries", "target", name, "count", n)
			}
		})
		if err != nil {
			return nil, fmt.Errorf("add sweep job %s: %w", name, err)
		}
	}
	return &Sweeper{c: c}, nil
}

func (s *Sweeper) Start() {
	s.c.Start()
}

// Stop 等待正在执行的任务结束
func (s *Sweeper) Stop() {
	<-s.c.Stop().Done()
}
