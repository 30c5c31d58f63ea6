// Package reminder nudges the user toward their bedtime reflection on a
// cron schedule, delivered through a channel adapter.
package reminder

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/adhocore/gronx"

	"github.com/MoXuan9X/GoodSleep/pkg/bus"
	"github.com/MoXuan9X/GoodSleep/pkg/config"
	"github.com/MoXuan9X/GoodSleep/pkg/logger"
)

// Nudge is the message sent when the schedule fires.
const Nudge = "到休息时间啦。今天脑子里还盘旋着什么事吗？跟我聊聊，安顿好了再睡。"

// Service fires a bedtime nudge whenever the configured cron expression
// is due, checked once per minute.
type Service struct {
	cfg    config.ReminderConfig
	bus    *bus.MessageBus
	gron   *gronx.Gronx
	cancel context.CancelFunc
	mu     sync.Mutex
}

func NewService(cfg config.ReminderConfig, messageBus *bus.MessageBus) (*Service, error) {
	g := gronx.New()
	expr := strings.TrimSpace(cfg.Cron)
	if expr == "" {
		return nil, fmt.Errorf("reminder.cron is empty")
	}
	if !g.IsValid(expr) {
		return nil, fmt.Errorf("invalid cron expression %q", expr)
	}
	if strings.TrimSpace(cfg.Channel) == "" || strings.TrimSpace(cfg.ChatID) == "" {
		return nil, fmt.Errorf("reminder.channel and reminder.chat_id are required")
	}

	return &Service{cfg: cfg, bus: messageBus, gron: g}, nil
}

func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel != nil {
		return fmt.Errorf("reminder service already started")
	}

	runCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	go s.run(runCtx)

	logger.InfoCF("reminder", "Bedtime reminder scheduled", map[string]interface{}{
		"cron":    s.cfg.Cron,
		"channel": s.cfg.Channel,
	})
	return nil
}

func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
}

func (s *Service) run(ctx context.Context) {
	// Align the first check to the top of the next minute so a due
	// expression fires exactly once per matching minute.
	now := time.Now()
	first := now.Truncate(time.Minute).Add(time.Minute)
	timer := time.NewTimer(first.Sub(now))
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return
	case <-timer.C:
	}

	s.fireIfDue(time.Now())

	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.InfoC("reminder", "Bedtime reminder stopped")
			return
		case tick := <-ticker.C:
			s.fireIfDue(tick)
		}
	}
}

func (s *Service) fireIfDue(at time.Time) {
	due, err := s.gron.IsDue(s.cfg.Cron, at)
	if err != nil {
		logger.WarnCF("reminder", "Cron evaluation failed", map[string]interface{}{
			"cron":  s.cfg.Cron,
			"error": err.Error(),
		})
		return
	}
	if !due {
		return
	}

	logger.InfoC("reminder", "Sending bedtime nudge")
	s.bus.PublishOutbound(bus.OutboundMessage{
		Channel: s.cfg.Channel,
		ChatID:  s.cfg.ChatID,
		Content: Nudge,
	})
}
