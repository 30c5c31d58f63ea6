package reflection

import (
	"context"
	"strings"
	"sync/atomic"

	"github.com/MoXuan9X/GoodSleep/pkg/bus"
	"github.com/MoXuan9X/GoodSleep/pkg/logger"
	"github.com/MoXuan9X/GoodSleep/pkg/session"
)

// resetCommands end the current session from any chat surface.
var resetCommands = map[string]struct{}{
	"/reset": {},
	"/new":   {},
	"重新开始":   {},
}

// AssistantLoop consumes inbound user messages from the bus, runs turns on
// the canonical session, and publishes assistant replies outbound.
type AssistantLoop struct {
	bus        *bus.MessageBus
	controller *Controller
	running    atomic.Bool
}

func NewAssistantLoop(msgBus *bus.MessageBus, controller *Controller) *AssistantLoop {
	return &AssistantLoop{bus: msgBus, controller: controller}
}

func (al *AssistantLoop) Run(ctx context.Context) error {
	al.running.Store(true)

	for al.running.Load() {
		select {
		case <-ctx.Done():
			return nil
		default:
			msg, ok := al.bus.ConsumeInbound(ctx)
			if !ok {
				continue
			}
			al.bus.PublishOutbound(bus.OutboundMessage{
				Channel: msg.Channel,
				ChatID:  msg.ChatID,
				Content: al.handle(ctx, msg),
			})
		}
	}

	return nil
}

func (al *AssistantLoop) Stop() {
	al.running.Store(false)
}

func (al *AssistantLoop) handle(ctx context.Context, msg bus.InboundMessage) string {
	content := strings.TrimSpace(msg.Content)
	if content == "" {
		return ""
	}

	logger.InfoCF("assistant", "Processing message",
		map[string]interface{}{
			"channel":   msg.Channel,
			"chat_id":   msg.ChatID,
			"sender_id": msg.SenderID,
		})

	if _, ok := resetCommands[content]; ok {
		if _, err := al.controller.Reset(ctx); err != nil {
			logger.ErrorCF("assistant", "Reset failed", map[string]interface{}{"error": err.Error()})
			return TurnFailureNotice
		}
		return Greeting
	}

	state, err := al.controller.RunTurn(ctx, content)
	if err != nil {
		logger.WarnCF("assistant", "Turn failed",
			map[string]interface{}{"error": err.Error()})
		return TurnFailureNotice
	}

	if len(state.History) == 0 {
		return FallbackReply
	}
	last := state.History[len(state.History)-1]
	if last.Role != session.RoleAssistant {
		return FallbackReply
	}
	return last.Content
}
