package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/line/line-bot-sdk-go/v7/linebot"
	"github.com/sirupsen/logrus"

	"github.com/takrit/linerelay/internal/cache"
	"github.com/takrit/linerelay/internal/providers/messaging"
	"github.com/takrit/linerelay/internal/services"
)

// WebhookHandler receives LINE webhook calls, relays text messages through
// the chat service, and replies with its answer. The platform retries on
// non-2xx, so once the request parses we always return 200 and keep
// per-event failures in the logs.
type WebhookHandler struct {
	bot      *linebot.Client
	chat     services.ChatService
	replier  messaging.Replier
	dedup    cache.Deduper // nil disables redelivery dedup
	dedupTTL time.Duration
	log      *logrus.Logger
}

func NewWebhookHandler(bot *linebot.Client, chat services.ChatService, replier messaging.Replier, dedup cache.Deduper, log *logrus.Logger) *WebhookHandler {
	if log == nil {
		log = logrus.New()
	}
	return &WebhookHandler{
		bot:      bot,
		chat:     chat,
		replier:  replier,
		dedup:    dedup,
		dedupTTL: time.Hour,
		log:      log,
	}
}

func (h *WebhookHandler) Handle(c *gin.Context) {
	events, err := h.bot.ParseRequest(c.Request)
	if err != nil {
		if errors.Is(err, linebot.ErrInvalidSignature) {
			c.Status(http.StatusBadRequest)
			return
		}
		c.Status(http.StatusInternalServerError)
		return
	}

	for _, event := range events {
		h.handleEvent(c, event)
	}
	c.Status(http.StatusOK)
}

func (h *WebhookHandler) handleEvent(c *gin.Context, event *linebot.Event) {
	if event.Type != linebot.EventTypeMessage {
		return
	}
	msg, ok := event.Message.(*linebot.TextMessage)
	if !ok {
		return
	}

	sessionID := ""
	if event.Source != nil {
		sessionID = event.Source.UserID
	}
	if sessionID == "" || msg.Text == "" {
		return
	}

	ctx := c.Request.Context()
	entry := h.log.WithFields(logrus.Fields{
		"session_id": sessionID,
		"event_id":   event.WebhookEventID,
	})

	if h.dedup != nil && event.WebhookEventID != "" {
		seen, err := h.dedup.Seen(ctx, event.WebhookEventID, h.dedupTTL)
		if err != nil {
			// Dedup is an optimization; process the event anyway.
			entry.WithError(err).Warn("webhook dedup unavailable")
		} else if seen {
			entry.Info("skipping redelivered webhook event")
			return
		}
	}

	answer := h.chat.HandleChat(ctx, sessionID, msg.Text)

	// The turn is already persisted; a failed delivery is logged, never
	// rolled back.
	if err := h.replier.ReplyText(ctx, event.ReplyToken, answer); err != nil {
		entry.WithError(err).Error("failed to deliver reply")
	}
}
