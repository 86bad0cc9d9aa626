package services

import (
	"context"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/takrit/linerelay/internal/providers/llm"
)

// The only two texts a chat user ever sees on a non-happy path. Everything
// else stays in operator logs.
const (
	NotFoundReply      = "I'm sorry, I couldn't find that information in the knowledge base."
	InternalErrorReply = "I apologize, but I encountered an internal error while processing your request. Please try again shortly."
)

// ChatService is the RAG orchestrator: retrieve grounding passages, read the
// bounded history window, ask the model, then record the exchange. It never
// returns an error to the transport layer; failures collapse into
// InternalErrorReply.
type ChatService interface {
	HandleChat(ctx context.Context, sessionID, question string) string
}

type ChatOptions struct {
	HistoryWindow int           // messages shown to the model, <= persistence cap
	RetrievalK    int           // passages fetched per question
	Timeout       time.Duration // budget for the whole turn, external calls included
}

type chatService struct {
	retrieval RetrievalService
	history   HistoryService
	model     llm.Provider
	opts      ChatOptions
	log       *logrus.Logger
}

func NewChatService(retrieval RetrievalService, history HistoryService, model llm.Provider, opts ChatOptions, log *logrus.Logger) ChatService {
	if opts.HistoryWindow <= 0 {
		opts.HistoryWindow = 3
	}
	if opts.RetrievalK <= 0 {
		opts.RetrievalK = 5
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 60 * time.Second
	}
	if log == nil {
		log = logrus.New()
	}
	return &chatService{retrieval: retrieval, history: history, model: model, opts: opts, log: log}
}

func (s *chatService) HandleChat(ctx context.Context, sessionID, question string) string {
	entry := s.log.WithField("session_id", sessionID)

	if sessionID == "" || strings.TrimSpace(question) == "" {
		entry.Warn("chat turn dropped: missing session id or question")
		return InternalErrorReply
	}

	// A hung external call must not hang the reply indefinitely.
	ctx, cancel := context.WithTimeout(ctx, s.opts.Timeout)
	defer cancel()

	passages, err := s.retrieval.TopPassages(ctx, question, s.opts.RetrievalK)
	if err != nil {
		entry.WithError(err).Error("retrieval failed")
		return InternalErrorReply
	}

	if len(passages) == 0 {
		// Nothing to ground an answer on. Answer deterministically instead
		// of letting the model improvise, and record the turn as a normal
		// exchange so the follow-up question has context.
		if err := s.recordTurn(ctx, sessionID, question, NotFoundReply); err != nil {
			entry.WithError(err).Error("failed to record not-found turn")
		}
		return NotFoundReply
	}

	window, err := s.history.RecentWindow(ctx, sessionID, s.opts.HistoryWindow)
	if err != nil {
		entry.WithError(err).Error("chat history unusable")
		return InternalErrorReply
	}

	answer, err := s.model.Complete(ctx, BuildPrompt(passages, window, question))
	if err != nil {
		// The question is only persisted after a successful model call.
		entry.WithError(err).Error("model invocation failed")
		return InternalErrorReply
	}

	if err := s.recordTurn(ctx, sessionID, question, answer); err != nil {
		entry.WithError(err).Error("failed to persist conversation turn")
		return InternalErrorReply
	}

	return answer
}

// recordTurn appends the user question and the assistant answer, in that
// order, as two messages.
func (s *chatService) recordTurn(ctx context.Context, sessionID, question, answer string) error {
	if err := s.history.AddUserMessage(ctx, sessionID, question); err != nil {
		return err
	}
	return s.history.AddAssistantMessage(ctx, sessionID, answer)
}
