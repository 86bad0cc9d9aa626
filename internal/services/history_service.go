package services

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/takrit/linerelay/internal/models"
	mongorepo "github.com/takrit/linerelay/internal/repositories/mongo"
	"github.com/takrit/linerelay/internal/utils"
)

// HistoryService owns all mutation of per-session chat logs. Sessions are
// created implicitly on first append and expire as a whole via the TTL index
// once idle. Readers (the chat service, the debug endpoints) never touch the
// log except through this contract.
type HistoryService interface {
	AddUserMessage(ctx context.Context, sessionID, content string) error
	AddAssistantMessage(ctx context.Context, sessionID, content string) error
	// Messages returns the full persisted log in conversation order. A
	// transient read failure degrades to an empty log; a persisted message
	// with an unrecognized role is a corruption and fails loudly instead.
	Messages(ctx context.Context, sessionID string) ([]models.Message, error)
	// RecentWindow returns the newest n messages, n clamped to the
	// persistence cap. This is the only read the prompt builder uses, so the
	// model-facing window stays tunable independently of what is persisted.
	RecentWindow(ctx context.Context, sessionID string, n int) ([]models.Message, error)
	// Clear empties the session's log; the session keeps accepting appends.
	Clear(ctx context.Context, sessionID string) error
}

type historyService struct {
	histories mongorepo.HistoryRepository
	maxInDB   int
	log       *logrus.Logger
}

func NewHistoryService(histories mongorepo.HistoryRepository, maxInDB int, log *logrus.Logger) HistoryService {
	if maxInDB <= 0 {
		maxInDB = 20
	}
	if log == nil {
		log = logrus.New()
	}
	return &historyService{histories: histories, maxInDB: maxInDB, log: log}
}

func (s *historyService) AddUserMessage(ctx context.Context, sessionID, content string) error {
	return s.append(ctx, sessionID, models.RoleHuman, content)
}

func (s *historyService) AddAssistantMessage(ctx context.Context, sessionID, content string) error {
	return s.append(ctx, sessionID, models.RoleAssistant, content)
}

// append is the single write primitive. Losing a turn silently is worse than
// a visible failure, so unlike reads, append errors always propagate.
func (s *historyService) append(ctx context.Context, sessionID string, role models.Role, content string) error {
	const op = "HistoryService.Append"

	if sessionID == "" || content == "" {
		return utils.E(utils.CodeInvalidArgument, op, "session_id and content are required", nil)
	}

	msg := models.Message{
		Role:      role,
		Content:   content,
		Timestamp: time.Now().UTC(),
	}
	if err := s.histories.Append(ctx, sessionID, msg); err != nil {
		return utils.E(utils.CodeInternal, op, "failed to append message", err)
	}
	return nil
}

func (s *historyService) Messages(ctx context.Context, sessionID string) ([]models.Message, error) {
	const op = "HistoryService.Messages"

	if sessionID == "" {
		return nil, utils.E(utils.CodeInvalidArgument, op, "session_id is required", nil)
	}

	raw, err := s.histories.Get(ctx, sessionID)
	if err != nil {
		s.log.WithError(err).WithField("session_id", sessionID).
			Warn("chat history read failed, continuing with empty history")
		return nil, nil
	}
	return validateRoles(op, raw)
}

func (s *historyService) RecentWindow(ctx context.Context, sessionID string, n int) ([]models.Message, error) {
	const op = "HistoryService.RecentWindow"

	if sessionID == "" {
		return nil, utils.E(utils.CodeInvalidArgument, op, "session_id is required", nil)
	}
	if n > s.maxInDB {
		n = s.maxInDB
	}

	raw, err := s.histories.Recent(ctx, sessionID, n)
	if err != nil {
		s.log.WithError(err).WithField("session_id", sessionID).
			Warn("chat history read failed, continuing with empty history")
		return nil, nil
	}
	return validateRoles(op, raw)
}

func (s *historyService) Clear(ctx context.Context, sessionID string) error {
	const op = "HistoryService.Clear"

	if sessionID == "" {
		return utils.E(utils.CodeInvalidArgument, op, "session_id is required", nil)
	}
	if err := s.histories.Clear(ctx, sessionID); err != nil {
		return utils.E(utils.CodeInternal, op, "failed to clear history", err)
	}
	return nil
}

// validateRoles rejects persisted messages whose role is outside the closed
// set. Corruption is never coerced into a valid turn.
func validateRoles(op string, msgs []models.Message) ([]models.Message, error) {
	for _, m := range msgs {
		if _, err := models.ParseRole(string(m.Role)); err != nil {
			return nil, utils.E(utils.CodeCorruptData, op, "chat history contains an unknown role", err)
		}
	}
	return msgs, nil
}
