package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/takrit/linerelay/internal/models"
	"github.com/takrit/linerelay/internal/utils"
)

// fakeHistoryRepo mimics the store contract in memory, including the
// persistence cap, implicit session creation, and (when ttl is set) the
// idle-session expiry the store's TTL index provides: a session whose last
// append is older than ttl disappears as a whole.
type fakeHistoryRepo struct {
	logs         map[string][]models.Message
	lastActivity map[string]time.Time
	limit        int
	ttl          time.Duration
	now          func() time.Time
	appendErr    error
	readErr      error
}

func newFakeHistoryRepo(limit int) *fakeHistoryRepo {
	return &fakeHistoryRepo{
		logs:         map[string][]models.Message{},
		lastActivity: map[string]time.Time{},
		limit:        limit,
		now:          time.Now,
	}
}

// reap drops the session if it has been idle past the ttl, the way the TTL
// monitor removes the whole document.
func (f *fakeHistoryRepo) reap(sessionID string) {
	if f.ttl <= 0 {
		return
	}
	last, ok := f.lastActivity[sessionID]
	if ok && f.now().Sub(last) >= f.ttl {
		delete(f.logs, sessionID)
		delete(f.lastActivity, sessionID)
	}
}

func (f *fakeHistoryRepo) Append(ctx context.Context, sessionID string, msg models.Message) error {
	if f.appendErr != nil {
		return f.appendErr
	}
	f.reap(sessionID)
	log := append(f.logs[sessionID], msg)
	if f.limit > 0 && len(log) > f.limit {
		log = log[len(log)-f.limit:]
	}
	f.logs[sessionID] = log
	f.lastActivity[sessionID] = f.now()
	return nil
}

func (f *fakeHistoryRepo) Get(ctx context.Context, sessionID string) ([]models.Message, error) {
	if f.readErr != nil {
		return nil, f.readErr
	}
	f.reap(sessionID)
	return f.logs[sessionID], nil
}

func (f *fakeHistoryRepo) Recent(ctx context.Context, sessionID string, n int) ([]models.Message, error) {
	if f.readErr != nil {
		return nil, f.readErr
	}
	f.reap(sessionID)
	log := f.logs[sessionID]
	if n >= len(log) {
		return log, nil
	}
	return log[len(log)-n:], nil
}

func (f *fakeHistoryRepo) Clear(ctx context.Context, sessionID string) error {
	f.logs[sessionID] = []models.Message{}
	return nil
}

func quietLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func TestHistoryAppendTagsRolesInOrder(t *testing.T) {
	repo := newFakeHistoryRepo(20)
	svc := NewHistoryService(repo, 20, quietLogger())
	ctx := context.Background()

	require.NoError(t, svc.AddUserMessage(ctx, "U1", "hello"))
	require.NoError(t, svc.AddAssistantMessage(ctx, "U1", "hi there"))

	msgs, err := svc.Messages(ctx, "U1")
	require.NoError(t, err)
	require.Len(t, msgs, 2)

	assert.Equal(t, models.RoleHuman, msgs[0].Role)
	assert.Equal(t, "hello", msgs[0].Content)
	assert.Equal(t, models.RoleAssistant, msgs[1].Role)
	assert.Equal(t, "hi there", msgs[1].Content)
	assert.False(t, msgs[0].Timestamp.IsZero())
	assert.False(t, msgs[1].Timestamp.IsZero())
}

func TestHistoryKeepsNewestUpToCap(t *testing.T) {
	repo := newFakeHistoryRepo(5)
	svc := NewHistoryService(repo, 5, quietLogger())
	ctx := context.Background()

	for i := 0; i < 8; i++ {
		require.NoError(t, svc.AddUserMessage(ctx, "U1", fmt.Sprintf("q-%d", i)))
	}

	msgs, err := svc.Messages(ctx, "U1")
	require.NoError(t, err)
	require.Len(t, msgs, 5)
	assert.Equal(t, "q-3", msgs[0].Content)
	assert.Equal(t, "q-7", msgs[4].Content)
}

func TestHistoryRecentWindowIsSuffixOfFullLog(t *testing.T) {
	repo := newFakeHistoryRepo(20)
	svc := NewHistoryService(repo, 20, quietLogger())
	ctx := context.Background()

	for i := 0; i < 6; i++ {
		require.NoError(t, svc.AddUserMessage(ctx, "U1", fmt.Sprintf("q-%d", i)))
	}

	full, err := svc.Messages(ctx, "U1")
	require.NoError(t, err)

	window, err := svc.RecentWindow(ctx, "U1", 3)
	require.NoError(t, err)
	assert.Equal(t, full[len(full)-3:], window)
}

func TestHistoryRecentWindowClampedToCap(t *testing.T) {
	repo := newFakeHistoryRepo(5)
	svc := NewHistoryService(repo, 5, quietLogger())
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		require.NoError(t, svc.AddUserMessage(ctx, "U1", fmt.Sprintf("q-%d", i)))
	}

	window, err := svc.RecentWindow(ctx, "U1", 100)
	require.NoError(t, err)
	assert.Len(t, window, 5)
}

func TestHistoryUnknownSessionIsEmpty(t *testing.T) {
	svc := NewHistoryService(newFakeHistoryRepo(20), 20, quietLogger())

	msgs, err := svc.Messages(context.Background(), "nobody")
	require.NoError(t, err)
	assert.Empty(t, msgs)
}

func TestHistoryCorruptRoleFailsLoudly(t *testing.T) {
	repo := newFakeHistoryRepo(20)
	// pre-existing data written by something else
	repo.logs["U1"] = []models.Message{{Role: "ai", Content: "legacy"}}
	svc := NewHistoryService(repo, 20, quietLogger())

	_, err := svc.Messages(context.Background(), "U1")
	require.Error(t, err)
	assert.True(t, utils.IsCode(err, utils.CodeCorruptData))
	assert.ErrorIs(t, err, models.ErrUnknownRole)

	_, err = svc.RecentWindow(context.Background(), "U1", 3)
	require.Error(t, err)
	assert.True(t, utils.IsCode(err, utils.CodeCorruptData))
}

func TestHistoryReadFailureDegradesToEmpty(t *testing.T) {
	repo := newFakeHistoryRepo(20)
	repo.logs["U1"] = []models.Message{{Role: models.RoleHuman, Content: "hello"}}
	repo.readErr = errors.New("connection reset")
	svc := NewHistoryService(repo, 20, quietLogger())

	msgs, err := svc.Messages(context.Background(), "U1")
	require.NoError(t, err)
	assert.Empty(t, msgs)

	window, err := svc.RecentWindow(context.Background(), "U1", 3)
	require.NoError(t, err)
	assert.Empty(t, window)
}

func TestHistoryAppendFailurePropagates(t *testing.T) {
	repo := newFakeHistoryRepo(20)
	repo.appendErr = errors.New("connection reset")
	svc := NewHistoryService(repo, 20, quietLogger())

	err := svc.AddUserMessage(context.Background(), "U1", "hello")
	require.Error(t, err)
	assert.True(t, utils.IsCode(err, utils.CodeInternal))
}

func TestHistoryClearKeepsSessionUsable(t *testing.T) {
	repo := newFakeHistoryRepo(20)
	svc := NewHistoryService(repo, 20, quietLogger())
	ctx := context.Background()

	require.NoError(t, svc.AddUserMessage(ctx, "U1", "hello"))
	require.NoError(t, svc.Clear(ctx, "U1"))

	msgs, err := svc.Messages(ctx, "U1")
	require.NoError(t, err)
	assert.Empty(t, msgs)

	require.NoError(t, svc.AddUserMessage(ctx, "U1", "again"))
	msgs, err = svc.Messages(ctx, "U1")
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	assert.Equal(t, "again", msgs[0].Content)
}

func TestHistoryIdleSessionExpires(t *testing.T) {
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	current := base
	repo := newFakeHistoryRepo(20)
	repo.ttl = 300 * time.Second
	repo.now = func() time.Time { return current }
	svc := NewHistoryService(repo, 20, quietLogger())
	ctx := context.Background()

	require.NoError(t, svc.AddUserMessage(ctx, "U1", "hello"))
	require.NoError(t, svc.AddAssistantMessage(ctx, "U1", "hi there"))

	// still within the idle window
	current = base.Add(299 * time.Second)
	msgs, err := svc.Messages(ctx, "U1")
	require.NoError(t, err)
	assert.Len(t, msgs, 2)

	// past the idle window the whole session is gone, not an error
	current = base.Add(299*time.Second + 301*time.Second)
	msgs, err = svc.Messages(ctx, "U1")
	require.NoError(t, err)
	assert.Empty(t, msgs)

	window, err := svc.RecentWindow(ctx, "U1", 3)
	require.NoError(t, err)
	assert.Empty(t, window)

	// the next message recreates the session from scratch
	require.NoError(t, svc.AddUserMessage(ctx, "U1", "back again"))
	msgs, err = svc.Messages(ctx, "U1")
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	assert.Equal(t, "back again", msgs[0].Content)
}

func TestHistoryAppendExtendsSessionLifetime(t *testing.T) {
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	current := base
	repo := newFakeHistoryRepo(20)
	repo.ttl = 300 * time.Second
	repo.now = func() time.Time { return current }
	svc := NewHistoryService(repo, 20, quietLogger())
	ctx := context.Background()

	require.NoError(t, svc.AddUserMessage(ctx, "U1", "first"))

	// a second append 200s in refreshes the activity timestamp
	current = base.Add(200 * time.Second)
	require.NoError(t, svc.AddUserMessage(ctx, "U1", "second"))

	// 450s after the first message but only 250s after the last one
	current = base.Add(450 * time.Second)
	msgs, err := svc.Messages(ctx, "U1")
	require.NoError(t, err)
	assert.Len(t, msgs, 2)

	// 301s after the last append both messages expire together
	current = base.Add(501 * time.Second)
	msgs, err = svc.Messages(ctx, "U1")
	require.NoError(t, err)
	assert.Empty(t, msgs)
}

func TestHistoryRejectsEmptyArguments(t *testing.T) {
	svc := NewHistoryService(newFakeHistoryRepo(20), 20, quietLogger())
	ctx := context.Background()

	assert.True(t, utils.IsCode(svc.AddUserMessage(ctx, "", "hello"), utils.CodeInvalidArgument))
	assert.True(t, utils.IsCode(svc.AddUserMessage(ctx, "U1", ""), utils.CodeInvalidArgument))
	assert.True(t, utils.IsCode(svc.Clear(ctx, ""), utils.CodeInvalidArgument))

	_, err := svc.Messages(ctx, "")
	assert.True(t, utils.IsCode(err, utils.CodeInvalidArgument))
}
