package core

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"finassist.com/finance-chatbot/internal/observability"
	"finassist.com/finance-chatbot/internal/store"
)

type fakeCompletion struct {
	mu       sync.Mutex
	reply    string
	err      error
	requests []CompletionRequest
}

func (f *fakeCompletion) Complete(_ context.Context, req CompletionRequest) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests = append(f.requests, req)
	if f.err != nil {
		return "", f.err
	}
	return f.reply, nil
}

func (f *fakeCompletion) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.requests)
}

func newTestSQLite(t *testing.T) *store.SQLiteStore {
	t.Helper()
	s, err := store.NewSQLiteStore(filepath.Join(t.TempDir(), "core.db"), zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func newTestConversation(t *testing.T, s store.Store) *store.Conversation {
	t.Helper()
	conv, err := s.CreateConversation(context.Background(), "user-1", DefaultConversationTitle)
	require.NoError(t, err)
	return conv
}

func TestPipeline_EmptyHistoryAndKnowledge(t *testing.T) {
	ctx := context.Background()
	db := newTestSQLite(t)
	conv := newTestConversation(t, db)
	llm := &fakeCompletion{reply: "Here is how to check it."}
	p := NewPipeline(db, db, db, llm, zap.NewNop())

	result, err := p.HandleMessage(ctx, ChatRequest{ConversationID: conv.ID, Message: "What is my balance?"})
	require.NoError(t, err)

	assert.Equal(t, IntentAccountInquiry, result.Intent)
	assert.Equal(t, "Here is how to check it.", result.Reply)
	assert.Empty(t, result.Sources)

	require.Equal(t, 1, llm.calls())
	req := llm.requests[0]
	assert.Empty(t, req.History)
	assert.Equal(t, "What is my balance?", req.Message)
	assert.Equal(t, BuildSystemPrompt(""), req.System)

	msgs := buildMessages(req)
	require.Len(t, msgs, 2)
	assert.Equal(t, "system", msgs[0].Role)
	assert.Equal(t, "user", msgs[1].Role)

	stored, err := db.ListMessages(ctx, conv.ID)
	require.NoError(t, err)
	require.Len(t, stored, 1)
	assert.Equal(t, store.RoleAssistant, stored[0].Role)
	require.NotNil(t, stored[0].Intent)
	assert.Equal(t, "account_inquiry", *stored[0].Intent)
	assert.Empty(t, stored[0].Sources)
}

func TestPipeline_HistoryAndKnowledgeReachThePrompt(t *testing.T) {
	ctx := context.Background()
	db := newTestSQLite(t)
	conv := newTestConversation(t, db)
	_, err := NewFAQService(db, nil, zap.NewNop()).Seed(ctx)
	require.NoError(t, err)

	require.NoError(t, db.CreateMessage(ctx, &store.Message{ConversationID: conv.ID, Role: store.RoleUser, Content: "hello"}))
	require.NoError(t, db.CreateMessage(ctx, &store.Message{ConversationID: conv.ID, Role: store.RoleAssistant, Content: "hi there"}))

	llm := &fakeCompletion{reply: "Call the fraud hotline."}
	p := NewPipeline(db, db, db, llm, zap.NewNop())

	result, err := p.HandleMessage(ctx, ChatRequest{ConversationID: conv.ID, Message: "I think my card was stolen"})
	require.NoError(t, err)
	assert.Equal(t, IntentFraudReport, result.Intent)
	assert.Equal(t, []string{FAQDatabaseSource}, result.Sources)

	req := llm.requests[0]
	assert.Equal(t, []store.Turn{
		{Role: store.RoleUser, Content: "hello"},
		{Role: store.RoleAssistant, Content: "hi there"},
	}, req.History)
	assert.Contains(t, req.System, "Q: "+seedFAQs[0].Question)
	assert.Contains(t, req.System, "A: "+seedFAQs[19].Answer)
}

func TestPipeline_ContextLimit(t *testing.T) {
	ctx := context.Background()
	db := newTestSQLite(t)
	conv := newTestConversation(t, db)
	_, err := NewFAQService(db, nil, zap.NewNop()).Seed(ctx)
	require.NoError(t, err)

	llm := &fakeCompletion{reply: "ok"}
	p := NewPipeline(db, db, db, llm, zap.NewNop(), WithContextLimit(2))

	_, err = p.HandleMessage(ctx, ChatRequest{ConversationID: conv.ID, Message: "hi"})
	require.NoError(t, err)

	system := llm.requests[0].System
	assert.Contains(t, system, seedFAQs[1].Question)
	assert.NotContains(t, system, seedFAQs[2].Question)
}

func TestPipeline_InvalidRequestBeforeAnyIO(t *testing.T) {
	llm := &fakeCompletion{reply: "unused"}
	// A nil store would panic if touched.
	p := NewPipeline(nil, nil, nil, llm, zap.NewNop())

	for _, req := range []ChatRequest{
		{ConversationID: "", Message: "hi"},
		{ConversationID: "c1", Message: ""},
	} {
		_, err := p.HandleMessage(context.Background(), req)
		assert.ErrorIs(t, err, ErrInvalidRequest)
	}
	assert.Zero(t, llm.calls())
}

func TestPipeline_WhitespaceMessageIsStillAMessage(t *testing.T) {
	db := newTestSQLite(t)
	conv := newTestConversation(t, db)
	llm := &fakeCompletion{reply: "Could you say more?"}
	p := NewPipeline(db, db, db, llm, zap.NewNop())

	result, err := p.HandleMessage(context.Background(), ChatRequest{ConversationID: conv.ID, Message: "   "})
	require.NoError(t, err)
	assert.Equal(t, IntentGeneral, result.Intent)
	require.Equal(t, 1, llm.calls())
	assert.Equal(t, "   ", llm.requests[0].Message)
}

func TestPipeline_UpstreamFailurePersistsNothing(t *testing.T) {
	ctx := context.Background()
	db := newTestSQLite(t)
	conv := newTestConversation(t, db)
	llm := &fakeCompletion{err: &UpstreamError{Status: 500, Body: "boom"}}
	metrics := observability.NewMetrics("test")
	p := NewPipeline(db, db, db, llm, zap.NewNop(), WithMetrics(metrics))

	_, err := p.HandleMessage(ctx, ChatRequest{ConversationID: conv.ID, Message: "Tell me about loans"})

	var upstream *UpstreamError
	require.ErrorAs(t, err, &upstream)
	assert.Equal(t, 500, upstream.Status)
	assert.Equal(t, "boom", upstream.Body)

	stored, err := db.ListMessages(ctx, conv.ID)
	require.NoError(t, err)
	assert.Empty(t, stored)
}

func TestPipeline_PlainCompletionErrorBecomesUpstream(t *testing.T) {
	db := newTestSQLite(t)
	conv := newTestConversation(t, db)
	p := NewPipeline(db, db, db, &fakeCompletion{err: errors.New("dial tcp: refused")}, zap.NewNop())

	_, err := p.HandleMessage(context.Background(), ChatRequest{ConversationID: conv.ID, Message: "hi"})

	var upstream *UpstreamError
	require.ErrorAs(t, err, &upstream)
	assert.Zero(t, upstream.Status)
}

type failingHistory struct{}

func (failingHistory) ListTurns(context.Context, string) ([]store.Turn, error) {
	return nil, errors.New("database is locked")
}

type failingKnowledge struct{}

func (failingKnowledge) ListFAQs(context.Context, int) ([]store.FAQ, error) {
	return nil, errors.New("relation faqs does not exist")
}

type failingWriter struct{}

func (failingWriter) CreateMessage(context.Context, *store.Message) error {
	return errors.New("disk full")
}

func TestPipeline_StorageErrors(t *testing.T) {
	db := newTestSQLite(t)
	conv := newTestConversation(t, db)
	req := ChatRequest{ConversationID: conv.ID, Message: "hi"}

	t.Run("history", func(t *testing.T) {
		llm := &fakeCompletion{reply: "ok"}
		_, err := NewPipeline(failingHistory{}, db, db, llm, zap.NewNop()).HandleMessage(context.Background(), req)
		var storageErr *StorageError
		require.ErrorAs(t, err, &storageErr)
		assert.Zero(t, llm.calls())
	})

	t.Run("knowledge", func(t *testing.T) {
		llm := &fakeCompletion{reply: "ok"}
		_, err := NewPipeline(db, failingKnowledge{}, db, llm, zap.NewNop()).HandleMessage(context.Background(), req)
		var storageErr *StorageError
		require.ErrorAs(t, err, &storageErr)
		assert.Zero(t, llm.calls())
	})

	t.Run("persist", func(t *testing.T) {
		llm := &fakeCompletion{reply: "ok"}
		_, err := NewPipeline(db, db, failingWriter{}, llm, zap.NewNop()).HandleMessage(context.Background(), req)
		var persistErr *PersistenceError
		require.ErrorAs(t, err, &persistErr)
		assert.Equal(t, 1, llm.calls())
	})
}
