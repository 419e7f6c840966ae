package core

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"finassist.com/finance-chatbot/internal/observability"
	"finassist.com/finance-chatbot/internal/store"
)

// DefaultKnowledgeContextLimit is how many knowledge entries are rendered
// into the system instruction. Entries are taken in storage order, unranked.
const DefaultKnowledgeContextLimit = 20

// HistoryLoader returns a conversation's turns oldest first.
type HistoryLoader interface {
	ListTurns(ctx context.Context, conversationID string) ([]store.Turn, error)
}

// KnowledgeSource returns up to limit knowledge entries in storage order.
type KnowledgeSource interface {
	ListFAQs(ctx context.Context, limit int) ([]store.FAQ, error)
}

// ReplyWriter stores one message row.
type ReplyWriter interface {
	CreateMessage(ctx context.Context, msg *store.Message) error
}

// Stage names a step of one pipeline invocation.
type Stage string

const (
	StageReceived           Stage = "received"
	StageLoading            Stage = "loading"
	StageAssembling         Stage = "assembling"
	StageAwaitingCompletion Stage = "awaiting_completion"
	StageClassifying        Stage = "classifying"
	StagePersisting         Stage = "persisting"
	StageDone               Stage = "done"
)

type ChatRequest struct {
	ConversationID string `json:"conversationId" validate:"required"`
	Message        string `json:"message" validate:"required"`
}

type ChatResult struct {
	Intent  Intent
	Reply   string
	Sources []string
	Message *store.Message
}

// Pipeline answers one user message for one conversation. Every step runs
// sequentially and the first failure aborts the invocation; the assistant
// reply is only written after the completion call succeeded.
type Pipeline struct {
	history      HistoryLoader
	knowledge    KnowledgeSource
	replies      ReplyWriter
	completion   CompletionClient
	contextLimit int
	metrics      *observability.Metrics
	logger       *zap.Logger
}

type PipelineOption func(*Pipeline)

func WithContextLimit(limit int) PipelineOption {
	return func(p *Pipeline) {
		if limit > 0 {
			p.contextLimit = limit
		}
	}
}

func WithMetrics(m *observability.Metrics) PipelineOption {
	return func(p *Pipeline) { p.metrics = m }
}

func NewPipeline(history HistoryLoader, knowledge KnowledgeSource, replies ReplyWriter, completion CompletionClient, logger *zap.Logger, opts ...PipelineOption) *Pipeline {
	p := &Pipeline{
		history:      history,
		knowledge:    knowledge,
		replies:      replies,
		completion:   completion,
		contextLimit: DefaultKnowledgeContextLimit,
		logger:       logger,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// HandleMessage runs Loading → Assembling → AwaitingCompletion →
// Classifying → Persisting. The intent is derived from the user's message
// and stored on the assistant's reply.
func (p *Pipeline) HandleMessage(ctx context.Context, req ChatRequest) (*ChatResult, error) {
	log := p.logger.With(zap.String("conversation_id", req.ConversationID))

	if req.ConversationID == "" || req.Message == "" {
		p.fail(log, StageReceived, "invalid_request", ErrInvalidRequest)
		return nil, invalidRequest("missing conversationId or message")
	}

	log.Debug("fetching conversation history", zap.String("stage", string(StageLoading)))
	turns, err := p.history.ListTurns(ctx, req.ConversationID)
	if err != nil {
		p.fail(log, StageLoading, "storage_error", err)
		return nil, &StorageError{Op: "load conversation history", Err: err}
	}

	log.Debug("fetching knowledge entries for context", zap.String("stage", string(StageAssembling)))
	faqs, err := p.knowledge.ListFAQs(ctx, p.contextLimit)
	if err != nil {
		p.fail(log, StageAssembling, "storage_error", err)
		return nil, &StorageError{Op: "load knowledge entries", Err: err}
	}
	if len(faqs) > p.contextLimit {
		faqs = faqs[:p.contextLimit]
	}
	knowledgeContext := BuildKnowledgeContext(faqs)

	log.Debug("calling completion service",
		zap.String("stage", string(StageAwaitingCompletion)),
		zap.Int("history_turns", len(turns)),
		zap.Int("knowledge_entries", len(faqs)))
	start := time.Now()
	reply, err := p.completion.Complete(ctx, CompletionRequest{
		System:  BuildSystemPrompt(knowledgeContext),
		History: turns,
		Message: req.Message,
	})
	p.metrics.RecordCompletion(time.Since(start))
	if err != nil {
		p.fail(log, StageAwaitingCompletion, "upstream_error", err)
		var upstream *UpstreamError
		if errors.As(err, &upstream) {
			return nil, err
		}
		return nil, &UpstreamError{Err: err}
	}

	intent := ClassifyIntent(req.Message)
	log.Debug("detected intent", zap.String("stage", string(StageClassifying)), zap.String("intent", string(intent)))

	intentTag := string(intent)
	sources := SourcesFor(knowledgeContext)
	msg := &store.Message{
		ConversationID: req.ConversationID,
		Role:           store.RoleAssistant,
		Content:        reply,
		Intent:         &intentTag,
		Sources:        sources,
	}
	if err := p.replies.CreateMessage(ctx, msg); err != nil {
		p.fail(log, StagePersisting, "persistence_error", err)
		return nil, &PersistenceError{Op: "insert assistant message", Err: err}
	}

	p.metrics.RecordPipeline("success", intentTag)
	log.Info("assistant message stored",
		zap.String("stage", string(StageDone)),
		zap.String("message_id", msg.ID),
		zap.String("intent", intentTag))

	return &ChatResult{
		Intent:  intent,
		Reply:   reply,
		Sources: sources,
		Message: msg,
	}, nil
}

func (p *Pipeline) fail(log *zap.Logger, stage Stage, outcome string, err error) {
	p.metrics.RecordPipeline(outcome, "")
	log.Error("chat pipeline failed", zap.String("stage", string(stage)), zap.Error(err))
}
