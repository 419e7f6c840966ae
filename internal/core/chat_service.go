package core

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"

	"finassist.com/finance-chatbot/internal/store"
)

const (
	DefaultConversationTitle = "New Conversation"
	EventMessageSent         = "message_sent"
)

type ChatService struct {
	dbStore  store.Store
	pipeline *Pipeline
	logger   *zap.Logger
}

func NewChatService(db store.Store, pipeline *Pipeline, logger *zap.Logger) *ChatService {
	return &ChatService{
		dbStore:  db,
		pipeline: pipeline,
		logger:   logger,
	}
}

func (s *ChatService) CreateConversation(ctx context.Context, userID, title string) (*store.Conversation, error) {
	if userID == "" {
		return nil, invalidRequest("missing user")
	}
	title = strings.TrimSpace(title)
	if title == "" {
		title = DefaultConversationTitle
	}
	conv, err := s.dbStore.CreateConversation(ctx, userID, title)
	if err != nil {
		return nil, &PersistenceError{Op: "create conversation", Err: err}
	}
	if err := s.dbStore.GrantRole(ctx, userID, store.AppRoleUser); err != nil {
		s.logger.Warn("failed to register user role", zap.String("user_id", userID), zap.Error(err))
	}
	return conv, nil
}

func (s *ChatService) ListConversations(ctx context.Context, userID string) ([]store.Conversation, error) {
	convs, err := s.dbStore.ListConversations(ctx, userID)
	if err != nil {
		return nil, &StorageError{Op: "list conversations", Err: err}
	}
	return convs, nil
}

// GetConversation returns the conversation with its messages oldest first,
// or ErrNotFound when it does not belong to userID.
func (s *ChatService) GetConversation(ctx context.Context, conversationID, userID string) (*store.Conversation, []store.Message, error) {
	conv, err := s.ownedConversation(ctx, conversationID, userID)
	if err != nil {
		return nil, nil, err
	}
	messages, err := s.dbStore.ListMessages(ctx, conversationID)
	if err != nil {
		return nil, nil, &StorageError{Op: "list messages", Err: err}
	}
	return conv, messages, nil
}

func (s *ChatService) DeleteConversation(ctx context.Context, conversationID, userID string) error {
	err := s.dbStore.DeleteConversation(ctx, conversationID, userID)
	if errors.Is(err, store.ErrNotFound) {
		return ErrNotFound
	}
	if err != nil {
		return &PersistenceError{Op: "delete conversation", Err: err}
	}
	return nil
}

// PostMessage appends the user's message, runs the chat pipeline and
// returns the stored assistant reply. The user message is kept even when
// the pipeline fails.
func (s *ChatService) PostMessage(ctx context.Context, conversationID, userID, content string) (*ChatResult, error) {
	if strings.TrimSpace(content) == "" {
		return nil, invalidRequest("message content is empty")
	}
	if _, err := s.ownedConversation(ctx, conversationID, userID); err != nil {
		return nil, err
	}

	userMsg := &store.Message{
		ConversationID: conversationID,
		Role:           store.RoleUser,
		Content:        content,
	}
	if err := s.dbStore.CreateMessage(ctx, userMsg); err != nil {
		return nil, &PersistenceError{Op: "insert user message", Err: err}
	}

	result, err := s.pipeline.HandleMessage(ctx, ChatRequest{ConversationID: conversationID, Message: content})
	if err != nil {
		return nil, err
	}

	event := &store.AnalyticsEvent{
		UserID:    userID,
		EventType: EventMessageSent,
		EventData: map[string]any{
			"conversation_id": conversationID,
			"intent":          string(result.Intent),
		},
	}
	if err := s.dbStore.RecordEvent(ctx, event); err != nil {
		s.logger.Warn("failed to record analytics event",
			zap.String("conversation_id", conversationID),
			zap.String("event_type", EventMessageSent),
			zap.Error(err))
	}

	return result, nil
}

// Respond runs the chat pipeline for a conversation the caller owns. The
// caller is expected to have stored the user message already.
func (s *ChatService) Respond(ctx context.Context, userID string, req ChatRequest) (*ChatResult, error) {
	if req.ConversationID == "" || req.Message == "" {
		return nil, invalidRequest("missing conversationId or message")
	}
	if _, err := s.ownedConversation(ctx, req.ConversationID, userID); err != nil {
		return nil, err
	}
	return s.pipeline.HandleMessage(ctx, req)
}

func (s *ChatService) ownedConversation(ctx context.Context, conversationID, userID string) (*store.Conversation, error) {
	conv, err := s.dbStore.GetConversation(ctx, conversationID, userID)
	if err != nil {
		return nil, &StorageError{Op: "load conversation", Err: err}
	}
	if conv == nil {
		return nil, ErrNotFound
	}
	return conv, nil
}
