package store

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned by mutations that matched no row.
var ErrNotFound = errors.New("record not found")

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

type Conversation struct {
	ID        string    `json:"id"` // UUID
	UserID    string    `json:"user_id"`
	Title     string    `json:"title"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type Message struct {
	ID             string    `json:"id"` // UUID
	ConversationID string    `json:"conversation_id"`
	Role           Role      `json:"role"`
	Content        string    `json:"content"`
	Intent         *string   `json:"intent,omitempty"` // assistant messages only
	Sources        []string  `json:"sources,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
}

// Turn is the role/content pair sent to the completion service.
type Turn struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

type FAQ struct {
	ID           string    `json:"id"`
	Question     string    `json:"question"`
	Answer       string    `json:"answer"`
	Category     string    `json:"category"`
	Intent       string    `json:"intent"`
	Keywords     []string  `json:"keywords"`
	SourceURL    *string   `json:"source_url,omitempty"`
	HelpfulCount int       `json:"helpful_count"`
	CreatedAt    time.Time `json:"created_at"`
}

type AnalyticsEvent struct {
	ID        string         `json:"id"`
	UserID    string         `json:"user_id"`
	EventType string         `json:"event_type"`
	EventData map[string]any `json:"event_data"`
	CreatedAt time.Time      `json:"created_at"`
}

// AppRole is an application-level permission granted to a user id.
type AppRole string

const (
	AppRoleAdmin AppRole = "admin"
	AppRoleUser  AppRole = "user"
)

// Totals are row counts across every user.
type Totals struct {
	Messages      int
	Conversations int
	Users         int // distinct user ids holding any role
}

// Store is implemented by every storage backend.
type Store interface {
	CreateConversation(ctx context.Context, userID, title string) (*Conversation, error)
	GetConversation(ctx context.Context, conversationID, userID string) (*Conversation, error)
	ListConversations(ctx context.Context, userID string) ([]Conversation, error)
	DeleteConversation(ctx context.Context, conversationID, userID string) error

	CreateMessage(ctx context.Context, msg *Message) error
	ListMessages(ctx context.Context, conversationID string) ([]Message, error)
	ListTurns(ctx context.Context, conversationID string) ([]Turn, error)
	ListMessagesByUser(ctx context.Context, userID string) ([]Message, error)

	CountFAQs(ctx context.Context) (int, error)
	InsertFAQs(ctx context.Context, faqs []FAQ) (int, error)
	ListFAQs(ctx context.Context, limit int) ([]FAQ, error)
	ListFAQsByHelpfulness(ctx context.Context) ([]FAQ, error)
	IncrementFAQHelpful(ctx context.Context, faqID string) (int, error)

	RecordEvent(ctx context.Context, event *AnalyticsEvent) error
	ListRecentEvents(ctx context.Context, limit int) ([]AnalyticsEvent, error)
	ListMessageIntents(ctx context.Context) ([]string, error)
	CountTotals(ctx context.Context) (Totals, error)

	HasRole(ctx context.Context, userID string, role AppRole) (bool, error)
	GrantRole(ctx context.Context, userID string, role AppRole) error

	Close() error
}
