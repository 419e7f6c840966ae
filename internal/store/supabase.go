package store

import (
	"context"
	"fmt"
	"time"

	"github.com/supabase-community/postgrest-go"
	"github.com/supabase-community/supabase-go"
	"go.uber.org/zap"
)

// tableClient is the subset of the Supabase client used by SupabaseStore.
// *supabase.Client and *postgrest.Client both satisfy it.
type tableClient interface {
	From(table string) *postgrest.QueryBuilder
}

// SupabaseStore keeps conversations, messages, FAQs and analytics events in
// the managed Postgres behind Supabase's PostgREST API. Row-level security,
// ID generation and cascade deletes are handled by the database.
//
// postgrest-go does not accept a context, so ctx is only checked before each
// round trip.
type SupabaseStore struct {
	client tableClient
	logger *zap.Logger
}

var _ Store = (*SupabaseStore)(nil)

func NewSupabaseStore(url, serviceRoleKey string, logger *zap.Logger) (*SupabaseStore, error) {
	client, err := supabase.NewClient(url, serviceRoleKey, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create supabase client: %w", err)
	}
	return newSupabaseStore(client, logger), nil
}

func newSupabaseStore(client tableClient, logger *zap.Logger) *SupabaseStore {
	return &SupabaseStore{client: client, logger: logger}
}

func (s *SupabaseStore) Close() error {
	return nil
}

var ascending = &postgrest.OrderOpts{Ascending: true}

// Conversation methods
func (s *SupabaseStore) CreateConversation(ctx context.Context, userID, title string) (*Conversation, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	row := map[string]any{"user_id": userID, "title": title}

	var created []Conversation
	if _, err := s.client.From("conversations").Insert(row, false, "", "representation", "").ExecuteTo(&created); err != nil {
		return nil, fmt.Errorf("failed to insert conversation: %w", err)
	}
	if len(created) == 0 {
		return nil, fmt.Errorf("conversation insert returned no row")
	}
	return &created[0], nil
}

func (s *SupabaseStore) GetConversation(ctx context.Context, conversationID, userID string) (*Conversation, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var rows []Conversation
	_, err := s.client.From("conversations").
		Select("id, user_id, title, created_at, updated_at", "", false).
		Eq("id", conversationID).
		Eq("user_id", userID).
		ExecuteTo(&rows)
	if err != nil {
		return nil, fmt.Errorf("failed to get conversation: %w", err)
	}
	if len(rows) == 0 {
		return nil, nil // Not found
	}
	return &rows[0], nil
}

func (s *SupabaseStore) ListConversations(ctx context.Context, userID string) ([]Conversation, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	conversations := []Conversation{}
	_, err := s.client.From("conversations").
		Select("id, user_id, title, created_at, updated_at", "", false).
		Eq("user_id", userID).
		Order("updated_at", &postgrest.OrderOpts{Ascending: false}).
		ExecuteTo(&conversations)
	if err != nil {
		return nil, fmt.Errorf("failed to query conversations: %w", err)
	}
	return conversations, nil
}

func (s *SupabaseStore) DeleteConversation(ctx context.Context, conversationID, userID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	var deleted []Conversation
	_, err := s.client.From("conversations").
		Delete("representation", "").
		Eq("id", conversationID).
		Eq("user_id", userID).
		ExecuteTo(&deleted)
	if err != nil {
		return fmt.Errorf("failed to delete conversation: %w", err)
	}
	if len(deleted) == 0 {
		return ErrNotFound
	}
	return nil
}

// Message methods

type messageRow struct {
	ConversationID string   `json:"conversation_id"`
	Role           Role     `json:"role"`
	Content        string   `json:"content"`
	Intent         *string  `json:"intent,omitempty"`
	Sources        []string `json:"sources"`
}

func (s *SupabaseStore) CreateMessage(ctx context.Context, msg *Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	row := messageRow{
		ConversationID: msg.ConversationID,
		Role:           msg.Role,
		Content:        msg.Content,
		Intent:         msg.Intent,
		Sources:        msg.Sources,
	}

	var created []Message
	if _, err := s.client.From("messages").Insert(row, false, "", "representation", "").ExecuteTo(&created); err != nil {
		return fmt.Errorf("failed to insert message: %w", err)
	}
	if len(created) > 0 {
		msg.ID = created[0].ID
		msg.CreatedAt = created[0].CreatedAt
	}
	if msg.CreatedAt.IsZero() {
		msg.CreatedAt = time.Now().UTC()
	}

	touch := map[string]any{"updated_at": msg.CreatedAt.Format(time.RFC3339Nano)}
	if _, _, err := s.client.From("conversations").Update(touch, "minimal", "").Eq("id", msg.ConversationID).Execute(); err != nil {
		// Best effort: the message row is already committed.
		s.logger.Warn("failed to touch conversation", zap.String("conversation_id", msg.ConversationID), zap.Error(err))
	}
	return nil
}

func (s *SupabaseStore) ListMessages(ctx context.Context, conversationID string) ([]Message, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	messages := []Message{}
	_, err := s.client.From("messages").
		Select("*", "", false).
		Eq("conversation_id", conversationID).
		Order("created_at", ascending).
		ExecuteTo(&messages)
	if err != nil {
		return nil, fmt.Errorf("failed to query messages: %w", err)
	}
	return messages, nil
}

func (s *SupabaseStore) ListMessagesByUser(ctx context.Context, userID string) ([]Message, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	messages := []Message{}
	_, err := s.client.From("messages").
		Select("*, conversations!inner(user_id)", "", false).
		Eq("conversations.user_id", userID).
		Order("created_at", ascending).
		ExecuteTo(&messages)
	if err != nil {
		return nil, fmt.Errorf("failed to query user messages: %w", err)
	}
	return messages, nil
}

func (s *SupabaseStore) ListTurns(ctx context.Context, conversationID string) ([]Turn, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	turns := []Turn{}
	_, err := s.client.From("messages").
		Select("role, content", "", false).
		Eq("conversation_id", conversationID).
		Order("created_at", ascending).
		ExecuteTo(&turns)
	if err != nil {
		return nil, fmt.Errorf("failed to query conversation history: %w", err)
	}
	return turns, nil
}

// FAQ methods
func (s *SupabaseStore) CountFAQs(ctx context.Context) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	_, count, err := s.client.From("faqs").Select("*", "exact", true).Execute()
	if err != nil {
		return 0, fmt.Errorf("failed to count faqs: %w", err)
	}
	return int(count), nil
}

type faqRow struct {
	Question     string   `json:"question"`
	Answer       string   `json:"answer"`
	Category     string   `json:"category"`
	Intent       string   `json:"intent"`
	Keywords     []string `json:"keywords"`
	SourceURL    *string  `json:"source_url,omitempty"`
	HelpfulCount int      `json:"helpful_count"`
}

func (s *SupabaseStore) InsertFAQs(ctx context.Context, faqs []FAQ) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	rows := make([]faqRow, 0, len(faqs))
	for _, f := range faqs {
		rows = append(rows, faqRow{
			Question:     f.Question,
			Answer:       f.Answer,
			Category:     f.Category,
			Intent:       f.Intent,
			Keywords:     f.Keywords,
			SourceURL:    f.SourceURL,
			HelpfulCount: f.HelpfulCount,
		})
	}

	var inserted []FAQ
	if _, err := s.client.From("faqs").Insert(rows, false, "", "representation", "").ExecuteTo(&inserted); err != nil {
		return 0, fmt.Errorf("failed to insert faqs: %w", err)
	}
	return len(inserted), nil
}

func (s *SupabaseStore) ListFAQs(ctx context.Context, limit int) ([]FAQ, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	query := s.client.From("faqs").Select("*", "", false)
	if limit > 0 {
		query = query.Limit(limit, "")
	}
	faqs := []FAQ{}
	if _, err := query.ExecuteTo(&faqs); err != nil {
		return nil, fmt.Errorf("failed to query faqs: %w", err)
	}
	return faqs, nil
}

func (s *SupabaseStore) ListFAQsByHelpfulness(ctx context.Context) ([]FAQ, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	faqs := []FAQ{}
	_, err := s.client.From("faqs").
		Select("*", "", false).
		Order("helpful_count", &postgrest.OrderOpts{Ascending: false}).
		ExecuteTo(&faqs)
	if err != nil {
		return nil, fmt.Errorf("failed to query faqs: %w", err)
	}
	return faqs, nil
}

// IncrementFAQHelpful reads the current count and writes count+1. Two
// concurrent votes may collapse into one; the counter never decreases.
func (s *SupabaseStore) IncrementFAQHelpful(ctx context.Context, faqID string) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	var rows []struct {
		HelpfulCount int `json:"helpful_count"`
	}
	if _, err := s.client.From("faqs").Select("helpful_count", "", false).Eq("id", faqID).ExecuteTo(&rows); err != nil {
		return 0, fmt.Errorf("failed to read helpful count: %w", err)
	}
	if len(rows) == 0 {
		return 0, ErrNotFound
	}

	next := rows[0].HelpfulCount + 1
	update := map[string]any{"helpful_count": next}
	if _, _, err := s.client.From("faqs").Update(update, "minimal", "").Eq("id", faqID).Execute(); err != nil {
		return 0, fmt.Errorf("failed to update helpful count for faq %s: %w", faqID, err)
	}
	return next, nil
}

// Analytics methods
func (s *SupabaseStore) RecordEvent(ctx context.Context, event *AnalyticsEvent) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	row := map[string]any{
		"user_id":    event.UserID,
		"event_type": event.EventType,
		"event_data": event.EventData,
	}
	var created []AnalyticsEvent
	if _, err := s.client.From("analytics_events").Insert(row, false, "", "representation", "").ExecuteTo(&created); err != nil {
		return fmt.Errorf("failed to insert analytics event: %w", err)
	}
	if len(created) > 0 {
		event.ID = created[0].ID
		event.CreatedAt = created[0].CreatedAt
	}
	return nil
}

func (s *SupabaseStore) ListRecentEvents(ctx context.Context, limit int) ([]AnalyticsEvent, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	query := s.client.From("analytics_events").
		Select("*", "", false).
		Order("created_at", &postgrest.OrderOpts{Ascending: false})
	if limit > 0 {
		query = query.Limit(limit, "")
	}
	events := []AnalyticsEvent{}
	if _, err := query.ExecuteTo(&events); err != nil {
		return nil, fmt.Errorf("failed to query analytics events: %w", err)
	}
	return events, nil
}

func (s *SupabaseStore) ListMessageIntents(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var rows []struct {
		Intent string `json:"intent"`
	}
	_, err := s.client.From("messages").
		Select("intent", "", false).
		Not("intent", "is", "null").
		Order("created_at", ascending).
		ExecuteTo(&rows)
	if err != nil {
		return nil, fmt.Errorf("failed to query message intents: %w", err)
	}
	intents := make([]string, 0, len(rows))
	for _, r := range rows {
		intents = append(intents, r.Intent)
	}
	return intents, nil
}

// CountTotals counts users by their user_roles rows, one per registered user.
func (s *SupabaseStore) CountTotals(ctx context.Context) (Totals, error) {
	var t Totals
	for _, c := range []struct {
		table string
		dst   *int
	}{
		{"messages", &t.Messages},
		{"conversations", &t.Conversations},
		{"user_roles", &t.Users},
	} {
		if err := ctx.Err(); err != nil {
			return Totals{}, err
		}
		_, count, err := s.client.From(c.table).Select("*", "exact", true).Execute()
		if err != nil {
			return Totals{}, fmt.Errorf("failed to count %s: %w", c.table, err)
		}
		*c.dst = int(count)
	}
	return t, nil
}

// Role methods
func (s *SupabaseStore) HasRole(ctx context.Context, userID string, role AppRole) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	var rows []struct {
		Role string `json:"role"`
	}
	_, err := s.client.From("user_roles").
		Select("role", "", false).
		Eq("user_id", userID).
		Eq("role", string(role)).
		ExecuteTo(&rows)
	if err != nil {
		return false, fmt.Errorf("failed to check role: %w", err)
	}
	return len(rows) > 0, nil
}

func (s *SupabaseStore) GrantRole(ctx context.Context, userID string, role AppRole) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	row := map[string]any{"user_id": userID, "role": string(role)}
	if _, _, err := s.client.From("user_roles").Insert(row, true, "user_id,role", "minimal", "").Execute(); err != nil {
		return fmt.Errorf("failed to grant role: %w", err)
	}
	return nil
}
