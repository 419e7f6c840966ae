package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3" // SQLite driver
	"go.uber.org/zap"
)

type SQLiteStore struct {
	db     *sql.DB
	logger *zap.Logger
}

var _ Store = (*SQLiteStore)(nil)

func NewSQLiteStore(dataSourceName string, logger *zap.Logger) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", withForeignKeys(dataSourceName))
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err = db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	store := &SQLiteStore{db: db, logger: logger}
	if err = store.initSchema(); err != nil {
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return store, nil
}

// withForeignKeys turns on FK enforcement for every pooled connection so
// that deleting a conversation cascades to its messages.
func withForeignKeys(dsn string) string {
	if strings.Contains(dsn, "_foreign_keys") || strings.Contains(dsn, "_fk=") {
		return dsn
	}
	if strings.Contains(dsn, "?") {
		return dsn + "&_foreign_keys=on"
	}
	return dsn + "?_foreign_keys=on"
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) initSchema() error {
	schema := `
    CREATE TABLE IF NOT EXISTS conversations (
        id TEXT PRIMARY KEY, -- UUID
        user_id TEXT NOT NULL,
        title TEXT NOT NULL DEFAULT 'New Conversation',
        created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
        updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
    );

    CREATE TABLE IF NOT EXISTS messages (
        id TEXT PRIMARY KEY, -- UUID
        conversation_id TEXT NOT NULL,
        role TEXT NOT NULL CHECK (role IN ('user', 'assistant')),
        content TEXT NOT NULL,
        intent TEXT,
        sources_json TEXT,
        created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
        FOREIGN KEY (conversation_id) REFERENCES conversations (id) ON DELETE CASCADE
    );

    CREATE INDEX IF NOT EXISTS idx_messages_conversation ON messages (conversation_id, created_at);

    CREATE TABLE IF NOT EXISTS faqs (
        id TEXT PRIMARY KEY, -- UUID
        question TEXT NOT NULL,
        answer TEXT NOT NULL,
        category TEXT NOT NULL,
        intent TEXT NOT NULL,
        keywords_json TEXT,
        source_url TEXT,
        helpful_count INTEGER NOT NULL DEFAULT 0,
        created_at DATETIME DEFAULT CURRENT_TIMESTAMP
    );

    CREATE TABLE IF NOT EXISTS analytics_events (
        id TEXT PRIMARY KEY, -- UUID
        user_id TEXT NOT NULL,
        event_type TEXT NOT NULL,
        event_data_json TEXT,
        created_at DATETIME DEFAULT CURRENT_TIMESTAMP
    );

    CREATE INDEX IF NOT EXISTS idx_analytics_events_created ON analytics_events (created_at);

    CREATE TABLE IF NOT EXISTS user_roles (
        id TEXT PRIMARY KEY, -- UUID
        user_id TEXT NOT NULL,
        role TEXT NOT NULL CHECK (role IN ('admin', 'user')),
        created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
        UNIQUE (user_id, role)
    );
    `
	_, err := s.db.Exec(schema)
	return err
}

// Conversation methods
func (s *SQLiteStore) CreateConversation(ctx context.Context, userID, title string) (*Conversation, error) {
	conversationID := uuid.NewString()
	now := time.Now().UTC()

	_, err := s.db.ExecContext(ctx,
		"INSERT INTO conversations (id, user_id, title, created_at, updated_at) VALUES (?, ?, ?, ?, ?)",
		conversationID, userID, title, now, now)
	if err != nil {
		return nil, fmt.Errorf("failed to insert conversation: %w", err)
	}
	return &Conversation{ID: conversationID, UserID: userID, Title: title, CreatedAt: now, UpdatedAt: now}, nil
}

func (s *SQLiteStore) GetConversation(ctx context.Context, conversationID, userID string) (*Conversation, error) {
	var c Conversation
	err := s.db.QueryRowContext(ctx,
		"SELECT id, user_id, title, created_at, updated_at FROM conversations WHERE id = ? AND user_id = ?",
		conversationID, userID).Scan(&c.ID, &c.UserID, &c.Title, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil // Not found
		}
		return nil, fmt.Errorf("failed to get conversation: %w", err)
	}
	return &c, nil
}

func (s *SQLiteStore) ListConversations(ctx context.Context, userID string) ([]Conversation, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT id, user_id, title, created_at, updated_at FROM conversations WHERE user_id = ? ORDER BY updated_at DESC",
		userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query conversations: %w", err)
	}
	defer rows.Close()

	conversations := []Conversation{}
	for rows.Next() {
		var c Conversation
		if err := rows.Scan(&c.ID, &c.UserID, &c.Title, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan conversation row: %w", err)
		}
		conversations = append(conversations, c)
	}
	return conversations, rows.Err()
}

func (s *SQLiteStore) DeleteConversation(ctx context.Context, conversationID, userID string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin conversation delete: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, "DELETE FROM conversations WHERE id = ? AND user_id = ?", conversationID, userID)
	if err != nil {
		return fmt.Errorf("failed to delete conversation: %w", err)
	}
	affected, _ := res.RowsAffected()
	if affected == 0 {
		return ErrNotFound
	}
	// Redundant with ON DELETE CASCADE unless the DSN disabled foreign keys.
	if _, err := tx.ExecContext(ctx, "DELETE FROM messages WHERE conversation_id = ?", conversationID); err != nil {
		return fmt.Errorf("failed to delete conversation messages: %w", err)
	}
	return tx.Commit()
}

// Message methods
func (s *SQLiteStore) CreateMessage(ctx context.Context, msg *Message) error {
	msg.ID = uuid.NewString()
	msg.CreatedAt = time.Now().UTC()

	var sourcesJSON sql.NullString
	if msg.Sources != nil {
		b, err := json.Marshal(msg.Sources)
		if err != nil {
			return fmt.Errorf("failed to marshal sources: %w", err)
		}
		sourcesJSON = sql.NullString{String: string(b), Valid: true}
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin message insert: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		"INSERT INTO messages (id, conversation_id, role, content, intent, sources_json, created_at) VALUES (?, ?, ?, ?, ?, ?, ?)",
		msg.ID, msg.ConversationID, string(msg.Role), msg.Content, msg.Intent, sourcesJSON, msg.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to execute message insert: %w", err)
	}

	if _, err := tx.ExecContext(ctx, "UPDATE conversations SET updated_at = ? WHERE id = ?", msg.CreatedAt, msg.ConversationID); err != nil {
		return fmt.Errorf("failed to touch conversation: %w", err)
	}
	return tx.Commit()
}

const messageColumns = "m.id, m.conversation_id, m.role, m.content, m.intent, m.sources_json, m.created_at"

func (s *SQLiteStore) ListMessages(ctx context.Context, conversationID string) ([]Message, error) {
	query := "SELECT " + messageColumns + " FROM messages m WHERE m.conversation_id = ? ORDER BY m.created_at ASC, m.rowid ASC"
	return s.queryMessages(ctx, query, conversationID)
}

func (s *SQLiteStore) ListMessagesByUser(ctx context.Context, userID string) ([]Message, error) {
	query := "SELECT " + messageColumns + ` FROM messages m
        JOIN conversations c ON c.id = m.conversation_id
        WHERE c.user_id = ?
        ORDER BY m.created_at ASC, m.rowid ASC`
	return s.queryMessages(ctx, query, userID)
}

func (s *SQLiteStore) queryMessages(ctx context.Context, query string, args ...any) ([]Message, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query messages: %w", err)
	}
	defer rows.Close()

	messages := []Message{}
	for rows.Next() {
		var (
			msg         Message
			role        string
			intent      sql.NullString
			sourcesJSON sql.NullString
		)
		if err := rows.Scan(&msg.ID, &msg.ConversationID, &role, &msg.Content, &intent, &sourcesJSON, &msg.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan message row: %w", err)
		}
		msg.Role = Role(role)
		if intent.Valid {
			msg.Intent = &intent.String
		}
		if sourcesJSON.Valid && sourcesJSON.String != "" {
			if err := json.Unmarshal([]byte(sourcesJSON.String), &msg.Sources); err != nil {
				s.logger.Warn("failed to unmarshal message sources", zap.String("message_id", msg.ID), zap.Error(err))
				msg.Sources = nil
			}
		}
		messages = append(messages, msg)
	}
	return messages, rows.Err()
}

// ListTurns returns the role/content history of a conversation, oldest first.
func (s *SQLiteStore) ListTurns(ctx context.Context, conversationID string) ([]Turn, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT role, content FROM messages WHERE conversation_id = ? ORDER BY created_at ASC, rowid ASC",
		conversationID)
	if err != nil {
		return nil, fmt.Errorf("failed to query conversation history: %w", err)
	}
	defer rows.Close()

	turns := []Turn{}
	for rows.Next() {
		var role, content string
		if err := rows.Scan(&role, &content); err != nil {
			return nil, fmt.Errorf("failed to scan history row: %w", err)
		}
		turns = append(turns, Turn{Role: Role(role), Content: content})
	}
	return turns, rows.Err()
}

// FAQ methods
func (s *SQLiteStore) CountFAQs(ctx context.Context) (int, error) {
	var count int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM faqs").Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count faqs: %w", err)
	}
	return count, nil
}

func (s *SQLiteStore) InsertFAQs(ctx context.Context, faqs []FAQ) (int, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin faq insert: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx,
		"INSERT INTO faqs (id, question, answer, category, intent, keywords_json, source_url, helpful_count, created_at) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)")
	if err != nil {
		return 0, fmt.Errorf("failed to prepare faq insert: %w", err)
	}
	defer stmt.Close()

	now := time.Now().UTC()
	for i := range faqs {
		faq := &faqs[i]
		keywordsJSON, err := json.Marshal(faq.Keywords)
		if err != nil {
			return 0, fmt.Errorf("failed to marshal keywords: %w", err)
		}
		faq.ID = uuid.NewString()
		faq.CreatedAt = now
		if _, err := stmt.ExecContext(ctx, faq.ID, faq.Question, faq.Answer, faq.Category, faq.Intent,
			string(keywordsJSON), faq.SourceURL, faq.HelpfulCount, faq.CreatedAt); err != nil {
			return 0, fmt.Errorf("failed to execute faq insert: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit faq insert: %w", err)
	}
	return len(faqs), nil
}

const faqColumns = "id, question, answer, category, intent, keywords_json, source_url, helpful_count, created_at"

// ListFAQs returns up to limit entries in storage order. A limit <= 0 returns every entry.
func (s *SQLiteStore) ListFAQs(ctx context.Context, limit int) ([]FAQ, error) {
	if limit <= 0 {
		limit = -1
	}
	return s.queryFAQs(ctx, "SELECT "+faqColumns+" FROM faqs ORDER BY rowid ASC LIMIT ?", limit)
}

func (s *SQLiteStore) ListFAQsByHelpfulness(ctx context.Context) ([]FAQ, error) {
	return s.queryFAQs(ctx, "SELECT "+faqColumns+" FROM faqs ORDER BY helpful_count DESC, rowid ASC")
}

func (s *SQLiteStore) queryFAQs(ctx context.Context, query string, args ...any) ([]FAQ, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query faqs: %w", err)
	}
	defer rows.Close()

	faqs := []FAQ{}
	for rows.Next() {
		var (
			faq          FAQ
			keywordsJSON sql.NullString
			sourceURL    sql.NullString
		)
		if err := rows.Scan(&faq.ID, &faq.Question, &faq.Answer, &faq.Category, &faq.Intent,
			&keywordsJSON, &sourceURL, &faq.HelpfulCount, &faq.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan faq row: %w", err)
		}
		if keywordsJSON.Valid && keywordsJSON.String != "" {
			if err := json.Unmarshal([]byte(keywordsJSON.String), &faq.Keywords); err != nil {
				s.logger.Warn("failed to unmarshal faq keywords", zap.String("faq_id", faq.ID), zap.Error(err))
			}
		}
		if sourceURL.Valid {
			faq.SourceURL = &sourceURL.String
		}
		faqs = append(faqs, faq)
	}
	return faqs, rows.Err()
}

func (s *SQLiteStore) IncrementFAQHelpful(ctx context.Context, faqID string) (int, error) {
	res, err := s.db.ExecContext(ctx, "UPDATE faqs SET helpful_count = helpful_count + 1 WHERE id = ?", faqID)
	if err != nil {
		return 0, fmt.Errorf("failed to update helpful count: %w", err)
	}
	affected, _ := res.RowsAffected()
	if affected == 0 {
		return 0, ErrNotFound
	}

	var count int
	if err := s.db.QueryRowContext(ctx, "SELECT helpful_count FROM faqs WHERE id = ?", faqID).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to read helpful count: %w", err)
	}
	return count, nil
}

// Analytics methods
func (s *SQLiteStore) RecordEvent(ctx context.Context, event *AnalyticsEvent) error {
	event.ID = uuid.NewString()
	event.CreatedAt = time.Now().UTC()

	dataJSON, err := json.Marshal(event.EventData)
	if err != nil {
		return fmt.Errorf("failed to marshal event data: %w", err)
	}

	_, err = s.db.ExecContext(ctx,
		"INSERT INTO analytics_events (id, user_id, event_type, event_data_json, created_at) VALUES (?, ?, ?, ?, ?)",
		event.ID, event.UserID, event.EventType, string(dataJSON), event.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert analytics event: %w", err)
	}
	return nil
}

// ListRecentEvents returns the newest events first.
func (s *SQLiteStore) ListRecentEvents(ctx context.Context, limit int) ([]AnalyticsEvent, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := s.db.QueryContext(ctx,
		"SELECT id, user_id, event_type, event_data_json, created_at FROM analytics_events ORDER BY created_at DESC, rowid DESC LIMIT ?",
		limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query analytics events: %w", err)
	}
	defer rows.Close()

	events := []AnalyticsEvent{}
	for rows.Next() {
		var (
			event    AnalyticsEvent
			dataJSON sql.NullString
		)
		if err := rows.Scan(&event.ID, &event.UserID, &event.EventType, &dataJSON, &event.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan analytics event row: %w", err)
		}
		if dataJSON.Valid && dataJSON.String != "" {
			if err := json.Unmarshal([]byte(dataJSON.String), &event.EventData); err != nil {
				s.logger.Warn("failed to unmarshal event data", zap.String("event_id", event.ID), zap.Error(err))
			}
		}
		events = append(events, event)
	}
	return events, rows.Err()
}

// ListMessageIntents returns the intent of every message that has one, oldest first.
func (s *SQLiteStore) ListMessageIntents(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT intent FROM messages WHERE intent IS NOT NULL ORDER BY created_at ASC, rowid ASC")
	if err != nil {
		return nil, fmt.Errorf("failed to query message intents: %w", err)
	}
	defer rows.Close()

	intents := []string{}
	for rows.Next() {
		var intent string
		if err := rows.Scan(&intent); err != nil {
			return nil, fmt.Errorf("failed to scan intent row: %w", err)
		}
		intents = append(intents, intent)
	}
	return intents, rows.Err()
}

func (s *SQLiteStore) CountTotals(ctx context.Context) (Totals, error) {
	var t Totals
	err := s.db.QueryRowContext(ctx, `SELECT
        (SELECT COUNT(*) FROM messages),
        (SELECT COUNT(*) FROM conversations),
        (SELECT COUNT(DISTINCT user_id) FROM user_roles)`).Scan(&t.Messages, &t.Conversations, &t.Users)
	if err != nil {
		return Totals{}, fmt.Errorf("failed to count totals: %w", err)
	}
	return t, nil
}

// Role methods
func (s *SQLiteStore) HasRole(ctx context.Context, userID string, role AppRole) (bool, error) {
	var n int
	err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM user_roles WHERE user_id = ? AND role = ?", userID, string(role)).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("failed to check role: %w", err)
	}
	return n > 0, nil
}

// GrantRole is a no-op when the user already holds the role.
func (s *SQLiteStore) GrantRole(ctx context.Context, userID string, role AppRole) error {
	_, err := s.db.ExecContext(ctx,
		"INSERT INTO user_roles (id, user_id, role, created_at) VALUES (?, ?, ?, ?) ON CONFLICT (user_id, role) DO NOTHING",
		uuid.NewString(), userID, string(role), time.Now().UTC())
	if err != nil {
		return fmt.Errorf("failed to grant role: %w", err)
	}
	return nil
}
