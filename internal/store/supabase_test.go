package store

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/supabase-community/postgrest-go"
	"go.uber.org/zap"
)

type recordedRequest struct {
	Method string
	Path   string
	Query  string
	Body   string
}

// fakePostgREST answers PostgREST requests from a per-path table of canned responses.
type fakePostgREST struct {
	mu        sync.Mutex
	requests  []recordedRequest
	responses map[string]func(w http.ResponseWriter)
}

func (f *fakePostgREST) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	body, _ := io.ReadAll(r.Body)
	f.mu.Lock()
	f.requests = append(f.requests, recordedRequest{Method: r.Method, Path: r.URL.Path, Query: r.URL.RawQuery, Body: string(body)})
	f.mu.Unlock()

	if respond, ok := f.responses[r.Method+" "+r.URL.Path]; ok {
		respond(w)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`[]`))
}

func newFakeSupabase(t *testing.T, responses map[string]func(w http.ResponseWriter)) (*SupabaseStore, *fakePostgREST) {
	t.Helper()
	fake := &fakePostgREST{responses: responses}
	srv := httptest.NewServer(fake)
	t.Cleanup(srv.Close)

	client := postgrest.NewClient(srv.URL, "public", map[string]string{})
	return newSupabaseStore(client, zap.NewNop()), fake
}

func jsonResponse(status int, body string) func(w http.ResponseWriter) {
	return func(w http.ResponseWriter) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		w.Write([]byte(body))
	}
}

func TestSupabaseStore_ListTurns(t *testing.T) {
	s, fake := newFakeSupabase(t, map[string]func(w http.ResponseWriter){
		"GET /messages": jsonResponse(http.StatusOK, `[{"role":"user","content":"hello"},{"role":"assistant","content":"hi there"}]`),
	})

	turns, err := s.ListTurns(context.Background(), "c1")
	require.NoError(t, err)
	require.Len(t, turns, 2)
	assert.Equal(t, Turn{Role: RoleUser, Content: "hello"}, turns[0])
	assert.Equal(t, RoleAssistant, turns[1].Role)

	require.Len(t, fake.requests, 1)
	assert.Contains(t, fake.requests[0].Query, "conversation_id=eq.c1")
	assert.Contains(t, fake.requests[0].Query, "order=created_at.asc")
}

func TestSupabaseStore_ListTurnsUpstreamError(t *testing.T) {
	s, _ := newFakeSupabase(t, map[string]func(w http.ResponseWriter){
		"GET /messages": jsonResponse(http.StatusInternalServerError, `{"code":"XX000","message":"boom"}`),
	})

	_, err := s.ListTurns(context.Background(), "c1")
	assert.Error(t, err)
}

func TestSupabaseStore_ListFAQsAppliesLimit(t *testing.T) {
	s, fake := newFakeSupabase(t, map[string]func(w http.ResponseWriter){
		"GET /faqs": jsonResponse(http.StatusOK, `[{"id":"f1","question":"Q","answer":"A","category":"Accounts","intent":"account_inquiry","keywords":["savings"],"helpful_count":2}]`),
	})

	faqs, err := s.ListFAQs(context.Background(), 20)
	require.NoError(t, err)
	require.Len(t, faqs, 1)
	assert.Equal(t, []string{"savings"}, faqs[0].Keywords)
	assert.Equal(t, 2, faqs[0].HelpfulCount)
	assert.Contains(t, fake.requests[0].Query, "limit=20")
}

func TestSupabaseStore_CreateMessageTouchesConversation(t *testing.T) {
	s, fake := newFakeSupabase(t, map[string]func(w http.ResponseWriter){
		"POST /messages": jsonResponse(http.StatusCreated, `[{"id":"m1","conversation_id":"c1","role":"assistant","content":"ok","intent":"general","sources":[],"created_at":"2025-01-02T03:04:05.123456+00:00"}]`),
	})

	intent := "general"
	msg := &Message{ConversationID: "c1", Role: RoleAssistant, Content: "ok", Intent: &intent, Sources: []string{}}
	require.NoError(t, s.CreateMessage(context.Background(), msg))
	assert.Equal(t, "m1", msg.ID)
	assert.False(t, msg.CreatedAt.IsZero())

	require.Len(t, fake.requests, 2)
	var inserted map[string]any
	require.NoError(t, json.Unmarshal([]byte(fake.requests[0].Body), &inserted))
	assert.Equal(t, "assistant", inserted["role"])
	assert.Equal(t, "general", inserted["intent"])

	assert.Equal(t, http.MethodPatch, fake.requests[1].Method)
	assert.Equal(t, "/conversations", fake.requests[1].Path)
}

func TestSupabaseStore_IncrementFAQHelpfulNotFound(t *testing.T) {
	s, _ := newFakeSupabase(t, nil)

	_, err := s.IncrementFAQHelpful(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSupabaseStore_DeleteConversationNotFound(t *testing.T) {
	s, _ := newFakeSupabase(t, nil)

	err := s.DeleteConversation(context.Background(), "c1", "user-1")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSupabaseStore_HasRole(t *testing.T) {
	s, fake := newFakeSupabase(t, map[string]func(w http.ResponseWriter){
		"GET /user_roles": jsonResponse(http.StatusOK, `[{"role":"admin"}]`),
	})

	ok, err := s.HasRole(context.Background(), "user-1", AppRoleAdmin)
	require.NoError(t, err)
	assert.True(t, ok)

	require.Len(t, fake.requests, 1)
	assert.Contains(t, fake.requests[0].Query, "user_id=eq.user-1")
	assert.Contains(t, fake.requests[0].Query, "role=eq.admin")
}

func TestSupabaseStore_GlobalAggregates(t *testing.T) {
	counted := func(total string) func(w http.ResponseWriter) {
		return func(w http.ResponseWriter) {
			w.Header().Set("Content-Range", "*/"+total)
			w.WriteHeader(http.StatusOK)
		}
	}
	s, fake := newFakeSupabase(t, map[string]func(w http.ResponseWriter){
		"HEAD /messages":        counted("7"),
		"HEAD /conversations":   counted("3"),
		"HEAD /user_roles":      counted("2"),
		"GET /analytics_events": jsonResponse(http.StatusOK, `[{"id":"e2","user_id":"u","event_type":"message_sent","event_data":{"intent":"general"},"created_at":"2025-01-02T03:04:05+00:00"}]`),
	})
	ctx := context.Background()

	totals, err := s.CountTotals(ctx)
	require.NoError(t, err)
	assert.Equal(t, Totals{Messages: 7, Conversations: 3, Users: 2}, totals)

	events, err := s.ListRecentEvents(ctx, 10)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, "general", events[0].EventData["intent"])

	last := fake.requests[len(fake.requests)-1]
	assert.Contains(t, last.Query, "order=created_at.desc")
	assert.Contains(t, last.Query, "limit=10")
}
