package core

import (
	"context"
	"math"
	"sort"
	"strings"
	"time"

	"finassist.com/finance-chatbot/internal/store"
)

const (
	activityWindowDays = 7
	recentEventsLimit  = 10
)

type IntentCount struct {
	Name  string `json:"name"`
	Value int    `json:"value"`
}

type DailyActivity struct {
	Date     string `json:"date"` // YYYY-MM-DD, UTC
	Day      string `json:"day"`  // Mon, Tue, ...
	Messages int    `json:"messages"`
}

type UserAnalytics struct {
	TotalConversations  int             `json:"totalConversations"`
	TotalMessages       int             `json:"totalMessages"`
	AvgMessagesPerConvo float64         `json:"avgMessagesPerConvo"`
	IntentDistribution  []IntentCount   `json:"intentDistribution"`
	DailyActivity       []DailyActivity `json:"dailyActivity"`
}

type IntentBreakdown struct {
	Intent string `json:"intent"`
	Count  int    `json:"count"`
}

// GlobalAnalytics is the admin view across every user.
type GlobalAnalytics struct {
	TotalMessages      int                    `json:"totalMessages"`
	TotalConversations int                    `json:"totalConversations"`
	TotalUsers         int                    `json:"totalUsers"`
	IntentBreakdown    []IntentBreakdown      `json:"intentBreakdown"`
	RecentActivity     []store.AnalyticsEvent `json:"recentActivity"`
}

type AnalyticsService struct {
	dbStore store.Store
	now     func() time.Time
}

func NewAnalyticsService(db store.Store) *AnalyticsService {
	return &AnalyticsService{dbStore: db, now: time.Now}
}

func (s *AnalyticsService) ForUser(ctx context.Context, userID string) (*UserAnalytics, error) {
	convs, err := s.dbStore.ListConversations(ctx, userID)
	if err != nil {
		return nil, &StorageError{Op: "list conversations", Err: err}
	}
	messages, err := s.dbStore.ListMessagesByUser(ctx, userID)
	if err != nil {
		return nil, &StorageError{Op: "list messages", Err: err}
	}
	return summarize(len(convs), messages, s.now().UTC()), nil
}

// Global returns service-wide totals for a caller holding the admin role,
// and ErrForbidden for anyone else.
func (s *AnalyticsService) Global(ctx context.Context, userID string) (*GlobalAnalytics, error) {
	isAdmin, err := s.dbStore.HasRole(ctx, userID, store.AppRoleAdmin)
	if err != nil {
		return nil, &StorageError{Op: "check admin role", Err: err}
	}
	if !isAdmin {
		return nil, ErrForbidden
	}

	totals, err := s.dbStore.CountTotals(ctx)
	if err != nil {
		return nil, &StorageError{Op: "count totals", Err: err}
	}
	intents, err := s.dbStore.ListMessageIntents(ctx)
	if err != nil {
		return nil, &StorageError{Op: "list message intents", Err: err}
	}
	events, err := s.dbStore.ListRecentEvents(ctx, recentEventsLimit)
	if err != nil {
		return nil, &StorageError{Op: "list recent events", Err: err}
	}

	return &GlobalAnalytics{
		TotalMessages:      totals.Messages,
		TotalConversations: totals.Conversations,
		TotalUsers:         totals.Users,
		IntentBreakdown:    breakdown(intents),
		RecentActivity:     events,
	}, nil
}

// breakdown counts intents, most frequent first; ties keep first appearance.
func breakdown(intents []string) []IntentBreakdown {
	out := []IntentBreakdown{}
	index := map[string]int{}
	for _, intent := range intents {
		if intent == "" {
			continue
		}
		i, ok := index[intent]
		if !ok {
			i = len(out)
			index[intent] = i
			out = append(out, IntentBreakdown{Intent: intent})
		}
		out[i].Count++
	}
	sort.SliceStable(out, func(a, b int) bool { return out[a].Count > out[b].Count })
	return out
}

func summarize(conversations int, messages []store.Message, now time.Time) *UserAnalytics {
	out := &UserAnalytics{
		TotalConversations: conversations,
		TotalMessages:      len(messages),
		IntentDistribution: []IntentCount{},
	}
	if conversations > 0 {
		avg := float64(len(messages)) / float64(conversations)
		out.AvgMessagesPerConvo = math.Round(avg*10) / 10
	}

	// Intents are listed in order of first appearance.
	index := map[string]int{}
	for _, msg := range messages {
		if msg.Intent == nil || *msg.Intent == "" {
			continue
		}
		name := strings.ReplaceAll(*msg.Intent, "_", " ")
		i, ok := index[name]
		if !ok {
			i = len(out.IntentDistribution)
			index[name] = i
			out.IntentDistribution = append(out.IntentDistribution, IntentCount{Name: name})
		}
		out.IntentDistribution[i].Value++
	}

	perDay := map[string]int{}
	for _, msg := range messages {
		perDay[msg.CreatedAt.UTC().Format(time.DateOnly)]++
	}
	out.DailyActivity = make([]DailyActivity, 0, activityWindowDays)
	for i := activityWindowDays - 1; i >= 0; i-- {
		day := now.AddDate(0, 0, -i)
		key := day.Format(time.DateOnly)
		out.DailyActivity = append(out.DailyActivity, DailyActivity{
			Date:     key,
			Day:      day.Format("Mon"),
			Messages: perDay[key],
		})
	}
	return out
}
