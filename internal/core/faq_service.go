package core

import (
	"context"
	"errors"
	"sort"
	"strings"

	"go.uber.org/zap"

	"finassist.com/finance-chatbot/internal/observability"
	"finassist.com/finance-chatbot/internal/store"
)

type SeedResult struct {
	Inserted int
	Existing int
}

// Skipped reports whether the knowledge base was already populated.
func (r SeedResult) Skipped() bool { return r.Existing > 0 }

type FAQFilter struct {
	Query    string
	Category string
}

type FAQService struct {
	dbStore store.Store
	metrics *observability.Metrics
	logger  *zap.Logger
}

func NewFAQService(db store.Store, metrics *observability.Metrics, logger *zap.Logger) *FAQService {
	return &FAQService{dbStore: db, metrics: metrics, logger: logger}
}

// Seed loads the curated FAQ list into an empty knowledge base. When any
// entry already exists nothing is written and the existing count is returned.
func (s *FAQService) Seed(ctx context.Context) (SeedResult, error) {
	s.logger.Info("checking existing FAQs")
	count, err := s.dbStore.CountFAQs(ctx)
	if err != nil {
		return SeedResult{}, &StorageError{Op: "count faqs", Err: err}
	}
	if count > 0 {
		s.logger.Info("FAQs already exist, skipping seed", zap.Int("count", count))
		return SeedResult{Existing: count}, nil
	}

	s.logger.Info("inserting FAQs", zap.Int("count", len(seedFAQs)))
	batch := make([]store.FAQ, len(seedFAQs))
	copy(batch, seedFAQs)
	inserted, err := s.dbStore.InsertFAQs(ctx, batch)
	if err != nil {
		return SeedResult{}, &PersistenceError{Op: "insert faqs", Err: err}
	}
	s.metrics.RecordSeeded(inserted)
	s.logger.Info("seeded FAQs", zap.Int("inserted", inserted))
	return SeedResult{Inserted: inserted}, nil
}

// List returns entries most helpful first, narrowed by an exact category and
// a case-insensitive substring over question, answer and keywords.
func (s *FAQService) List(ctx context.Context, filter FAQFilter) ([]store.FAQ, error) {
	faqs, err := s.dbStore.ListFAQsByHelpfulness(ctx)
	if err != nil {
		return nil, &StorageError{Op: "list faqs", Err: err}
	}

	query := strings.ToLower(strings.TrimSpace(filter.Query))
	out := make([]store.FAQ, 0, len(faqs))
	for _, faq := range faqs {
		if filter.Category != "" && faq.Category != filter.Category {
			continue
		}
		if query != "" && !faqMatches(faq, query) {
			continue
		}
		out = append(out, faq)
	}
	return out, nil
}

func faqMatches(faq store.FAQ, query string) bool {
	if strings.Contains(strings.ToLower(faq.Question), query) ||
		strings.Contains(strings.ToLower(faq.Answer), query) {
		return true
	}
	for _, kw := range faq.Keywords {
		if strings.Contains(strings.ToLower(kw), query) {
			return true
		}
	}
	return false
}

// Categories returns the distinct categories, sorted.
func (s *FAQService) Categories(ctx context.Context) ([]string, error) {
	faqs, err := s.dbStore.ListFAQs(ctx, 0)
	if err != nil {
		return nil, &StorageError{Op: "list faqs", Err: err}
	}
	seen := make(map[string]struct{}, len(faqs))
	categories := []string{}
	for _, faq := range faqs {
		if _, ok := seen[faq.Category]; ok {
			continue
		}
		seen[faq.Category] = struct{}{}
		categories = append(categories, faq.Category)
	}
	sort.Strings(categories)
	return categories, nil
}

func (s *FAQService) MarkHelpful(ctx context.Context, faqID string) (int, error) {
	if faqID == "" {
		return 0, invalidRequest("missing faq id")
	}
	count, err := s.dbStore.IncrementFAQHelpful(ctx, faqID)
	if errors.Is(err, store.ErrNotFound) {
		return 0, ErrNotFound
	}
	if err != nil {
		return 0, &PersistenceError{Op: "mark faq helpful", Err: err}
	}
	return count, nil
}
