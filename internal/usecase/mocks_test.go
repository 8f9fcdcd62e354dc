package usecase

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/rs/zerolog"

	"github.com/smartswap/backend/internal/domain"
)

var testLogger = zerolog.Nop()

// MockCacheRepository is a mock implementation of domain.CacheRepository
type MockCacheRepository struct {
	data      map[string]interface{}
	getError  error
	setError  error
	getCalled bool
	setCalled bool
}

func NewMockCacheRepository() *MockCacheRepository {
	return &MockCacheRepository{
		data: make(map[string]interface{}),
	}
}

func (m *MockCacheRepository) Get(ctx context.Context, key string) (interface{}, error) {
	m.getCalled = true
	if m.getError != nil {
		return nil, m.getError
	}
	if value, ok := m.data[key]; ok {
		return value, nil
	}
	return nil, domain.ErrCacheMiss
}

func (m *MockCacheRepository) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	m.setCalled = true
	if m.setError != nil {
		return m.setError
	}
	m.data[key] = value
	return nil
}

func (m *MockCacheRepository) Delete(ctx context.Context, key string) error {
	delete(m.data, key)
	return nil
}

func (m *MockCacheRepository) Exists(ctx context.Context, key string) (bool, error) {
	_, ok := m.data[key]
	return ok, nil
}

// MockProductRepository keeps products in insertion order and applies
// filters the way the SQL store does.
type MockProductRepository struct {
	products   []domain.Product
	queryError error
	queries    []domain.ProductFilter
	nextID     int
}

func NewMockProductRepository(products ...domain.Product) *MockProductRepository {
	m := &MockProductRepository{}
	for i := range products {
		_ = m.Create(context.Background(), &products[i])
	}
	return m
}

func (m *MockProductRepository) Create(ctx context.Context, p *domain.Product) error {
	for _, existing := range m.products {
		if existing.SKU == p.SKU {
			return domain.ErrDuplicateSKU
		}
	}
	if p.ID == "" {
		m.nextID++
		p.ID = fmt.Sprintf("p-%d", m.nextID)
	}
	m.products = append(m.products, *p)
	return nil
}

func (m *MockProductRepository) GetByID(ctx context.Context, id string) (*domain.Product, error) {
	for i := range m.products {
		if m.products[i].ID == id {
			p := m.products[i]
			return &p, nil
		}
	}
	return nil, domain.ErrProductNotFound
}

func (m *MockProductRepository) GetBySKU(ctx context.Context, sku string) (*domain.Product, error) {
	for i := range m.products {
		if m.products[i].SKU == sku {
			p := m.products[i]
			return &p, nil
		}
	}
	return nil, domain.ErrProductNotFound
}

func (m *MockProductRepository) List(ctx context.Context, offset, limit int) ([]domain.Product, error) {
	return m.Query(ctx, domain.ProductFilter{Offset: offset, Limit: limit})
}

func (m *MockProductRepository) Query(ctx context.Context, filter domain.ProductFilter) ([]domain.Product, error) {
	m.queries = append(m.queries, filter)
	if m.queryError != nil {
		return nil, m.queryError
	}

	var out []domain.Product
	for _, p := range m.products {
		if !matchesFilter(p, filter) {
			continue
		}
		out = append(out, p)
	}
	if filter.Offset > 0 {
		if filter.Offset >= len(out) {
			return nil, nil
		}
		out = out[filter.Offset:]
	}
	if filter.Limit > 0 && len(out) > filter.Limit {
		out = out[:filter.Limit]
	}
	return out, nil
}

func matchesFilter(p domain.Product, filter domain.ProductFilter) bool {
	if filter.ExcludeID != "" && p.ID == filter.ExcludeID {
		return false
	}
	if filter.AvailableOnly && !p.Availability {
		return false
	}
	if filter.Categories != nil {
		found := false
		for _, c := range filter.Categories {
			if c == p.Category {
				found = true
			}
		}
		if !found {
			return false
		}
	}
	if filter.MinPrice != nil && p.Price < *filter.MinPrice {
		return false
	}
	if filter.MaxPrice != nil && p.Price > *filter.MaxPrice {
		return false
	}
	if filter.HasEmbedding && len(p.Embedding) == 0 {
		return false
	}
	return true
}

func (m *MockProductRepository) Count(ctx context.Context, filter domain.ProductFilter) (int, error) {
	filter.Limit, filter.Offset = 0, 0
	out, err := m.Query(ctx, filter)
	return len(out), err
}

func (m *MockProductRepository) Update(ctx context.Context, p *domain.Product) error {
	for i := range m.products {
		if m.products[i].ID == p.ID {
			m.products[i] = *p
			return nil
		}
	}
	return domain.ErrProductNotFound
}

func (m *MockProductRepository) UpdateEmbedding(ctx context.Context, id string, embedding []float64) error {
	for i := range m.products {
		if m.products[i].ID == id {
			m.products[i].Embedding = embedding
			return nil
		}
	}
	return domain.ErrProductNotFound
}

func (m *MockProductRepository) Delete(ctx context.Context, id string) error {
	for i := range m.products {
		if m.products[i].ID == id {
			m.products = append(m.products[:i], m.products[i+1:]...)
			return nil
		}
	}
	return domain.ErrProductNotFound
}

// MockRuleRepository keeps rules in insertion order
type MockRuleRepository struct {
	rules     []domain.SwapRule
	listError error
	nextID    int
}

func NewMockRuleRepository(rules ...domain.SwapRule) *MockRuleRepository {
	m := &MockRuleRepository{}
	for i := range rules {
		_ = m.Create(context.Background(), &rules[i])
	}
	return m
}

func (m *MockRuleRepository) Create(ctx context.Context, r *domain.SwapRule) error {
	if r.ID == "" {
		m.nextID++
		r.ID = fmt.Sprintf("r-%d", m.nextID)
	}
	m.rules = append(m.rules, *r)
	return nil
}

func (m *MockRuleRepository) GetByID(ctx context.Context, id string) (*domain.SwapRule, error) {
	for i := range m.rules {
		if m.rules[i].ID == id {
			r := m.rules[i]
			return &r, nil
		}
	}
	return nil, domain.ErrRuleNotFound
}

func (m *MockRuleRepository) List(ctx context.Context, activeOnly bool) ([]domain.SwapRule, error) {
	if m.listError != nil {
		return nil, m.listError
	}
	var out []domain.SwapRule
	for _, r := range m.rules {
		if !activeOnly || r.Active {
			out = append(out, r)
		}
	}
	return out, nil
}

func (m *MockRuleRepository) ListActive(ctx context.Context) ([]domain.SwapRule, error) {
	out, err := m.List(ctx, true)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Priority > out[j].Priority })
	return out, nil
}

func (m *MockRuleRepository) Update(ctx context.Context, r *domain.SwapRule) error {
	for i := range m.rules {
		if m.rules[i].ID == r.ID {
			m.rules[i] = *r
			return nil
		}
	}
	return domain.ErrRuleNotFound
}

func (m *MockRuleRepository) Delete(ctx context.Context, id string) error {
	for i := range m.rules {
		if m.rules[i].ID == id {
			m.rules = append(m.rules[:i], m.rules[i+1:]...)
			return nil
		}
	}
	return domain.ErrRuleNotFound
}

// MockSwapStore backs both the execution and feedback repositories so
// pair history can join them.
type MockSwapStore struct {
	executions  []domain.SwapExecution
	feedback    []domain.RetailerFeedback
	createError error
	nextID      int
}

func NewMockSwapStore() *MockSwapStore {
	return &MockSwapStore{}
}

func (m *MockSwapStore) id(prefix string) string {
	m.nextID++
	return fmt.Sprintf("%s-%d", prefix, m.nextID)
}

// addHistory records n executions of a pair. The first `accepted` get
// accepting feedback, the next `rejected` get rejecting feedback.
func (m *MockSwapStore) addHistory(originalID, candidateID string, n, accepted, rejected int) {
	for i := 0; i < n; i++ {
		exec := domain.SwapExecution{
			ID:                m.id("e"),
			OriginalProductID: originalID,
			SwapProductID:     candidateID,
			ExecutionType:     domain.ExecutionAuto,
			ExecutedAt:        time.Unix(int64(m.nextID), 0),
		}
		m.executions = append(m.executions, exec)
		switch {
		case i < accepted:
			m.feedback = append(m.feedback, domain.RetailerFeedback{ID: m.id("f"), ExecutionID: exec.ID, Accepted: true})
		case i < accepted+rejected:
			m.feedback = append(m.feedback, domain.RetailerFeedback{ID: m.id("f"), ExecutionID: exec.ID, Accepted: false})
		}
	}
}

func (m *MockSwapStore) Executions() *MockExecutionRepository {
	return &MockExecutionRepository{store: m}
}

func (m *MockSwapStore) Feedback() *MockFeedbackRepository {
	return &MockFeedbackRepository{store: m}
}

func (m *MockSwapStore) firstFeedback(executionID string) *domain.RetailerFeedback {
	for i := range m.feedback {
		if m.feedback[i].ExecutionID == executionID {
			f := m.feedback[i]
			return &f
		}
	}
	return nil
}

// MockExecutionRepository is a mock implementation of domain.ExecutionRepository
type MockExecutionRepository struct {
	store     *MockSwapStore
	pairError error
}

func (m *MockExecutionRepository) Create(ctx context.Context, e *domain.SwapExecution) error {
	if m.store.createError != nil {
		return m.store.createError
	}
	if e.ID == "" {
		e.ID = m.store.id("e")
	}
	m.store.executions = append(m.store.executions, *e)
	return nil
}

func (m *MockExecutionRepository) GetByID(ctx context.Context, id string) (*domain.SwapExecution, error) {
	for i := range m.store.executions {
		if m.store.executions[i].ID == id {
			e := m.store.executions[i]
			return &e, nil
		}
	}
	return nil, domain.ErrExecutionNotFound
}

func (m *MockExecutionRepository) List(ctx context.Context, productID string, limit int) ([]domain.SwapExecution, error) {
	var out []domain.SwapExecution
	for i := len(m.store.executions) - 1; i >= 0; i-- {
		e := m.store.executions[i]
		if productID != "" && e.OriginalProductID != productID && e.SwapProductID != productID {
			continue
		}
		out = append(out, e)
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}

func (m *MockExecutionRepository) ListByPair(ctx context.Context, originalID, candidateID string) ([]domain.PairRecord, error) {
	if m.pairError != nil {
		return nil, m.pairError
	}
	var out []domain.PairRecord
	for _, e := range m.store.executions {
		if e.OriginalProductID == originalID && e.SwapProductID == candidateID {
			out = append(out, domain.PairRecord{Execution: e, Feedback: m.store.firstFeedback(e.ID)})
		}
	}
	return out, nil
}

func (m *MockExecutionRepository) Update(ctx context.Context, e *domain.SwapExecution) error {
	for i := range m.store.executions {
		if m.store.executions[i].ID == e.ID {
			m.store.executions[i] = *e
			return nil
		}
	}
	return domain.ErrExecutionNotFound
}

func (m *MockExecutionRepository) Delete(ctx context.Context, id string) error {
	for i := range m.store.executions {
		if m.store.executions[i].ID == id {
			m.store.executions = append(m.store.executions[:i], m.store.executions[i+1:]...)
			return nil
		}
	}
	return domain.ErrExecutionNotFound
}

// MockFeedbackRepository is a mock implementation of domain.FeedbackRepository
type MockFeedbackRepository struct {
	store *MockSwapStore
}

func (m *MockFeedbackRepository) Create(ctx context.Context, f *domain.RetailerFeedback) error {
	if f.ID == "" {
		f.ID = m.store.id("f")
	}
	m.store.feedback = append(m.store.feedback, *f)
	return nil
}

func (m *MockFeedbackRepository) GetByID(ctx context.Context, id string) (*domain.RetailerFeedback, error) {
	for i := range m.store.feedback {
		if m.store.feedback[i].ID == id {
			f := m.store.feedback[i]
			return &f, nil
		}
	}
	return nil, domain.ErrFeedbackNotFound
}

func (m *MockFeedbackRepository) GetByExecutionID(ctx context.Context, executionID string) (*domain.RetailerFeedback, error) {
	if f := m.store.firstFeedback(executionID); f != nil {
		return f, nil
	}
	return nil, domain.ErrFeedbackNotFound
}

func (m *MockFeedbackRepository) List(ctx context.Context, limit int) ([]domain.RetailerFeedback, error) {
	out := append([]domain.RetailerFeedback(nil), m.store.feedback...)
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *MockFeedbackRepository) ListByRetailer(ctx context.Context, retailerID string) ([]domain.RetailerFeedback, error) {
	seen := map[string]bool{}
	var out []domain.RetailerFeedback
	for _, f := range m.store.feedback {
		if seen[f.ExecutionID] {
			continue
		}
		seen[f.ExecutionID] = true
		if retailerID != "" && f.RetailerID != retailerID {
			continue
		}
		out = append(out, f)
	}
	return out, nil
}

func (m *MockFeedbackRepository) Update(ctx context.Context, f *domain.RetailerFeedback) error {
	for i := range m.store.feedback {
		if m.store.feedback[i].ID == f.ID {
			m.store.feedback[i] = *f
			return nil
		}
	}
	return domain.ErrFeedbackNotFound
}

func (m *MockFeedbackRepository) Delete(ctx context.Context, id string) error {
	for i := range m.store.feedback {
		if m.store.feedback[i].ID == id {
			m.store.feedback = append(m.store.feedback[:i], m.store.feedback[i+1:]...)
			return nil
		}
	}
	return domain.ErrFeedbackNotFound
}

// MockLLM returns a canned response
type MockLLM struct {
	response string
	err      error
	delay    time.Duration
	prompts  []string
}

func (m *MockLLM) Available() bool { return true }

func (m *MockLLM) Complete(ctx context.Context, prompt string) (string, error) {
	m.prompts = append(m.prompts, prompt)
	if m.delay > 0 {
		select {
		case <-time.After(m.delay):
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	return m.response, m.err
}

// MockEmbedder returns a vector per text, or a fixed error
type MockEmbedder struct {
	vectors map[string][]float64
	err     error
	calls   int
}

func (m *MockEmbedder) Available() bool { return true }

func (m *MockEmbedder) Embed(ctx context.Context, text string) ([]float64, error) {
	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	if v, ok := m.vectors[text]; ok {
		return v, nil
	}
	return []float64{1, 0, 0}, nil
}

var errStore = errors.New("store unavailable")

func floatPtr(v float64) *float64 { return &v }

func boolPtr(v bool) *bool { return &v }
