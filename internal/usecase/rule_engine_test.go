package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smartswap/backend/internal/domain"
)

func criteria(t *testing.T, doc string) domain.TargetCriteria {
	t.Helper()
	var c domain.TargetCriteria
	require.NoError(t, json.Unmarshal([]byte(doc), &c))
	return c
}

func catalogFixture() []domain.Product {
	return []domain.Product{
		{ID: "orig", SKU: "TV-001", Name: "TV 55", Category: "tv", Price: 500, Availability: true,
			Attributes: domain.Attributes{"size": domain.NumberValue(55), "brand": domain.StringValue("acme")}},
		{ID: "tv-cheap", SKU: "TV-002", Name: "TV 55 Budget", Category: "tv", Price: 420, Availability: true,
			Attributes: domain.Attributes{"size": domain.NumberValue(55), "brand": domain.StringValue("zeta")}},
		{ID: "tv-same", SKU: "TV-003", Name: "TV 55 Plus", Category: "tv", Price: 550, Availability: true,
			Attributes: domain.Attributes{"size": domain.NumberValue(55), "brand": domain.StringValue("acme")}},
		{ID: "tv-gone", SKU: "TV-004", Name: "TV 55 Old", Category: "tv", Price: 480, Availability: false,
			Attributes: domain.Attributes{"size": domain.NumberValue(55), "brand": domain.StringValue("acme")}},
		{ID: "tv-big", SKU: "TV-005", Name: "TV 75", Category: "tv", Price: 1500, Availability: true,
			Attributes: domain.Attributes{"size": domain.NumberValue(75), "brand": domain.StringValue("acme")}},
		{ID: "monitor", SKU: "MON-001", Name: "Monitor 27", Category: "monitor", Price: 300, Availability: true,
			Attributes: domain.Attributes{"size": domain.NumberValue(27)}},
	}
}

type engineFixture struct {
	products *MockProductRepository
	rules    *MockRuleRepository
	store    *MockSwapStore
	engine   *RuleEngine
}

func newEngineFixture(t *testing.T, rules ...domain.SwapRule) *engineFixture {
	t.Helper()
	f := &engineFixture{
		products: NewMockProductRepository(catalogFixture()...),
		rules:    NewMockRuleRepository(rules...),
		store:    NewMockSwapStore(),
	}
	f.engine = NewRuleEngine(f.rules, f.products, f.store.Executions(), newTestMatcher(t), RuleEngineConfig{Logger: testLogger})
	return f
}

func ids(products []domain.Product) []string {
	out := make([]string, 0, len(products))
	for _, p := range products {
		out = append(out, p.ID)
	}
	return out
}

func TestEvaluateRules(t *testing.T) {
	ctx := context.Background()
	f := newEngineFixture(t,
		domain.SwapRule{Name: "low", Priority: 1, Active: true, Conditions: conditionsFromDoc(`{"category": "tv"}`)},
		domain.SwapRule{Name: "high", Priority: 10, Active: true, Conditions: conditionsFromDoc(`{}`)},
		domain.SwapRule{Name: "inactive", Priority: 100, Active: false, Conditions: conditionsFromDoc(`{}`)},
		domain.SwapRule{Name: "other category", Priority: 50, Active: true, Conditions: conditionsFromDoc(`{"category": "monitor"}`)},
		domain.SwapRule{Name: "tie first", Priority: 5, Active: true, Conditions: conditionsFromDoc(`{"category": ["tv"]}`)},
		domain.SwapRule{Name: "tie second", Priority: 5, Active: true, Conditions: conditionsFromDoc(`{"availability": true}`)},
		domain.SwapRule{Name: "malformed", Priority: 7, Active: true, Conditions: conditionsFromDoc(`{"price_range": 3}`)},
	)

	product, err := f.products.GetByID(ctx, "orig")
	require.NoError(t, err)

	matched, err := f.engine.EvaluateRules(ctx, product)
	require.NoError(t, err)

	var names []string
	for _, r := range matched {
		names = append(names, r.Name)
	}
	assert.Equal(t, []string{"high", "tie first", "tie second", "low"}, names)

	t.Run("higher priority category rule comes first", func(t *testing.T) {
		monitor, _ := f.products.GetByID(ctx, "monitor")
		monitor.Availability = false
		matched, err := f.engine.EvaluateRules(ctx, monitor)
		require.NoError(t, err)
		require.Len(t, matched, 2)
		assert.Equal(t, "other category", matched[0].Name)
		assert.Equal(t, "high", matched[1].Name)
	})

	t.Run("no matching rules is not an error", func(t *testing.T) {
		only := newEngineFixture(t, domain.SwapRule{Name: "tv only", Active: true, Conditions: conditionsFromDoc(`{"category": "tv"}`)})
		monitor, _ := only.products.GetByID(ctx, "monitor")
		matched, err := only.engine.EvaluateRules(ctx, monitor)
		require.NoError(t, err)
		assert.Empty(t, matched)
	})

	t.Run("nil product", func(t *testing.T) {
		_, err := f.engine.EvaluateRules(ctx, nil)
		assert.ErrorIs(t, err, domain.ErrInvalidRequest)
	})

	t.Run("store failure", func(t *testing.T) {
		f.rules.listError = errStore
		defer func() { f.rules.listError = nil }()
		_, err := f.engine.EvaluateRules(ctx, product)
		assert.ErrorIs(t, err, errStore)
	})
}

func conditionsFromDoc(doc string) domain.Conditions {
	var c domain.Conditions
	_ = json.Unmarshal([]byte(doc), &c)
	return c
}

func TestFindCandidates(t *testing.T) {
	ctx := context.Background()
	f := newEngineFixture(t)
	original, err := f.products.GetByID(ctx, "orig")
	require.NoError(t, err)

	tests := []struct {
		name string
		doc  string
		want []string
	}{
		{"no criteria returns every available other product", `{}`, []string{"tv-cheap", "tv-same", "tv-big", "monitor"}},
		{"single category", `{"category": "tv"}`, []string{"tv-cheap", "tv-same", "tv-big"}},
		{"category list", `{"category": ["monitor", "audio"]}`, []string{"monitor"}},
		{"empty category list", `{"category": []}`, nil},
		{"price range", `{"price_range": {"min": 400, "max": 600}}`, []string{"tv-cheap", "tv-same"}},
		{"price range without max", `{"price_range": {"min": 1000}}`, []string{"tv-big"}},
		{"max price diff window", `{"max_price_diff": 60}`, []string{"tv-same"}},
		{"max price diff inclusive", `{"max_price_diff": 80}`, []string{"tv-cheap", "tv-same"}},
		{"price range intersects window", `{"price_range": {"max": 500}, "max_price_diff": 100}`, []string{"tv-cheap"}},
		{"disjoint range and window", `{"price_range": {"min": 1000}, "max_price_diff": 10}`, nil},
		{"same attributes", `{"category": "tv", "same_attributes": ["size", "brand"]}`, []string{"tv-same"}},
		{"same attribute missing on both sides", `{"same_attributes": ["color"]}`, []string{"tv-cheap", "tv-same", "tv-big", "monitor"}},
		{"same attribute missing on candidate", `{"same_attributes": ["brand"]}`, []string{"tv-same", "tv-big"}},
		{"malformed criteria yield nothing", `{"max_price_diff": "ten"}`, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			candidates, err := f.engine.FindCandidates(ctx, original, criteria(t, tt.doc))
			require.NoError(t, err)
			if tt.want == nil {
				assert.Empty(t, candidates)
				return
			}
			assert.Equal(t, tt.want, ids(candidates))
			for _, c := range candidates {
				assert.NotEqual(t, original.ID, c.ID)
				assert.True(t, c.Availability)
			}
		})
	}
}

func TestFindCandidatesCapsResults(t *testing.T) {
	ctx := context.Background()
	var products []domain.Product
	for i := 0; i < 25; i++ {
		products = append(products, domain.Product{SKU: string(rune('A'+i)) + "-SKU", Category: "bulk", Price: 10, Availability: true})
	}
	repo := NewMockProductRepository(products...)
	engine := NewRuleEngine(NewMockRuleRepository(), repo, NewMockSwapStore().Executions(), newTestMatcher(t), RuleEngineConfig{Logger: testLogger})

	original := repo.products[0]
	candidates, err := engine.FindCandidates(ctx, &original, domain.TargetCriteria{})
	require.NoError(t, err)
	assert.Len(t, candidates, defaultCandidateLimit)

	last := repo.queries[len(repo.queries)-1]
	assert.Equal(t, original.ID, last.ExcludeID)
	assert.True(t, last.AvailableOnly)
	assert.Nil(t, last.MinPrice)
	assert.Nil(t, last.MaxPrice)
}

func TestFindCandidatesQueryError(t *testing.T) {
	f := newEngineFixture(t)
	f.products.queryError = errStore
	original := catalogFixture()[0]
	_, err := f.engine.FindCandidates(context.Background(), &original, domain.TargetCriteria{})
	assert.ErrorIs(t, err, errStore)
}

func TestExecuteSwap(t *testing.T) {
	ctx := context.Background()
	fixed := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	products := catalogFixture()
	original, candidate := &products[0], &products[2]

	tests := []struct {
		name          string
		autoSwap      bool
		executionType string
		wantStatus    string
		wantActor     string
		wantType      string
	}{
		{"auto swap rule executes", true, domain.ExecutionAuto, domain.StatusExecuted, domain.ActorSystem, domain.ExecutionAuto},
		{"manual rule waits for approval", false, domain.ExecutionAuto, domain.StatusPendingApproval, domain.ActorSystem, domain.ExecutionAuto},
		{"agent execution on auto rule", true, domain.ExecutionAgent, domain.StatusExecuted, domain.ActorAgent, domain.ExecutionAgent},
		{"manual execution on manual rule", false, domain.ExecutionManual, domain.StatusPendingApproval, domain.ActorAgent, domain.ExecutionManual},
		{"empty type defaults to auto", false, "", domain.StatusPendingApproval, domain.ActorSystem, domain.ExecutionAuto},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newEngineFixture(t)
			f.engine.now = func() time.Time { return fixed }
			rule := &domain.SwapRule{ID: "r-1", Name: "tv swap", Version: 3, AutoSwapEnabled: tt.autoSwap}

			exec, err := f.engine.ExecuteSwap(ctx, ExecuteSwapInput{
				Rule:          rule,
				Original:      original,
				Candidate:     candidate,
				ExecutionType: tt.executionType,
				Confidence:    0.8,
			})
			require.NoError(t, err)

			assert.NotEmpty(t, exec.ID)
			assert.Equal(t, tt.wantStatus, exec.Status)
			assert.Equal(t, tt.wantActor, exec.ExecutedBy)
			assert.Equal(t, tt.wantType, exec.ExecutionType)
			assert.Equal(t, "r-1", exec.RuleID)
			assert.Equal(t, original.ID, exec.OriginalProductID)
			assert.Equal(t, candidate.ID, exec.SwapProductID)
			assert.Equal(t, fixed, exec.ExecutedAt)
			assert.Equal(t, domain.Justification{
				"rule_name":      "tv swap",
				"rule_version":   3,
				"execution_time": "2026-03-01T12:00:00Z",
				"confidence":     0.8,
			}, exec.Justification)

			stored, err := f.store.Executions().GetByID(ctx, exec.ID)
			require.NoError(t, err)
			assert.Equal(t, tt.wantStatus, stored.Status)
		})
	}

	t.Run("supplied justification is kept", func(t *testing.T) {
		f := newEngineFixture(t)
		exec, err := f.engine.ExecuteSwap(ctx, ExecuteSwapInput{
			Rule:          &domain.SwapRule{ID: "r-1"},
			Original:      original,
			Candidate:     candidate,
			Confidence:    0.5,
			Justification: domain.Justification{"reason": "retailer asked"},
		})
		require.NoError(t, err)
		assert.Equal(t, domain.Justification{"reason": "retailer asked"}, exec.Justification)
	})

	t.Run("rejects missing rule", func(t *testing.T) {
		f := newEngineFixture(t)
		_, err := f.engine.ExecuteSwap(ctx, ExecuteSwapInput{Original: original, Candidate: candidate})
		assert.ErrorIs(t, err, domain.ErrInvalidRequest)
	})

	t.Run("rejects confidence outside unit interval", func(t *testing.T) {
		f := newEngineFixture(t)
		_, err := f.engine.ExecuteSwap(ctx, ExecuteSwapInput{Rule: &domain.SwapRule{}, Original: original, Candidate: candidate, Confidence: 1.5})
		assert.ErrorIs(t, err, domain.ErrInvalidRequest)
	})

	t.Run("store failure", func(t *testing.T) {
		f := newEngineFixture(t)
		f.store.createError = errStore
		_, err := f.engine.ExecuteSwap(ctx, ExecuteSwapInput{Rule: &domain.SwapRule{}, Original: original, Candidate: candidate})
		assert.True(t, errors.Is(err, errStore))
	})
}

func TestExecuteSwapByID(t *testing.T) {
	ctx := context.Background()
	f := newEngineFixture(t, domain.SwapRule{Name: "auto", Active: true, AutoSwapEnabled: true})

	exec, err := f.engine.ExecuteSwapByID(ctx, "r-1", "orig", "tv-same", "")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusExecuted, exec.Status)
	assert.Equal(t, 1.0, exec.ConfidenceScore)

	_, err = f.engine.ExecuteSwapByID(ctx, "missing", "orig", "tv-same", "")
	assert.ErrorIs(t, err, domain.ErrRuleNotFound)

	_, err = f.engine.ExecuteSwapByID(ctx, "r-1", "orig", "missing", "")
	assert.ErrorIs(t, err, domain.ErrProductNotFound)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestUpdateExecutionAndHistory(t *testing.T) {
	ctx := context.Background()
	f := newEngineFixture(t)
	f.store.addHistory("orig", "tv-same", 2, 0, 0)
	f.store.addHistory("monitor", "orig", 1, 0, 0)
	f.store.addHistory("monitor", "tv-big", 1, 0, 0)

	history, err := f.engine.GetSwapHistory(ctx, "orig", 0)
	require.NoError(t, err)
	require.Len(t, history, 3)
	assert.Equal(t, "monitor", history[0].OriginalProductID)

	limited, err := f.engine.GetSwapHistory(ctx, "", 2)
	require.NoError(t, err)
	assert.Len(t, limited, 2)

	status := domain.StatusExecuted
	updated, err := f.engine.UpdateExecution(ctx, history[0].ID, ExecutionUpdate{
		Status:          &status,
		ConfidenceScore: floatPtr(0.9),
	})
	require.NoError(t, err)
	assert.Equal(t, domain.StatusExecuted, updated.Status)
	assert.Equal(t, 0.9, updated.ConfidenceScore)

	_, err = f.engine.UpdateExecution(ctx, history[0].ID, ExecutionUpdate{ConfidenceScore: floatPtr(-1)})
	assert.ErrorIs(t, err, domain.ErrInvalidRequest)

	_, err = f.engine.UpdateExecution(ctx, "missing", ExecutionUpdate{})
	assert.ErrorIs(t, err, domain.ErrExecutionNotFound)

	require.NoError(t, f.engine.DeleteExecution(ctx, history[0].ID))
	_, err = f.engine.GetExecution(ctx, history[0].ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
