// Package fixtures loads catalog seed data from YAML.
package fixtures

import (
	"context"
	_ "embed"
	"encoding/json"
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/smartswap/backend/internal/domain"
	"github.com/smartswap/backend/internal/usecase"
)

//go:embed sample.yaml
var sample []byte

// Fixture is a set of products and rules to seed
type Fixture struct {
	Products []domain.Product
	Rules    []domain.SwapRule
}

// Report summarises a seeding run
type Report struct {
	ProductsCreated int                   `json:"products_created"`
	ProductFailures []usecase.BulkFailure `json:"product_failures,omitempty"`
	RulesCreated    int                   `json:"rules_created"`
	RuleFailures    []string              `json:"rule_failures,omitempty"`
}

// Sample returns the built-in demo catalog
func Sample() (*Fixture, error) {
	return Load(sample)
}

// Load parses a YAML fixture. Entries are re-encoded as JSON so rule
// conditions get the same lenient decoding the API applies.
func Load(data []byte) (*Fixture, error) {
	var raw struct {
		Products []map[string]any `yaml:"products"`
		Rules    []map[string]any `yaml:"rules"`
	}
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse fixture: %w", err)
	}

	f := &Fixture{
		Products: make([]domain.Product, len(raw.Products)),
		Rules:    make([]domain.SwapRule, len(raw.Rules)),
	}
	for i, entry := range raw.Products {
		f.Products[i].Availability = true
		if err := reencode(entry, &f.Products[i]); err != nil {
			return nil, fmt.Errorf("product %d: %w", i, err)
		}
	}
	for i, entry := range raw.Rules {
		f.Rules[i].Active = true
		if err := reencode(entry, &f.Rules[i]); err != nil {
			return nil, fmt.Errorf("rule %d: %w", i, err)
		}
	}
	return f, nil
}

func reencode(entry map[string]any, out any) error {
	data, err := json.Marshal(entry)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, out)
}

// Apply stores the fixture through the catalog service. Products that
// already exist are reported as failures, not errors.
func Apply(ctx context.Context, catalog *usecase.CatalogService, f *Fixture) (Report, error) {
	var report Report

	created, failures := catalog.CreateProducts(ctx, f.Products)
	report.ProductsCreated = len(created)
	report.ProductFailures = failures

	for i := range f.Rules {
		rule := f.Rules[i]
		if err := catalog.CreateRule(ctx, &rule); err != nil {
			if ctx.Err() != nil {
				return report, ctx.Err()
			}
			report.RuleFailures = append(report.RuleFailures, fmt.Sprintf("%s: %v", rule.Name, err))
			continue
		}
		report.RulesCreated++
	}
	return report, nil
}
