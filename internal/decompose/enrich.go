package decompose

import (
	"context"

	"github.com/ShayCichocki/stratum/pkg/models"
)

// Enricher supplies a context snapshot (prior insights, similar-pattern
// references) for a subtask before execution. It is an external
// collaborator; enrichment failures must never abort decomposition.
type Enricher interface {
	Enrich(ctx context.Context, query, domain string) (models.EnrichmentContext, error)
}

// NoopEnricher returns empty enrichment for every query. It is the
// default when no search collaborator is wired in.
type NoopEnricher struct{}

// Enrich returns an empty context.
func (NoopEnricher) Enrich(ctx context.Context, query, domain string) (models.EnrichmentContext, error) {
	return models.EnrichmentContext{}, nil
}

// EnricherFunc adapts a function to the Enricher interface.
type EnricherFunc func(ctx context.Context, query, domain string) (models.EnrichmentContext, error)

// Enrich calls the wrapped function.
func (f EnricherFunc) Enrich(ctx context.Context, query, domain string) (models.EnrichmentContext, error) {
	return f(ctx, query, domain)
}
