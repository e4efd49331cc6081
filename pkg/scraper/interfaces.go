package scraper

import (
	"context"

	"xreposters/pkg/auth"
	"xreposters/pkg/models"
)

// Collector is the run contract the HTTP and CLI surfaces depend on
type Collector interface {
	Collect(ctx context.Context, req Request) ([]models.CollectedEntity, error)
}

// DefaultAccountSource supplies a stored login when none is configured
type DefaultAccountSource interface {
	RetrieveDefault() (*auth.Account, error)
}

var _ Collector = (*Scraper)(nil)
var _ DefaultAccountSource = (*auth.Manager)(nil)
