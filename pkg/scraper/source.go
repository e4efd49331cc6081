package scraper

import (
	"context"

	"xreposters/pkg/browser"
	"xreposters/pkg/x"
)

// pageSource exposes the user records rendered inside scope as a collector source
type pageSource struct {
	page  browser.Page
	scope string
}

func (s *pageSource) Records(ctx context.Context) ([]string, error) {
	return s.page.OuterHTMLs(ctx, s.scope, x.UserCellSelector)
}

func (s *pageSource) Advance(ctx context.Context) error {
	return s.page.ScrollForward(ctx, s.scope)
}
