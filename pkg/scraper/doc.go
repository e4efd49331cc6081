// Package scraper runs a complete collection: it acquires a browser session,
// signs in when credentials are available, opens the repost list of the
// target post and drives the collector until the list is exhausted.
//
// Basic usage:
//
//	cfg, _ := config.Load("", nil)
//	s := scraper.New(cfg, nil, logger.GetLogger())
//	users, err := s.Collect(ctx, scraper.NewRequest(cfg, url, nil))
//
// Errors are *errors.Error values typed as missing_input, resource_init,
// authentication, target_not_found, timeout or unknown.
package scraper
