package x

import (
	"context"
	"strings"
	"time"

	"xreposters/pkg/browser"
	apperrors "xreposters/pkg/errors"
	"xreposters/pkg/logger"
)

// Navigator brings a page to the post and, in modal mode, opens the repost list
type Navigator struct {
	page            browser.Page
	mode            Mode
	waitTimeout     time.Duration
	listWaitTimeout time.Duration
	settlePause     time.Duration
	log             logger.Logger
}

// NavigatorConfig carries the navigator's bounded waits
type NavigatorConfig struct {
	Mode            Mode
	WaitTimeout     time.Duration
	ListWaitTimeout time.Duration
	SettlePause     time.Duration
}

// NewNavigator creates a navigator over page
func NewNavigator(page browser.Page, cfg NavigatorConfig, log logger.Logger) *Navigator {
	if log == nil {
		log = logger.NewNopLogger()
	}
	if cfg.Mode == "" {
		cfg.Mode = ModeModal
	}
	return &Navigator{
		page:            page,
		mode:            cfg.Mode,
		waitTimeout:     cfg.WaitTimeout,
		listWaitTimeout: cfg.ListWaitTimeout,
		settlePause:     cfg.SettlePause,
		log:             log.WithField("component", "navigator"),
	}
}

// Open loads target and waits for the post to render. A page that never
// shows a known landmark is still used after one settle pause.
func (n *Navigator) Open(ctx context.Context, target string) error {
	if err := n.page.Navigate(ctx, target); err != nil {
		return err
	}

	ready := []string{postTextSelector, postArticleSelector}
	if n.mode == ModeDirect {
		ready = append(ready, UserCellSelector)
	}

	matched, err := n.page.WaitAny(ctx, n.waitTimeout, ready...)
	switch {
	case err == nil:
		n.log.WithField("landmark", matched).Debug("Post page ready")
		return nil
	case apperrors.IsTimeout(err):
		n.log.WithFields(map[string]interface{}{
			"target":  target,
			"timeout": n.waitTimeout,
		}).Warn("Post page landmark not seen, continuing")
		return n.page.Sleep(ctx, n.settlePause)
	default:
		return err
	}
}

// OpenRepostList makes the repost list visible and returns the selector of
// the scroll container ("" for the whole document in direct mode).
func (n *Navigator) OpenRepostList(ctx context.Context) (string, error) {
	if n.mode == ModeDirect {
		return "", nil
	}

	if err := n.clickListOpener(ctx); err != nil {
		return "", err
	}

	if _, err := n.page.WaitAny(ctx, n.listWaitTimeout, dialogSelector); err != nil {
		return "", n.listWaitError("repost dialog did not open", err)
	}
	if _, err := n.page.WaitAny(ctx, n.listWaitTimeout, dialogContainerSelector); err != nil {
		return "", n.listWaitError("repost list container not found", err)
	}

	n.log.Debug("Repost list open")
	return dialogContainerSelector, nil
}

// clickListOpener clicks the first control labelled as the repost list, then
// falls back to the repost button.
func (n *Navigator) clickListOpener(ctx context.Context) error {
	texts, err := n.page.Texts(ctx, listOpenerSelector)
	if err != nil {
		return err
	}
	if idx := indexOfLabel(texts, listOpenerLabels); idx >= 0 {
		n.log.WithField("label", strings.TrimSpace(texts[idx])).Debug("Opening repost list")
		return n.page.ClickAt(ctx, listOpenerSelector, idx)
	}

	count, err := n.page.Count(ctx, repostButtonSelector)
	if err != nil {
		return err
	}
	if count == 0 {
		return apperrors.TargetNotFound("repost list control not found")
	}
	n.log.Debug("Opening repost list through the repost button")
	return n.page.ClickAt(ctx, repostButtonSelector, 0)
}

func (n *Navigator) listWaitError(msg string, err error) error {
	if apperrors.IsTimeout(err) {
		return apperrors.Timeout(msg, err)
	}
	return err
}

// indexOfLabel returns the first text equal to one of labels, ignoring case and surrounding space
func indexOfLabel(texts, labels []string) int {
	for i, text := range texts {
		text = strings.ToLower(strings.TrimSpace(text))
		for _, label := range labels {
			if text == label {
				return i
			}
		}
	}
	return -1
}
