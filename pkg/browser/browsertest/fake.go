// Package browsertest provides a scripted, in-memory browser.Page for tests.
package browsertest

import (
	"context"
	"fmt"
	"sync"
	"time"

	"xreposters/pkg/browser"
	apperrors "xreposters/pkg/errors"
)

// Typed records one TypeInto call
type Typed struct {
	Selector string
	Index    int
	Text     string
}

// Click records one ClickAt call
type Click struct {
	Selector string
	Index    int
}

// Page is a scripted browser.Page. Selectors listed in Present satisfy
// WaitAny immediately; all others time out at once.
type Page struct {
	mu sync.Mutex

	Present map[string]bool
	Counts  map[string]int
	Text    map[string][]string
	// Frames holds the record markup returned before the first scroll, after
	// the first scroll, and so on. The last frame repeats.
	Frames [][]string

	NavigateErr   error
	OuterHTMLErr  error
	ScrollErr     error
	WaitErr       map[string]error
	OnNavigate    func(p *Page, url string)
	OnType        func(p *Page, t Typed)
	OnClick       func(p *Page, c Click)
	OuterHTMLHook func(scrolls int) ([]string, error)

	Navigations []string
	Waits       [][]string
	TypedInto   []Typed
	Clicks      []Click
	Scopes      []string
	Scrolls     int
	Sleeps      []time.Duration
}

var _ browser.Page = (*Page)(nil)

// NewPage returns an empty scripted page
func NewPage() *Page {
	return &Page{
		Present: map[string]bool{},
		Counts:  map[string]int{},
		Text:    map[string][]string{},
		WaitErr: map[string]error{},
	}
}

// Show marks selectors as present
func (p *Page) Show(selectors ...string) {
	for _, s := range selectors {
		p.Present[s] = true
	}
}

func (p *Page) Navigate(ctx context.Context, url string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	p.mu.Lock()
	p.Navigations = append(p.Navigations, url)
	hook := p.OnNavigate
	err := p.NavigateErr
	p.mu.Unlock()

	if hook != nil {
		hook(p, url)
	}
	return err
}

func (p *Page) WaitAny(ctx context.Context, timeout time.Duration, selectors ...string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	p.mu.Lock()
	defer p.mu.Unlock()

	p.Waits = append(p.Waits, selectors)
	for _, s := range selectors {
		if err, ok := p.WaitErr[s]; ok {
			return "", err
		}
		if p.Present[s] {
			return s, nil
		}
	}
	return "", apperrors.Timeout(fmt.Sprintf("none of %v appeared within %s", selectors, timeout), nil)
}

func (p *Page) Count(ctx context.Context, selector string) (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.Counts[selector], nil
}

func (p *Page) TypeInto(ctx context.Context, selector string, index int, text string) error {
	t := Typed{Selector: selector, Index: index, Text: text}
	p.mu.Lock()
	p.TypedInto = append(p.TypedInto, t)
	hook := p.OnType
	p.mu.Unlock()

	if hook != nil {
		hook(p, t)
	}
	return nil
}

func (p *Page) Texts(ctx context.Context, selector string) ([]string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.Text[selector]...), nil
}

func (p *Page) ClickAt(ctx context.Context, selector string, index int) error {
	c := Click{Selector: selector, Index: index}
	p.mu.Lock()
	p.Clicks = append(p.Clicks, c)
	hook := p.OnClick
	p.mu.Unlock()

	if hook != nil {
		hook(p, c)
	}
	return nil
}

func (p *Page) OuterHTMLs(ctx context.Context, scope, selector string) ([]string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.Scopes = append(p.Scopes, scope)
	if p.OuterHTMLHook != nil {
		return p.OuterHTMLHook(p.Scrolls)
	}
	if p.OuterHTMLErr != nil {
		return nil, p.OuterHTMLErr
	}
	if len(p.Frames) == 0 {
		return nil, nil
	}
	i := p.Scrolls
	if i >= len(p.Frames) {
		i = len(p.Frames) - 1
	}
	return append([]string(nil), p.Frames[i]...), nil
}

func (p *Page) ScrollForward(ctx context.Context, scope string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.Scrolls++
	return p.ScrollErr
}

// Sleep records d and returns immediately unless ctx is done
func (p *Page) Sleep(ctx context.Context, d time.Duration) error {
	p.mu.Lock()
	p.Sleeps = append(p.Sleeps, d)
	p.mu.Unlock()
	return ctx.Err()
}

// Session wraps a Page and counts releases
type Session struct {
	*Page

	mu       sync.Mutex
	releases int
}

// Release implements browser.Session
func (s *Session) Release() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.releases++
	return nil
}

// Releases reports how many times Release was called
func (s *Session) Releases() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.releases
}

// Launcher hands out one scripted session per Acquire
type Launcher struct {
	mu sync.Mutex

	// NewPage builds the page for each acquired session; nil gives NewPage()
	NewPage func() *Page
	Err     error

	Sessions []*Session
	Options  []browser.Options
}

// Acquire implements browser.Launcher
func (l *Launcher) Acquire(ctx context.Context, opts browser.Options) (browser.Session, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.Options = append(l.Options, opts)
	if l.Err != nil {
		return nil, l.Err
	}
	page := NewPage()
	if l.NewPage != nil {
		page = l.NewPage()
	}
	s := &Session{Page: page}
	l.Sessions = append(l.Sessions, s)
	return s, nil
}

// Acquired reports how many sessions were handed out
func (l *Launcher) Acquired() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.Sessions)
}
