package x

import (
	"errors"
	"net/url"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"

	"xreposters/pkg/models"
)

// Strategy reads one field out of a record; ok=false means "not found here"
type Strategy func(record *goquery.Selection) (value string, ok bool)

var (
	handleStrategies      = []Strategy{handleFromProfileLink, handleFromAtLabel}
	displayNameStrategies = []Strategy{displayNameFromNameBlock, firstTextLine}
	bioStrategies         = []Strategy{bioFromLangBlock}
)

var handlePattern = regexp.MustCompile(`^[A-Za-z0-9_]{1,50}$`)

var profileHosts = map[string]bool{
	"x.com":              true,
	"www.x.com":          true,
	"mobile.x.com":       true,
	"twitter.com":        true,
	"www.twitter.com":    true,
	"mobile.twitter.com": true,
}

// ErrEmptyRecord is returned for a fragment with no markup
var ErrEmptyRecord = errors.New("empty record")

// Extract turns one record's markup into an entity. Missing fields come back
// empty; only unparseable markup is an error.
func Extract(fragment string) (models.CollectedEntity, error) {
	if strings.TrimSpace(fragment) == "" {
		return models.CollectedEntity{}, ErrEmptyRecord
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(fragment))
	if err != nil {
		return models.CollectedEntity{}, err
	}
	record := doc.Selection

	return models.CollectedEntity{
		Handle:             NormalizeHandle(firstOf(record, handleStrategies...)),
		DisplayName:        firstOf(record, displayNameStrategies...),
		Bio:                firstOf(record, bioStrategies...),
		RelationshipStatus: relationshipStatus(record),
	}, nil
}

// NormalizeHandle strips whitespace, one leading @ and surrounding slashes
func NormalizeHandle(raw string) string {
	h := strings.TrimSpace(raw)
	h = strings.TrimPrefix(h, "@")
	return strings.Trim(h, "/")
}

// firstOf returns the first non-empty value any strategy yields. A strategy
// that panics counts as not found.
func firstOf(record *goquery.Selection, strategies ...Strategy) string {
	for _, strategy := range strategies {
		if value, ok := try(strategy, record); ok && value != "" {
			return value
		}
	}
	return ""
}

func try(strategy Strategy, record *goquery.Selection) (value string, ok bool) {
	defer func() {
		if recover() != nil {
			value, ok = "", false
		}
	}()
	return strategy(record)
}

// handleFromProfileLink takes the handle from the first link to a profile page
func handleFromProfileLink(record *goquery.Selection) (string, bool) {
	var handle string
	record.Find(profileLinkSelector).EachWithBreak(func(_ int, a *goquery.Selection) bool {
		href, _ := a.Attr("href")
		if h, ok := profileHandle(href); ok {
			handle = h
			return false
		}
		return true
	})
	return handle, handle != ""
}

// profileHandle accepts relative or x.com/twitter.com links with exactly one path segment
func profileHandle(href string) (string, bool) {
	u, err := url.Parse(strings.TrimSpace(href))
	if err != nil {
		return "", false
	}
	if u.Host != "" && !profileHosts[strings.ToLower(u.Host)] {
		return "", false
	}
	if u.Host == "" && !strings.HasPrefix(u.Path, "/") {
		return "", false
	}

	segment := strings.Trim(u.Path, "/")
	if segment == "" || strings.Contains(segment, "/") {
		return "", false
	}
	if reservedRoutes[strings.ToLower(segment)] || !handlePattern.MatchString(segment) {
		return "", false
	}
	return segment, true
}

// handleFromAtLabel takes the first text node that looks like @handle
func handleFromAtLabel(record *goquery.Selection) (string, bool) {
	var handle string
	eachText(record, func(text string) bool {
		if strings.HasPrefix(text, "@") && handlePattern.MatchString(strings.TrimPrefix(text, "@")) {
			handle = text
			return false
		}
		return true
	})
	return handle, handle != ""
}

func displayNameFromNameBlock(record *goquery.Selection) (string, bool) {
	name := strings.TrimSpace(record.Find(displayNameSelector).First().Text())
	return name, name != ""
}

// firstTextLine approximates the first rendered line with the first non-empty text node
func firstTextLine(record *goquery.Selection) (string, bool) {
	var line string
	eachText(record, func(text string) bool {
		line = text
		return false
	})
	return line, line != ""
}

func bioFromLangBlock(record *goquery.Selection) (string, bool) {
	bio := strings.TrimSpace(record.Find(bioSelector).First().Text())
	return bio, bio != ""
}

// relationshipStatus reads the follow button label; anything unrecognised is not-following
func relationshipStatus(record *goquery.Selection) (status models.RelationshipStatus) {
	defer func() {
		if recover() != nil {
			status = models.NotFollowing
		}
	}()

	button := record.Find(followButtonSelector).First()
	if button.Length() == 0 {
		return models.NotFollowing
	}
	label := button.Text()
	if aria, ok := button.Attr("aria-label"); ok {
		label += " " + aria
	}
	for _, marker := range followingLabels {
		if strings.Contains(label, marker) {
			return models.Following
		}
	}
	return models.NotFollowing
}

// eachText visits non-empty text nodes in document order until fn returns false
func eachText(record *goquery.Selection, fn func(text string) bool) {
	var walk func(n *html.Node) bool
	walk = func(n *html.Node) bool {
		if n.Type == html.TextNode {
			if text := strings.TrimSpace(n.Data); text != "" {
				return fn(text)
			}
			return true
		}
		if n.Type == html.ElementNode && (n.Data == "script" || n.Data == "style") {
			return true
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if !walk(c) {
				return false
			}
		}
		return true
	}

	for _, n := range record.Nodes {
		if !walk(n) {
			return
		}
	}
}
