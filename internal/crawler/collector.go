package crawler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"

	"github.com/nao1215/a11yscan/internal/browser"
	"github.com/nao1215/a11yscan/internal/model"
)

// documentHTMLExpression snapshots the live DOM.
const documentHTMLExpression = "document.documentElement.outerHTML"

// ErrSnapshot is returned when the DOM of a page cannot be read.
var ErrSnapshot = errors.New("failed to read page DOM")

// Collector extracts same-origin links from a loaded page.
type Collector struct {
	normalizer *Normalizer
	logger     *slog.Logger
}

// CollectorOption configures a Collector.
type CollectorOption func(*Collector)

// WithCollectorLogger sets the logger.
func WithCollectorLogger(logger *slog.Logger) CollectorOption {
	return func(c *Collector) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// NewCollector creates a Collector that filters links with normalizer.
// A nil normalizer applies the default rules.
func NewCollector(normalizer *Normalizer, opts ...CollectorOption) *Collector {
	if normalizer == nil {
		normalizer = NewNormalizer()
	}
	c := &Collector{
		normalizer: normalizer,
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Collect reads the anchors of page and returns them as a LinkSet.
// The page must already be loaded; Collect does not navigate.
func (c *Collector) Collect(ctx context.Context, page browser.Page) (*model.LinkSet, error) {
	pageURL := page.URL()

	raw, err := page.Evaluate(ctx, documentHTMLExpression)
	if err != nil {
		return nil, fmt.Errorf("%w %s: %w", ErrSnapshot, pageURL, err)
	}
	var markup string
	if err := json.Unmarshal(raw, &markup); err != nil {
		return nil, fmt.Errorf("%w %s: unexpected snapshot: %w", ErrSnapshot, pageURL, err)
	}

	anchors, err := ParseAnchors(strings.NewReader(markup))
	if err != nil {
		return nil, fmt.Errorf("%w %s: %w", ErrSnapshot, pageURL, err)
	}

	hrefs := anchors.Hrefs
	if anchors.Base != "" {
		hrefs = rebase(pageURL, anchors.Base, hrefs)
	}

	links, err := c.normalizer.Normalize(pageURL, hrefs)
	if err != nil {
		return nil, err
	}

	c.logger.Info("collected links",
		"url", pageURL,
		"anchors", len(anchors.Hrefs),
		"links", links.Len(),
	)
	return links, nil
}

// rebase resolves hrefs against the document's <base href>, which itself is
// relative to the page URL. Hrefs are returned unchanged if the base is invalid.
func rebase(pageURL, baseHref string, hrefs []string) []string {
	page, err := url.Parse(pageURL)
	if err != nil {
		return hrefs
	}
	ref, err := url.Parse(baseHref)
	if err != nil {
		return hrefs
	}
	base := page.ResolveReference(ref)

	out := make([]string, 0, len(hrefs))
	for _, h := range hrefs {
		trimmed := strings.TrimSpace(h)
		// Fragment links are dropped by the normalizer; keep them raw.
		if trimmed == "" || strings.Contains(trimmed, "#") {
			out = append(out, h)
			continue
		}
		u, err := url.Parse(trimmed)
		if err != nil {
			out = append(out, h)
			continue
		}
		out = append(out, base.ResolveReference(u).String())
	}
	return out
}
