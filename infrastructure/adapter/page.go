package adapter

import (
	"context"
	"net/url"
	"strconv"

	"github.com/smoketheglobe/license-etl/domain/service"
	"github.com/smoketheglobe/license-etl/domain/source"
)

// PageAdapter fetches rendered web pages as Markdown text blocks, one unit
// per page, following simple ?page=N pagination up to the configured limit.
type PageAdapter struct {
	renderer service.Renderer
}

// NewPageAdapter creates a PageAdapter.
func NewPageAdapter(renderer service.Renderer) *PageAdapter {
	return &PageAdapter{renderer: renderer}
}

// Fetch yields one text unit per page. A page that fails to render is
// yielded as a *FetchError; later pages are still attempted, so a single
// bad page never discards the rest of the listing.
func (a *PageAdapter) Fetch(ctx context.Context, cfg source.Config) source.Batch {
	return func(yield func(source.RawUnit, error) bool) {
		for page := 1; page <= cfg.MaxPages(); page++ {
			if ctx.Err() != nil {
				return
			}

			pageURL, err := pageURLFor(cfg.Endpoint(), page)
			if err != nil {
				yield(source.RawUnit{}, &source.FetchError{SourceID: cfg.ID(), Unit: cfg.Endpoint(), Err: err})
				return
			}

			markdown, err := a.renderer.Render(ctx, pageURL)
			if err != nil {
				if !yield(source.RawUnit{}, &source.FetchError{SourceID: cfg.ID(), Unit: pageURL, Err: err}) {
					return
				}
				continue
			}

			if !yield(source.NewTextUnit(pageURL, markdown), nil) {
				return
			}
		}
	}
}

func pageURLFor(endpoint string, page int) (string, error) {
	if page == 1 {
		return endpoint, nil
	}
	u, err := url.Parse(endpoint)
	if err != nil {
		return "", err
	}
	q := u.Query()
	q.Set("page", strconv.Itoa(page))
	u.RawQuery = q.Encode()
	return u.String(), nil
}

var _ source.Adapter = (*PageAdapter)(nil)
