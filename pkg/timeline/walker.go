package timeline

import (
	"context"
	"fmt"

	"tweetkit/pkg/logger"
)

// FetchFunc requests one page. An empty cursor asks for the first page.
type FetchFunc func(ctx context.Context, cursor string) (Page, error)

// Walker follows next cursors until a listing is exhausted
type Walker struct {
	// Listing names the walk in log output
	Listing string
	Fetch   FetchFunc
	// MaxPages stops the walk after that many pages; 0 means no limit.
	MaxPages int
	// StartCursor resumes a walk from a saved position.
	StartCursor string
	// OnPage is called after every page with its 1-based number. Returning
	// an error stops the walk with that error.
	OnPage func(n int, p Page) error
	Logger logger.Logger
}

// Result summarises a finished walk
type Result struct {
	Pages    int
	Entities int
	// Cursor is the last next cursor seen; resuming from it continues the walk.
	Cursor string
	// Exhausted is true when the listing ran out rather than hitting MaxPages.
	Exhausted bool
}

// Walk fetches pages until the next cursor is empty or repeats, a page comes
// back without entities, MaxPages is reached, or ctx is done.
func (w *Walker) Walk(ctx context.Context) (Result, error) {
	if w.Fetch == nil {
		return Result{}, fmt.Errorf("timeline walker %q has no fetch function", w.Listing)
	}
	log := logger.OrGlobal(w.Logger)

	res := Result{Cursor: w.StartCursor}
	seen := map[string]bool{}
	if w.StartCursor != "" {
		seen[w.StartCursor] = true
	}

	for {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		if w.MaxPages > 0 && res.Pages >= w.MaxPages {
			return res, nil
		}

		page, err := w.Fetch(ctx, res.Cursor)
		if err != nil {
			return res, fmt.Errorf("fetching %s page %d: %w", w.Listing, res.Pages+1, err)
		}
		res.Pages++
		res.Entities += page.Len()
		logger.LogPage(log, w.Listing, res.Pages, page.Len(), page.NextCursor)

		if w.OnPage != nil {
			if err := w.OnPage(res.Pages, page); err != nil {
				return res, err
			}
		}

		next := page.NextCursor
		if next == "" || seen[next] || page.Len() == 0 {
			res.Exhausted = true
			if next != "" && !seen[next] {
				res.Cursor = next
			}
			log.DebugWithFields("Listing exhausted", map[string]interface{}{
				"listing": w.Listing,
				"pages":   res.Pages,
			})
			return res, nil
		}
		seen[next] = true
		res.Cursor = next
	}
}
