/*
Package timeline extracts posts, accounts and lists from paginated listing
responses.

Every listing endpoint returns a document with an entries array somewhere
inside it. Two of the entries are cursor sentinels; the rest are either
single items or modules grouping several items. Config names the path to the
array, which sentinel is which, and how each item is classified:

	cfg := timeline.Config{
		Path:        timeline.Keys("data", "user", "result", "timeline_v2", "timeline", "instructions").Then(timeline.Find("entries")),
		CursorOrder: timeline.LastIsNext,
		Classify:    timeline.TweetClassifier,
	}
	page, err := timeline.Extract(doc, cfg)

Extract never modifies doc, and a response without the path is an empty page.
Walker drives repeated fetches by next cursor.
*/
package timeline
