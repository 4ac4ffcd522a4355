package scanner

import "strings"

// WorkItem represents a single unit of work for the worker pool.
type WorkItem struct {
	BaseURL string
	Word    string // word list entry, used verbatim as a path fragment
	Attempt int    // 0 on first dispatch, incremented on each rate-limit retry
}

// URL joins the base URL and the word with exactly one slash.
func (w WorkItem) URL() string {
	return JoinURL(w.BaseURL, w.Word)
}

// JoinURL concatenates base and word so that exactly one "/" separates them.
func JoinURL(base, word string) string {
	return strings.TrimRight(base, "/") + "/" + strings.TrimLeft(word, "/")
}
