package scanner

import (
	"net/http"
	"time"
)

// Classification is the bucket a request outcome falls into.
type Classification int

const (
	Other Classification = iota
	Found
	Forbidden
	RateLimited
)

func (c Classification) String() string {
	switch c {
	case Found:
		return "found"
	case Forbidden:
		return "forbidden"
	case RateLimited:
		return "rate-limited"
	default:
		return "other"
	}
}

// Classify maps an HTTP status code to its classification.
func Classify(statusCode int) Classification {
	switch statusCode {
	case http.StatusOK:
		return Found
	case http.StatusForbidden:
		return Forbidden
	case http.StatusTooManyRequests:
		return RateLimited
	default:
		return Other
	}
}

// Result holds the terminal outcome of a single word.
type Result struct {
	Word          string
	URL           string
	StatusCode    int // 0 when the request never produced a response
	ContentLength int64
	Class         Classification
	Attempts      int // total requests issued, including rate-limit retries
	Duration      time.Duration
	Error         error
}
