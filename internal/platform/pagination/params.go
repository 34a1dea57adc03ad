package pagination

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
)

const (
	// DefaultPage is the page returned when the client omits the page parameter.
	DefaultPage = 1
	// DefaultLimit defines the fallback number of items returned when the client omits limit.
	DefaultLimit = 10
)

// ErrInvalidParams signals that page or limit could not be parsed as positive integers.
var ErrInvalidParams = errors.New("pagination: invalid parameters")

// Params bundles the offset pagination values extracted from a request.
//
// Limit is deliberately uncapped: admin listings rely on large page sizes for
// exports, and the caller decides what is reasonable.
type Params struct {
	Page  int
	Limit int
}

// Offset returns the number of documents to skip for the current page.
func (p Params) Offset() int {
	if p.Page <= 1 {
		return 0
	}
	return (p.Page - 1) * p.Limit
}

// PageCount computes the number of pages needed for total items at the current limit.
func (p Params) PageCount(total int64) int {
	if total <= 0 || p.Limit <= 0 {
		return 0
	}
	pages := total / int64(p.Limit)
	if total%int64(p.Limit) != 0 {
		pages++
	}
	return int(pages)
}

// FromRequest parses page and limit from the supplied request.
func FromRequest(r *http.Request) (Params, error) {
	if r == nil {
		return Params{}, errors.New("pagination: nil request")
	}
	return Parse(r.URL.Query())
}

// Parse consumes the provided query values and returns the normalised Params.
func Parse(values url.Values) (Params, error) {
	if values == nil {
		values = url.Values{}
	}

	page, err := parsePositiveInt(values.Get("page"), DefaultPage)
	if err != nil {
		return Params{}, fmt.Errorf("%w: page %v", ErrInvalidParams, err)
	}

	limit, err := parsePositiveInt(values.Get("limit"), DefaultLimit)
	if err != nil {
		return Params{}, fmt.Errorf("%w: limit %v", ErrInvalidParams, err)
	}

	return Params{Page: page, Limit: limit}, nil
}

func parsePositiveInt(raw string, fallback int) (int, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return fallback, nil
	}

	value, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%q is not an integer", raw)
	}
	if value <= 0 {
		return 0, fmt.Errorf("%d must be positive", value)
	}
	return value, nil
}
