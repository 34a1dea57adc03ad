package pagination

import (
	"errors"
	"net/http/httptest"
	"net/url"
	"testing"
)

func TestParseDefaults(t *testing.T) {
	params, err := Parse(url.Values{})
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if params.Page != DefaultPage || params.Limit != DefaultLimit {
		t.Fatalf("expected defaults, got %+v", params)
	}
}

func TestParseExplicitValues(t *testing.T) {
	values := url.Values{}
	values.Set("page", "3")
	values.Set("limit", "50")

	params, err := Parse(values)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if params.Page != 3 || params.Limit != 50 {
		t.Fatalf("unexpected params: %+v", params)
	}
}

func TestParseRejectsInvalidValues(t *testing.T) {
	cases := []struct {
		name  string
		page  string
		limit string
	}{
		{name: "non-integer page", page: "abc"},
		{name: "zero page", page: "0"},
		{name: "negative page", page: "-1"},
		{name: "non-integer limit", limit: "ten"},
		{name: "zero limit", limit: "0"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			values := url.Values{}
			if tc.page != "" {
				values.Set("page", tc.page)
			}
			if tc.limit != "" {
				values.Set("limit", tc.limit)
			}

			_, err := Parse(values)
			if !errors.Is(err, ErrInvalidParams) {
				t.Fatalf("expected ErrInvalidParams, got %v", err)
			}
		})
	}
}

func TestParseAllowsLargeLimit(t *testing.T) {
	values := url.Values{}
	values.Set("limit", "5000")

	params, err := Parse(values)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if params.Limit != 5000 {
		t.Fatalf("expected uncapped limit, got %d", params.Limit)
	}
}

func TestFromRequest(t *testing.T) {
	req := httptest.NewRequest("GET", "/api/v1/orders?page=2&limit=25", nil)

	params, err := FromRequest(req)
	if err != nil {
		t.Fatalf("from request: %v", err)
	}
	if params.Page != 2 || params.Limit != 25 {
		t.Fatalf("unexpected params: %+v", params)
	}
}

func TestOffset(t *testing.T) {
	cases := []struct {
		params Params
		want   int
	}{
		{Params{Page: 1, Limit: 10}, 0},
		{Params{Page: 2, Limit: 10}, 10},
		{Params{Page: 3, Limit: 25}, 50},
		{Params{Page: 0, Limit: 10}, 0},
	}
	for _, tc := range cases {
		if got := tc.params.Offset(); got != tc.want {
			t.Fatalf("offset for %+v: got %d, want %d", tc.params, got, tc.want)
		}
	}
}

func TestPageCount(t *testing.T) {
	cases := []struct {
		total int64
		limit int
		want  int
	}{
		{0, 10, 0},
		{1, 10, 1},
		{10, 10, 1},
		{11, 10, 2},
		{25, 10, 3},
	}
	for _, tc := range cases {
		params := Params{Page: 1, Limit: tc.limit}
		if got := params.PageCount(tc.total); got != tc.want {
			t.Fatalf("page count for total=%d limit=%d: got %d, want %d", tc.total, tc.limit, got, tc.want)
		}
	}
}
