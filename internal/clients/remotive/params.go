package remotive

import (
	"github.com/pkg/errors"
	"net/url"
	"strconv"
	"strings"
)

var ErrEmptySearch = errors.New("search text and category are both empty")

type SearchParameters struct {
	Search   string
	Category string
	Limit    int
}

func (p SearchParameters) Validate() error {
	if strings.TrimSpace(p.Search) == "" && strings.TrimSpace(p.Category) == "" {
		return ErrEmptySearch
	}
	if p.Limit < 0 {
		return errors.New("limit must not be negative")
	}
	return nil
}

func (p SearchParameters) ToUrlParams() url.Values {
	params := url.Values{}
	if p.Search != "" {
		params.Add("search", p.Search)
	}
	if p.Category != "" {
		params.Add("category", p.Category)
	}
	if p.Limit > 0 {
		params.Add("limit", strconv.Itoa(p.Limit))
	}
	return params
}
