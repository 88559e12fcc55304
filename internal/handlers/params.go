package handlers

import (
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

type limitParams struct {
	Limit int
}

type pageParams struct {
	Limit  int
	Offset int
}

type browseParams struct {
	Category string   `validate:"max=128"`
	Tags     []string `validate:"max=20,dive,max=64"`
	Limit    int
	Offset   int
}

type searchParams struct {
	Q      string   `validate:"max=256"`
	Type   string   `validate:"max=16"`
	Tags   []string `validate:"max=20,dive,max=64"`
	Limit  int
	Offset int
}

// queryInt parses an optional integer parameter. Absent means 0.
func queryInt(q url.Values, name string) (int, error) {
	raw := strings.TrimSpace(q.Get(name))
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer", name)
	}
	return n, nil
}

// queryList accepts both repeated parameters and comma-separated values.
func queryList(q url.Values, name string) []string {
	var out []string
	for _, v := range q[name] {
		for _, part := range strings.Split(v, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}

func parseParams(q url.Values, dst interface{}) error {
	var err error
	switch p := dst.(type) {
	case *limitParams:
		p.Limit, err = queryInt(q, "limit")
	case *pageParams:
		if p.Limit, err = queryInt(q, "limit"); err == nil {
			p.Offset, err = queryInt(q, "offset")
		}
	case *browseParams:
		p.Category = strings.TrimSpace(q.Get("categoryId"))
		if p.Category == "" {
			p.Category = strings.TrimSpace(q.Get("category"))
		}
		p.Tags = queryList(q, "tags")
		if p.Limit, err = queryInt(q, "limit"); err == nil {
			p.Offset, err = queryInt(q, "offset")
		}
	case *searchParams:
		p.Q = q.Get("q")
		p.Type = q.Get("type")
		p.Tags = queryList(q, "tags")
		if p.Limit, err = queryInt(q, "limit"); err == nil {
			p.Offset, err = queryInt(q, "offset")
		}
	default:
		return fmt.Errorf("unsupported parameter type %T", dst)
	}
	if err != nil {
		return err
	}
	return validate.Struct(dst)
}

// bind parses the query string into dst, answering 400 on failure.
func (h *Handlers) bind(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	if err := parseParams(r.URL.Query(), dst); err != nil {
		h.writeError(w, http.StatusBadRequest, err.Error())
		return false
	}
	return true
}
