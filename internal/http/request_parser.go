// This file holds the helpers that turn query strings and JSON bodies into
// handler inputs.

package http

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"hotelpro/internal/core"
)

const maxBodyBytes = 1 << 20

// MonthParams holds parsed year/month values from request parameters.
type MonthParams struct {
	Year  int
	Month time.Month
}

// ParseMonthParams reads year and month (1-12) from the query, defaulting
// to the UTC month of now. Out of range values are errors.
func ParseMonthParams(query url.Values, now time.Time) (MonthParams, error) {
	now = now.UTC()
	year, err := parseYear(query, now)
	if err != nil {
		return MonthParams{}, err
	}
	params := MonthParams{Year: year, Month: now.Month()}
	if v := strings.TrimSpace(query.Get("month")); v != "" {
		m, err := strconv.Atoi(v)
		if err != nil || m < 1 || m > 12 {
			return MonthParams{}, fmt.Errorf("invalid month %q: must be 1-12", v)
		}
		params.Month = time.Month(m)
	}
	return params, nil
}

func parseYear(query url.Values, now time.Time) (int, error) {
	v := strings.TrimSpace(query.Get("year"))
	if v == "" {
		return now.UTC().Year(), nil
	}
	y, err := strconv.Atoi(v)
	if err != nil || y < 1900 || y > 9999 {
		return 0, fmt.Errorf("invalid year %q", v)
	}
	return y, nil
}

// parseDay reads a YYYY-MM-DD query parameter, defaulting to today when
// fallback is set.
func parseDay(query url.Values, key string, now time.Time, fallback bool) (string, error) {
	v := strings.TrimSpace(query.Get(key))
	if v == "" {
		if fallback {
			return core.Today(now), nil
		}
		return "", nil
	}
	if !core.IsDay(v) {
		return "", fmt.Errorf("invalid %s %q: want YYYY-MM-DD", key, v)
	}
	return v, nil
}

// decodeJSON reads a single JSON object into dst, rejecting unknown fields
// and bodies over maxBodyBytes.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		var maxErr *http.MaxBytesError
		switch {
		case errors.Is(err, io.EOF):
			return errors.New("request body is empty")
		case errors.As(err, &maxErr):
			return fmt.Errorf("request body exceeds %d bytes", maxErr.Limit)
		default:
			return fmt.Errorf("malformed JSON: %w", err)
		}
	}
	if dec.More() {
		return errors.New("request body must hold a single JSON object")
	}
	return nil
}

// Amount accepts a JSON number or string and defers parsing to
// core.ParseAmount, so "12,50" and 12.5 are equivalent.
type Amount string

func (a *Amount) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*a = Amount(s)
		return nil
	}
	if bytes.Equal(data, []byte("null")) {
		*a = ""
		return nil
	}
	*a = Amount(data)
	return nil
}

func (a Amount) Decimal() (decimal.Decimal, error) {
	return core.ParseAmount(string(a))
}

// sanitizeInput removes control characters except tab and newlines, and
// trims whitespace.
func sanitizeInput(s string) string {
	s = strings.TrimSpace(s)
	return strings.Map(func(r rune) rune {
		if r < 32 && r != 9 && r != 10 && r != 13 {
			return -1
		}
		return r
	}, s)
}
