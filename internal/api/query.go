package api

import (
	"errors"
	"fmt"
	"math"
	"net/url"
	"strconv"
	"strings"
)

var errValidation = errors.New("invalid query")

func parseCoord(q url.Values, name string, limit float64) (float64, error) {
	s := strings.TrimSpace(q.Get(name))
	if s == "" {
		return 0, fmt.Errorf("%w: %s is required", errValidation, name)
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("%w: %s must be a number", errValidation, name)
	}
	if v < -limit || v > limit {
		return 0, fmt.Errorf("%w: %s must be within [-%g, %g]", errValidation, name, limit, limit)
	}
	return v, nil
}

// parseLatLon：lat ∈ [-90, 90]，lon ∈ [-180, 180]
func parseLatLon(q url.Values) (float64, float64, error) {
	lat, err := parseCoord(q, "lat", 90)
	if err != nil {
		return 0, 0, err
	}
	lon, err := parseCoord(q, "lon", 180)
	if err != nil {
		return 0, 0, err
	}
	return lat, lon, nil
}

const (
	defaultSearchLimit = 10
	maxSearchLimit     = 100
)

func parseLimit(q url.Values) (int, error) {
	s := q.Get("limit")
	if s == "" {
		return defaultSearchLimit, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 1 {
		return 0, fmt.Errorf("%w: limit must be a positive integer", errValidation)
	}
	if n > maxSearchLimit {
		n = maxSearchLimit
	}
	return n, nil
}
