package rules

import (
	"fmt"
	"slices"
	"strings"
	"watchtower/internals/modules/probe"
)

// Evaluate runs every rule in order against the raw check result and returns
// the full violation list, so the user sees every broken expectation in one
// pass. Pure function: no I/O, no state.
func Evaluate(rs []Rule, res probe.Result) []string {
	var violations []string

	for _, r := range rs {
		if v := evaluateOne(r, res); v != "" {
			violations = append(violations, v)
		}
	}

	return violations
}

func evaluateOne(r Rule, res probe.Result) string {
	switch r.Type {

	case TypeStatusCode:
		return evaluateStatusCode(r, res.StatusCode)

	case TypeResponseTime:
		return evaluateThreshold(r, res.Timing.TotalMs, "response time", "ms")

	case TypeBodyContains:
		// fail closed: an uncaptured body cannot prove the marker is present
		if !res.BodyCaptured {
			return fmt.Sprintf("response body was not captured, cannot verify it contains %q", r.Text)
		}
		if !bodyContains(res.BodySample, r.Text, r.CaseSensitive) {
			return fmt.Sprintf("response body does not contain %q", r.Text)
		}

	case TypeBodyNotContains:
		// pass open: an uncaptured body cannot contain the marker
		if !res.BodyCaptured {
			return ""
		}
		if bodyContains(res.BodySample, r.Text, r.CaseSensitive) {
			return fmt.Sprintf("response body contains forbidden text %q", r.Text)
		}

	case TypeHeaderExists:
		if res.Headers == nil || len(res.Headers.Values(r.Header)) == 0 {
			return fmt.Sprintf("expected header %q is missing", r.Header)
		}

	case TypeHeaderValue:
		if res.Headers == nil || len(res.Headers.Values(r.Header)) == 0 {
			return fmt.Sprintf("expected header %q is missing", r.Header)
		}
		got := res.Headers.Get(r.Header)
		switch r.Operator {
		case OpEquals:
			if got != r.Text {
				return fmt.Sprintf("header %q is %q, expected %q", r.Header, got, r.Text)
			}
		case OpContains:
			if !strings.Contains(got, r.Text) {
				return fmt.Sprintf("header %q is %q, expected it to contain %q", r.Header, got, r.Text)
			}
		}

	case TypeResponseSize:
		return evaluateThreshold(r, res.BodySizeBytes, "response size", "bytes")

	default:
		return fmt.Sprintf("unknown validation rule type %q", r.Type)
	}

	return ""
}

func evaluateStatusCode(r Rule, got int) string {
	code := int64(got)

	if (r.Operator == OpEquals || r.Operator == OpNotEquals) && r.Value == nil {
		return fmt.Sprintf("malformed status_code rule: operator %q without a value", r.Operator)
	}

	switch r.Operator {
	case OpEquals:
		if code != *r.Value {
			return fmt.Sprintf("expected status code %d, got %d", *r.Value, got)
		}
	case OpNotEquals:
		if code == *r.Value {
			return fmt.Sprintf("status code must not be %d", *r.Value)
		}
	case OpIn:
		if !slices.Contains(r.Values, code) {
			return fmt.Sprintf("status code %d is not in the allowed set %v", got, r.Values)
		}
	case OpNotIn:
		if slices.Contains(r.Values, code) {
			return fmt.Sprintf("status code %d is in the forbidden set %v", got, r.Values)
		}
	}

	return ""
}

func evaluateThreshold(r Rule, got int64, what, unit string) string {
	if r.Value == nil {
		return fmt.Sprintf("malformed %s rule: operator %q without a value", what, r.Operator)
	}

	switch r.Operator {
	case OpLessThan:
		if got >= *r.Value {
			return fmt.Sprintf("%s %d%s exceeds threshold %d%s", what, got, unit, *r.Value, unit)
		}
	case OpGreaterThan:
		if got <= *r.Value {
			return fmt.Sprintf("%s %d%s is below threshold %d%s", what, got, unit, *r.Value, unit)
		}
	}
	return ""
}

func bodyContains(sample []byte, text string, caseSensitive bool) bool {
	body := string(sample)
	if caseSensitive {
		return strings.Contains(body, text)
	}
	return strings.Contains(strings.ToLower(body), strings.ToLower(text))
}
