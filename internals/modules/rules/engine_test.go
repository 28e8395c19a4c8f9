package rules

import (
	"net/http"
	"strings"
	"testing"
	"watchtower/internals/modules/probe"
)

func TestEvaluateStatusCode(t *testing.T) {
	res := probe.Result{Status: probe.StatusSuccess, StatusCode: 404}

	violations := Evaluate([]Rule{
		{Type: TypeStatusCode, Operator: OpEquals, Value: intp(200)},
	}, res)

	if len(violations) != 1 {
		t.Fatalf("want 1 violation, got %d", len(violations))
	}
	if !strings.Contains(violations[0], "200") || !strings.Contains(violations[0], "404") {
		t.Fatalf("violation should mention expected and actual code: %q", violations[0])
	}
}

func TestEvaluateCollectsAllViolations(t *testing.T) {
	res := probe.Result{
		Status:     probe.StatusSuccess,
		StatusCode: 500,
		Timing:     probe.Timing{TotalMs: 900},
	}

	violations := Evaluate([]Rule{
		{Type: TypeStatusCode, Operator: OpEquals, Value: intp(200)},
		{Type: TypeResponseTime, Operator: OpLessThan, Value: intp(500)},
	}, res)

	if len(violations) != 2 {
		t.Fatalf("every broken rule should be reported, got %d violations", len(violations))
	}
}

func TestEvaluateStatusCodeSets(t *testing.T) {
	res := probe.Result{StatusCode: 301}

	if v := Evaluate([]Rule{{Type: TypeStatusCode, Operator: OpIn, Values: []int64{200, 301}}}, res); len(v) != 0 {
		t.Fatalf("301 is in the allowed set, got %v", v)
	}
	if v := Evaluate([]Rule{{Type: TypeStatusCode, Operator: OpNotIn, Values: []int64{301}}}, res); len(v) != 1 {
		t.Fatalf("301 is in the forbidden set, want a violation")
	}
}

func TestEvaluateMalformedRuleWithoutValue(t *testing.T) {
	res := probe.Result{StatusCode: 200, Timing: probe.Timing{TotalMs: 100}}

	// a rule that dodged creation-time validation must report, not panic
	violations := Evaluate([]Rule{
		{Type: TypeStatusCode, Operator: OpEquals},
		{Type: TypeResponseTime, Operator: OpLessThan},
		{Type: TypeResponseSize, Operator: OpGreaterThan},
	}, res)

	if len(violations) != 3 {
		t.Fatalf("want 3 malformed-rule violations, got %v", violations)
	}
	for _, v := range violations {
		if !strings.Contains(v, "malformed") {
			t.Fatalf("violation should flag the rule as malformed: %q", v)
		}
	}
}

func TestEvaluateBodyContainsFailsClosedWithoutCapture(t *testing.T) {
	res := probe.Result{BodyCaptured: false}

	violations := Evaluate([]Rule{{Type: TypeBodyContains, Text: "ok"}}, res)
	if len(violations) != 1 {
		t.Fatal("contains must fail when the body was not captured")
	}
}

func TestEvaluateBodyNotContainsPassesOpenWithoutCapture(t *testing.T) {
	res := probe.Result{BodyCaptured: false}

	violations := Evaluate([]Rule{{Type: TypeBodyNotContains, Text: "error"}}, res)
	if len(violations) != 0 {
		t.Fatalf("not_contains must pass when the body was not captured, got %v", violations)
	}
}

func TestEvaluateBodyCaseSensitivity(t *testing.T) {
	res := probe.Result{
		BodyCaptured: true,
		BodySample:   []byte("Service OK"),
	}

	if v := Evaluate([]Rule{{Type: TypeBodyContains, Text: "service ok"}}, res); len(v) != 0 {
		t.Fatalf("default matching is case-insensitive, got %v", v)
	}
	if v := Evaluate([]Rule{{Type: TypeBodyContains, Text: "service ok", CaseSensitive: true}}, res); len(v) != 1 {
		t.Fatal("case-sensitive match should fail on different casing")
	}
}

func TestEvaluateHeaderRules(t *testing.T) {
	res := probe.Result{
		Headers: http.Header{"Content-Type": []string{"application/json; charset=utf-8"}},
	}

	if v := Evaluate([]Rule{{Type: TypeHeaderExists, Header: "Content-Type"}}, res); len(v) != 0 {
		t.Fatalf("header exists, got %v", v)
	}
	if v := Evaluate([]Rule{{Type: TypeHeaderExists, Header: "X-Request-Id"}}, res); len(v) != 1 {
		t.Fatal("missing header should violate")
	}
	if v := Evaluate([]Rule{{Type: TypeHeaderValue, Operator: OpContains, Header: "Content-Type", Text: "json"}}, res); len(v) != 0 {
		t.Fatalf("contains should match substring, got %v", v)
	}
	if v := Evaluate([]Rule{{Type: TypeHeaderValue, Operator: OpEquals, Header: "Content-Type", Text: "application/json"}}, res); len(v) != 1 {
		t.Fatal("equals should require the exact value")
	}
}

func TestEvaluateResponseSize(t *testing.T) {
	res := probe.Result{BodySizeBytes: 2048}

	if v := Evaluate([]Rule{{Type: TypeResponseSize, Operator: OpLessThan, Value: intp(1024)}}, res); len(v) != 1 {
		t.Fatal("2048 bytes exceeds a 1024 byte ceiling")
	}
	if v := Evaluate([]Rule{{Type: TypeResponseSize, Operator: OpGreaterThan, Value: intp(1024)}}, res); len(v) != 0 {
		t.Fatalf("2048 bytes clears a 1024 byte floor, got %v", v)
	}
}

func TestEvaluateUnknownTypeViolates(t *testing.T) {
	violations := Evaluate([]Rule{{Type: "certificate_expiry"}}, probe.Result{})
	if len(violations) != 1 {
		t.Fatal("unknown rule type must surface as a violation, not pass silently")
	}
}
