package rules

import (
	"fmt"
)

type RuleType string

const (
	TypeStatusCode   RuleType = "status_code"
	TypeResponseTime RuleType = "response_time"

	// Body rules inspect only the retained sample, the first 64 KiB of the
	// response. A marker past that window counts as absent: contains reports
	// a violation, not_contains passes.
	TypeBodyContains    RuleType = "response_body_contains"
	TypeBodyNotContains RuleType = "response_body_not_contains"
	TypeHeaderExists    RuleType = "header_exists"
	TypeHeaderValue     RuleType = "header_value"
	TypeResponseSize    RuleType = "response_size"
)

type Operator string

const (
	OpEquals      Operator = "equals"
	OpNotEquals   Operator = "not_equals"
	OpIn          Operator = "in"
	OpNotIn       Operator = "not_in"
	OpLessThan    Operator = "less_than"
	OpGreaterThan Operator = "greater_than"
	OpContains    Operator = "contains"
)

// Rule is a closed tagged union: Type decides which operator and value
// fields are legal, enforced by Validate at creation time. Evaluation
// never has to guess about shapes.
type Rule struct {
	Type          RuleType `json:"type"`
	Operator      Operator `json:"operator,omitempty"`
	Value         *int64   `json:"value,omitempty"`          // status code, ms threshold, byte threshold
	Values        []int64  `json:"values,omitempty"`         // status code sets for in/not_in
	Text          string   `json:"text,omitempty"`           // body marker or header value
	Header        string   `json:"header,omitempty"`         // header name
	CaseSensitive bool     `json:"case_sensitive,omitempty"` // body rules only
}

// Validate rejects invalid type/operator/value combinations. Invalid rules
// never reach the evaluation path.
func (r Rule) Validate() error {
	switch r.Type {

	case TypeStatusCode:
		switch r.Operator {
		case OpEquals, OpNotEquals:
			if r.Value == nil || *r.Value < 100 || *r.Value > 599 {
				return fmt.Errorf("status_code rule with operator %q needs a value between 100 and 599", r.Operator)
			}
		case OpIn, OpNotIn:
			if len(r.Values) == 0 {
				return fmt.Errorf("status_code rule with operator %q needs a non-empty value set", r.Operator)
			}
			for _, v := range r.Values {
				if v < 100 || v > 599 {
					return fmt.Errorf("status_code rule value %d out of range", v)
				}
			}
		default:
			return fmt.Errorf("status_code rule does not support operator %q", r.Operator)
		}

	case TypeResponseTime:
		if r.Operator != OpLessThan && r.Operator != OpGreaterThan {
			return fmt.Errorf("response_time rule does not support operator %q", r.Operator)
		}
		if r.Value == nil || *r.Value <= 0 {
			return fmt.Errorf("response_time rule needs a positive millisecond threshold")
		}

	case TypeBodyContains, TypeBodyNotContains:
		if r.Operator != "" {
			return fmt.Errorf("%s rule takes no operator", r.Type)
		}
		if r.Text == "" {
			return fmt.Errorf("%s rule needs a non-empty text marker", r.Type)
		}

	case TypeHeaderExists:
		if r.Operator != "" {
			return fmt.Errorf("header_exists rule takes no operator")
		}
		if r.Header == "" {
			return fmt.Errorf("header_exists rule needs a header name")
		}

	case TypeHeaderValue:
		if r.Operator != OpEquals && r.Operator != OpContains {
			return fmt.Errorf("header_value rule does not support operator %q", r.Operator)
		}
		if r.Header == "" {
			return fmt.Errorf("header_value rule needs a header name")
		}
		if r.Text == "" {
			return fmt.Errorf("header_value rule needs a non-empty expected value")
		}

	case TypeResponseSize:
		if r.Operator != OpLessThan && r.Operator != OpGreaterThan {
			return fmt.Errorf("response_size rule does not support operator %q", r.Operator)
		}
		if r.Value == nil || *r.Value <= 0 {
			return fmt.Errorf("response_size rule needs a positive byte threshold")
		}

	default:
		return fmt.Errorf("unknown validation rule type %q", r.Type)
	}

	return nil
}

func ValidateAll(rs []Rule) error {
	for i, r := range rs {
		if err := r.Validate(); err != nil {
			return fmt.Errorf("rule %d: %w", i, err)
		}
	}
	return nil
}
