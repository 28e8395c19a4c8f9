package executor

import (
	"watchtower/internals/modules/probe"
)

// TargetResult is the outcome of one check on one execution location.
// A job produces one of these per selected target.
type TargetResult struct {
	Region     string
	Degraded   bool
	Result     probe.Result
	Violations []string
}

// Success is true only when the transport succeeded and every validation
// rule passed.
func (tr TargetResult) Success() bool {
	return tr.Result.Status == probe.StatusSuccess && len(tr.Violations) == 0
}
