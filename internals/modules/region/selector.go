package region

import "slices"

// SelectTargets picks execution locations for one job. Pure function over
// the wanted region set and the last recorded health table, so routing is
// unit-testable without network access.
//
// Local-mode monitors (and global monitors with an empty region set) run
// in-process. Global monitors run once per wanted region that is enabled and
// healthy; when none qualify, the job falls back to a single degraded local
// run rather than going dark.
func SelectTargets(global bool, wanted []string, regions []Region) []Target {

	if !global || len(wanted) == 0 {
		return []Target{{Region: LocalCode}}
	}

	targets := make([]Target, 0, len(wanted))
	for _, r := range regions {
		if r.Code == LocalCode {
			continue
		}
		if !r.Enabled || !r.Healthy {
			continue
		}
		if !slices.Contains(wanted, r.Code) {
			continue
		}
		targets = append(targets, Target{Region: r.Code})
	}

	if len(targets) == 0 {
		return []Target{{Region: LocalCode, Degraded: true}}
	}

	return targets
}
