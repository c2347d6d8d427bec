package report

import (
	"net/url"
	"strings"

	"github.com/harborline/resolve-cli/internal/model"
)

// Summary aggregates a run's outcomes. Accuracy counters only consider
// trials whose companies carry a ground-truth URL.
type Summary struct {
	Total    int
	Resolved int
	ByMethod map[model.Method]int

	// WithGroundTruth is the number of trials that can be scored.
	WithGroundTruth int
	// Correct counts resolved trials whose final URL points at the
	// ground-truth site (host comparison, www and scheme ignored).
	Correct int
	// StrictCorrect additionally requires the resolved URL and ground truth
	// to agree on the scheme, the stricter column used when comparing runs.
	StrictCorrect int
}

// Accuracy is Correct over WithGroundTruth, zero when nothing is scorable.
func (s Summary) Accuracy() float64 {
	if s.WithGroundTruth == 0 {
		return 0
	}
	return float64(s.Correct) / float64(s.WithGroundTruth)
}

// ResolutionRate is Resolved over Total.
func (s Summary) ResolutionRate() float64 {
	if s.Total == 0 {
		return 0
	}
	return float64(s.Resolved) / float64(s.Total)
}

// Summarize scores a run's trials.
func Summarize(trials []model.TrialResult) Summary {
	s := Summary{ByMethod: make(map[model.Method]int)}
	for i := range trials {
		t := &trials[i]
		s.Total++
		if t.Resolved() {
			s.Resolved++
		}
		s.ByMethod[t.FinalMethod]++

		truth := t.Company.GroundTruthURL
		if truth == "" {
			continue
		}
		s.WithGroundTruth++
		if !t.Resolved() {
			continue
		}
		if sameHost(t.FinalURL, truth) {
			s.Correct++
			if sameScheme(t.FinalURL, truth) {
				s.StrictCorrect++
			}
		}
	}
	return s
}

func sameHost(a, b string) bool {
	ha, hb := hostOf(a), hostOf(b)
	return ha != "" && ha == hb
}

func sameScheme(a, b string) bool {
	ua, errA := url.Parse(a)
	ub, errB := url.Parse(b)
	return errA == nil && errB == nil && ua.Scheme == ub.Scheme
}

func hostOf(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return ""
	}
	return strings.TrimPrefix(strings.ToLower(u.Hostname()), "www.")
}
