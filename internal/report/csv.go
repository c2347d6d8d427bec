package report

import (
	"encoding/csv"
	"io"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/harborline/resolve-cli/internal/model"
)

// WriteCSV exports trials as a flat CSV, one row per trial.
func WriteCSV(w io.Writer, trials []model.TrialResult) error {
	cw := csv.NewWriter(w)
	header := []string{
		"company_number", "company_name", "postcode",
		"resolved", "final_url", "final_method", "attempts",
		"ground_truth_url", "correct",
	}
	if err := cw.Write(header); err != nil {
		return eris.Wrap(err, "report: write csv header")
	}

	for i := range trials {
		t := &trials[i]
		correct := ""
		if t.Company.GroundTruthURL != "" {
			correct = strconv.FormatBool(t.Resolved() && sameHost(t.FinalURL, t.Company.GroundTruthURL))
		}
		row := []string{
			t.Company.RegistrationNumber,
			t.Company.Name,
			t.Company.Postcode,
			strconv.FormatBool(t.Resolved()),
			t.FinalURL,
			string(t.FinalMethod),
			strconv.Itoa(len(t.Attempts)),
			t.Company.GroundTruthURL,
			correct,
		}
		if err := cw.Write(row); err != nil {
			return eris.Wrap(err, "report: write csv row")
		}
	}

	cw.Flush()
	return eris.Wrap(cw.Error(), "report: flush csv")
}

// FormatSummary renders a run summary as aligned plain text for stdout.
func FormatSummary(s Summary) string {
	var b strings.Builder
	b.WriteString("trials:        " + strconv.Itoa(s.Total) + "\n")
	b.WriteString("resolved:      " + strconv.Itoa(s.Resolved) +
		" (" + strconv.FormatFloat(100*s.ResolutionRate(), 'f', 1, 64) + "%)\n")
	for _, m := range []model.Method{model.MethodString, model.MethodContent, model.MethodSemantic, model.MethodNone} {
		if n := s.ByMethod[m]; n > 0 {
			b.WriteString("  " + string(m) + ":" + strings.Repeat(" ", 12-len(m)) + strconv.Itoa(n) + "\n")
		}
	}
	if s.WithGroundTruth > 0 {
		b.WriteString("scored:        " + strconv.Itoa(s.WithGroundTruth) + "\n")
		b.WriteString("correct:       " + strconv.Itoa(s.Correct) +
			" (" + strconv.FormatFloat(100*s.Accuracy(), 'f', 1, 64) + "%)\n")
		b.WriteString("strict:        " + strconv.Itoa(s.StrictCorrect) + "\n")
	}
	return b.String()
}
