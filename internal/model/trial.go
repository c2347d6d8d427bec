package model

import "time"

// AttemptRecord captures one search+judge cycle within a trial. Candidates
// are already de-duplicated against every URL tried earlier in the trial.
type AttemptRecord struct {
	AttemptNumber int          `json:"attempt_number"`
	Query         string       `json:"query"`
	Candidates    []Candidate  `json:"candidates"`
	Verdict       JudgeVerdict `json:"verdict"`
}

// TrialResult is the per-company outcome of one full resolution trial.
// FinalURL equals the URL of the last accepted verdict across all attempts,
// or is empty when every attempt exhausted without acceptance.
type TrialResult struct {
	ID          string          `json:"id"`
	Company     CompanyRecord   `json:"company"`
	Attempts    []AttemptRecord `json:"attempts"`
	FinalURL    string          `json:"final_url,omitempty"`
	FinalMethod Method          `json:"final_method"`
	StartedAt   time.Time       `json:"started_at"`
	FinishedAt  time.Time       `json:"finished_at"`
}

// Resolved reports whether the trial ended with an accepted website.
func (t *TrialResult) Resolved() bool {
	return t.FinalURL != ""
}
