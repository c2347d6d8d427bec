package model

// CompanyRecord is the identity tuple for one registered company, created
// once per trial from a registry dataset row and never mutated.
type CompanyRecord struct {
	Name               string   `json:"name"`
	RegistrationNumber string   `json:"registration_number"`
	Postcode           string   `json:"postcode"`
	SICCodes           []string `json:"sic_codes,omitempty"`
	// GroundTruthURL is populated only in evaluation mode, when the dataset
	// carries a known-correct website for accuracy scoring.
	GroundTruthURL string `json:"ground_truth_url,omitempty"`
}

// Candidate is a single web-search result under consideration as the
// company's official website. Content is empty until fetched.
type Candidate struct {
	Rank    int    `json:"rank"`
	URL     string `json:"url"`
	Title   string `json:"title"`
	Content string `json:"content,omitempty"`
}

// Method identifies which signal produced an acceptance.
type Method string

const (
	// MethodString is a fingerprint match between the normalized company
	// name and the candidate's domain fragment.
	MethodString Method = "string"
	// MethodContent is an identity-evidence match in the page content.
	MethodContent Method = "content"
	// MethodSemantic is an acceptance by the external semantic judge.
	MethodSemantic Method = "semantic"
	// MethodNone marks a rejection or an unresolved trial.
	MethodNone Method = "none"
)

// JudgeVerdict is the outcome of judging one candidate set.
// URL is non-empty if and only if Accepted is true.
type JudgeVerdict struct {
	Accepted  bool   `json:"accepted"`
	URL       string `json:"url,omitempty"`
	Method    Method `json:"method"`
	Reasoning string `json:"reasoning,omitempty"`
}
