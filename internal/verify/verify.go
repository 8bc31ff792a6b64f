// Package verify triages SAST findings with an LLM: given a finding and its
// extracted code context, a provider judges whether the alert is a true
// positive, a false positive, or uncertain. Providers are thin adapters over
// the vendor SDKs; the Verifier layers on verdict caching and bounded
// concurrency, and guarantees that verification never fails a scan. Any
// provider or decode error degrades to an uncertain verdict.
package verify

// Decisions a verdict can carry.
const (
	DecisionTruePositive  = "true_positive"
	DecisionFalsePositive = "false_positive"
	DecisionUncertain     = "uncertain"
)

// Request carries one finding's evidence to the model. CodeContext is the
// sanitized context region; FunctionName and ClassName are optional hints
// from context extraction. PriorVerdicts are one-line summaries of verdicts
// on similar findings, surfaced by the memory store; they feed the prompt
// and scope the verdict cache key.
type Request struct {
	Tool          string
	RuleID        string
	Severity      string
	Description   string
	CodeContext   string
	FunctionName  string
	ClassName     string
	FilePath      string
	LineNumber    int
	PriorVerdicts []string
}

// Result is the model's structured verdict for one finding. Decision and
// Confidence are always set; the remaining fields are filled when the model
// has something to say. Cached marks verdicts served from the verdict cache;
// Model records which provider/model produced the verdict.
type Result struct {
	Decision            string   `json:"decision"`
	Confidence          float64  `json:"confidence"`
	Reasoning           string   `json:"reasoning"`
	Severity            string   `json:"severity,omitempty"`
	Exploitability      string   `json:"exploitability,omitempty"`
	Remediation         string   `json:"remediation,omitempty"`
	FalsePositiveReason string   `json:"false_positive_reason,omitempty"`
	CWEIDs              []string `json:"cwe_ids,omitempty"`
	Model               string   `json:"model,omitempty"`
	Cached              bool     `json:"cached,omitempty"`
}

// Uncertain builds the degraded verdict used when verification cannot run.
func Uncertain(reasoning string) Result {
	return Result{
		Decision:   DecisionUncertain,
		Confidence: 0.0,
		Reasoning:  reasoning,
	}
}
