package verify

import (
	"fmt"
	"strings"
)

const codeFence = "```"

// systemPrompt frames the model as a reviewer of existing alerts, not a bug
// hunter, and pins the JSON shape the decoder expects.
const systemPrompt = `You are a senior security engineer reviewing code for vulnerabilities.

Your task is to verify whether a SAST (Static Application Security Testing) finding is a TRUE POSITIVE or FALSE POSITIVE.

CRITICAL INSTRUCTIONS:
1. You are NOT finding new bugs - you are VERIFYING an existing SAST alert
2. Consider the FULL CONTEXT: function logic, variable names, comments, imports
3. Distinguish between:
   - Test code vs. production code
   - Internal utilities vs. exposed APIs
   - Sanitized input vs. user-controlled input
   - Intentional design vs. security flaw

DECISION CRITERIA:
- TRUE POSITIVE: The vulnerability is real and exploitable in this context
- FALSE POSITIVE: The SAST tool flagged safe code (e.g., test code, sanitized input, internal-only)
- UNCERTAIN: Not enough context to determine (rare - use sparingly)

Be conservative: if the code LOOKS vulnerable but you see sanitization or validation, mark as FALSE POSITIVE.

Respond with a single JSON object and nothing else:
{
  "decision": "true_positive" | "false_positive" | "uncertain",
  "confidence": <number between 0.0 and 1.0>,
  "reasoning": "<explanation of the decision, 10-500 characters>",
  "severity": "critical" | "high" | "medium" | "low" | "info" (only if different from the SAST severity),
  "exploitability": "<how the vulnerability could be exploited>" (true positives only),
  "remediation": "<suggested fix>" (true positives only),
  "false_positive_reason": "<why the tool was wrong>" (false positives only),
  "cwe_ids": ["CWE-89"] (relevant CWE IDs, if known)
}`

// fewShotExamples prime the model with the judgment calls that matter most:
// test code, genuinely weak crypto, and validated input.
const fewShotExamples = `**Example 1: FALSE POSITIVE (Test Code)**

SAST Finding: B101 - assert_used
Code Context:
` + codeFence + `python
def test_user_authentication():
    user = authenticate("test_user", "test_pass")
    assert user is not None
    assert user.role == "admin"
` + codeFence + `

Decision: FALSE POSITIVE
Reasoning: This is test code (function name starts with 'test_'). Assert statements are appropriate in tests.

---

**Example 2: TRUE POSITIVE (Weak Crypto)**

SAST Finding: B303 - md5 usage
Code Context:
` + codeFence + `python
def hash_password(password):
    """Hash user password for storage"""
    return hashlib.md5(password.encode()).hexdigest()
` + codeFence + `

Decision: TRUE POSITIVE
Reasoning: MD5 is used for password hashing. This is cryptographically weak and vulnerable to rainbow table attacks. Should use bcrypt or Argon2.

---

**Example 3: FALSE POSITIVE (Sanitized Input)**

SAST Finding: B602 - subprocess with shell=True
Code Context:
` + codeFence + `python
def run_internal_script(script_name):
    # Whitelist of allowed scripts
    ALLOWED_SCRIPTS = ['backup.sh', 'cleanup.sh']
    if script_name not in ALLOWED_SCRIPTS:
        raise ValueError("Invalid script")
    subprocess.run(f"./scripts/{script_name}", shell=True)
` + codeFence + `

Decision: FALSE POSITIVE
Reasoning: Input is validated against a whitelist before use. Not user-controlled. Internal utility function.`

// findingPrompt renders the verification request for a single finding.
func findingPrompt(req Request) string {
	parts := []string{
		"**SAST Finding to Verify:**",
		"- Tool: " + req.Tool,
		"- Rule: " + req.RuleID,
		"- Severity: " + req.Severity,
		"- Description: " + req.Description,
	}

	if req.FilePath != "" {
		parts = append(parts, fmt.Sprintf("- Location: %s:%d", req.FilePath, req.LineNumber))
	}
	if req.FunctionName != "" {
		parts = append(parts, "- Function: "+req.FunctionName)
	}
	if req.ClassName != "" {
		parts = append(parts, "- Class: "+req.ClassName)
	}

	parts = append(parts,
		"",
		"**Code Context:**",
		codeFence,
		req.CodeContext,
		codeFence,
	)

	if len(req.PriorVerdicts) > 0 {
		parts = append(parts, "", "**Prior Verdicts on Similar Findings:**")
		for _, verdict := range req.PriorVerdicts {
			parts = append(parts, "- "+verdict)
		}
	}

	parts = append(parts,
		"",
		"**Your Task:**",
		"Analyze the code context and determine if this SAST finding is a TRUE POSITIVE or FALSE POSITIVE.",
		"",
		"Consider:",
		"1. Is this test code or production code?",
		"2. Is the input sanitized or validated before use?",
		"3. Is this function exposed to users or internal-only?",
		"4. Are there mitigating controls in place?",
		"5. Does the variable/function naming suggest intentional design?",
		"",
		"Provide your verification decision with reasoning.",
	)

	return strings.Join(parts, "\n")
}

// userPrompt is the full user turn: few-shot examples followed by the finding.
func userPrompt(req Request) string {
	return fewShotExamples + "\n\n---\n\n" + findingPrompt(req)
}
