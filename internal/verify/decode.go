package verify

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// decodeResult parses the model's verdict. Models wrap their JSON in prose or
// markdown fences often enough that we slice from the first '{' to the last
// '}' before unmarshalling; that covers fenced, bare, and chatty outputs
// alike. A verdict with an unknown decision or an out-of-range confidence is
// rejected rather than repaired.
func decodeResult(content string) (Result, error) {
	start := strings.IndexByte(content, '{')
	end := strings.LastIndexByte(content, '}')
	if start < 0 || end <= start {
		return Result{}, errors.New("no JSON object in model output")
	}

	var result Result
	if err := json.Unmarshal([]byte(content[start:end+1]), &result); err != nil {
		return Result{}, fmt.Errorf("decoding verdict: %w", err)
	}

	switch result.Decision {
	case DecisionTruePositive, DecisionFalsePositive, DecisionUncertain:
	default:
		return Result{}, fmt.Errorf("invalid decision %q", result.Decision)
	}
	if result.Confidence < 0 || result.Confidence > 1 {
		return Result{}, fmt.Errorf("confidence %v out of range", result.Confidence)
	}

	result.Severity = strings.ToLower(strings.TrimSpace(result.Severity))
	return result, nil
}
