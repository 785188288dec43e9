package main

import "strings"

// Accuracy is an advisory score for a generated answer. It never gates the
// response; it is logged and, on the legacy endpoint, returned as metadata.
type Accuracy struct {
	Score    int             `json:"accuracy_score"`
	Criteria map[string]bool `json:"criteria_met"`
	Rating   string          `json:"overall_rating"`
}

var relevantKeywords = []string{"coverage", "policy", "insurance", "claim", "benefit", "limit"}
var policyReferences = []string{"section", "policy", "clause", "act"}
var structureMarkers = []string{"**", "---", "•", "-"}

// EvaluateAccuracy scores an answer against a fixed five-criterion rubric,
// 20 points each. The question is accepted for interface symmetry only.
func EvaluateAccuracy(question, answer string) Accuracy {
	lower := strings.ToLower(answer)
	criteria := map[string]bool{
		"policy_references":      containsAny(lower, policyReferences),
		"specific_numbers":       strings.ContainsAny(answer, "0123456789"),
		"comprehensive_coverage": len(strings.Fields(answer)) > 50,
		"clear_structure":        containsAny(answer, structureMarkers),
		"relevant_content":       containsAny(lower, relevantKeywords),
	}

	score := 0
	for _, met := range criteria {
		if met {
			score += 20
		}
	}

	rating := "Low"
	switch {
	case score >= 80:
		rating = "High"
	case score >= 60:
		rating = "Medium"
	}

	return Accuracy{Score: score, Criteria: criteria, Rating: rating}
}

// EvaluateResponse classifies an answer as a likely yes/no/uncertain. Used
// by the legacy single-question endpoint.
func EvaluateResponse(question, answer string) string {
	lower := strings.ToLower(answer)
	switch {
	case containsAny(lower, []string{"yes", "covered", "approved"}):
		return "Likely Yes"
	case containsAny(lower, []string{"no", "denied", "not covered"}):
		return "Likely No"
	default:
		return "Uncertain"
	}
}

func containsAny(s string, subs []string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}

	return false
}
