package main

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func Test_EvaluateAccuracy_Empty(t *testing.T) {
	acc := EvaluateAccuracy("Does it cover knee surgery?", "")

	assert.Equal(t, 0, acc.Score)
	assert.Equal(t, "Low", acc.Rating)
	for name, met := range acc.Criteria {
		assert.False(t, met, name)
	}
}

func Test_EvaluateAccuracy_FullMarks(t *testing.T) {
	answer := "- The policy covers knee surgery after 24 months. " +
		strings.Repeat("Additional detail about the coverage terms. ", 10)

	acc := EvaluateAccuracy("Does it cover knee surgery?", answer)

	assert.Equal(t, 100, acc.Score)
	assert.Equal(t, "High", acc.Rating)
}

func Test_EvaluateAccuracy_Partial(t *testing.T) {
	// Digits and a policy reference only: 40 points.
	acc := EvaluateAccuracy("q", "See section 4.2")

	assert.Equal(t, 40, acc.Score)
	assert.Equal(t, "Low", acc.Rating)
	assert.True(t, acc.Criteria["policy_references"])
	assert.True(t, acc.Criteria["specific_numbers"])
	assert.False(t, acc.Criteria["comprehensive_coverage"])
}

func Test_EvaluateResponse(t *testing.T) {
	var cases = []struct {
		answer string
		want   string
	}{
		{answer: "Yes, knee surgery is covered.", want: "Likely Yes"},
		{answer: "The claim was denied.", want: "Likely No"},
		{answer: "The document does not specify this.", want: "Likely No"},
		{answer: "It depends on the waiting period.", want: "Uncertain"},
	}

	for i, c := range cases {
		t.Run(fmt.Sprintf("case_%d", i), func(t *testing.T) {
			assert.Equal(t, c.want, EvaluateResponse("q", c.answer))
		})
	}
}
