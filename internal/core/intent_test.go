package core

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"pgregory.net/rapid"
)

// fillerWords contain no keyword from any rule, alone or joined by spaces.
var fillerWords = []string{"please", "help", "me", "today", "with", "my", "the", "what", "how", "is", "do", "i", "quick", "question", "about", "hello"}

func fillerGen() *rapid.Generator[string] {
	return rapid.Custom(func(t *rapid.T) string {
		words := rapid.SliceOfN(rapid.SampledFrom(fillerWords), 0, 6).Draw(t, "words")
		return strings.Join(words, " ")
	})
}

func randomCase(t *rapid.T, s string, label string) string {
	var b strings.Builder
	for _, r := range s {
		if rapid.Bool().Draw(t, label+"_upper") {
			b.WriteString(strings.ToUpper(string(r)))
		} else {
			b.WriteRune(r)
		}
	}
	return b.String()
}

func TestClassifyIntent_Scenarios(t *testing.T) {
	tests := []struct {
		name    string
		message string
		want    Intent
	}{
		{"fraud report", "How do I report fraud?", IntentFraudReport},
		{"account wins over fraud", "How do I report fraud on my account?", IntentAccountInquiry},
		{"loan wins over fraud", "What's my loan interest rate and is there fraud?", IntentLoanInquiry},
		{"multi-word keyword", "what is the INTEREST RATE today", IntentLoanInquiry},
		{"investment", "Should I diversify my portfolio?", IntentInvestmentHelp},
		{"dispute", "There is a wrong amount on my statement", IntentDispute},
		{"substring match", "my savingsbook", IntentAccountInquiry},
		{"no keyword", "hello there", IntentGeneral},
		{"empty", "", IntentGeneral},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ClassifyIntent(tt.message))
		})
	}
}

func TestClassifyIntent_DeclarationOrderBreaksTies(t *testing.T) {
	// account_inquiry is declared first, so any message naming an account lands there.
	assert.Equal(t, IntentAccountInquiry, ClassifyIntent("How do I report fraud on my account?"))
	assert.Equal(t, IntentAccountInquiry, ClassifyIntent("What's my loan interest rate and is there fraud on my account?"))
	assert.Equal(t, IntentLoanInquiry, ClassifyIntent("What's my loan interest rate and is there fraud on my card?"))
	assert.Equal(t, IntentFraudReport, ClassifyIntent("How do I report fraud on my card?"))
}

func TestClassifyIntent_CaseInsensitive(t *testing.T) {
	assert.Equal(t, ClassifyIntent("fraud"), ClassifyIntent("FRAUD"))
	assert.Equal(t, IntentFraudReport, ClassifyIntent("FrAuD"))
}

func TestClassifyIntent_NeverReturnsOther(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		msg := rapid.String().Draw(t, "message")
		got := ClassifyIntent(msg)
		if got == IntentOther || !got.Valid() {
			t.Fatalf("ClassifyIntent(%q) = %q", msg, got)
		}
	})
}

func TestProperty_SingleCategoryKeyword(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		rule := rapid.SampledFrom(intentRules).Draw(t, "rule")
		keyword := rapid.SampledFrom(rule.Keywords).Draw(t, "keyword")
		msg := fillerGen().Draw(t, "prefix") + " " + randomCase(t, keyword, "kw") + " " + fillerGen().Draw(t, "suffix")

		if got := ClassifyIntent(msg); got != rule.Intent {
			t.Fatalf("ClassifyIntent(%q) = %q, want %q", msg, got, rule.Intent)
		}
	})
}

func TestProperty_EarlierCategoryWins(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		i := rapid.IntRange(0, len(intentRules)-2).Draw(t, "first")
		j := rapid.IntRange(i+1, len(intentRules)-1).Draw(t, "second")
		kwI := rapid.SampledFrom(intentRules[i].Keywords).Draw(t, "kwI")
		kwJ := rapid.SampledFrom(intentRules[j].Keywords).Draw(t, "kwJ")

		parts := []string{kwI, kwJ}
		if rapid.Bool().Draw(t, "swap") {
			parts[0], parts[1] = parts[1], parts[0]
		}
		msg := parts[0] + " " + fillerGen().Draw(t, "middle") + " " + parts[1]

		if got := ClassifyIntent(msg); got != intentRules[i].Intent {
			t.Fatalf("ClassifyIntent(%q) = %q, want %q", msg, got, intentRules[i].Intent)
		}
	})
}

func TestProperty_NoKeywordIsGeneral(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		msg := randomCase(t, fillerGen().Draw(t, "msg"), "msg")
		if got := ClassifyIntent(msg); got != IntentGeneral {
			t.Fatalf("ClassifyIntent(%q) = %q, want general", msg, got)
		}
	})
}
