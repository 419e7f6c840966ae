package core

import "strings"

// Intent is the topical label attached to assistant replies.
type Intent string

const (
	IntentAccountInquiry Intent = "account_inquiry"
	IntentLoanInquiry    Intent = "loan_inquiry"
	IntentFraudReport    Intent = "fraud_report"
	IntentInvestmentHelp Intent = "investment_help"
	IntentDispute        Intent = "dispute"
	IntentGeneral        Intent = "general"
	// IntentOther is reserved; the classifier never returns it.
	IntentOther Intent = "other"
)

type intentRule struct {
	Intent   Intent
	Keywords []string
}

// intentRules is evaluated top to bottom and the first rule with a matching
// keyword wins. Keywords must be lowercase.
var intentRules = []intentRule{
	{IntentAccountInquiry, []string{"account", "balance", "deposit", "withdrawal", "checking", "savings"}},
	{IntentLoanInquiry, []string{"loan", "mortgage", "credit", "borrow", "interest rate", "refinance"}},
	{IntentFraudReport, []string{"fraud", "suspicious", "unauthorized", "stolen", "scam", "security"}},
	{IntentInvestmentHelp, []string{"invest", "portfolio", "stocks", "bonds", "retirement", "401k"}},
	{IntentDispute, []string{"dispute", "charge", "error", "incorrect", "wrong", "complaint"}},
}

// ClassifyIntent labels a user message by case-insensitive keyword substring
// match against intentRules, falling back to IntentGeneral.
func ClassifyIntent(message string) Intent {
	lower := strings.ToLower(message)
	for _, rule := range intentRules {
		for _, keyword := range rule.Keywords {
			if strings.Contains(lower, keyword) {
				return rule.Intent
			}
		}
	}
	return IntentGeneral
}

// Intents lists every intent in the closed enumeration.
func Intents() []Intent {
	return []Intent{
		IntentAccountInquiry,
		IntentLoanInquiry,
		IntentFraudReport,
		IntentInvestmentHelp,
		IntentDispute,
		IntentGeneral,
		IntentOther,
	}
}

func (i Intent) Valid() bool {
	for _, known := range Intents() {
		if i == known {
			return true
		}
	}
	return false
}
