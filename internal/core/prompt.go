package core

import (
	"fmt"
	"strings"

	"finassist.com/finance-chatbot/internal/store"
)

// FAQDatabaseSource is the citation attached to replies generated with a
// non-empty knowledge context.
const FAQDatabaseSource = "FAQ Database"

const systemPromptTemplate = `You are a professional finance customer service AI assistant. Your knowledge is based on real financial institution FAQs and current market data.

Your capabilities:
1. Answer questions about accounts, loans, fraud protection, investments, and general banking
2. Classify user intents: account_inquiry, loan_inquiry, fraud_report, investment_help, dispute, general, or other
3. Provide accurate information with source citations when possible
4. Be professional, helpful, and clear

FAQ Knowledge Base:
%s

When responding:
- Be concise but comprehensive
- If you reference FAQ information, cite the category
- If you're unsure, acknowledge it honestly
- Classify the intent of the user's question`

// BuildKnowledgeContext renders entries as Q:/A:/Category: triples separated
// by a blank line, in the order given.
func BuildKnowledgeContext(faqs []store.FAQ) string {
	blocks := make([]string, 0, len(faqs))
	for _, faq := range faqs {
		blocks = append(blocks, fmt.Sprintf("Q: %s\nA: %s\nCategory: %s", faq.Question, faq.Answer, faq.Category))
	}
	return strings.Join(blocks, "\n\n")
}

// BuildSystemPrompt embeds the knowledge block verbatim; an empty block
// leaves the knowledge section empty.
func BuildSystemPrompt(knowledgeContext string) string {
	return fmt.Sprintf(systemPromptTemplate, knowledgeContext)
}

// SourcesFor returns the citation list persisted with a reply.
func SourcesFor(knowledgeContext string) []string {
	if knowledgeContext == "" {
		return []string{}
	}
	return []string{FAQDatabaseSource}
}
