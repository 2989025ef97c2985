package language

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/ledgerline/refundgate/pkg/domain/types"
	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/gollem"
)

// Service classifies customer messages and drafts answers with an LLM. It is
// stateless; each call opens a fresh session. Callers treat failures as
// transient and fall back to a canned reply at the chat boundary.
type Service struct {
	llmClient gollem.LLMClient
}

// New creates a language service with the provided LLM client
func New(llmClient gollem.LLMClient) (*Service, error) {
	if llmClient == nil {
		return nil, goerr.New("LLM client is required")
	}
	return &Service{llmClient: llmClient}, nil
}

const classifySystemPrompt = `You are an intent classifier for a customer support system of an e-commerce store.
Classify the customer message into exactly one of these intents:

- ORDER: questions about order status, shipping, delivery
- POLICY: questions about store policies, return rules, warranties
- REFUND: a request to refund an order, or a follow-up on a refund
- OTHER: anything else

Respond with the intent tag only.`

// ClassifyIntent tags a customer message with one of the known intents.
// Anything unexpected from the model collapses to OTHER.
func (s *Service) ClassifyIntent(ctx context.Context, text string) (types.Intent, error) {
	schema := &gollem.Parameter{
		Type: gollem.TypeObject,
		Properties: map[string]*gollem.Parameter{
			"intent": {
				Type:        gollem.TypeString,
				Description: "One of ORDER, POLICY, REFUND, OTHER",
				Required:    true,
			},
		},
	}

	session, err := s.llmClient.NewSession(ctx,
		gollem.WithSessionContentType(gollem.ContentTypeJSON),
		gollem.WithSessionResponseSchema(schema),
		gollem.WithSessionSystemPrompt(classifySystemPrompt),
	)
	if err != nil {
		return types.IntentOther, goerr.Wrap(err, "failed to create LLM session")
	}

	resp, err := session.GenerateContent(ctx, gollem.Text(text))
	if err != nil {
		return types.IntentOther, goerr.Wrap(err, "failed to classify intent")
	}
	if len(resp.Texts) == 0 {
		return types.IntentOther, goerr.New("empty classification response")
	}

	var parsed struct {
		Intent string `json:"intent"`
	}
	if err := json.Unmarshal([]byte(resp.Texts[0]), &parsed); err != nil {
		return types.IntentOther, goerr.Wrap(err, "failed to parse classification response",
			goerr.V("response", resp.Texts[0]))
	}

	return types.ParseIntent(strings.ToUpper(strings.TrimSpace(parsed.Intent))), nil
}

const answerSystemPrompt = `You are a customer support agent for an e-commerce store.
Answer the customer's question using only the provided context.
Be concise and polite. If the context does not cover the question, say so and
suggest contacting support.`

// GenerateAnswer produces a free-text answer from the question and retrieved
// context parts
func (s *Service) GenerateAnswer(ctx context.Context, question string, contextParts []string) (string, error) {
	session, err := s.llmClient.NewSession(ctx,
		gollem.WithSessionSystemPrompt(answerSystemPrompt),
	)
	if err != nil {
		return "", goerr.Wrap(err, "failed to create LLM session")
	}

	var sb strings.Builder
	if len(contextParts) > 0 {
		sb.WriteString("## Context\n\n")
		for _, part := range contextParts {
			sb.WriteString("- ")
			sb.WriteString(part)
			sb.WriteString("\n")
		}
		sb.WriteString("\n")
	}
	fmt.Fprintf(&sb, "## Question\n\n%s\n", question)

	resp, err := session.GenerateContent(ctx, gollem.Text(sb.String()))
	if err != nil {
		return "", goerr.Wrap(err, "failed to generate answer")
	}
	if len(resp.Texts) == 0 {
		return "", goerr.New("empty answer response")
	}

	return strings.TrimSpace(resp.Texts[0]), nil
}
