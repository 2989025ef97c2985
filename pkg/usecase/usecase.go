package usecase

import (
	"github.com/ledgerline/refundgate/pkg/domain/interfaces"
	"github.com/ledgerline/refundgate/pkg/service/dispatcher"
	"github.com/ledgerline/refundgate/pkg/service/hub"
	"github.com/ledgerline/refundgate/pkg/service/risk"
	"github.com/ledgerline/refundgate/pkg/service/rules"
)

type UseCases struct {
	repo interfaces.Repository

	Approval *ApprovalUseCase
	Chat     *ChatUseCase
}

type Option func(*UseCases)

// WithLanguage sets the LLM-backed language service. Without it the chat
// usecase falls back to keyword intent matching and canned replies.
func WithLanguage(language interfaces.LanguageService) Option {
	return func(uc *UseCases) {
		uc.Chat.language = language
	}
}

// WithEligibility overrides the default refund eligibility checker
func WithEligibility(checker *rules.Checker) Option {
	return func(uc *UseCases) {
		uc.Chat.eligibility = checker
	}
}

// WithClassifier overrides the default risk classifier
func WithClassifier(classifier *risk.Classifier) Option {
	return func(uc *UseCases) {
		uc.Approval.classifier = classifier
	}
}

func New(repo interfaces.Repository, notifications *hub.Hub, jobs *dispatcher.Dispatcher, opts ...Option) *UseCases {
	classifier, err := risk.NewClassifier(risk.DefaultMediumThreshold, risk.DefaultHighThreshold)
	if err != nil {
		// Defaults are compile-time constants; this cannot happen
		panic(err)
	}

	uc := &UseCases{
		repo: repo,
	}
	uc.Approval = NewApprovalUseCase(repo, classifier, notifications, jobs)
	uc.Chat = NewChatUseCase(repo, uc.Approval, rules.NewChecker(repo.Case()))

	for _, opt := range opts {
		opt(uc)
	}

	return uc
}
