package memory

import (
	"github.com/ledgerline/refundgate/pkg/domain/interfaces"
)

// Repository is an alias for Memory to match the pattern
type Repository = Memory

// Memory is the in-memory repository backend used for development and tests
type Memory struct {
	caseRepo    *caseRepository
	jobRepo     *jobRepository
	orderRepo   *orderRepository
	messageRepo *messageRepository
}

var _ interfaces.Repository = &Memory{}

func New() *Memory {
	return &Memory{
		caseRepo:    newCaseRepository(),
		jobRepo:     newJobRepository(),
		orderRepo:   newOrderRepository(),
		messageRepo: newMessageRepository(),
	}
}

func (m *Memory) Case() interfaces.CaseRepository {
	return m.caseRepo
}

func (m *Memory) Job() interfaces.JobRepository {
	return m.jobRepo
}

func (m *Memory) Order() interfaces.OrderRepository {
	return m.orderRepo
}

func (m *Memory) Message() interfaces.MessageRepository {
	return m.messageRepo
}

func (m *Memory) Close() error {
	return nil
}
