package interfaces

// Repository defines the interface for data persistence. It is the single
// source of truth for case state: only CaseRepository writes case transitions.
type Repository interface {
	Case() CaseRepository
	Job() JobRepository
	Order() OrderRepository
	Message() MessageRepository

	Close() error
}
