package store

import "context"

// Store defines the persistence operations the engine and server need.
type Store interface {
	// Experiment operations
	CreateExperiment(ctx context.Context, exp *Experiment, variations []Variation) (*Experiment, error)
	GetExperiment(ctx context.Context, id string) (*Experiment, error)
	ListExperiments(ctx context.Context) ([]*Experiment, error)
	UpdateExperimentState(ctx context.Context, id string, active bool) error
	SetWinner(ctx context.Context, id string, variation string) error
	DeleteExperiment(ctx context.Context, id string) error

	// Variation operations
	GetVariations(ctx context.Context, experimentID string) ([]Variation, error)

	// Assignment operations. PutAssignment must be write-if-absent: when
	// two writers race on the same (experiment, visitor) key exactly one
	// row survives, and both see it on the following GetAssignment.
	GetAssignment(ctx context.Context, experimentID, visitorKey string) (*Assignment, error)
	PutAssignment(ctx context.Context, a Assignment) error
	ListAssignments(ctx context.Context, experimentID string) ([]Assignment, error)

	// Success-event operations
	RecordSuccess(ctx context.Context, e SuccessEvent) error
	ListSuccessEvents(ctx context.Context, experimentID string) ([]SuccessEvent, error)

	// Lifecycle
	Close() error
}
