package store

import "time"

// MetricKind classifies what counts as a success for an experiment.
type MetricKind string

const (
	MetricClick      MetricKind = "click"
	MetricConversion MetricKind = "conversion"
	MetricCustom     MetricKind = "custom"
)

// Experiment is a configured A/B test. Lifecycle is soft: stopping an
// experiment clears IsActive or sets EndAt; rows are only physically
// deleted by the destructive CLI delete, which cascades.
type Experiment struct {
	ID          string // unique slug, the key used everywhere
	Name        string
	Description string
	StartAt     *time.Time
	EndAt       *time.Time
	IsActive    bool
	MetricKind  MetricKind // optional; empty means unset
	MetricEvent string     // event name that counts as success; empty means any
	MetricValue *float64
	Winner      *string // declared winning variation, nil while running
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Variation is one arm of an experiment. Position fixes the selection
// order, which in turn fixes the bucketing interval layout.
type Variation struct {
	ExperimentID string
	Name         string
	Weight       float64
	IsBaseline   bool
	Position     int
}

// Assignment records which variation a visitor was shown. At most one row
// exists per (experiment, visitor); once written it is never overwritten.
type Assignment struct {
	ExperimentID string
	VisitorKey   string
	Variation    string
	CreatedAt    time.Time
}

// SuccessEvent is an append-only conversion record.
type SuccessEvent struct {
	ID           int64
	ExperimentID string
	VisitorKey   string
	Event        string
	Value        *float64
	CreatedAt    time.Time
}
