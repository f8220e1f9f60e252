package stats_test

import (
	"testing"

	"github.com/splitkit/splitkit/internal/stats"
	"github.com/splitkit/splitkit/internal/store"
)

func TestAggregate_BasicCounts(t *testing.T) {
	assignments := []store.Assignment{
		{ExperimentID: "hero", VisitorKey: "v1", Variation: "control"},
		{ExperimentID: "hero", VisitorKey: "v2", Variation: "control"},
		{ExperimentID: "hero", VisitorKey: "v3", Variation: "challenger"},
	}
	events := []store.SuccessEvent{
		{ExperimentID: "hero", VisitorKey: "v1", Event: "signup"},
		{ExperimentID: "hero", VisitorKey: "v3", Event: "signup"},
	}

	result := stats.Aggregate(assignments, events, "")

	control := result["control"]
	if control.Visitors != 2 || control.Successes != 1 {
		t.Errorf("control: got %d visitors / %d successes, want 2/1", control.Visitors, control.Successes)
	}
	if control.Rate != 0.5 {
		t.Errorf("control rate: got %f, want 0.5", control.Rate)
	}

	challenger := result["challenger"]
	if challenger.Visitors != 1 || challenger.Successes != 1 {
		t.Errorf("challenger: got %d visitors / %d successes, want 1/1", challenger.Visitors, challenger.Successes)
	}
}

func TestAggregate_VisitorWithoutConversionStillCounts(t *testing.T) {
	assignments := []store.Assignment{
		{VisitorKey: "v1", Variation: "control"},
	}

	result := stats.Aggregate(assignments, nil, "")

	control := result["control"]
	if control.Visitors != 1 || control.Successes != 0 {
		t.Errorf("got %d visitors / %d successes, want 1/0", control.Visitors, control.Successes)
	}
	if control.Rate != 0 {
		t.Errorf("rate: got %f, want 0", control.Rate)
	}
}

func TestAggregate_RepeatedEventsCountOnce(t *testing.T) {
	// One engaged visitor clicking five times converts once.
	assignments := []store.Assignment{
		{VisitorKey: "v1", Variation: "control"},
	}
	var events []store.SuccessEvent
	for i := 0; i < 5; i++ {
		events = append(events, store.SuccessEvent{VisitorKey: "v1", Event: "click"})
	}

	result := stats.Aggregate(assignments, events, "")

	if got := result["control"].Successes; got != 1 {
		t.Errorf("successes: got %d, want 1", got)
	}
}

func TestAggregate_UnassignedVisitorExcluded(t *testing.T) {
	assignments := []store.Assignment{
		{VisitorKey: "v1", Variation: "control"},
	}
	events := []store.SuccessEvent{
		{VisitorKey: "ghost", Event: "signup"},
	}

	result := stats.Aggregate(assignments, events, "")

	if got := result["control"].Successes; got != 0 {
		t.Errorf("unattributed event counted: got %d successes, want 0", got)
	}
}

func TestAggregate_MetricEventFilter(t *testing.T) {
	assignments := []store.Assignment{
		{VisitorKey: "v1", Variation: "control"},
		{VisitorKey: "v2", Variation: "control"},
	}
	events := []store.SuccessEvent{
		{VisitorKey: "v1", Event: "signup"},
		{VisitorKey: "v2", Event: "page_view"},
	}

	result := stats.Aggregate(assignments, events, "signup")

	if got := result["control"].Successes; got != 1 {
		t.Errorf("metric filter: got %d successes, want 1", got)
	}

	// Without a configured metric, any event counts.
	result = stats.Aggregate(assignments, events, "")
	if got := result["control"].Successes; got != 2 {
		t.Errorf("no metric filter: got %d successes, want 2", got)
	}
}

func TestAggregate_DuplicateAssignmentsIgnored(t *testing.T) {
	// The store guarantees one assignment per visitor, but Aggregate must
	// not double-count if handed duplicates.
	assignments := []store.Assignment{
		{VisitorKey: "v1", Variation: "control"},
		{VisitorKey: "v1", Variation: "challenger"},
	}

	result := stats.Aggregate(assignments, nil, "")

	if got := result["control"].Visitors; got != 1 {
		t.Errorf("control visitors: got %d, want 1", got)
	}
	if _, ok := result["challenger"]; ok {
		t.Error("duplicate assignment created a challenger entry")
	}
}

func TestAggregate_Empty(t *testing.T) {
	result := stats.Aggregate(nil, nil, "")
	if len(result) != 0 {
		t.Errorf("expected empty map, got %d entries", len(result))
	}
}
