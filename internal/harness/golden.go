package harness

import (
	"context"
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/roach88/gavel/internal/audit"
	"github.com/roach88/gavel/internal/scenario"
)

// TraceSnapshot is the golden-file form of a scenario's audit trail. The
// content-addressed entry IDs are derived from the other fields and add
// nothing to review, so the snapshot carries only the human-readable parts.
type TraceSnapshot struct {
	ScenarioName string
	Trace        []audit.Entry
}

// toCanonicalMap converts the snapshot for canonical JSON serialization.
func (s *TraceSnapshot) toCanonicalMap() map[string]any {
	traceList := make([]any, len(s.Trace))
	for i, e := range s.Trace {
		eventMap := map[string]any{
			"seq":    e.Seq,
			"op":     string(e.Op),
			"actor":  e.Actor,
			"amount": e.Amount,
		}
		if e.Counterparty != "" {
			eventMap["counterparty"] = e.Counterparty
		}
		traceList[i] = eventMap
	}
	return map[string]any{
		"scenario_name": s.ScenarioName,
		"trace":         traceList,
	}
}

// Marshal renders the snapshot as canonical JSON.
func (s *TraceSnapshot) Marshal() ([]byte, error) {
	return audit.MarshalCanonical(s.toCanonicalMap())
}

// RunWithGolden executes a scenario, fails the test on any expectation or
// assertion mismatch, and compares the trace snapshot against the golden
// file testdata/golden/{name}.golden.
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
func RunWithGolden(t *testing.T, sc *scenario.Scenario) *Result {
	t.Helper()

	res, err := Run(context.Background(), sc)
	if err != nil {
		t.Fatalf("running scenario %s: %v", sc.Name, err)
	}
	for _, f := range res.Failures {
		t.Errorf("scenario %s: %s", sc.Name, f)
	}

	snapshot := TraceSnapshot{ScenarioName: sc.Name, Trace: res.Trace}
	data, err := snapshot.Marshal()
	if err != nil {
		t.Fatalf("marshaling trace snapshot: %v", err)
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, sc.Name, data)
	return res
}
