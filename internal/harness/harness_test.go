package harness

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/gavel/internal/audit"
	"github.com/roach88/gavel/internal/scenario"
)

// TestScenarios runs every scenario under testdata/scenarios and compares
// each trace against its golden file.
func TestScenarios(t *testing.T) {
	paths, err := filepath.Glob(filepath.Join("testdata", "scenarios", "*.yaml"))
	require.NoError(t, err)
	require.NotEmpty(t, paths, "no scenario files found")

	for _, path := range paths {
		sc, err := scenario.Load(path)
		require.NoError(t, err, path)

		t.Run(sc.Name, func(t *testing.T) {
			res := RunWithGolden(t, sc)
			assert.True(t, res.Passed(), "failures: %v", res.Failures)
		})
	}
}

func TestRunReportsExpectationMismatch(t *testing.T) {
	doc := `
name: wrong_expectation
auction:
  id: art-9
  seller: alice
  asset: coin-1
  reserve_price: 50
  bid_increment: 5
  start_offset: 0
  end_offset: 60
accounts:
  - account: bob
    balance: 10
assets:
  - asset: coin-1
    owner: alice
steps:
  - at: 10
    op: bid
    actor: bob
    amount: 55
    expect: {ok: true}
`
	sc, err := scenario.Parse([]byte(doc))
	require.NoError(t, err)

	res, err := Run(context.Background(), sc)
	require.NoError(t, err)

	assert.False(t, res.Passed())
	require.Len(t, res.Failures, 1)
	assert.Contains(t, res.Failures[0], "expected success")
	assert.Contains(t, res.Failures[0], "INSUFFICIENT_FUNDS")
}

func TestRunReportsUnexpectedSuccess(t *testing.T) {
	doc := `
name: unexpected_success
auction:
  id: art-9
  seller: alice
  asset: coin-1
  reserve_price: 50
  bid_increment: 5
  start_offset: 0
  end_offset: 60
accounts:
  - account: bob
    balance: 100
assets:
  - asset: coin-1
    owner: alice
steps:
  - at: 10
    op: bid
    actor: bob
    amount: 55
    expect: {error: BID_TOO_LOW}
`
	sc, err := scenario.Parse([]byte(doc))
	require.NoError(t, err)

	res, err := Run(context.Background(), sc)
	require.NoError(t, err)

	assert.False(t, res.Passed())
	require.Len(t, res.Failures, 1)
	assert.Contains(t, res.Failures[0], "expected BID_TOO_LOW, succeeded")
}

func TestRunChecksAssertions(t *testing.T) {
	doc := `
name: wrong_assertions
auction:
  id: art-9
  seller: alice
  asset: coin-1
  reserve_price: 50
  bid_increment: 5
  start_offset: 0
  end_offset: 60
accounts:
  - account: bob
    balance: 100
assets:
  - asset: coin-1
    owner: alice
steps:
  - at: 10
    op: bid
    actor: bob
    amount: 55
    expect: {ok: true}
assertions:
  balances:
    bob: 100
  asset_owner: bob
  record:
    settled: true
`
	sc, err := scenario.Parse([]byte(doc))
	require.NoError(t, err)

	res, err := Run(context.Background(), sc)
	require.NoError(t, err)

	assert.False(t, res.Passed())
	assert.Len(t, res.Failures, 3)
}

func TestRunSeedFailure(t *testing.T) {
	// Seller does not own the asset, so auction creation cannot take custody.
	doc := `
name: missing_asset
auction:
  id: art-9
  seller: alice
  asset: coin-1
  reserve_price: 50
  bid_increment: 5
  start_offset: 0
  end_offset: 60
steps: []
`
	sc, err := scenario.Parse([]byte(doc))
	require.NoError(t, err)

	_, err = Run(context.Background(), sc)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "creating auction")
}

func TestTraceSnapshotMarshal(t *testing.T) {
	snap := TraceSnapshot{
		ScenarioName: "sample",
		Trace: []audit.Entry{
			{Seq: 1, Op: audit.OpCreate, Actor: "alice", Amount: 0, Counterparty: "auction/a-1"},
			{Seq: 2, Op: audit.OpSettle, Actor: "bob", Amount: 0},
		},
	}

	data, err := snap.Marshal()
	require.NoError(t, err)

	want := `{"scenario_name":"sample","trace":[` +
		`{"actor":"alice","amount":0,"counterparty":"auction/a-1","op":"create","seq":1},` +
		`{"actor":"bob","amount":0,"op":"settle","seq":2}]}`
	assert.Equal(t, want, string(data))
}
