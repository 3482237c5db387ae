package scenario

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const validDoc = `
name: full_settlement
description: two bidders, second outbids the first
auction:
  id: art-1
  seller: alice
  asset: painting-7
  reserve_price: 100
  bid_increment: 10
  start_offset: 0
  end_offset: 100
accounts:
  - account: bob
    balance: 500
  - account: carol
    balance: 500
assets:
  - asset: painting-7
    owner: alice
steps:
  - at: 10
    op: bid
    actor: bob
    amount: 110
    expect: {ok: true}
  - at: 20
    op: bid
    actor: carol
    amount: 125
    expect: {ok: true}
  - at: 150
    op: finalize
    actor: alice
    expect: {ok: true}
assertions:
  balances:
    alice: 125
    bob: 500
    carol: 375
  asset_owner: carol
  record:
    settled: true
    highest_bid: 125
    highest_bidder: carol
    escrowed_amount: 0
`

func TestParseValid(t *testing.T) {
	sc, err := Parse([]byte(validDoc))
	require.NoError(t, err)

	assert.Equal(t, "full_settlement", sc.Name)
	assert.Equal(t, "art-1", sc.Auction.ID)
	assert.Equal(t, int64(100), sc.Auction.ReservePrice)
	assert.Equal(t, int64(100), sc.Auction.EndOffset)
	assert.Len(t, sc.Accounts, 2)
	assert.Len(t, sc.Steps, 3)

	assert.Equal(t, OpBid, sc.Steps[0].Op)
	assert.True(t, sc.Steps[0].Expect.OK)
	assert.Equal(t, OpFinalize, sc.Steps[2].Op)

	require.NotNil(t, sc.Assertions)
	assert.Equal(t, int64(125), sc.Assertions.Balances["alice"])
	assert.Equal(t, "carol", sc.Assertions.AssetOwner)
	require.NotNil(t, sc.Assertions.Record)
	assert.Equal(t, int64(125), *sc.Assertions.Record.HighestBid)
}

func TestParseExpectError(t *testing.T) {
	doc := `
name: late_bid
auction:
  id: art-1
  seller: alice
  asset: painting-7
  reserve_price: 100
  bid_increment: 10
  start_offset: 0
  end_offset: 100
steps:
  - at: 200
    op: bid
    actor: bob
    amount: 110
    expect: {error: AUCTION_NOT_OPEN}
`
	sc, err := Parse([]byte(doc))
	require.NoError(t, err)
	assert.False(t, sc.Steps[0].Expect.OK)
	assert.Equal(t, "AUCTION_NOT_OPEN", sc.Steps[0].Expect.Error)
}

func TestParseRejections(t *testing.T) {
	cases := []struct {
		name string
		doc  string
	}{
		{"not yaml", `: [`},
		{"unknown field", `
name: bad
auction:
  id: art-1
  seller: alice
  asset: painting-7
  reserve_price: 100
  bid_increment: 10
  start_offset: 0
  end_offset: 100
  surprise: 1
steps: []
`},
		{"bad op", `
name: bad
auction:
  id: art-1
  seller: alice
  asset: painting-7
  reserve_price: 100
  bid_increment: 10
  start_offset: 0
  end_offset: 100
steps:
  - at: 10
    op: cancel
    actor: bob
    expect: {ok: true}
`},
		{"missing expect", `
name: bad
auction:
  id: art-1
  seller: alice
  asset: painting-7
  reserve_price: 100
  bid_increment: 10
  start_offset: 0
  end_offset: 100
steps:
  - at: 10
    op: finalize
    actor: bob
`},
		{"expect both forms", `
name: bad
auction:
  id: art-1
  seller: alice
  asset: painting-7
  reserve_price: 100
  bid_increment: 10
  start_offset: 0
  end_offset: 100
steps:
  - at: 10
    op: finalize
    actor: bob
    expect: {ok: true, error: BID_TOO_LOW}
`},
		{"zero end offset", `
name: bad
auction:
  id: art-1
  seller: alice
  asset: painting-7
  reserve_price: 100
  bid_increment: 10
  start_offset: 0
  end_offset: 0
steps: []
`},
		{"bad name", `
name: Full Settlement
auction:
  id: art-1
  seller: alice
  asset: painting-7
  reserve_price: 100
  bid_increment: 10
  start_offset: 0
  end_offset: 100
steps: []
`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Parse([]byte(tc.doc))
			assert.Error(t, err)
		})
	}
}

func TestCheckSteps(t *testing.T) {
	header := `
name: bad
auction:
  id: art-1
  seller: alice
  asset: painting-7
  reserve_price: 100
  bid_increment: 10
  start_offset: 0
  end_offset: 100
`
	t.Run("bid without amount", func(t *testing.T) {
		_, err := Parse([]byte(header + `
steps:
  - at: 10
    op: bid
    actor: bob
    expect: {ok: true}
`))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "positive amount")
	})

	t.Run("finalize with amount", func(t *testing.T) {
		_, err := Parse([]byte(header + `
steps:
  - at: 150
    op: finalize
    actor: alice
    amount: 5
    expect: {ok: true}
`))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "finalize takes no amount")
	})

	t.Run("steps out of order", func(t *testing.T) {
		_, err := Parse([]byte(header + `
steps:
  - at: 20
    op: bid
    actor: bob
    amount: 110
    expect: {ok: true}
  - at: 10
    op: bid
    actor: carol
    amount: 125
    expect: {ok: true}
`))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "precedes")
	})
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "full_settlement.yaml")
	require.NoError(t, os.WriteFile(path, []byte(validDoc), 0o644))

	sc, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "full_settlement", sc.Name)

	_, err = Load(filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)
}
