package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/roach88/gavel/internal/auction"
	"github.com/roach88/gavel/internal/audit"
)

// Tx is one atomic-apply unit in progress. All methods operate inside the
// wrapping transaction; nothing is visible to other operations until Apply
// commits.
type Tx struct {
	tx *sql.Tx
}

// InsertAuction writes a freshly created record. A colliding auction id
// reports DuplicateAuctionId; ON CONFLICT DO NOTHING plus the rows-affected
// check detects the collision without racing a separate existence query.
func (t *Tx) InsertAuction(ctx context.Context, rec *auction.Record) error {
	res, err := t.tx.ExecContext(ctx, `
		INSERT INTO auctions
		(id, seller, asset_id, reserve_price, bid_increment, start_time, end_time,
		 highest_bid, highest_bidder, escrowed_amount, settled, settled_by)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING
	`,
		rec.ID,
		string(rec.Seller),
		string(rec.Asset),
		rec.ReservePrice,
		rec.BidIncrement,
		rec.StartTime.Unix(),
		rec.EndTime.Unix(),
		rec.HighestBid,
		bidderValue(rec.HighestBidder),
		rec.EscrowedAmount,
		boolValue(rec.Settled),
		string(rec.SettledBy),
	)
	if err != nil {
		return fmt.Errorf("insert auction: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("insert auction: rows affected: %w", err)
	}
	if affected == 0 {
		return auction.ErrDuplicateID(rec.ID)
	}
	return nil
}

// GetAuction reads a record for update within this atomic unit.
// Returns AuctionNotFound if no record exists.
func (t *Tx) GetAuction(ctx context.Context, id string) (*auction.Record, error) {
	row := t.tx.QueryRowContext(ctx, selectAuctionSQL+` WHERE id = ?`, id)
	return scanAuction(id, row)
}

// UpdateAuction writes back a mutated record.
func (t *Tx) UpdateAuction(ctx context.Context, rec *auction.Record) error {
	res, err := t.tx.ExecContext(ctx, `
		UPDATE auctions
		SET highest_bid = ?, highest_bidder = ?, escrowed_amount = ?,
		    settled = ?, settled_by = ?
		WHERE id = ?
	`,
		rec.HighestBid,
		bidderValue(rec.HighestBidder),
		rec.EscrowedAmount,
		boolValue(rec.Settled),
		string(rec.SettledBy),
		rec.ID,
	)
	if err != nil {
		return fmt.Errorf("update auction: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update auction: rows affected: %w", err)
	}
	if affected == 0 {
		return auction.ErrNotFound(rec.ID)
	}
	return nil
}

// Balance returns the current balance of an account. A ledger account that
// was never funded reads as zero.
func (t *Tx) Balance(ctx context.Context, account auction.AccountID) (int64, error) {
	var balance int64
	err := t.tx.QueryRowContext(ctx,
		`SELECT balance FROM accounts WHERE account = ?`, string(account),
	).Scan(&balance)
	if err == sql.ErrNoRows {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("balance %s: %w", account, err)
	}
	return balance, nil
}

// Credit adds funds to an account, creating the ledger row on first use.
func (t *Tx) Credit(ctx context.Context, account auction.AccountID, amount int64) error {
	if amount < 0 {
		return fmt.Errorf("credit %s: negative amount %d", account, amount)
	}
	_, err := t.tx.ExecContext(ctx, `
		INSERT INTO accounts (account, balance) VALUES (?, ?)
		ON CONFLICT(account) DO UPDATE SET balance = balance + excluded.balance
	`, string(account), amount)
	if err != nil {
		return fmt.Errorf("credit %s: %w", account, err)
	}
	return nil
}

// Debit removes funds from an account. The WHERE balance >= amount guard
// makes the debit itself the overdraft check: zero rows affected means the
// account is missing or short.
func (t *Tx) Debit(ctx context.Context, account auction.AccountID, amount int64) error {
	if amount < 0 {
		return fmt.Errorf("debit %s: negative amount %d", account, amount)
	}
	res, err := t.tx.ExecContext(ctx, `
		UPDATE accounts SET balance = balance - ?
		WHERE account = ? AND balance >= ?
	`, amount, string(account), amount)
	if err != nil {
		return fmt.Errorf("debit %s: %w", account, err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("debit %s: rows affected: %w", account, err)
	}
	if affected == 0 {
		return fmt.Errorf("debit %s: insufficient balance for %d", account, amount)
	}
	return nil
}

// AssetOwner returns the current owner of an asset.
func (t *Tx) AssetOwner(ctx context.Context, asset auction.AssetID) (auction.AccountID, error) {
	var owner string
	err := t.tx.QueryRowContext(ctx,
		`SELECT owner FROM assets WHERE asset_id = ?`, string(asset),
	).Scan(&owner)
	if err == sql.ErrNoRows {
		return "", fmt.Errorf("asset %s: not registered", asset)
	}
	if err != nil {
		return "", fmt.Errorf("asset owner %s: %w", asset, err)
	}
	return auction.AccountID(owner), nil
}

// MoveAsset transfers asset custody from one account to another. The WHERE
// owner guard makes mismatched custody a failed transfer, not a silent
// overwrite.
func (t *Tx) MoveAsset(ctx context.Context, asset auction.AssetID, from, to auction.AccountID) error {
	res, err := t.tx.ExecContext(ctx, `
		UPDATE assets SET owner = ? WHERE asset_id = ? AND owner = ?
	`, string(to), string(asset), string(from))
	if err != nil {
		return fmt.Errorf("move asset %s: %w", asset, err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("move asset %s: rows affected: %w", asset, err)
	}
	if affected == 0 {
		return fmt.Errorf("move asset %s: not held by %s", asset, from)
	}
	return nil
}

// PutAsset registers an asset under an owner, overwriting any prior record.
// Seeding only - the engine moves assets exclusively through MoveAsset.
func (t *Tx) PutAsset(ctx context.Context, asset auction.AssetID, owner auction.AccountID) error {
	_, err := t.tx.ExecContext(ctx, `
		INSERT INTO assets (asset_id, owner) VALUES (?, ?)
		ON CONFLICT(asset_id) DO UPDATE SET owner = excluded.owner
	`, string(asset), string(owner))
	if err != nil {
		return fmt.Errorf("put asset %s: %w", asset, err)
	}
	return nil
}

// AppendAudit writes one audit entry. Content-addressed IDs plus ON CONFLICT
// DO NOTHING make re-application of the same logical event a no-op.
func (t *Tx) AppendAudit(ctx context.Context, e audit.Entry) error {
	_, err := t.tx.ExecContext(ctx, `
		INSERT INTO audit_log (id, auction_id, seq, op, actor, amount, counterparty)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING
	`, e.ID, e.AuctionID, e.Seq, string(e.Op), e.Actor, e.Amount, e.Counterparty)
	if err != nil {
		return fmt.Errorf("append audit: %w", err)
	}
	return nil
}

const selectAuctionSQL = `
	SELECT id, seller, asset_id, reserve_price, bid_increment, start_time,
	       end_time, highest_bid, highest_bidder, escrowed_amount, settled,
	       settled_by
	FROM auctions`

// rowScanner is satisfied by both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanAuction(id string, row rowScanner) (*auction.Record, error) {
	var (
		rec       auction.Record
		seller    string
		asset     string
		start     int64
		end       int64
		bidder    sql.NullString
		settled   int64
		settledBy string
	)
	err := row.Scan(
		&rec.ID, &seller, &asset, &rec.ReservePrice, &rec.BidIncrement,
		&start, &end, &rec.HighestBid, &bidder, &rec.EscrowedAmount,
		&settled, &settledBy,
	)
	if err == sql.ErrNoRows {
		return nil, auction.ErrNotFound(id)
	}
	if err != nil {
		return nil, fmt.Errorf("scan auction: %w", err)
	}

	rec.Seller = auction.AccountID(seller)
	rec.Asset = auction.AssetID(asset)
	rec.StartTime = time.Unix(start, 0).UTC()
	rec.EndTime = time.Unix(end, 0).UTC()
	if bidder.Valid {
		rec.HighestBidder = auction.SomeBidder(auction.AccountID(bidder.String))
	}
	rec.Settled = settled != 0
	rec.SettledBy = auction.AccountID(settledBy)
	return &rec, nil
}

func bidderValue(b auction.Bidder) any {
	if !b.Valid {
		return nil
	}
	return string(b.Account)
}

func boolValue(b bool) int64 {
	if b {
		return 1
	}
	return 0
}
