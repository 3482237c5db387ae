package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/roach88/gavel/internal/auction"
	"github.com/roach88/gavel/internal/audit"
)

// GetAuction reads a record outside any atomic-apply unit. Used by the CLI
// and harness for inspection; mutation paths read through Tx.GetAuction so
// the read and the write share one transaction.
func (s *Store) GetAuction(ctx context.Context, id string) (*auction.Record, error) {
	row := s.db.QueryRowContext(ctx, selectAuctionSQL+` WHERE id = ?`, id)
	return scanAuction(id, row)
}

// Balance reads an account balance outside any atomic-apply unit.
// Never-funded accounts read as zero.
func (s *Store) Balance(ctx context.Context, account auction.AccountID) (int64, error) {
	var balance int64
	err := s.db.QueryRowContext(ctx,
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

// AssetOwner reads an asset's current owner outside any atomic-apply unit.
func (s *Store) AssetOwner(ctx context.Context, asset auction.AssetID) (auction.AccountID, error) {
	var owner string
	err := s.db.QueryRowContext(ctx,
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

// ReadTrace returns the audit trail for one auction in deterministic order:
// seq ASC with the content-addressed id as tiebreaker.
//
// Returns an empty slice (not nil) if no entries exist.
func (s *Store) ReadTrace(ctx context.Context, auctionID string) ([]audit.Entry, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, auction_id, seq, op, actor, amount, counterparty
		FROM audit_log
		WHERE auction_id = ?
		ORDER BY seq ASC, id COLLATE BINARY ASC
	`, auctionID)
	if err != nil {
		return nil, fmt.Errorf("query audit trail: %w", err)
	}
	defer rows.Close()

	entries := []audit.Entry{}
	for rows.Next() {
		var (
			e  audit.Entry
			op string
		)
		if err := rows.Scan(&e.ID, &e.AuctionID, &e.Seq, &op, &e.Actor, &e.Amount, &e.Counterparty); err != nil {
			return nil, fmt.Errorf("scan audit entry: %w", err)
		}
		e.Op = audit.Op(op)
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate audit entries: %w", err)
	}

	return entries, nil
}

// MaxAuditSeq returns the highest sequence number in the audit log, or zero
// for an empty log. The engine resumes its sequencer from here so restarts
// never reuse a seq.
func (s *Store) MaxAuditSeq(ctx context.Context) (int64, error) {
	var seq sql.NullInt64
	err := s.db.QueryRowContext(ctx, `SELECT MAX(seq) FROM audit_log`).Scan(&seq)
	if err != nil {
		return 0, fmt.Errorf("max audit seq: %w", err)
	}
	if !seq.Valid {
		return 0, nil
	}
	return seq.Int64, nil
}
