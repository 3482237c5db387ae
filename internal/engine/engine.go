package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/roach88/gavel/internal/auction"
	"github.com/roach88/gavel/internal/audit"
	"github.com/roach88/gavel/internal/store"
)

// Engine exposes the auction operations. One Engine serves one store; it
// holds no per-auction state of its own, so a single instance handles any
// number of concurrent auctions.
type Engine struct {
	store  *store.Store
	clock  Clock
	seq    *Sequencer
	tokens TokenGenerator
}

// Option configures an Engine.
type Option func(*Engine)

// WithTokenGenerator overrides the operation token source. Tests use
// FixedGenerator for deterministic log output.
func WithTokenGenerator(gen TokenGenerator) Option {
	return func(e *Engine) {
		e.tokens = gen
	}
}

// New creates an Engine over the given store and clock. The audit sequencer
// resumes from the highest persisted seq so a restart never reuses one.
func New(ctx context.Context, s *store.Store, clock Clock, opts ...Option) (*Engine, error) {
	maxSeq, err := s.MaxAuditSeq(ctx)
	if err != nil {
		return nil, fmt.Errorf("resume sequencer: %w", err)
	}

	e := &Engine{
		store:  s,
		clock:  clock,
		seq:    NewSequencerAt(maxSeq),
		tokens: UUIDv7Generator{},
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// CreateParams are the caller-supplied fields of a new auction.
type CreateParams struct {
	ID           string
	Seller       auction.AccountID
	Asset        auction.AssetID
	ReservePrice int64
	BidIncrement int64
	Start        time.Time
	End          time.Time
}

// CreateAuction creates the auction record and takes the asset into the
// auction's custody, all in one atomic unit. The seller must currently own
// the asset; a failed custody move aborts creation entirely.
func (e *Engine) CreateAuction(ctx context.Context, p CreateParams) (*auction.Record, error) {
	rec, err := auction.NewRecord(p.ID, p.Seller, p.Asset, p.ReservePrice, p.BidIncrement, p.Start, p.End)
	if err != nil {
		return nil, err
	}

	token := e.tokens.Generate()
	err = e.store.Apply(ctx, func(tx *store.Tx) error {
		if err := tx.InsertAuction(ctx, rec); err != nil {
			return err
		}
		if err := tx.MoveAsset(ctx, rec.Asset, rec.Seller, rec.CustodyAccount()); err != nil {
			return auction.WrapCustody(rec.ID, err)
		}
		entry, err := audit.New(rec.ID, e.seq.Next(), audit.OpCreate, string(rec.Seller), 0, string(rec.CustodyAccount()))
		if err != nil {
			return err
		}
		return tx.AppendAudit(ctx, entry)
	})
	if err != nil {
		return nil, err
	}

	slog.Info("auction created",
		"op", token,
		"auction", rec.ID,
		"seller", rec.Seller,
		"asset", rec.Asset,
		"reserve_price", rec.ReservePrice,
		"bid_increment", rec.BidIncrement,
		"start", rec.StartTime,
		"end", rec.EndTime,
	)
	return rec, nil
}

// PlaceBid validates and applies one bid. An empty fundsSource defaults to
// the bidder's own account.
//
// Precondition order is the contract: window, amount, identity, funds. The
// refund of the previous escrow is released before the new bid is captured,
// so the auction never holds more than one bidder's funds; both transfers
// and the record update share the atomic unit, so a failure anywhere leaves
// every balance untouched.
func (e *Engine) PlaceBid(ctx context.Context, auctionID string, bidder auction.AccountID, amount int64, fundsSource auction.AccountID) (*auction.Record, error) {
	if fundsSource == "" {
		fundsSource = bidder
	}
	now := e.clock.Now()
	token := e.tokens.Generate()

	var rec *auction.Record
	err := e.store.Apply(ctx, func(tx *store.Tx) error {
		var err error
		rec, err = tx.GetAuction(ctx, auctionID)
		if err != nil {
			if auction.CodeOf(err) == auction.CodeAuctionNotFound {
				return auction.ErrNotOpenMissing(auctionID)
			}
			return err
		}

		if err := rec.CheckBid(now, bidder, amount); err != nil {
			return err
		}

		available, err := tx.Balance(ctx, fundsSource)
		if err != nil {
			return fmt.Errorf("read funds source: %w", err)
		}
		if err := rec.CheckFunds(fundsSource, amount, available); err != nil {
			return err
		}

		custody := rec.CustodyAccount()

		// Release the outbid party's escrow before capturing the new
		// bid, so escrow never exceeds one bidder's worth.
		if prev, refund, ok := rec.OutbidRefund(); ok {
			if err := e.transfer(ctx, tx, custody, prev, refund); err != nil {
				return auction.WrapCustody(auctionID, err)
			}
			entry, err := audit.New(auctionID, e.seq.Next(), audit.OpRefund, string(bidder), refund, string(prev))
			if err != nil {
				return err
			}
			if err := tx.AppendAudit(ctx, entry); err != nil {
				return err
			}
		}

		if err := e.transfer(ctx, tx, fundsSource, custody, amount); err != nil {
			return auction.WrapCustody(auctionID, err)
		}

		rec.ApplyBid(bidder, amount)
		if err := tx.UpdateAuction(ctx, rec); err != nil {
			return err
		}

		entry, err := audit.New(auctionID, e.seq.Next(), audit.OpBid, string(bidder), amount, string(custody))
		if err != nil {
			return err
		}
		return tx.AppendAudit(ctx, entry)
	})
	if err != nil {
		logRejection("bid rejected", token, auctionID, err,
			"bidder", bidder, "amount", amount)
		return nil, err
	}

	slog.Info("bid accepted",
		"op", token,
		"auction", auctionID,
		"bidder", bidder,
		"amount", amount,
		"escrowed", rec.EscrowedAmount,
	)
	return rec, nil
}

// Finalize settles a closed auction: escrow to the seller and the asset to
// the winner, or the asset back to the seller when no qualifying bid was
// placed. Permissionless by design - the payout is computed entirely from
// record state - but the caller identity lands in the audit trail.
//
// Idempotent: the persisted settled flag makes a second call fail with
// ALREADY_SETTLED and move nothing.
func (e *Engine) Finalize(ctx context.Context, auctionID string, caller auction.AccountID) (*auction.Record, error) {
	now := e.clock.Now()
	token := e.tokens.Generate()

	var rec *auction.Record
	err := e.store.Apply(ctx, func(tx *store.Tx) error {
		var err error
		rec, err = tx.GetAuction(ctx, auctionID)
		if err != nil {
			return err
		}

		if err := rec.CheckFinalize(now); err != nil {
			return err
		}

		plan := rec.Settlement()
		custody := rec.CustodyAccount()

		if plan.Winner.Valid {
			if err := e.transfer(ctx, tx, custody, rec.Seller, plan.Proceeds); err != nil {
				return auction.WrapSettlement(auctionID, err)
			}
			entry, err := audit.New(auctionID, e.seq.Next(), audit.OpPayout, string(caller), plan.Proceeds, string(rec.Seller))
			if err != nil {
				return err
			}
			if err := tx.AppendAudit(ctx, entry); err != nil {
				return err
			}

			if err := tx.MoveAsset(ctx, rec.Asset, custody, plan.AssetTo); err != nil {
				return auction.WrapSettlement(auctionID, err)
			}
			entry, err = audit.New(auctionID, e.seq.Next(), audit.OpAssetTransfer, string(caller), 0, string(plan.AssetTo))
			if err != nil {
				return err
			}
			if err := tx.AppendAudit(ctx, entry); err != nil {
				return err
			}
		} else {
			if err := tx.MoveAsset(ctx, rec.Asset, custody, rec.Seller); err != nil {
				return auction.WrapSettlement(auctionID, err)
			}
			entry, err := audit.New(auctionID, e.seq.Next(), audit.OpAssetReturn, string(caller), 0, string(rec.Seller))
			if err != nil {
				return err
			}
			if err := tx.AppendAudit(ctx, entry); err != nil {
				return err
			}
		}

		rec.MarkSettled(caller)
		if err := tx.UpdateAuction(ctx, rec); err != nil {
			return err
		}

		entry, err := audit.New(auctionID, e.seq.Next(), audit.OpSettle, string(caller), 0, "")
		if err != nil {
			return err
		}
		return tx.AppendAudit(ctx, entry)
	})
	if err != nil {
		logRejection("finalize rejected", token, auctionID, err,
			"caller", caller)
		return nil, err
	}

	proceeds := int64(0)
	if rec.HighestBidder.Valid {
		proceeds = rec.HighestBid
	}
	slog.Info("auction settled",
		"op", token,
		"auction", auctionID,
		"caller", caller,
		"winner", winnerLabel(rec),
		"proceeds", proceeds,
	)
	return rec, nil
}

// Fund credits an account on the custody ledger. Operational seeding only;
// real deployments would feed the ledger from an external custody bridge.
func (e *Engine) Fund(ctx context.Context, account auction.AccountID, amount int64) error {
	return e.store.Apply(ctx, func(tx *store.Tx) error {
		return tx.Credit(ctx, account, amount)
	})
}

// SeedAsset registers an asset under an owner.
func (e *Engine) SeedAsset(ctx context.Context, asset auction.AssetID, owner auction.AccountID) error {
	return e.store.Apply(ctx, func(tx *store.Tx) error {
		return tx.PutAsset(ctx, asset, owner)
	})
}

// GetAuction reads the record for inspection.
func (e *Engine) GetAuction(ctx context.Context, auctionID string) (*auction.Record, error) {
	return e.store.GetAuction(ctx, auctionID)
}

// Trace returns the auction's audit trail in seq order.
func (e *Engine) Trace(ctx context.Context, auctionID string) ([]audit.Entry, error) {
	return e.store.ReadTrace(ctx, auctionID)
}

// Now exposes the engine's clock reading, used by the CLI to default the
// auction start time.
func (e *Engine) Now() time.Time {
	return e.clock.Now()
}

// transfer moves funds between two ledger accounts: debit then credit,
// same atomic unit.
func (e *Engine) transfer(ctx context.Context, tx *store.Tx, from, to auction.AccountID, amount int64) error {
	if err := tx.Debit(ctx, from, amount); err != nil {
		return err
	}
	return tx.Credit(ctx, to, amount)
}

// logRejection logs a failed operation. Expected precondition rejections
// log at debug - they are part of normal contention - while unexpected
// failures log at error.
func logRejection(msg, token, auctionID string, err error, extra ...any) {
	args := append([]any{"op", token, "auction", auctionID, "error", err}, extra...)
	var ae *auction.Error
	if errors.As(err, &ae) && !auction.IsCustodyFailure(err) {
		slog.Debug(msg, args...)
		return
	}
	slog.Error(msg, args...)
}

func winnerLabel(rec *auction.Record) string {
	if rec.HighestBidder.Valid {
		return string(rec.HighestBidder.Account)
	}
	return "(none)"
}
