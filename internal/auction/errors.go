package auction

import (
	"errors"
	"fmt"
	"time"
)

// Code categorizes auction operation failures. Codes are stable strings:
// they appear in CLI output, scenario expectations, and the audit trail.
type Code string

const (
	// Validation failures: the request violates a precondition. Nothing
	// changed; the caller may correct and resubmit.
	CodeInvalidParameters    Code = "INVALID_PARAMETERS"
	CodeInvalidWindow        Code = "INVALID_WINDOW"
	CodeAuctionNotOpen       Code = "AUCTION_NOT_OPEN"
	CodeBidTooLow            Code = "BID_TOO_LOW"
	CodeAlreadyHighestBidder Code = "ALREADY_HIGHEST_BIDDER"
	CodeAuctionNotYetEnded   Code = "AUCTION_NOT_YET_ENDED"
	CodeAlreadySettled       Code = "ALREADY_SETTLED"

	// Resource failures: a required resource is missing.
	CodeAuctionNotFound    Code = "AUCTION_NOT_FOUND"
	CodeDuplicateAuctionID Code = "DUPLICATE_AUCTION_ID"
	CodeInsufficientFunds  Code = "INSUFFICIENT_FUNDS"

	// Custody failures: the ledger could not move funds or the asset. The
	// whole operation rolls back with no partial effect.
	CodeCustodyTransferFailed    Code = "CUSTODY_TRANSFER_FAILED"
	CodeSettlementTransferFailed Code = "SETTLEMENT_TRANSFER_FAILED"
)

// Error is a rejected auction operation. Every precondition failure and
// custody failure surfaces as one of these, carrying the stable Code plus
// enough context to diagnose without re-reading the record.
type Error struct {
	Code      Code
	Message   string
	AuctionID string
	Details   map[string]string
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.AuctionID != "" {
		return fmt.Sprintf("%s: %s (auction=%s)", e.Code, e.Message, e.AuctionID)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// CodeOf extracts the auction error code from err, unwrapping as needed.
// Returns "" if err is nil or not an auction error.
func CodeOf(err error) Code {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Code
	}
	return ""
}

// IsCustodyFailure reports whether err is a ledger transfer failure, i.e.
// one of the two codes whose retry policy belongs to the caller.
func IsCustodyFailure(err error) bool {
	switch CodeOf(err) {
	case CodeCustodyTransferFailed, CodeSettlementTransferFailed:
		return true
	}
	return false
}

func newError(code Code, message, auctionID string) *Error {
	return &Error{Code: code, Message: message, AuctionID: auctionID}
}

func errInvalidWindow(auctionID string, start, end time.Time) *Error {
	return &Error{
		Code:      CodeInvalidWindow,
		Message:   "start time must be before end time",
		AuctionID: auctionID,
		Details: map[string]string{
			"start_time": start.UTC().Format(time.RFC3339),
			"end_time":   end.UTC().Format(time.RFC3339),
		},
	}
}

func errNotOpen(auctionID string, phase Phase) *Error {
	return &Error{
		Code:      CodeAuctionNotOpen,
		Message:   fmt.Sprintf("auction is %s, not open for bidding", phase),
		AuctionID: auctionID,
		Details:   map[string]string{"phase": phase.String()},
	}
}

func errBidTooLow(auctionID string, amount, minimum int64) *Error {
	return &Error{
		Code:      CodeBidTooLow,
		Message:   fmt.Sprintf("bid %d is below minimum %d", amount, minimum),
		AuctionID: auctionID,
		Details: map[string]string{
			"bid_amount":  fmt.Sprintf("%d", amount),
			"minimum_bid": fmt.Sprintf("%d", minimum),
		},
	}
}

func errAlreadyHighest(auctionID string, bidder AccountID) *Error {
	return &Error{
		Code:      CodeAlreadyHighestBidder,
		Message:   "bidder already holds the highest bid",
		AuctionID: auctionID,
		Details:   map[string]string{"bidder": string(bidder)},
	}
}

func errInsufficientFunds(auctionID string, source AccountID, amount, available int64) *Error {
	return &Error{
		Code:      CodeInsufficientFunds,
		Message:   fmt.Sprintf("account %s holds %d, bid requires %d", source, available, amount),
		AuctionID: auctionID,
		Details: map[string]string{
			"funds_source": string(source),
			"required":     fmt.Sprintf("%d", amount),
			"available":    fmt.Sprintf("%d", available),
		},
	}
}

func errNotYetEnded(auctionID string, now, end time.Time) *Error {
	return &Error{
		Code:      CodeAuctionNotYetEnded,
		Message:   "auction window has not closed",
		AuctionID: auctionID,
		Details: map[string]string{
			"now":      now.UTC().Format(time.RFC3339),
			"end_time": end.UTC().Format(time.RFC3339),
		},
	}
}

func errAlreadySettled(auctionID string) *Error {
	return newError(CodeAlreadySettled, "auction has already been settled", auctionID)
}

// ErrNotOpenMissing reports a bid against an auction id with no record. The
// bid contract folds record existence into its first precondition, so the
// bidder sees AUCTION_NOT_OPEN rather than a distinct lookup error.
func ErrNotOpenMissing(auctionID string) *Error {
	return &Error{
		Code:      CodeAuctionNotOpen,
		Message:   "no auction record with this id",
		AuctionID: auctionID,
		Details:   map[string]string{"reason": "not_found"},
	}
}

// ErrNotFound builds the missing-record error shared by reads and finalize.
func ErrNotFound(auctionID string) *Error {
	return newError(CodeAuctionNotFound, "no auction record with this id", auctionID)
}

// ErrDuplicateID builds the create-time collision error.
func ErrDuplicateID(auctionID string) *Error {
	return newError(CodeDuplicateAuctionID, "an auction with this id already exists", auctionID)
}

// WrapCustody wraps a ledger failure from the bidding path. The underlying
// cause is preserved in the message; the code tells callers the whole
// operation rolled back.
func WrapCustody(auctionID string, err error) *Error {
	return newError(CodeCustodyTransferFailed, fmt.Sprintf("custody transfer failed: %v", err), auctionID)
}

// WrapSettlement wraps a ledger failure from the finalize path.
func WrapSettlement(auctionID string, err error) *Error {
	return newError(CodeSettlementTransferFailed, fmt.Sprintf("settlement transfer failed: %v", err), auctionID)
}
