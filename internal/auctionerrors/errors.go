package auctionerrors

import "errors"

// Repository-level errors
var (
	ErrAuctionNotFound = errors.New("auction not found")
	ErrBidderNotFound  = errors.New("bidder not found")
	ErrNoBids          = errors.New("no bids found for auction")
	ErrRowClaimed      = errors.New("auction row claimed by another worker")
	ErrTransientStore  = errors.New("store temporarily unavailable")
)

// business logic errors
var (
	ErrInvalidInput      = errors.New("invalid input")
	ErrInvalidBid        = errors.New("invalid bid")
	ErrBidTooLow         = errors.New("bid amount below required minimum")
	ErrInvalidState      = errors.New("operation not allowed in current auction state")
	ErrForbidden         = errors.New("bidder is not allowed to bid")
	ErrInvalidTransition = errors.New("illegal auction status transition")
)
