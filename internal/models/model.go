package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// AuctionStatus enumerates the lifecycle states of an auction.
type AuctionStatus string

const (
	StatusDraft     AuctionStatus = "draft"
	StatusScheduled AuctionStatus = "scheduled"
	StatusActive    AuctionStatus = "active"
	StatusEnded     AuctionStatus = "ended"
	StatusSold      AuctionStatus = "sold"
	StatusCancelled AuctionStatus = "cancelled"
	StatusUnsold    AuctionStatus = "unsold"
)

// allowedTransitions lists every legal status change. The sweeps perform
// scheduled->active and active->{ended,unsold}; the rest are driven by an
// external actor. Nothing re-enters draft or scheduled, and ended->sold
// belongs to the settlement workflow, never to this engine.
var allowedTransitions = map[AuctionStatus][]AuctionStatus{
	StatusDraft:     {StatusScheduled, StatusCancelled},
	StatusScheduled: {StatusActive, StatusCancelled},
	StatusActive:    {StatusEnded, StatusUnsold, StatusCancelled},
	StatusEnded:     {StatusSold},
}

// CanTransition reports whether moving an auction between the two statuses
// is legal.
func CanTransition(from, to AuctionStatus) bool {
	for _, next := range allowedTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// Auction represents a single listing with its live price state.
// OriginalEndTime keeps the end time fixed at creation for auditing;
// EndsAt is the live deadline and only moves forward, under anti-snipe
// extension.
type Auction struct {
	AuctionID       string           `json:"auction_id"`
	Title           string           `json:"title"`
	CategoryID      string           `json:"category_id"`
	StartingPrice   decimal.Decimal  `json:"starting_price"`
	ReservePrice    *decimal.Decimal `json:"reserve_price,omitempty"`
	CurrentPrice    decimal.Decimal  `json:"current_price"`
	BidIncrement    decimal.Decimal  `json:"bid_increment"`
	BidCount        int              `json:"bid_count"`
	Status          AuctionStatus    `json:"status"`
	StartsAt        time.Time        `json:"starts_at"`
	EndsAt          time.Time        `json:"ends_at"`
	OriginalEndTime time.Time        `json:"original_end_time"`
	AntiSnipeWindow time.Duration    `json:"anti_snipe_window"`
	WinnerID        *string          `json:"winner_id,omitempty"`
	CreatedBy       string           `json:"created_by"`
	CreatedAt       time.Time        `json:"created_at"`
	UpdatedAt       time.Time        `json:"updated_at"`
}

// MinimumNextBid returns the smallest amount the next bid must reach.
func (a Auction) MinimumNextBid() decimal.Decimal {
	return a.CurrentPrice.Add(a.BidIncrement)
}

// Bid represents one bidder's bid on an auction. At most one bid per
// auction carries IsWinning at any instant while the auction is active.
type Bid struct {
	BidID     string          `json:"bid_id"`
	AuctionID string          `json:"auction_id"`
	BidderID  string          `json:"bidder_id"`
	Amount    decimal.Decimal `json:"amount"`
	IsWinning bool            `json:"is_winning"`
	CreatedAt time.Time       `json:"created_at"`
}

// BidderProfile is the read-only eligibility record for a bidder.
type BidderProfile struct {
	BidderID    string `json:"bidder_id"`
	DisplayName string `json:"display_name"`
	Email       string `json:"email"`
	IsBanned    bool   `json:"is_banned"`
}

// NotificationType distinguishes the events the engine emits.
type NotificationType string

const (
	NotificationOutbid NotificationType = "outbid"
	NotificationWinner NotificationType = "winner"
)

// Notification is an append-only event row for a bidder, immutable once
// created apart from the read flag the display layer flips.
type Notification struct {
	NotificationID string           `json:"notification_id"`
	BidderID       string           `json:"bidder_id"`
	AuctionID      string           `json:"auction_id"`
	Type           NotificationType `json:"type"`
	Message        string           `json:"message"`
	Read           bool             `json:"read"`
	CreatedAt      time.Time        `json:"created_at"`
}

// PaymentStatus tracks a payment record's settlement state. Settlement
// happens outside this engine; rows are always created pending.
type PaymentStatus string

const PaymentPending PaymentStatus = "pending"

// PaymentRecord is created exactly once, when an auction closes with a
// reserve-meeting winner.
type PaymentRecord struct {
	PaymentID string          `json:"payment_id"`
	AuctionID string          `json:"auction_id"`
	BidderID  string          `json:"bidder_id"`
	Amount    decimal.Decimal `json:"amount"`
	Status    PaymentStatus   `json:"status"`
	CreatedAt time.Time       `json:"created_at"`
}
