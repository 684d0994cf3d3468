package helpers

import (
	"time"

	model "auction-engine/internal/models"
)

// Request/Response DTOs. Monetary amounts cross the wire as decimal
// strings so nothing ever rounds through a float.
type PlaceBidRequest struct {
	BidderID string `json:"bidder_id" binding:"required"`
	Amount   string `json:"amount" binding:"required"`
}

type BidReceiptResponse struct {
	BidID    string `json:"bid_id"`
	Amount   string `json:"amount"`
	NewPrice string `json:"new_price"`
	BidCount int    `json:"bid_count"`
}

type CreateAuctionRequest struct {
	Title            string  `json:"title" binding:"required"`
	CategoryID       string  `json:"category_id"`
	StartingPrice    string  `json:"starting_price" binding:"required"`
	ReservePrice     *string `json:"reserve_price,omitempty"`
	BidIncrement     string  `json:"bid_increment" binding:"required"`
	StartsAt         string  `json:"starts_at" binding:"required"`
	EndsAt           string  `json:"ends_at" binding:"required"`
	AntiSnipeSeconds int     `json:"anti_snipe_seconds"`
	CreatedBy        string  `json:"created_by"`
	Scheduled        bool    `json:"scheduled"`
}

type UpdateAuctionRequest struct {
	Title            *string `json:"title,omitempty"`
	CategoryID       *string `json:"category_id,omitempty"`
	StartingPrice    *string `json:"starting_price,omitempty"`
	ReservePrice     *string `json:"reserve_price,omitempty"`
	BidIncrement     *string `json:"bid_increment,omitempty"`
	StartsAt         *string `json:"starts_at,omitempty"`
	EndsAt           *string `json:"ends_at,omitempty"`
	AntiSnipeSeconds *int    `json:"anti_snipe_seconds,omitempty"`
}

type AuctionResponse struct {
	AuctionID        string  `json:"auction_id"`
	Title            string  `json:"title"`
	CategoryID       string  `json:"category_id"`
	StartingPrice    string  `json:"starting_price"`
	ReservePrice     *string `json:"reserve_price,omitempty"`
	CurrentPrice     string  `json:"current_price"`
	BidIncrement     string  `json:"bid_increment"`
	BidCount         int     `json:"bid_count"`
	Status           string  `json:"status"`
	StartsAt         string  `json:"starts_at"`
	EndsAt           string  `json:"ends_at"`
	OriginalEndTime  string  `json:"original_end_time"`
	AntiSnipeSeconds int     `json:"anti_snipe_seconds"`
	WinnerID         *string `json:"winner_id,omitempty"`
	CreatedBy        string  `json:"created_by"`
	CreatedAt        string  `json:"created_at"`
	UpdatedAt        string  `json:"updated_at"`
}

// NewAuctionResponse converts an auction row into its wire shape.
func NewAuctionResponse(a model.Auction) AuctionResponse {
	resp := AuctionResponse{
		AuctionID:        a.AuctionID,
		Title:            a.Title,
		CategoryID:       a.CategoryID,
		StartingPrice:    a.StartingPrice.String(),
		CurrentPrice:     a.CurrentPrice.String(),
		BidIncrement:     a.BidIncrement.String(),
		BidCount:         a.BidCount,
		Status:           string(a.Status),
		StartsAt:         a.StartsAt.UTC().Format(time.RFC3339),
		EndsAt:           a.EndsAt.UTC().Format(time.RFC3339),
		OriginalEndTime:  a.OriginalEndTime.UTC().Format(time.RFC3339),
		AntiSnipeSeconds: int(a.AntiSnipeWindow / time.Second),
		WinnerID:         a.WinnerID,
		CreatedBy:        a.CreatedBy,
		CreatedAt:        a.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAt:        a.UpdatedAt.UTC().Format(time.RFC3339),
	}
	if a.ReservePrice != nil {
		rp := a.ReservePrice.String()
		resp.ReservePrice = &rp
	}
	return resp
}

type BidResponse struct {
	BidID     string `json:"bid_id"`
	AuctionID string `json:"auction_id"`
	BidderID  string `json:"bidder_id"`
	Amount    string `json:"amount"`
	IsWinning bool   `json:"is_winning"`
	CreatedAt string `json:"created_at"`
}

// NewBidResponse converts a bid row into its wire shape.
func NewBidResponse(b model.Bid) BidResponse {
	return BidResponse{
		BidID:     b.BidID,
		AuctionID: b.AuctionID,
		BidderID:  b.BidderID,
		Amount:    b.Amount.String(),
		IsWinning: b.IsWinning,
		CreatedAt: b.CreatedAt.UTC().Format(time.RFC3339),
	}
}
