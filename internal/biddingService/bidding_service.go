package bidding

import (
	"auction-engine/internal/auctionerrors"
	"auction-engine/internal/models"
	"auction-engine/internal/notifier"
	"auction-engine/internal/repository"
	"auction-engine/monitoring"
	"auction-engine/utils"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// BidReceipt is what a bidder gets back for an accepted bid.
type BidReceipt struct {
	BidID    string          `json:"bid_id"`
	Amount   decimal.Decimal `json:"amount"`
	NewPrice decimal.Decimal `json:"new_price"`
	BidCount int             `json:"bid_count"`
}

// BiddingService defines the business logic for placing and reading bids.
type BiddingService struct {
	repo repository.AuctionDB
	now  func() time.Time
}

// NewBiddingService creates a new BiddingService instance.
func NewBiddingService(repo repository.AuctionDB) *BiddingService {
	return &BiddingService{
		repo: repo,
		now:  func() time.Time { return time.Now().UTC() },
	}
}

// PlaceBid validates and commits one bid as a single atomic unit: the
// displaced winner's flag flip, the bid insert, the price/count bump, any
// anti-snipe extension, and the outbid notification all land together or
// not at all. Validation runs with the auction row held exclusively, so a
// bid losing a race is re-checked against the winner's updated price.
func (s *BiddingService) PlaceBid(auctionID, bidderID string, amount decimal.Decimal) (BidReceipt, error) {
	if auctionID == "" || bidderID == "" {
		return BidReceipt{}, fmt.Errorf("service: %w - missing auctionID or bidderID", auctionerrors.ErrInvalidBid)
	}
	if !amount.IsPositive() {
		return BidReceipt{}, fmt.Errorf("service: %w - non-positive bid amount", auctionerrors.ErrInvalidBid)
	}

	bidder, err := s.repo.GetBidder(bidderID)
	if err != nil {
		return BidReceipt{}, fmt.Errorf("service: failed to look up bidder %s: %w", bidderID, err)
	}

	now := s.now()
	bid := models.Bid{
		BidID:     utils.GenerateID(),
		AuctionID: auctionID,
		BidderID:  bidderID,
		Amount:    amount,
		CreatedAt: now,
	}

	updated, err := s.repo.PlaceBidTx(auctionID, func(a models.Auction, winning *models.Bid) (repository.BidTxn, error) {
		if a.Status != models.StatusActive {
			return repository.BidTxn{}, fmt.Errorf("service: auction %s is %s: %w", auctionID, a.Status, auctionerrors.ErrInvalidState)
		}
		if now.After(a.EndsAt) {
			return repository.BidTxn{}, fmt.Errorf("service: auction %s already ended: %w", auctionID, auctionerrors.ErrInvalidState)
		}
		if minimum := a.MinimumNextBid(); amount.LessThan(minimum) {
			return repository.BidTxn{}, fmt.Errorf("service: %w - minimum bid is %s", auctionerrors.ErrBidTooLow, minimum.String())
		}
		// Eligibility is read at validation time, never cached.
		if bidder.IsBanned {
			return repository.BidTxn{}, fmt.Errorf("service: bidder %s is banned: %w", bidderID, auctionerrors.ErrForbidden)
		}

		txn := repository.BidTxn{
			Bid:       bid,
			NewPrice:  amount,
			NewEndsAt: a.EndsAt,
		}
		// Anti-snipe: a bid landing inside the trailing window pushes the
		// deadline out to now+window. The extension never shortens EndsAt
		// and leaves OriginalEndTime untouched.
		if a.EndsAt.Sub(now) < a.AntiSnipeWindow {
			txn.NewEndsAt = now.Add(a.AntiSnipeWindow)
		}
		if winning != nil && winning.BidderID != bidderID {
			n := notifier.Outbid(winning.BidderID, a.AuctionID, a.Title, amount, now)
			txn.Outbid = &n
		}
		return txn, nil
	})
	if err != nil {
		monitoring.BidRejected(auctionID)
		return BidReceipt{}, err
	}

	monitoring.BidAccepted(auctionID)
	utils.Info("bid accepted", map[string]any{
		"auction_id": auctionID,
		"bidder_id":  bidderID,
		"bid_id":     bid.BidID,
		"amount":     amount.String(),
		"bid_count":  updated.BidCount,
	})

	return BidReceipt{
		BidID:    bid.BidID,
		Amount:   amount,
		NewPrice: updated.CurrentPrice,
		BidCount: updated.BidCount,
	}, nil
}

// GetBidsForAuction returns all bids placed on an auction.
func (s *BiddingService) GetBidsForAuction(auctionID string) ([]models.Bid, error) {
	if auctionID == "" {
		return nil, fmt.Errorf("service: %w - empty auction ID", auctionerrors.ErrInvalidBid)
	}

	bids, err := s.repo.GetBidsByAuction(auctionID)
	if err != nil {
		return nil, fmt.Errorf("service: failed to get bids for auction %s: %w", auctionID, err)
	}
	return bids, nil
}

// GetWinningBid returns the bid currently marked winning for an auction.
func (s *BiddingService) GetWinningBid(auctionID string) (models.Bid, error) {
	if auctionID == "" {
		return models.Bid{}, fmt.Errorf("service: %w - empty auction ID", auctionerrors.ErrInvalidBid)
	}

	winning, err := s.repo.GetWinningBid(auctionID)
	if err != nil {
		return models.Bid{}, fmt.Errorf("service: failed to get winning bid for auction %s: %w", auctionID, err)
	}
	return winning, nil
}
