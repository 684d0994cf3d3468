package lifecycle

import (
	"auction-engine/internal/auctionerrors"
	"auction-engine/internal/models"
	"auction-engine/internal/notifier"
	"auction-engine/internal/repository"
	"auction-engine/monitoring"
	"auction-engine/utils"
	"errors"
	"fmt"
	"time"
)

// LifecycleService holds the two periodic sweep operations. Both are
// stateless and idempotent: the external timer may invoke them on any
// cadence, in any order, and concurrently with themselves.
type LifecycleService struct {
	repo repository.AuctionDB
	now  func() time.Time
}

// NewLifecycleService creates a new LifecycleService instance.
func NewLifecycleService(repo repository.AuctionDB) *LifecycleService {
	return &LifecycleService{
		repo: repo,
		now:  func() time.Time { return time.Now().UTC() },
	}
}

// ActivateScheduled promotes every scheduled auction whose start time has
// passed to active and returns how many were promoted. A second call with
// nothing newly due returns zero and writes nothing.
func (s *LifecycleService) ActivateScheduled() (int, error) {
	activated, err := s.repo.ActivateDue(s.now())
	if err != nil {
		return 0, fmt.Errorf("lifecycle: activation sweep failed: %w", err)
	}

	for _, a := range activated {
		utils.Info("auction activated", map[string]any{
			"auction_id": a.AuctionID,
			"ends_at":    a.EndsAt.UTC().Format(time.RFC3339),
		})
	}
	monitoring.AuctionsActivated(len(activated))
	return len(activated), nil
}

// CloseExpired finalizes every active auction whose deadline has passed and
// returns how many this invocation closed. Rows are claimed one at a time
// with try-lock semantics: a row held by a concurrent sweep, or already
// finalized by one, is skipped for this pass. One auction's failure is
// logged and skipped without aborting the rest of the batch.
func (s *LifecycleService) CloseExpired() (int, error) {
	now := s.now()
	expired, err := s.repo.ListExpired(now)
	if err != nil {
		return 0, fmt.Errorf("lifecycle: closing sweep failed to list expired auctions: %w", err)
	}

	closed := 0
	for _, auctionID := range expired {
		err := s.repo.CloseAuctionTx(auctionID, now, func(a models.Auction, winning *models.Bid) (repository.CloseTxn, error) {
			return s.finalize(a, winning, now)
		})
		switch {
		case err == nil:
			closed++
		case errors.Is(err, auctionerrors.ErrRowClaimed):
			// Another invocation owns or already finalized this row.
		default:
			utils.Error("failed to close expired auction", map[string]any{
				"auction_id": auctionID,
				"error":      err.Error(),
			})
		}
	}
	monitoring.AuctionsClosed(closed)
	return closed, nil
}

// finalize decides one claimed auction's outcome. No winning bid, or a
// winning bid below the reserve price, closes it unsold with no winner
// recorded. Otherwise the auction ends with a winner notification and a
// pending payment record, both in the same atomic unit as the status flip.
func (s *LifecycleService) finalize(a models.Auction, winning *models.Bid, now time.Time) (repository.CloseTxn, error) {
	if winning == nil {
		utils.Info("auction closed unsold", map[string]any{"auction_id": a.AuctionID, "reason": "no bids"})
		return repository.CloseTxn{Status: models.StatusUnsold}, nil
	}
	if a.ReservePrice != nil && winning.Amount.LessThan(*a.ReservePrice) {
		utils.Info("auction closed unsold", map[string]any{
			"auction_id":    a.AuctionID,
			"reason":        "reserve not met",
			"winning_bid":   winning.Amount.String(),
			"reserve_price": a.ReservePrice.String(),
		})
		return repository.CloseTxn{Status: models.StatusUnsold}, nil
	}

	winnerID := winning.BidderID
	notification := notifier.Winner(winnerID, a.AuctionID, a.Title, winning.Amount, now)
	payment := models.PaymentRecord{
		PaymentID: utils.GenerateID(),
		AuctionID: a.AuctionID,
		BidderID:  winnerID,
		Amount:    winning.Amount,
		Status:    models.PaymentPending,
		CreatedAt: now,
	}

	utils.Info("auction closed with winner", map[string]any{
		"auction_id": a.AuctionID,
		"winner_id":  winnerID,
		"amount":     winning.Amount.String(),
	})
	return repository.CloseTxn{
		Status:       models.StatusEnded,
		WinnerID:     &winnerID,
		Notification: &notification,
		Payment:      &payment,
	}, nil
}
