package notifier

import (
	"auction-engine/internal/models"
	"auction-engine/internal/repository"
	"auction-engine/utils"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Outbid builds an unread outbid notification row referencing the auction
// title and the amount that displaced the bidder. Rows built here are
// persisted inside the same atomic unit as the bid that caused them.
func Outbid(bidderID, auctionID, title string, amount decimal.Decimal, now time.Time) models.Notification {
	return models.Notification{
		NotificationID: utils.GenerateID(),
		BidderID:       bidderID,
		AuctionID:      auctionID,
		Type:           models.NotificationOutbid,
		Message:        fmt.Sprintf("You have been outbid on %q. The price is now %s.", title, amount.String()),
		CreatedAt:      now,
	}
}

// Winner builds an unread winner notification row for a closed auction.
func Winner(bidderID, auctionID, title string, amount decimal.Decimal, now time.Time) models.Notification {
	return models.Notification{
		NotificationID: utils.GenerateID(),
		BidderID:       bidderID,
		AuctionID:      auctionID,
		Type:           models.NotificationWinner,
		Message:        fmt.Sprintf("You won %q with a bid of %s.", title, amount.String()),
		CreatedAt:      now,
	}
}

// Emitter appends notification rows for bidders. Persistence is the whole
// contract; delivery belongs to an external notification UI that polls.
type Emitter struct {
	repo repository.AuctionDB
}

// NewEmitter creates a new Emitter instance.
func NewEmitter(repo repository.AuctionDB) *Emitter {
	return &Emitter{repo: repo}
}

// Emit appends a notification row, unread. title is the auction title,
// carried only into the log line; message is what the bidder sees.
func (e *Emitter) Emit(bidderID, auctionID string, typ models.NotificationType, title, message string) (models.Notification, error) {
	n := models.Notification{
		NotificationID: utils.GenerateID(),
		BidderID:       bidderID,
		AuctionID:      auctionID,
		Type:           typ,
		Message:        message,
		CreatedAt:      time.Now().UTC(),
	}
	if err := e.repo.CreateNotification(n); err != nil {
		return models.Notification{}, fmt.Errorf("notifier: failed to emit %s notification for bidder %s: %w", typ, bidderID, err)
	}
	utils.Info("notification emitted", map[string]any{
		"notification_id": n.NotificationID,
		"bidder_id":       bidderID,
		"auction_id":      auctionID,
		"type":            string(typ),
		"auction_title":   title,
	})
	return n, nil
}

// ListForBidder returns every notification stored for a bidder.
func (e *Emitter) ListForBidder(bidderID string) ([]models.Notification, error) {
	notifications, err := e.repo.ListNotificationsByBidder(bidderID)
	if err != nil {
		return nil, fmt.Errorf("notifier: failed to list notifications for bidder %s: %w", bidderID, err)
	}
	return notifications, nil
}
