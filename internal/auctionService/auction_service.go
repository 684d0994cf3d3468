package auctions

import (
	"auction-engine/internal/auctionerrors"
	"auction-engine/internal/models"
	"auction-engine/internal/repository"
	"auction-engine/utils"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// CreateParams carries the admin-supplied fields for a new auction.
type CreateParams struct {
	Title           string
	CategoryID      string
	StartingPrice   decimal.Decimal
	ReservePrice    *decimal.Decimal
	BidIncrement    decimal.Decimal
	StartsAt        time.Time
	EndsAt          time.Time
	AntiSnipeWindow time.Duration
	CreatedBy       string
	Scheduled       bool // create directly in scheduled instead of draft
}

// UpdateParams carries optional field updates for a draft auction; nil
// means leave the field alone.
type UpdateParams struct {
	Title           *string
	CategoryID      *string
	StartingPrice   *decimal.Decimal
	ReservePrice    *decimal.Decimal
	BidIncrement    *decimal.Decimal
	StartsAt        *time.Time
	EndsAt          *time.Time
	AntiSnipeWindow *time.Duration
}

// AuctionService defines the admin and read operations on auctions. It
// enforces only the status state machine; field validity beyond basic
// sanity belongs to the admin tooling supplying the values.
type AuctionService struct {
	repo repository.AuctionDB
	now  func() time.Time
}

// NewAuctionService creates a new AuctionService instance.
func NewAuctionService(repo repository.AuctionDB) *AuctionService {
	return &AuctionService{
		repo: repo,
		now:  func() time.Time { return time.Now().UTC() },
	}
}

// CreateAuction stores a new auction in draft (or scheduled) status. The
// end time supplied here is snapshotted as OriginalEndTime and never
// written again; anti-snipe extensions only ever move EndsAt.
func (s *AuctionService) CreateAuction(p CreateParams) (models.Auction, error) {
	if p.Title == "" {
		return models.Auction{}, fmt.Errorf("service: %w - missing title", auctionerrors.ErrInvalidInput)
	}
	if !p.StartingPrice.IsPositive() || !p.BidIncrement.IsPositive() {
		return models.Auction{}, fmt.Errorf("service: %w - starting price and bid increment must be positive", auctionerrors.ErrInvalidInput)
	}
	if !p.EndsAt.After(p.StartsAt) {
		return models.Auction{}, fmt.Errorf("service: %w - ends_at must be after starts_at", auctionerrors.ErrInvalidInput)
	}

	status := models.StatusDraft
	if p.Scheduled {
		status = models.StatusScheduled
	}
	now := s.now()
	a := models.Auction{
		AuctionID:       utils.GenerateID(),
		Title:           p.Title,
		CategoryID:      p.CategoryID,
		StartingPrice:   p.StartingPrice,
		ReservePrice:    p.ReservePrice,
		CurrentPrice:    p.StartingPrice,
		BidIncrement:    p.BidIncrement,
		Status:          status,
		StartsAt:        p.StartsAt,
		EndsAt:          p.EndsAt,
		OriginalEndTime: p.EndsAt,
		AntiSnipeWindow: p.AntiSnipeWindow,
		CreatedBy:       p.CreatedBy,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if err := s.repo.CreateAuction(a); err != nil {
		return models.Auction{}, fmt.Errorf("service: failed to create auction: %w", err)
	}

	utils.Info("auction created", map[string]any{
		"auction_id": a.AuctionID,
		"title":      a.Title,
		"status":     string(a.Status),
	})
	return a, nil
}

// UpdateAuction applies field updates to a draft auction. Anything past
// draft is owned by the engine and rejected.
func (s *AuctionService) UpdateAuction(auctionID string, p UpdateParams) (models.Auction, error) {
	updated, err := s.repo.UpdateAuction(auctionID, func(a *models.Auction) error {
		if a.Status != models.StatusDraft {
			return fmt.Errorf("service: auction %s is %s, only drafts are editable: %w", auctionID, a.Status, auctionerrors.ErrInvalidState)
		}
		if p.Title != nil {
			a.Title = *p.Title
		}
		if p.CategoryID != nil {
			a.CategoryID = *p.CategoryID
		}
		if p.StartingPrice != nil {
			a.StartingPrice = *p.StartingPrice
			a.CurrentPrice = *p.StartingPrice
		}
		if p.ReservePrice != nil {
			a.ReservePrice = p.ReservePrice
		}
		if p.BidIncrement != nil {
			a.BidIncrement = *p.BidIncrement
		}
		if p.StartsAt != nil {
			a.StartsAt = *p.StartsAt
		}
		if p.EndsAt != nil {
			a.EndsAt = *p.EndsAt
			a.OriginalEndTime = *p.EndsAt
		}
		if p.AntiSnipeWindow != nil {
			a.AntiSnipeWindow = *p.AntiSnipeWindow
		}
		a.UpdatedAt = s.now()
		return nil
	})
	if err != nil {
		return models.Auction{}, err
	}
	return updated, nil
}

// ScheduleAuction moves a draft auction to scheduled so the activation
// sweep will pick it up.
func (s *AuctionService) ScheduleAuction(auctionID string) (models.Auction, error) {
	a, err := s.repo.TransitionStatus(auctionID, models.StatusScheduled)
	if err != nil {
		return models.Auction{}, fmt.Errorf("service: failed to schedule auction %s: %w", auctionID, err)
	}
	return a, nil
}

// CancelAuction cancels a draft, scheduled or active auction. Terminal
// statuses are rejected by the state machine.
func (s *AuctionService) CancelAuction(auctionID string) (models.Auction, error) {
	a, err := s.repo.TransitionStatus(auctionID, models.StatusCancelled)
	if err != nil {
		return models.Auction{}, fmt.Errorf("service: failed to cancel auction %s: %w", auctionID, err)
	}
	utils.Info("auction cancelled", map[string]any{"auction_id": auctionID})
	return a, nil
}

// GetAuction returns one auction.
func (s *AuctionService) GetAuction(auctionID string) (models.Auction, error) {
	a, err := s.repo.GetAuction(auctionID)
	if err != nil {
		return models.Auction{}, fmt.Errorf("service: failed to get auction %s: %w", auctionID, err)
	}
	return a, nil
}
