package repository

import (
	"auction-engine/internal/auctionerrors"
	model "auction-engine/internal/models"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/shopspring/decimal"
)

// BidTxn describes the atomic unit for one accepted bid. The store applies
// every field of it while holding the auction's row lock, or nothing at all.
type BidTxn struct {
	Bid       model.Bid       // inserted as the new winning bid
	NewPrice  decimal.Decimal // becomes the auction's current price
	NewEndsAt time.Time       // live deadline after any anti-snipe extension
	Outbid    *model.Notification
}

// CloseTxn describes the atomic unit finalizing one expired auction.
type CloseTxn struct {
	Status       model.AuctionStatus // ended or unsold
	WinnerID     *string
	Notification *model.Notification
	Payment      *model.PaymentRecord
}

//go:generate mockgen -source=repository.go -destination=mock_repository.go -package=repository

// AuctionDB defines the durable storage interface for the auction engine.
// Serialization of competing writers is the store's job: PlaceBidTx holds
// the auction's row exclusively for the whole read-validate-mutate unit,
// and CloseAuctionTx claims rows with try-lock semantics so concurrent
// sweeps skip, never wait on, each other's rows.
type AuctionDB interface {
	CreateAuction(a model.Auction) error
	GetAuction(auctionID string) (model.Auction, error)
	UpdateAuction(auctionID string, mutate func(a *model.Auction) error) (model.Auction, error)
	TransitionStatus(auctionID string, to model.AuctionStatus) (model.Auction, error)

	GetBidder(bidderID string) (model.BidderProfile, error)
	AddBidder(p model.BidderProfile) error

	GetBidsByAuction(auctionID string) ([]model.Bid, error)
	GetWinningBid(auctionID string) (model.Bid, error)
	PlaceBidTx(auctionID string, build func(a model.Auction, winning *model.Bid) (BidTxn, error)) (model.Auction, error)

	ActivateDue(now time.Time) ([]model.Auction, error)
	ListExpired(now time.Time) ([]string, error)
	CloseAuctionTx(auctionID string, now time.Time, finalize func(a model.Auction, winning *model.Bid) (CloseTxn, error)) error

	CreateNotification(n model.Notification) error
	ListNotificationsByBidder(bidderID string) ([]model.Notification, error)
	CreatePayment(p model.PaymentRecord) error
	ListPaymentsByAuction(auctionID string) ([]model.PaymentRecord, error)
}

// MemoryRepo is a concurrency-safe in-memory implementation of AuctionDB.
// mu guards the maps; each auction additionally owns a row mutex that
// serializes its bid placements and sweep finalization.
type MemoryRepo struct {
	mu            sync.RWMutex
	auctions      map[string]*model.Auction
	rowLocks      map[string]*sync.Mutex
	bids          map[string][]model.Bid           // key: auctionID
	bidders       map[string]model.BidderProfile   // key: bidderID
	notifications map[string][]model.Notification  // key: bidderID
	payments      map[string][]model.PaymentRecord // key: auctionID
}

// NewMemoryRepo creates a new in-memory repository instance.
func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{
		auctions:      make(map[string]*model.Auction),
		rowLocks:      make(map[string]*sync.Mutex),
		bids:          make(map[string][]model.Bid),
		bidders:       make(map[string]model.BidderProfile),
		notifications: make(map[string][]model.Notification),
		payments:      make(map[string][]model.PaymentRecord),
	}
}

// cloneAuction returns a defensive copy so callers never share pointers
// into the live row.
func cloneAuction(a *model.Auction) model.Auction {
	out := *a
	if a.ReservePrice != nil {
		rp := *a.ReservePrice
		out.ReservePrice = &rp
	}
	if a.WinnerID != nil {
		w := *a.WinnerID
		out.WinnerID = &w
	}
	return out
}

// CreateAuction stores a new auction row and allocates its row lock.
func (r *MemoryRepo) CreateAuction(a model.Auction) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.auctions[a.AuctionID]; ok {
		return fmt.Errorf("create auction %s: already exists", a.AuctionID)
	}
	row := cloneAuction(&a)
	r.auctions[a.AuctionID] = &row
	r.rowLocks[a.AuctionID] = &sync.Mutex{}
	return nil
}

// GetAuction returns a copy of the auction row.
func (r *MemoryRepo) GetAuction(auctionID string) (model.Auction, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	a, ok := r.auctions[auctionID]
	if !ok {
		return model.Auction{}, fmt.Errorf("get auction %s: %w", auctionID, auctionerrors.ErrAuctionNotFound)
	}
	return cloneAuction(a), nil
}

// rowLock fetches the per-auction mutex, or ErrAuctionNotFound.
func (r *MemoryRepo) rowLock(auctionID string) (*sync.Mutex, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	rl, ok := r.rowLocks[auctionID]
	if !ok {
		return nil, fmt.Errorf("lock auction %s: %w", auctionID, auctionerrors.ErrAuctionNotFound)
	}
	return rl, nil
}

// UpdateAuction runs mutate against the live row under its row lock. An
// error from mutate leaves the row untouched.
func (r *MemoryRepo) UpdateAuction(auctionID string, mutate func(a *model.Auction) error) (model.Auction, error) {
	rl, err := r.rowLock(auctionID)
	if err != nil {
		return model.Auction{}, err
	}
	rl.Lock()
	defer rl.Unlock()

	r.mu.Lock()
	defer r.mu.Unlock()

	row, ok := r.auctions[auctionID]
	if !ok {
		return model.Auction{}, fmt.Errorf("update auction %s: %w", auctionID, auctionerrors.ErrAuctionNotFound)
	}
	draft := cloneAuction(row)
	if err := mutate(&draft); err != nil {
		return model.Auction{}, err
	}
	r.auctions[auctionID] = &draft
	return cloneAuction(&draft), nil
}

// TransitionStatus applies a status change, rejecting anything the state
// machine does not allow.
func (r *MemoryRepo) TransitionStatus(auctionID string, to model.AuctionStatus) (model.Auction, error) {
	return r.UpdateAuction(auctionID, func(a *model.Auction) error {
		if !model.CanTransition(a.Status, to) {
			return fmt.Errorf("transition auction %s from %s to %s: %w",
				auctionID, a.Status, to, auctionerrors.ErrInvalidTransition)
		}
		a.Status = to
		a.UpdatedAt = time.Now().UTC()
		return nil
	})
}

// GetBidder returns the bidder's eligibility profile.
func (r *MemoryRepo) GetBidder(bidderID string) (model.BidderProfile, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.bidders[bidderID]
	if !ok {
		return model.BidderProfile{}, fmt.Errorf("get bidder %s: %w", bidderID, auctionerrors.ErrBidderNotFound)
	}
	return p, nil
}

// AddBidder registers a bidder profile.
func (r *MemoryRepo) AddBidder(p model.BidderProfile) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.bidders[p.BidderID] = p
	return nil
}

// GetBidsByAuction returns all bids for an auction, oldest first.
func (r *MemoryRepo) GetBidsByAuction(auctionID string) ([]model.Bid, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if _, ok := r.auctions[auctionID]; !ok {
		return nil, fmt.Errorf("get bids for auction %s: %w", auctionID, auctionerrors.ErrAuctionNotFound)
	}
	return append([]model.Bid(nil), r.bids[auctionID]...), nil
}

// GetWinningBid returns the bid currently flagged as winning.
func (r *MemoryRepo) GetWinningBid(auctionID string) (model.Bid, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.winningBidLocked(auctionID)
}

func (r *MemoryRepo) winningBidLocked(auctionID string) (model.Bid, error) {
	if _, ok := r.auctions[auctionID]; !ok {
		return model.Bid{}, fmt.Errorf("get winning bid for auction %s: %w", auctionID, auctionerrors.ErrAuctionNotFound)
	}
	for _, b := range r.bids[auctionID] {
		if b.IsWinning {
			return b, nil
		}
	}
	return model.Bid{}, fmt.Errorf("get winning bid for auction %s: %w", auctionID, auctionerrors.ErrNoBids)
}

// PlaceBidTx executes one bid's atomic unit. The auction's row lock is held
// for the whole of it, so two bids racing on the same auction are totally
// ordered: the later build call observes the earlier bid's updated price.
// build returning an error aborts with no writes.
func (r *MemoryRepo) PlaceBidTx(auctionID string, build func(a model.Auction, winning *model.Bid) (BidTxn, error)) (model.Auction, error) {
	rl, err := r.rowLock(auctionID)
	if err != nil {
		return model.Auction{}, err
	}
	rl.Lock()
	defer rl.Unlock()

	r.mu.Lock()
	defer r.mu.Unlock()

	row, ok := r.auctions[auctionID]
	if !ok {
		return model.Auction{}, fmt.Errorf("place bid on auction %s: %w", auctionID, auctionerrors.ErrAuctionNotFound)
	}

	var winning *model.Bid
	if prev, err := r.winningBidLocked(auctionID); err == nil {
		winning = &prev
	}

	txn, err := build(cloneAuction(row), winning)
	if err != nil {
		return model.Auction{}, err
	}

	// Commit: flip the displaced winner, insert the bid, update the row.
	if winning != nil {
		list := r.bids[auctionID]
		for i := range list {
			if list[i].BidID == winning.BidID {
				list[i].IsWinning = false
				break
			}
		}
	}
	txn.Bid.IsWinning = true
	r.bids[auctionID] = append(r.bids[auctionID], txn.Bid)

	row.CurrentPrice = txn.NewPrice
	row.BidCount++
	row.EndsAt = txn.NewEndsAt
	row.UpdatedAt = txn.Bid.CreatedAt

	if txn.Outbid != nil {
		n := *txn.Outbid
		r.notifications[n.BidderID] = append(r.notifications[n.BidderID], n)
	}
	return cloneAuction(row), nil
}

// ActivateDue flips every scheduled auction whose start time has passed to
// active and returns the activated rows. Calling again with nothing newly
// due changes nothing.
func (r *MemoryRepo) ActivateDue(now time.Time) ([]model.Auction, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var activated []model.Auction
	for _, row := range r.auctions {
		if row.Status == model.StatusScheduled && !row.StartsAt.After(now) {
			row.Status = model.StatusActive
			row.UpdatedAt = now
			activated = append(activated, cloneAuction(row))
		}
	}
	sort.Slice(activated, func(i, j int) bool { return activated[i].AuctionID < activated[j].AuctionID })
	return activated, nil
}

// ListExpired returns ids of active auctions whose deadline has passed.
// Candidates only; eligibility is re-checked under the row lock at close.
func (r *MemoryRepo) ListExpired(now time.Time) ([]string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var ids []string
	for id, row := range r.auctions {
		if row.Status == model.StatusActive && !row.EndsAt.After(now) {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	return ids, nil
}

// CloseAuctionTx finalizes one expired auction exactly once. The row is
// claimed with a try-lock: if another worker holds it, or it is no longer
// an expired active auction by the time the lock is won, ErrRowClaimed
// tells the caller to skip it this pass rather than wait.
func (r *MemoryRepo) CloseAuctionTx(auctionID string, now time.Time, finalize func(a model.Auction, winning *model.Bid) (CloseTxn, error)) error {
	rl, err := r.rowLock(auctionID)
	if err != nil {
		return err
	}
	if !rl.TryLock() {
		return fmt.Errorf("close auction %s: %w", auctionID, auctionerrors.ErrRowClaimed)
	}
	defer rl.Unlock()

	r.mu.Lock()
	defer r.mu.Unlock()

	row, ok := r.auctions[auctionID]
	if !ok {
		return fmt.Errorf("close auction %s: %w", auctionID, auctionerrors.ErrAuctionNotFound)
	}
	if row.Status != model.StatusActive || row.EndsAt.After(now) {
		return fmt.Errorf("close auction %s: %w", auctionID, auctionerrors.ErrRowClaimed)
	}

	var winning *model.Bid
	if w, err := r.winningBidLocked(auctionID); err == nil {
		winning = &w
	}

	txn, err := finalize(cloneAuction(row), winning)
	if err != nil {
		return err
	}

	row.Status = txn.Status
	row.WinnerID = txn.WinnerID
	row.UpdatedAt = now
	if txn.Notification != nil {
		n := *txn.Notification
		r.notifications[n.BidderID] = append(r.notifications[n.BidderID], n)
	}
	if txn.Payment != nil {
		p := *txn.Payment
		r.payments[p.AuctionID] = append(r.payments[p.AuctionID], p)
	}
	return nil
}

// CreateNotification appends a notification row.
func (r *MemoryRepo) CreateNotification(n model.Notification) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.notifications[n.BidderID] = append(r.notifications[n.BidderID], n)
	return nil
}

// ListNotificationsByBidder returns all notifications for a bidder,
// oldest first.
func (r *MemoryRepo) ListNotificationsByBidder(bidderID string) ([]model.Notification, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]model.Notification(nil), r.notifications[bidderID]...), nil
}

// CreatePayment appends a payment record.
func (r *MemoryRepo) CreatePayment(p model.PaymentRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.payments[p.AuctionID] = append(r.payments[p.AuctionID], p)
	return nil
}

// ListPaymentsByAuction returns all payment records for an auction.
func (r *MemoryRepo) ListPaymentsByAuction(auctionID string) ([]model.PaymentRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]model.PaymentRecord(nil), r.payments[auctionID]...), nil
}
