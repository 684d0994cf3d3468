package integrationtests

import (
	model "auction-engine/internal/models"
	"auction-engine/services/auction/helpers"
	"fmt"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func defaultBidders() []model.BidderProfile {
	return []model.BidderProfile{
		{BidderID: "bidder1", DisplayName: "Alice"},
		{BidderID: "bidder2", DisplayName: "Bob"},
		{BidderID: "banned1", DisplayName: "Mallory", IsBanned: true},
	}
}

func createAuctionRequest(startsAt, endsAt time.Time) helpers.CreateAuctionRequest {
	return helpers.CreateAuctionRequest{
		Title:            "Vintage Camera",
		CategoryID:       "cameras",
		StartingPrice:    "100",
		BidIncrement:     "5",
		StartsAt:         startsAt.Format(time.RFC3339),
		EndsAt:           endsAt.Format(time.RFC3339),
		AntiSnipeSeconds: 30,
		CreatedBy:        "admin1",
		Scheduled:        true,
	}
}

// Full lifecycle over HTTP: create scheduled, activate by sweep, bid, be
// outbid, expire, close by sweep, collect winner artifacts.
func TestAuctionLifecycle_EndToEnd(t *testing.T) {
	env := SetupTestEnv(defaultBidders()...)
	now := time.Now().UTC()

	// Created already due, so the next activation sweep picks it up.
	data, w := ExecuteRequestAndParse(t, env.Router, http.MethodPost, "/auctions",
		createAuctionRequest(now.Add(-time.Minute), now.Add(time.Hour)))
	require.Equal(t, http.StatusCreated, w.Code)
	auctionID := data["auction_id"].(string)
	require.Equal(t, "scheduled", data["status"])

	activated, err := env.Lifecycle.ActivateScheduled()
	require.NoError(t, err)
	require.Equal(t, 1, activated)

	data, w = ExecuteRequestAndParse(t, env.Router, http.MethodGet, "/auctions/"+auctionID, nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, "active", data["status"])

	// First bid.
	data, w = ExecuteRequestAndParse(t, env.Router, http.MethodPost, "/auctions/"+auctionID+"/bids",
		helpers.PlaceBidRequest{BidderID: "bidder1", Amount: "105"})
	require.Equal(t, http.StatusCreated, w.Code)
	require.Equal(t, "105", data["new_price"])
	require.Equal(t, float64(1), data["bid_count"])

	// Below the new minimum of 110.
	_, w = ExecuteRequestAndParse(t, env.Router, http.MethodPost, "/auctions/"+auctionID+"/bids",
		helpers.PlaceBidRequest{BidderID: "bidder2", Amount: "107"})
	require.Equal(t, http.StatusConflict, w.Code)

	// Outbid bidder1.
	data, w = ExecuteRequestAndParse(t, env.Router, http.MethodPost, "/auctions/"+auctionID+"/bids",
		helpers.PlaceBidRequest{BidderID: "bidder2", Amount: "115"})
	require.Equal(t, http.StatusCreated, w.Code)
	require.Equal(t, "115", data["new_price"])

	// bidder1 got an outbid notification.
	resp, w := ExecuteRequestAndParse(t, env.Router, http.MethodGet, "/bidders/bidder1/notifications", nil)
	require.Equal(t, http.StatusOK, w.Code)
	notifications := resp["data"].([]any)
	require.Len(t, notifications, 1)
	first := notifications[0].(map[string]any)
	require.Equal(t, "outbid", first["type"])

	// Force expiry, then close.
	_, err = env.Repo.UpdateAuction(auctionID, func(a *model.Auction) error {
		a.EndsAt = time.Now().UTC().Add(-time.Second)
		return nil
	})
	require.NoError(t, err)

	closed, err := env.Lifecycle.CloseExpired()
	require.NoError(t, err)
	require.Equal(t, 1, closed)

	data, w = ExecuteRequestAndParse(t, env.Router, http.MethodGet, "/auctions/"+auctionID, nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, "ended", data["status"])
	require.Equal(t, "bidder2", data["winner_id"])

	payments, err := env.Repo.ListPaymentsByAuction(auctionID)
	require.NoError(t, err)
	require.Len(t, payments, 1)
	require.Equal(t, model.PaymentPending, payments[0].Status)

	// Closing again is a no-op.
	closed, err = env.Lifecycle.CloseExpired()
	require.NoError(t, err)
	require.Equal(t, 0, closed)
}

func TestAuctionAPI_BannedBidderRejected(t *testing.T) {
	env := SetupTestEnv(defaultBidders()...)
	now := time.Now().UTC()

	data, w := ExecuteRequestAndParse(t, env.Router, http.MethodPost, "/auctions",
		createAuctionRequest(now.Add(-time.Minute), now.Add(time.Hour)))
	require.Equal(t, http.StatusCreated, w.Code)
	auctionID := data["auction_id"].(string)

	_, err := env.Lifecycle.ActivateScheduled()
	require.NoError(t, err)

	_, w = ExecuteRequestAndParse(t, env.Router, http.MethodPost, "/auctions/"+auctionID+"/bids",
		helpers.PlaceBidRequest{BidderID: "banned1", Amount: "105"})
	require.Equal(t, http.StatusForbidden, w.Code)

	data, w = ExecuteRequestAndParse(t, env.Router, http.MethodGet, "/auctions/"+auctionID, nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, float64(0), data["bid_count"])
	require.Equal(t, "100", data["current_price"])
}

func TestAuctionAPI_BidOnDraftRejected(t *testing.T) {
	env := SetupTestEnv(defaultBidders()...)
	now := time.Now().UTC()

	req := createAuctionRequest(now.Add(time.Hour), now.Add(2*time.Hour))
	req.Scheduled = false
	data, w := ExecuteRequestAndParse(t, env.Router, http.MethodPost, "/auctions", req)
	require.Equal(t, http.StatusCreated, w.Code)
	auctionID := data["auction_id"].(string)

	_, w = ExecuteRequestAndParse(t, env.Router, http.MethodPost, "/auctions/"+auctionID+"/bids",
		helpers.PlaceBidRequest{BidderID: "bidder1", Amount: "105"})
	require.Equal(t, http.StatusConflict, w.Code)
}

func TestAuctionAPI_ReserveNotMetClosesUnsold(t *testing.T) {
	env := SetupTestEnv(defaultBidders()...)
	now := time.Now().UTC()

	req := createAuctionRequest(now.Add(-time.Minute), now.Add(time.Hour))
	reserve := "1000"
	req.ReservePrice = &reserve
	data, w := ExecuteRequestAndParse(t, env.Router, http.MethodPost, "/auctions", req)
	require.Equal(t, http.StatusCreated, w.Code)
	auctionID := data["auction_id"].(string)

	_, err := env.Lifecycle.ActivateScheduled()
	require.NoError(t, err)

	_, w = ExecuteRequestAndParse(t, env.Router, http.MethodPost, "/auctions/"+auctionID+"/bids",
		helpers.PlaceBidRequest{BidderID: "bidder1", Amount: "200"})
	require.Equal(t, http.StatusCreated, w.Code)

	_, err = env.Repo.UpdateAuction(auctionID, func(a *model.Auction) error {
		a.EndsAt = time.Now().UTC().Add(-time.Second)
		return nil
	})
	require.NoError(t, err)

	closed, err := env.Lifecycle.CloseExpired()
	require.NoError(t, err)
	require.Equal(t, 1, closed)

	data, w = ExecuteRequestAndParse(t, env.Router, http.MethodGet, "/auctions/"+auctionID, nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, "unsold", data["status"])
	require.Nil(t, data["winner_id"])

	payments, err := env.Repo.ListPaymentsByAuction(auctionID)
	require.NoError(t, err)
	require.Empty(t, payments)
}

// Many bidders race over HTTP on one auction; the engine must keep the
// price strictly increasing and the bid count equal to accepted bids.
func TestAuctionAPI_ConcurrentBidders(t *testing.T) {
	const bidders = 10
	profiles := make([]model.BidderProfile, 0, bidders)
	for i := 0; i < bidders; i++ {
		profiles = append(profiles, model.BidderProfile{BidderID: fmt.Sprintf("racer-%d", i)})
	}
	env := SetupTestEnv(profiles...)
	now := time.Now().UTC()

	data, w := ExecuteRequestAndParse(t, env.Router, http.MethodPost, "/auctions",
		createAuctionRequest(now.Add(-time.Minute), now.Add(time.Hour)))
	require.Equal(t, http.StatusCreated, w.Code)
	auctionID := data["auction_id"].(string)

	_, err := env.Lifecycle.ActivateScheduled()
	require.NoError(t, err)

	statuses := make([]int, bidders)
	var wg sync.WaitGroup
	for i := 0; i < bidders; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, w := ExecuteRequestAndParse(t, env.Router, http.MethodPost, "/auctions/"+auctionID+"/bids",
				helpers.PlaceBidRequest{
					BidderID: fmt.Sprintf("racer-%d", i),
					Amount:   fmt.Sprintf("%d", 105+5*i),
				})
			statuses[i] = w.Code
		}(i)
	}
	wg.Wait()

	accepted := 0
	for _, code := range statuses {
		switch code {
		case http.StatusCreated:
			accepted++
		case http.StatusConflict:
		default:
			t.Fatalf("unexpected status %d", code)
		}
	}
	require.GreaterOrEqual(t, accepted, 1)

	data, w = ExecuteRequestAndParse(t, env.Router, http.MethodGet, "/auctions/"+auctionID, nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, float64(accepted), data["bid_count"])

	// Exactly one winning bid among however many landed.
	resp, w := ExecuteRequestAndParse(t, env.Router, http.MethodGet, "/auctions/"+auctionID+"/bids", nil)
	require.Equal(t, http.StatusOK, w.Code)
	bids := resp["data"].([]any)
	winning := 0
	for _, b := range bids {
		if b.(map[string]any)["is_winning"] == true {
			winning++
		}
	}
	require.Equal(t, 1, winning)
}
