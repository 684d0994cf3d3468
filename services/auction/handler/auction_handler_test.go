package handler

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"auction-engine/internal/auctionerrors"
	bidding "auction-engine/internal/biddingService"
	model "auction-engine/internal/models"
	"auction-engine/services/auction/helpers"

	"github.com/gin-gonic/gin"
	"github.com/golang/mock/gomock"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

type handlerMocks struct {
	auctions      *MockAuctionServiceInterface
	bidding       *MockBiddingServiceInterface
	notifications *MockNotificationListerInterface
}

func setupHandlerTest(t *testing.T) (*gin.Engine, handlerMocks) {
	t.Helper()
	ctrl := gomock.NewController(t)
	t.Cleanup(ctrl.Finish)

	mocks := handlerMocks{
		auctions:      NewMockAuctionServiceInterface(ctrl),
		bidding:       NewMockBiddingServiceInterface(ctrl),
		notifications: NewMockNotificationListerInterface(ctrl),
	}
	h := NewAuctionHandler(mocks.auctions, mocks.bidding, mocks.notifications)

	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.POST("/auctions", h.CreateAuctionHandler)
	router.GET("/auctions/:auction_id", h.GetAuctionHandler)
	router.POST("/auctions/:auction_id/schedule", h.ScheduleAuctionHandler)
	router.POST("/auctions/:auction_id/cancel", h.CancelAuctionHandler)
	router.POST("/auctions/:auction_id/bids", h.PlaceBidHandler)
	router.GET("/auctions/:auction_id/bids", h.GetBidsByAuctionHandler)
	router.GET("/auctions/:auction_id/winning", h.GetWinningBidHandler)
	router.GET("/bidders/:bidder_id/notifications", h.ListNotificationsHandler)
	return router, mocks
}

func doRequest(t *testing.T, router *gin.Engine, method, url string, body any) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	var reqBody []byte
	switch v := body.(type) {
	case nil:
	case string:
		reqBody = []byte(v)
	default:
		var err error
		reqBody, err = json.Marshal(v)
		require.NoError(t, err)
	}

	req := httptest.NewRequest(method, url, bytes.NewReader(reqBody))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	var resp map[string]any
	if len(w.Body.Bytes()) > 0 {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	}
	return w, resp
}

func TestPlaceBidHandler(t *testing.T) {
	tests := []struct {
		name           string
		requestBody    any
		mockSetup      func(m handlerMocks)
		expectedStatus int
		expectedMsg    string
		validateData   func(t *testing.T, data map[string]any)
	}{
		{
			name:        "success_valid_bid",
			requestBody: helpers.PlaceBidRequest{BidderID: "bidder1", Amount: "105"},
			mockSetup: func(m handlerMocks) {
				m.bidding.EXPECT().
					PlaceBid("a1", "bidder1", decimal.NewFromInt(105)).
					Return(bidding.BidReceipt{
						BidID:    uuid.NewString(),
						Amount:   decimal.NewFromInt(105),
						NewPrice: decimal.NewFromInt(105),
						BidCount: 1,
					}, nil)
			},
			expectedStatus: http.StatusCreated,
			expectedMsg:    "bid placed successfully",
			validateData: func(t *testing.T, data map[string]any) {
				bidID := data["bid_id"].(string)
				require.NotEmpty(t, bidID)
				_, parseErr := uuid.Parse(bidID)
				require.NoError(t, parseErr, "BidID should be a valid UUID")
				require.Equal(t, "105", data["amount"])
				require.Equal(t, "105", data["new_price"])
				require.Equal(t, float64(1), data["bid_count"])
			},
		},
		{
			name:           "invalid_json",
			requestBody:    `{invalid json}`,
			mockSetup:      func(m handlerMocks) {},
			expectedStatus: http.StatusBadRequest,
			expectedMsg:    "invalid request payload",
		},
		{
			name:           "missing_bidder_id",
			requestBody:    helpers.PlaceBidRequest{BidderID: "", Amount: "105"},
			mockSetup:      func(m handlerMocks) {},
			expectedStatus: http.StatusBadRequest,
			expectedMsg:    "invalid request payload",
		},
		{
			name:           "amount_not_a_decimal",
			requestBody:    helpers.PlaceBidRequest{BidderID: "bidder1", Amount: "one hundred"},
			mockSetup:      func(m handlerMocks) {},
			expectedStatus: http.StatusBadRequest,
			expectedMsg:    "invalid input",
		},
		{
			name:        "bid_below_minimum",
			requestBody: helpers.PlaceBidRequest{BidderID: "bidder1", Amount: "107"},
			mockSetup: func(m handlerMocks) {
				m.bidding.EXPECT().
					PlaceBid("a1", "bidder1", decimal.NewFromInt(107)).
					Return(bidding.BidReceipt{}, fmt.Errorf("service: %w - minimum bid is 110", auctionerrors.ErrBidTooLow))
			},
			expectedStatus: http.StatusConflict,
			expectedMsg:    "bid amount below required minimum",
		},
		{
			name:        "banned_bidder",
			requestBody: helpers.PlaceBidRequest{BidderID: "banned1", Amount: "105"},
			mockSetup: func(m handlerMocks) {
				m.bidding.EXPECT().
					PlaceBid("a1", "banned1", decimal.NewFromInt(105)).
					Return(bidding.BidReceipt{}, fmt.Errorf("service: %w", auctionerrors.ErrForbidden))
			},
			expectedStatus: http.StatusForbidden,
			expectedMsg:    "bidder is not allowed to bid",
		},
		{
			name:        "auction_not_active",
			requestBody: helpers.PlaceBidRequest{BidderID: "bidder1", Amount: "105"},
			mockSetup: func(m handlerMocks) {
				m.bidding.EXPECT().
					PlaceBid("a1", "bidder1", decimal.NewFromInt(105)).
					Return(bidding.BidReceipt{}, fmt.Errorf("service: %w", auctionerrors.ErrInvalidState))
			},
			expectedStatus: http.StatusConflict,
			expectedMsg:    "auction is not open for this operation",
		},
		{
			name:        "auction_not_found",
			requestBody: helpers.PlaceBidRequest{BidderID: "bidder1", Amount: "105"},
			mockSetup: func(m handlerMocks) {
				m.bidding.EXPECT().
					PlaceBid("a1", "bidder1", decimal.NewFromInt(105)).
					Return(bidding.BidReceipt{}, fmt.Errorf("service: %w", auctionerrors.ErrAuctionNotFound))
			},
			expectedStatus: http.StatusNotFound,
			expectedMsg:    "auction not found",
		},
		{
			name:        "store_unavailable",
			requestBody: helpers.PlaceBidRequest{BidderID: "bidder1", Amount: "105"},
			mockSetup: func(m handlerMocks) {
				m.bidding.EXPECT().
					PlaceBid("a1", "bidder1", decimal.NewFromInt(105)).
					Return(bidding.BidReceipt{}, fmt.Errorf("service: %w", auctionerrors.ErrTransientStore))
			},
			expectedStatus: http.StatusServiceUnavailable,
			expectedMsg:    "store temporarily unavailable, retry",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router, mocks := setupHandlerTest(t)
			tt.mockSetup(mocks)

			w, resp := doRequest(t, router, http.MethodPost, "/auctions/a1/bids", tt.requestBody)
			require.Equal(t, tt.expectedStatus, w.Code)
			require.Equal(t, tt.expectedMsg, resp["message"])

			if tt.expectedStatus >= 400 {
				require.Equal(t, false, resp["success"])
			} else if tt.validateData != nil {
				require.Equal(t, true, resp["success"])
				tt.validateData(t, resp["data"].(map[string]any))
			}
		})
	}
}

func TestCreateAuctionHandler(t *testing.T) {
	now := time.Now().UTC().Truncate(time.Second)
	startsAt := now.Add(time.Hour)
	endsAt := now.Add(2 * time.Hour)

	validRequest := helpers.CreateAuctionRequest{
		Title:            "Rare Stamp",
		CategoryID:       "collectibles",
		StartingPrice:    "100",
		BidIncrement:     "5",
		StartsAt:         startsAt.Format(time.RFC3339),
		EndsAt:           endsAt.Format(time.RFC3339),
		AntiSnipeSeconds: 30,
		CreatedBy:        "admin1",
	}

	t.Run("success", func(t *testing.T) {
		router, mocks := setupHandlerTest(t)
		mocks.auctions.EXPECT().
			CreateAuction(gomock.Any()).
			Return(model.Auction{
				AuctionID:       "a1",
				Title:           "Rare Stamp",
				StartingPrice:   decimal.NewFromInt(100),
				CurrentPrice:    decimal.NewFromInt(100),
				BidIncrement:    decimal.NewFromInt(5),
				Status:          model.StatusDraft,
				StartsAt:        startsAt,
				EndsAt:          endsAt,
				OriginalEndTime: endsAt,
				AntiSnipeWindow: 30 * time.Second,
				CreatedBy:       "admin1",
				CreatedAt:       now,
				UpdatedAt:       now,
			}, nil)

		w, resp := doRequest(t, router, http.MethodPost, "/auctions", validRequest)
		require.Equal(t, http.StatusCreated, w.Code)

		data := resp["data"].(map[string]any)
		require.Equal(t, "a1", data["auction_id"])
		require.Equal(t, "draft", data["status"])
		require.Equal(t, "100", data["current_price"])
		require.Equal(t, float64(30), data["anti_snipe_seconds"])
		require.Equal(t, endsAt.Format(time.RFC3339), data["original_end_time"])
	})

	t.Run("missing_required_fields", func(t *testing.T) {
		router, _ := setupHandlerTest(t)
		req := validRequest
		req.Title = ""
		w, _ := doRequest(t, router, http.MethodPost, "/auctions", req)
		require.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("bad_starting_price", func(t *testing.T) {
		router, _ := setupHandlerTest(t)
		req := validRequest
		req.StartingPrice = "not-a-number"
		w, resp := doRequest(t, router, http.MethodPost, "/auctions", req)
		require.Equal(t, http.StatusBadRequest, w.Code)
		require.Equal(t, "invalid input", resp["message"])
	})

	t.Run("bad_timestamp", func(t *testing.T) {
		router, _ := setupHandlerTest(t)
		req := validRequest
		req.EndsAt = "tomorrow"
		w, _ := doRequest(t, router, http.MethodPost, "/auctions", req)
		require.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestTransitionHandlers(t *testing.T) {
	t.Run("schedule_success", func(t *testing.T) {
		router, mocks := setupHandlerTest(t)
		mocks.auctions.EXPECT().
			ScheduleAuction("a1").
			Return(model.Auction{AuctionID: "a1", Status: model.StatusScheduled}, nil)

		w, resp := doRequest(t, router, http.MethodPost, "/auctions/a1/schedule", nil)
		require.Equal(t, http.StatusOK, w.Code)
		data := resp["data"].(map[string]any)
		require.Equal(t, "scheduled", data["status"])
	})

	t.Run("cancel_illegal_transition", func(t *testing.T) {
		router, mocks := setupHandlerTest(t)
		mocks.auctions.EXPECT().
			CancelAuction("a1").
			Return(model.Auction{}, fmt.Errorf("service: %w", auctionerrors.ErrInvalidTransition))

		w, resp := doRequest(t, router, http.MethodPost, "/auctions/a1/cancel", nil)
		require.Equal(t, http.StatusConflict, w.Code)
		require.Equal(t, "illegal auction status transition", resp["message"])
	})
}

func TestGetWinningBidHandler(t *testing.T) {
	t.Run("no_bids_yet", func(t *testing.T) {
		router, mocks := setupHandlerTest(t)
		mocks.bidding.EXPECT().
			GetWinningBid("a1").
			Return(model.Bid{}, fmt.Errorf("service: %w", auctionerrors.ErrNoBids))

		w, resp := doRequest(t, router, http.MethodGet, "/auctions/a1/winning", nil)
		require.Equal(t, http.StatusNotFound, w.Code)
		require.Equal(t, "no winning bid found", resp["message"])
	})

	t.Run("success", func(t *testing.T) {
		router, mocks := setupHandlerTest(t)
		mocks.bidding.EXPECT().
			GetWinningBid("a1").
			Return(model.Bid{
				BidID: "bid1", AuctionID: "a1", BidderID: "bidder1",
				Amount: decimal.NewFromInt(105), IsWinning: true,
				CreatedAt: time.Now().UTC(),
			}, nil)

		w, resp := doRequest(t, router, http.MethodGet, "/auctions/a1/winning", nil)
		require.Equal(t, http.StatusOK, w.Code)
		data := resp["data"].(map[string]any)
		require.Equal(t, "bid1", data["bid_id"])
		require.Equal(t, "105", data["amount"])
		require.Equal(t, true, data["is_winning"])
	})
}

func TestGetBidsByAuctionHandler(t *testing.T) {
	router, mocks := setupHandlerTest(t)
	mocks.bidding.EXPECT().
		GetBidsForAuction("a1").
		Return([]model.Bid{
			{BidID: "bid1", AuctionID: "a1", BidderID: "bidder1", Amount: decimal.NewFromInt(105), CreatedAt: time.Now().UTC()},
			{BidID: "bid2", AuctionID: "a1", BidderID: "bidder2", Amount: decimal.NewFromInt(110), IsWinning: true, CreatedAt: time.Now().UTC()},
		}, nil)

	w, resp := doRequest(t, router, http.MethodGet, "/auctions/a1/bids", nil)
	require.Equal(t, http.StatusOK, w.Code)
	data := resp["data"].([]any)
	require.Len(t, data, 2)
}

func TestListNotificationsHandler(t *testing.T) {
	t.Run("empty", func(t *testing.T) {
		router, mocks := setupHandlerTest(t)
		mocks.notifications.EXPECT().ListForBidder("bidder1").Return(nil, nil)

		w, resp := doRequest(t, router, http.MethodGet, "/bidders/bidder1/notifications", nil)
		require.Equal(t, http.StatusOK, w.Code)
		require.Empty(t, resp["data"].([]any))
	})

	t.Run("with_notifications", func(t *testing.T) {
		router, mocks := setupHandlerTest(t)
		mocks.notifications.EXPECT().
			ListForBidder("bidder1").
			Return([]model.Notification{
				{NotificationID: "n1", BidderID: "bidder1", AuctionID: "a1", Type: model.NotificationOutbid, Message: "outbid", CreatedAt: time.Now().UTC()},
			}, nil)

		w, resp := doRequest(t, router, http.MethodGet, "/bidders/bidder1/notifications", nil)
		require.Equal(t, http.StatusOK, w.Code)
		data := resp["data"].([]any)
		require.Len(t, data, 1)
	})
}
