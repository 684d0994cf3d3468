package handler

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"auction-engine/internal/auctionerrors"
	auctions "auction-engine/internal/auctionService"
	bidding "auction-engine/internal/biddingService"
	model "auction-engine/internal/models"
	"auction-engine/services/auction/helpers"
	"auction-engine/utils"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

type AuctionServiceInterface interface {
	CreateAuction(p auctions.CreateParams) (model.Auction, error)
	UpdateAuction(auctionID string, p auctions.UpdateParams) (model.Auction, error)
	ScheduleAuction(auctionID string) (model.Auction, error)
	CancelAuction(auctionID string) (model.Auction, error)
	GetAuction(auctionID string) (model.Auction, error)
}

type BiddingServiceInterface interface {
	PlaceBid(auctionID, bidderID string, amount decimal.Decimal) (bidding.BidReceipt, error)
	GetBidsForAuction(auctionID string) ([]model.Bid, error)
	GetWinningBid(auctionID string) (model.Bid, error)
}

type NotificationListerInterface interface {
	ListForBidder(bidderID string) ([]model.Notification, error)
}

type AuctionHandler struct {
	auctions      AuctionServiceInterface
	bidding       BiddingServiceInterface
	notifications NotificationListerInterface
}

func NewAuctionHandler(auctionSvc AuctionServiceInterface, biddingSvc BiddingServiceInterface, notifications NotificationListerInterface) *AuctionHandler {
	return &AuctionHandler{
		auctions:      auctionSvc,
		bidding:       biddingSvc,
		notifications: notifications,
	}
}

// CreateAuctionHandler handles POST /auctions
func (h *AuctionHandler) CreateAuctionHandler(c *gin.Context) {
	var req helpers.CreateAuctionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		helpers.HandleBindError(c, "CreateAuctionHandler", err)
		return
	}

	params, err := createParamsFromRequest(req)
	if err != nil {
		status, message := helpers.MapErrorToHTTP(err)
		utils.JSONError(c, status, err, message)
		return
	}

	a, err := h.auctions.CreateAuction(params)
	if err != nil {
		status, message := helpers.MapErrorToHTTP(err)
		utils.JSONError(c, status, fmt.Errorf("%s: %w", message, err), message)
		utils.Error("CreateAuctionHandler: failed to create auction", map[string]any{
			"title": req.Title,
			"error": err.Error(),
		})
		return
	}

	utils.JSONResponse(c, http.StatusCreated, helpers.NewAuctionResponse(a), "auction created successfully")
	helpers.LogSuccess("CreateAuctionHandler", "auction created successfully", map[string]any{
		"auction_id": a.AuctionID,
		"status":     string(a.Status),
	})
}

func createParamsFromRequest(req helpers.CreateAuctionRequest) (auctions.CreateParams, error) {
	startingPrice, err := helpers.ParseAmount("starting_price", req.StartingPrice)
	if err != nil {
		return auctions.CreateParams{}, err
	}
	increment, err := helpers.ParseAmount("bid_increment", req.BidIncrement)
	if err != nil {
		return auctions.CreateParams{}, err
	}
	startsAt, err := helpers.ParseTime("starts_at", req.StartsAt)
	if err != nil {
		return auctions.CreateParams{}, err
	}
	endsAt, err := helpers.ParseTime("ends_at", req.EndsAt)
	if err != nil {
		return auctions.CreateParams{}, err
	}

	params := auctions.CreateParams{
		Title:           req.Title,
		CategoryID:      req.CategoryID,
		StartingPrice:   startingPrice,
		BidIncrement:    increment,
		StartsAt:        startsAt,
		EndsAt:          endsAt,
		AntiSnipeWindow: time.Duration(req.AntiSnipeSeconds) * time.Second,
		CreatedBy:       req.CreatedBy,
		Scheduled:       req.Scheduled,
	}
	if req.ReservePrice != nil {
		reserve, err := helpers.ParseAmount("reserve_price", *req.ReservePrice)
		if err != nil {
			return auctions.CreateParams{}, err
		}
		params.ReservePrice = &reserve
	}
	return params, nil
}

// GetAuctionHandler handles GET /auctions/:auction_id
func (h *AuctionHandler) GetAuctionHandler(c *gin.Context) {
	auctionID := c.Param("auction_id")
	a, err := h.auctions.GetAuction(auctionID)
	if err != nil {
		status, message := helpers.MapErrorToHTTP(err)
		utils.JSONError(c, status, fmt.Errorf("%s: %w", message, err), message)
		utils.Warn("GetAuctionHandler: error retrieving auction", map[string]any{"auction_id": auctionID, "error": err.Error()})
		return
	}

	utils.JSONResponse(c, http.StatusOK, helpers.NewAuctionResponse(a), "auction retrieved successfully")
}

// UpdateAuctionHandler handles PATCH /auctions/:auction_id
func (h *AuctionHandler) UpdateAuctionHandler(c *gin.Context) {
	auctionID := c.Param("auction_id")
	var req helpers.UpdateAuctionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		helpers.HandleBindError(c, "UpdateAuctionHandler", err)
		return
	}

	params, err := updateParamsFromRequest(req)
	if err != nil {
		status, message := helpers.MapErrorToHTTP(err)
		utils.JSONError(c, status, err, message)
		return
	}

	a, err := h.auctions.UpdateAuction(auctionID, params)
	if err != nil {
		status, message := helpers.MapErrorToHTTP(err)
		utils.JSONError(c, status, fmt.Errorf("%s: %w", message, err), message)
		utils.Warn("UpdateAuctionHandler: failed to update auction", map[string]any{"auction_id": auctionID, "error": err.Error()})
		return
	}

	utils.JSONResponse(c, http.StatusOK, helpers.NewAuctionResponse(a), "auction updated successfully")
	helpers.LogSuccess("UpdateAuctionHandler", "auction updated successfully", map[string]any{"auction_id": auctionID})
}

func updateParamsFromRequest(req helpers.UpdateAuctionRequest) (auctions.UpdateParams, error) {
	params := auctions.UpdateParams{
		Title:      req.Title,
		CategoryID: req.CategoryID,
	}
	if req.StartingPrice != nil {
		d, err := helpers.ParseAmount("starting_price", *req.StartingPrice)
		if err != nil {
			return auctions.UpdateParams{}, err
		}
		params.StartingPrice = &d
	}
	if req.ReservePrice != nil {
		d, err := helpers.ParseAmount("reserve_price", *req.ReservePrice)
		if err != nil {
			return auctions.UpdateParams{}, err
		}
		params.ReservePrice = &d
	}
	if req.BidIncrement != nil {
		d, err := helpers.ParseAmount("bid_increment", *req.BidIncrement)
		if err != nil {
			return auctions.UpdateParams{}, err
		}
		params.BidIncrement = &d
	}
	if req.StartsAt != nil {
		t, err := helpers.ParseTime("starts_at", *req.StartsAt)
		if err != nil {
			return auctions.UpdateParams{}, err
		}
		params.StartsAt = &t
	}
	if req.EndsAt != nil {
		t, err := helpers.ParseTime("ends_at", *req.EndsAt)
		if err != nil {
			return auctions.UpdateParams{}, err
		}
		params.EndsAt = &t
	}
	if req.AntiSnipeSeconds != nil {
		w := time.Duration(*req.AntiSnipeSeconds) * time.Second
		params.AntiSnipeWindow = &w
	}
	return params, nil
}

// ScheduleAuctionHandler handles POST /auctions/:auction_id/schedule
func (h *AuctionHandler) ScheduleAuctionHandler(c *gin.Context) {
	h.transition(c, "ScheduleAuctionHandler", h.auctions.ScheduleAuction, "auction scheduled successfully")
}

// CancelAuctionHandler handles POST /auctions/:auction_id/cancel
func (h *AuctionHandler) CancelAuctionHandler(c *gin.Context) {
	h.transition(c, "CancelAuctionHandler", h.auctions.CancelAuction, "auction cancelled successfully")
}

func (h *AuctionHandler) transition(c *gin.Context, handlerName string, op func(string) (model.Auction, error), successMessage string) {
	auctionID := c.Param("auction_id")
	a, err := op(auctionID)
	if err != nil {
		status, message := helpers.MapErrorToHTTP(err)
		utils.JSONError(c, status, fmt.Errorf("%s: %w", message, err), message)
		utils.Warn(handlerName+": transition rejected", map[string]any{"auction_id": auctionID, "error": err.Error()})
		return
	}

	utils.JSONResponse(c, http.StatusOK, helpers.NewAuctionResponse(a), successMessage)
	helpers.LogSuccess(handlerName, successMessage, map[string]any{
		"auction_id": auctionID,
		"status":     string(a.Status),
	})
}

// PlaceBidHandler handles POST /auctions/:auction_id/bids
func (h *AuctionHandler) PlaceBidHandler(c *gin.Context) {
	auctionID := c.Param("auction_id")
	var req helpers.PlaceBidRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		helpers.HandleBindError(c, "PlaceBidHandler", err)
		return
	}

	amount, err := helpers.ParseAmount("amount", req.Amount)
	if err != nil {
		status, message := helpers.MapErrorToHTTP(err)
		utils.JSONError(c, status, err, message)
		return
	}

	receipt, err := h.bidding.PlaceBid(auctionID, req.BidderID, amount)
	if err != nil {
		status, message := helpers.MapErrorToHTTP(err)
		utils.JSONError(c, status, fmt.Errorf("%s: %w", message, err), message)
		utils.Error("PlaceBidHandler: failed to place bid", map[string]any{
			"handler":    "PlaceBidHandler",
			"auction_id": auctionID,
			"bidder_id":  req.BidderID,
			"error":      err.Error(),
		})
		return
	}

	resp := helpers.BidReceiptResponse{
		BidID:    receipt.BidID,
		Amount:   receipt.Amount.String(),
		NewPrice: receipt.NewPrice.String(),
		BidCount: receipt.BidCount,
	}

	utils.JSONResponse(c, http.StatusCreated, resp, "bid placed successfully")
	helpers.LogSuccess("PlaceBidHandler", "bid placed successfully", map[string]any{
		"bid_id":     receipt.BidID,
		"auction_id": auctionID,
		"bidder_id":  req.BidderID,
		"amount":     resp.Amount,
	})
}

// GetBidsByAuctionHandler handles GET /auctions/:auction_id/bids
func (h *AuctionHandler) GetBidsByAuctionHandler(c *gin.Context) {
	auctionID := c.Param("auction_id")
	bids, err := h.bidding.GetBidsForAuction(auctionID)
	if err != nil {
		status, message := helpers.MapErrorToHTTP(err)
		utils.JSONError(c, status, fmt.Errorf("%s: %w", message, err), message)
		utils.Warn("GetBidsByAuctionHandler: error retrieving bids", map[string]any{"auction_id": auctionID, "error": err.Error()})
		return
	}

	resp := make([]helpers.BidResponse, 0, len(bids))
	for _, b := range bids {
		resp = append(resp, helpers.NewBidResponse(b))
	}

	utils.JSONResponse(c, http.StatusOK, resp, "bids retrieved successfully")
}

// GetWinningBidHandler handles GET /auctions/:auction_id/winning
func (h *AuctionHandler) GetWinningBidHandler(c *gin.Context) {
	auctionID := c.Param("auction_id")
	bid, err := h.bidding.GetWinningBid(auctionID)
	if err != nil {
		// For an auction with no bids yet, winning bid not found -> 404
		if errors.Is(err, auctionerrors.ErrNoBids) {
			utils.JSONError(c, http.StatusNotFound, err, "no winning bid found")
			utils.Info("GetWinningBidHandler: no winning bid found", map[string]any{"auction_id": auctionID})
			return
		}
		status, message := helpers.MapErrorToHTTP(err)
		utils.JSONError(c, status, fmt.Errorf("%s: %w", message, err), message)
		utils.Warn("GetWinningBidHandler: winning bid error", map[string]any{"auction_id": auctionID, "error": err.Error()})
		return
	}

	utils.JSONResponse(c, http.StatusOK, helpers.NewBidResponse(bid), "winning bid retrieved successfully")
}

// ListNotificationsHandler handles GET /bidders/:bidder_id/notifications
func (h *AuctionHandler) ListNotificationsHandler(c *gin.Context) {
	bidderID := c.Param("bidder_id")
	notifications, err := h.notifications.ListForBidder(bidderID)
	if err != nil {
		status, message := helpers.MapErrorToHTTP(err)
		utils.JSONError(c, status, fmt.Errorf("%s: %w", message, err), message)
		utils.Warn("ListNotificationsHandler: error retrieving notifications", map[string]any{"bidder_id": bidderID, "error": err.Error()})
		return
	}

	if notifications == nil {
		notifications = []model.Notification{}
	}

	utils.JSONResponse(c, http.StatusOK, notifications, "notifications retrieved successfully")
	helpers.LogSuccess("ListNotificationsHandler", "notifications retrieved successfully", map[string]any{
		"bidder_id": bidderID,
		"count":     len(notifications),
	})
}
