package server

import (
	auctions "auction-engine/internal/auctionService"
	bidding "auction-engine/internal/biddingService"
	"auction-engine/internal/notifier"
	handler "auction-engine/services/auction/handler"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// SetupRouter configures all Gin routes for the application
func SetupRouter(auctionSvc *auctions.AuctionService, biddingSvc *bidding.BiddingService, emitter *notifier.Emitter, enableMetrics bool) *gin.Engine {
	router := gin.New() // New router without default middleware for full control over middleware and logging

	router.Use(gin.Recovery())          // recover from panics
	router.Use(RequestLoggerMiddleware) // custom request logging

	auctionHandler := handler.NewAuctionHandler(auctionSvc, biddingSvc, emitter)

	auctionRoutes := router.Group("/auctions")
	{
		auctionRoutes.POST("", auctionHandler.CreateAuctionHandler)
		auctionRoutes.GET("/:auction_id", auctionHandler.GetAuctionHandler)
		auctionRoutes.PATCH("/:auction_id", auctionHandler.UpdateAuctionHandler)
		auctionRoutes.POST("/:auction_id/schedule", auctionHandler.ScheduleAuctionHandler)
		auctionRoutes.POST("/:auction_id/cancel", auctionHandler.CancelAuctionHandler)
		auctionRoutes.POST("/:auction_id/bids", auctionHandler.PlaceBidHandler)
		auctionRoutes.GET("/:auction_id/bids", auctionHandler.GetBidsByAuctionHandler)
		auctionRoutes.GET("/:auction_id/winning", auctionHandler.GetWinningBidHandler)
	}

	bidders := router.Group("/bidders")
	{
		bidders.GET("/:bidder_id/notifications", auctionHandler.ListNotificationsHandler)
	}

	if enableMetrics {
		router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	}

	return router
}
