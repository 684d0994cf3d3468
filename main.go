package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"auction-engine/config"
	auctions "auction-engine/internal/auctionService"
	bidding "auction-engine/internal/biddingService"
	lifecycle "auction-engine/internal/lifecycleService"
	model "auction-engine/internal/models"
	"auction-engine/internal/notifier"
	"auction-engine/internal/repository"
	"auction-engine/internal/scheduler"
	"auction-engine/internal/server"
)

func main() {
	cfg := config.LoadConfig()

	repo := repository.NewMemoryRepo()

	prepopulateBidders(repo)

	auctionSvc := auctions.NewAuctionService(repo)
	biddingSvc := bidding.NewBiddingService(repo)
	lifecycleSvc := lifecycle.NewLifecycleService(repo)
	emitter := notifier.NewEmitter(repo)

	// The sweeps run on their own timer, independent of bid traffic.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	go scheduler.New(lifecycleSvc, cfg.SweepInterval).Run(ctx)

	router := server.SetupRouter(auctionSvc, biddingSvc, emitter, cfg.EnableMetrics)

	addr := fmt.Sprintf(":%s", cfg.Port)
	fmt.Printf("Starting auction server on %s...\n", addr)
	if err := router.Run(addr); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to start server: %v\n", err)
		os.Exit(1)
	}
}

// prepopulateBidders adds sample bidder profiles to the in-memory repo.
// The bidder registry is owned by an external system in production; these
// stand in for it.
func prepopulateBidders(repo *repository.MemoryRepo) {
	bidders := []model.BidderProfile{
		{BidderID: "bidder1", DisplayName: "Alice", Email: "alice@example.com"},
		{BidderID: "bidder2", DisplayName: "Bob", Email: "bob@example.com"},
		{BidderID: "bidder3", DisplayName: "Carol", Email: "carol@example.com", IsBanned: true},
	}

	for _, b := range bidders {
		_ = repo.AddBidder(b)
	}
}
