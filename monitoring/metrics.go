package monitoring

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	bidOutcomes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "auction_bid_outcomes_total",
			Help: "Bid placement outcomes per auction",
		},
		[]string{"auction_id", "outcome"},
	)

	auctionsActivated = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "auction_activations_total",
			Help: "Auctions promoted from scheduled to active by the activation sweep",
		},
	)

	auctionsClosed = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "auction_closes_total",
			Help: "Auctions finalized by the closing sweep",
		},
	)
)

// BidAccepted records one accepted bid.
func BidAccepted(auctionID string) {
	bidOutcomes.WithLabelValues(auctionID, "accepted").Inc()
}

// BidRejected records one rejected bid.
func BidRejected(auctionID string) {
	bidOutcomes.WithLabelValues(auctionID, "rejected").Inc()
}

// AuctionsActivated records how many auctions one activation sweep promoted.
func AuctionsActivated(n int) {
	auctionsActivated.Add(float64(n))
}

// AuctionsClosed records how many auctions one closing sweep finalized.
func AuctionsClosed(n int) {
	auctionsClosed.Add(float64(n))
}
