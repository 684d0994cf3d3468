package integrationtests

import (
	auctions "auction-engine/internal/auctionService"
	bidding "auction-engine/internal/biddingService"
	lifecycle "auction-engine/internal/lifecycleService"
	model "auction-engine/internal/models"
	"auction-engine/internal/notifier"
	"auction-engine/internal/repository"
	"auction-engine/internal/server"
	"bytes"
	"encoding/json"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
)

// TestEnv bundles the router with the pieces a test drives directly: the
// repo for seeding and the lifecycle service standing in for the timer.
type TestEnv struct {
	Router    *gin.Engine
	Repo      *repository.MemoryRepo
	Lifecycle *lifecycle.LifecycleService
}

// SetupTestEnv initializes the full wiring over an in-memory repository.
func SetupTestEnv(bidders ...model.BidderProfile) *TestEnv {
	gin.SetMode(gin.TestMode)
	repo := repository.NewMemoryRepo()

	for _, b := range bidders {
		_ = repo.AddBidder(b)
	}

	auctionSvc := auctions.NewAuctionService(repo)
	biddingSvc := bidding.NewBiddingService(repo)
	lifecycleSvc := lifecycle.NewLifecycleService(repo)
	emitter := notifier.NewEmitter(repo)

	router := server.SetupRouter(auctionSvc, biddingSvc, emitter, false)
	return &TestEnv{Router: router, Repo: repo, Lifecycle: lifecycleSvc}
}

// ExecuteRequestAndParse executes an HTTP request on the router and parses
// the JSON envelope, returning the data payload for 2xx responses.
func ExecuteRequestAndParse(t *testing.T, router *gin.Engine, method, url string, body any) (map[string]any, *httptest.ResponseRecorder) {
	t.Helper()

	var reqBody []byte
	var err error
	switch v := body.(type) {
	case nil:
	case []byte:
		reqBody = v
	default:
		reqBody, err = json.Marshal(v)
		if err != nil {
			t.Fatalf("failed to marshal body: %v", err)
		}
	}

	w := httptest.NewRecorder()
	req := httptest.NewRequest(method, url, bytes.NewReader(reqBody))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	var resp map[string]any
	if len(w.Body.Bytes()) > 0 {
		if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
			t.Fatalf("failed to unmarshal response: %v", err)
		}
		if w.Code >= 200 && w.Code < 300 {
			if data, ok := resp["data"].(map[string]any); ok {
				return data, w
			}
		}
	}
	return resp, w
}
