package router

import (
	"net/http"

	"github.com/senyabanana/freight-bidding/internal/handlers"
)

func InitRoutes(requestHandler *handlers.RequestHandler, offerHandler *handlers.OfferHandler) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/api/ping", handlers.PingHandler)

	mux.HandleFunc("/api/requests/new", requestHandler.CreateRequest)
	mux.HandleFunc("GET /api/requests/open", requestHandler.ListOpenRequests)
	mux.HandleFunc("GET /api/requests/{requestId}", requestHandler.GetRequest)
	mux.HandleFunc("GET /api/requests/{requestId}/offers", requestHandler.GetRequestOffers)
	mux.HandleFunc("GET /api/requests/{requestId}/watch", requestHandler.WatchRequest)
	mux.HandleFunc("POST /api/requests/{requestId}/open", requestHandler.OpenRequest)
	mux.HandleFunc("POST /api/requests/{requestId}/close", requestHandler.CloseAuction)
	mux.HandleFunc("POST /api/requests/{requestId}/approve", requestHandler.ApproveWinner)
	mux.HandleFunc("POST /api/requests/{requestId}/reject/{offerId}", requestHandler.RejectAndPromote)
	mux.HandleFunc("POST /api/requests/{requestId}/counter", requestHandler.Counter)
	mux.HandleFunc("POST /api/requests/{requestId}/assign", requestHandler.AssignRequest)

	mux.HandleFunc("/api/offers/new", offerHandler.SubmitOffer)
	mux.HandleFunc("GET /api/offers/{requestId}/rank", offerHandler.GetRank)
	mux.HandleFunc("POST /api/offers/{requestId}/respond", offerHandler.RespondToCounter)

	return mux
}
