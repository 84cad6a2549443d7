package api

import (
	"net/http"

	"github.com/erazemk/donacije/internal/auth"
	"github.com/erazemk/donacije/internal/db"
	"github.com/erazemk/donacije/internal/metrics"
	"github.com/erazemk/donacije/internal/service"
)

// Options configure the router.
type Options struct {
	Store    *db.Store
	Services *service.Services
	Tokens   *auth.Provider

	// LoginLimiter throttles registration and login per client IP.
	LoginLimiter *RateLimiter

	// MaxUpload bounds item photo uploads.
	MaxUpload int64
}

// NewRouter creates the API router with all endpoints registered. Role
// checks happen in the service layer; the router only decides which routes
// need a valid token.
func NewRouter(o Options) http.Handler {
	mux := http.NewServeMux()

	authHandler := &AuthHandler{Store: o.Store, Directory: o.Services.Directory, Tokens: o.Tokens}
	itemsHandler := &ItemsHandler{Catalog: o.Services.Catalog, MaxUpload: o.MaxUpload}
	donationsHandler := &DonationsHandler{Intake: o.Services.Intake}
	ordersHandler := &OrdersHandler{Fulfilment: o.Services.Fulfilment}
	referenceHandler := &ReferenceHandler{Query: o.Services.Query}

	authMW := AuthMiddleware(o.Tokens, o.Store)
	authed := func(h http.HandlerFunc) http.Handler { return authMW(h) }
	limited := func(h http.HandlerFunc) http.Handler { return o.LoginLimiter.Middleware(h) }

	// Public.
	mux.Handle("POST /api/auth/register", limited(authHandler.Register))
	mux.Handle("POST /api/auth/login", limited(authHandler.Login))
	mux.HandleFunc("GET /api/categories", referenceHandler.ListCategories)
	mux.HandleFunc("GET /api/items/available", itemsHandler.Available)

	// Session.
	mux.Handle("POST /api/auth/logout", authed(authHandler.Logout))
	mux.Handle("GET /api/auth/validate", authed(authHandler.Validate))
	mux.Handle("GET /api/me", authed(authHandler.Me))

	// Reference data.
	mux.Handle("POST /api/categories", authed(referenceHandler.CreateCategory))
	mux.Handle("GET /api/rooms", authed(referenceHandler.ListRooms))
	mux.Handle("GET /api/rooms/{room}/shelves", authed(referenceHandler.ListShelves))
	mux.Handle("GET /api/locations", authed(referenceHandler.ListLocations))
	mux.Handle("POST /api/locations", authed(referenceHandler.CreateLocation))

	// Items.
	mux.Handle("GET /api/items/{id}", authed(itemsHandler.Get))
	mux.Handle("POST /api/items/{id}/pieces", authed(itemsHandler.AddPieces))
	mux.Handle("PUT /api/items/{id}/image", authed(itemsHandler.UploadImage))
	mux.Handle("GET /api/items/{id}/image", authed(itemsHandler.GetImage))

	// Donations.
	mux.Handle("POST /api/donations", authed(donationsHandler.Accept))
	mux.Handle("GET /api/donors/{username}/donations", authed(donationsHandler.ListByDonor))

	// Orders.
	mux.Handle("POST /api/orders", authed(ordersHandler.Start))
	mux.Handle("GET /api/orders", authed(ordersHandler.List))
	mux.Handle("GET /api/orders/{id}", authed(ordersHandler.Get))
	mux.Handle("POST /api/orders/{id}/items", authed(ordersHandler.AddItem))
	mux.Handle("DELETE /api/orders/{id}/items/{item}", authed(ordersHandler.RemoveItem))
	mux.Handle("PUT /api/orders/{id}/items/{item}/found", authed(ordersHandler.MarkFound))
	mux.Handle("POST /api/orders/{id}/close", authed(ordersHandler.Close))

	// Operations.
	mux.Handle("GET /metrics", metrics.Handler())
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		if err := o.Store.Ping(r.Context()); err != nil {
			writeError(w, r, err)
			return
		}
		jsonResponse(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	return metrics.InstrumentHandler(mux)
}
