package api

import (
	"database/sql"
	"net/http"

	"github.com/dkralj/bloodbank/internal/model"
)

// NewRouter creates the API router with all endpoints registered.
func NewRouter(db *sql.DB, jwtSecret string) http.Handler {
	mux := http.NewServeMux()

	authHandler := &AuthHandler{DB: db, JWTSecret: jwtSecret}
	usersHandler := &UsersHandler{DB: db}
	donorsHandler := &DonorsHandler{DB: db}
	banksHandler := &BanksHandler{DB: db}
	donationsHandler := &DonationsHandler{DB: db}
	requestsHandler := &RequestsHandler{DB: db}
	inventoryHandler := &InventoryHandler{DB: db}

	authMW := AuthMiddleware(jwtSecret, db)
	requireAdmin := RequireRole(model.RoleAdmin)
	requireStaff := RequireRole(model.RoleStaff)

	// Public: account registration, login, and blood requests from hospitals.
	mux.HandleFunc("POST /api/auth/register", authHandler.Register)
	mux.HandleFunc("POST /api/auth/login", authHandler.Login)
	mux.HandleFunc("POST /api/requests", requestsHandler.Create)

	// Authenticated routes.
	mux.Handle("PUT /api/auth/password", authMW(http.HandlerFunc(authHandler.ChangePassword)))
	mux.Handle("POST /api/auth/logout", authMW(http.HandlerFunc(authHandler.Logout)))

	// Users (admin only).
	mux.Handle("GET /api/users", authMW(requireAdmin(http.HandlerFunc(usersHandler.List))))
	mux.Handle("POST /api/users", authMW(requireAdmin(http.HandlerFunc(usersHandler.Create))))
	mux.Handle("PUT /api/users/{id}/role", authMW(requireAdmin(http.HandlerFunc(usersHandler.UpdateRole))))
	mux.Handle("DELETE /api/users/{id}", authMW(requireAdmin(http.HandlerFunc(usersHandler.Delete))))

	// Donors: list (staff+), profile access checked per donor in the handler.
	mux.Handle("GET /api/donors", authMW(requireStaff(http.HandlerFunc(donorsHandler.List))))
	mux.Handle("POST /api/donors", authMW(http.HandlerFunc(donorsHandler.Create)))
	mux.Handle("GET /api/donors/me", authMW(http.HandlerFunc(donorsHandler.Me)))
	mux.Handle("GET /api/donors/{id}", authMW(http.HandlerFunc(donorsHandler.Get)))
	mux.Handle("PUT /api/donors/{id}", authMW(http.HandlerFunc(donorsHandler.Update)))
	mux.Handle("DELETE /api/donors/{id}", authMW(requireStaff(http.HandlerFunc(donorsHandler.Delete))))
	mux.Handle("PUT /api/donors/{id}/photo", authMW(http.HandlerFunc(donorsHandler.UploadPhoto)))
	mux.Handle("GET /api/donors/{id}/photo", authMW(http.HandlerFunc(donorsHandler.GetPhoto)))

	// Banks: read (all roles), write (admin only).
	mux.Handle("GET /api/banks", authMW(http.HandlerFunc(banksHandler.List)))
	mux.Handle("POST /api/banks", authMW(requireAdmin(http.HandlerFunc(banksHandler.Create))))
	mux.Handle("GET /api/banks/{id}", authMW(http.HandlerFunc(banksHandler.Get)))
	mux.Handle("PUT /api/banks/{id}", authMW(requireAdmin(http.HandlerFunc(banksHandler.Update))))
	mux.Handle("DELETE /api/banks/{id}", authMW(requireAdmin(http.HandlerFunc(banksHandler.Delete))))
	mux.Handle("GET /api/banks/{id}/inventory", authMW(http.HandlerFunc(banksHandler.Inventory)))

	// Donations: ownership checked per donation in the handler.
	mux.Handle("POST /api/donations", authMW(http.HandlerFunc(donationsHandler.Create)))
	mux.Handle("GET /api/donations", authMW(http.HandlerFunc(donationsHandler.List)))
	mux.Handle("GET /api/donations/{id}", authMW(http.HandlerFunc(donationsHandler.Get)))

	// Requests: review and processing (staff+).
	mux.Handle("GET /api/requests", authMW(requireStaff(http.HandlerFunc(requestsHandler.List))))
	mux.Handle("GET /api/requests/{id}", authMW(requireStaff(http.HandlerFunc(requestsHandler.Get))))
	mux.Handle("POST /api/requests/{id}/approve", authMW(requireStaff(http.HandlerFunc(requestsHandler.Approve))))
	mux.Handle("PUT /api/requests/{id}/status", authMW(requireStaff(http.HandlerFunc(requestsHandler.UpdateStatus))))

	// Inventory: ledger (staff+), availability search (all roles).
	mux.Handle("GET /api/inventory", authMW(requireStaff(http.HandlerFunc(inventoryHandler.List))))
	mux.Handle("GET /api/inventory/search", authMW(http.HandlerFunc(inventoryHandler.Search)))

	return mux
}
