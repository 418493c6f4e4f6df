package api

import (
	"database/sql"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/dkralj/bloodbank/internal/model"
	"github.com/dkralj/bloodbank/internal/store"
)

// BanksHandler handles blood bank endpoints.
type BanksHandler struct {
	DB *sql.DB
}

type bankRequest struct {
	Name          string `json:"name"`
	Address       string `json:"address"`
	ContactNumber string `json:"contact_number"`
	Email         string `json:"email"`
}

// List handles GET /api/banks. Totals are aggregated from the ledger.
func (h *BanksHandler) List(w http.ResponseWriter, r *http.Request) {
	banks, err := store.ListBanks(r.Context(), h.DB)
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to list banks")
		return
	}
	if banks == nil {
		banks = []model.BloodBank{}
	}
	jsonResponse(w, http.StatusOK, banks)
}

// Get handles GET /api/banks/{id}.
func (h *BanksHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid bank id")
		return
	}

	bank, err := store.GetBank(r.Context(), h.DB, id)
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if bank == nil {
		jsonError(w, http.StatusNotFound, "bank not found")
		return
	}
	jsonResponse(w, http.StatusOK, bank)
}

// Create handles POST /api/banks.
func (h *BanksHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req bankRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.Name == "" || req.Address == "" {
		jsonError(w, http.StatusBadRequest, "name and address required")
		return
	}

	bank, err := store.CreateBank(r.Context(), h.DB, req.Name, req.Address, req.ContactNumber, req.Email)
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to create bank")
		return
	}

	slog.Info("bank created", "bank", bank.Name)
	jsonResponse(w, http.StatusCreated, bank)
}

// Update handles PUT /api/banks/{id}.
func (h *BanksHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid bank id")
		return
	}

	var req bankRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.Name == "" || req.Address == "" {
		jsonError(w, http.StatusBadRequest, "name and address required")
		return
	}

	if err := store.UpdateBank(r.Context(), h.DB, id, req.Name, req.Address, req.ContactNumber, req.Email); err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to update bank")
		return
	}

	bank, _ := store.GetBank(r.Context(), h.DB, id)
	if bank == nil {
		jsonError(w, http.StatusNotFound, "bank not found")
		return
	}
	jsonResponse(w, http.StatusOK, bank)
}

// Delete handles DELETE /api/banks/{id}. Banks still holding stock are
// refused so no units silently disappear from the ledger.
func (h *BanksHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid bank id")
		return
	}

	if err := store.DeleteBank(r.Context(), h.DB, id); err != nil {
		jsonError(w, http.StatusConflict, err.Error())
		return
	}

	slog.Info("bank deleted", "bank_id", id)
	jsonResponse(w, http.StatusOK, map[string]string{"message": "bank deleted"})
}

// Inventory handles GET /api/banks/{id}/inventory.
func (h *BanksHandler) Inventory(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid bank id")
		return
	}

	bank, err := store.GetBank(r.Context(), h.DB, id)
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if bank == nil {
		jsonError(w, http.StatusNotFound, "bank not found")
		return
	}

	inventory, err := store.GetBankInventory(r.Context(), h.DB, id)
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to get inventory")
		return
	}
	if inventory == nil {
		inventory = []model.Inventory{}
	}
	jsonResponse(w, http.StatusOK, inventory)
}
