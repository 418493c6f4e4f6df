package api

import (
	"database/sql"
	"net/http"
	"strconv"

	"github.com/dkralj/bloodbank/internal/model"
	"github.com/dkralj/bloodbank/internal/store"
)

// InventoryHandler handles inventory endpoints.
type InventoryHandler struct {
	DB *sql.DB
}

// List handles GET /api/inventory, the full ledger across all banks.
func (h *InventoryHandler) List(w http.ResponseWriter, r *http.Request) {
	inventory, err := store.ListInventory(r.Context(), h.DB)
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to list inventory")
		return
	}
	if inventory == nil {
		inventory = []model.Inventory{}
	}
	jsonResponse(w, http.StatusOK, inventory)
}

// Search handles GET /api/inventory/search?blood_group=A%2B&units=3,
// returning the banks that can cover the requested amount, lowest
// bank id first.
func (h *InventoryHandler) Search(w http.ResponseWriter, r *http.Request) {
	group := r.URL.Query().Get("blood_group")

	units := 1
	if raw := r.URL.Query().Get("units"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			jsonError(w, http.StatusBadRequest, "units must be a positive integer")
			return
		}
		units = parsed
	}

	banks, err := store.FindBanksWithUnits(r.Context(), h.DB, group, units)
	if err != nil {
		if domainError(w, err) {
			return
		}
		jsonError(w, http.StatusInternalServerError, "search failed")
		return
	}
	if banks == nil {
		banks = []model.Inventory{}
	}
	jsonResponse(w, http.StatusOK, banks)
}
