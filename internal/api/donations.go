package api

import (
	"database/sql"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/dkralj/bloodbank/internal/model"
	"github.com/dkralj/bloodbank/internal/store"
)

// DonationsHandler handles donation endpoints.
type DonationsHandler struct {
	DB *sql.DB
}

type donationRequest struct {
	DonorID int64 `json:"donor_id"`
	BankID  int64 `json:"bank_id"`
	Units   int   `json:"units"`
}

// Create handles POST /api/donations. Donor-role users record donations for
// their own profile; staff may record for any donor. The donated group is
// always the donor's registered blood type.
func (h *DonationsHandler) Create(w http.ResponseWriter, r *http.Request) {
	claims := GetClaims(r.Context())

	var req donationRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.BankID == 0 {
		jsonError(w, http.StatusBadRequest, "bank_id required")
		return
	}

	var donor *model.Donor
	var err error
	if model.RoleAtLeast(claims.Role, model.RoleStaff) {
		if req.DonorID == 0 {
			jsonError(w, http.StatusBadRequest, "donor_id required")
			return
		}
		donor, err = store.GetDonor(r.Context(), h.DB, req.DonorID)
	} else {
		donor, err = store.GetDonorByUser(r.Context(), h.DB, claims.UserID)
	}
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if donor == nil || donor.DeletedAt != nil {
		jsonError(w, http.StatusNotFound, "donor not found")
		return
	}

	donation, err := store.RecordDonation(r.Context(), h.DB, donor.ID, req.BankID, donor.BloodType, req.Units)
	if err != nil {
		if domainError(w, err) {
			return
		}
		jsonError(w, http.StatusBadRequest, err.Error())
		return
	}

	slog.Info("donation recorded",
		"donor", donor.Name,
		"bank_id", req.BankID,
		"blood_group", donation.BloodGroup,
		"units", donation.Units)
	jsonResponse(w, http.StatusCreated, donation)
}

// List handles GET /api/donations. Donor-role users see only their own
// history; staff see everything, optionally filtered by donor_id.
func (h *DonationsHandler) List(w http.ResponseWriter, r *http.Request) {
	claims := GetClaims(r.Context())

	var donorID int64
	if model.RoleAtLeast(claims.Role, model.RoleStaff) {
		if filter := r.URL.Query().Get("donor_id"); filter != "" {
			id, err := strconv.ParseInt(filter, 10, 64)
			if err != nil {
				jsonError(w, http.StatusBadRequest, "invalid donor_id")
				return
			}
			donorID = id
		}
	} else {
		donor, err := store.GetDonorByUser(r.Context(), h.DB, claims.UserID)
		if err != nil {
			jsonError(w, http.StatusInternalServerError, "internal error")
			return
		}
		if donor == nil {
			jsonResponse(w, http.StatusOK, []model.Donation{})
			return
		}
		donorID = donor.ID
	}

	donations, err := store.ListDonations(r.Context(), h.DB, donorID)
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to list donations")
		return
	}
	if donations == nil {
		donations = []model.Donation{}
	}
	jsonResponse(w, http.StatusOK, donations)
}

// Get handles GET /api/donations/{id}.
func (h *DonationsHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid donation id")
		return
	}

	donation, err := store.GetDonation(r.Context(), h.DB, id)
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if donation == nil {
		jsonError(w, http.StatusNotFound, "donation not found")
		return
	}

	claims := GetClaims(r.Context())
	if !model.RoleAtLeast(claims.Role, model.RoleStaff) {
		donor, err := store.GetDonorByUser(r.Context(), h.DB, claims.UserID)
		if err != nil {
			jsonError(w, http.StatusInternalServerError, "internal error")
			return
		}
		if donor == nil || donor.ID != donation.DonorID {
			jsonError(w, http.StatusForbidden, "insufficient permissions")
			return
		}
	}

	jsonResponse(w, http.StatusOK, donation)
}
