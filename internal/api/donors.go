package api

import (
	"bytes"
	"database/sql"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/dkralj/bloodbank/internal/imaging"
	"github.com/dkralj/bloodbank/internal/model"
	"github.com/dkralj/bloodbank/internal/store"
)

// DonorsHandler handles donor endpoints.
type DonorsHandler struct {
	DB *sql.DB
}

type donorRequest struct {
	Name        string `json:"name"`
	Email       string `json:"email"`
	PhoneNumber string `json:"phone_number"`
	Age         int    `json:"age"`
	BloodType   string `json:"blood_type"`
}

// Create handles POST /api/donors. A donor-role user registers their own
// profile; staff may register unlinked donors (walk-ins without accounts).
func (h *DonorsHandler) Create(w http.ResponseWriter, r *http.Request) {
	claims := GetClaims(r.Context())

	var req donorRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.Name == "" || req.Email == "" || req.PhoneNumber == "" {
		jsonError(w, http.StatusBadRequest, "name, email, and phone_number required")
		return
	}

	var userID *int64
	if !model.RoleAtLeast(claims.Role, model.RoleStaff) {
		existing, err := store.GetDonorByUser(r.Context(), h.DB, claims.UserID)
		if err != nil {
			jsonError(w, http.StatusInternalServerError, "internal error")
			return
		}
		if existing != nil {
			jsonError(w, http.StatusConflict, "donor profile already registered")
			return
		}
		userID = &claims.UserID
	}

	donor, err := store.CreateDonor(r.Context(), h.DB, userID, req.Name, req.Email, req.PhoneNumber, req.Age, req.BloodType)
	if err != nil {
		if domainError(w, err) {
			return
		}
		jsonError(w, http.StatusBadRequest, err.Error())
		return
	}

	slog.Info("donor registered", "donor", donor.Name, "blood_type", donor.BloodType)
	jsonResponse(w, http.StatusCreated, donor)
}

// List handles GET /api/donors.
func (h *DonorsHandler) List(w http.ResponseWriter, r *http.Request) {
	donors, err := store.ListDonors(r.Context(), h.DB)
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to list donors")
		return
	}
	if donors == nil {
		donors = []model.Donor{}
	}
	jsonResponse(w, http.StatusOK, donors)
}

// Me handles GET /api/donors/me, the caller's own donor profile.
func (h *DonorsHandler) Me(w http.ResponseWriter, r *http.Request) {
	claims := GetClaims(r.Context())

	donor, err := store.GetDonorByUser(r.Context(), h.DB, claims.UserID)
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if donor == nil {
		jsonError(w, http.StatusNotFound, "no donor profile registered")
		return
	}
	jsonResponse(w, http.StatusOK, donor)
}

// donorForRequest loads the donor from the path and checks that the caller
// may act on it: staff always, donor-role users only on their own profile.
func (h *DonorsHandler) donorForRequest(w http.ResponseWriter, r *http.Request) *model.Donor {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid donor id")
		return nil
	}

	donor, err := store.GetDonor(r.Context(), h.DB, id)
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "internal error")
		return nil
	}
	if donor == nil || donor.DeletedAt != nil {
		jsonError(w, http.StatusNotFound, "donor not found")
		return nil
	}

	claims := GetClaims(r.Context())
	if !model.RoleAtLeast(claims.Role, model.RoleStaff) {
		if donor.UserID == nil || *donor.UserID != claims.UserID {
			jsonError(w, http.StatusForbidden, "insufficient permissions")
			return nil
		}
	}
	return donor
}

// Get handles GET /api/donors/{id}.
func (h *DonorsHandler) Get(w http.ResponseWriter, r *http.Request) {
	donor := h.donorForRequest(w, r)
	if donor == nil {
		return
	}
	jsonResponse(w, http.StatusOK, donor)
}

// Update handles PUT /api/donors/{id}.
func (h *DonorsHandler) Update(w http.ResponseWriter, r *http.Request) {
	donor := h.donorForRequest(w, r)
	if donor == nil {
		return
	}

	var req donorRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.Name == "" || req.Email == "" || req.PhoneNumber == "" {
		jsonError(w, http.StatusBadRequest, "name, email, and phone_number required")
		return
	}

	if err := store.UpdateDonor(r.Context(), h.DB, donor.ID, req.Name, req.Email, req.PhoneNumber, req.Age, req.BloodType); err != nil {
		if domainError(w, err) {
			return
		}
		jsonError(w, http.StatusBadRequest, err.Error())
		return
	}

	updated, _ := store.GetDonor(r.Context(), h.DB, donor.ID)
	jsonResponse(w, http.StatusOK, updated)
}

// Delete handles DELETE /api/donors/{id}.
func (h *DonorsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid donor id")
		return
	}

	if err := store.DeleteDonor(r.Context(), h.DB, id); err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to delete donor")
		return
	}

	jsonResponse(w, http.StatusOK, map[string]string{"message": "donor deleted"})
}

// UploadPhoto handles PUT /api/donors/{id}/photo.
func (h *DonorsHandler) UploadPhoto(w http.ResponseWriter, r *http.Request) {
	donor := h.donorForRequest(w, r)
	if donor == nil {
		return
	}

	// Limit to 5 MB.
	r.Body = http.MaxBytesReader(w, r.Body, 5<<20)

	if err := r.ParseMultipartForm(5 << 20); err != nil {
		jsonError(w, http.StatusBadRequest, "file too large or invalid multipart form")
		return
	}

	file, _, err := r.FormFile("photo")
	if err != nil {
		jsonError(w, http.StatusBadRequest, "photo file required")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to read photo")
		return
	}

	photo, err := imaging.Process(bytes.NewReader(data))
	if err != nil {
		jsonError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := store.SetDonorPhoto(r.Context(), h.DB, donor.ID, photo.Data, photo.MIME); err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to save photo")
		return
	}

	jsonResponse(w, http.StatusOK, map[string]string{"message": "photo uploaded"})
}

// GetPhoto handles GET /api/donors/{id}/photo.
func (h *DonorsHandler) GetPhoto(w http.ResponseWriter, r *http.Request) {
	donor := h.donorForRequest(w, r)
	if donor == nil {
		return
	}

	data, mime, err := store.GetDonorPhoto(r.Context(), h.DB, donor.ID)
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to get photo")
		return
	}
	if data == nil {
		jsonError(w, http.StatusNotFound, "no photo")
		return
	}

	w.Header().Set("Content-Type", mime)
	w.Header().Set("Cache-Control", "private, max-age=3600")
	w.Write(data)
}
