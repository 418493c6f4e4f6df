package api

import (
	"database/sql"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/dkralj/bloodbank/internal/model"
	"github.com/dkralj/bloodbank/internal/store"
)

// RequestsHandler handles blood request endpoints.
type RequestsHandler struct {
	DB *sql.DB
}

type bloodRequestRequest struct {
	RequesterName   string `json:"requester_name"`
	BloodGroup      string `json:"blood_group"`
	Units           int    `json:"units"`
	HospitalName    string `json:"hospital_name"`
	HospitalAddress string `json:"hospital_address"`
	ContactNumber   string `json:"contact_number"`
	Email           string `json:"email"`
}

type statusUpdateRequest struct {
	Status string `json:"status"`
}

// Create handles POST /api/requests. Hospitals submit without an account, so
// this endpoint is public. A request with no matching stock is stored as
// pending and still returns 201, which is why the unfulfillable error is
// swallowed here: the caller gets the persisted request and can see its
// pending status.
func (h *RequestsHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req bloodRequestRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.RequesterName == "" || req.HospitalName == "" || req.ContactNumber == "" {
		jsonError(w, http.StatusBadRequest, "requester_name, hospital_name, and contact_number required")
		return
	}

	info := store.RequestInfo{
		RequesterName:   req.RequesterName,
		HospitalName:    req.HospitalName,
		HospitalAddress: req.HospitalAddress,
		ContactNumber:   req.ContactNumber,
		Email:           req.Email,
	}

	request, err := store.SubmitRequest(r.Context(), h.DB, info, req.BloodGroup, req.Units)
	if err != nil && !errors.As(err, new(*model.RequestUnfulfillableError)) {
		if domainError(w, err) {
			return
		}
		jsonError(w, http.StatusBadRequest, err.Error())
		return
	}

	slog.Info("blood request submitted",
		"requester", request.RequesterName,
		"blood_group", request.BloodGroup,
		"units", request.Units,
		"status", request.Status)
	jsonResponse(w, http.StatusCreated, request)
}

// List handles GET /api/requests with an optional ?status= filter.
func (h *RequestsHandler) List(w http.ResponseWriter, r *http.Request) {
	status := r.URL.Query().Get("status")
	if status != "" && status != model.RequestPending && status != model.RequestApproved &&
		status != model.RequestRejected && status != model.RequestCompleted {
		jsonError(w, http.StatusBadRequest, "invalid status filter")
		return
	}

	requests, err := store.ListRequests(r.Context(), h.DB, status)
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to list requests")
		return
	}
	if requests == nil {
		requests = []model.BloodRequest{}
	}
	jsonResponse(w, http.StatusOK, requests)
}

// Get handles GET /api/requests/{id}.
func (h *RequestsHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request id")
		return
	}

	request, err := store.GetRequest(r.Context(), h.DB, id)
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if request == nil {
		jsonError(w, http.StatusNotFound, "request not found")
		return
	}
	jsonResponse(w, http.StatusOK, request)
}

// Approve handles POST /api/requests/{id}/approve, re-running the match for
// a pending request. If no bank can cover it the request stays pending and
// is returned as such.
func (h *RequestsHandler) Approve(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request id")
		return
	}

	request, err := store.ApprovePending(r.Context(), h.DB, id)
	if err != nil {
		if domainError(w, err) {
			return
		}
		jsonError(w, http.StatusNotFound, err.Error())
		return
	}

	claims := GetClaims(r.Context())
	slog.Info("blood request match attempted",
		"request_id", request.ID,
		"status", request.Status,
		"by", claims.Username)
	jsonResponse(w, http.StatusOK, request)
}

// UpdateStatus handles PUT /api/requests/{id}/status for rejecting a pending
// request or completing an approved one.
func (h *RequestsHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request id")
		return
	}

	var req statusUpdateRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	request, err := store.UpdateRequestStatus(r.Context(), h.DB, id, req.Status)
	if err != nil {
		if domainError(w, err) {
			return
		}
		jsonError(w, http.StatusBadRequest, err.Error())
		return
	}

	claims := GetClaims(r.Context())
	slog.Info("blood request status updated",
		"request_id", request.ID,
		"status", request.Status,
		"by", claims.Username)
	jsonResponse(w, http.StatusOK, request)
}
