package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dkralj/bloodbank/internal/model"
)

// RequestInfo is the requester contact block of a blood request.
type RequestInfo struct {
	RequesterName   string
	HospitalName    string
	HospitalAddress string
	ContactNumber   string
	Email           string
}

// SubmitRequest validates and persists a blood request, matching it against
// bank inventory in the same transaction. If a bank holds enough units the
// request is stored approved with that bank's stock decremented; otherwise
// it is stored pending with no bank assigned, which is a successful outcome.
//
// If a bank was confirmed available but its stock was consumed before the
// decrement, the search is re-run once; a second failure persists the
// request as pending and returns RequestUnfulfillableError alongside it.
func SubmitRequest(ctx context.Context, db *sql.DB, info RequestInfo, group string, units int) (*model.BloodRequest, error) {
	if units < model.MinRequestUnits || units > model.MaxRequestUnits {
		return nil, &model.InvalidUnitsError{Units: units, Min: model.MinRequestUnits, Max: model.MaxRequestUnits}
	}
	if !model.ValidBloodGroup(group) {
		return nil, &model.InvalidBloodGroupError{Group: group}
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	bankID, matchErr := matchBank(ctx, tx, group, units)
	if matchErr != nil && !errors.As(matchErr, new(*model.RequestUnfulfillableError)) {
		return nil, matchErr
	}

	status := model.RequestPending
	var assigned any
	if bankID != nil {
		status = model.RequestApproved
		assigned = *bankID
	}

	result, err := tx.ExecContext(ctx,
		`INSERT INTO blood_requests
		     (requester_name, blood_group, units, hospital_name, hospital_address,
		      contact_number, email, status, bank_id)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		info.RequesterName, group, units, info.HospitalName, info.HospitalAddress,
		info.ContactNumber, info.Email, status, assigned,
	)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing request: %w", err)
	}

	requestID, _ := result.LastInsertId()
	req, err := GetRequest(ctx, db, requestID)
	if err != nil {
		return nil, err
	}
	// The raced-out request is persisted pending; surface both.
	return req, matchErr
}

// ApprovePending re-runs matching for an existing pending, unassigned
// request. Requests that already have a bank or left the pending state fail
// with RequestStateError. If no bank qualifies the request stays pending.
// A confirmed bank raced out twice leaves the request pending and returns
// it together with RequestUnfulfillableError, mirroring SubmitRequest.
func ApprovePending(ctx context.Context, db *sql.DB, id int64) (*model.BloodRequest, error) {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	var status, group string
	var units int
	var assigned sql.NullInt64
	err = tx.QueryRowContext(ctx,
		`SELECT status, blood_group, units, bank_id FROM blood_requests WHERE id = ?`, id,
	).Scan(&status, &group, &units, &assigned)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("request not found")
	}
	if err != nil {
		return nil, fmt.Errorf("loading request: %w", err)
	}

	if status != model.RequestPending {
		return nil, &model.RequestStateError{Status: status, Reason: "only pending requests can be matched"}
	}
	if assigned.Valid {
		return nil, &model.RequestStateError{Status: status, Reason: "request already has a bank assigned"}
	}

	bankID, matchErr := matchBank(ctx, tx, group, units)
	if matchErr != nil {
		if !errors.As(matchErr, new(*model.RequestUnfulfillableError)) {
			return nil, matchErr
		}
		// Raced out twice: the request stays pending untouched and the
		// caller is told why, same as SubmitRequest.
		req, err := GetRequest(ctx, db, id)
		if err != nil {
			return nil, err
		}
		return req, matchErr
	}
	if bankID == nil {
		// No qualifying bank; the request stays pending.
		return GetRequest(ctx, db, id)
	}

	_, err = tx.ExecContext(ctx,
		`UPDATE blood_requests SET status = ?, bank_id = ? WHERE id = ?`,
		model.RequestApproved, *bankID, id,
	)
	if err != nil {
		return nil, fmt.Errorf("approving request: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing approval: %w", err)
	}

	return GetRequest(ctx, db, id)
}

// matchBank finds the first bank (lowest id) holding enough units of the
// group and decrements its stock. Returns nil with no error when no bank
// qualifies. A decrement that loses a race to concurrent callers triggers
// one re-search; a second loss returns RequestUnfulfillableError.
func matchBank(ctx context.Context, tx *sql.Tx, group string, units int) (*int64, error) {
	for attempt := 0; attempt < 2; attempt++ {
		banks, err := findBanksWithUnits(ctx, tx, group, units)
		if err != nil {
			return nil, err
		}
		if len(banks) == 0 {
			return nil, nil
		}

		err = removeUnits(ctx, tx, banks[0].BankID, group, units)
		if err == nil {
			bankID := banks[0].BankID
			return &bankID, nil
		}
		if !errors.As(err, new(*model.InsufficientUnitsError)) {
			return nil, err
		}
	}
	return nil, &model.RequestUnfulfillableError{Group: group, Units: units}
}

// UpdateRequestStatus applies an administrative transition (reject or
// complete). Approval is not reachable here; it goes through matching so a
// bank is always assigned alongside. Transitions are forward-only.
func UpdateRequestStatus(ctx context.Context, db *sql.DB, id int64, newStatus string) (*model.BloodRequest, error) {
	if newStatus != model.RequestRejected && newStatus != model.RequestCompleted {
		return nil, &model.RequestStateError{Status: newStatus, Reason: "status must be rejected or completed"}
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	var current string
	err = tx.QueryRowContext(ctx,
		`SELECT status FROM blood_requests WHERE id = ?`, id,
	).Scan(&current)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("request not found")
	}
	if err != nil {
		return nil, fmt.Errorf("loading request: %w", err)
	}

	if !model.ValidRequestTransition(current, newStatus) {
		return nil, &model.RequestStateError{
			Status: current,
			Reason: fmt.Sprintf("cannot transition to %q", newStatus),
		}
	}

	_, err = tx.ExecContext(ctx,
		`UPDATE blood_requests SET status = ? WHERE id = ?`, newStatus, id,
	)
	if err != nil {
		return nil, fmt.Errorf("updating request status: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing status update: %w", err)
	}

	return GetRequest(ctx, db, id)
}

// GetRequest returns a blood request by ID.
func GetRequest(ctx context.Context, db *sql.DB, id int64) (*model.BloodRequest, error) {
	req := &model.BloodRequest{}
	var bankID sql.NullInt64
	var bankName sql.NullString
	err := db.QueryRowContext(ctx,
		`SELECT r.id, r.requester_name, r.blood_group, r.units, r.hospital_name,
		        r.hospital_address, r.contact_number, r.email, r.status, r.bank_id,
		        r.created_at, b.name
		 FROM blood_requests r
		 LEFT JOIN blood_banks b ON b.id = r.bank_id
		 WHERE r.id = ?`, id,
	).Scan(&req.ID, &req.RequesterName, &req.BloodGroup, &req.Units, &req.HospitalName,
		&req.HospitalAddress, &req.ContactNumber, &req.Email, &req.Status, &bankID,
		&req.CreatedAt, &bankName)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting request: %w", err)
	}
	if bankID.Valid {
		req.BankID = &bankID.Int64
	}
	req.BankName = bankName.String
	return req, nil
}

// ListRequests returns blood requests newest first, optionally filtered by
// status.
func ListRequests(ctx context.Context, db *sql.DB, status string) ([]model.BloodRequest, error) {
	query := `SELECT r.id, r.requester_name, r.blood_group, r.units, r.hospital_name,
	                 r.hospital_address, r.contact_number, r.email, r.status, r.bank_id,
	                 r.created_at, b.name
	          FROM blood_requests r
	          LEFT JOIN blood_banks b ON b.id = r.bank_id`
	var args []any

	if status != "" {
		query += ` WHERE r.status = ?`
		args = append(args, status)
	}
	query += ` ORDER BY r.created_at DESC, r.id DESC`

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing requests: %w", err)
	}
	defer rows.Close()

	var requests []model.BloodRequest
	for rows.Next() {
		var req model.BloodRequest
		var bankID sql.NullInt64
		var bankName sql.NullString
		if err := rows.Scan(&req.ID, &req.RequesterName, &req.BloodGroup, &req.Units, &req.HospitalName,
			&req.HospitalAddress, &req.ContactNumber, &req.Email, &req.Status, &bankID,
			&req.CreatedAt, &bankName); err != nil {
			return nil, fmt.Errorf("scanning request: %w", err)
		}
		if bankID.Valid {
			req.BankID = &bankID.Int64
		}
		req.BankName = bankName.String
		requests = append(requests, req)
	}
	return requests, rows.Err()
}
