package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/dkralj/bloodbank/internal/model"
)

// CreateDonor registers a new donor profile, optionally linked to a user
// account.
func CreateDonor(ctx context.Context, db *sql.DB, userID *int64, name, email, phone string, age int, bloodType string) (*model.Donor, error) {
	if !model.ValidDonorAge(age) {
		return nil, fmt.Errorf("donor age must be between %d and %d", model.MinDonorAge, model.MaxDonorAge)
	}
	if !model.ValidBloodGroup(bloodType) {
		return nil, &model.InvalidBloodGroupError{Group: bloodType}
	}

	result, err := db.ExecContext(ctx,
		`INSERT INTO donors (user_id, name, email, phone_number, age, blood_type)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		userID, name, email, phone, age, bloodType,
	)
	if err != nil {
		return nil, fmt.Errorf("creating donor: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("getting donor id: %w", err)
	}

	return GetDonor(ctx, db, id)
}

// GetDonor returns a donor by ID.
func GetDonor(ctx context.Context, db *sql.DB, id int64) (*model.Donor, error) {
	return scanDonorRow(db.QueryRowContext(ctx,
		`SELECT id, user_id, name, email, phone_number, age, blood_type,
		        last_donation, photo_mime, created_at, updated_at, deleted_at
		 FROM donors WHERE id = ?`, id,
	))
}

// GetDonorByUser returns the donor profile linked to a user account, or nil
// if the user has not registered as a donor.
func GetDonorByUser(ctx context.Context, db *sql.DB, userID int64) (*model.Donor, error) {
	return scanDonorRow(db.QueryRowContext(ctx,
		`SELECT id, user_id, name, email, phone_number, age, blood_type,
		        last_donation, photo_mime, created_at, updated_at, deleted_at
		 FROM donors WHERE user_id = ? AND deleted_at IS NULL`, userID,
	))
}

func scanDonorRow(row *sql.Row) (*model.Donor, error) {
	d := &model.Donor{}
	var photoMime sql.NullString
	err := row.Scan(&d.ID, &d.UserID, &d.Name, &d.Email, &d.PhoneNumber, &d.Age, &d.BloodType,
		&d.LastDonation, &photoMime, &d.CreatedAt, &d.UpdatedAt, &d.DeletedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting donor: %w", err)
	}
	d.PhotoMime = photoMime.String
	return d, nil
}

// ListDonors returns all non-deleted donors, newest first.
func ListDonors(ctx context.Context, db *sql.DB) ([]model.Donor, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT id, user_id, name, email, phone_number, age, blood_type,
		        last_donation, photo_mime, created_at, updated_at, deleted_at
		 FROM donors WHERE deleted_at IS NULL ORDER BY created_at DESC, id DESC`,
	)
	if err != nil {
		return nil, fmt.Errorf("listing donors: %w", err)
	}
	defer rows.Close()

	var donors []model.Donor
	for rows.Next() {
		var d model.Donor
		var photoMime sql.NullString
		if err := rows.Scan(&d.ID, &d.UserID, &d.Name, &d.Email, &d.PhoneNumber, &d.Age, &d.BloodType,
			&d.LastDonation, &photoMime, &d.CreatedAt, &d.UpdatedAt, &d.DeletedAt); err != nil {
			return nil, fmt.Errorf("scanning donor: %w", err)
		}
		d.PhotoMime = photoMime.String
		donors = append(donors, d)
	}
	return donors, rows.Err()
}

// UpdateDonor updates a donor's profile details.
func UpdateDonor(ctx context.Context, db *sql.DB, id int64, name, email, phone string, age int, bloodType string) error {
	if !model.ValidDonorAge(age) {
		return fmt.Errorf("donor age must be between %d and %d", model.MinDonorAge, model.MaxDonorAge)
	}
	if !model.ValidBloodGroup(bloodType) {
		return &model.InvalidBloodGroupError{Group: bloodType}
	}

	_, err := db.ExecContext(ctx,
		`UPDATE donors
		 SET name = ?, email = ?, phone_number = ?, age = ?, blood_type = ?,
		     updated_at = CURRENT_TIMESTAMP
		 WHERE id = ? AND deleted_at IS NULL`,
		name, email, phone, age, bloodType, id,
	)
	if err != nil {
		return fmt.Errorf("updating donor: %w", err)
	}
	return nil
}

// DeleteDonor soft-deletes a donor profile. Donation history stays intact.
func DeleteDonor(ctx context.Context, db *sql.DB, id int64) error {
	_, err := db.ExecContext(ctx,
		`UPDATE donors SET deleted_at = CURRENT_TIMESTAMP WHERE id = ? AND deleted_at IS NULL`,
		id,
	)
	if err != nil {
		return fmt.Errorf("deleting donor: %w", err)
	}
	return nil
}

// SetDonorPhoto stores a donor's processed profile photo.
func SetDonorPhoto(ctx context.Context, db *sql.DB, id int64, data []byte, mime string) error {
	_, err := db.ExecContext(ctx,
		`UPDATE donors SET photo = ?, photo_mime = ?, updated_at = CURRENT_TIMESTAMP
		 WHERE id = ? AND deleted_at IS NULL`,
		data, mime, id,
	)
	if err != nil {
		return fmt.Errorf("setting donor photo: %w", err)
	}
	return nil
}

// GetDonorPhoto returns a donor's photo data and MIME type, or nil data if
// no photo is set.
func GetDonorPhoto(ctx context.Context, db *sql.DB, id int64) ([]byte, string, error) {
	var data []byte
	var mime sql.NullString
	err := db.QueryRowContext(ctx,
		`SELECT photo, photo_mime FROM donors WHERE id = ? AND deleted_at IS NULL`, id,
	).Scan(&data, &mime)
	if err == sql.ErrNoRows {
		return nil, "", nil
	}
	if err != nil {
		return nil, "", fmt.Errorf("getting donor photo: %w", err)
	}
	return data, mime.String, nil
}
