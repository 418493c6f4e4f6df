package db

import (
	"database/sql"
	"fmt"
)

// schema is the full database schema.
const schema = `
CREATE TABLE IF NOT EXISTS users (
    id            INTEGER PRIMARY KEY,
    username      TEXT NOT NULL,
    password_hash TEXT NOT NULL,
    role          TEXT NOT NULL DEFAULT 'donor' CHECK (role IN ('admin', 'staff', 'donor')),
    created_at    DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    deleted_at    DATETIME
);

CREATE UNIQUE INDEX IF NOT EXISTS idx_users_username_active
    ON users(username) WHERE deleted_at IS NULL;

CREATE TABLE IF NOT EXISTS donors (
    id             INTEGER PRIMARY KEY,
    user_id        INTEGER REFERENCES users(id),
    name           TEXT NOT NULL,
    email          TEXT NOT NULL,
    phone_number   TEXT NOT NULL,
    age            INTEGER NOT NULL CHECK (age BETWEEN 18 AND 65),
    blood_type     TEXT NOT NULL CHECK (blood_type IN ('A+','A-','B+','B-','O+','O-','AB+','AB-')),
    last_donation  DATETIME,
    photo          BLOB,
    photo_mime     TEXT,
    created_at     DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    updated_at     DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    deleted_at     DATETIME
);

CREATE UNIQUE INDEX IF NOT EXISTS idx_donors_email_active
    ON donors(email) WHERE deleted_at IS NULL;

CREATE UNIQUE INDEX IF NOT EXISTS idx_donors_user_active
    ON donors(user_id) WHERE user_id IS NOT NULL AND deleted_at IS NULL;

CREATE TABLE IF NOT EXISTS blood_banks (
    id             INTEGER PRIMARY KEY,
    name           TEXT NOT NULL,
    address        TEXT NOT NULL,
    contact_number TEXT NOT NULL,
    email          TEXT NOT NULL,
    created_at     DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    deleted_at     DATETIME
);

CREATE TABLE IF NOT EXISTS inventory (
    bank_id     INTEGER NOT NULL REFERENCES blood_banks(id),
    blood_group TEXT NOT NULL CHECK (blood_group IN ('A+','A-','B+','B-','O+','O-','AB+','AB-')),
    units       INTEGER NOT NULL DEFAULT 0 CHECK (units >= 0),
    updated_at  DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    PRIMARY KEY (bank_id, blood_group)
);

CREATE TABLE IF NOT EXISTS donations (
    id          INTEGER PRIMARY KEY,
    donor_id    INTEGER NOT NULL REFERENCES donors(id),
    bank_id     INTEGER NOT NULL REFERENCES blood_banks(id),
    blood_group TEXT NOT NULL CHECK (blood_group IN ('A+','A-','B+','B-','O+','O-','AB+','AB-')),
    units       INTEGER NOT NULL CHECK (units > 0),
    donated_at  DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS blood_requests (
    id               INTEGER PRIMARY KEY,
    requester_name   TEXT NOT NULL,
    blood_group      TEXT NOT NULL CHECK (blood_group IN ('A+','A-','B+','B-','O+','O-','AB+','AB-')),
    units            INTEGER NOT NULL CHECK (units BETWEEN 1 AND 10),
    hospital_name    TEXT NOT NULL,
    hospital_address TEXT NOT NULL,
    contact_number   TEXT NOT NULL,
    email            TEXT NOT NULL,
    status           TEXT NOT NULL DEFAULT 'pending' CHECK (status IN ('pending', 'approved', 'rejected', 'completed')),
    bank_id          INTEGER REFERENCES blood_banks(id),
    created_at       DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS settings (
    key   TEXT PRIMARY KEY,
    value TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS revoked_tokens (
    jti        TEXT PRIMARY KEY,
    expires_at DATETIME NOT NULL
);
`

// EnsureSchema creates all tables and indexes if they don't already exist.
func EnsureSchema(db *sql.DB) error {
	_, err := db.Exec(schema)
	if err != nil {
		return fmt.Errorf("creating schema: %w", err)
	}
	return nil
}
