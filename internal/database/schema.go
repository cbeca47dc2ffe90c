package database

import (
	"context"
	"database/sql"
	"fmt"
)

// schema creates the four tables the service needs.  reserved_flag is NULL
// for waitlist rows, so uq_reservations_reserved admits any number of
// WAITED rows but only one RESERVED row per (date, time, theme).
var schema = []string{
	`CREATE TABLE IF NOT EXISTS members (
		id            BIGINT UNSIGNED AUTO_INCREMENT PRIMARY KEY,
		name          VARCHAR(100) NOT NULL,
		email         VARCHAR(255) NOT NULL,
		password_hash VARCHAR(255) NOT NULL,
		role          ENUM('MEMBER','ADMIN') NOT NULL DEFAULT 'MEMBER',
		created_at    DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		UNIQUE KEY uq_members_email (email)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,

	`CREATE TABLE IF NOT EXISTS reservation_times (
		id       BIGINT UNSIGNED AUTO_INCREMENT PRIMARY KEY,
		start_at CHAR(5) NOT NULL,
		UNIQUE KEY uq_reservation_times_start (start_at)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,

	`CREATE TABLE IF NOT EXISTS themes (
		id          BIGINT UNSIGNED AUTO_INCREMENT PRIMARY KEY,
		name        VARCHAR(100) NOT NULL,
		description VARCHAR(1000) NOT NULL DEFAULT '',
		thumbnail   VARCHAR(500) NOT NULL DEFAULT '',
		UNIQUE KEY uq_themes_name (name)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,

	`CREATE TABLE IF NOT EXISTS reservations (
		id            BIGINT UNSIGNED AUTO_INCREMENT PRIMARY KEY,
		date          DATE NOT NULL,
		time_id       BIGINT UNSIGNED NOT NULL,
		theme_id      BIGINT UNSIGNED NOT NULL,
		member_id     BIGINT UNSIGNED NOT NULL,
		status        ENUM('RESERVED','WAITED') NOT NULL,
		created_at    DATETIME(6) NOT NULL,
		reserved_flag TINYINT GENERATED ALWAYS AS (IF(status = 'RESERVED', 1, NULL)) STORED,
		UNIQUE KEY uq_reservations_reserved (date, time_id, theme_id, reserved_flag),
		UNIQUE KEY uq_reservations_member (date, time_id, theme_id, member_id),
		KEY idx_reservations_member (member_id),
		KEY idx_reservations_theme_date (theme_id, date),
		CONSTRAINT fk_reservations_time FOREIGN KEY (time_id) REFERENCES reservation_times (id) ON DELETE RESTRICT,
		CONSTRAINT fk_reservations_theme FOREIGN KEY (theme_id) REFERENCES themes (id) ON DELETE RESTRICT,
		CONSTRAINT fk_reservations_member FOREIGN KEY (member_id) REFERENCES members (id) ON DELETE CASCADE
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
}

// Migrate creates missing tables.  It is safe to run on every start.
func Migrate(ctx context.Context, db *sql.DB) error {
	for i, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate step %d: %w", i+1, err)
		}
	}
	return nil
}
