package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/go-sql-driver/mysql"

	"github.com/iliyamo/pollution-watch/internal/config"
)

// Open connects to MySQL and verifies the connection.
func Open(cfg config.Config) (*sql.DB, error) {
	auth := cfg.DBUser
	if cfg.DBPass != "" {
		auth = fmt.Sprintf("%s:%s", cfg.DBUser, cfg.DBPass)
	}
	// parseTime=true -> DATETIME -> time.Time | loc=UTC keeps times consistent
	dsn := fmt.Sprintf("%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=true&loc=UTC",
		auth, cfg.DBHost, cfg.DBPort, cfg.DBName)

	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, err
	}

	// Pool settings
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(25)
	db.SetConnMaxLifetime(30 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

// schema is applied in order; every statement is idempotent.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id            CHAR(36)     NOT NULL PRIMARY KEY,
		login         VARCHAR(191) NOT NULL,
		pass          VARCHAR(255) NOT NULL,
		nom           VARCHAR(100) NOT NULL,
		prenom        VARCHAR(100) NOT NULL,
		role          VARCHAR(16)  NOT NULL DEFAULT 'user',
		refresh_token CHAR(64)     NULL,
		created_at    DATETIME     NOT NULL DEFAULT CURRENT_TIMESTAMP,
		UNIQUE KEY uq_users_login (login),
		KEY ix_users_refresh_token (refresh_token)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
	`CREATE TABLE IF NOT EXISTS pollutions (
		id                BIGINT UNSIGNED NOT NULL AUTO_INCREMENT PRIMARY KEY,
		titre             VARCHAR(200)  NOT NULL,
		description       TEXT          NOT NULL,
		type_pollution    VARCHAR(64)   NOT NULL,
		lieu              VARCHAR(300)  NOT NULL,
		date_observation  DATETIME      NOT NULL,
		decouvreur_nom    VARCHAR(100)  NULL,
		decouvreur_prenom VARCHAR(100)  NULL,
		utilisateur_id    CHAR(36)      NULL,
		photo_url         MEDIUMTEXT    NULL,
		created_at        DATETIME      NOT NULL DEFAULT CURRENT_TIMESTAMP,
		KEY ix_pollutions_owner (utilisateur_id),
		CONSTRAINT fk_pollutions_owner FOREIGN KEY (utilisateur_id) REFERENCES users(id) ON DELETE SET NULL
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
	`CREATE TABLE IF NOT EXISTS favorites (
		user_id      CHAR(36)        NOT NULL,
		pollution_id BIGINT UNSIGNED NOT NULL,
		created_at   DATETIME        NOT NULL DEFAULT CURRENT_TIMESTAMP,
		PRIMARY KEY (user_id, pollution_id),
		CONSTRAINT fk_favorites_user FOREIGN KEY (user_id) REFERENCES users(id) ON DELETE CASCADE,
		CONSTRAINT fk_favorites_pollution FOREIGN KEY (pollution_id) REFERENCES pollutions(id) ON DELETE CASCADE
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
}

// Migrate creates the tables the API needs when they do not exist yet.
func Migrate(ctx context.Context, db *sql.DB) error {
	for i, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate step %d: %w", i+1, err)
		}
	}
	return nil
}
