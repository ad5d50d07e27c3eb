package storage

import (
	"context"
	"database/sql"
	"embed"
	"fmt"

	"github.com/lib/pq"
	"github.com/xaenox/cartcheck-bot/internal/models"
	"go.uber.org/zap"
)

//go:embed migrations.sql
var migrations embed.FS

type DatabaseConfig struct {
	Host        string
	Port        int
	User        string
	Password    string
	DBName      string
	SSLMode     string
	UseInMemory bool
}

// PostgresStorage persists profiles in a profiles table. The per-user
// turn lock is still process-local; running multiple instances against
// one database is out of scope.
type PostgresStorage struct {
	db     *sql.DB
	locks  *userLocks
	logger *zap.Logger
}

func NewPostgresStorage(config DatabaseConfig, logger *zap.Logger) (*PostgresStorage, error) {
	connStr := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		config.Host, config.Port, config.User, config.Password, config.DBName, config.SSLMode)

	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, fmt.Errorf("error opening database: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("error connecting to the database: %w", err)
	}

	storage := &PostgresStorage{
		db:     db,
		locks:  newUserLocks(),
		logger: logger,
	}

	if err := storage.initializeSchema(); err != nil {
		return nil, fmt.Errorf("error initializing database schema: %w", err)
	}

	return storage, nil
}

func (s *PostgresStorage) initializeSchema() error {
	migrationSQL, err := migrations.ReadFile("migrations.sql")
	if err != nil {
		return fmt.Errorf("error reading migrations file: %w", err)
	}

	if _, err := s.db.Exec(string(migrationSQL)); err != nil {
		return fmt.Errorf("error executing migrations: %w", err)
	}

	return nil
}

func (s *PostgresStorage) GetOrCreate(ctx context.Context, userID, name string) (*models.UserProfile, error) {
	fresh := models.NewUserProfile(userID, name)

	// ON CONFLICT DO NOTHING keeps the first writer's row when two
	// turns race on an unseen user.
	insert := `
		INSERT INTO profiles (user_id, name, stage, goals, restrictions, carts_analyzed, items_flagged, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (user_id) DO NOTHING`

	_, err := s.db.ExecContext(ctx, insert,
		fresh.UserID,
		fresh.Name,
		string(fresh.Stage),
		pq.Array(fresh.Goals),
		pq.Array(fresh.Restrictions),
		fresh.CartsAnalyzed,
		fresh.ItemsFlagged,
		fresh.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("error creating profile: %w", err)
	}

	query := `
		SELECT user_id, name, stage, goals, restrictions, carts_analyzed, items_flagged, created_at
		FROM profiles
		WHERE user_id = $1`

	profile := &models.UserProfile{}
	var stage string
	err = s.db.QueryRowContext(ctx, query, userID).Scan(
		&profile.UserID,
		&profile.Name,
		&stage,
		pq.Array(&profile.Goals),
		pq.Array(&profile.Restrictions),
		&profile.CartsAnalyzed,
		&profile.ItemsFlagged,
		&profile.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("error loading profile: %w", err)
	}

	profile.Stage = models.Stage(stage)
	return profile, nil
}

func (s *PostgresStorage) Update(ctx context.Context, profile *models.UserProfile) error {
	query := `
		UPDATE profiles
		SET name = $2, stage = $3, goals = $4, restrictions = $5,
		    carts_analyzed = $6, items_flagged = $7, created_at = $8
		WHERE user_id = $1`

	result, err := s.db.ExecContext(ctx, query,
		profile.UserID,
		profile.Name,
		string(profile.Stage),
		pq.Array(profile.Goals),
		pq.Array(profile.Restrictions),
		profile.CartsAnalyzed,
		profile.ItemsFlagged,
		profile.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("error updating profile: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("error getting rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("profile not found: %s", profile.UserID)
	}

	return nil
}

func (s *PostgresStorage) Delete(ctx context.Context, userID string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM profiles WHERE user_id = $1`, userID); err != nil {
		return fmt.Errorf("error deleting profile: %w", err)
	}
	return nil
}

func (s *PostgresStorage) Lock(userID string) func() {
	return s.locks.Lock(userID)
}

func (s *PostgresStorage) Close() error {
	return s.db.Close()
}

var _ Storage = (*PostgresStorage)(nil)
