package repositories

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/william165-bot/net-hunter/internal/database"
	"github.com/william165-bot/net-hunter/internal/models"
)

type PostgresAccountRepository struct {
	db   *database.DB
	pool database.Pool
}

func NewPostgresAccountRepository(db *database.DB) *PostgresAccountRepository {
	return &PostgresAccountRepository{db: db, pool: db.Pool}
}

const accountColumns = `email, password_hash, created_at, trial_started_at, premium_until, payments`

// rowScanner interface for scanning account rows (supports both single row and multiple rows)
type rowScanner interface {
	Scan(dest ...any) error
}

func scanAccountRow(scanner rowScanner) (*models.Account, error) {
	var acc models.Account
	var premiumUntil *time.Time
	var payments []models.PaymentRecord

	err := scanner.Scan(
		&acc.Email, &acc.PasswordHash, &acc.CreatedAt, &acc.TrialStartedAt,
		&premiumUntil, &payments,
	)
	if err != nil {
		return nil, database.MapPostgresError(err)
	}

	acc.CreatedAt = acc.CreatedAt.UTC()
	acc.TrialStartedAt = acc.TrialStartedAt.UTC()
	if premiumUntil != nil {
		until := premiumUntil.UTC()
		acc.PremiumUntil = &until
	}

	acc.Payments = make([]models.Payment, 0, len(payments))
	for _, p := range payments {
		acc.Payments = append(acc.Payments, models.Payment{At: models.ParseTimestamp(p.At), Via: p.Via})
	}

	return &acc, nil
}

func paymentsParam(acc *models.Account) []models.PaymentRecord {
	return acc.ToRecord().Payments
}

func (r *PostgresAccountRepository) Get(ctx context.Context, email string) (*models.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE email = $1`
	return scanAccountRow(r.pool.QueryRow(ctx, query, email))
}

func (r *PostgresAccountRepository) Create(ctx context.Context, acc *models.Account) error {
	query := `
		INSERT INTO accounts (` + accountColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	_, err := r.pool.Exec(ctx, query,
		acc.Email, acc.PasswordHash, acc.CreatedAt, acc.TrialStartedAt,
		acc.PremiumUntil, paymentsParam(acc),
	)
	if err != nil {
		return database.MapPostgresError(err)
	}
	return nil
}

func (r *PostgresAccountRepository) Put(ctx context.Context, acc *models.Account) error {
	query := `
		INSERT INTO accounts (` + accountColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (email) DO UPDATE SET
			password_hash = EXCLUDED.password_hash,
			created_at = EXCLUDED.created_at,
			trial_started_at = EXCLUDED.trial_started_at,
			premium_until = EXCLUDED.premium_until,
			payments = EXCLUDED.payments
	`

	_, err := r.pool.Exec(ctx, query,
		acc.Email, acc.PasswordHash, acc.CreatedAt, acc.TrialStartedAt,
		acc.PremiumUntil, paymentsParam(acc),
	)
	if err != nil {
		return database.MapPostgresError(err)
	}
	return nil
}

func (r *PostgresAccountRepository) List(ctx context.Context) ([]*models.Account, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+accountColumns+` FROM accounts`)
	if err != nil {
		return nil, fmt.Errorf("failed to query accounts: %w", err)
	}
	defer rows.Close()

	accounts := make([]*models.Account, 0)
	for rows.Next() {
		acc, err := scanAccountRow(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan account: %w", err)
		}
		accounts = append(accounts, acc)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return accounts, nil
}

// Update locks the row for the duration of fn, so concurrent updates of one
// account serialise instead of losing writes.
func (r *PostgresAccountRepository) Update(ctx context.Context, email string, fn func(*models.Account) error) (*models.Account, error) {
	var updated *models.Account

	err := r.db.WithTransaction(ctx, func(tx pgx.Tx) error {
		query := `SELECT ` + accountColumns + ` FROM accounts WHERE email = $1 FOR UPDATE`
		acc, err := scanAccountRow(tx.QueryRow(ctx, query, email))
		if err != nil {
			return err
		}

		if err := fn(acc); err != nil {
			return err
		}
		acc.Email = email

		_, err = tx.Exec(ctx, `
			UPDATE accounts
			SET password_hash = $2, trial_started_at = $3, premium_until = $4, payments = $5
			WHERE email = $1
		`, acc.Email, acc.PasswordHash, acc.TrialStartedAt, acc.PremiumUntil, paymentsParam(acc))
		if err != nil {
			return database.MapPostgresError(err)
		}

		updated = acc
		return nil
	})
	if err != nil {
		return nil, err
	}

	return updated, nil
}

func (r *PostgresAccountRepository) Ping(ctx context.Context) error {
	return r.db.HealthCheck(ctx)
}
