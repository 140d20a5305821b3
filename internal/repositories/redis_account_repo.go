package repositories

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"

	"github.com/william165-bot/net-hunter/internal/config"
	"github.com/william165-bot/net-hunter/internal/models"
	pkglogger "github.com/william165-bot/net-hunter/pkg/logger"
)

const (
	accountKeyPrefix = "user:"
	accountIndexKey  = "users:index"

	// DefaultUpdateRetries bounds optimistic retries when a watched key changes
	DefaultUpdateRetries = 5
)

// NewRedisClient connects to Redis and verifies the connection
func NewRedisClient(ctx context.Context, cfg config.RedisConfig) (*redis.Client, error) {
	const op = "repositories.NewRedisClient"
	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Username:     cfg.Username,
		Password:     cfg.Password,
		DB:           cfg.DB,
		MaxRetries:   cfg.MaxRetries,
		DialTimeout:  cfg.DialTimeout,
		ReadTimeout:  cfg.Timeout,
		WriteTimeout: cfg.Timeout,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return client, nil
}

// RedisAccountRepository stores each account as JSON under user:<email>
// and tracks known emails in the users:index set.
type RedisAccountRepository struct {
	client     *redis.Client
	logger     *slog.Logger
	maxRetries int
}

func NewRedisAccountRepository(client *redis.Client) *RedisAccountRepository {
	return &RedisAccountRepository{client: client, logger: slog.Default(), maxRetries: DefaultUpdateRetries}
}

// WithLogger sets the logger used to report unreadable records
func (r *RedisAccountRepository) WithLogger(logger *slog.Logger) *RedisAccountRepository {
	if logger != nil {
		r.logger = logger
	}
	return r
}

// WithMaxRetries overrides the optimistic update retry bound
func (r *RedisAccountRepository) WithMaxRetries(n int) *RedisAccountRepository {
	if n > 0 {
		r.maxRetries = n
	}
	return r
}

func accountKey(email string) string {
	return accountKeyPrefix + email
}

func encodeAccount(acc *models.Account) ([]byte, error) {
	return json.Marshal(acc.ToRecord())
}

func decodeAccount(raw []byte) (*models.Account, error) {
	var rec models.AccountRecord
	if err := json.Unmarshal(raw, &rec); err != nil {
		return nil, fmt.Errorf("failed to decode account: %w", err)
	}
	acc := rec.ToAccount()
	return &acc, nil
}

func (r *RedisAccountRepository) Get(ctx context.Context, email string) (*models.Account, error) {
	raw, err := r.client.Get(ctx, accountKey(email)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get account: %w", err)
	}
	return decodeAccount(raw)
}

// Create stores acc only if no account exists under its email
func (r *RedisAccountRepository) Create(ctx context.Context, acc *models.Account) error {
	key := accountKey(acc.Email)
	payload, err := encodeAccount(acc)
	if err != nil {
		return err
	}

	txf := func(tx *redis.Tx) error {
		exists, err := tx.Exists(ctx, key).Result()
		if err != nil {
			return err
		}
		if exists > 0 {
			return models.ErrConflict
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, payload, 0)
			pipe.SAdd(ctx, accountIndexKey, acc.Email)
			return nil
		})
		return err
	}

	return r.watch(ctx, key, txf)
}

// Put upserts acc
func (r *RedisAccountRepository) Put(ctx context.Context, acc *models.Account) error {
	payload, err := encodeAccount(acc)
	if err != nil {
		return err
	}

	_, err = r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, accountKey(acc.Email), payload, 0)
		pipe.SAdd(ctx, accountIndexKey, acc.Email)
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to put account: %w", err)
	}
	return nil
}

// List returns every indexed account in no particular order. Index entries
// whose record has vanished or cannot be decoded are skipped.
func (r *RedisAccountRepository) List(ctx context.Context) ([]*models.Account, error) {
	emails, err := r.client.SMembers(ctx, accountIndexKey).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read account index: %w", err)
	}

	accounts := make([]*models.Account, 0, len(emails))
	if len(emails) == 0 {
		return accounts, nil
	}

	keys := make([]string, len(emails))
	for i, email := range emails {
		keys[i] = accountKey(email)
	}

	values, err := r.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to load accounts: %w", err)
	}

	for i, v := range values {
		raw, ok := v.(string)
		if !ok {
			continue
		}
		acc, err := decodeAccount([]byte(raw))
		if err != nil {
			r.logger.Warn("skipping unreadable account record",
				slog.String("key", accountKeyPrefix+pkglogger.SanitizedEmail(emails[i])),
				slog.Any("error", err))
			continue
		}
		accounts = append(accounts, acc)
	}

	return accounts, nil
}

// Update applies fn to the stored account atomically. The key is watched so
// a concurrent write aborts EXEC and the read-modify-write is retried.
func (r *RedisAccountRepository) Update(ctx context.Context, email string, fn func(*models.Account) error) (*models.Account, error) {
	key := accountKey(email)
	var updated *models.Account

	txf := func(tx *redis.Tx) error {
		raw, err := tx.Get(ctx, key).Bytes()
		if errors.Is(err, redis.Nil) {
			return models.ErrNotFound
		}
		if err != nil {
			return err
		}

		acc, err := decodeAccount(raw)
		if err != nil {
			return err
		}
		if err := fn(acc); err != nil {
			return err
		}
		acc.Email = email

		payload, err := encodeAccount(acc)
		if err != nil {
			return err
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, payload, 0)
			return nil
		})
		if err != nil {
			return err
		}

		updated = acc
		return nil
	}

	if err := r.watch(ctx, key, txf); err != nil {
		return nil, err
	}
	return updated, nil
}

func (r *RedisAccountRepository) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

func (r *RedisAccountRepository) watch(ctx context.Context, key string, txf func(*redis.Tx) error) error {
	for attempt := 0; attempt < r.maxRetries; attempt++ {
		err := r.client.Watch(ctx, txf, key)
		if err == nil {
			return nil
		}
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		return err
	}
	return models.ErrConcurrentUpdate
}
