package directory

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"campus-auth/internal/auth"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// RedisDirectory stores one JSON document per email key. Create uses
// SETNX so the first writer for an email wins.
type RedisDirectory struct {
	client *redis.Client
	prefix string
	now    func() time.Time
}

// NewRedisDirectory creates a Redis-backed account directory.
func NewRedisDirectory(client *redis.Client) *RedisDirectory {
	return &RedisDirectory{
		client: client,
		prefix: "account:email:",
		now:    time.Now,
	}
}

type redisAccount struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	FullName  string    `json:"full_name"`
	AvatarURL string    `json:"avatar_url"`
	Role      string    `json:"role"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
}

func (r *RedisDirectory) key(email string) string {
	return r.prefix + email
}

func (r *RedisDirectory) FindByEmail(ctx context.Context, email string) (auth.Account, error) {
	val, err := r.client.Get(ctx, r.key(email)).Bytes()
	if errors.Is(err, redis.Nil) {
		return auth.Account{}, ErrNotFound
	}
	if err != nil {
		return auth.Account{}, unavailable("find account", err)
	}

	var rec redisAccount
	if err := json.Unmarshal(val, &rec); err != nil {
		return auth.Account{}, unavailable("find account", fmt.Errorf("decode: %w", err))
	}

	acc, err := toAccount(rec.ID, rec.Email, rec.FullName, rec.AvatarURL, rec.Role, rec.Status)
	if err != nil {
		return auth.Account{}, unavailable("find account", err)
	}
	acc.CreatedAt = rec.CreatedAt.UTC()
	return acc, nil
}

func (r *RedisDirectory) Create(ctx context.Context, in NewAccount) (auth.Account, error) {
	if err := in.validate(); err != nil {
		return auth.Account{}, err
	}

	rec := redisAccount{
		ID:        uuid.NewString(),
		Email:     in.Email,
		FullName:  in.FullName,
		AvatarURL: in.AvatarURL,
		Role:      string(in.Role),
		Status:    string(in.Status),
		CreatedAt: r.now().UTC().Truncate(time.Millisecond),
	}

	data, err := json.Marshal(rec)
	if err != nil {
		return auth.Account{}, fmt.Errorf("encode account: %w", err)
	}

	created, err := r.client.SetNX(ctx, r.key(in.Email), data, 0).Result()
	if err != nil {
		return auth.Account{}, unavailable("create account", err)
	}
	if !created {
		return r.FindByEmail(ctx, in.Email)
	}

	return auth.Account{
		ID:        rec.ID,
		Email:     rec.Email,
		FullName:  rec.FullName,
		AvatarURL: rec.AvatarURL,
		Role:      in.Role,
		Status:    in.Status,
		CreatedAt: rec.CreatedAt,
	}, nil
}
