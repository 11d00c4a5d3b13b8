package auth

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"golang.org/x/crypto/bcrypt"

	"github.com/researchkit/deep-research-mcp/internal/models"
)

const (
	// KeyPrefix marks secrets issued by this service.
	KeyPrefix = "rsk_"

	cacheTTL = 15 * time.Minute
)

// ErrInvalidKey is returned when a presented secret matches no issued key.
var ErrInvalidKey = errors.New("invalid api key")

// KeyStore defines the interface for API key persistence.
type KeyStore interface {
	CreateKey(ctx context.Context, name, keyHash string) (*models.APIKey, error)
	ListKeys(ctx context.Context) ([]models.APIKey, error)
	CountKeys(ctx context.Context) (int, error)
	TouchKey(ctx context.Context, id string) error
}

// Service issues and verifies API keys. Secrets are stored bcrypt-hashed;
// successful verifications are memoized in Redis so the bcrypt comparison
// runs once per key per cache window, not once per request.
type Service struct {
	keys KeyStore
	rdb  *redis.Client // optional; nil disables caching
}

func NewService(keys KeyStore, rdb *redis.Client) *Service {
	return &Service{keys: keys, rdb: rdb}
}

// Issue creates a new key and returns the secret. The secret is not
// recoverable afterwards.
func (s *Service) Issue(ctx context.Context, name string) (string, *models.APIKey, error) {
	secret := KeyPrefix + uuid.NewString()
	hash, err := bcrypt.GenerateFromPassword([]byte(secret), bcrypt.DefaultCost)
	if err != nil {
		return "", nil, err
	}
	key, err := s.keys.CreateKey(ctx, name, string(hash))
	if err != nil {
		return "", nil, err
	}
	return secret, key, nil
}

// Verify checks a presented secret and returns the matching key ID.
func (s *Service) Verify(ctx context.Context, secret string) (string, error) {
	if !strings.HasPrefix(secret, KeyPrefix) {
		return "", ErrInvalidKey
	}

	cacheKey := "apikey:" + fingerprint(secret)
	if s.rdb != nil {
		if id, err := s.rdb.Get(ctx, cacheKey).Result(); err == nil && id != "" {
			_ = s.keys.TouchKey(ctx, id)
			return id, nil
		}
	}

	keys, err := s.keys.ListKeys(ctx)
	if err != nil {
		return "", err
	}
	for _, k := range keys {
		if bcrypt.CompareHashAndPassword([]byte(k.KeyHash), []byte(secret)) == nil {
			if s.rdb != nil {
				_ = s.rdb.Set(ctx, cacheKey, k.ID, cacheTTL).Err()
			}
			_ = s.keys.TouchKey(ctx, k.ID)
			return k.ID, nil
		}
	}
	return "", ErrInvalidKey
}

// Bootstrap issues an initial key when none exist yet. The secret is logged
// once; operators are expected to store it and rotate via the table.
func (s *Service) Bootstrap(ctx context.Context) error {
	n, err := s.keys.CountKeys(ctx)
	if err != nil {
		return err
	}
	if n > 0 {
		return nil
	}
	secret, key, err := s.Issue(ctx, "bootstrap")
	if err != nil {
		return err
	}
	log.Printf("issued bootstrap API key %s (id %s) — store it, it will not be shown again", secret, key.ID)
	return nil
}

// fingerprint derives a cache key from a secret without storing the secret
// itself in Redis.
func fingerprint(secret string) string {
	sum := sha256.Sum256([]byte(secret))
	return hex.EncodeToString(sum[:])
}
