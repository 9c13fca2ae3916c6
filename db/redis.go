// db/redis.go
package db

import (
	"context"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	logger "github.com/dev-mohitbeniwal/echo-portal/logging"
	"github.com/dev-mohitbeniwal/echo-portal/model"
)

var RedisClient *redis.Client

func InitRedis(ctx context.Context) error {
	RedisClient = redis.NewClient(&redis.Options{
		Addr:         viper.GetString("redis.addr"),
		Password:     viper.GetString("redis.password"),
		DB:           viper.GetInt("redis.db"),
		DialTimeout:  viper.GetDuration("redis.dialTimeout"),
		ReadTimeout:  viper.GetDuration("redis.readTimeout"),
		WriteTimeout: viper.GetDuration("redis.writeTimeout"),
		PoolSize:     viper.GetInt("redis.poolSize"),
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if _, err := RedisClient.Ping(pingCtx).Result(); err != nil {
		return fmt.Errorf("failed to connect to Redis: %w", err)
	}

	logger.Info("Successfully connected to Redis")
	return nil
}

func CloseRedis() {
	if RedisClient != nil {
		if err := RedisClient.Close(); err != nil {
			logger.Error("Error closing Redis connection", zap.Error(err))
		}
	}
}

// PolicyCache keeps the last known policy set per resource, encrypted at
// rest with AES-GCM. It is the fallback read path when Neo4j is unreachable.
type PolicyCache struct {
	client redis.Cmdable
	aead   cipher.AEAD
	ttl    time.Duration
}

func NewPolicyCache(client redis.Cmdable, encryptionKey []byte, ttl time.Duration) (*PolicyCache, error) {
	if len(encryptionKey) != 32 {
		return nil, fmt.Errorf("invalid encryption key length: must be 32 bytes")
	}
	block, err := aes.NewCipher(encryptionKey)
	if err != nil {
		return nil, err
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}
	return &PolicyCache{client: client, aead: gcm, ttl: ttl}, nil
}

func policyCacheKey(resource string) string {
	return fmt.Sprintf("policies:%s", resource)
}

// policyGenerationKey counts invalidations of resource. A refresh only lands
// if the count is unchanged since the refreshing reader looked at the store.
func policyGenerationKey(resource string) string {
	return fmt.Sprintf("policies:gen:%s", resource)
}

var setIfGeneration = redis.NewScript(`
local gen = redis.call('GET', KEYS[2]) or '0'
if gen ~= ARGV[1] then
	return 0
end
if ARGV[3] == '0' then
	redis.call('SET', KEYS[1], ARGV[2])
else
	redis.call('SET', KEYS[1], ARGV[2], 'PX', ARGV[3])
end
return 1
`)

func (c *PolicyCache) encrypt(plaintext []byte) ([]byte, error) {
	nonce := make([]byte, c.aead.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, err
	}
	return c.aead.Seal(nonce, nonce, plaintext, nil), nil
}

func (c *PolicyCache) decrypt(ciphertext []byte) ([]byte, error) {
	nonceSize := c.aead.NonceSize()
	if len(ciphertext) < nonceSize {
		return nil, fmt.Errorf("ciphertext too short")
	}
	nonce, ciphertext := ciphertext[:nonceSize], ciphertext[nonceSize:]
	return c.aead.Open(nil, nonce, ciphertext, nil)
}

func (c *PolicyCache) seal(policies []*model.Policy) (string, error) {
	if policies == nil {
		policies = []*model.Policy{}
	}
	policiesJSON, err := json.Marshal(policies)
	if err != nil {
		return "", fmt.Errorf("failed to marshal policies: %w", err)
	}
	encrypted, err := c.encrypt(policiesJSON)
	if err != nil {
		return "", fmt.Errorf("failed to encrypt policies: %w", err)
	}
	return base64.StdEncoding.EncodeToString(encrypted), nil
}

// Generation returns the invalidation count of resource, 0 if never invalidated.
func (c *PolicyCache) Generation(ctx context.Context, resource string) (int64, error) {
	gen, err := c.client.Get(ctx, policyGenerationKey(resource)).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to read policy cache generation: %w", err)
	}
	return gen, nil
}

// SetPoliciesAt stores policies only if resource has not been invalidated
// since generation was read. It reports whether the set was stored.
func (c *PolicyCache) SetPoliciesAt(ctx context.Context, resource string, generation int64, policies []*model.Policy) (bool, error) {
	sealed, err := c.seal(policies)
	if err != nil {
		return false, err
	}
	stored, err := setIfGeneration.Run(ctx, c.client,
		[]string{policyCacheKey(resource), policyGenerationKey(resource)},
		strconv.FormatInt(generation, 10), sealed, strconv.FormatInt(c.ttl.Milliseconds(), 10),
	).Int64()
	if err != nil {
		return false, fmt.Errorf("failed to cache policies: %w", err)
	}
	if stored == 0 {
		logger.Debug("Policy cache refresh skipped, resource changed meanwhile",
			zap.String("resource", resource),
			zap.Int64("generation", generation))
		return false, nil
	}

	logger.Debug("Policies cached successfully",
		zap.String("resource", resource),
		zap.Int("count", len(policies)))
	return true, nil
}

// GetPolicies returns the cached set and whether one was present.
func (c *PolicyCache) GetPolicies(ctx context.Context, resource string) ([]*model.Policy, bool, error) {
	encryptedStr, err := c.client.Get(ctx, policyCacheKey(resource)).Result()
	if errors.Is(err, redis.Nil) {
		logger.Debug("Policies not found in cache", zap.String("resource", resource))
		return nil, false, nil
	} else if err != nil {
		return nil, false, fmt.Errorf("failed to get policies from cache: %w", err)
	}

	encrypted, err := base64.StdEncoding.DecodeString(encryptedStr)
	if err != nil {
		return nil, false, fmt.Errorf("failed to decode policies: %w", err)
	}

	policiesJSON, err := c.decrypt(encrypted)
	if err != nil {
		return nil, false, fmt.Errorf("failed to decrypt policies: %w", err)
	}

	var policies []*model.Policy
	if err := json.Unmarshal(policiesJSON, &policies); err != nil {
		return nil, false, fmt.Errorf("failed to unmarshal policies: %w", err)
	}

	logger.Debug("Policies retrieved from cache", zap.String("resource", resource))
	return policies, true, nil
}

// Invalidate drops the cached sets of the given resources and bumps their
// generations so refreshes already in flight are discarded.
func (c *PolicyCache) Invalidate(ctx context.Context, resources ...string) error {
	if len(resources) == 0 {
		return nil
	}
	pipe := c.client.TxPipeline()
	for _, r := range resources {
		pipe.Incr(ctx, policyGenerationKey(r))
		pipe.Del(ctx, policyCacheKey(r))
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to delete policies from cache: %w", err)
	}
	logger.Debug("Policies deleted from cache", zap.Strings("resources", resources))
	return nil
}

// RateLimit is a sliding-window counter: at most limit calls per window for key.
func RateLimit(ctx context.Context, client redis.Cmdable, key string, limit int, per time.Duration) (bool, error) {
	pipe := client.Pipeline()
	now := time.Now().UnixNano()
	key = fmt.Sprintf("ratelimit:%s", key)

	pipe.ZRemRangeByScore(ctx, key, "0", strconv.FormatInt(now-per.Nanoseconds(), 10))
	pipe.ZAdd(ctx, key, redis.Z{Score: float64(now), Member: uuid.NewString()})
	card := pipe.ZCard(ctx, key)
	pipe.Expire(ctx, key, per)

	if _, err := pipe.Exec(ctx); err != nil {
		return false, fmt.Errorf("failed to execute rate limit commands: %w", err)
	}

	count := card.Val()
	allowed := count <= int64(limit)
	logger.Debug("Rate limit check",
		zap.String("key", key),
		zap.Int64("count", count),
		zap.Int("limit", limit),
		zap.Bool("allowed", allowed))
	return allowed, nil
}
