package services

import (
	"context"
	"fmt"
	"time"

	"terangaride/internal/models"
	"terangaride/internal/utils"
	"terangaride/pkg/cache"
	"terangaride/pkg/logger"
)

type CacheService interface {
	// Basic cache operations
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error
	Delete(ctx context.Context, keys ...string) error
	Exists(ctx context.Context, key string) (bool, error)

	// Advanced operations
	SetNX(ctx context.Context, key string, value interface{}, expiration time.Duration) (bool, error)
	Increment(ctx context.Context, key string, expiration time.Duration) (int64, error)
	IncrementByFloat(ctx context.Context, key string, value float64, expiration time.Duration) (float64, error)
	GetTTL(ctx context.Context, key string) (time.Duration, error)

	// Application-specific cache operations
	CachePayment(ctx context.Context, payment *models.Payment, expiration time.Duration) error
	GetCachedPayment(ctx context.Context, paymentID string) (*models.Payment, error)
	InvalidatePayment(ctx context.Context, paymentID string) error

	// Callback deduplication
	AcquireCallbackLock(ctx context.Context, transactionID string, expiration time.Duration) (bool, error)
	ReleaseCallbackLock(ctx context.Context, transactionID string) error

	// Health
	Ping(ctx context.Context) error
}

type cacheService struct {
	redis  *cache.RedisCache
	logger *logger.Logger
}

func NewCacheService(redis *cache.RedisCache, logger *logger.Logger) CacheService {
	return &cacheService{
		redis:  redis,
		logger: logger,
	}
}

func (s *cacheService) Get(ctx context.Context, key string, dest interface{}) error {
	return s.redis.Get(ctx, key, dest)
}

func (s *cacheService) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
	return s.redis.Set(ctx, key, value, expiration)
}

func (s *cacheService) Delete(ctx context.Context, keys ...string) error {
	return s.redis.Delete(ctx, keys...)
}

func (s *cacheService) Exists(ctx context.Context, key string) (bool, error) {
	return s.redis.Exists(ctx, key)
}

func (s *cacheService) SetNX(ctx context.Context, key string, value interface{}, expiration time.Duration) (bool, error) {
	return s.redis.SetNX(ctx, key, value, expiration)
}

func (s *cacheService) Increment(ctx context.Context, key string, expiration time.Duration) (int64, error) {
	value, err := s.redis.Increment(ctx, key)
	if err != nil {
		return 0, err
	}
	if value == 1 && expiration > 0 {
		if err := s.redis.SetExpire(ctx, key, expiration); err != nil {
			s.logger.WithError(err).WithField("key", key).Warn("failed to set counter expiration")
		}
	}
	return value, nil
}

func (s *cacheService) IncrementByFloat(ctx context.Context, key string, value float64, expiration time.Duration) (float64, error) {
	total, err := s.redis.IncrementByFloat(ctx, key, value)
	if err != nil {
		return 0, err
	}
	if expiration > 0 {
		ttl, ttlErr := s.redis.GetTTL(ctx, key)
		if ttlErr == nil && ttl < 0 {
			if err := s.redis.SetExpire(ctx, key, expiration); err != nil {
				s.logger.WithError(err).WithField("key", key).Warn("failed to set counter expiration")
			}
		}
	}
	return total, nil
}

func (s *cacheService) GetTTL(ctx context.Context, key string) (time.Duration, error) {
	return s.redis.GetTTL(ctx, key)
}

func (s *cacheService) CachePayment(ctx context.Context, payment *models.Payment, expiration time.Duration) error {
	key := fmt.Sprintf(utils.CacheKeyPayment, payment.ID.Hex())
	return s.redis.Set(ctx, key, payment, expiration)
}

func (s *cacheService) GetCachedPayment(ctx context.Context, paymentID string) (*models.Payment, error) {
	key := fmt.Sprintf(utils.CacheKeyPayment, paymentID)
	var payment models.Payment
	if err := s.redis.Get(ctx, key, &payment); err != nil {
		return nil, err
	}
	return &payment, nil
}

func (s *cacheService) InvalidatePayment(ctx context.Context, paymentID string) error {
	return s.redis.Delete(ctx, fmt.Sprintf(utils.CacheKeyPayment, paymentID))
}

// AcquireCallbackLock reserves a provider transaction id for the duration of
// callback processing. A false return means another worker already holds it
// or the callback was already processed recently.
func (s *cacheService) AcquireCallbackLock(ctx context.Context, transactionID string, expiration time.Duration) (bool, error) {
	key := fmt.Sprintf(utils.CacheKeyCallbackLock, transactionID)
	return s.redis.SetNX(ctx, key, time.Now().Unix(), expiration)
}

func (s *cacheService) ReleaseCallbackLock(ctx context.Context, transactionID string) error {
	return s.redis.Delete(ctx, fmt.Sprintf(utils.CacheKeyCallbackLock, transactionID))
}

func (s *cacheService) Ping(ctx context.Context) error {
	return s.redis.Ping(ctx)
}
