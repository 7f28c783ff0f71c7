package db

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"crashserver/config"
	"crashserver/state"
)

// Mirror keeps a live, best-effort view of the current round's bets in
// Redis so operators and sibling services can watch the round without
// touching the engine. The in-memory registry remains authoritative.
type Mirror struct {
	client *redis.Client
}

// mirroredBet is the hash value stored per player under crash:{roundId}.
type mirroredBet struct {
	Username          string    `json:"username"`
	BetAmount         int64     `json:"betAmount"`
	CashedOut         bool      `json:"cashedOut"`
	CashoutMultiplier *float64  `json:"cashoutMultiplier,omitempty"`
	Payout            int64     `json:"payout,omitempty"`
	BetTime           time.Time `json:"betTime"`
}

// NewMirror connects using REDIS_URL / REDIS_PASSWORD / REDIS_DB.
func NewMirror(ctx context.Context) (*Mirror, error) {
	log.Println("connecting to Redis...")

	redisURL := os.Getenv("REDIS_URL")
	if redisURL == "" {
		redisURL = "localhost:6379"
	}
	redisDB := 0
	if dbStr := os.Getenv("REDIS_DB"); dbStr != "" {
		if n, err := strconv.Atoi(dbStr); err == nil {
			redisDB = n
		}
	}

	client := redis.NewClient(&redis.Options{
		Addr:         redisURL,
		Password:     os.Getenv("REDIS_PASSWORD"),
		DB:           redisDB,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		PoolSize:     10,
		MinIdleConns: 5,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	log.Printf("Redis connected - addr: %s", redisURL)
	return &Mirror{client: client}, nil
}

func (m *Mirror) Close() error {
	if m != nil && m.client != nil {
		log.Println("closing Redis connection...")
		return m.client.Close()
	}
	return nil
}

// RecordBet writes the player's stake into the round hash.
func (m *Mirror) RecordBet(ctx context.Context, roundID string, entry state.PlayerEntry) error {
	hashKey := fmt.Sprintf(config.RedisRoundBetsKey, roundID)

	data, err := json.Marshal(mirroredBet{
		Username:  entry.Username,
		BetAmount: entry.BetAmount,
		BetTime:   entry.BetTime,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal bet: %w", err)
	}

	if err := m.client.HSet(ctx, hashKey, entry.UserID, data).Err(); err != nil {
		return fmt.Errorf("failed to store bet: %w", err)
	}
	m.client.Expire(ctx, hashKey, config.RoundMirrorTTL)
	return nil
}

// RecordCashout updates the round hash and drops a short-lived cashed-out
// marker keyed by round and user.
func (m *Mirror) RecordCashout(ctx context.Context, roundID string, entry state.PlayerEntry) error {
	hashKey := fmt.Sprintf(config.RedisRoundBetsKey, roundID)

	data, err := json.Marshal(mirroredBet{
		Username:          entry.Username,
		BetAmount:         entry.BetAmount,
		CashedOut:         true,
		CashoutMultiplier: entry.CashoutMultiplier,
		Payout:            entry.Payout,
		BetTime:           entry.BetTime,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal cashout: %w", err)
	}

	if err := m.client.HSet(ctx, hashKey, entry.UserID, data).Err(); err != nil {
		return fmt.Errorf("failed to update bet: %w", err)
	}

	markerKey := fmt.Sprintf(config.RedisCashedOutKey, roundID, entry.UserID)
	if err := m.client.Set(ctx, markerKey, data, config.CashedOutTTL).Err(); err != nil {
		return fmt.Errorf("failed to store cashout marker: %w", err)
	}
	return nil
}

// ClearRound wipes the round hash once the round has crashed.
func (m *Mirror) ClearRound(ctx context.Context, roundID string) error {
	hashKey := fmt.Sprintf(config.RedisRoundBetsKey, roundID)

	count, _ := m.client.HLen(ctx, hashKey).Result()
	if err := m.client.Del(ctx, hashKey).Err(); err != nil {
		return fmt.Errorf("failed to clear round: %w", err)
	}
	if count > 0 {
		log.Printf("cleared bet mirror for round %s (%d players)", roundID, count)
	}
	return nil
}

/* =========================
   HEALTH CHECK
========================= */

func (m *Mirror) Health(ctx context.Context) error {
	if m == nil || m.client == nil {
		return fmt.Errorf("Redis client not initialized")
	}
	return m.client.Ping(ctx).Err()
}
