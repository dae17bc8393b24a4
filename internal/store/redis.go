package store

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/spec-kit/api-gateway/internal/config"
)

// Redis backs the document store with JSON values at path-shaped keys.
type Redis struct {
	client    *redis.Client
	opTimeout time.Duration
}

// NewRedis connects to Redis using the provided configuration.
func NewRedis(cfg config.StoreConfig, logger *zap.Logger) *Redis {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})

	if err := client.Ping(context.Background()).Err(); err != nil {
		logger.Warn("unable to reach redis", zap.Error(err))
	} else {
		logger.Info("connected to redis document store")
	}

	return &Redis{client: client, opTimeout: cfg.OpTimeout()}
}

// Put stores the document at path.
func (r *Redis) Put(ctx context.Context, path string, value any) error {
	doc, err := json.Marshal(value)
	if err != nil {
		return wrapErr("store put", err)
	}
	ctx, cancel := boundCtx(ctx, r.opTimeout)
	defer cancel()
	return wrapErr("store put", r.client.Set(ctx, path, doc, 0).Err())
}

// PutIfAbsent stores the document at path unless one already exists,
// using SETNX for atomicity.
func (r *Redis) PutIfAbsent(ctx context.Context, path string, value any) (bool, error) {
	doc, err := json.Marshal(value)
	if err != nil {
		return false, wrapErr("store put", err)
	}
	ctx, cancel := boundCtx(ctx, r.opTimeout)
	defer cancel()

	created, err := r.client.SetNX(ctx, path, doc, 0).Result()
	return created, wrapErr("store put", err)
}

// Get fetches the document at path into out.
func (r *Redis) Get(ctx context.Context, path string, out any) error {
	ctx, cancel := boundCtx(ctx, r.opTimeout)
	defer cancel()

	doc, err := r.client.Get(ctx, path).Bytes()
	if errors.Is(err, redis.Nil) {
		return ErrNotFound
	}
	if err != nil {
		return wrapErr("store get", err)
	}
	return wrapErr("store get", json.Unmarshal(doc, out))
}

// Delete removes the document at path.
func (r *Redis) Delete(ctx context.Context, path string) error {
	ctx, cancel := boundCtx(ctx, r.opTimeout)
	defer cancel()
	return wrapErr("store delete", r.client.Del(ctx, path).Err())
}

// List scans keys directly under prefix and decodes their values into
// out.
func (r *Redis) List(ctx context.Context, prefix string, out any) error {
	ctx, cancel := boundCtx(ctx, r.opTimeout)
	defer cancel()

	var docs []json.RawMessage
	iter := r.client.Scan(ctx, 0, prefix+"/*", 0).Iterator()
	for iter.Next(ctx) {
		doc, err := r.client.Get(ctx, iter.Val()).Bytes()
		if errors.Is(err, redis.Nil) {
			continue
		}
		if err != nil {
			return wrapErr("store list", err)
		}
		docs = append(docs, doc)
	}
	if err := iter.Err(); err != nil {
		return wrapErr("store list", err)
	}
	return decodeList(docs, out)
}

// Ping verifies Redis connectivity.
func (r *Redis) Ping(ctx context.Context) error {
	ctx, cancel := boundCtx(ctx, r.opTimeout)
	defer cancel()
	return wrapErr("store ping", r.client.Ping(ctx).Err())
}

// Close closes the client.
func (r *Redis) Close() {
	if r != nil && r.client != nil {
		_ = r.client.Close()
	}
}
