package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"

	"vitalguard/internal/config"
	"vitalguard/internal/models"
)

// RealtimeCache 实时缓存层
// 1) 每个患者的最新读数快照（带TTL，供面板快速拉取）
// 2) 读数/报警发布到 Redis Streams，供下游服务消费
type RealtimeCache struct {
	client *redis.Client
	cfg    *config.Config
	logger *zap.Logger
}

// NewRealtimeCache 创建实时缓存层
func NewRealtimeCache(client *redis.Client, cfg *config.Config, logger *zap.Logger) *RealtimeCache {
	return &RealtimeCache{
		client: client,
		cfg:    cfg,
		logger: logger,
	}
}

// latestKey 最新读数缓存键
func (c *RealtimeCache) latestKey(patientID string) string {
	return c.cfg.Monitor.Cache.LatestKeyPrefix + patientID + c.cfg.Monitor.Cache.LatestSuffix
}

// SetLatestReading 写入患者最新读数快照
func (c *RealtimeCache) SetLatestReading(ctx context.Context, reading *models.VitalReading) error {
	data, err := json.Marshal(reading)
	if err != nil {
		return fmt.Errorf("failed to marshal reading: %w", err)
	}

	ttl := time.Duration(c.cfg.Monitor.Cache.LatestTTL) * time.Second
	if err := c.client.Set(ctx, c.latestKey(reading.PatientID), data, ttl).Err(); err != nil {
		return fmt.Errorf("failed to cache latest reading: %w", err)
	}

	return nil
}

// GetLatestReading 读取患者最新读数快照（缓存缺失返回 nil, nil）
func (c *RealtimeCache) GetLatestReading(ctx context.Context, patientID string) (*models.VitalReading, error) {
	data, err := c.client.Get(ctx, c.latestKey(patientID)).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get latest reading: %w", err)
	}

	var reading models.VitalReading
	if err := json.Unmarshal(data, &reading); err != nil {
		return nil, fmt.Errorf("failed to unmarshal cached reading: %w", err)
	}

	return &reading, nil
}

// PublishReading 发布读数到读数流
func (c *RealtimeCache) PublishReading(ctx context.Context, reading *models.VitalReading) error {
	return c.publishToStream(ctx, c.cfg.Monitor.Streams.Readings, reading)
}

// PublishAlert 发布报警到报警流
func (c *RealtimeCache) PublishAlert(ctx context.Context, alert *models.Alert) error {
	return c.publishToStream(ctx, c.cfg.Monitor.Streams.Alerts, alert)
}

// publishToStream JSON序列化后以 XADD 发布
func (c *RealtimeCache) publishToStream(ctx context.Context, stream string, payload interface{}) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal stream payload: %w", err)
	}

	err = c.client.XAdd(ctx, &redis.XAddArgs{
		Stream: stream,
		Values: map[string]interface{}{
			"data":      string(data),
			"timestamp": time.Now().Unix(),
		},
	}).Err()
	if err != nil {
		return fmt.Errorf("failed to publish to stream %s: %w", stream, err)
	}

	return nil
}

// Ping 检查Redis连通性
func (c *RealtimeCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}
