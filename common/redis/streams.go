package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

// DefaultStreamMaxLen stream 近似保留条数（XADD MAXLEN ~）
const DefaultStreamMaxLen = 10000

// PublishJSONToStream 把 data 序列化为 JSON 后 XADD 到 stream
// 字段: data（JSON 字符串）, kind, timestamp（unix 秒）
func PublishJSONToStream(ctx context.Context, client *redis.Client, stream, kind string, data any) (string, error) {
	b, err := json.Marshal(data)
	if err != nil {
		return "", fmt.Errorf("failed to marshal stream payload: %w", err)
	}

	id, err := client.XAdd(ctx, &redis.XAddArgs{
		Stream: stream,
		MaxLen: DefaultStreamMaxLen,
		Approx: true,
		Values: map[string]interface{}{
			"data":      string(b),
			"kind":      kind,
			"timestamp": fmt.Sprintf("%d", time.Now().Unix()),
		},
	}).Result()
	if err != nil {
		return "", fmt.Errorf("failed to publish to stream %s: %w", stream, err)
	}
	return id, nil
}
