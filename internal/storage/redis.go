package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"multichat/internal/model"
)

const (
	historyKeyPrefix = "chat:history:"
	filesKeyPrefix   = "chat:files:"
	defaultRedisTTL  = 24 * time.Hour
)

// RedisStorage 聊天记录存为 JSON 列表，文件槽位存为 hash（field = 类别）。
// 每次写入刷新 TTL，闲置会话由 Redis 自行过期。
type RedisStorage struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisStorage(client *redis.Client, ttl time.Duration) *RedisStorage {
	if ttl <= 0 {
		ttl = defaultRedisTTL
	}
	return &RedisStorage{
		client: client,
		ttl:    ttl,
	}
}

func (r *RedisStorage) Init() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := r.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrStorageInit, err)
	}
	return nil
}

func (r *RedisStorage) Close() error {
	return r.client.Close()
}

func (r *RedisStorage) AppendMessage(sessionID string, msg model.Message) error {
	ctx := context.Background()

	data, err := json.Marshal(msg)
	if err != nil {
		return err
	}

	key := historyKeyPrefix + sessionID
	if err := r.client.RPush(ctx, key, data).Err(); err != nil {
		return err
	}

	return r.client.Expire(ctx, key, r.ttl).Err()
}

func (r *RedisStorage) History(sessionID string) ([]model.Message, error) {
	ctx := context.Background()

	vals, err := r.client.LRange(ctx, historyKeyPrefix+sessionID, 0, -1).Result()
	if err != nil {
		return nil, err
	}

	messages := make([]model.Message, 0, len(vals))
	for _, val := range vals {
		var msg model.Message
		if err := json.Unmarshal([]byte(val), &msg); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidData, err)
		}
		messages = append(messages, msg)
	}

	return messages, nil
}

func (r *RedisStorage) ClearHistory(sessionID string) (int, error) {
	ctx := context.Background()
	key := historyKeyPrefix + sessionID

	count, err := r.client.LLen(ctx, key).Result()
	if err != nil {
		return 0, err
	}

	if err := r.client.Del(ctx, key).Err(); err != nil {
		return 0, err
	}

	return int(count), nil
}

func (r *RedisStorage) PutFile(sessionID string, rec *model.FileRecord) error {
	if rec == nil || rec.Kind == "" {
		return ErrInvalidData
	}

	ctx := context.Background()

	data, err := json.Marshal(rec)
	if err != nil {
		return err
	}

	key := filesKeyPrefix + sessionID
	if err := r.client.HSet(ctx, key, string(rec.Kind), data).Err(); err != nil {
		return err
	}

	return r.client.Expire(ctx, key, r.ttl).Err()
}

func (r *RedisStorage) GetFile(sessionID string, kind model.FileKind) (*model.FileRecord, error) {
	ctx := context.Background()

	val, err := r.client.HGet(ctx, filesKeyPrefix+sessionID, string(kind)).Result()
	if err == redis.Nil {
		return nil, ErrFileNotFound
	}
	if err != nil {
		return nil, err
	}

	var rec model.FileRecord
	if err := json.Unmarshal([]byte(val), &rec); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidData, err)
	}

	return &rec, nil
}

func (r *RedisStorage) DeleteFile(sessionID string, kind model.FileKind) (*model.FileRecord, error) {
	rec, err := r.GetFile(sessionID, kind)
	if err == ErrFileNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	ctx := context.Background()
	if err := r.client.HDel(ctx, filesKeyPrefix+sessionID, string(kind)).Err(); err != nil {
		return nil, err
	}

	return rec, nil
}

func (r *RedisStorage) Files(sessionID string) ([]*model.FileRecord, error) {
	ctx := context.Background()

	vals, err := r.client.HGetAll(ctx, filesKeyPrefix+sessionID).Result()
	if err != nil {
		return nil, err
	}

	files := make([]*model.FileRecord, 0, len(vals))
	for _, val := range vals {
		var rec model.FileRecord
		if err := json.Unmarshal([]byte(val), &rec); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidData, err)
		}
		files = append(files, &rec)
	}

	sortFilesByUploadTime(files)

	return files, nil
}
