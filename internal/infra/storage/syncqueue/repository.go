package syncqueue

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/m04kA/SMC-AgendaService/internal/domain"
)

const defaultKeyPrefix = "agenda:syncqueue"

// Repository долговременное хранилище очереди синхронизации в redis.
// Порядок хранится в списке идентификаторов, сами элементы в хэше
type Repository struct {
	client   redis.UniversalClient
	orderKey string
	itemsKey string
}

// NewRepository создает хранилище очереди; пустой prefix заменяется значением по умолчанию
func NewRepository(client redis.UniversalClient, prefix string) *Repository {
	if prefix == "" {
		prefix = defaultKeyPrefix
	}
	return &Repository{
		client:   client,
		orderKey: prefix + ":order",
		itemsKey: prefix + ":items",
	}
}

// Append добавляет элементы в конец очереди одной транзакцией
func (r *Repository) Append(ctx context.Context, items ...*domain.SyncQueueItem) error {
	if len(items) == 0 {
		return nil
	}

	ids := make([]interface{}, 0, len(items))
	values := make([]interface{}, 0, len(items)*2)
	for _, item := range items {
		data, err := encodeItem(item)
		if err != nil {
			return err
		}
		ids = append(ids, item.ID)
		values = append(values, item.ID, data)
	}

	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, r.itemsKey, values...)
		pipe.RPush(ctx, r.orderKey, ids...)
		return nil
	})
	if err != nil {
		return fmt.Errorf("%w: Append - exec: %v", ErrRedis, err)
	}
	return nil
}

// List возвращает элементы в порядке постановки в очередь
func (r *Repository) List(ctx context.Context) ([]*domain.SyncQueueItem, error) {
	ids, err := r.client.LRange(ctx, r.orderKey, 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("%w: List - lrange: %v", ErrRedis, err)
	}
	if len(ids) == 0 {
		return []*domain.SyncQueueItem{}, nil
	}

	raw, err := r.client.HMGet(ctx, r.itemsKey, ids...).Result()
	if err != nil {
		return nil, fmt.Errorf("%w: List - hmget: %v", ErrRedis, err)
	}

	items := make([]*domain.SyncQueueItem, 0, len(raw))
	for _, v := range raw {
		// Идентификатор без тела: элемент удален между LRANGE и HMGET
		s, ok := v.(string)
		if !ok {
			continue
		}
		item, err := decodeItem([]byte(s))
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, nil
}

// SaveRetry сохраняет счетчик попыток элемента
func (r *Repository) SaveRetry(ctx context.Context, id string, retryCount int) error {
	data, err := r.client.HGet(ctx, r.itemsKey, id).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return fmt.Errorf("%w: id=%s", ErrItemNotFound, id)
		}
		return fmt.Errorf("%w: SaveRetry - hget: %v", ErrRedis, err)
	}

	item, err := decodeItem(data)
	if err != nil {
		return err
	}
	item.RetryCount = retryCount

	updated, err := encodeItem(item)
	if err != nil {
		return err
	}
	if err := r.client.HSet(ctx, r.itemsKey, id, updated).Err(); err != nil {
		return fmt.Errorf("%w: SaveRetry - hset: %v", ErrRedis, err)
	}
	return nil
}

// Remove удаляет элемент из очереди
func (r *Repository) Remove(ctx context.Context, id string) error {
	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.LRem(ctx, r.orderKey, 0, id)
		pipe.HDel(ctx, r.itemsKey, id)
		return nil
	})
	if err != nil {
		return fmt.Errorf("%w: Remove - exec: %v", ErrRedis, err)
	}
	return nil
}

// Len возвращает число элементов в очереди
func (r *Repository) Len(ctx context.Context) (int, error) {
	n, err := r.client.LLen(ctx, r.orderKey).Result()
	if err != nil {
		return 0, fmt.Errorf("%w: Len - llen: %v", ErrRedis, err)
	}
	return int(n), nil
}
