package storage

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"

	"taskboard/domain"
)

// Redis persists tasks in a Redis hash keyed by task id, with a companion
// list holding insertion order so GET /tasks returns tasks in creation
// order, same as the in-memory backend.
type Redis struct {
	client   *redis.Client
	hashKey  string
	orderKey string
}

// NewRedis creates a Redis-backed store with keys under the given prefix.
func NewRedis(client *redis.Client, prefix string) *Redis {
	if client == nil {
		panic("storage.NewRedis: client is nil")
	}
	if prefix == "" {
		prefix = "taskboard"
	}
	return &Redis{
		client:   client,
		hashKey:  prefix + ":tasks",
		orderKey: prefix + ":order",
	}
}

// ListTasks returns all tasks in insertion order.
func (r *Redis) ListTasks(ctx context.Context) ([]domain.Task, error) {
	ids, err := r.client.LRange(ctx, r.orderKey, 0, -1).Result()
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return []domain.Task{}, nil
	}
	vals, err := r.client.HMGet(ctx, r.hashKey, ids...).Result()
	if err != nil {
		return nil, err
	}
	tasks := make([]domain.Task, 0, len(vals))
	for _, v := range vals {
		raw, ok := v.(string)
		if !ok {
			// Order entry without a hash entry; a partial delete left it
			// behind. Skip rather than fail the whole fetch.
			continue
		}
		var t domain.Task
		if err := json.Unmarshal([]byte(raw), &t); err != nil {
			return nil, fmt.Errorf("decode task: %w", err)
		}
		tasks = append(tasks, t)
	}
	return tasks, nil
}

// GetTask returns the task with the given id.
func (r *Redis) GetTask(ctx context.Context, id string) (domain.Task, error) {
	raw, err := r.client.HGet(ctx, r.hashKey, id).Bytes()
	if err == redis.Nil {
		return domain.Task{}, &NotFoundError{ID: id}
	}
	if err != nil {
		return domain.Task{}, err
	}
	var t domain.Task
	if err := json.Unmarshal(raw, &t); err != nil {
		return domain.Task{}, fmt.Errorf("decode task: %w", err)
	}
	return t, nil
}

// InsertTask stores a new task and appends it to the order list.
func (r *Redis) InsertTask(ctx context.Context, t domain.Task) error {
	data, err := json.Marshal(t)
	if err != nil {
		return err
	}
	_, err = r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, r.hashKey, t.ID, data)
		pipe.RPush(ctx, r.orderKey, t.ID)
		return nil
	})
	return err
}

// ReplaceTask overwrites an existing task, keeping its order position.
func (r *Redis) ReplaceTask(ctx context.Context, t domain.Task) error {
	exists, err := r.client.HExists(ctx, r.hashKey, t.ID).Result()
	if err != nil {
		return err
	}
	if !exists {
		return &NotFoundError{ID: t.ID}
	}
	data, err := json.Marshal(t)
	if err != nil {
		return err
	}
	return r.client.HSet(ctx, r.hashKey, t.ID, data).Err()
}

// DeleteTask removes the task and its order entry.
func (r *Redis) DeleteTask(ctx context.Context, id string) error {
	n, err := r.client.HDel(ctx, r.hashKey, id).Result()
	if err != nil {
		return err
	}
	if n == 0 {
		return &NotFoundError{ID: id}
	}
	return r.client.LRem(ctx, r.orderKey, 1, id).Err()
}
