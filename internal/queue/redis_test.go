package queue

import (
	"context"
	"testing"
	"time"

	"storefront/pixel/internal/config"
	"storefront/pixel/internal/domain/task"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupQueue(t *testing.T) *RedisQueue {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	q, err := NewRedisQueue(context.Background(), client, config.RedisConfig{ConsumerGroup: "pixel_consumer"})
	require.NoError(t, err)
	return q
}

func TestEnsureStreamsExistIsIdempotent(t *testing.T) {
	q := setupQueue(t)
	assert.NoError(t, q.EnsureStreamsExist(context.Background()))
}

func TestAddGetAck(t *testing.T) {
	ctx := context.Background()
	q := setupQueue(t)
	stream := StreamName(task.ProductViewTaskType)

	id, err := q.AddTask(ctx, &task.ProductViewTask{ProductID: 42})
	require.NoError(t, err)

	msg, err := q.GetTask(ctx, "worker-1", stream, 10*time.Millisecond)
	require.NoError(t, err)
	require.NotNil(t, msg)
	assert.Equal(t, id, msg.ID)
	assert.Equal(t, task.ProductViewTaskType, msg.Values["task_type"])
	assert.JSONEq(t, `{"product_id":42,"attempt":0}`, msg.Values["task_data"].(string))

	require.NoError(t, q.AckTask(ctx, stream, msg.ID))

	msg, err = q.GetTask(ctx, "worker-1", stream, 10*time.Millisecond)
	require.NoError(t, err)
	assert.Nil(t, msg)
}

func TestAutoClaim(t *testing.T) {
	ctx := context.Background()
	q := setupQueue(t)
	stream := StreamName(task.ProductViewTaskType)

	_, err := q.AddTask(ctx, &task.ProductViewTask{ProductID: 7})
	require.NoError(t, err)

	msg, err := q.GetTask(ctx, "crashed-worker", stream, 10*time.Millisecond)
	require.NoError(t, err)
	require.NotNil(t, msg)

	claimed, err := q.AutoClaim(ctx, "autoclaimer", stream, 0)
	require.NoError(t, err)
	require.Len(t, claimed, 1)
	assert.Equal(t, msg.ID, claimed[0].ID)
}
