package redisstore_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/ftarena/authcore/svc/auth"
	"github.com/ftarena/authcore/svc/storage/redisstore"
)

// fakeRedis implements the two commands the store issues; the rest of
// redis.Cmdable is satisfied by the embedded nil interface.
type fakeRedis struct {
	redis.Cmdable
	mock.Mock
}

func (f *fakeRedis) Set(ctx context.Context, key string, value any, ttl time.Duration) *redis.StatusCmd {
	args := f.Called(key, ttl)
	cmd := redis.NewStatusCmd(ctx)
	if err := args.Error(0); err != nil {
		cmd.SetErr(err)
	} else {
		cmd.SetVal("OK")
	}
	return cmd
}

func (f *fakeRedis) GetDel(ctx context.Context, key string) *redis.StringCmd {
	args := f.Called(key)
	cmd := redis.NewStringCmd(ctx)
	if err := args.Error(0); err != nil {
		cmd.SetErr(err)
	} else {
		cmd.SetVal("1")
	}
	return cmd
}

func TestStates(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("save uses prefix and ttl", func(t *testing.T) {
		t.Parallel()
		client := &fakeRedis{}
		client.On("Set", "test:s1", 10*time.Minute).Return(nil)

		store := redisstore.NewStates(client, redisstore.WithPrefix("test:"))
		assert.NoError(t, store.SaveState(ctx, "s1", 10*time.Minute))
		client.AssertExpectations(t)
	})

	t.Run("consume existing", func(t *testing.T) {
		t.Parallel()
		client := &fakeRedis{}
		client.On("GetDel", "auth:oauth_state:s1").Return(nil)

		assert.NoError(t, redisstore.NewStates(client).ConsumeState(ctx, "s1"))
		client.AssertExpectations(t)
	})

	t.Run("consume missing", func(t *testing.T) {
		t.Parallel()
		client := &fakeRedis{}
		client.On("GetDel", "auth:oauth_state:s1").Return(redis.Nil)

		assert.ErrorIs(t, redisstore.NewStates(client).ConsumeState(ctx, "s1"), auth.ErrInvalidState)
	})

	t.Run("backend failure", func(t *testing.T) {
		t.Parallel()
		client := &fakeRedis{}
		client.On("GetDel", "auth:oauth_state:s1").Return(errors.New("timeout"))

		err := redisstore.NewStates(client).ConsumeState(ctx, "s1")
		assert.Error(t, err)
		assert.NotErrorIs(t, err, auth.ErrInvalidState)
	})
}
