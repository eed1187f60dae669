package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"token-data-service/internal/domain/entity"
)

func TestCacheRepository_CheckedRPCs(t *testing.T) {
	repo := NewCacheRepository(time.Minute, time.Minute, zap.NewNop())
	ctx := context.Background()

	_, found, err := repo.GetCheckedRPCs(ctx, 1)
	require.NoError(t, err)
	assert.False(t, found)

	working := true
	rpcs := []entity.RPCDetail{{URL: "https://rpc.example.org", Protocol: entity.ProtocolHTTPS, IsWorking: &working}}
	require.NoError(t, repo.SetCheckedRPCs(ctx, 1, rpcs, 0))

	got, found, err := repo.GetCheckedRPCs(ctx, 1)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, rpcs, got)

	_, found, err = repo.GetCheckedRPCs(ctx, 137)
	require.NoError(t, err)
	assert.False(t, found, "entries are keyed per chain")
}

func TestCacheRepository_Expiry(t *testing.T) {
	repo := NewCacheRepository(time.Minute, time.Minute, zap.NewNop())
	ctx := context.Background()

	require.NoError(t, repo.SetCheckedRPCs(ctx, 1, []entity.RPCDetail{}, 10*time.Millisecond))
	time.Sleep(30 * time.Millisecond)

	_, found, err := repo.GetCheckedRPCs(ctx, 1)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestCacheRepository_TypeMismatchIsAMiss(t *testing.T) {
	repo := NewCacheRepository(time.Minute, time.Minute, zap.NewNop())
	repo.cache.Set(checkedRPCsKey(1), "not a slice", time.Minute)

	_, found, err := repo.GetCheckedRPCs(context.Background(), 1)
	require.NoError(t, err)
	assert.False(t, found)
	_, still := repo.cache.Get(checkedRPCsKey(1))
	assert.False(t, still)
}
