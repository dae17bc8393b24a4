package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/api-gateway/pkg/util"
)

type testDoc struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

func TestMemoryPutGetDelete(t *testing.T) {
	mem := NewMemory()
	ctx := context.Background()

	require.NoError(t, mem.Put(ctx, "items/a", testDoc{Name: "a", Count: 1}))

	var got testDoc
	require.NoError(t, mem.Get(ctx, "items/a", &got))
	assert.Equal(t, testDoc{Name: "a", Count: 1}, got)

	// Overwrite replaces the document.
	require.NoError(t, mem.Put(ctx, "items/a", testDoc{Name: "a", Count: 2}))
	require.NoError(t, mem.Get(ctx, "items/a", &got))
	assert.Equal(t, 2, got.Count)

	require.NoError(t, mem.Delete(ctx, "items/a"))
	assert.ErrorIs(t, mem.Get(ctx, "items/a", &got), ErrNotFound)

	// Deleting a missing path is not an error.
	assert.NoError(t, mem.Delete(ctx, "items/a"))
}

func TestMemoryPutIfAbsent(t *testing.T) {
	mem := NewMemory()
	ctx := context.Background()

	created, err := mem.PutIfAbsent(ctx, "items/a", testDoc{Name: "first"})
	require.NoError(t, err)
	assert.True(t, created)

	created, err = mem.PutIfAbsent(ctx, "items/a", testDoc{Name: "second"})
	require.NoError(t, err)
	assert.False(t, created, "an existing document must not be replaced")

	var got testDoc
	require.NoError(t, mem.Get(ctx, "items/a", &got))
	assert.Equal(t, "first", got.Name)

	// Free again after deletion.
	require.NoError(t, mem.Delete(ctx, "items/a"))
	created, err = mem.PutIfAbsent(ctx, "items/a", testDoc{Name: "third"})
	require.NoError(t, err)
	assert.True(t, created)
}

func TestMemoryGetNotFound(t *testing.T) {
	mem := NewMemory()
	var got testDoc
	assert.ErrorIs(t, mem.Get(context.Background(), "missing/path", &got), ErrNotFound)
}

func TestMemoryList(t *testing.T) {
	mem := NewMemory()
	ctx := context.Background()

	require.NoError(t, mem.Put(ctx, "items/a", testDoc{Name: "a"}))
	require.NoError(t, mem.Put(ctx, "items/b", testDoc{Name: "b"}))
	require.NoError(t, mem.Put(ctx, "other/c", testDoc{Name: "c"}))

	var docs []testDoc
	require.NoError(t, mem.List(ctx, "items", &docs))
	require.Len(t, docs, 2)
	assert.Equal(t, "a", docs[0].Name)
	assert.Equal(t, "b", docs[1].Name)

	docs = nil
	require.NoError(t, mem.List(ctx, "nothing", &docs))
	assert.Empty(t, docs)
}

func TestMemoryHonorsCancelledContext(t *testing.T) {
	mem := NewMemory()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := mem.Put(ctx, "items/a", testDoc{})
	assert.Error(t, err)
}

func TestWrapErrTaxonomy(t *testing.T) {
	assert.NoError(t, wrapErr("op", nil))
	assert.ErrorIs(t, wrapErr("op", ErrNotFound), ErrNotFound)

	var domainErr *util.DomainError

	err := wrapErr("store get", context.DeadlineExceeded)
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, util.CodeTimeout, domainErr.Code)

	err = wrapErr("store get", errors.New("connection refused"))
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, util.CodeExternalStoreFailure, domainErr.Code)
}

func TestBoundCtxAppliesDeadline(t *testing.T) {
	ctx, cancel := boundCtx(context.Background(), 15*time.Second)
	defer cancel()

	deadline, ok := ctx.Deadline()
	require.True(t, ok, "store calls must always carry a deadline")
	assert.WithinDuration(t, time.Now().Add(15*time.Second), deadline, time.Second)

	// Zero timeout still produces a bounded wait.
	ctx2, cancel2 := boundCtx(context.Background(), 0)
	defer cancel2()
	_, ok = ctx2.Deadline()
	assert.True(t, ok)
}
