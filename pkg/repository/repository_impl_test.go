package repository

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/smallbiznis/brewlink/pkg/db/option"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type widget struct {
	ID    int64 `gorm:"primaryKey;autoIncrement"`
	Kind  string
	Level int
}

func setupStore(t *testing.T) (*gorm.DB, Repository[widget]) {
	t.Helper()

	dsn := fmt.Sprintf("file:store_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&widget{}))

	sqlDB, err := db.DB()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })
	return db, ProvideStore[widget](db)
}

func TestStoreFindAndFindOne(t *testing.T) {
	_, store := setupStore(t)
	ctx := context.Background()

	for i, kind := range []string{"grinder", "boiler", "grinder"} {
		require.NoError(t, store.Create(ctx, &widget{Kind: kind, Level: i + 1}))
	}

	got, err := store.Find(ctx, &widget{Kind: "grinder"}, option.OrderBy("level", true), option.Limit(1))
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, 3, got[0].Level)

	one, err := store.FindOne(ctx, &widget{Kind: "boiler"})
	require.NoError(t, err)
	require.NotNil(t, one)
	assert.Equal(t, 2, one.Level)

	missing, err := store.FindOne(ctx, &widget{Kind: "pump"})
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestStoreCountExistsExec(t *testing.T) {
	_, store := setupStore(t)
	ctx := context.Background()
	require.NoError(t, store.Create(ctx, &widget{Kind: "boiler", Level: 1}))
	require.NoError(t, store.Create(ctx, &widget{Kind: "boiler", Level: 2}))

	count, err := store.Count(ctx, &widget{Kind: "boiler"})
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)

	ok, err := store.Exists(ctx, &widget{Kind: "boiler"})
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = store.Exists(ctx, &widget{Kind: "pump"})
	require.NoError(t, err)
	assert.False(t, ok)

	affected, err := store.Exec(ctx, `UPDATE widgets SET level = ? WHERE kind = ?`, 9, "boiler")
	require.NoError(t, err)
	assert.Equal(t, int64(2), affected)
}
