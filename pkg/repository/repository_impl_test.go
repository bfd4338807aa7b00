package repository

import (
	"context"
	"strings"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/smallbiznis/claimdocs/pkg/db/option"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type widget struct {
	ID    int64  `gorm:"primaryKey"`
	OrgID int64  `gorm:"not null"`
	Name  string `gorm:"not null"`
	Rank  int
}

func newTestStore(t *testing.T) (Repository[widget], *gorm.DB) {
	t.Helper()

	dsn := "file:" + strings.ReplaceAll(t.Name(), "/", "_") + "?mode=memory&cache=shared"
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, conn.AutoMigrate(&widget{}))

	return ProvideStore[widget](conn), conn
}

func TestStoreCreateAndFind(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.BatchCreate(ctx, []*widget{
		{ID: 1, OrgID: 10, Name: "dehu", Rank: 3},
		{ID: 2, OrgID: 10, Name: "air mover", Rank: 1},
		{ID: 3, OrgID: 20, Name: "trip charge", Rank: 2},
	}))
	require.NoError(t, store.BatchCreate(ctx, nil))

	found, err := store.Find(ctx, &widget{OrgID: 10},
		option.WithSortBy(option.SortBy{Column: "rank"}),
	)
	require.NoError(t, err)
	require.Len(t, found, 2)
	assert.Equal(t, "air mover", found[0].Name)
	assert.Equal(t, "dehu", found[1].Name)

	desc, err := store.Find(ctx, &widget{}, option.WithSortBy(option.SortBy{Column: "rank", Desc: true}))
	require.NoError(t, err)
	require.Len(t, desc, 3)
	assert.Equal(t, "dehu", desc[0].Name)
}

func TestStoreFindOneMissingReturnsNil(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Create(ctx, &widget{ID: 7, OrgID: 1, Name: "trip charge"}))

	got, err := store.FindOne(ctx, &widget{ID: 7})
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "trip charge", got.Name)

	missing, err := store.FindOne(ctx, &widget{ID: 8})
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestStoreWithTrxRollsBack(t *testing.T) {
	store, conn := newTestStore(t)
	ctx := context.Background()

	err := conn.Transaction(func(tx *gorm.DB) error {
		if err := store.WithTrx(tx).Create(ctx, &widget{ID: 1, OrgID: 1, Name: "dehu"}); err != nil {
			return err
		}
		return gorm.ErrInvalidData
	})
	require.ErrorIs(t, err, gorm.ErrInvalidData)

	rows, err := store.Find(ctx, &widget{})
	require.NoError(t, err)
	assert.Empty(t, rows)
}
