package navigation

import (
	"context"
	"errors"
	"testing"

	"github.com/gorustyt/gonavtile/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errStoreDown = errors.New("store down")

// failingStore fails every call.
type failingStore struct{}

func (failingStore) InsertTile(context.Context, TileRecord) (uint32, error) { return 0, errStoreDown }
func (failingStore) LoadTile(context.Context, uint32) (TileRecord, error) {
	return TileRecord{}, errStoreDown
}
func (failingStore) LoadMeshTiles(context.Context, uint32) ([]TileRecord, error) {
	return nil, errStoreDown
}
func (failingStore) Close() error { return nil }

func TestTileSerialize(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryStore()
	tile := buildFlatTile(t, nil)

	require.NoError(t, tile.Serialize(ctx, store, 7))
	id := tile.DatabaseID()
	require.NotZero(t, id)

	require.NoError(t, tile.Serialize(ctx, store, 7))
	assert.Equal(t, id, tile.DatabaseID(), "stored tiles are never inserted again")
	recs, err := store.LoadMeshTiles(ctx, 7)
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, tile.NavigationData(), recs[0].NavData)
	assert.Equal(t, EncodePolyMesh(tile.PolyMesh()), recs[0].PolyData)
}

func TestTileDeserialize(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryStore()
	src := NewTile(nil, 0, 0, 0)
	block := flatTerrain(11, 11)
	require.NoError(t, src.BuildTile(ctx, testParams(), tileBounds(16), nil, []TerrainBlock{block}))
	src.tileX, src.tileZ = 2, 5
	require.NoError(t, src.Serialize(ctx, store, 7))

	dst := NewTile(nil, 9, 9, 9)
	require.NoError(t, dst.Deserialize(ctx, store, src.DatabaseID(), false))
	assert.Equal(t, int32(2), dst.TileX())
	assert.Equal(t, int32(0), dst.TileY())
	assert.Equal(t, int32(5), dst.TileZ())
	assert.Equal(t, src.DatabaseID(), dst.DatabaseID())
	assert.Equal(t, src.NavigationData(), dst.NavigationData())
	assert.Nil(t, dst.DetailMesh(), "the detail mesh is not persisted")

	want, got := src.PolyMesh(), dst.PolyMesh()
	require.NotNil(t, got)
	assert.Equal(t, want.NVerts, got.NVerts)
	assert.Equal(t, want.NPolys, got.NPolys)
	assert.Equal(t, want.Verts[:want.NVerts*3], got.Verts)
	assert.Equal(t, want.Polys[:want.NPolys*want.Nvp*2], got.Polys[:got.NPolys*got.Nvp*2])
	assert.Equal(t, want.Areas[:want.NPolys], got.Areas[:got.NPolys])
	assert.Equal(t, want.Flags[:want.NPolys], got.Flags[:got.NPolys])

	clone := NewTile(nil, 0, 0, 0)
	require.NoError(t, clone.Deserialize(ctx, store, src.DatabaseID(), true))
	assert.Zero(t, clone.DatabaseID())
	require.NoError(t, clone.Serialize(ctx, store, 8))
	assert.NotEqual(t, src.DatabaseID(), clone.DatabaseID(), "a clone is inserted as a new tile")
}

func TestTileDeserializeEmpty(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryStore()
	empty := NewTile(nil, 1, 0, 1)
	require.NoError(t, empty.Serialize(ctx, store, 7))

	dst := buildFlatTile(t, nil)
	require.NoError(t, dst.Deserialize(ctx, store, empty.DatabaseID(), false))
	assert.Nil(t, dst.PolyMesh())
	assert.Empty(t, dst.NavigationData())
	assert.Equal(t, int32(1), dst.TileX())
}

func TestTileSerializeFailures(t *testing.T) {
	ctx := context.Background()
	tile := buildFlatTile(t, nil)
	navData := tile.NavigationData()

	assert.ErrorIs(t, tile.Serialize(ctx, nil, 7), ErrNoStore)
	assert.ErrorIs(t, tile.Deserialize(ctx, nil, 1, false), ErrNoStore)

	assert.ErrorIs(t, tile.Serialize(ctx, failingStore{}, 7), errStoreDown)
	assert.Zero(t, tile.DatabaseID())

	assert.ErrorIs(t, tile.Deserialize(ctx, failingStore{}, 1, false), errStoreDown)
	assert.Equal(t, navData, tile.NavigationData(), "a failed load leaves the tile untouched")

	store := storage.NewMemoryStore()
	assert.ErrorIs(t, tile.Deserialize(ctx, store, 42, false), storage.ErrNotFound)

	id, err := store.InsertTile(ctx, TileRecord{ParentMeshID: 7, NavData: []byte{1}, PolyData: []byte{1, 2, 3}})
	require.NoError(t, err)
	assert.ErrorIs(t, tile.Deserialize(ctx, store, id, false), ErrCorruptPolyData)
	assert.Equal(t, navData, tile.NavigationData())
	assert.NotNil(t, tile.PolyMesh())
}
