package navigation

import (
	"context"
	"testing"

	"github.com/gorustyt/gonavtile/common"
	"github.com/gorustyt/gonavtile/storage"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func buildMesh(t *testing.T, id uint32, terrain TerrainBlock, opts ...Option) *NavigationMesh {
	t.Helper()
	opts = append([]Option{WithLogger(zaptest.NewLogger(t))}, opts...)
	m := NewNavigationMesh(id, testParams(), opts...)
	require.NoError(t, m.Build(context.Background(), nil, []TerrainBlock{terrain}))
	return m
}

func TestNavigationMeshBuild(t *testing.T) {
	// 40 x 40 units with 16 unit tiles.
	m := buildMesh(t, 1, flatTerrain(41, 41))
	require.NotNil(t, m.NavMesh())
	require.Len(t, m.Tiles(), 9)
	assert.Equal(t, 9, m.NavMesh().TileCount())

	for _, tile := range m.Tiles() {
		assert.Same(t, m, tile.Mesh())
		assert.Equal(t, int32(0), tile.TileY())
		assert.NotEmpty(t, tile.NavigationData())
		ref, ok := tile.TileRef()
		require.True(t, ok)
		assert.Equal(t, ref, m.NavMesh().GetTileRefAt(int(tile.TileX()), int(tile.TileZ()), 0))
	}
	// Grid order: x varies fastest.
	assert.Equal(t, int32(1), m.Tiles()[1].TileX())
	assert.Equal(t, int32(0), m.Tiles()[1].TileZ())
	assert.Equal(t, int32(1), m.Tiles()[3].TileZ())

	assert.NotNil(t, m.Tile(2, 2))
	assert.Nil(t, m.Tile(3, 0))

	params := m.NavMesh().GetParams()
	assert.InDelta(t, 16, params.TileWidth, 1e-6)
	assert.Equal(t, 16, params.MaxTiles)
}

func TestNavigationMeshBuildMeshes(t *testing.T) {
	m := NewNavigationMesh(1, testParams(), WithLogger(zaptest.NewLogger(t)))
	floor := MeshSource{Mesh: quadMesh(20, 0), Transform: identity()}
	require.NoError(t, m.Build(context.Background(), []MeshSource{floor}, nil))
	assert.Len(t, m.Tiles(), 4)
}

func TestNavigationMeshBuildIndependentOfWorkers(t *testing.T) {
	terrain := hillyTerrain(49, 49, 42)
	serial := buildMesh(t, 1, terrain, WithWorkers(1))
	parallel := buildMesh(t, 1, terrain, WithWorkers(4))

	require.NotEmpty(t, serial.Tiles())
	require.Len(t, parallel.Tiles(), len(serial.Tiles()))
	for i, a := range serial.Tiles() {
		b := parallel.Tiles()[i]
		assert.Equal(t, a.TileX(), b.TileX())
		assert.Equal(t, a.TileZ(), b.TileZ())
		assert.Equal(t, a.NavigationData(), b.NavigationData())
		refA, _ := a.TileRef()
		refB, _ := b.TileRef()
		assert.Equal(t, refA, refB)
	}
}

func TestNavigationMeshRebuild(t *testing.T) {
	m := buildMesh(t, 1, flatTerrain(41, 41))
	old := m.Tiles()[0]
	require.NoError(t, m.Build(context.Background(), nil, []TerrainBlock{flatTerrain(11, 11)}))
	assert.Len(t, m.Tiles(), 1)
	assert.Nil(t, old.PolyMesh(), "previous tiles are released")
}

func TestNavigationMeshBuildErrors(t *testing.T) {
	p := testParams()
	p.CellSize = 0
	m := NewNavigationMesh(1, p)
	assert.ErrorIs(t, m.Build(context.Background(), nil, []TerrainBlock{flatTerrain(11, 11)}), ErrInvalidParams)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	m = NewNavigationMesh(1, testParams())
	assert.ErrorIs(t, m.Build(ctx, nil, []TerrainBlock{flatTerrain(41, 41)}), context.Canceled)
	assert.Empty(t, m.Tiles())
}

func TestNavigationMeshPersistence(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryStore()
	m := buildMesh(t, 3, hillyTerrain(49, 49, 7))
	require.NotEmpty(t, m.Tiles())

	require.NoError(t, m.Serialize(ctx, store))
	for _, tile := range m.Tiles() {
		assert.NotZero(t, tile.DatabaseID())
	}
	require.NoError(t, m.Serialize(ctx, store))
	recs, err := store.LoadMeshTiles(ctx, 3)
	require.NoError(t, err)
	assert.Len(t, recs, len(m.Tiles()), "second serialize inserts nothing")

	loaded := NewNavigationMesh(3, testParams(), WithLogger(zaptest.NewLogger(t)))
	require.NoError(t, loaded.LoadTiles(ctx, store, false))
	require.Len(t, loaded.Tiles(), len(m.Tiles()))
	assert.Equal(t, m.NavMesh().TileCount(), loaded.NavMesh().TileCount())
	for i, want := range m.Tiles() {
		got := loaded.Tiles()[i]
		assert.Equal(t, want.DatabaseID(), got.DatabaseID())
		assert.Equal(t, want.NavigationData(), got.NavigationData())
		ref, ok := got.TileRef()
		require.True(t, ok)
		assert.Equal(t, ref, loaded.NavMesh().GetTileRefAt(int(got.TileX()), int(got.TileZ()), 0))
	}
	wantOrig := m.NavMesh().GetParams().Orig
	gotOrig := loaded.NavMesh().GetParams().Orig
	for i := range wantOrig {
		assert.InDelta(t, wantOrig[i], gotOrig[i], 1e-3)
	}

	clone := NewNavigationMesh(3, testParams())
	require.NoError(t, clone.LoadTiles(ctx, store, true))
	for _, tile := range clone.Tiles() {
		assert.Zero(t, tile.DatabaseID())
	}
	require.NoError(t, clone.Serialize(ctx, store))
	recs, err = store.LoadMeshTiles(ctx, 3)
	require.NoError(t, err)
	assert.Len(t, recs, 2*len(m.Tiles()))
}

func TestNavigationMeshLoadSkipsCorruptRecords(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryStore()
	m := buildMesh(t, 5, flatTerrain(41, 41))

	// Stored before the good tiles so the origin comes from the next record.
	_, err := store.InsertTile(ctx, TileRecord{ParentMeshID: 5, TileX: 7, NavData: []byte{1, 2, 3}})
	require.NoError(t, err)
	require.NoError(t, m.Serialize(ctx, store))
	_, err = store.InsertTile(ctx, TileRecord{ParentMeshID: 5, TileX: 8, PolyData: []byte{1}})
	require.NoError(t, err)

	loaded := NewNavigationMesh(5, testParams(), WithLogger(zaptest.NewLogger(t)))
	require.NoError(t, loaded.LoadTiles(ctx, store, false))
	require.NotNil(t, loaded.NavMesh())
	assert.Len(t, loaded.Tiles(), len(m.Tiles()))
	assert.Equal(t, len(m.Tiles()), loaded.NavMesh().TileCount())
	assert.Nil(t, loaded.Tile(7, 0))
	assert.Nil(t, loaded.Tile(8, 0))

	wantOrig := m.NavMesh().GetParams().Orig
	gotOrig := loaded.NavMesh().GetParams().Orig
	for i := range wantOrig {
		assert.InDelta(t, wantOrig[i], gotOrig[i], 1e-3)
	}
}

func TestNavigationMeshPersistenceErrors(t *testing.T) {
	ctx := context.Background()
	m := NewNavigationMesh(1, testParams())
	assert.ErrorIs(t, m.Serialize(ctx, nil), ErrNoStore)
	assert.ErrorIs(t, m.Serialize(ctx, storage.NewMemoryStore()), ErrNotBuilt)
	assert.ErrorIs(t, m.LoadTiles(ctx, nil, false), ErrNoStore)
	assert.ErrorIs(t, m.LoadTiles(ctx, failingStore{}, false), errStoreDown)

	m = buildMesh(t, 1, flatTerrain(41, 41))
	err := m.Serialize(ctx, failingStore{})
	assert.ErrorIs(t, err, errStoreDown)
	for _, tile := range m.Tiles() {
		assert.Zero(t, tile.DatabaseID())
	}
}

func TestNavigationMeshLoadEmpty(t *testing.T) {
	m := NewNavigationMesh(11, testParams())
	require.NoError(t, m.LoadTiles(context.Background(), storage.NewMemoryStore(), false))
	assert.Empty(t, m.Tiles())
	assert.NotNil(t, m.NavMesh())
}

func TestNavigationMeshDebugDraw(t *testing.T) {
	m := buildMesh(t, 1, flatTerrain(41, 41))
	driver := &recordingDriver{}
	m.DebugDraw(driver, NewResourceManager("scene"))
	assert.Len(t, driver.calls, len(m.Tiles()))
}

func TestNavigationMeshMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics, err := NewMetrics(reg)
	require.NoError(t, err)
	_, err = NewMetrics(reg)
	assert.Error(t, err, "metrics register once per registry")

	m := buildMesh(t, 1, flatTerrain(41, 41), WithMetrics(metrics))
	assert.Equal(t, float64(9), testutil.ToFloat64(metrics.tilesBuilt.WithLabelValues("ok")))

	empty := NewTile(m, 5, 0, 5)
	require.NoError(t, empty.BuildTile(context.Background(), testParams(), tileBounds(16), nil, nil))
	assert.Equal(t, float64(1), testutil.ToFloat64(metrics.tilesBuilt.WithLabelValues("empty")))

	require.NoError(t, m.Serialize(context.Background(), storage.NewMemoryStore()))
	assert.Equal(t, float64(9), testutil.ToFloat64(metrics.tilesPersisted))

	var nilMetrics *Metrics
	nilMetrics.observeBuild(0, 1, nil)
	nilMetrics.observePersisted()
}

func TestInitNavMeshBits(t *testing.T) {
	m := NewNavigationMesh(1, testParams())
	require.NoError(t, m.initNavMesh(common.Vec3{}, 1000))
	params := m.NavMesh().GetParams()
	assert.Equal(t, 1024, params.MaxTiles)
	assert.Equal(t, 1<<12, params.MaxPolys)

	require.NoError(t, m.initNavMesh(common.Vec3{}, 1<<20))
	assert.Equal(t, 1<<maxTileBits, m.NavMesh().GetParams().MaxTiles)
	assert.Equal(t, 1<<(refIndexBits-maxTileBits), m.NavMesh().GetParams().MaxPolys)
}
