package storage

import (
	"context"
	"slices"
	"sync"

	"github.com/gorustyt/gonavtile/common/message"
)

// MemoryStore keeps tiles in process memory. Records are copied in and out.
type MemoryStore struct {
	mu     sync.RWMutex
	nextID uint32
	tiles  map[uint32]message.TileRecord
	meshes map[uint32][]uint32
	closed bool
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		tiles:  make(map[uint32]message.TileRecord),
		meshes: make(map[uint32][]uint32),
	}
}

func cloneRecord(rec message.TileRecord) message.TileRecord {
	rec.NavData = slices.Clone(rec.NavData)
	rec.PolyData = slices.Clone(rec.PolyData)
	return rec
}

func (s *MemoryStore) InsertTile(ctx context.Context, rec message.TileRecord) (uint32, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return 0, ErrClosed
	}
	s.nextID++
	rec = cloneRecord(rec)
	rec.ID = s.nextID
	s.tiles[rec.ID] = rec
	s.meshes[rec.ParentMeshID] = append(s.meshes[rec.ParentMeshID], rec.ID)
	return rec.ID, nil
}

func (s *MemoryStore) LoadTile(ctx context.Context, id uint32) (message.TileRecord, error) {
	if err := ctx.Err(); err != nil {
		return message.TileRecord{}, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return message.TileRecord{}, ErrClosed
	}
	rec, ok := s.tiles[id]
	if !ok {
		return message.TileRecord{}, ErrNotFound
	}
	return cloneRecord(rec), nil
}

func (s *MemoryStore) LoadMeshTiles(ctx context.Context, meshID uint32) ([]message.TileRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, ErrClosed
	}
	ids := s.meshes[meshID]
	recs := make([]message.TileRecord, 0, len(ids))
	for _, id := range ids {
		recs = append(recs, cloneRecord(s.tiles[id]))
	}
	return recs, nil
}

func (s *MemoryStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}
