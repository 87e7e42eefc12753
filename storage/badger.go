package storage

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"sync"

	"github.com/dgraph-io/badger/v3"
	"github.com/gorustyt/gonavtile/common/logger"
	"github.com/gorustyt/gonavtile/common/message"
	"go.uber.org/zap"
)

var (
	tilePrefix  = []byte("tile/")
	meshPrefix  = []byte("mesh/")
	sequenceKey = []byte("seq/tile")
)

// BadgerStore keeps tiles in an embedded BadgerDB. Every tile is one
// zstd compressed protobuf record under tile/<id>; mesh/<meshID>/<id> keys
// index the tiles of a mesh. Big endian ids keep keys in insertion order.
type BadgerStore struct {
	mu     sync.RWMutex
	db     *badger.DB
	seq    *badger.Sequence
	codec  *blobCodec
	closed bool
}

type badgerLogger struct {
	*zap.SugaredLogger
}

func (l badgerLogger) Warningf(format string, args ...interface{}) {
	l.Warnf(format, args...)
}

// OpenBadgerStore opens or creates the database in dir.
func OpenBadgerStore(dir string) (*BadgerStore, error) {
	opts := badger.DefaultOptions(dir).
		WithLogger(badgerLogger{logger.Default().Named("badger").Sugar()})
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("storage: open badger %s: %w", dir, err)
	}
	seq, err := db.GetSequence(sequenceKey, 64)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("storage: tile id sequence: %w", err)
	}
	codec, err := newBlobCodec()
	if err != nil {
		seq.Release()
		db.Close()
		return nil, err
	}
	return &BadgerStore{db: db, seq: seq, codec: codec}, nil
}

func tileKey(id uint32) []byte {
	return binary.BigEndian.AppendUint32(append([]byte(nil), tilePrefix...), id)
}

func meshKeyPrefix(meshID uint32) []byte {
	k := binary.BigEndian.AppendUint32(append([]byte(nil), meshPrefix...), meshID)
	return append(k, '/')
}

func (s *BadgerStore) InsertTile(ctx context.Context, rec message.TileRecord) (uint32, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return 0, ErrClosed
	}
	n, err := s.seq.Next()
	if err != nil {
		return 0, fmt.Errorf("storage: next tile id: %w", err)
	}
	rec.ID = uint32(n + 1)
	value := s.codec.compress(message.Encode(&rec))
	err = s.db.Update(func(txn *badger.Txn) error {
		if err := txn.Set(tileKey(rec.ID), value); err != nil {
			return err
		}
		return txn.Set(binary.BigEndian.AppendUint32(meshKeyPrefix(rec.ParentMeshID), rec.ID), nil)
	})
	if err != nil {
		return 0, fmt.Errorf("storage: insert tile: %w", err)
	}
	return rec.ID, nil
}

func (s *BadgerStore) loadTile(txn *badger.Txn, id uint32) (message.TileRecord, error) {
	var rec message.TileRecord
	item, err := txn.Get(tileKey(id))
	if errors.Is(err, badger.ErrKeyNotFound) {
		return rec, ErrNotFound
	}
	if err != nil {
		return rec, err
	}
	raw, err := item.ValueCopy(nil)
	if err != nil {
		return rec, err
	}
	data, err := s.codec.decompress(raw)
	if err != nil {
		return rec, fmt.Errorf("storage: tile %d: %w", id, err)
	}
	if err := message.Decode(data, &rec); err != nil {
		return rec, fmt.Errorf("storage: tile %d: %w", id, err)
	}
	return rec, nil
}

func (s *BadgerStore) LoadTile(ctx context.Context, id uint32) (rec message.TileRecord, err error) {
	if err := ctx.Err(); err != nil {
		return rec, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return rec, ErrClosed
	}
	err = s.db.View(func(txn *badger.Txn) error {
		rec, err = s.loadTile(txn, id)
		return err
	})
	return rec, err
}

func (s *BadgerStore) LoadMeshTiles(ctx context.Context, meshID uint32) (recs []message.TileRecord, err error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, ErrClosed
	}
	prefix := meshKeyPrefix(meshID)
	err = s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		opts.Prefix = prefix
		it := txn.NewIterator(opts)
		var ids []uint32
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			key := it.Item().Key()
			ids = append(ids, binary.BigEndian.Uint32(key[len(prefix):]))
		}
		it.Close()

		for _, id := range ids {
			if err := ctx.Err(); err != nil {
				return err
			}
			rec, err := s.loadTile(txn, id)
			if err != nil {
				return err
			}
			recs = append(recs, rec)
		}
		return nil
	})
	return recs, err
}

func (s *BadgerStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	s.codec.close()
	return errors.Join(s.seq.Release(), s.db.Close())
}
