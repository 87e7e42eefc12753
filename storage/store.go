// Package storage persists navigation tiles.
package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/gorustyt/gonavtile/common/message"
	"github.com/klauspost/compress/zstd"
)

var (
	ErrNotFound = errors.New("storage: tile not found")
	ErrClosed   = errors.New("storage: store closed")
)

// Store is the persistence context tiles are inserted into and loaded from.
type Store interface {
	InsertTile(ctx context.Context, rec message.TileRecord) (uint32, error)
	LoadTile(ctx context.Context, id uint32) (message.TileRecord, error)
	LoadMeshTiles(ctx context.Context, meshID uint32) ([]message.TileRecord, error)
	Close() error
}

// Open creates a store by kind: "memory", "badger" (dsn is a directory) or
// "mysql" (dsn is a go-sql-driver DSN).
func Open(ctx context.Context, kind, dsn string) (Store, error) {
	switch strings.ToLower(kind) {
	case "", "memory":
		return NewMemoryStore(), nil
	case "badger":
		return OpenBadgerStore(dsn)
	case "mysql":
		return OpenMySQLStore(ctx, dsn)
	}
	return nil, fmt.Errorf("storage: unknown store kind %q", kind)
}

// blobCodec compresses tile blobs. EncodeAll and DecodeAll may be used
// concurrently.
type blobCodec struct {
	enc *zstd.Encoder
	dec *zstd.Decoder
}

func newBlobCodec() (*blobCodec, error) {
	enc, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return nil, err
	}
	dec, err := zstd.NewReader(nil)
	if err != nil {
		enc.Close()
		return nil, err
	}
	return &blobCodec{enc: enc, dec: dec}, nil
}

func (c *blobCodec) compress(b []byte) []byte {
	if len(b) == 0 {
		return nil
	}
	return c.enc.EncodeAll(b, nil)
}

func (c *blobCodec) decompress(b []byte) ([]byte, error) {
	if len(b) == 0 {
		return nil, nil
	}
	return c.dec.DecodeAll(b, nil)
}

func (c *blobCodec) close() {
	c.enc.Close()
	c.dec.Close()
}
