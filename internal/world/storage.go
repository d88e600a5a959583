package world

import (
	"bytes"
	"encoding/gob"
	"sync"

	"github.com/klauspost/compress/zstd"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"voxelworld/internal/config"
	"voxelworld/internal/spatial"
)

// Snapshot is the persisted form of a world tree.
type Snapshot = spatial.Snapshot[BlockID]

// Storage persists world snapshots by key.
type Storage interface {
	Load(key uint32) (*Snapshot, bool, error)
	Save(key uint32, snapshot *Snapshot) error
	Delete(key uint32) error
	Keys() ([]uint32, error)
	Close() error
}

// OpenStorage returns disk storage at cfg.Path, or memory storage when no path
// is configured.
func OpenStorage(cfg config.StorageConfig, logger *zap.Logger) (Storage, error) {
	if cfg.Path == "" {
		return NewMemoryStorage(), nil
	}
	return NewDiskStorage(cfg.Path, logger)
}

const snapshotEncodingVersion = 1

type snapshotEncoding struct {
	Version  int
	Snapshot *Snapshot
}

var (
	zstdEncoder = sync.OnceValues(func() (*zstd.Encoder, error) {
		return zstd.NewWriter(nil)
	})
	zstdDecoder = sync.OnceValues(func() (*zstd.Decoder, error) {
		return zstd.NewReader(nil)
	})
)

// encodeSnapshot gob-encodes a snapshot and compresses it. Voxel trees are
// dominated by runs of identical nodes, which compress well.
func encodeSnapshot(snapshot *Snapshot) ([]byte, error) {
	var raw bytes.Buffer
	encoding := snapshotEncoding{Version: snapshotEncodingVersion, Snapshot: snapshot}
	if err := gob.NewEncoder(&raw).Encode(&encoding); err != nil {
		return nil, errors.Wrap(err, "encode snapshot")
	}
	enc, err := zstdEncoder()
	if err != nil {
		return nil, errors.Wrap(err, "create snapshot compressor")
	}
	return enc.EncodeAll(raw.Bytes(), nil), nil
}

func decodeSnapshot(payload []byte) (*Snapshot, error) {
	dec, err := zstdDecoder()
	if err != nil {
		return nil, errors.Wrap(err, "create snapshot decompressor")
	}
	raw, err := dec.DecodeAll(payload, nil)
	if err != nil {
		return nil, errors.Wrap(err, "decompress snapshot")
	}
	var encoding snapshotEncoding
	if err := gob.NewDecoder(bytes.NewReader(raw)).Decode(&encoding); err != nil {
		return nil, errors.Wrap(err, "decode snapshot")
	}
	if encoding.Version != snapshotEncodingVersion {
		return nil, errors.Errorf("unsupported snapshot version %d", encoding.Version)
	}
	if encoding.Snapshot == nil {
		return nil, errors.Wrap(spatial.ErrCorruptSnapshot, "empty snapshot payload")
	}
	return encoding.Snapshot, nil
}
