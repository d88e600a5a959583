package world

import (
	"encoding/binary"
	"io"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// Every record is a 9 byte header (op, key, payload size, little endian)
// followed by the payload. The file is append-only; the last record for a key
// wins.
const (
	diskOpDelete byte = 0
	diskOpSet    byte = 1

	diskHeaderSize = 9
)

type diskRecordMeta struct {
	offset int64
	size   uint32
}

// DiskStorage appends world snapshots to a single file.
type DiskStorage struct {
	file    *os.File
	logger  *zap.Logger
	mu      sync.RWMutex
	records map[uint32]diskRecordMeta
}

// NewDiskStorage opens or creates the snapshot file at path and indexes its
// records.
func NewDiskStorage(path string, logger *zap.Logger) (*DiskStorage, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, errors.Wrap(err, "create storage directory")
	}
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0o644)
	if err != nil {
		return nil, errors.Wrap(err, "open storage file")
	}
	storage := &DiskStorage{
		file:    f,
		logger:  logger,
		records: make(map[uint32]diskRecordMeta),
	}
	if err := storage.loadIndex(); err != nil {
		f.Close()
		return nil, err
	}
	logger.Debug("disk storage opened", zap.String("path", path), zap.Int("snapshots", len(storage.records)))
	return storage, nil
}

func (s *DiskStorage) loadIndex() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.file.Seek(0, io.SeekStart); err != nil {
		return errors.Wrap(err, "rewind storage file")
	}

	header := make([]byte, diskHeaderSize)
	var offset int64
	for {
		if _, err := io.ReadFull(s.file, header); err != nil {
			if err == io.EOF {
				break
			}
			if err == io.ErrUnexpectedEOF {
				return errors.Wrap(err, "truncated record header")
			}
			return errors.Wrap(err, "read record header")
		}
		op := header[0]
		key := binary.LittleEndian.Uint32(header[1:5])
		size := binary.LittleEndian.Uint32(header[5:9])
		recordOffset := offset
		offset += diskHeaderSize + int64(size)

		if _, err := s.file.Seek(int64(size), io.SeekCurrent); err != nil {
			return errors.Wrap(err, "seek past payload")
		}
		if op == diskOpSet {
			s.records[key] = diskRecordMeta{offset: recordOffset, size: size}
		} else {
			delete(s.records, key)
		}
	}

	stat, err := s.file.Stat()
	if err != nil {
		return errors.Wrap(err, "stat storage file")
	}
	if offset != stat.Size() {
		return errors.Errorf("truncated record payload at offset %d", offset)
	}
	return nil
}

func (s *DiskStorage) Load(key uint32) (*Snapshot, bool, error) {
	s.mu.RLock()
	meta, ok := s.records[key]
	s.mu.RUnlock()
	if !ok {
		return nil, false, nil
	}

	payload := make([]byte, meta.size)
	if _, err := s.file.ReadAt(payload, meta.offset+diskHeaderSize); err != nil {
		return nil, false, errors.Wrapf(err, "read payload at %d", meta.offset)
	}
	snapshot, err := decodeSnapshot(payload)
	if err != nil {
		return nil, false, errors.Wrapf(err, "snapshot %d", key)
	}
	return snapshot, true, nil
}

func (s *DiskStorage) Save(key uint32, snapshot *Snapshot) error {
	payload, err := encodeSnapshot(snapshot)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	offset, err := s.append(diskOpSet, key, payload)
	if err != nil {
		return err
	}
	s.records[key] = diskRecordMeta{offset: offset, size: uint32(len(payload))}
	return nil
}

func (s *DiskStorage) Delete(key uint32) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.append(diskOpDelete, key, nil); err != nil {
		return err
	}
	delete(s.records, key)
	return nil
}

// append writes one record at the end of the file. Callers hold the write
// lock.
func (s *DiskStorage) append(op byte, key uint32, payload []byte) (int64, error) {
	header := make([]byte, diskHeaderSize)
	header[0] = op
	binary.LittleEndian.PutUint32(header[1:5], key)
	binary.LittleEndian.PutUint32(header[5:9], uint32(len(payload)))

	offset, err := s.file.Seek(0, io.SeekEnd)
	if err != nil {
		return 0, errors.Wrap(err, "seek storage end")
	}
	if _, err := s.file.Write(header); err != nil {
		return 0, errors.Wrap(err, "write header")
	}
	if len(payload) > 0 {
		if _, err := s.file.Write(payload); err != nil {
			return 0, errors.Wrap(err, "write payload")
		}
	}
	if err := s.file.Sync(); err != nil {
		return 0, errors.Wrap(err, "sync storage file")
	}
	return offset, nil
}

func (s *DiskStorage) Keys() ([]uint32, error) {
	s.mu.RLock()
	keys := make([]uint32, 0, len(s.records))
	for key := range s.records {
		keys = append(keys, key)
	}
	s.mu.RUnlock()
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys, nil
}

func (s *DiskStorage) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.file.Close(); err != nil {
		s.logger.Warn("close disk storage", zap.Error(err))
		return errors.Wrap(err, "close storage file")
	}
	return nil
}
