package repository

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/okian/wicket/internal/domain/model"
	"github.com/okian/wicket/pkg/metrics"
	"go.etcd.io/bbolt"
)

const (
	recordsBucket = "performances" // id -> stored envelope
	orderBucket   = "order"        // big-endian sequence -> id
)

// stored is the persisted form of a record. Seq keys the order bucket.
type stored struct {
	Seq    uint64                  `json:"seq"`
	Record model.PerformanceRecord `json:"record"`
}

// BoltStore persists records in a BoltDB file.
type BoltStore struct {
	db       *bbolt.DB
	fileName string
	fileMode os.FileMode
	timeout  time.Duration
}

// NewBoltStore opens (or creates) the database under dataPath.
func NewBoltStore(dataPath string, opts ...BoltOption) (*BoltStore, error) {
	s := &BoltStore{
		fileName: defaultBoltFileName,
		fileMode: defaultBoltFileMode,
		timeout:  defaultBoltTimeout,
	}
	for _, opt := range opts {
		opt(s)
	}

	if err := os.MkdirAll(dataPath, dataDirMode); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}

	db, err := bbolt.Open(filepath.Join(dataPath, s.fileName), s.fileMode, &bbolt.Options{Timeout: s.timeout})
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		if _, err := tx.CreateBucketIfNotExists([]byte(recordsBucket)); err != nil {
			return fmt.Errorf("create records bucket: %w", err)
		}
		if _, err := tx.CreateBucketIfNotExists([]byte(orderBucket)); err != nil {
			return fmt.Errorf("create order bucket: %w", err)
		}
		return nil
	})
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	s.db = db
	metrics.UpdateTotalRecords(s.Count(context.Background()))
	return s, nil
}

// FindAll returns every record in creation order.
func (s *BoltStore) FindAll(ctx context.Context) ([]model.PerformanceRecord, error) {
	defer observeQuery(time.Now())
	out := []model.PerformanceRecord{}
	err := s.view(func(tx *bbolt.Tx) error {
		records := tx.Bucket([]byte(recordsBucket))
		c := tx.Bucket([]byte(orderBucket)).Cursor()
		for k, id := c.First(); k != nil; k, id = c.Next() {
			st, err := decode(records.Get(id))
			if err != nil {
				return fmt.Errorf("decode record %s: %w", id, err)
			}
			out = append(out, st.Record)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// FindByID returns the record with id.
func (s *BoltStore) FindByID(ctx context.Context, id string) (model.PerformanceRecord, error) {
	defer observeQuery(time.Now())
	var rec model.PerformanceRecord
	err := s.view(func(tx *bbolt.Tx) error {
		data := tx.Bucket([]byte(recordsBucket)).Get([]byte(id))
		if data == nil {
			return ErrNotFound
		}
		st, err := decode(data)
		if err != nil {
			return fmt.Errorf("decode record %s: %w", id, err)
		}
		rec = st.Record
		return nil
	})
	if errors.Is(err, ErrNotFound) {
		metrics.RecordErrorByComponent("repository", "not_found")
	}
	return rec, err
}

// Save inserts rec under a new id when rec.ID is empty and replaces the
// stored record otherwise, keeping its position. Replacing an unknown id
// fails with ErrNotFound.
func (s *BoltStore) Save(ctx context.Context, rec model.PerformanceRecord) (model.PerformanceRecord, error) {
	defer observeUpdate(time.Now())
	replace := rec.ID != ""
	if !replace {
		rec.ID = uuid.NewString()
	}
	err := s.update(func(tx *bbolt.Tx) error {
		records := tx.Bucket([]byte(recordsBucket))
		key := []byte(rec.ID)

		st := stored{Record: rec}
		if replace {
			existing := records.Get(key)
			if existing == nil {
				return ErrNotFound
			}
			prev, err := decode(existing)
			if err != nil {
				return fmt.Errorf("decode record %s: %w", rec.ID, err)
			}
			st.Seq = prev.Seq
		} else {
			order := tx.Bucket([]byte(orderBucket))
			seq, err := order.NextSequence()
			if err != nil {
				return fmt.Errorf("next sequence: %w", err)
			}
			st.Seq = seq
			if err := order.Put(seqKey(seq), key); err != nil {
				return fmt.Errorf("put order: %w", err)
			}
		}

		data, err := json.Marshal(st)
		if err != nil {
			return fmt.Errorf("marshal record: %w", err)
		}
		return records.Put(key, data)
	})
	if err != nil {
		return model.PerformanceRecord{}, err
	}
	metrics.UpdateTotalRecords(s.Count(ctx))
	return rec, nil
}

// ExistsByID reports whether id is stored.
func (s *BoltStore) ExistsByID(ctx context.Context, id string) (bool, error) {
	var ok bool
	err := s.view(func(tx *bbolt.Tx) error {
		ok = tx.Bucket([]byte(recordsBucket)).Get([]byte(id)) != nil
		return nil
	})
	return ok, err
}

// DeleteByID removes the record with id.
func (s *BoltStore) DeleteByID(ctx context.Context, id string) error {
	defer observeUpdate(time.Now())
	err := s.update(func(tx *bbolt.Tx) error {
		records := tx.Bucket([]byte(recordsBucket))
		data := records.Get([]byte(id))
		if data == nil {
			return ErrNotFound
		}
		st, err := decode(data)
		if err != nil {
			return fmt.Errorf("decode record %s: %w", id, err)
		}
		if err := tx.Bucket([]byte(orderBucket)).Delete(seqKey(st.Seq)); err != nil {
			return fmt.Errorf("delete order: %w", err)
		}
		return records.Delete([]byte(id))
	})
	if err != nil {
		return err
	}
	metrics.UpdateTotalRecords(s.Count(ctx))
	return nil
}

// Count returns the number of stored records, 0 when closed.
func (s *BoltStore) Count(ctx context.Context) int {
	n := 0
	_ = s.view(func(tx *bbolt.Tx) error {
		n = tx.Bucket([]byte(recordsBucket)).Stats().KeyN
		return nil
	})
	return n
}

// Close closes the database file.
func (s *BoltStore) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *BoltStore) view(fn func(tx *bbolt.Tx) error) error {
	err := s.db.View(fn)
	if errors.Is(err, bbolt.ErrDatabaseNotOpen) {
		return ErrClosed
	}
	return err
}

func (s *BoltStore) update(fn func(tx *bbolt.Tx) error) error {
	err := s.db.Update(fn)
	if errors.Is(err, bbolt.ErrDatabaseNotOpen) {
		return ErrClosed
	}
	return err
}

func decode(data []byte) (stored, error) {
	var st stored
	err := json.Unmarshal(data, &st)
	return st, err
}

func seqKey(seq uint64) []byte {
	b := make([]byte, 8)
	binary.BigEndian.PutUint64(b, seq)
	return b
}
