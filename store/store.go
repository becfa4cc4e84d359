package store

import (
	"bytes"
	"context"
	"encoding/binary"
	"log"
	"time"

	"github.com/boltdb/bolt"
	"github.com/dustin/go-humanize"
	"github.com/klauspost/compress/zstd"
	"github.com/pkg/errors"
)

var (
	ErrNotFound = errors.New("pack not found")

	packBucket = []byte("pack")
)

// Entry describes one stored pack.
type Entry struct {
	Key     string
	Size    int
	Stored  time.Time
	Expires time.Time // zero means never
}

func (e Entry) expired(now time.Time) bool {
	return !e.Expires.IsZero() && !now.Before(e.Expires)
}

// Store persists pack bytes by a caller chosen key.
type Store interface {
	Put(ctx context.Context, key string, data []byte, ttl time.Duration) error
	Get(ctx context.Context, key string) ([]byte, error)
	List(ctx context.Context) ([]Entry, error)
	Delete(ctx context.Context, key string) error
	Close() error
}

var _ Store = (*BoltStore)(nil)

type BoltStore struct {
	db  *bolt.DB
	enc *zstd.Encoder
	dec *zstd.Decoder

	now func() time.Time
}

func NewBoltStore(p string) (*BoltStore, error) {
	db, err := bolt.Open(p, 0666, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, errors.Wrapf(err, "open %s", p)
	}
	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(packBucket)
		return err
	})
	if err != nil {
		db.Close()
		return nil, err
	}
	enc, err := zstd.NewWriter(nil)
	if err != nil {
		db.Close()
		return nil, err
	}
	dec, err := zstd.NewReader(nil)
	if err != nil {
		db.Close()
		return nil, err
	}
	return &BoltStore{db: db, enc: enc, dec: dec, now: time.Now}, nil
}

func (s *BoltStore) Put(ctx context.Context, key string, data []byte, ttl time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	e := Entry{Key: key, Size: len(data), Stored: s.now()}
	if ttl > 0 {
		e.Expires = e.Stored.Add(ttl)
	}
	value := encodeValue(e, s.enc.EncodeAll(data, nil))
	err := s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(packBucket).Put([]byte(key), value)
	})
	if err != nil {
		return errors.Wrapf(err, "put %s", key)
	}
	log.Printf("store: put %s %s -> %s", key, humanize.Bytes(uint64(len(data))), humanize.Bytes(uint64(len(value))))
	return nil
}

// Get returns the pack bytes. Expired entries are removed and reported as
// ErrNotFound.
func (s *BoltStore) Get(ctx context.Context, key string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var (
		e       Entry
		payload []byte
		found   bool
	)
	err := s.db.View(func(tx *bolt.Tx) error {
		v := tx.Bucket(packBucket).Get([]byte(key))
		if v == nil {
			return nil
		}
		var err error
		e, payload, err = decodeValue(key, v)
		if err != nil {
			return err
		}
		// bolt memory is only valid inside the transaction
		payload = append([]byte(nil), payload...)
		found = true
		return nil
	})
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, errors.Wrap(ErrNotFound, key)
	}
	if e.expired(s.now()) {
		log.Printf("store: %s expired at %s", key, e.Expires.Format(time.RFC3339))
		if err := s.Delete(ctx, key); err != nil {
			log.Printf("store: delete %s: %v", key, err)
		}
		return nil, errors.Wrap(ErrNotFound, key)
	}
	data, err := s.dec.DecodeAll(payload, make([]byte, 0, e.Size))
	if err != nil {
		return nil, errors.Wrapf(err, "decode %s", key)
	}
	return data, nil
}

// List returns the live entries in key order.
func (s *BoltStore) List(ctx context.Context) ([]Entry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	now := s.now()
	var entries []Entry
	err := s.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(packBucket).ForEach(func(k, v []byte) error {
			e, _, err := decodeValue(string(k), v)
			if err != nil {
				log.Printf("store: skip %s: %v", k, err)
				return nil
			}
			if !e.expired(now) {
				entries = append(entries, e)
			}
			return nil
		})
	})
	return entries, err
}

func (s *BoltStore) Delete(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(packBucket).Delete([]byte(key))
	})
}

// Sweep removes every expired entry and reports how many went.
func (s *BoltStore) Sweep(ctx context.Context) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	now := s.now()
	n := 0
	err := s.db.Update(func(tx *bolt.Tx) error {
		bkt := tx.Bucket(packBucket)
		var stale [][]byte
		bkt.ForEach(func(k, v []byte) error {
			e, _, err := decodeValue(string(k), v)
			if err != nil || e.expired(now) {
				stale = append(stale, append([]byte(nil), k...))
			}
			return nil
		})
		for _, k := range stale {
			if err := bkt.Delete(k); err != nil {
				return err
			}
		}
		n = len(stale)
		return nil
	})
	return n, err
}

func (s *BoltStore) Close() error {
	s.enc.Close()
	s.dec.Close()
	s.db.Sync()
	return s.db.Close()
}

const headerSize = 8 * 3

func encodeValue(e Entry, payload []byte) []byte {
	buf := new(bytes.Buffer)
	var expires int64
	if !e.Expires.IsZero() {
		expires = e.Expires.UnixNano()
	}
	binary.Write(buf, binary.LittleEndian, [...]int64{e.Stored.UnixNano(), expires, int64(e.Size)})
	buf.Write(payload)
	return buf.Bytes()
}

func decodeValue(key string, b []byte) (Entry, []byte, error) {
	if len(b) < headerSize {
		return Entry{}, nil, errors.Errorf("bad value length %d for %s", len(b), key)
	}
	var arr [3]int64
	binary.Read(bytes.NewReader(b[:headerSize]), binary.LittleEndian, &arr)
	if arr[2] < 0 {
		return Entry{}, nil, errors.Errorf("bad size %d for %s", arr[2], key)
	}
	e := Entry{Key: key, Stored: time.Unix(0, arr[0]), Size: int(arr[2])}
	if arr[1] != 0 {
		e.Expires = time.Unix(0, arr[1])
	}
	return e, b[headerSize:], nil
}
