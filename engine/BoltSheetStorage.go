package engine

import (
	"fmt"
	"strings"

	"github.com/henrika2/spreadsheet/contracts"
	"go.etcd.io/bbolt"
)

var sheetsBucket = []byte("sheets")

// BoltSheetStorage keeps serialized sheets in one bbolt bucket keyed by lowercase sheet id
type BoltSheetStorage struct {
	db *bbolt.DB
}

func NewBoltSheetStorage(db *bbolt.DB) *BoltSheetStorage {
	return &BoltSheetStorage{db: db}
}

func (s *BoltSheetStorage) Read(sheetId string) (data []byte, err error) {
	err = s.db.View(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket(sheetsBucket)
		if bucket == nil {
			return contracts.SheetNotFoundError
		}

		value := bucket.Get(s.makeKey(sheetId))
		if value == nil {
			return contracts.SheetNotFoundError
		}

		// value is only valid inside the transaction
		data = append([]byte(nil), value...)
		return nil
	})

	if err != nil {
		return nil, fmt.Errorf("%w: sheet %s: %w", contracts.ReadWriteError, sheetId, err)
	}
	return data, nil
}

func (s *BoltSheetStorage) Write(sheetId string, data []byte) error {
	err := s.db.Update(func(tx *bbolt.Tx) error {
		bucket, err := tx.CreateBucketIfNotExists(sheetsBucket)
		if err != nil {
			return err
		}
		return bucket.Put(s.makeKey(sheetId), data)
	})

	if err != nil {
		return fmt.Errorf("%w: sheet %s: %w", contracts.ReadWriteError, sheetId, err)
	}
	return nil
}

func (s *BoltSheetStorage) Keys() (keys []string, err error) {
	keys = make([]string, 0)
	err = s.db.View(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket(sheetsBucket)
		if bucket == nil {
			return nil
		}
		return bucket.ForEach(func(k, _ []byte) error {
			keys = append(keys, string(k))
			return nil
		})
	})
	return
}

func (s *BoltSheetStorage) makeKey(sheetId string) []byte {
	return []byte(strings.ToLower(sheetId))
}
