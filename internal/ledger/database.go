package ledger

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"

	"go.etcd.io/bbolt"
)

const (
	recordsBucket = "records"
	// byDateBucket indexes records as "YYYY-MM-DD/<id>" so a month is one
	// cursor seek
	byDateBucket = "records_by_date"
)

// DB defines the interface for record persistence
type DB interface {
	// SaveRecord inserts or replaces a record
	SaveRecord(record *Record) error

	// GetRecord retrieves a record by ID
	GetRecord(id string) (*Record, error)

	// ListRecords returns every record in date order
	ListRecords() ([]*Record, error)

	// ListRecordsInRange returns records dated from..to inclusive, in date order
	ListRecordsInRange(from, to string) ([]*Record, error)

	// DeleteRecord removes a record; unknown ids are not an error
	DeleteRecord(id string) error

	// Close closes the database connection
	Close() error
}

// BoltDB implements the DB interface using bbolt
type BoltDB struct {
	db *bbolt.DB
}

// NewBoltDB opens or creates the ledger database at path
func NewBoltDB(path string) (*BoltDB, error) {
	db, err := bbolt.Open(path, 0600, &bbolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("opening boltdb: %w", err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		for _, name := range []string{recordsBucket, byDateBucket} {
			if _, err := tx.CreateBucketIfNotExists([]byte(name)); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating buckets: %w", err)
	}

	return &BoltDB{db: db}, nil
}

func dateKey(date, id string) []byte {
	return []byte(date + "/" + id)
}

// SaveRecord stores the record and keeps the date index in step
func (b *BoltDB) SaveRecord(record *Record) error {
	return b.db.Update(func(tx *bbolt.Tx) error {
		records := tx.Bucket([]byte(recordsBucket))
		index := tx.Bucket([]byte(byDateBucket))

		if old := records.Get([]byte(record.ID)); old != nil {
			var prev Record
			if err := json.Unmarshal(old, &prev); err != nil {
				return fmt.Errorf("unmarshaling record: %w", err)
			}
			if err := index.Delete(dateKey(prev.Date, prev.ID)); err != nil {
				return err
			}
		}

		data, err := json.Marshal(record)
		if err != nil {
			return fmt.Errorf("marshaling record: %w", err)
		}
		if err := records.Put([]byte(record.ID), data); err != nil {
			return err
		}
		return index.Put(dateKey(record.Date, record.ID), []byte(record.ID))
	})
}

// GetRecord retrieves a record by ID
func (b *BoltDB) GetRecord(id string) (*Record, error) {
	var record *Record
	err := b.db.View(func(tx *bbolt.Tx) error {
		data := tx.Bucket([]byte(recordsBucket)).Get([]byte(id))
		if data == nil {
			return fmt.Errorf("%w: %s", ErrNotFound, id)
		}
		return json.Unmarshal(data, &record)
	})
	if err != nil {
		return nil, err
	}
	return record, nil
}

// ListRecords returns every record in date order
func (b *BoltDB) ListRecords() ([]*Record, error) {
	return b.ListRecordsInRange("", "\xff")
}

// ListRecordsInRange walks the date index from..to inclusive
func (b *BoltDB) ListRecordsInRange(from, to string) ([]*Record, error) {
	records := make([]*Record, 0)
	err := b.db.View(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(recordsBucket))
		c := tx.Bucket([]byte(byDateBucket)).Cursor()
		for k, id := c.Seek([]byte(from)); k != nil; k, id = c.Next() {
			if date, _, _ := bytes.Cut(k, []byte("/")); string(date) > to {
				break
			}
			data := bucket.Get(id)
			if data == nil {
				continue
			}
			var record Record
			if err := json.Unmarshal(data, &record); err != nil {
				return fmt.Errorf("unmarshaling record: %w", err)
			}
			records = append(records, &record)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return records, nil
}

// DeleteRecord removes a record and its index entry
func (b *BoltDB) DeleteRecord(id string) error {
	return b.db.Update(func(tx *bbolt.Tx) error {
		records := tx.Bucket([]byte(recordsBucket))
		data := records.Get([]byte(id))
		if data == nil {
			return nil
		}
		var record Record
		if err := json.Unmarshal(data, &record); err != nil {
			return fmt.Errorf("unmarshaling record: %w", err)
		}
		if err := tx.Bucket([]byte(byDateBucket)).Delete(dateKey(record.Date, record.ID)); err != nil {
			return err
		}
		return records.Delete([]byte(id))
	})
}

// Close closes the database connection
func (b *BoltDB) Close() error {
	return b.db.Close()
}
