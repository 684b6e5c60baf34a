package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/dgraph-io/badger/v4"
)

const runPrefix = "run/"

// BadgerStore implements the Store interface on an embedded Badger database.
// Each run is one JSON value under the key "run/<id>".
type BadgerStore struct {
	db *badger.DB
}

// NewBadgerStore opens (or creates) a Badger database in dir.
func NewBadgerStore(dir string) (*BadgerStore, error) {
	db, err := badger.Open(badger.DefaultOptions(dir).WithLogger(nil))
	if err != nil {
		return nil, fmt.Errorf("failed to open badger store: %w", err)
	}
	return &BadgerStore{db: db}, nil
}

func runKey(id string) []byte {
	return []byte(runPrefix + id)
}

// SaveRun stores the serialized result, replacing any earlier value.
func (bs *BadgerStore) SaveRun(result *RunResult) error {
	if result == nil {
		return fmt.Errorf("result cannot be nil")
	}
	if err := result.Validate(); err != nil {
		return err
	}
	data, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("failed to serialize run: %w", err)
	}
	err = bs.db.Update(func(txn *badger.Txn) error {
		return txn.Set(runKey(result.ID), data)
	})
	if err != nil {
		return fmt.Errorf("failed to save run: %w", err)
	}
	slog.Debug("Run saved", "runID", result.ID, "backend", "badger")
	return nil
}

// LoadRun retrieves the run with the given ID.
func (bs *BadgerStore) LoadRun(id string) (*RunResult, error) {
	if id == "" {
		return nil, fmt.Errorf("run id cannot be empty")
	}
	var data []byte
	err := bs.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(runKey(id))
		if err != nil {
			return err
		}
		data, err = item.ValueCopy(nil)
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, &NotFoundError{ID: id}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load run: %w", err)
	}

	var result RunResult
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, fmt.Errorf("failed to deserialize run: %w", err)
	}
	return &result, nil
}

// ListRuns scans every "run/" key, newest first.
func (bs *BadgerStore) ListRuns() ([]RunInfo, error) {
	infos := []RunInfo{}
	err := bs.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		prefix := []byte(runPrefix)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			item := it.Item()
			data, err := item.ValueCopy(nil)
			if err != nil {
				return err
			}
			var result RunResult
			if err := json.Unmarshal(data, &result); err != nil {
				slog.Warn("Failed to decode run for listing", "key", string(item.Key()), "error", err)
				continue
			}
			info := result.ToInfo()
			info.Size = int64(len(data))
			infos = append(infos, info)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	sortNewestFirst(infos)
	return infos, nil
}

// DeleteRun removes the run's key.
func (bs *BadgerStore) DeleteRun(id string) error {
	if id == "" {
		return fmt.Errorf("run id cannot be empty")
	}
	err := bs.db.Update(func(txn *badger.Txn) error {
		if _, err := txn.Get(runKey(id)); err != nil {
			return err
		}
		return txn.Delete(runKey(id))
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return &NotFoundError{ID: id}
	}
	if err != nil {
		return fmt.Errorf("failed to delete run: %w", err)
	}
	slog.Debug("Run deleted", "runID", id, "backend", "badger")
	return nil
}

// Close closes the database.
func (bs *BadgerStore) Close() error {
	return bs.db.Close()
}
