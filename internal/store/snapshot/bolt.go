// Package snapshot keeps registered interview sessions on disk so they survive a restart.
package snapshot

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	bolt "go.etcd.io/bbolt"

	"github.com/zhouzirui/trait-interview/backend/internal/model/interview"
)

var sessionsBucket = []byte("sessions")

// BoltStore implements session snapshots on top of BoltDB.
type BoltStore struct {
	db *bolt.DB
}

// Open opens (creating if needed) the snapshot database at path.
func Open(path string) (*BoltStore, error) {
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("snapshot: open bolt database %s: %w", path, err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(sessionsBucket)
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("snapshot: create sessions bucket: %w", err)
	}

	return &BoltStore{db: db}, nil
}

// Save overwrites the snapshot of s.
func (s *BoltStore) Save(_ context.Context, session interview.Session) error {
	data, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("snapshot: marshal session %s: %w", session.ID, err)
	}

	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(sessionsBucket).Put([]byte(session.ID), data)
	})
}

// Delete drops the snapshot of id. Missing keys are not an error.
func (s *BoltStore) Delete(_ context.Context, id string) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(sessionsBucket).Delete([]byte(id))
	})
}

// LoadAll returns every stored session.
func (s *BoltStore) LoadAll(_ context.Context) ([]interview.Session, error) {
	var sessions []interview.Session
	err := s.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(sessionsBucket).ForEach(func(k, v []byte) error {
			var session interview.Session
			if err := json.Unmarshal(v, &session); err != nil {
				return fmt.Errorf("snapshot: decode session %s: %w", k, err)
			}
			sessions = append(sessions, session)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return sessions, nil
}

// Close releases the database file lock.
func (s *BoltStore) Close() error {
	return s.db.Close()
}
