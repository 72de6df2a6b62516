package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	bolt "go.etcd.io/bbolt"
)

var (
	subscriptionsBucket = []byte("subscriptions")
	historiesBucket     = []byte("histories")
)

// Store keeps one JSON document per subscription id in each bucket:
// the subscription itself and its delivery history.
type Store struct {
	db *bolt.DB
}

func NewStore(dbPath string) (*Store, error) {
	db, err := bolt.Open(dbPath, 0o600, &bolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		for _, bucket := range [][]byte{subscriptionsBucket, historiesBucket} {
			if _, createErr := tx.CreateBucketIfNotExists(bucket); createErr != nil {
				return createErr
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("creating buckets: %w", err)
	}

	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) SaveSubscription(ctx context.Context, sub *Subscription) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		data, err := json.Marshal(sub)
		if err != nil {
			return err
		}
		return tx.Bucket(subscriptionsBucket).Put([]byte(sub.ID), data)
	})
}

func (s *Store) Subscription(ctx context.Context, id string) (*Subscription, error) {
	var sub Subscription
	err := s.db.View(func(tx *bolt.Tx) error {
		data := tx.Bucket(subscriptionsBucket).Get([]byte(id))
		if data == nil {
			return fmt.Errorf("subscription %s not found", id)
		}
		return json.Unmarshal(data, &sub)
	})
	if err != nil {
		return nil, err
	}
	return &sub, nil
}

// Subscriptions returns every registered subscription, ordered by id so a
// pass visits them deterministically.
func (s *Store) Subscriptions(ctx context.Context) ([]Subscription, error) {
	var subs []Subscription
	err := s.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(subscriptionsBucket).ForEach(func(_ []byte, v []byte) error {
			var sub Subscription
			if err := json.Unmarshal(v, &sub); err != nil {
				return err
			}
			subs = append(subs, sub)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	sort.Slice(subs, func(i, j int) bool { return subs[i].ID < subs[j].ID })
	return subs, nil
}

// DeleteSubscription removes the subscription and its history document.
func (s *Store) DeleteSubscription(ctx context.Context, id string) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		if err := tx.Bucket(subscriptionsBucket).Delete([]byte(id)); err != nil {
			return err
		}
		return tx.Bucket(historiesBucket).Delete([]byte(id))
	})
}

// History returns the delivery history for a subscription, or nil when none
// has been written yet.
func (s *Store) History(ctx context.Context, id string) (*Record, error) {
	var rec Record
	found := false
	err := s.db.View(func(tx *bolt.Tx) error {
		data := tx.Bucket(historiesBucket).Get([]byte(id))
		if data == nil {
			return nil
		}
		found = true
		return json.Unmarshal(data, &rec)
	})
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, nil
	}
	return &rec, nil
}

// SaveHistory overwrites the whole history document for rec.ID.
func (s *Store) SaveHistory(ctx context.Context, rec *Record) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		data, err := json.Marshal(rec)
		if err != nil {
			return err
		}
		return tx.Bucket(historiesBucket).Put([]byte(rec.ID), data)
	})
}

// Histories returns every stored history record, ordered by id.
func (s *Store) Histories(ctx context.Context) ([]Record, error) {
	var recs []Record
	err := s.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(historiesBucket).ForEach(func(_ []byte, v []byte) error {
			var rec Record
			if err := json.Unmarshal(v, &rec); err != nil {
				return err
			}
			recs = append(recs, rec)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	sort.Slice(recs, func(i, j int) bool { return recs[i].ID < recs[j].ID })
	return recs, nil
}
