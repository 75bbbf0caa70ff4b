// Package boltdb stores elections, voters and the vote ledger in an embedded
// bbolt file. Every write runs inside a single bbolt write transaction, which
// serializes writers and makes the ledger's uniqueness check atomic.
package boltdb

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	bolt "go.etcd.io/bbolt"
)

var (
	bucketVoters      = []byte("voters")
	bucketEmails      = []byte("voter_emails")
	bucketNationalIDs = []byte("voter_national_ids")
	bucketUsernames   = []byte("voter_usernames")
	bucketPhones      = []byte("voter_phones")
	bucketTokens      = []byte("verification_tokens")
	bucketElections   = []byte("elections")
	// candidates are keyed by election id followed by candidate id
	bucketCandidates = []byte("candidates")
	// votes are keyed by election id followed by voter id
	bucketVotes = []byte("votes")
	// voter_votes indexes votes by voter id followed by election id
	bucketVoterVotes = []byte("voter_votes")
	bucketResults    = []byte("final_results")

	allBuckets = [][]byte{
		bucketVoters, bucketEmails, bucketNationalIDs, bucketUsernames, bucketPhones, bucketTokens,
		bucketElections, bucketCandidates, bucketVotes, bucketVoterVotes, bucketResults,
	}
)

// Open opens (creating if needed) the database file at path and initializes
// all buckets.
func Open(path string) (*bolt.DB, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return nil, fmt.Errorf("fail to create directory for %s: %w", path, err)
	}
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("fail to open bolt database: %w", err)
	}
	if err := initializeBuckets(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

func initializeBuckets(db *bolt.DB) error {
	tx, err := db.Begin(true)
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback()
	}()

	for _, name := range allBuckets {
		if _, err := tx.CreateBucketIfNotExists(name); err != nil {
			return fmt.Errorf("fail to create bucket %s: %w", name, err)
		}
	}
	return tx.Commit()
}

func compositeKey(a, b uuid.UUID) []byte {
	key := make([]byte, 0, 32)
	key = append(key, a[:]...)
	return append(key, b[:]...)
}

func putJSON(bucket *bolt.Bucket, key []byte, v any) error {
	value, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return bucket.Put(key, value)
}

// getJSON decodes the value at key into v and returns notFound when the key
// is absent.
func getJSON(bucket *bolt.Bucket, key []byte, v any, notFound error) error {
	value := bucket.Get(key)
	if value == nil {
		return notFound
	}
	return json.Unmarshal(value, v)
}

// scanPrefix calls fn for every key starting with prefix.
func scanPrefix(bucket *bolt.Bucket, prefix []byte, fn func(k, v []byte) error) error {
	c := bucket.Cursor()
	for k, v := c.Seek(prefix); k != nil && bytes.HasPrefix(k, prefix); k, v = c.Next() {
		if err := fn(k, v); err != nil {
			return err
		}
	}
	return nil
}

// deletePrefix removes every key starting with prefix and returns the removed
// values.
func deletePrefix(bucket *bolt.Bucket, prefix []byte) ([][]byte, error) {
	var keys, values [][]byte
	err := scanPrefix(bucket, prefix, func(k, v []byte) error {
		keys = append(keys, bytes.Clone(k))
		values = append(values, bytes.Clone(v))
		return nil
	})
	if err != nil {
		return nil, err
	}
	for _, k := range keys {
		if err := bucket.Delete(k); err != nil {
			return nil, err
		}
	}
	return values, nil
}

func count(db *bolt.DB, name []byte) (int64, error) {
	var n int64
	err := db.View(func(tx *bolt.Tx) error {
		n = int64(tx.Bucket(name).Stats().KeyN)
		return nil
	})
	return n, err
}
