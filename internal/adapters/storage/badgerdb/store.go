// Package badgerdb is an embedded, persistent backend for single-node
// deployments.
package badgerdb

import (
	"errors"
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/goccy/go-json"

	"github.com/kidsrec/chatbot/internal/domain"
)

// Key prefixes for BadgerDB storage. Every id segment is written as
// {len}:{id}: so that prefix scans stay inside one user and conversation.
//
//	conv:{u}{c}                   conversation
//	msg:{u}{c}{ts}:{msgID}        message, ts is zero-padded unix nanos
//	msgidx:{u}{c}{msgID}          key of the message record
//	profile:{u}                   profile
//	fav:{u}{favoriteID}           favorite
const (
	convKeyPrefix     = "conv:"
	msgKeyPrefix      = "msg:"
	msgIndexKeyPrefix = "msgidx:"
	profileKeyPrefix  = "profile:"
	favKeyPrefix      = "fav:"
)

// Store implements the conversation, profile and favorite ports on BadgerDB.
// The catalog is read-only and served from the seed file instead.
type Store struct {
	db  *badger.DB
	now func() time.Time
}

var (
	_ domain.ConversationStore = (*Store)(nil)
	_ domain.ProfileStore      = (*Store)(nil)
	_ domain.FavoriteStore     = (*Store)(nil)
)

// Open opens (or creates) a database under dir.
func Open(dir string) (*Store, error) {
	if dir == "" {
		return nil, fmt.Errorf("badger path is required")
	}

	opts := badger.DefaultOptions(dir)
	opts.Logger = nil

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("opening badger at %s: %w", dir, err)
	}
	return NewStore(db), nil
}

// NewStore wraps an already opened database.
func NewStore(db *badger.DB) *Store {
	return &Store{db: db, now: time.Now}
}

func (s *Store) Close() error {
	return s.db.Close()
}

// part length-prefixes a caller-supplied id so that no id can extend into
// the next key segment: "alice" and "alice:bob" never share a prefix.
func part(id string) string {
	return fmt.Sprintf("%d:%s:", len(id), id)
}

func convPrefix(userID domain.UserID) []byte {
	return []byte(convKeyPrefix + part(string(userID)))
}

func convKey(userID domain.UserID, id domain.ConversationID) []byte {
	return append(convPrefix(userID), part(string(id))...)
}

func msgPrefix(userID domain.UserID, id domain.ConversationID) []byte {
	return []byte(msgKeyPrefix + part(string(userID)) + part(string(id)))
}

func msgKey(userID domain.UserID, id domain.ConversationID, m *domain.Message) []byte {
	ts := m.CreatedAt.UnixNano()
	if m.CreatedAt.IsZero() || ts < 0 {
		ts = 0
	}
	return append(msgPrefix(userID, id), []byte(fmt.Sprintf("%020d:%s", ts, m.ID))...)
}

func msgIndexKey(userID domain.UserID, id domain.ConversationID, msgID domain.MessageID) []byte {
	return []byte(msgIndexKeyPrefix + part(string(userID)) + part(string(id)) + string(msgID))
}

func profileKey(userID domain.UserID) []byte {
	return []byte(profileKeyPrefix + part(string(userID)))
}

func favPrefix(userID domain.UserID) []byte {
	return []byte(favKeyPrefix + part(string(userID)))
}

func favKey(userID domain.UserID, favoriteID string) []byte {
	return append(favPrefix(userID), []byte(favoriteID)...)
}

// getJSON decodes the value at key into v, mapping a missing key onto
// domain.ErrNotFound.
func getJSON(txn *badger.Txn, key []byte, v any) error {
	item, err := txn.Get(key)
	if errors.Is(err, badger.ErrKeyNotFound) {
		return domain.ErrNotFound
	}
	if err != nil {
		return err
	}
	return item.Value(func(val []byte) error {
		return json.Unmarshal(val, v)
	})
}

func setJSON(txn *badger.Txn, key []byte, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", key, err)
	}
	return txn.Set(key, data)
}

// scan calls fn with every value under prefix, in key order or reversed.
// Returning errStopScan from fn ends the scan early without an error.
func scan(txn *badger.Txn, prefix []byte, reverse bool, fn func(key, val []byte) error) error {
	opts := badger.DefaultIteratorOptions
	opts.PrefetchValues = true
	opts.Reverse = reverse
	opts.Prefix = prefix

	it := txn.NewIterator(opts)
	defer it.Close()

	seek := prefix
	if reverse {
		seek = append(append([]byte(nil), prefix...), 0xFF)
	}

	for it.Seek(seek); it.ValidForPrefix(prefix); it.Next() {
		item := it.Item()
		err := item.Value(func(val []byte) error {
			return fn(item.KeyCopy(nil), val)
		})
		if errors.Is(err, errStopScan) {
			return nil
		}
		if err != nil {
			return err
		}
	}
	return nil
}

var errStopScan = errors.New("stop scan")
