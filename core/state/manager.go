package state

import (
	"bytes"
	"errors"
	"fmt"
	"reflect"

	ethcrypto "github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/rlp"

	"stakepool/storage"
)

var ErrSessionClosed = errors.New("state: session already committed or discarded")

// Store persists ledger state as RLP values under keccak256-hashed keys.
type Store struct {
	db storage.Database
}

// NewStore wraps db.
func NewStore(db storage.Database) *Store {
	return &Store{db: db}
}

// Begin opens a unit of work. Writes are buffered in the session and only
// reach the database when Commit applies them as one batch.
func (s *Store) Begin() *Session {
	return &Session{db: s.db, writes: make(map[string][]byte)}
}

// Session is a single atomic unit of work over the store.
type Session struct {
	db     storage.Database
	writes map[string][]byte
	order  []string
	closed bool
}

func kvKey(key []byte) []byte {
	return ethcrypto.Keccak256(key)
}

func (s *Session) get(hashed []byte) ([]byte, bool, error) {
	if s.closed {
		return nil, false, ErrSessionClosed
	}
	if value, ok := s.writes[string(hashed)]; ok {
		return value, true, nil
	}
	value, err := s.db.Get(hashed)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return value, len(value) > 0, nil
}

func (s *Session) put(hashed []byte, value []byte) error {
	if s.closed {
		return ErrSessionClosed
	}
	key := string(hashed)
	if _, ok := s.writes[key]; !ok {
		s.order = append(s.order, key)
	}
	s.writes[key] = value
	return nil
}

// Pending reports the number of buffered writes.
func (s *Session) Pending() int { return len(s.order) }

// Commit applies every buffered write atomically and closes the session.
func (s *Session) Commit() error {
	if s.closed {
		return ErrSessionClosed
	}
	batch := s.db.NewBatch()
	for _, key := range s.order {
		if err := batch.Put([]byte(key), s.writes[key]); err != nil {
			return err
		}
	}
	if err := batch.Write(); err != nil {
		return err
	}
	s.close()
	return nil
}

// Discard drops the buffered writes and closes the session.
func (s *Session) Discard() {
	s.close()
}

func (s *Session) close() {
	s.closed = true
	s.writes = nil
	s.order = nil
}

// KVPut stores the provided value under the supplied key using RLP encoding.
// The key is automatically hashed with keccak256.
func (s *Session) KVPut(key []byte, value interface{}) error {
	if len(key) == 0 {
		return fmt.Errorf("kv: key must not be empty")
	}
	encoded, err := rlp.EncodeToBytes(value)
	if err != nil {
		return err
	}
	return s.put(kvKey(key), encoded)
}

// KVGet retrieves the value stored under the supplied key and decodes it into
// the provided destination. The boolean return value indicates whether the key
// existed in state.
func (s *Session) KVGet(key []byte, out interface{}) (bool, error) {
	if len(key) == 0 {
		return false, fmt.Errorf("kv: key must not be empty")
	}
	data, ok, err := s.get(kvKey(key))
	if err != nil || !ok {
		return false, err
	}
	if out == nil {
		return true, nil
	}
	if err := rlp.DecodeBytes(data, out); err != nil {
		return false, err
	}
	return true, nil
}

// KVAppend appends the provided value to the RLP-encoded byte slice list stored
// under the supplied key. Duplicate values are ignored to keep the index
// deterministic.
func (s *Session) KVAppend(key []byte, value []byte) error {
	if len(key) == 0 {
		return fmt.Errorf("kv: key must not be empty")
	}
	var list [][]byte
	if _, err := s.KVGet(key, &list); err != nil {
		return err
	}
	for _, existing := range list {
		if bytes.Equal(existing, value) {
			return nil
		}
	}
	list = append(list, append([]byte(nil), value...))
	return s.KVPut(key, list)
}

// KVGetList retrieves an RLP-encoded slice stored under the provided key and
// decodes it into the supplied destination slice pointer. When no value is
// present the destination is initialised with an empty slice.
func (s *Session) KVGetList(key []byte, out interface{}) error {
	val := reflect.ValueOf(out)
	if val.Kind() != reflect.Ptr || val.IsNil() {
		return fmt.Errorf("kv: destination must be a non-nil pointer")
	}
	elem := val.Elem()
	if elem.Kind() != reflect.Slice {
		return fmt.Errorf("kv: destination must point to a slice")
	}
	ok, err := s.KVGet(key, out)
	if err != nil {
		return err
	}
	if !ok {
		elem.Set(reflect.MakeSlice(elem.Type(), 0, 0))
	}
	return nil
}
