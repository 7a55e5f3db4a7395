package storage

import (
	"errors"
)

var ErrKeyNotFound error = errors.New("key not found")
var ErrValueNotMatch error = errors.New("value not match")

type KV interface {
	// methods as a basic key-value mapping
	Get(key string) (interface{}, error)
	Put(key string, value interface{}) error
	Del(key string) error
	Hash() string
	// For visits the entries in key order, stopping at the first error
	For(func(key string, value interface{}) error) error
	// Copy returns an independent KV, values implementing Copier are deep-copied
	Copy() KV
	Len() int
}

// Copier is implemented by values which own mutable state
type Copier interface {
	DeepCopy() interface{}
}

type KVFactory func() KV

func CreateSimpleKV() KV {
	return NewSimpleKV()
}
