package storage

import (
	"math/big"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

type counter struct {
	N int
}

func (c *counter) DeepCopy() interface{} {
	return &counter{N: c.N}
}

func TestSimpleKV(t *testing.T) {
	kv := NewSimpleKV()
	_, err := kv.Get("a")
	require.ErrorIs(t, err, ErrKeyNotFound)

	require.NoError(t, kv.Put("a", 1))
	require.NoError(t, kv.Put("b", "two"))
	v, err := kv.Get("a")
	require.NoError(t, err)
	require.Equal(t, 1, v)
	require.Equal(t, 2, kv.Len())

	require.NoError(t, kv.Del("a"))
	require.ErrorIs(t, kv.Del("a"), ErrKeyNotFound)
	require.Equal(t, "{b->two}", kv.String())
}

func TestSimpleKVForIsOrdered(t *testing.T) {
	kv := NewSimpleKV()
	for _, k := range []string{"c", "a", "b"} {
		require.NoError(t, kv.Put(k, k))
	}
	var visited []string
	err := kv.For(func(key string, value interface{}) error {
		visited = append(visited, key)
		return nil
	})
	require.NoError(t, err)
	require.Equal(t, []string{"a", "b", "c"}, visited)
}

func TestSimpleKVCopyIsDeep(t *testing.T) {
	kv := NewSimpleKV()
	c := &counter{N: 1}
	require.NoError(t, kv.Put("counter", c))
	require.NoError(t, kv.Put("plain", 7))

	cp := kv.Copy()
	c.N = 42
	require.NoError(t, cp.Put("plain", 8))

	v, err := cp.Get("counter")
	require.NoError(t, err)
	require.Equal(t, 1, v.(*counter).N)

	v, err = kv.Get("plain")
	require.NoError(t, err)
	require.Equal(t, 7, v)
}

func TestSimpleKVHashIsStable(t *testing.T) {
	kv1 := NewSimpleKV()
	kv2 := NewSimpleKV()
	for i, k := range []string{"x", "y", "z"} {
		require.NoError(t, kv1.Put(k, big.NewInt(int64(i))))
	}
	for i := 2; i >= 0; i-- {
		require.NoError(t, kv2.Put([]string{"x", "y", "z"}[i], big.NewInt(int64(i))))
	}
	require.Equal(t, kv1.Hash(), kv2.Hash())

	require.NoError(t, kv2.Put("x", big.NewInt(9)))
	require.NotEqual(t, kv1.Hash(), kv2.Hash())
}

type record struct {
	Number uint64
	Hash   string
}

func TestChainDB(t *testing.T) {
	db, err := OpenMemoryChainDB()
	require.NoError(t, err)
	defer db.Close()

	_, err = db.Head()
	require.ErrorIs(t, err, ErrKeyNotFound)

	require.NoError(t, db.PutBlock(0, "aa", record{0, "aa"}))
	require.NoError(t, db.PutBlock(1, "bb", record{1, "bb"}))

	head, err := db.Head()
	require.NoError(t, err)
	require.Equal(t, uint64(1), head)

	var r record
	require.NoError(t, db.BlockByNumber(0, &r))
	require.Equal(t, record{0, "aa"}, r)
	require.NoError(t, db.BlockByHash("bb", &r))
	require.Equal(t, uint64(1), r.Number)
	require.ErrorIs(t, db.BlockByNumber(5, &r), ErrKeyNotFound)

	require.NoError(t, db.PutReceipt("tx", record{Hash: "tx"}))
	require.NoError(t, db.Receipt("tx", &r))
	require.Equal(t, "tx", r.Hash)
	require.ErrorIs(t, db.Receipt("none", &r), ErrKeyNotFound)
}

func TestChainDBOnDisk(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "chaindata")
	db, err := OpenChainDB(dir)
	require.NoError(t, err)
	require.NoError(t, db.PutBlock(3, "cc", record{3, "cc"}))
	require.NoError(t, db.Close())

	db, err = OpenChainDB(dir)
	require.NoError(t, err)
	defer db.Close()
	head, err := db.Head()
	require.NoError(t, err)
	require.Equal(t, uint64(3), head)
}
