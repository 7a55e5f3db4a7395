package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"github.com/syndtr/goleveldb/leveldb"
	lvlstorage "github.com/syndtr/goleveldb/leveldb/storage"
)

var (
	headKey         = []byte("head")
	blockHashPrefix = "b-h-"
	blockNumPrefix  = "b-n-"
	receiptPrefix   = "r-"
)

// ChainDB keeps the mined history (blocks and receipts) as JSON records in
// a leveldb database. World state is not persisted.
type ChainDB struct {
	db *leveldb.DB
}

// OpenChainDB opens or creates the database stored in dir.
func OpenChainDB(dir string) (*ChainDB, error) {
	db, err := leveldb.OpenFile(dir, nil)
	if err != nil {
		return nil, fmt.Errorf("open chain db %s: %w", dir, err)
	}
	return &ChainDB{db: db}, nil
}

// OpenMemoryChainDB opens a database kept in memory.
func OpenMemoryChainDB() (*ChainDB, error) {
	db, err := leveldb.Open(lvlstorage.NewMemStorage(), nil)
	if err != nil {
		return nil, fmt.Errorf("open memory chain db: %w", err)
	}
	return &ChainDB{db: db}, nil
}

func (c *ChainDB) Close() error {
	return c.db.Close()
}

func numberKey(number uint64) []byte {
	return []byte(blockNumPrefix + fmt.Sprintf("%020d", number))
}

// PutBlock stores the block record under its hash and indexes it by number.
// The head moves to number.
func (c *ChainDB) PutBlock(number uint64, hash string, record interface{}) error {
	raw, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("marshal block %d: %w", number, err)
	}
	batch := new(leveldb.Batch)
	batch.Put([]byte(blockHashPrefix+hash), raw)
	batch.Put(numberKey(number), []byte(hash))
	batch.Put(headKey, []byte(strconv.FormatUint(number, 10)))
	if err := c.db.Write(batch, nil); err != nil {
		return fmt.Errorf("write block %d: %w", number, err)
	}
	return nil
}

// BlockByHash decodes the block record with the given hash into record.
func (c *ChainDB) BlockByHash(hash string, record interface{}) error {
	return c.getJSON([]byte(blockHashPrefix+hash), record)
}

// BlockByNumber decodes the canonical block record at number into record.
func (c *ChainDB) BlockByNumber(number uint64, record interface{}) error {
	hash, err := c.db.Get(numberKey(number), nil)
	if err != nil {
		return c.wrap(err)
	}
	return c.BlockByHash(string(hash), record)
}

// Head returns the number of the last stored block.
func (c *ChainDB) Head() (uint64, error) {
	raw, err := c.db.Get(headKey, nil)
	if err != nil {
		return 0, c.wrap(err)
	}
	return strconv.ParseUint(string(raw), 10, 64)
}

func (c *ChainDB) PutReceipt(txHash string, record interface{}) error {
	raw, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("marshal receipt %s: %w", txHash, err)
	}
	if err := c.db.Put([]byte(receiptPrefix+txHash), raw, nil); err != nil {
		return fmt.Errorf("write receipt %s: %w", txHash, err)
	}
	return nil
}

func (c *ChainDB) Receipt(txHash string, record interface{}) error {
	return c.getJSON([]byte(receiptPrefix+txHash), record)
}

func (c *ChainDB) getJSON(key []byte, record interface{}) error {
	raw, err := c.db.Get(key, nil)
	if err != nil {
		return c.wrap(err)
	}
	if err := json.Unmarshal(raw, record); err != nil {
		return fmt.Errorf("corrupted record %s: %w", key, err)
	}
	return nil
}

func (c *ChainDB) wrap(err error) error {
	if errors.Is(err, leveldb.ErrNotFound) {
		return ErrKeyNotFound
	}
	return err
}
