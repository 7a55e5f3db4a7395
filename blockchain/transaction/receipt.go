package transaction

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"
)

const (
	ReceiptStatusFailed     = uint64(0)
	ReceiptStatusSuccessful = uint64(1)
)

// Log is an event emitted by a contract while executing a transaction.
type Log struct {
	Address     common.Address
	Event       string
	Fields      map[string]interface{}
	TxHash      common.Hash
	BlockNumber uint64
	Index       uint
}

func (l *Log) Field(name string) (interface{}, bool) {
	v, ok := l.Fields[name]
	return v, ok
}

func (l *Log) String() string {
	return fmt.Sprintf("%s@%s%v", l.Event, l.Address.Hex()[:10], l.Fields)
}

type Receipt struct {
	TxHash          common.Hash
	BlockNumber     uint64
	BlockHash       common.Hash
	From            common.Address
	To              *common.Address `json:",omitempty"`
	ContractAddress common.Address  // set for creations
	Status          uint64
	RevertReason    string `json:",omitempty"`
	Logs            []*Log
	// ReturnValues holds what the called method returned. Not persisted.
	ReturnValues []interface{} `json:"-"`
}

// Event returns the first log named name.
func (r *Receipt) Event(name string) (*Log, bool) {
	for _, l := range r.Logs {
		if l.Event == name {
			return l, true
		}
	}
	return nil, false
}

// Events returns every log named name.
func (r *Receipt) Events(name string) []*Log {
	var logs []*Log
	for _, l := range r.Logs {
		if l.Event == name {
			logs = append(logs, l)
		}
	}
	return logs
}

func (r *Receipt) Succeeded() bool {
	return r.Status == ReceiptStatusSuccessful
}
