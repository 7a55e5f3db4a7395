package block

import (
	"fmt"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/rlp"
	"go.dedis.ch/lottery/blockchain/account"
	"go.dedis.ch/lottery/blockchain/storage"
	"go.dedis.ch/lottery/blockchain/transaction"
)

// DUMMY_PARENT_HASH is the parent of the genesis block
var DUMMY_PARENT_HASH = common.Hash{}

type Header struct {
	ParentHash  common.Hash
	Number      uint64
	Time        uint64 // unix seconds
	Beneficiary common.Address
	Difficulty  uint64 // leading zero bytes required in the hash
	Nonce       uint64
	StateHash   common.Hash
	TxHash      common.Hash
	ReceiptHash common.Hash
}

// Hash is the keccak256 of the rlp encoded header
func (h *Header) Hash() common.Hash {
	raw, err := rlp.EncodeToBytes(h)
	if err != nil {
		panic(err)
	}
	return crypto.Keccak256Hash(raw)
}

// SatisfiesDifficulty tells whether the header hash starts with Difficulty
// zero bytes
func (h *Header) SatisfiesDifficulty() bool {
	return satisfyPrefixZeros(h.Hash().Bytes(), int(h.Difficulty))
}

// each byte has 8 bits
func satisfyPrefixZeros(hash []byte, zeros int) bool {
	if zeros > len(hash) {
		return false
	}
	for i := 0; i < zeros; i++ {
		if hash[i] != 0 {
			return false
		}
	}
	return true
}

type Block struct {
	Header       Header
	State        storage.KV `json:"-"` // world state after applying the block
	Transactions []*transaction.SignedTransaction
	Receipts     []*transaction.Receipt
}

func (b *Block) Hash() common.Hash {
	return b.Header.Hash()
}

// Record is the persisted form of a block, the world state is left out.
type Record struct {
	Hash     common.Hash
	Header   Header
	TxHashes []common.Hash
}

func (b *Block) Record() Record {
	r := Record{Hash: b.Hash(), Header: b.Header}
	for _, txn := range b.Transactions {
		r.TxHashes = append(r.TxHashes, txn.Hash())
	}
	return r
}

func (b *Block) String() string {
	max := func(s ...string) int {
		max := 0
		for _, se := range s {
			if len(se) > max {
				max = len(se)
			}
		}
		return max
	}

	row1 := fmt.Sprintf("prev | %s", b.Header.ParentHash.Hex()[:10])
	row2 := fmt.Sprintf("idx  | %d", b.Header.Number)
	row3 := fmt.Sprintf("time | %s", time.Unix(int64(b.Header.Time), 0).UTC().Format(time.RFC3339))
	row4 := fmt.Sprintf("txns | %d", len(b.Transactions))
	maxLen := max(row1, row2, row3, row4)

	ret := ""
	ret += fmt.Sprintf("\n┌%s┐\n", strings.Repeat("─", maxLen+2))
	for _, row := range []string{row1, row2, row3, row4} {
		ret += fmt.Sprintf("| %s%s |\n", row, strings.Repeat(" ", maxLen-len(row)))
	}
	ret += fmt.Sprintf("└%s┘\n", strings.Repeat("─", maxLen+2))
	return ret
}

type BlockBuilder struct {
	kvFactory storage.KVFactory
	header    Header
	state     storage.KV
	txns      []*transaction.SignedTransaction
	receipts  []*transaction.Receipt
}

func NewBlockBuilder(kvFactory storage.KVFactory) *BlockBuilder {
	return &BlockBuilder{kvFactory: kvFactory, state: kvFactory()}
}

func (bb *BlockBuilder) SetParentHash(parent common.Hash) *BlockBuilder {
	bb.header.ParentHash = parent
	return bb
}

func (bb *BlockBuilder) SetNonce(nonce uint64) *BlockBuilder {
	bb.header.Nonce = nonce
	return bb
}

func (bb *BlockBuilder) SetNumber(number uint64) *BlockBuilder {
	bb.header.Number = number
	return bb
}

func (bb *BlockBuilder) SetTime(t uint64) *BlockBuilder {
	bb.header.Time = t
	return bb
}

func (bb *BlockBuilder) SetDifficulty(difficulty uint64) *BlockBuilder {
	bb.header.Difficulty = difficulty
	return bb
}

func (bb *BlockBuilder) GetDifficulty() uint64 {
	return bb.header.Difficulty
}

func (bb *BlockBuilder) SetBeneficiary(addr common.Address) *BlockBuilder {
	bb.header.Beneficiary = addr
	return bb
}

func (bb *BlockBuilder) SetWorldState(state storage.KV) *BlockBuilder {
	bb.state = state
	return bb
}

func (bb *BlockBuilder) SetAddrState(addr common.Address, state *account.State) *BlockBuilder {
	if err := bb.state.Put(account.Key(addr), state); err != nil {
		panic(err)
	}
	return bb
}

func (bb *BlockBuilder) AddTxn(txn *transaction.SignedTransaction, receipt *transaction.Receipt) *BlockBuilder {
	bb.txns = append(bb.txns, txn)
	bb.receipts = append(bb.receipts, receipt)
	return bb
}

func (bb *BlockBuilder) Build() *Block {
	header := bb.header
	header.StateHash = common.HexToHash(bb.state.Hash())

	hashes := make([][]byte, 0, len(bb.txns))
	for _, txn := range bb.txns {
		hashes = append(hashes, txn.Hash().Bytes())
	}
	header.TxHash = crypto.Keccak256Hash(hashes...)

	receiptHashes := make([][]byte, 0, len(bb.receipts))
	for _, r := range bb.receipts {
		receiptHashes = append(receiptHashes, r.TxHash.Bytes(), []byte{byte(r.Status)})
	}
	header.ReceiptHash = crypto.Keccak256Hash(receiptHashes...)

	return &Block{
		Header:       header,
		State:        bb.state,
		Transactions: append([]*transaction.SignedTransaction(nil), bb.txns...),
		Receipts:     append([]*transaction.Receipt(nil), bb.receipts...),
	}
}

// DefaultGenesis is an empty block 0
func DefaultGenesis() *Block {
	return NewBlockBuilder(storage.CreateSimpleKV).
		SetParentHash(DUMMY_PARENT_HASH).
		SetNumber(0).
		Build()
}
