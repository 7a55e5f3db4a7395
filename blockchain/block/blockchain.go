package block

import (
	"errors"
	"fmt"
	"sync"

	"github.com/disiqueira/gotree/v3"
	"github.com/ethereum/go-ethereum/common"
	"go.dedis.ch/lottery/blockchain/storage"
)

var ErrUnknownBlock = errors.New("unknown block")

// BlockChain is a linear chain of Blocks
type BlockChain struct {
	mu        sync.Mutex
	blocksMap map[common.Hash]*Block
	blocks    []*Block // blocks[i].Header.Number == i
}

func NewBlockChain() *BlockChain {
	genesis := DefaultGenesis()
	return NewBlockChainWithGenesis(genesis)
}

func NewBlockChainWithGenesis(genesis *Block) *BlockChain {
	return &BlockChain{blocks: []*Block{genesis},
		blocksMap: map[common.Hash]*Block{genesis.Hash(): genesis}}
}

// LatestWorldState returns a copy of the world state stored in the last block
func (bc *BlockChain) LatestWorldState() (storage.KV, *Block) {
	bc.mu.Lock()
	defer bc.mu.Unlock()
	last := bc.blocks[len(bc.blocks)-1]
	return last.State.Copy(), last
}

func (bc *BlockChain) Last() *Block {
	bc.mu.Lock()
	defer bc.mu.Unlock()
	return bc.blocks[len(bc.blocks)-1]
}

func (bc *BlockChain) Len() int {
	bc.mu.Lock()
	defer bc.mu.Unlock()
	return len(bc.blocks)
}

func (bc *BlockChain) BlockByNumber(number uint64) (*Block, error) {
	bc.mu.Lock()
	defer bc.mu.Unlock()
	if number >= uint64(len(bc.blocks)) {
		return nil, fmt.Errorf("%w: number=%d", ErrUnknownBlock, number)
	}
	return bc.blocks[number], nil
}

func (bc *BlockChain) BlockByHash(hash common.Hash) (*Block, error) {
	bc.mu.Lock()
	defer bc.mu.Unlock()
	b, ok := bc.blocksMap[hash]
	if !ok {
		return nil, fmt.Errorf("%w: hash=%s", ErrUnknownBlock, hash.Hex())
	}
	return b, nil
}

// TryAppend tests if block could be appended
func (bc *BlockChain) TryAppend(block *Block) error {
	bc.mu.Lock()
	defer bc.mu.Unlock()
	return bc.check(block)
}

func (bc *BlockChain) check(block *Block) error {
	last := bc.blocks[len(bc.blocks)-1]
	if block.Header.Number != last.Header.Number+1 {
		return fmt.Errorf("block number(%d) not valid, cannot connect to last(number=%d), block=%s",
			block.Header.Number, last.Header.Number, block)
	}
	if block.Header.ParentHash != last.Hash() {
		return fmt.Errorf("block(parentHash=%s) cannot be connected to last(%s), block=%s",
			block.Header.ParentHash.Hex()[:8]+"...", last.Hash().Hex()[:8]+"...", block)
	}
	if !block.Header.SatisfiesDifficulty() {
		return fmt.Errorf("block hash=%s does not satisfy difficulty=%d",
			block.Hash().Hex(), block.Header.Difficulty)
	}
	return nil
}

func (bc *BlockChain) Append(block *Block) error {
	bc.mu.Lock()
	defer bc.mu.Unlock()
	if err := bc.check(block); err != nil {
		return err
	}
	bc.blocks = append(bc.blocks, block)
	bc.blocksMap[block.Hash()] = block
	return nil
}

// Tree renders the chain from the latest block to the genesis.
func (bc *BlockChain) Tree() string {
	bc.mu.Lock()
	defer bc.mu.Unlock()
	root := gotree.New("chain")
	for i := len(bc.blocks) - 1; i >= 0; i-- {
		b := bc.blocks[i]
		node := root.Add(fmt.Sprintf("#%d %s", b.Header.Number, b.Hash().Hex()[:10]))
		for j, txn := range b.Transactions {
			status := "ok"
			if !b.Receipts[j].Succeeded() {
				status = "reverted: " + b.Receipts[j].RevertReason
			}
			node.Add(fmt.Sprintf("%s %s [%s]", txn.Hash().Hex()[:10], txn.Txn, status))
		}
	}
	return root.Print()
}

func (bc *BlockChain) String() string {
	bc.mu.Lock()
	defer bc.mu.Unlock()

	// from latest to oldest
	arrow := "↑\n|\n"
	ret := ""
	for i := len(bc.blocks) - 1; i >= 0; i-- {
		ret += bc.blocks[i].String()
		if i > 0 {
			ret += arrow
		}
	}
	return ret
}
