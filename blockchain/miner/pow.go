package miner

import (
	"math/rand"

	"go.dedis.ch/lottery/blockchain/block"
)

// blockPoW searches a nonce so that the block hash has the required prefix
// of zero bytes
func (m *Miner) blockPoW(bb *block.BlockBuilder) *block.Block {
	b := bb.SetNonce(rand.Uint64()).Build()
	for !b.Header.SatisfiesDifficulty() {
		b.Header.Nonce++
	}
	return b
}
