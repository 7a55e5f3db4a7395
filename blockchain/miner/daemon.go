package miner

import (
	"fmt"

	"go.dedis.ch/lottery/blockchain/block"
	"go.dedis.ch/lottery/blockchain/transaction"
	"go.dedis.ch/lottery/contract"
)

// daemons
func (m *Miner) verifyAndExecuteTxnd() {
	defer m.wg.Done()
	for {
		select {
		case <-m.quit:
			return
		case req := <-m.txnCh:
			receipt, err := m.processTxn(req.txn)
			req.reply <- result{receipt: receipt, err: err}
		}
	}
}

// processTxn verifies txn against the latest world state, executes it and
// appends the sealed block to the chain
func (m *Miner) processTxn(txn *transaction.SignedTransaction) (*transaction.Receipt, error) {
	worldState, parent := m.chain.LatestWorldState()
	if err := m.verifyTxn(txn, worldState); err != nil {
		return nil, err
	}

	now := uint64(m.clock().Unix())
	if now < parent.Header.Time {
		now = parent.Header.Time
	}
	blockCtx := contract.BlockContext{
		Number:   parent.Header.Number + 1,
		Time:     now,
		Coinbase: m.beneficiary,
	}
	worldState, receipt, err := m.executeTxn(txn, worldState, blockCtx)
	if err != nil {
		return nil, err
	}

	bb := block.NewBlockBuilder(m.kvFactory).
		SetParentHash(parent.Hash()).
		SetNumber(blockCtx.Number).
		SetTime(blockCtx.Time).
		SetDifficulty(m.difficulty).
		SetBeneficiary(m.beneficiary).
		SetWorldState(worldState).
		AddTxn(txn, receipt)
	b := m.blockPoW(bb)

	receipt.BlockHash = b.Hash()
	if err := m.chain.Append(b); err != nil {
		return nil, fmt.Errorf("cannot append mined block: %w", err)
	}
	if m.chainDB != nil {
		if err := m.persist(b); err != nil {
			m.logger.Err(err).Msg("cannot persist block")
		}
	}

	m.logger.Info().Msgf("mined block #%d %s, txn=%s status=%d",
		b.Header.Number, b.Hash().Hex()[:10], txn.Hash().Hex()[:10], receipt.Status)
	return receipt, nil
}

func (m *Miner) persist(b *block.Block) error {
	if err := m.chainDB.PutBlock(b.Header.Number, b.Hash().Hex(), b.Record()); err != nil {
		return err
	}
	for _, r := range b.Receipts {
		if err := m.chainDB.PutReceipt(r.TxHash.Hex(), r); err != nil {
			return err
		}
	}
	return nil
}
