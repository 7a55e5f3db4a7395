package miner

import (
	"fmt"

	"github.com/ethereum/go-ethereum/crypto"
	"go.dedis.ch/lottery/blockchain/account"
	"go.dedis.ch/lottery/blockchain/storage"
	"go.dedis.ch/lottery/blockchain/transaction"
	"go.dedis.ch/lottery/contract"
)

// executeTxn applies a verified txn. The sender nonce is consumed even when
// execution reverts; a revert only shows in the receipt.
func (m *Miner) executeTxn(txn *transaction.SignedTransaction, worldState storage.KV,
	blockCtx contract.BlockContext) (storage.KV, *transaction.Receipt, error) {
	t := txn.Txn
	receipt := &transaction.Receipt{
		TxHash:      txn.Hash(),
		BlockNumber: blockCtx.Number,
		From:        t.From,
		To:          t.To,
		Status:      transaction.ReceiptStatusSuccessful,
	}

	fromState, err := account.RetrieveState(t.From, worldState)
	if err != nil {
		return nil, nil, fmt.Errorf("execute error: %w", err)
	}
	fromState.Nonce++

	machine := contract.NewMachine(m.registry, worldState, m.kvFactory, blockCtx, t.From)
	if t.IsCreate() {
		addr := crypto.CreateAddress(t.From, t.Nonce)
		err = machine.Create(t.From, addr, t.Code, t.Value, t.Args)
		if err == nil {
			receipt.ContractAddress = addr
		}
	} else {
		var ret contract.Values
		ret, err = machine.Call(t.From, *t.To, t.Value, t.Method, t.Args)
		receipt.ReturnValues = ret
	}
	if err != nil {
		receipt.Status = transaction.ReceiptStatusFailed
		receipt.RevertReason = contract.Reason(err)
		m.logger.Warn().Msgf("txn %s reverted: %v", txn.Hash().Hex()[:10], err)
	}

	receipt.Logs = machine.Logs()
	for _, l := range receipt.Logs {
		l.TxHash = receipt.TxHash
	}
	return machine.World(), receipt, nil
}
