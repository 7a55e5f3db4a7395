package miner

import (
	"errors"
	"fmt"

	"go.dedis.ch/lottery/blockchain/account"
	"go.dedis.ch/lottery/blockchain/storage"
	"go.dedis.ch/lottery/blockchain/transaction"
)

var (
	ErrNonceMismatch     = errors.New("nonce mismatch")
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrMissingCode       = errors.New("creation without code")
)

// Q: what if a transaction is stale? A: nonce field will handle it
func (m *Miner) verifyTxn(txn *transaction.SignedTransaction, worldState storage.KV) error {
	err := m.doVerifyTxn(txn, worldState)
	if err != nil {
		return fmt.Errorf("verify error: %w", err)
	}
	return nil
}

func (m *Miner) doVerifyTxn(txn *transaction.SignedTransaction, worldState storage.KV) error {
	// 1. verify signature and sender
	addr, err := txn.Sender()
	if err != nil {
		return err
	}

	// 2. verify nonce
	accountState, err := account.RetrieveState(addr, worldState)
	if err != nil {
		return fmt.Errorf("%w: addr=%s not in world state", ErrInsufficientFunds, addr.Hex())
	}
	if txn.Txn.Nonce != accountState.Nonce {
		return fmt.Errorf("%w: txn.nonce=%d, account nonce=%d", ErrNonceMismatch, txn.Txn.Nonce, accountState.Nonce)
	}

	// 3. check if account's balance is enough to cover the transaction
	if txn.Txn.Value != nil && accountState.Balance.Cmp(txn.Txn.Value) < 0 {
		return fmt.Errorf("%w: account balance=%s, cannot cover value=%s",
			ErrInsufficientFunds, accountState.Balance, txn.Txn.Value)
	}

	if txn.Txn.IsCreate() && txn.Txn.Code == "" {
		return ErrMissingCode
	}
	return nil
}
