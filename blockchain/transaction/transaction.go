package transaction

import (
	"bytes"
	"crypto/ecdsa"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

var ErrInvalidSignature = errors.New("invalid signature")

// Transaction either creates a contract (To == nil, Code names the code to
// run), calls Method on a contract, or moves Value between accounts.
type Transaction struct {
	Nonce  uint64
	From   common.Address
	To     *common.Address `json:",omitempty"`
	Value  *big.Int
	Code   string        `json:",omitempty"`
	Method string        `json:",omitempty"`
	Args   []interface{} `json:",omitempty"`
}

func (t *Transaction) IsCreate() bool {
	return t.To == nil
}

// Digest is the keccak256 of the JSON encoding, the signed payload.
func (t *Transaction) Digest() ([]byte, error) {
	raw, err := json.Marshal(t)
	if err != nil {
		return nil, fmt.Errorf("cannot encode txn: %w", err)
	}
	return crypto.Keccak256(raw), nil
}

func (t Transaction) String() string {
	to := "create:" + t.Code
	if t.To != nil {
		to = t.To.Hex()
		if t.Method != "" {
			to += "." + t.Method
		}
	}
	return fmt.Sprintf("{nonce=%d, from=%s, to=%s, value=%s}", t.Nonce, t.From.Hex(), to, t.Value)
}

type SignedTransaction struct {
	Txn       Transaction
	Digest    []byte
	Signature []byte
}

// Sign signs txn with key. The key must belong to txn.From.
func Sign(txn Transaction, key *ecdsa.PrivateKey) (*SignedTransaction, error) {
	if txn.Value == nil {
		txn.Value = new(big.Int)
	}
	if crypto.PubkeyToAddress(key.PublicKey) != txn.From {
		return nil, fmt.Errorf("key does not match txn.from=%s", txn.From.Hex())
	}
	digest, err := txn.Digest()
	if err != nil {
		return nil, err
	}
	sig, err := crypto.Sign(digest, key)
	if err != nil {
		return nil, fmt.Errorf("cannot sign txn: %w", err)
	}
	return &SignedTransaction{Txn: txn, Digest: digest, Signature: sig}, nil
}

func (s *SignedTransaction) Hash() common.Hash {
	return crypto.Keccak256Hash(s.Digest, s.Signature)
}

// Sender checks the signature against the transaction content and returns
// the signer, which must be Txn.From.
func (s *SignedTransaction) Sender() (common.Address, error) {
	digest, err := s.Txn.Digest()
	if err != nil {
		return common.Address{}, err
	}
	if !bytes.Equal(digest, s.Digest) {
		return common.Address{}, fmt.Errorf("%w: digest does not match txn content", ErrInvalidSignature)
	}
	if len(s.Signature) != crypto.SignatureLength {
		return common.Address{}, fmt.Errorf("%w: bad length %d", ErrInvalidSignature, len(s.Signature))
	}
	publicKey, err := crypto.Ecrecover(s.Digest, s.Signature)
	if err != nil {
		return common.Address{}, fmt.Errorf("%w: %v", ErrInvalidSignature, err)
	}
	if !crypto.VerifySignature(publicKey, s.Digest, s.Signature[:len(s.Signature)-1]) {
		return common.Address{}, ErrInvalidSignature
	}
	key, err := crypto.UnmarshalPubkey(publicKey)
	if err != nil {
		return common.Address{}, fmt.Errorf("%w: %v", ErrInvalidSignature, err)
	}
	addr := crypto.PubkeyToAddress(*key)
	if addr != s.Txn.From {
		return common.Address{}, fmt.Errorf("%w: txn.from=%s not consistent with signer=%s",
			ErrInvalidSignature, s.Txn.From.Hex(), addr.Hex())
	}
	return addr, nil
}

func (s *SignedTransaction) String() string {
	return fmt.Sprintf("{hash=%s, txn=%s}", s.Hash().Hex()[:10], s.Txn)
}
