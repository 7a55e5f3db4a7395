package wallet

import (
	"crypto/ecdsa"
	"encoding/hex"
	"errors"
	"fmt"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/rs/zerolog"
	"go.dedis.ch/lottery/blockchain/transaction"
	"go.dedis.ch/lottery/logging"
)

var ErrUnknownAccount = errors.New("unknown account")

type PrivateKey struct {
	*ecdsa.PrivateKey
	bytes []byte
}

func (pri *PrivateKey) String() string {
	return hex.EncodeToString(pri.bytes)[:8] + "..."
}

type PublicKey struct {
	*ecdsa.PublicKey
	bytes []byte
}

func (pub *PublicKey) String() string {
	return hex.EncodeToString(pub.bytes)[:8] + "..."
}

type key struct {
	publicKey  PublicKey
	privateKey PrivateKey
}

// Wallet holds the keys of the local accounts and signs their transactions
type Wallet struct {
	logger zerolog.Logger

	mu    sync.RWMutex
	keys  map[common.Address]*key
	order []common.Address // import order, accounts[0] first
}

func NewWallet(name string) *Wallet {
	w := &Wallet{keys: make(map[common.Address]*key)}
	w.logger = logging.RootLogger.With().Str("Wallet", name).Logger()
	return w
}

// DevKey derives the i-th deterministic development key from seed.
func DevKey(seed string, i int) (*ecdsa.PrivateKey, error) {
	raw := crypto.Keccak256([]byte(fmt.Sprintf("%s/%d", seed, i)))
	return crypto.ToECDSA(raw)
}

// NewDevWallet holds n deterministic accounts derived from seed.
func NewDevWallet(seed string, n int) (*Wallet, error) {
	w := NewWallet("dev")
	for i := 0; i < n; i++ {
		k, err := DevKey(seed, i)
		if err != nil {
			return nil, fmt.Errorf("cannot derive dev key %d: %w", i, err)
		}
		w.Import(k)
	}
	return w, nil
}

// NewAccount generates a fresh key.
func (w *Wallet) NewAccount() (common.Address, error) {
	k, err := crypto.GenerateKey()
	if err != nil {
		return common.Address{}, err
	}
	return w.Import(k), nil
}

// Import adds key and returns its address. Importing twice is a no-op.
func (w *Wallet) Import(privateKey *ecdsa.PrivateKey) common.Address {
	addr := crypto.PubkeyToAddress(privateKey.PublicKey)
	w.mu.Lock()
	defer w.mu.Unlock()
	if _, ok := w.keys[addr]; ok {
		return addr
	}
	k := &key{
		publicKey:  PublicKey{&privateKey.PublicKey, crypto.FromECDSAPub(&privateKey.PublicKey)},
		privateKey: PrivateKey{privateKey, crypto.FromECDSA(privateKey)},
	}
	w.keys[addr] = k
	w.order = append(w.order, addr)
	w.logger.Debug().Msgf("imported account %s, pubKey=%s", addr.Hex(), k.publicKey.String())
	return addr
}

// ImportHex imports a hex encoded private key, with or without 0x prefix.
func (w *Wallet) ImportHex(hexKey string) (common.Address, error) {
	if len(hexKey) > 1 && hexKey[:2] == "0x" {
		hexKey = hexKey[2:]
	}
	privateKey, err := crypto.HexToECDSA(hexKey)
	if err != nil {
		return common.Address{}, fmt.Errorf("invalid private key: %w", err)
	}
	return w.Import(privateKey), nil
}

// Accounts lists the addresses in import order.
func (w *Wallet) Accounts() []common.Address {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return append([]common.Address(nil), w.order...)
}

func (w *Wallet) Has(addr common.Address) bool {
	w.mu.RLock()
	defer w.mu.RUnlock()
	_, ok := w.keys[addr]
	return ok
}

// Sign signs txn with the key of txn.From.
func (w *Wallet) Sign(txn transaction.Transaction) (*transaction.SignedTransaction, error) {
	w.mu.RLock()
	k, ok := w.keys[txn.From]
	w.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownAccount, txn.From.Hex())
	}
	signed, err := transaction.Sign(txn, k.privateKey.PrivateKey)
	if err != nil {
		return nil, err
	}
	w.logger.Debug().Msgf("signed %s", signed)
	return signed, nil
}
