package account

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

// NewAddressFromPublicKey derives the account address from an uncompressed
// secp256k1 public key.
func NewAddressFromPublicKey(pub []byte) (common.Address, error) {
	key, err := crypto.UnmarshalPubkey(pub)
	if err != nil {
		return common.Address{}, fmt.Errorf("invalid public key: %w", err)
	}
	return crypto.PubkeyToAddress(*key), nil
}

// Key is the world state key of addr.
func Key(addr common.Address) string {
	return addr.Hex()
}
