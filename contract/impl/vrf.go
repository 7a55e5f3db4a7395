package impl

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"go.dedis.ch/lottery/contract"
)

// VRFCoordinatorMockCode stands in for the Chainlink VRF coordinator on
// local networks. Requests are paid in LINK through transferAndCall and are
// answered by whoever calls callBackWithRandomness.
func VRFCoordinatorMockCode() *contract.Code {
	return contract.NewCode(VRFCoordinatorName, vrfConstructor,
		getter("LINK", func(s *contract.Storage) (interface{}, error) { return s.Address("link") }),
		tx("onTokenTransfer", vrfOnTokenTransfer),
		tx("callBackWithRandomness", vrfCallBackWithRandomness),
	)
}

// constructor(address link)
func vrfConstructor(ctx *contract.Context, args contract.Args) error {
	link, err := args.Address(0)
	if err != nil {
		return err
	}
	return ctx.Storage().SetAddress("link", link)
}

// onTokenTransfer(address sender, uint256 fee, bytes32 keyHash, uint256 seed)
func vrfOnTokenTransfer(ctx *contract.Context, args contract.Args) (contract.Values, error) {
	link, err := ctx.Storage().Address("link")
	if err != nil {
		return nil, err
	}
	if err := contract.Require(ctx.Caller() == link, "Must use LINK token"); err != nil {
		return nil, err
	}
	sender, err := args.Address(0)
	if err != nil {
		return nil, err
	}
	fee, err := args.Big(1)
	if err != nil {
		return nil, err
	}
	keyHash, err := args.Hash(2)
	if err != nil {
		return nil, err
	}
	seed, err := args.Big(3)
	if err != nil {
		return nil, err
	}
	return nil, ctx.Emit("RandomnessRequest", map[string]interface{}{
		"sender": sender, "keyHash": keyHash, "seed": seed, "fee": fee,
	})
}

// callBackWithRandomness(bytes32 requestId, uint256 randomness, address consumer)
func vrfCallBackWithRandomness(ctx *contract.Context, args contract.Args) (contract.Values, error) {
	requestID, err := args.Hash(0)
	if err != nil {
		return nil, err
	}
	randomness, err := args.Big(1)
	if err != nil {
		return nil, err
	}
	consumer, err := args.Address(2)
	if err != nil {
		return nil, err
	}
	if _, err := ctx.Call(consumer, "rawFulfillRandomness", nil, requestID, randomness); err != nil {
		return nil, err
	}
	return nil, nil
}

// MakeVRFInputSeed mixes the request parameters into the seed the
// coordinator proves randomness for.
func MakeVRFInputSeed(keyHash common.Hash, userSeed *big.Int, requester common.Address, nonce *big.Int) *big.Int {
	h := crypto.Keccak256(keyHash.Bytes(), common.BigToHash(userSeed).Bytes(),
		common.BytesToHash(requester.Bytes()).Bytes(), common.BigToHash(nonce).Bytes())
	return new(big.Int).SetBytes(h)
}

// MakeRequestID derives the id of a randomness request.
func MakeRequestID(keyHash common.Hash, vrfSeed *big.Int) common.Hash {
	return crypto.Keccak256Hash(keyHash.Bytes(), common.BigToHash(vrfSeed).Bytes())
}

// requestRandomness pays fee LINK to the coordinator and returns the id the
// coordinator will answer with. The consumer keeps one nonce per key hash.
func requestRandomness(ctx *contract.Context, link, coordinator common.Address,
	keyHash common.Hash, fee *big.Int) (common.Hash, error) {
	userSeed := new(big.Int)
	if _, err := ctx.Call(link, "transferAndCall", nil, coordinator, fee, keyHash, userSeed); err != nil {
		return common.Hash{}, err
	}
	s := ctx.Storage()
	nonceKey := "vrfNonce." + keyHash.Hex()
	nonce, err := s.Big(nonceKey)
	if err != nil {
		return common.Hash{}, err
	}
	vrfSeed := MakeVRFInputSeed(keyHash, userSeed, ctx.Self(), nonce)
	if err := s.SetBig(nonceKey, nonce.Add(nonce, big.NewInt(1))); err != nil {
		return common.Hash{}, err
	}
	return MakeRequestID(keyHash, vrfSeed), nil
}
