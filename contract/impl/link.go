package impl

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/math"
	"go.dedis.ch/lottery/contract"
)

// LinkTotalSupply is minted to the deployer of a LinkToken.
var LinkTotalSupply = new(big.Int).Mul(big.NewInt(1_000_000_000), math.BigPow(10, 18))

// LinkTokenCode is an ERC677 token: ERC20 plus transferAndCall, which
// notifies the receiving contract through onTokenTransfer.
func LinkTokenCode() *contract.Code {
	return contract.NewCode(LinkTokenName, linkConstructor,
		getter("name", func(s *contract.Storage) (interface{}, error) { return "ChainLink Token", nil }),
		getter("symbol", func(s *contract.Storage) (interface{}, error) { return "LINK", nil }),
		getter("decimals", func(s *contract.Storage) (interface{}, error) { return uint8(18), nil }),
		getter("totalSupply", func(s *contract.Storage) (interface{}, error) { return s.Big("totalSupply") }),
		view("balanceOf", linkBalanceOf),
		view("allowance", linkAllowance),
		tx("transfer", linkTransfer),
		tx("approve", linkApprove),
		tx("transferFrom", linkTransferFrom),
		tx("transferAndCall", linkTransferAndCall),
	)
}

func linkConstructor(ctx *contract.Context, args contract.Args) error {
	s := ctx.Storage()
	if err := s.SetBig("totalSupply", LinkTotalSupply); err != nil {
		return err
	}
	if err := s.SetBig(addrKey("balance", ctx.Caller()), LinkTotalSupply); err != nil {
		return err
	}
	return ctx.Emit("Transfer", map[string]interface{}{
		"from": common.Address{}, "to": ctx.Caller(), "value": LinkTotalSupply,
	})
}

// balanceOf(address owner)
func linkBalanceOf(ctx *contract.Context, args contract.Args) (contract.Values, error) {
	owner, err := args.Address(0)
	if err != nil {
		return nil, err
	}
	balance, err := ctx.Storage().Big(addrKey("balance", owner))
	if err != nil {
		return nil, err
	}
	return contract.Values{balance}, nil
}

// allowance(address owner, address spender)
func linkAllowance(ctx *contract.Context, args contract.Args) (contract.Values, error) {
	owner, err := args.Address(0)
	if err != nil {
		return nil, err
	}
	spender, err := args.Address(1)
	if err != nil {
		return nil, err
	}
	allowance, err := ctx.Storage().Big(allowanceKey(owner, spender))
	if err != nil {
		return nil, err
	}
	return contract.Values{allowance}, nil
}

func allowanceKey(owner, spender common.Address) string {
	return "allowance." + owner.Hex() + "." + spender.Hex()
}

func moveTokens(ctx *contract.Context, from, to common.Address, value *big.Int) error {
	if value.Sign() < 0 {
		return contract.Revert("ERC20: negative amount")
	}
	s := ctx.Storage()
	fromBalance, err := s.Big(addrKey("balance", from))
	if err != nil {
		return err
	}
	if fromBalance.Cmp(value) < 0 {
		return contract.Revert("ERC20: transfer amount exceeds balance")
	}
	if err := s.SetBig(addrKey("balance", from), fromBalance.Sub(fromBalance, value)); err != nil {
		return err
	}
	toBalance, err := s.Big(addrKey("balance", to))
	if err != nil {
		return err
	}
	if err := s.SetBig(addrKey("balance", to), toBalance.Add(toBalance, value)); err != nil {
		return err
	}
	return ctx.Emit("Transfer", map[string]interface{}{"from": from, "to": to, "value": value})
}

func recipientAndValue(args contract.Args) (common.Address, *big.Int, error) {
	to, err := args.Address(0)
	if err != nil {
		return common.Address{}, nil, err
	}
	value, err := args.Big(1)
	if err != nil {
		return common.Address{}, nil, err
	}
	return to, value, nil
}

// transfer(address to, uint256 value) returns (bool)
func linkTransfer(ctx *contract.Context, args contract.Args) (contract.Values, error) {
	to, value, err := recipientAndValue(args)
	if err != nil {
		return nil, err
	}
	if err := moveTokens(ctx, ctx.Caller(), to, value); err != nil {
		return nil, err
	}
	return contract.Values{true}, nil
}

// approve(address spender, uint256 value) returns (bool)
func linkApprove(ctx *contract.Context, args contract.Args) (contract.Values, error) {
	spender, value, err := recipientAndValue(args)
	if err != nil {
		return nil, err
	}
	if err := ctx.Storage().SetBig(allowanceKey(ctx.Caller(), spender), value); err != nil {
		return nil, err
	}
	err = ctx.Emit("Approval", map[string]interface{}{"owner": ctx.Caller(), "spender": spender, "value": value})
	if err != nil {
		return nil, err
	}
	return contract.Values{true}, nil
}

// transferFrom(address from, address to, uint256 value) returns (bool)
func linkTransferFrom(ctx *contract.Context, args contract.Args) (contract.Values, error) {
	from, err := args.Address(0)
	if err != nil {
		return nil, err
	}
	to, value, err := recipientAndValue(args.From(1))
	if err != nil {
		return nil, err
	}
	key := allowanceKey(from, ctx.Caller())
	allowance, err := ctx.Storage().Big(key)
	if err != nil {
		return nil, err
	}
	if allowance.Cmp(value) < 0 {
		return nil, contract.Revert("ERC20: insufficient allowance")
	}
	if err := ctx.Storage().SetBig(key, allowance.Sub(allowance, value)); err != nil {
		return nil, err
	}
	if err := moveTokens(ctx, from, to, value); err != nil {
		return nil, err
	}
	return contract.Values{true}, nil
}

// transferAndCall(address to, uint256 value, data...) returns (bool)
func linkTransferAndCall(ctx *contract.Context, args contract.Args) (contract.Values, error) {
	to, value, err := recipientAndValue(args)
	if err != nil {
		return nil, err
	}
	if err := moveTokens(ctx, ctx.Caller(), to, value); err != nil {
		return nil, err
	}
	if ctx.IsContract(to) {
		callArgs := append([]interface{}{ctx.Caller(), value}, args.From(2)...)
		if _, err := ctx.Call(to, "onTokenTransfer", nil, callArgs...); err != nil {
			return nil, err
		}
	}
	return contract.Values{true}, nil
}
