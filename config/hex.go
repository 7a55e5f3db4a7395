package config

import "github.com/ethereum/go-ethereum/common/hexutil"

func decodeHex(s string) ([]byte, error) {
	if len(s) < 2 || (s[:2] != "0x" && s[:2] != "0X") {
		s = "0x" + s
	}
	return hexutil.Decode(s)
}
