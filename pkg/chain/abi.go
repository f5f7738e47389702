package chain

import (
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
)

const registryABIJSON = `[
	{"type":"function","name":"resolve","stateMutability":"view",
	 "inputs":[{"name":"elementHash","type":"bytes32"}],
	 "outputs":[{"name":"ledger","type":"address"},{"name":"tokenId","type":"uint256"},{"name":"requiresTokenId","type":"bool"}]}
]`

// Non-fungible collections follow ERC-721 Enumerable.
const collectionABIJSON = `[
	{"type":"function","name":"balanceOf","stateMutability":"view",
	 "inputs":[{"name":"owner","type":"address"}],
	 "outputs":[{"name":"","type":"uint256"}]},
	{"type":"function","name":"ownerOf","stateMutability":"view",
	 "inputs":[{"name":"tokenId","type":"uint256"}],
	 "outputs":[{"name":"","type":"address"}]},
	{"type":"function","name":"tokenOfOwnerByIndex","stateMutability":"view",
	 "inputs":[{"name":"owner","type":"address"},{"name":"index","type":"uint256"}],
	 "outputs":[{"name":"","type":"uint256"}]}
]`

// Fungible ledgers follow ERC-1155.
const multiTokenABIJSON = `[
	{"type":"function","name":"balanceOf","stateMutability":"view",
	 "inputs":[{"name":"account","type":"address"},{"name":"id","type":"uint256"}],
	 "outputs":[{"name":"","type":"uint256"}]}
]`

var (
	RegistryABI   = mustParseABI(registryABIJSON)
	CollectionABI = mustParseABI(collectionABIJSON)
	MultiTokenABI = mustParseABI(multiTokenABIJSON)
)

func mustParseABI(def string) abi.ABI {
	parsed, err := abi.JSON(strings.NewReader(def))
	if err != nil {
		panic("chain: invalid ABI definition: " + err.Error())
	}
	return parsed
}
