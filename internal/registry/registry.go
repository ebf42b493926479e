package registry

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"
)

// Network identifies a chain and where to reach it.
type Network struct {
	Name        string
	RPCURL      string
	ExplorerURL string
}

// Token is an ERC20 token deployed on a specific network. Native is true for
// the chain coin sentinel, which has no contract of its own and is wrapped
// on demand.
type Token struct {
	Symbol   string
	Address  common.Address
	Decimals uint8
	Native   bool
}

// ContractID names a protocol contract role.
type ContractID string

const (
	SyncSwapPoolFactory    ContractID = "syncswap_pool_factory"
	SyncSwapRouter         ContractID = "syncswap_router"
	IzumiLiquidityManager  ContractID = "izumi_liquidity_manager"
	IzumiSwap              ContractID = "izumi_swap"
)

// Network names.
const (
	ZkEra        = "zkEra"
	ZkEraTestnet = "zkEraTestnet"
)

// NativeSymbol is the chain coin pseudo-token, distinct from wrapped native.
const NativeSymbol = "ETH"

type tokenKey struct {
	network string
	symbol  string
}

type contractKey struct {
	network string
	id      ContractID
}

// Registry is an immutable lookup of networks, tokens, and protocol contract
// addresses. It is constructed once at process start and passed into each
// component.
type Registry struct {
	networks  map[string]Network
	tokens    map[tokenKey]Token
	contracts map[contractKey]common.Address
}

// Default returns the registry for the supported rollup networks.
func Default() *Registry {
	r := &Registry{
		networks:  make(map[string]Network),
		tokens:    make(map[tokenKey]Token),
		contracts: make(map[contractKey]common.Address),
	}

	r.addNetwork(Network{
		Name:        ZkEra,
		RPCURL:      "https://mainnet.era.zksync.io",
		ExplorerURL: "https://explorer.zksync.io/tx/",
	})
	r.addNetwork(Network{
		Name:        ZkEraTestnet,
		RPCURL:      "https://testnet.era.zksync.dev",
		ExplorerURL: "https://goerli.explorer.zksync.io/tx/",
	})

	r.addToken(ZkEra, Token{Symbol: "USDC", Address: common.HexToAddress("0x3355df6D4c9C3035724Fd0e3914dE96A5a83aaf4"), Decimals: 6})
	r.addToken(ZkEra, Token{Symbol: "USDT", Address: common.HexToAddress("0x493257fD37EDB34451f62EDf8D2a0C418852bA4C"), Decimals: 6})
	r.addToken(ZkEra, Token{Symbol: "WBTC", Address: common.HexToAddress("0xBBeB516fb02a01611cBBE0453Fe3c580D7281011"), Decimals: 8})
	r.addToken(ZkEraTestnet, Token{Symbol: "USDC", Address: common.HexToAddress("0x0faF6df7054946141266420b43783387A78d82A9"), Decimals: 6})

	r.addContract(ZkEra, SyncSwapPoolFactory, "0xf2DAd89f2788a8CD54625C60b55cD3d2D0ACa7Cb")
	r.addContract(ZkEraTestnet, SyncSwapPoolFactory, "0xf2FD2bc2fBC12842aAb6FbB8b1159a6a83E72006")
	r.addContract(ZkEra, SyncSwapRouter, "0x2da10A1e27bF85cEdD8FFb1AbBe97e53391C0295")
	r.addContract(ZkEraTestnet, SyncSwapRouter, "0xB3b7fCbb8Db37bC6f572634299A58f51622A847e")
	r.addContract(ZkEra, IzumiLiquidityManager, "0x936c9A1B8f88BFDbd5066ad08e5d773BC82EB15F")
	r.addContract(ZkEraTestnet, IzumiLiquidityManager, "0x25727b360604E1e6B440c3B25aF368F54fc580B6")
	r.addContract(ZkEra, IzumiSwap, "0x9606eC131EeC0F84c95D82c9a63959F2331cF2aC")
	r.addContract(ZkEraTestnet, IzumiSwap, "0x3040EE148D09e5B92956a64CDC78b49f48C0cDdc")

	return r
}

func (r *Registry) addNetwork(n Network) {
	r.networks[n.Name] = n
}

func (r *Registry) addToken(network string, t Token) {
	r.tokens[tokenKey{network: network, symbol: t.Symbol}] = t
}

func (r *Registry) addContract(network string, id ContractID, address string) {
	r.contracts[contractKey{network: network, id: id}] = common.HexToAddress(address)
}

// Network looks up a network by name.
func (r *Registry) Network(name string) (Network, error) {
	n, ok := r.networks[name]
	if !ok {
		return Network{}, fmt.Errorf("unknown network %q", name)
	}
	return n, nil
}

// Token looks up a token by network and symbol. The native coin resolves to
// a sentinel token with no contract address.
func (r *Registry) Token(network, symbol string) (Token, error) {
	if IsNative(symbol) {
		return Token{Symbol: symbol, Native: true}, nil
	}
	t, ok := r.tokens[tokenKey{network: network, symbol: symbol}]
	if !ok {
		return Token{}, fmt.Errorf("unknown token %q on network %q", symbol, network)
	}
	return t, nil
}

// Contract looks up a protocol contract address on a network.
func (r *Registry) Contract(network string, id ContractID) (common.Address, error) {
	a, ok := r.contracts[contractKey{network: network, id: id}]
	if !ok {
		return common.Address{}, fmt.Errorf("no %s contract on network %q", id, network)
	}
	return a, nil
}

// IsNative reports whether the symbol names the chain coin rather than an
// ERC20 token.
func IsNative(symbol string) bool {
	return symbol == NativeSymbol
}
