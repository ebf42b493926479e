package syncswap

import (
	"math/big"
	"strings"
	"sync"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
)

const routerABIJSON = `[
  {
    "inputs": [],
    "name": "wETH",
    "outputs": [{"internalType": "address", "name": "", "type": "address"}],
    "stateMutability": "view",
    "type": "function"
  },
  {
    "inputs": [
      {
        "components": [
          {
            "components": [
              {"internalType": "address", "name": "pool", "type": "address"},
              {"internalType": "bytes", "name": "data", "type": "bytes"},
              {"internalType": "address", "name": "callback", "type": "address"},
              {"internalType": "bytes", "name": "callbackData", "type": "bytes"}
            ],
            "internalType": "struct IRouter.SwapStep[]",
            "name": "steps",
            "type": "tuple[]"
          },
          {"internalType": "address", "name": "tokenIn", "type": "address"},
          {"internalType": "uint256", "name": "amountIn", "type": "uint256"}
        ],
        "internalType": "struct IRouter.SwapPath[]",
        "name": "paths",
        "type": "tuple[]"
      },
      {"internalType": "uint256", "name": "amountOutMin", "type": "uint256"},
      {"internalType": "uint256", "name": "deadline", "type": "uint256"}
    ],
    "name": "swap",
    "outputs": [
      {
        "components": [
          {"internalType": "address", "name": "token", "type": "address"},
          {"internalType": "uint256", "name": "amount", "type": "uint256"}
        ],
        "internalType": "struct IPool.TokenAmount",
        "name": "amountOut",
        "type": "tuple"
      }
    ],
    "stateMutability": "payable",
    "type": "function"
  },
  {
    "inputs": [
      {"internalType": "address", "name": "pool", "type": "address"},
      {
        "components": [
          {"internalType": "address", "name": "token", "type": "address"},
          {"internalType": "uint256", "name": "amount", "type": "uint256"}
        ],
        "internalType": "struct IRouter.TokenInput[]",
        "name": "inputs",
        "type": "tuple[]"
      },
      {"internalType": "bytes", "name": "data", "type": "bytes"},
      {"internalType": "uint256", "name": "minLiquidity", "type": "uint256"},
      {"internalType": "address", "name": "callback", "type": "address"},
      {"internalType": "bytes", "name": "callbackData", "type": "bytes"}
    ],
    "name": "addLiquidity2",
    "outputs": [{"internalType": "uint256", "name": "liquidity", "type": "uint256"}],
    "stateMutability": "payable",
    "type": "function"
  },
  {
    "inputs": [
      {"internalType": "address", "name": "pool", "type": "address"},
      {"internalType": "uint256", "name": "liquidity", "type": "uint256"},
      {"internalType": "bytes", "name": "data", "type": "bytes"},
      {"internalType": "uint256", "name": "minAmount", "type": "uint256"},
      {"internalType": "address", "name": "callback", "type": "address"},
      {"internalType": "bytes", "name": "callbackData", "type": "bytes"}
    ],
    "name": "burnLiquiditySingle",
    "outputs": [
      {
        "components": [
          {"internalType": "address", "name": "token", "type": "address"},
          {"internalType": "uint256", "name": "amount", "type": "uint256"}
        ],
        "internalType": "struct IPool.TokenAmount",
        "name": "amountOut",
        "type": "tuple"
      }
    ],
    "stateMutability": "nonpayable",
    "type": "function"
  }
]`

const factoryABIJSON = `[
  {
    "inputs": [
      {"internalType": "address", "name": "tokenA", "type": "address"},
      {"internalType": "address", "name": "tokenB", "type": "address"}
    ],
    "name": "getPool",
    "outputs": [{"internalType": "address", "name": "pool", "type": "address"}],
    "stateMutability": "view",
    "type": "function"
  }
]`

const poolABIJSON = `[
  {
    "inputs": [],
    "name": "getReserves",
    "outputs": [
      {"internalType": "uint256", "name": "_reserve0", "type": "uint256"},
      {"internalType": "uint256", "name": "_reserve1", "type": "uint256"}
    ],
    "stateMutability": "view",
    "type": "function"
  }
]`

var (
	routerABI      abi.ABI
	routerABIOnce  sync.Once
	routerABIErr   error
	factoryABI     abi.ABI
	factoryABIOnce sync.Once
	factoryABIErr  error
	poolABI        abi.ABI
	poolABIOnce    sync.Once
	poolABIErr     error
)

func routerABIInstance() (abi.ABI, error) {
	routerABIOnce.Do(func() {
		routerABI, routerABIErr = abi.JSON(strings.NewReader(routerABIJSON))
	})
	return routerABI, routerABIErr
}

func factoryABIInstance() (abi.ABI, error) {
	factoryABIOnce.Do(func() {
		factoryABI, factoryABIErr = abi.JSON(strings.NewReader(factoryABIJSON))
	})
	return factoryABI, factoryABIErr
}

func poolABIInstance() (abi.ABI, error) {
	poolABIOnce.Do(func() {
		poolABI, poolABIErr = abi.JSON(strings.NewReader(poolABIJSON))
	})
	return poolABI, poolABIErr
}

// swapStep mirrors the router's SwapStep tuple.
type swapStep struct {
	Pool         common.Address
	Data         []byte
	Callback     common.Address
	CallbackData []byte
}

// swapPath mirrors the router's SwapPath tuple.
type swapPath struct {
	Steps    []swapStep
	TokenIn  common.Address
	AmountIn *big.Int
}

// tokenInput mirrors the router's TokenInput tuple.
type tokenInput struct {
	Token  common.Address
	Amount *big.Int
}
