package izumi

import (
	"math/big"
	"strings"
	"sync"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
)

const liquidityManagerABIJSON = `[
  {
    "inputs": [],
    "name": "WETH9",
    "outputs": [{"internalType": "address", "name": "", "type": "address"}],
    "stateMutability": "view",
    "type": "function"
  },
  {
    "inputs": [
      {"internalType": "address", "name": "tokenX", "type": "address"},
      {"internalType": "address", "name": "tokenY", "type": "address"},
      {"internalType": "uint24", "name": "fee", "type": "uint24"}
    ],
    "name": "pool",
    "outputs": [{"internalType": "address", "name": "", "type": "address"}],
    "stateMutability": "view",
    "type": "function"
  },
  {
    "inputs": [{"internalType": "address", "name": "", "type": "address"}],
    "name": "poolIds",
    "outputs": [{"internalType": "uint128", "name": "", "type": "uint128"}],
    "stateMutability": "view",
    "type": "function"
  },
  {
    "inputs": [{"internalType": "address", "name": "owner", "type": "address"}],
    "name": "balanceOf",
    "outputs": [{"internalType": "uint256", "name": "", "type": "uint256"}],
    "stateMutability": "view",
    "type": "function"
  },
  {
    "inputs": [
      {"internalType": "address", "name": "owner", "type": "address"},
      {"internalType": "uint256", "name": "index", "type": "uint256"}
    ],
    "name": "tokenOfOwnerByIndex",
    "outputs": [{"internalType": "uint256", "name": "", "type": "uint256"}],
    "stateMutability": "view",
    "type": "function"
  },
  {
    "inputs": [{"internalType": "uint256", "name": "", "type": "uint256"}],
    "name": "liquidities",
    "outputs": [
      {"internalType": "int24", "name": "leftPt", "type": "int24"},
      {"internalType": "int24", "name": "rightPt", "type": "int24"},
      {"internalType": "uint128", "name": "liquidity", "type": "uint128"},
      {"internalType": "uint256", "name": "lastFeeScaleX_128", "type": "uint256"},
      {"internalType": "uint256", "name": "lastFeeScaleY_128", "type": "uint256"},
      {"internalType": "uint256", "name": "remainTokenX", "type": "uint256"},
      {"internalType": "uint256", "name": "remainTokenY", "type": "uint256"},
      {"internalType": "uint128", "name": "poolId", "type": "uint128"}
    ],
    "stateMutability": "view",
    "type": "function"
  },
  {
    "inputs": [
      {
        "components": [
          {"internalType": "address", "name": "miner", "type": "address"},
          {"internalType": "address", "name": "tokenX", "type": "address"},
          {"internalType": "address", "name": "tokenY", "type": "address"},
          {"internalType": "uint24", "name": "fee", "type": "uint24"},
          {"internalType": "int24", "name": "pl", "type": "int24"},
          {"internalType": "int24", "name": "pr", "type": "int24"},
          {"internalType": "uint128", "name": "xLim", "type": "uint128"},
          {"internalType": "uint128", "name": "yLim", "type": "uint128"},
          {"internalType": "uint128", "name": "amountXMin", "type": "uint128"},
          {"internalType": "uint128", "name": "amountYMin", "type": "uint128"},
          {"internalType": "uint256", "name": "deadline", "type": "uint256"}
        ],
        "internalType": "struct ILiquidityManager.MintParam",
        "name": "mintParam",
        "type": "tuple"
      }
    ],
    "name": "mint",
    "outputs": [
      {"internalType": "uint256", "name": "lid", "type": "uint256"},
      {"internalType": "uint128", "name": "liquidity", "type": "uint128"},
      {"internalType": "uint256", "name": "amountX", "type": "uint256"},
      {"internalType": "uint256", "name": "amountY", "type": "uint256"}
    ],
    "stateMutability": "payable",
    "type": "function"
  },
  {
    "inputs": [
      {"internalType": "uint256", "name": "lid", "type": "uint256"},
      {"internalType": "uint128", "name": "liquidDelta", "type": "uint128"},
      {"internalType": "uint256", "name": "amountXMin", "type": "uint256"},
      {"internalType": "uint256", "name": "amountYMin", "type": "uint256"},
      {"internalType": "uint256", "name": "deadline", "type": "uint256"}
    ],
    "name": "decLiquidity",
    "outputs": [
      {"internalType": "uint256", "name": "amountX", "type": "uint256"},
      {"internalType": "uint256", "name": "amountY", "type": "uint256"}
    ],
    "stateMutability": "nonpayable",
    "type": "function"
  },
  {
    "inputs": [
      {"internalType": "address", "name": "recipient", "type": "address"},
      {"internalType": "uint256", "name": "lid", "type": "uint256"},
      {"internalType": "uint128", "name": "amountXLim", "type": "uint128"},
      {"internalType": "uint128", "name": "amountYLim", "type": "uint128"}
    ],
    "name": "collect",
    "outputs": [
      {"internalType": "uint256", "name": "amountX", "type": "uint256"},
      {"internalType": "uint256", "name": "amountY", "type": "uint256"}
    ],
    "stateMutability": "payable",
    "type": "function"
  },
  {
    "inputs": [{"internalType": "uint256", "name": "lid", "type": "uint256"}],
    "name": "burn",
    "outputs": [{"internalType": "bool", "name": "success", "type": "bool"}],
    "stateMutability": "nonpayable",
    "type": "function"
  },
  {
    "inputs": [
      {"internalType": "uint256", "name": "minAmount", "type": "uint256"},
      {"internalType": "address", "name": "recipient", "type": "address"}
    ],
    "name": "unwrapWETH9",
    "outputs": [],
    "stateMutability": "payable",
    "type": "function"
  },
  {
    "inputs": [
      {"internalType": "address", "name": "token", "type": "address"},
      {"internalType": "uint256", "name": "minAmount", "type": "uint256"},
      {"internalType": "address", "name": "recipient", "type": "address"}
    ],
    "name": "sweepToken",
    "outputs": [],
    "stateMutability": "payable",
    "type": "function"
  },
  {
    "inputs": [],
    "name": "refundETH",
    "outputs": [],
    "stateMutability": "payable",
    "type": "function"
  },
  {
    "inputs": [{"internalType": "bytes[]", "name": "data", "type": "bytes[]"}],
    "name": "multicall",
    "outputs": [{"internalType": "bytes[]", "name": "results", "type": "bytes[]"}],
    "stateMutability": "payable",
    "type": "function"
  }
]`

const poolABIJSON = `[
  {
    "inputs": [],
    "name": "state",
    "outputs": [
      {"internalType": "uint160", "name": "sqrtPrice_96", "type": "uint160"},
      {"internalType": "int24", "name": "currentPoint", "type": "int24"},
      {"internalType": "uint16", "name": "observationCurrentIndex", "type": "uint16"},
      {"internalType": "uint16", "name": "observationQueueLen", "type": "uint16"},
      {"internalType": "uint16", "name": "observationNextQueueLen", "type": "uint16"},
      {"internalType": "bool", "name": "locked", "type": "bool"},
      {"internalType": "uint128", "name": "liquidity", "type": "uint128"},
      {"internalType": "uint128", "name": "liquidityX", "type": "uint128"}
    ],
    "stateMutability": "view",
    "type": "function"
  },
  {
    "inputs": [],
    "name": "pointDelta",
    "outputs": [{"internalType": "int24", "name": "", "type": "int24"}],
    "stateMutability": "view",
    "type": "function"
  },
  {
    "inputs": [],
    "name": "leftMostPt",
    "outputs": [{"internalType": "int24", "name": "", "type": "int24"}],
    "stateMutability": "view",
    "type": "function"
  },
  {
    "inputs": [],
    "name": "rightMostPt",
    "outputs": [{"internalType": "int24", "name": "", "type": "int24"}],
    "stateMutability": "view",
    "type": "function"
  }
]`

const swapABIJSON = `[
  {
    "inputs": [
      {
        "components": [
          {"internalType": "address", "name": "tokenX", "type": "address"},
          {"internalType": "address", "name": "tokenY", "type": "address"},
          {"internalType": "uint24", "name": "fee", "type": "uint24"},
          {"internalType": "int24", "name": "boundaryPt", "type": "int24"},
          {"internalType": "address", "name": "recipient", "type": "address"},
          {"internalType": "uint128", "name": "amount", "type": "uint128"},
          {"internalType": "uint256", "name": "maxPayed", "type": "uint256"},
          {"internalType": "uint256", "name": "minAcquired", "type": "uint256"},
          {"internalType": "uint256", "name": "deadline", "type": "uint256"}
        ],
        "internalType": "struct ISwap.SwapParams",
        "name": "swapParams",
        "type": "tuple"
      }
    ],
    "name": "swapX2Y",
    "outputs": [
      {"internalType": "uint256", "name": "amountX", "type": "uint256"},
      {"internalType": "uint256", "name": "amountY", "type": "uint256"}
    ],
    "stateMutability": "payable",
    "type": "function"
  },
  {
    "inputs": [
      {
        "components": [
          {"internalType": "address", "name": "tokenX", "type": "address"},
          {"internalType": "address", "name": "tokenY", "type": "address"},
          {"internalType": "uint24", "name": "fee", "type": "uint24"},
          {"internalType": "int24", "name": "boundaryPt", "type": "int24"},
          {"internalType": "address", "name": "recipient", "type": "address"},
          {"internalType": "uint128", "name": "amount", "type": "uint128"},
          {"internalType": "uint256", "name": "maxPayed", "type": "uint256"},
          {"internalType": "uint256", "name": "minAcquired", "type": "uint256"},
          {"internalType": "uint256", "name": "deadline", "type": "uint256"}
        ],
        "internalType": "struct ISwap.SwapParams",
        "name": "swapParams",
        "type": "tuple"
      }
    ],
    "name": "swapY2X",
    "outputs": [
      {"internalType": "uint256", "name": "amountX", "type": "uint256"},
      {"internalType": "uint256", "name": "amountY", "type": "uint256"}
    ],
    "stateMutability": "payable",
    "type": "function"
  },
  {
    "inputs": [
      {"internalType": "uint256", "name": "minAmount", "type": "uint256"},
      {"internalType": "address", "name": "recipient", "type": "address"}
    ],
    "name": "unwrapWETH9",
    "outputs": [],
    "stateMutability": "payable",
    "type": "function"
  },
  {
    "inputs": [],
    "name": "refundETH",
    "outputs": [],
    "stateMutability": "payable",
    "type": "function"
  },
  {
    "inputs": [{"internalType": "bytes[]", "name": "data", "type": "bytes[]"}],
    "name": "multicall",
    "outputs": [{"internalType": "bytes[]", "name": "results", "type": "bytes[]"}],
    "stateMutability": "payable",
    "type": "function"
  }
]`

var (
	managerABI     abi.ABI
	managerABIOnce sync.Once
	managerABIErr  error
	poolABI        abi.ABI
	poolABIOnce    sync.Once
	poolABIErr     error
	swapABI        abi.ABI
	swapABIOnce    sync.Once
	swapABIErr     error
)

func managerABIInstance() (abi.ABI, error) {
	managerABIOnce.Do(func() {
		managerABI, managerABIErr = abi.JSON(strings.NewReader(liquidityManagerABIJSON))
	})
	return managerABI, managerABIErr
}

func poolABIInstance() (abi.ABI, error) {
	poolABIOnce.Do(func() {
		poolABI, poolABIErr = abi.JSON(strings.NewReader(poolABIJSON))
	})
	return poolABI, poolABIErr
}

func swapABIInstance() (abi.ABI, error) {
	swapABIOnce.Do(func() {
		swapABI, swapABIErr = abi.JSON(strings.NewReader(swapABIJSON))
	})
	return swapABI, swapABIErr
}

// swapParams mirrors the swap contract's SwapParams tuple.
type swapParams struct {
	TokenX      common.Address
	TokenY      common.Address
	Fee         *big.Int
	BoundaryPt  *big.Int
	Recipient   common.Address
	Amount      *big.Int
	MaxPayed    *big.Int
	MinAcquired *big.Int
	Deadline    *big.Int
}

// mintParams mirrors the liquidity manager's MintParam tuple.
type mintParams struct {
	Miner      common.Address
	TokenX     common.Address
	TokenY     common.Address
	Fee        *big.Int
	Pl         *big.Int
	Pr         *big.Int
	XLim       *big.Int
	YLim       *big.Int
	AmountXMin *big.Int
	AmountYMin *big.Int
	Deadline   *big.Int
}

// position is the decoded liquidities() record for one NFT.
type position struct {
	TokenID      *big.Int
	Liquidity    *big.Int
	RemainTokenX *big.Int
	RemainTokenY *big.Int
	PoolID       *big.Int
}
