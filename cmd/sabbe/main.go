package main

import (
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func main() {
	root := &cobra.Command{
		Use:          "sabbe",
		Short:        "DEX trading automation and support bot for zkSync Era",
		SilenceUsage: true,
	}

	root.PersistentFlags().String("config", "", "config file path")

	swapCmd := &cobra.Command{
		Use:   "swap",
		Short: "Swap one token for another",
		RunE:  runSwap,
	}
	addTradeFlags(swapCmd)
	swapCmd.Flags().String("from", "", "token to sell")
	swapCmd.Flags().String("to", "", "token to buy")
	swapCmd.Flags().Float64("slippage", 1, "slippage tolerance in percent")
	swapCmd.Flags().Float64("amount", 0, "absolute amount to trade")
	swapCmd.Flags().Float64("percentage", 0, "percentage of the wallet balance to trade")
	root.AddCommand(swapCmd)

	addLiquidityCmd := &cobra.Command{
		Use:   "add-liquidity",
		Short: "Add liquidity to a pool",
		RunE:  runAddLiquidity,
	}
	addTradeFlags(addLiquidityCmd)
	addLiquidityCmd.Flags().String("first", "", "token committed to the pool")
	addLiquidityCmd.Flags().String("second", "", "paired token")
	addLiquidityCmd.Flags().Float64("amount", 0, "absolute amount to commit")
	addLiquidityCmd.Flags().Float64("percentage", 0, "percentage of the wallet balance to commit")
	root.AddCommand(addLiquidityCmd)

	removeLiquidityCmd := &cobra.Command{
		Use:   "remove-liquidity",
		Short: "Remove liquidity from a pool",
		RunE:  runRemoveLiquidity,
	}
	addTradeFlags(removeLiquidityCmd)
	removeLiquidityCmd.Flags().String("first", "", "first pool token")
	removeLiquidityCmd.Flags().String("second", "", "second pool token")
	removeLiquidityCmd.Flags().Float64("percentage", 100, "percentage of the LP position to remove (classic pools)")
	root.AddCommand(removeLiquidityCmd)

	burnLiquidityCmd := &cobra.Command{
		Use:   "burn-liquidity",
		Short: "Burn an emptied concentrated-liquidity position NFT",
		RunE:  runBurnLiquidity,
	}
	addTradeFlags(burnLiquidityCmd)
	burnLiquidityCmd.Flags().String("first", "", "first pool token")
	burnLiquidityCmd.Flags().String("second", "", "second pool token")
	root.AddCommand(burnLiquidityCmd)

	botCmd := &cobra.Command{
		Use:   "bot",
		Short: "Run the Telegram support bot",
		RunE:  runBot,
	}
	botCmd.Flags().String("bot-token", "", "Telegram bot token")
	botCmd.Flags().Int64("support-chat-id", 0, "chat receiving forwarded questions")
	botCmd.Flags().Int64("dev-chat-id", 0, "chat receiving error reports")
	botCmd.Flags().String("pg-dsn", "", "Postgres DSN for profile storage")
	botCmd.Flags().String("log-level", "info", "log level (debug, info, warn, error)")
	root.AddCommand(botCmd)

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func addTradeFlags(cmd *cobra.Command) {
	cmd.Flags().String("network", "zkEra", "network name (zkEra, zkEraTestnet)")
	cmd.Flags().String("rpc", "", "RPC URL override")
	cmd.Flags().String("private-key", "", "hex-encoded account private key")
	cmd.Flags().String("dex", "syncswap", "protocol to trade on (syncswap, izumi)")
	cmd.Flags().Duration("min-delay", 30*time.Second, "minimum pause between sequential transactions")
	cmd.Flags().Duration("max-delay", 60*time.Second, "maximum pause between sequential transactions")
	cmd.Flags().String("log-level", "info", "log level (debug, info, warn, error)")
}

func newLogger(level string) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevel()
	if err := cfg.Level.UnmarshalText([]byte(level)); err != nil {
		return nil, err
	}

	cfg.EncoderConfig.TimeKey = "ts"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	return cfg.Build()
}
