package main

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	pg "github.com/code-payments/craffles/pkg/database/postgres"
	"github.com/code-payments/craffles/pkg/raffle"
	"github.com/code-payments/craffles/pkg/raffle/data/receipt"
	memory_receipt_store "github.com/code-payments/craffles/pkg/raffle/data/receipt/memory"
	postgres_receipt_store "github.com/code-payments/craffles/pkg/raffle/data/receipt/postgres"
	"github.com/code-payments/craffles/pkg/solana"
)

const (
	envPrefix = "CRAFFLES"

	rpcEndpointFlag  = "rpc-endpoint"
	keypairFlag      = "keypair"
	databaseDSNFlag  = "database-dsn"
	rpsFlag          = "rps"
	logLevelFlag     = "log-level"
	configFileFlag   = "config"
	outputFormatFlag = "output"

	defaultRPCEndpoint = "devnet"
	defaultKeypair     = "~/.config/solana/id.json"
)

// app holds the dependencies shared by every subcommand, built lazily from
// flags, the environment and an optional config file.
type app struct {
	v *viper.Viper

	log      *logrus.Entry
	sc       solana.Client
	db       *sql.DB
	receipts receipt.Store
}

func newRootCommand() *cobra.Command {
	a := &app{
		v:   viper.New(),
		log: logrus.StandardLogger().WithField("type", "cmd/craffles"),
	}

	root := &cobra.Command{
		Use:           "craffles",
		Short:         "Create and play raffles backed by compressed NFT tickets",
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.init(cmd.Context())
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			return a.close()
		},
	}

	flags := root.PersistentFlags()
	flags.String(rpcEndpointFlag, defaultRPCEndpoint, "Solana JSON-RPC endpoint, or a cluster name")
	flags.String(keypairFlag, defaultKeypair, "solana-keygen file of the paying wallet")
	flags.String(databaseDSNFlag, "", "Postgres DSN for the receipt journal, in memory when empty")
	flags.Int(rpsFlag, solana.DefaultRequestsPerSecond, "Maximum RPC requests per second")
	flags.String(logLevelFlag, "info", "Log level")
	flags.String(configFileFlag, "", "Optional config file")
	flags.StringP(outputFormatFlag, "o", "text", "Output format: text|json")

	if err := a.v.BindPFlags(flags); err != nil {
		panic(err)
	}
	a.v.SetEnvPrefix(envPrefix)
	a.v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	a.v.AutomaticEnv()

	root.AddCommand(
		newKeygenCommand(a),
		newAirdropCommand(a),
		newCreateTreeCommand(a),
		newCreateRaffleCommand(a),
		newBuyTicketsCommand(a),
		newShowRaffleCommand(a),
		newListRafflesCommand(a),
		newReceiptsCommand(a),
	)

	return root
}

func (a *app) init(ctx context.Context) error {
	if configFile := a.v.GetString(configFileFlag); len(configFile) > 0 {
		a.v.SetConfigFile(configFile)
		if err := a.v.ReadInConfig(); err != nil {
			return errors.Wrapf(err, "error reading config file %s", configFile)
		}
	}

	level, err := logrus.ParseLevel(a.v.GetString(logLevelFlag))
	if err != nil {
		return errors.Wrap(err, "invalid log level")
	}
	logrus.SetLevel(level)

	endpoint := solana.EndpointFor(a.v.GetString(rpcEndpointFlag))
	a.sc = solana.NewWithRPCOptions(endpoint, nil, a.v.GetInt(rpsFlag))

	dsn := a.v.GetString(databaseDSNFlag)
	if len(dsn) == 0 {
		a.receipts = memory_receipt_store.New()
		return nil
	}

	if ctx == nil {
		ctx = context.Background()
	}
	a.db, err = pg.Open(ctx, &pg.Config{
		DSN:                dsn,
		MaxOpenConnections: 2,
		MaxIdleConnections: 2,
		ConnectTimeout:     10 * time.Second,
	})
	if err != nil {
		return err
	}
	a.receipts = postgres_receipt_store.New(a.db)

	return nil
}

func (a *app) close() error {
	if a.db == nil {
		return nil
	}
	return a.db.Close()
}

func (a *app) orchestrator() *raffle.Orchestrator {
	return raffle.NewOrchestrator(a.sc, raffle.WithEnvConfigs(), raffle.WithReceiptStore(a.receipts))
}
