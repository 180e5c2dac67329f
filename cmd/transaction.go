// =============================================================================
// Vision Connector - Transaction Commands
// =============================================================================
//
// This file defines the 'transaction' command group.
//
// COMMAND USAGE:
//   visionctl transaction get <kind> --key EX_20240304101500
//   visionctl transaction get <kind> --query "SELECT * FROM ..."
//   visionctl transaction add <kind> --file batch.xml
//   visionctl transaction post <kind> --batch EX_20240304101500 --period 202403
//
// Kinds are the two letter Vision codes: AP, CD, CR, CV, ER, EX, IN, JE, LA,
// MI, PR, TS, UN and UP.
//
// =============================================================================

package cmd

import (
	"context"
	"strings"

	"github.com/juju/errors"
	"github.com/spf13/cobra"

	"github.com/ginjaninja78/vision-connector/internal/message"
	"github.com/ginjaninja78/vision-connector/internal/vision"
)

var (
	batchList string
	period    int
	dataFile  string
)

var transactionCmd = &cobra.Command{
	Use:     "transaction",
	Aliases: []string{"tx"},
	Short:   "Read, add and post transactions",
}

var transactionGetCmd = &cobra.Command{
	Use:   "get <kind>",
	Short: "Read transactions by key or query",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runTransactionGet(cmd.Context(), args[0])
	},
}

var transactionAddCmd = &cobra.Command{
	Use:   "add <kind>",
	Short: "Add a transaction batch from an XML file",
	Long: `The add command sends the RECS document in --file as a new transaction
batch. The batch is not posted; use "visionctl transaction post".`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runTransactionAdd(cmd.Context(), args[0])
	},
}

var transactionPostCmd = &cobra.Command{
	Use:   "post <kind>",
	Short: "Post transaction batches",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runTransactionPost(cmd.Context(), args[0])
	},
}

func init() {
	rootCmd.AddCommand(transactionCmd)
	transactionCmd.AddCommand(transactionGetCmd, transactionAddCmd, transactionPostCmd)

	transactionGetCmd.Flags().StringArrayVar(&recordKeys, "key", nil, "Batch key, comma separated sub-keys (repeatable)")
	transactionGetCmd.Flags().StringVar(&recordQuery, "query", "", "Selection query")
	addDetailFlags(transactionGetCmd)

	transactionAddCmd.Flags().StringVar(&dataFile, "file", "", "XML file holding the RECS document")
	transactionAddCmd.MarkFlagRequired("file")

	transactionPostCmd.Flags().StringVar(&batchList, "batch", "", "Comma separated batch ids")
	transactionPostCmd.Flags().IntVar(&period, "period", 0, "Accounting period, for example 202403")
	transactionPostCmd.MarkFlagRequired("batch")
	transactionPostCmd.MarkFlagRequired("period")
}

func runTransactionGet(ctx context.Context, code string) error {
	kind, err := vision.ParseTransactionKind(code)
	if err != nil {
		return errors.Trace(err)
	}
	if len(recordKeys) == 0 && recordQuery == "" {
		return errors.New("either --key or --query is required")
	}
	cfg, err := loadConfig()
	if err != nil {
		return errors.Trace(err)
	}
	client, err := newClient(cfg)
	if err != nil {
		return errors.Trace(err)
	}
	var m *message.Message
	if len(recordKeys) > 0 {
		m, err = client.GetTransactionsByKey(ctx, kind, parseKeys(recordKeys), detailLevel(cfg))
	} else {
		m, err = client.GetTransactionsByQuery(ctx, kind, recordQuery, detailLevel(cfg))
	}
	if err != nil {
		return errors.Trace(err)
	}
	return printMessage(m)
}

func runTransactionAdd(ctx context.Context, code string) error {
	kind, err := vision.ParseTransactionKind(code)
	if err != nil {
		return errors.Trace(err)
	}
	data, err := readRecs(dataFile)
	if err != nil {
		return errors.Trace(err)
	}
	return withClient(func(client *vision.Client) (*message.Message, error) {
		return client.AddTransaction(ctx, kind, data)
	})
}

func runTransactionPost(ctx context.Context, code string) error {
	kind, err := vision.ParseTransactionKind(code)
	if err != nil {
		return errors.Trace(err)
	}
	if strings.TrimSpace(batchList) == "" {
		return errors.NotValidf("empty batch list")
	}
	return withClient(func(client *vision.Client) (*message.Message, error) {
		return client.PostTransaction(ctx, kind, batchList, period)
	})
}
