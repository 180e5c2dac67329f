// =============================================================================
// Vision Connector - Records Command
// =============================================================================
//
// This file defines the 'records' command, which reads the records of an info
// center or of a user defined info center.
//
// COMMAND USAGE:
//   visionctl records <info center> --key 00001 [--key 00002]
//   visionctl records Projects --key "2003005.00,1PD,COD"
//   visionctl records Employees --query "SELECT * FROM EM WHERE Status = 'A'"
//   visionctl records UDIC_Equipment --udic --key 4b1c...
//
// FLAGS:
//   --key     : Record key, comma separated sub-keys. Repeatable.
//   --query   : Selection query, used when no key is given
//   --udic    : Treat the name as a user defined info center
//   --detail  : Primary, AllPrimary or All (default is fetch.record_detail)
//   --out     : Write the returned dataset to this file instead of stdout
//
// =============================================================================

package cmd

import (
	"context"
	"os"

	"github.com/juju/errors"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/ginjaninja78/vision-connector/internal/config"
	"github.com/ginjaninja78/vision-connector/internal/envelope"
	"github.com/ginjaninja78/vision-connector/internal/message"
	"github.com/ginjaninja78/vision-connector/internal/vision"
	"github.com/ginjaninja78/vision-connector/internal/xmlwriter"
)

// =============================================================================
// COMMAND FLAGS
// =============================================================================

var (
	recordKeys   []string
	recordQuery  string
	recordUDIC   bool
	recordDetail string
	outFile      string
)

var recordsCmd = &cobra.Command{
	Use:   "records <info center>",
	Short: "Read records from an info center",
	Long: `The records command reads records by key or by query. Large results are
read page by page and merged into one dataset.

Standard info centers: Projects, Clients, Contacts, Employees, EmployeesMC,
Opportunities, Leads, MktCampaigns, Vendors, TextLibraries and Activities.`,
	Args: cobra.ExactArgs(1),

	RunE: func(cmd *cobra.Command, args []string) error {
		return runRecords(cmd.Context(), args[0])
	},
}

func init() {
	rootCmd.AddCommand(recordsCmd)

	recordsCmd.Flags().StringArrayVar(&recordKeys, "key", nil, "Record key, comma separated sub-keys (repeatable)")
	recordsCmd.Flags().StringVar(&recordQuery, "query", "", "Selection query")
	recordsCmd.Flags().BoolVar(&recordUDIC, "udic", false, "Read a user defined info center")
	addDetailFlags(recordsCmd)
}

// addDetailFlags registers the flags shared by the read commands.
func addDetailFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&recordDetail, "detail", "", "Record detail: Primary, AllPrimary or All")
	cmd.Flags().StringVarP(&outFile, "out", "o", "", "Write the dataset to this file")
}

func runRecords(ctx context.Context, name string) error {
	if len(recordKeys) == 0 && recordQuery == "" {
		return errors.New("either --key or --query is required")
	}
	if recordUDIC && len(recordKeys) > 1 {
		return errors.New("user defined info centers are read one key at a time")
	}
	cfg, err := loadConfig()
	if err != nil {
		return errors.Trace(err)
	}
	client, err := newClient(cfg)
	if err != nil {
		return errors.Trace(err)
	}
	detail := detailLevel(cfg)

	var m *message.Message
	switch {
	case recordUDIC && len(recordKeys) == 1:
		m, err = client.GetUDICByKey(ctx, name, recordKeys[0], detail)
	case recordUDIC:
		m, err = client.GetUDICByQuery(ctx, name, recordQuery, detail)
	case len(recordKeys) > 0:
		m, err = client.GetRecordsByKey(ctx, vision.InfoCenter(name), parseKeys(recordKeys), detail)
	default:
		m, err = client.GetRecordsByQuery(ctx, vision.InfoCenter(name), recordQuery, detail)
	}
	if err != nil {
		return errors.Trace(err)
	}
	return printMessage(m)
}

// =============================================================================
// HELPER FUNCTIONS
// =============================================================================

func parseKeys(values []string) envelope.KeyList {
	keys := make(envelope.KeyList, 0, len(values))
	for _, v := range values {
		keys = append(keys, envelope.ParseKey(v))
	}
	return keys
}

// detailLevel returns the --detail flag or the configured default.
func detailLevel(cfg *config.Config) vision.RecordDetail {
	if recordDetail != "" {
		return vision.ParseRecordDetail(recordDetail)
	}
	return vision.ParseRecordDetail(cfg.Fetch.RecordDetail)
}

// printMessage reports the outcome of a call and prints or saves its
// dataset.
//
// RETURNS:
//   - An error if the call failed or the dataset cannot be written.
func printMessage(m *message.Message) error {
	if m.ReturnCode == message.CodeNoData {
		pterm.Info.Println(m.ReturnDesc)
		return nil
	}
	if m.Failed() {
		if len(m.Errors) > 0 {
			pterm.Println(m.GetErrors())
		}
		return errors.Errorf("Vision returned %s: %s %s", m.ReturnCode, m.ReturnDesc, m.Detail)
	}
	if len(m.Errors) > 0 {
		pterm.Warning.Println(m.GetErrors())
	}
	if m.Root() == nil {
		pterm.Success.Println(m.ReturnDesc)
		if m.Detail != "" {
			pterm.Println(m.Detail)
		}
		return nil
	}
	if outFile != "" {
		if err := xmlwriter.WriteDataset(outFile, m, xmlwriter.DefaultGenerateOptions()); err != nil {
			return errors.Trace(err)
		}
		pterm.Success.Printfln("%d records written to %s", len(m.Records()), outFile)
		return nil
	}
	out, err := xmlwriter.Generate(m.Root())
	if err != nil {
		return errors.Trace(err)
	}
	_, err = os.Stdout.Write(out)
	return errors.Trace(err)
}
