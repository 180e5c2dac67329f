// =============================================================================
// Vision Connector - Lookup Commands
// =============================================================================
//
// COMMAND USAGE:
//   visionctl picklist CFGEmployeeStatus [--hierarchical]
//   visionctl proc spGetOpenBatches --param Company=01 --param Period=202403
//   visionctl info [--user]
//
// =============================================================================

package cmd

import (
	"strings"

	"github.com/juju/errors"
	"github.com/spf13/cobra"

	"github.com/ginjaninja78/vision-connector/internal/envelope"
	"github.com/ginjaninja78/vision-connector/internal/message"
	"github.com/ginjaninja78/vision-connector/internal/vision"
	"github.com/ginjaninja78/vision-connector/internal/xmlvalue"
)

var (
	hierarchical bool
	procParams   []string
	userInfo     bool
)

var pickListCmd = &cobra.Command{
	Use:   "picklist <name>",
	Short: "Read the entries of a pick list",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withClient(func(client *vision.Client) (*message.Message, error) {
			return client.GetPickList(cmd.Context(), vision.PickList(args[0]), hierarchical)
		})
	},
}

var procCmd = &cobra.Command{
	Use:   "proc <stored procedure>",
	Short: "Run a stored procedure",
	Long: `The proc command runs a stored procedure and prints the NewDataSet it
returns. Parameters are passed as text in the given order.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		params, err := parseParams(procParams)
		if err != nil {
			return errors.Trace(err)
		}
		return withClient(func(client *vision.Client) (*message.Message, error) {
			return client.ExecuteStoredProcedure(cmd.Context(), args[0], params...)
		})
	},
}

var infoCmd = &cobra.Command{
	Use:   "info",
	Short: "Show system or current user information",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withClient(func(client *vision.Client) (*message.Message, error) {
			if userInfo {
				return client.CurrentUserInfo(cmd.Context())
			}
			return client.SystemInfo(cmd.Context())
		})
	},
}

func init() {
	rootCmd.AddCommand(pickListCmd, procCmd, infoCmd)

	pickListCmd.Flags().BoolVar(&hierarchical, "hierarchical", false, "Return a hierarchical pick list")
	pickListCmd.Flags().StringVarP(&outFile, "out", "o", "", "Write the dataset to this file")

	procCmd.Flags().StringArrayVar(&procParams, "param", nil, "Parameter as name=value (repeatable)")
	procCmd.Flags().StringVarP(&outFile, "out", "o", "", "Write the dataset to this file")

	infoCmd.Flags().BoolVar(&userInfo, "user", false, "Show the logged in user instead of the system")
}

// withClient builds a client, runs call and prints its result.
func withClient(call func(*vision.Client) (*message.Message, error)) error {
	cfg, err := loadConfig()
	if err != nil {
		return errors.Trace(err)
	}
	client, err := newClient(cfg)
	if err != nil {
		return errors.Trace(err)
	}
	m, err := call(client)
	if err != nil {
		return errors.Trace(err)
	}
	return printMessage(m)
}

func parseParams(values []string) ([]envelope.Param, error) {
	params := make([]envelope.Param, 0, len(values))
	for _, v := range values {
		name, value, ok := strings.Cut(v, "=")
		if !ok || name == "" {
			return nil, errors.NotValidf("parameter %q", v)
		}
		params = append(params, envelope.Param{Name: name, Value: xmlvalue.Text(value)})
	}
	return params, nil
}
