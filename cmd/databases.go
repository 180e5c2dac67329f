// =============================================================================
// Vision Connector - Databases Command
// =============================================================================
//
// COMMAND USAGE:
//   visionctl databases
//   visionctl ping
//
// Neither command needs credentials.
//
// =============================================================================

package cmd

import (
	"github.com/juju/errors"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/ginjaninja78/vision-connector/internal/vision"
)

var databasesCmd = &cobra.Command{
	Use:   "databases",
	Short: "List the databases the web service offers",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return errors.Trace(err)
		}
		endpoint, err := newEndpoint(cfg)
		if err != nil {
			return errors.Trace(err)
		}
		names, err := vision.Databases(cmd.Context(), endpoint)
		if err != nil {
			return errors.Trace(err)
		}
		if len(names) == 0 {
			pterm.Info.Println("The web service offers no databases.")
			return nil
		}
		items := make([]pterm.BulletListItem, 0, len(names))
		for _, name := range names {
			items = append(items, pterm.BulletListItem{Level: 0, Text: name})
		}
		return errors.Trace(pterm.DefaultBulletList.WithItems(items).Render())
	},
}

var pingCmd = &cobra.Command{
	Use:   "ping",
	Short: "Check that the web service answers",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return errors.Trace(err)
		}
		endpoint, err := newEndpoint(cfg)
		if err != nil {
			return errors.Trace(err)
		}
		if !vision.Ping(cmd.Context(), endpoint) {
			return errors.Errorf("%s does not answer", cfg.Vision.URL)
		}
		pterm.Success.Printfln("%s is up", cfg.Vision.URL)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(databasesCmd, pingCmd)
}
