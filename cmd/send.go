// =============================================================================
// Vision Connector - Send Command
// =============================================================================
//
// This file defines the 'send' command, which writes records held in a RECS
// document to an info center or to a user defined info center.
//
// COMMAND USAGE:
//   visionctl send Employees --file employees.xml [--return]
//   visionctl send Projects --file obsolete.xml --delete
//   visionctl send UDIC_Equipment --udic --file equipment.xml [--update|--delete]
//
// The tranType attribute of each ROW selects insert, update or delete for
// info centers. User defined info centers take the operation from the flags.
//
// =============================================================================

package cmd

import (
	"context"

	"github.com/beevik/etree"
	"github.com/juju/errors"
	"github.com/spf13/cobra"

	"github.com/ginjaninja78/vision-connector/internal/message"
	"github.com/ginjaninja78/vision-connector/internal/vision"
)

var (
	sendUDIC   bool
	sendReturn bool
	sendUpdate bool
	sendDelete bool
)

var sendCmd = &cobra.Command{
	Use:   "send <info center>",
	Short: "Write records from an XML file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runSend(cmd.Context(), args[0])
	},
}

func init() {
	rootCmd.AddCommand(sendCmd)

	sendCmd.Flags().StringVar(&dataFile, "file", "", "XML file holding the RECS document")
	sendCmd.Flags().BoolVar(&sendUDIC, "udic", false, "Write to a user defined info center")
	sendCmd.Flags().BoolVar(&sendReturn, "return", false, "Return the written records")
	sendCmd.Flags().BoolVar(&sendUpdate, "update", false, "Update user defined info center records")
	sendCmd.Flags().BoolVar(&sendDelete, "delete", false, "Delete the records")
	sendCmd.Flags().StringVarP(&outFile, "out", "o", "", "Write the returned dataset to this file")
	sendCmd.MarkFlagRequired("file")
	sendCmd.MarkFlagsMutuallyExclusive("update", "delete")
	sendCmd.MarkFlagsMutuallyExclusive("return", "delete")
}

// readRecs reads a RECS document from path.
func readRecs(path string) (*etree.Element, error) {
	doc := etree.NewDocument()
	if err := doc.ReadFromFile(path); err != nil {
		return nil, errors.Annotatef(err, "reading %s", path)
	}
	if doc.Root() == nil || doc.Root().Tag != "RECS" {
		return nil, errors.NotValidf("%s without a RECS root", path)
	}
	return doc.Root(), nil
}

func runSend(ctx context.Context, name string) error {
	data, err := readRecs(dataFile)
	if err != nil {
		return errors.Trace(err)
	}
	return withClient(func(client *vision.Client) (*message.Message, error) {
		switch {
		case sendUDIC && sendDelete:
			return client.DeleteUDIC(ctx, name, data)
		case sendUDIC && sendUpdate:
			return client.UpdateUDIC(ctx, name, data)
		case sendUDIC:
			return client.AddUDIC(ctx, name, data)
		case sendDelete:
			return client.DeleteRecords(ctx, data)
		case sendReturn:
			return client.SendDataWithReturn(ctx, vision.InfoCenter(name), data)
		default:
			return client.SendData(ctx, vision.InfoCenter(name), data)
		}
	})
}
