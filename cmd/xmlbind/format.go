package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/tidalcode/xmlbind"
)

func newFormatCmd(logCfg *logConfig) *cobra.Command {
	return &cobra.Command{
		Use:   "format <file>",
		Short: "Deserialize then re-serialize a document as the demo note type",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			handler, err := logCfg.newHandler(os.Stderr)
			if err != nil {
				return err
			}
			logger := slog.New(handler)

			data, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}

			value, err := xmlbind.FromXMLString[note](string(data))
			if err != nil {
				return err
			}
			logger.Debug("parsed document", "id", value.ID, "title", value.Title)

			out, err := xmlbind.ToXMLString(value)
			if err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), out)
			return nil
		},
	}
}
