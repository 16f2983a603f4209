package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/tidalcode/xmlbind"
)

func newValidateCmd(logCfg *logConfig) *cobra.Command {
	return &cobra.Command{
		Use:   "validate <file>",
		Short: "Parse a document as the demo note type and report xmlbind.Error kinds on failure",
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

			_, err = xmlbind.FromXMLString[note](string(data))
			if err != nil {
				var xerr *xmlbind.Error
				if errors.As(err, &xerr) {
					logger.Error("validation failed", "kind", xerr.Kind, "field", xerr.Field, "message", xerr.Message)
					return fmt.Errorf("invalid document")
				}
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), "ok")
			return nil
		},
	}
}
