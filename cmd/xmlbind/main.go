// Command xmlbind exercises the xmlbind library end-to-end: validating
// documents against a registered Go type, round-tripping them, and
// dumping their element tree for inspection. It mirrors the role
// github.com/ucarion/c14n's cmd/c14n plays for its library.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	logCfg := newLogConfig()

	rootCmd := &cobra.Command{
		Use:           "xmlbind",
		Short:         "Inspect and validate XML documents against xmlbind-registered types",
		SilenceErrors: true,
		SilenceUsage:  true,
	}
	logCfg.registerFlags(rootCmd.PersistentFlags())

	rootCmd.AddCommand(
		newValidateCmd(logCfg),
		newFormatCmd(logCfg),
		newTreeCmd(),
		newInspectCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "xmlbind: %v\n", err)
		os.Exit(1)
	}
}
