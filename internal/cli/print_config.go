package cli

import (
	"context"

	flag "github.com/spf13/pflag"

	"github.com/calvinalkan/urlaccess/internal/config"
)

// PrintConfigCmd returns the print-config command.
func PrintConfigCmd(a *app) *Command {
	return &Command{
		Flags: flag.NewFlagSet("print-config", flag.ContinueOnError),
		Usage: "print-config",
		Short: "Show resolved configuration",
		Long:  "Display the effective configuration and which files it was loaded from.",
		Exec: func(_ context.Context, o *IO, _ []string) error {
			o.Printf("%s", config.Format(a.cfg))

			return nil
		},
	}
}
