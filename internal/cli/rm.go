package cli

import (
	"context"
	"time"

	flag "github.com/spf13/pflag"
)

// RmCmd returns the rm command.
func RmCmd(a *app) *Command {
	fs := flag.NewFlagSet("rm", flag.ContinueOnError)
	fs.Bool("dir", false, "Remove an empty directory")

	return &Command{
		Flags: fs,
		Usage: "rm [flags] <locator>",
		Short: "Remove a resource",
		Long: `Remove a file, or an empty directory when the locator names one
(trailing "/" or --dir). Directories are never removed recursively.`,
		Exec: func(_ context.Context, _ *IO, args []string) error {
			if len(args) != 1 {
				return errLocatorRequired
			}

			isDir, _ := fs.GetBool("dir")

			loc, err := a.locatorArg(args[0], isDir)
			if err != nil {
				return err
			}

			start := time.Now()
			err = a.acc.Destroy(loc)
			a.logOutcome("destroy", loc, start, err)

			return err
		},
	}
}
