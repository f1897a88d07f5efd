package cli

import (
	"context"
	"errors"
	"time"

	flag "github.com/spf13/pflag"

	"github.com/calvinalkan/urlaccess/pkg/urlaccess"
)

var errGetUsage = errors.New("usage: get <locator> <key>")

// GetCmd returns the get command.
func GetCmd(a *app) *Command {
	return &Command{
		Flags: flag.NewFlagSet("get", flag.ContinueOnError),
		Usage: "get <locator> <key>",
		Short: "Print a single property",
		Long: `Fetch one property and print its raw value.

Keys: FileExists, FileDirectoryContents, FileLength,
FileLastModificationTime, FilePOSIXMode, FileOwnerID.
Directory contents are printed one name per line.`,
		Exec: func(_ context.Context, o *IO, args []string) error {
			return execGet(a, o, args)
		},
	}
}

func execGet(a *app, o *IO, args []string) error {
	if len(args) != 2 {
		return errGetUsage
	}

	loc, err := a.locatorArg(args[0], false)
	if err != nil {
		return err
	}

	key, err := urlaccess.ParseKey(args[1])
	if err != nil {
		return err
	}

	start := time.Now()
	v, err := a.acc.FetchProperty(loc, key)
	a.logOutcome("fetch", loc, start, err)

	if err != nil {
		return err
	}

	if names, ok := v.([]string); ok {
		for _, name := range names {
			o.Println(name)
		}

		return nil
	}

	o.Println(formatValue(key, v, false))

	return nil
}
