package cli

import (
	"context"
	"fmt"
	"slices"
	"time"

	flag "github.com/spf13/pflag"

	"github.com/calvinalkan/urlaccess/pkg/urlaccess"
)

// LsCmd returns the ls command.
func LsCmd(a *app) *Command {
	return &Command{
		Flags: flag.NewFlagSet("ls", flag.ContinueOnError),
		Usage: "ls <locator>",
		Short: "List directory entries",
		Long: `List the entries of a directory, sorted by name.

The locator is always treated as a directory.`,
		Exec: func(_ context.Context, o *IO, args []string) error {
			return execLs(a, o, args)
		},
	}
}

func execLs(a *app, o *IO, args []string) error {
	if len(args) != 1 {
		return errLocatorRequired
	}

	loc, err := a.locatorArg(args[0], true)
	if err != nil {
		return err
	}

	start := time.Now()
	res, err := a.acc.Fetch(loc, urlaccess.FetchRequest{
		Properties: true,
		Keys:       []urlaccess.Key{urlaccess.KeyDirectoryContents},
	})
	a.logOutcome("fetch", loc, start, err)

	if err != nil {
		return err
	}

	names, ok := res.Properties.DirectoryContents()
	if !ok {
		return fmt.Errorf("%w: %s is not a directory", urlaccess.ErrPropertyKeyUnavailable, loc)
	}

	slices.Sort(names)

	for _, name := range names {
		o.Println(name)
	}

	return nil
}
