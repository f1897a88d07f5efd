package cli

import (
	"context"
	"errors"
	"time"

	flag "github.com/spf13/pflag"

	"github.com/calvinalkan/urlaccess/pkg/urlaccess"
)

var errLocatorRequired = errors.New("locator is required")

// CatCmd returns the cat command.
func CatCmd(a *app) *Command {
	return &Command{
		Flags: flag.NewFlagSet("cat", flag.ContinueOnError),
		Usage: "cat <locator>",
		Short: "Print resource contents",
		Long:  "Fetch the resource data and write it to stdout unchanged.",
		Exec: func(_ context.Context, o *IO, args []string) error {
			return execCat(a, o, args)
		},
	}
}

func execCat(a *app, o *IO, args []string) error {
	if len(args) != 1 {
		return errLocatorRequired
	}

	loc, err := a.locatorArg(args[0], false)
	if err != nil {
		return err
	}

	start := time.Now()
	res, err := a.acc.Fetch(loc, urlaccess.FetchRequest{Data: true})
	a.logOutcome("fetch", loc, start, err)

	if err != nil {
		return err
	}

	_, err = o.Write(res.Data)

	return err
}
