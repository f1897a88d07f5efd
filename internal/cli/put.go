package cli

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"time"

	flag "github.com/spf13/pflag"

	"github.com/calvinalkan/urlaccess/pkg/urlaccess"
)

// PutCmd returns the put command.
func PutCmd(a *app) *Command {
	fs := flag.NewFlagSet("put", flag.ContinueOnError)
	fs.String("mode", "", "Permission bits in octal, e.g. 0600")
	fs.Bool("dir", false, "Create a directory instead of a file")

	return &Command{
		Flags: fs,
		Usage: "put [flags] <locator>",
		Short: "Write stdin to a resource",
		Long: `Create or replace a file with the contents of stdin.

With --dir a directory is created and stdin is not read. Replacement is
truncate-in-place unless write_mode is "atomic" in the config.`,
		Exec: func(_ context.Context, o *IO, args []string) error {
			return execPut(a, o, fs, args)
		},
	}
}

func execPut(a *app, _ *IO, fs *flag.FlagSet, args []string) error {
	if len(args) != 1 {
		return errLocatorRequired
	}

	isDir, _ := fs.GetBool("dir")

	loc, err := a.locatorArg(args[0], isDir)
	if err != nil {
		return err
	}

	var props *urlaccess.Properties

	if fs.Changed("mode") {
		modeStr, _ := fs.GetString("mode")

		mode, err := strconv.ParseUint(modeStr, 8, 32)
		if err != nil || mode > 0o7777 {
			return fmt.Errorf("%w: invalid --mode %q", urlaccess.ErrImproperArguments, modeStr)
		}

		props, err = urlaccess.NewProperties(urlaccess.Property{Key: urlaccess.KeyPosixMode, Value: uint32(mode)})
		if err != nil {
			return err
		}
	}

	var data []byte

	if !loc.IsDirectory() {
		data, err = io.ReadAll(a.in)
		if err != nil {
			return fmt.Errorf("reading stdin: %w", err)
		}
	}

	start := time.Now()
	err = a.acc.Write(loc, data, props)
	a.logOutcome("write", loc, start, err)

	return err
}
