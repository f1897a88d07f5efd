package cli

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	flag "github.com/spf13/pflag"
	"golang.org/x/sync/errgroup"

	"github.com/calvinalkan/urlaccess/pkg/urlaccess"
)

var errStatUsage = errors.New("at least one locator is required")

// StatCmd returns the stat command.
func StatCmd(a *app) *Command {
	fs := flag.NewFlagSet("stat", flag.ContinueOnError)
	fs.StringSlice("keys", nil, "Comma-separated property keys (default all)")
	fs.Bool("json", false, "Print one JSON object per locator")

	return &Command{
		Flags: fs,
		Usage: "stat [flags] <locator>...",
		Short: "Print resource properties",
		Long: `Fetch the properties of one or more resources.

Locators are fetched concurrently (see "parallelism" in the config) and
printed in argument order. A failed fetch prints whatever properties it
produced and is reported as a warning; the exit code is then 1.`,
		Exec: func(ctx context.Context, o *IO, args []string) error {
			return execStat(ctx, a, o, fs, args)
		},
	}
}

type statResult struct {
	loc   urlaccess.Locator
	props *urlaccess.Properties
	err   error
}

type statJSON struct {
	Locator    string                `json:"locator"`
	Properties *urlaccess.Properties `json:"properties"`
	Code       string                `json:"code,omitempty"`
	Error      string                `json:"error,omitempty"`
}

func execStat(ctx context.Context, a *app, o *IO, fs *flag.FlagSet, args []string) error {
	if len(args) == 0 {
		return errStatUsage
	}

	var keys []urlaccess.Key

	if fs.Changed("keys") {
		tokens, _ := fs.GetStringSlice("keys")

		var err error

		keys, err = urlaccess.ParseKeys(tokens)
		if err != nil {
			return err
		}
	}

	asJSON, _ := fs.GetBool("json")

	locs := make([]urlaccess.Locator, len(args))

	for i, arg := range args {
		loc, err := a.locatorArg(arg, false)
		if err != nil {
			return err
		}

		locs[i] = loc
	}

	results, err := a.statAll(ctx, locs, keys)
	if err != nil {
		return err
	}

	for _, r := range results {
		if r.err != nil {
			action := "no properties available"
			if r.props != nil {
				action = "properties shown are partial"
			}

			o.Warn(r.err.Error(), action)
		}

		if asJSON {
			line, err := json.Marshal(statJSON{
				Locator:    r.loc.String(),
				Properties: r.props,
				Code:       codeText(r.err),
				Error:      errText(r.err),
			})
			if err != nil {
				return err
			}

			o.Println(string(line))

			continue
		}

		o.Println(r.loc.String())

		for _, p := range r.props.All() {
			o.Printf("  %s=%s\n", p.Key, formatValue(p.Key, p.Value, true))
		}
	}

	return nil
}

// statAll fetches properties of every locator with at most
// cfg.Parallelism fetches in flight. Results keep the order of locs.
func (a *app) statAll(ctx context.Context, locs []urlaccess.Locator, keys []urlaccess.Key) ([]statResult, error) {
	results := make([]statResult, len(locs))

	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(max(a.cfg.Parallelism, 1))

	for i, loc := range locs {
		eg.Go(func() error {
			if err := egCtx.Err(); err != nil {
				return err
			}

			start := time.Now()
			res, err := a.acc.Fetch(loc, urlaccess.FetchRequest{Properties: true, Keys: keys})
			a.logOutcome("fetch", loc, start, err)

			results[i] = statResult{loc: loc, props: res.Properties, err: err}

			return nil
		})
	}

	if err := eg.Wait(); err != nil {
		return nil, err
	}

	return results, nil
}

func codeText(err error) string {
	if err == nil {
		return ""
	}

	return urlaccess.CodeOf(err).String()
}

func errText(err error) string {
	if err == nil {
		return ""
	}

	return err.Error()
}
