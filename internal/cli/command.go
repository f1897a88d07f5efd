package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"

	flag "github.com/spf13/pflag"
)

// locatorHelp explains how command arguments become locators. It matches
// the rules in [app.locatorArg].
const locatorHelp = `Locators:
  scheme://host/path   parsed as a URL (file:// and http:// are handled)
  path                 a file, relative paths resolve against base_dir
  path/                a trailing separator marks a directory`

// Command is one urlaccess subcommand.
type Command struct {
	// Flags defines command-specific flags. The FlagSet name is unused;
	// the command name comes from Usage.
	Flags *flag.FlagSet

	// Usage follows "urlaccess" in help, e.g. "stat [flags] <locator>...".
	// Commands whose usage names a <locator> get the locator rules
	// appended to their help.
	Usage string

	// Short is the line shown in the global command listing.
	Short string

	// Long is shown by "urlaccess <cmd> --help"; Short when empty.
	Long string

	// Exec runs the command after flags are parsed.
	Exec func(ctx context.Context, o *IO, args []string) error
}

// Name returns the command name (first word of Usage).
func (c *Command) Name() string {
	name, _, _ := strings.Cut(c.Usage, " ")

	return name
}

// HelpLine returns the command's row in the global command listing.
func (c *Command) HelpLine() string {
	return fmt.Sprintf("  %-30s %s", c.Usage, c.Short)
}

// TakesLocators reports whether the command's arguments are locators.
func (c *Command) TakesLocators() bool {
	return strings.Contains(c.Usage, "<locator>")
}

// PrintHelp prints "urlaccess <cmd> --help".
func (c *Command) PrintHelp(o *IO) {
	o.Println("Usage: urlaccess", c.Usage)
	o.Println()

	desc := c.Long
	if desc == "" {
		desc = c.Short
	}

	o.Println(desc)

	if c.Flags != nil && c.Flags.HasFlags() {
		o.Println()
		o.Println("Flags:")

		var buf strings.Builder
		c.Flags.SetOutput(&buf)
		c.Flags.PrintDefaults()
		o.Printf("%s", buf.String())
	}

	if c.TakesLocators() {
		o.Println()
		o.Println(locatorHelp)
	}
}

// Run parses args and executes the command, returning the exit code.
// Flag errors print the command help after the error; Exec errors print
// only the error.
func (c *Command) Run(ctx context.Context, o *IO, args []string) int {
	c.Flags.SetOutput(&strings.Builder{}) // discard pflag output

	err := c.Flags.Parse(args)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			c.PrintHelp(o)

			return 0
		}

		o.ErrPrintln("error:", err)
		o.ErrPrintln()
		c.PrintHelp(o)

		return 1
	}

	if err := c.Exec(ctx, o, c.Flags.Args()); err != nil {
		o.ErrPrintln("error:", err)

		return 1
	}

	return 0
}
