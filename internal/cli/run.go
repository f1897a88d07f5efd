package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	flag "github.com/spf13/pflag"

	"github.com/calvinalkan/urlaccess/internal/config"
	"github.com/calvinalkan/urlaccess/pkg/urlaccess"
)

// app is the state shared by all commands of one invocation.
type app struct {
	cfg config.Config
	acc *urlaccess.Accessor
	log *slog.Logger
	in  io.Reader
	env map[string]string
}

// commands returns a fresh set of commands. Each call builds new FlagSets, so
// the shell can run the same command more than once.
func (a *app) commands() []*Command {
	return []*Command{
		CatCmd(a),
		StatCmd(a),
		GetCmd(a),
		LsCmd(a),
		PutCmd(a),
		RmCmd(a),
		ShellCmd(a),
		PrintConfigCmd(a),
	}
}

func findCommand(cmds []*Command, name string) (*Command, bool) {
	for _, c := range cmds {
		if c.Name() == name {
			return c, true
		}
	}

	return nil, false
}

// Run is the main entry point. Returns exit code.
func Run(in io.Reader, out io.Writer, errOut io.Writer, args []string, env map[string]string, sigCh <-chan os.Signal) int {
	if in == nil {
		in = strings.NewReader("")
	}

	var rest []string
	if len(args) > 1 {
		rest = args[1:]
	}

	globals, err := parseGlobalFlags(rest)
	if err != nil {
		fprintln(errOut, "error:", err)
		printUsage(errOut)

		return 1
	}

	if globals.help || len(globals.remaining) == 0 {
		printUsage(out)

		return 0
	}

	cfg, err := config.Load(config.LoadInput{
		WorkDirOverride: globals.workDir,
		ConfigPath:      globals.configPath,
		Overrides:       globals.overrides(),
		Env:             env,
	})
	if err != nil {
		fprintln(errOut, "error:", err)

		return 1
	}

	a := &app{
		cfg: cfg,
		acc: urlaccess.New(urlaccess.Options{
			WriteMode:  cfg.WriteModeValue(),
			SyncWrites: cfg.SyncWrites,
		}),
		log: newLogger(errOut, cfg),
		in:  in,
		env: env,
	}

	name := globals.remaining[0]

	cmd, ok := findCommand(a.commands(), name)
	if !ok {
		fprintln(errOut, "error: unknown command:", name)
		printUsage(errOut)

		return 1
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if sigCh != nil {
		go func() {
			select {
			case sig := <-sigCh:
				a.log.Debug("signal received", "signal", sig.String())
				cancel()
			case <-ctx.Done():
			}
		}()
	}

	o := NewIO(out, errOut)

	code := cmd.Run(ctx, o, globals.remaining[1:])

	return max(code, o.Finish())
}

type globalFlags struct {
	workDir    string
	configPath string
	baseDir    string
	verbose    bool
	help       bool
	remaining  []string
}

func (g globalFlags) overrides() config.Overrides {
	o := config.Overrides{BaseDir: g.baseDir}
	if g.verbose {
		o.LogLevel = "debug"
	}

	return o
}

// parseGlobalFlags parses flags up to the first non-flag argument, which is
// the command name.
func parseGlobalFlags(args []string) (globalFlags, error) {
	var g globalFlags

	fs := flag.NewFlagSet("urlaccess", flag.ContinueOnError)
	fs.SetInterspersed(false)
	fs.SetOutput(&strings.Builder{})
	fs.StringVarP(&g.workDir, "cwd", "C", "", "Run as if started in `dir`")
	fs.StringVarP(&g.configPath, "config", "c", "", "Use specified config `file`")
	fs.StringVar(&g.baseDir, "base-dir", "", "Resolve relative paths against `dir`")
	fs.BoolVarP(&g.verbose, "verbose", "v", false, "Log debug output to stderr")
	fs.BoolVarP(&g.help, "help", "h", false, "Show help")

	err := fs.Parse(args)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			g.help = true

			return g, nil
		}

		return globalFlags{}, err
	}

	if fs.Changed("base-dir") && g.baseDir == "" {
		return globalFlags{}, config.ErrBaseDirEmpty
	}

	g.remaining = fs.Args()

	return g, nil
}

func printUsage(w io.Writer) {
	a := &app{}

	fprintln(w, `urlaccess - read, write and remove resources by URL

Usage: urlaccess [flags] <command> [args]

Global flags:
  -C, --cwd <dir>        Run as if started in <dir>
  -c, --config <file>    Use specified config file
      --base-dir <dir>   Resolve relative paths against <dir>
  -v, --verbose          Log debug output to stderr
  -h, --help             Show help

Commands:`)

	for _, c := range a.commands() {
		fprintln(w, c.HelpLine())
	}

	fprintln(w, `
Locators containing "://" are parsed as URLs (file:///tmp/x).
Anything else is a path; a trailing "/" names a directory.`)
}

func fprintln(w io.Writer, a ...any) {
	_, _ = fmt.Fprintln(w, a...)
}
