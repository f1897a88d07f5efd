package cli

import (
	"bufio"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/peterh/liner"
	flag "github.com/spf13/pflag"

	"github.com/calvinalkan/urlaccess/pkg/urlaccess"
)

const shellPrompt = "urlaccess> "

// ShellCmd returns the interactive shell command.
func ShellCmd(a *app) *Command {
	return &Command{
		Flags: flag.NewFlagSet("shell", flag.ContinueOnError),
		Usage: "shell",
		Short: "Run commands interactively",
		Long: `Read commands line by line and run them against the same
configuration. Type "help" for the command list, "exit" to leave.
Stdin carries the commands, so "put" can only create directories here.

On a terminal the shell offers line editing, completion and history
(stored in $XDG_STATE_HOME/urlaccess/history or ~/.urlaccess_history).`,
		Exec: func(ctx context.Context, o *IO, _ []string) error {
			return runShell(ctx, a, o)
		},
	}
}

// prompter reads one line of input.
type prompter interface {
	Prompt(prompt string) (string, error)
	AppendHistory(item string)
}

// scanPrompter reads lines from a non-terminal reader. It echoes nothing.
type scanPrompter struct {
	sc *bufio.Scanner
}

func (p *scanPrompter) Prompt(string) (string, error) {
	if !p.sc.Scan() {
		if err := p.sc.Err(); err != nil {
			return "", err
		}

		return "", io.EOF
	}

	return p.sc.Text(), nil
}

func (p *scanPrompter) AppendHistory(string) {}

// errShellStdin is returned to commands that read stdin inside the shell,
// where stdin carries the commands themselves.
var errShellStdin = errors.New("stdin is not available inside the shell")

type shellStdin struct{}

func (shellStdin) Read([]byte) (int, error) { return 0, errShellStdin }

func runShell(ctx context.Context, a *app, o *IO) error {
	var p prompter

	if f, ok := a.in.(*os.File); ok && f == os.Stdin && liner.TerminalSupported() {
		state := liner.NewLiner()
		defer func() { _ = state.Close() }()

		state.SetCtrlCAborts(true)
		state.SetCompleter(shellCompleter)

		history := historyFile(a.env)
		loadHistory(state, history)

		defer saveHistory(state, history)

		p = state
	} else {
		p = &scanPrompter{sc: bufio.NewScanner(a.in)}
	}

	inner := *a
	inner.in = shellStdin{}

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		line, err := p.Prompt(shellPrompt)
		if err != nil {
			if errors.Is(err, liner.ErrPromptAborted) || errors.Is(err, io.EOF) {
				return nil
			}

			return err
		}

		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		p.AppendHistory(line)

		fields := strings.Fields(line)

		switch fields[0] {
		case "exit", "quit":
			return nil
		case "help":
			printShellHelp(a, o)

			continue
		case "shell":
			o.ErrPrintln("error: already in a shell")

			continue
		}

		cmd, ok := findCommand(inner.commands(), fields[0])
		if !ok {
			o.ErrPrintln("error: unknown command:", fields[0])

			continue
		}

		cmd.Run(ctx, o, fields[1:])
		o.Finish()
	}
}

func printShellHelp(a *app, o *IO) {
	o.Println("Commands:")

	for _, c := range a.commands() {
		if c.Name() == "shell" {
			continue
		}

		o.Println(c.HelpLine())
	}

	o.Println(`  exit                           Leave the shell`)
}

// shellCompleter completes command names for the first word and property
// keys for later words.
func shellCompleter(line string) []string {
	words := strings.Fields(line)
	trailingSpace := strings.HasSuffix(line, " ")

	var candidates []string

	prefix := ""
	head := ""

	if len(words) == 0 || (len(words) == 1 && !trailingSpace) {
		for _, c := range (&app{}).commands() {
			if c.Name() != "shell" {
				candidates = append(candidates, c.Name())
			}
		}

		candidates = append(candidates, "help", "exit")

		if len(words) == 1 {
			prefix = words[0]
		}
	} else {
		for _, k := range urlaccess.FileKeys() {
			candidates = append(candidates, k.String())
		}

		if !trailingSpace {
			prefix = words[len(words)-1]
			words = words[:len(words)-1]
		}

		head = strings.Join(words, " ") + " "
	}

	var out []string

	for _, c := range candidates {
		if strings.HasPrefix(strings.ToLower(c), strings.ToLower(prefix)) {
			out = append(out, head+c)
		}
	}

	return out
}

// historyFile returns the path of the shell history, or "" when no home
// directory is known.
func historyFile(env map[string]string) string {
	if state := env["XDG_STATE_HOME"]; state != "" {
		return filepath.Join(state, "urlaccess", "history")
	}

	if home := env["HOME"]; home != "" {
		return filepath.Join(home, ".urlaccess_history")
	}

	return ""
}

func loadHistory(state *liner.State, path string) {
	if path == "" {
		return
	}

	f, err := os.Open(path)
	if err != nil {
		return
	}

	defer func() { _ = f.Close() }()

	_, _ = state.ReadHistory(f)
}

func saveHistory(state *liner.State, path string) {
	if path == "" {
		return
	}

	_ = os.MkdirAll(filepath.Dir(path), 0o750)

	f, err := os.Create(path)
	if err != nil {
		return
	}

	defer func() { _ = f.Close() }()

	_, _ = state.WriteHistory(f)
}
