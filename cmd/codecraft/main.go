// codecraft generates a single-file HTML UI component from a natural
// language description.
//
//	codecraft -framework html-tailwind -prompt "A pricing table with three plans" -save
//	codecraft -i
package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/xostack/codecraft"
	"github.com/xostack/codecraft/config"
	"github.com/xostack/codecraft/orchestrator"
	"github.com/xostack/codecraft/ratelimit"
	"github.com/xostack/codecraft/validate"
)

// DefaultOutputFile is the export name used when -save is given without -o.
const DefaultOutputFile = "CodeCraft-Component.html"

var errNoCode = errors.New("no code to download")

// CLIConfig holds command-line options.
type CLIConfig struct {
	ConfigFile     string
	EnvFile        string
	Prompt         string
	Framework      string
	Output         string
	Save           bool
	Interactive    bool
	Debug          bool
	ListFrameworks bool
	InitConfig     bool
}

// parseFlags parses args (without the program name).
func parseFlags(args []string) (CLIConfig, error) {
	var opts CLIConfig

	fs := flag.NewFlagSet("codecraft", flag.ContinueOnError)
	fs.StringVar(&opts.ConfigFile, "config", "", "Path to configuration file (default: XDG config path)")
	fs.StringVar(&opts.EnvFile, "env", ".env", "Path to .env file holding GOOGLE_API_KEY")
	fs.StringVar(&opts.Prompt, "prompt", "", "Description of the component to generate")
	fs.StringVar(&opts.Framework, "framework", "", "Framework: html-css, html-tailwind, html-bootstrap, html-css-js, html-tailwind-bootstrap")
	fs.StringVar(&opts.Output, "o", "", "Write the generated code to this file")
	fs.BoolVar(&opts.Save, "save", false, "Write the generated code to "+DefaultOutputFile)
	fs.BoolVar(&opts.Interactive, "i", false, "Interactive mode")
	fs.BoolVar(&opts.Debug, "debug", false, "Enable debug logging")
	fs.BoolVar(&opts.ListFrameworks, "list-frameworks", false, "List supported frameworks")
	fs.BoolVar(&opts.InitConfig, "init-config", false, "Write a default configuration file")

	if err := fs.Parse(args); err != nil {
		return CLIConfig{}, err
	}
	if opts.Prompt == "" && fs.NArg() > 0 {
		opts.Prompt = strings.Join(fs.Args(), " ")
	}
	if opts.Save && opts.Output == "" {
		opts.Output = DefaultOutputFile
	}
	return opts, nil
}

func setupLogger(debug bool) zerolog.Logger {
	level := zerolog.WarnLevel
	if debug {
		level = zerolog.DebugLevel
	}
	return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: "15:04:05"}).
		Level(level).
		With().Timestamp().Logger()
}

func loadConfig(path string) (config.Config, error) {
	if path != "" {
		return config.LoadFromFile(path)
	}
	return config.Load()
}

// app is the terminal front end for one session.
type app struct {
	orch      *orchestrator.Orchestrator
	limiter   *ratelimit.Limiter
	framework validate.Framework
	out       io.Writer
	errOut    io.Writer
	lastCode  string
}

func newApp(cfg config.Config, gen orchestrator.Generator, logger zerolog.Logger, out, errOut io.Writer) *app {
	a := &app{
		limiter:   ratelimit.New(cfg.RateLimit.Limit, cfg.RateLimit.Window()),
		framework: cfg.Framework(),
		out:       out,
		errOut:    errOut,
	}
	a.orch = orchestrator.New(a.limiter, gen, cfg.Credential,
		orchestrator.WithLogger(logger),
		orchestrator.WithObserver(a.render))
	return a
}

// render prints state transitions the way a UI would swap views.
func (a *app) render(s orchestrator.State) {
	switch st := s.(type) {
	case orchestrator.Loading:
		fmt.Fprintf(a.errOut, "⏳ Generating %s component...\n", a.framework.Label())
	case orchestrator.Ready:
		fmt.Fprintf(a.errOut, "✅ Component generated successfully! (%d bytes)\n", len(st.Code))
	case orchestrator.Failed:
		fmt.Fprintf(a.errOut, "❌ %v\n", st.Err)
		if codecraft.KindOf(st.Err) == codecraft.RateLimited {
			fmt.Fprintf(a.errOut, "   Try again in %s.\n", a.limiter.RetryAfter().Round(time.Second))
		}
	}
}

// generate submits one prompt and prints the code on success.
func (a *app) generate(ctx context.Context, prompt string) error {
	code, err := a.orch.Submit(ctx, prompt, a.framework)
	if err != nil {
		return err
	}
	a.lastCode = code
	fmt.Fprintln(a.out, code)
	return nil
}

// handleCommand runs a ":" command. It reports whether the session should end.
func (a *app) handleCommand(line string) (bool, error) {
	fields := strings.Fields(strings.TrimPrefix(line, ":"))
	if len(fields) == 0 {
		return false, nil
	}

	switch fields[0] {
	case "quit", "q", "exit":
		return true, nil
	case "framework", "f":
		if len(fields) < 2 {
			fmt.Fprintf(a.errOut, "Current framework: %s (%s)\n", a.framework, a.framework.Label())
			return false, nil
		}
		f, err := validate.ParseFramework(fields[1])
		if err != nil {
			return false, err
		}
		a.framework = f
		fmt.Fprintf(a.errOut, "Framework set to %s\n", f.Label())
	case "frameworks":
		printFrameworks(a.errOut)
	case "save", "s":
		path := DefaultOutputFile
		if len(fields) > 1 {
			path = fields[1]
		}
		if err := writeArtifact(path, a.lastCode); err != nil {
			return false, err
		}
		fmt.Fprintf(a.errOut, "File saved to %s\n", path)
	case "show":
		if strings.TrimSpace(a.lastCode) == "" {
			return false, errors.New("no code to show")
		}
		fmt.Fprintln(a.out, a.lastCode)
	case "reset", "new":
		a.orch.Reset()
		a.lastCode = ""
		fmt.Fprintln(a.errOut, "Ready for a new component.")
	case "help", "h":
		printHelp(a.errOut)
	default:
		return false, fmt.Errorf("unknown command :%s (try :help)", fields[0])
	}
	return false, nil
}

// repl reads descriptions and commands line by line until EOF or :quit.
func (a *app) repl(ctx context.Context, in io.Reader) error {
	fmt.Fprintf(a.errOut, "codecraft interactive mode (framework: %s). Type :help for commands.\n", a.framework.Label())
	scanner := bufio.NewScanner(in)
	for {
		fmt.Fprint(a.errOut, "> ")
		if !scanner.Scan() {
			break
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}

		line := strings.TrimSpace(scanner.Text())
		switch {
		case line == "":
			continue
		case strings.HasPrefix(line, ":"):
			quit, err := a.handleCommand(line)
			if err != nil {
				fmt.Fprintf(a.errOut, "❌ %v\n", err)
			}
			if quit {
				return nil
			}
		default:
			// Failures are already rendered by the observer.
			_ = a.generate(ctx, line)
		}
	}
	return scanner.Err()
}

// writeArtifact exports code to path. An empty artifact is refused.
func writeArtifact(path, code string) error {
	if strings.TrimSpace(code) == "" {
		return errNoCode
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
	}
	if err := os.WriteFile(path, []byte(code), 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}

func printFrameworks(w io.Writer) {
	fmt.Fprintln(w, "Supported frameworks:")
	for _, f := range validate.Frameworks() {
		fmt.Fprintf(w, "  %-24s %s\n", f, f.Label())
	}
}

func printHelp(w io.Writer) {
	fmt.Fprintln(w, `Type a component description to generate it, or a command:
  :framework <name>   switch framework (:frameworks lists them)
  :save [file]        write the last component to a file (default `+DefaultOutputFile+`)
  :show               print the last component again
  :reset              start a new component
  :quit               leave`)
}

func run(ctx context.Context, opts CLIConfig, stdin io.Reader, stdout, stderr io.Writer) error {
	if opts.ListFrameworks {
		printFrameworks(stdout)
		return nil
	}

	if opts.InitConfig {
		path := opts.ConfigFile
		if path == "" {
			p, err := config.GetConfigFilePath()
			if err != nil {
				return err
			}
			path = p
		}
		if err := config.Save(path, config.Default()); err != nil {
			return err
		}
		fmt.Fprintf(stderr, "Default configuration written to %s\n", path)
		return nil
	}

	if err := config.LoadEnv(opts.EnvFile); err != nil {
		return err
	}
	cfg, err := loadConfig(opts.ConfigFile)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if opts.Framework != "" {
		if _, err := validate.ParseFramework(opts.Framework); err != nil {
			return err
		}
		cfg.DefaultFramework = opts.Framework
	}

	logger := setupLogger(opts.Debug)
	client := codecraft.NewFromConfig(cfg, logger)
	defer client.Close()

	a := newApp(cfg, client, logger, stdout, stderr)
	logger.Debug().Str("session", a.orch.SessionID()).Str("model", cfg.Model).Msg("session started")

	if opts.Interactive {
		return a.repl(ctx, stdin)
	}

	if strings.TrimSpace(opts.Prompt) == "" {
		return errors.New("no prompt given: use -prompt, pass a description as arguments, or -i")
	}
	if err := a.generate(ctx, opts.Prompt); err != nil {
		return err
	}
	if opts.Output != "" {
		if err := writeArtifact(opts.Output, a.lastCode); err != nil {
			return err
		}
		fmt.Fprintf(stderr, "File saved to %s\n", opts.Output)
	}
	return nil
}

func main() {
	opts, err := parseFlags(os.Args[1:])
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return
		}
		os.Exit(2)
	}

	log.Logger = setupLogger(opts.Debug)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, opts, os.Stdin, os.Stdout, os.Stderr); err != nil {
		// Generation failures were already shown by the state view.
		if codecraft.KindOf(err) == 0 {
			log.Error().Err(err).Msg("codecraft failed")
		}
		os.Exit(1)
	}
}
