// Command pitlang runs a PitLang script, or drops into the REPL when
// invoked with no script argument.
package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"

	"pitlang/internal/config"
	"pitlang/internal/evaluator"
	"pitlang/internal/lexer"
	"pitlang/internal/object"
	"pitlang/internal/parser"
	"pitlang/internal/repl"
	"pitlang/internal/stdlib"
)

const version = "0.1.0"

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	fs := flag.NewFlagSet("pitlang", flag.ContinueOnError)
	var (
		help       = fs.Bool("help", false, "show usage")
		h          = fs.Bool("h", false, "show usage (shorthand)")
		showVer    = fs.Bool("version", false, "print version and exit")
		v          = fs.Bool("v", false, "print version and exit (shorthand)")
		root       = fs.String("root", "", "base directory for std.read_file/write_file")
		debugAST   = fs.Bool("debug-ast", false, "print the parsed AST as JSON instead of evaluating")
		logLevel   = fs.String("log-level", "info", "log level: trace, debug, info, warn, error, none")
		logFile    = fs.String("log-file", "", "write logs to this file instead of stderr")
		configPath = fs.String("config", "", "path to a pitlang.toml configuration file")
		sandbox    = fs.Bool("sandbox", false, "disable filesystem and database access from scripts")
	)
	fs.Usage = func() { printUsage(fs) }
	if err := fs.Parse(args); err != nil {
		return 2
	}

	if *help || *h {
		printUsage(fs)
		return 0
	}
	if *showVer || *v {
		fmt.Println("pitlang", version)
		return 0
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, "pitlang: loading config:", err)
		return 1
	}
	if *root != "" {
		cfg.Root = *root
	}
	if *sandbox {
		cfg.Sandbox = true
	}
	explicit := map[string]bool{}
	fs.Visit(func(f *flag.Flag) { explicit[f.Name] = true })
	if !explicit["log-level"] && cfg.LogLevel != "" {
		*logLevel = cfg.LogLevel
	}
	if *logFile == "" {
		*logFile = cfg.LogFile
	}

	logOut, closeLog, err := openLogOutput(*logFile)
	if err != nil {
		fmt.Fprintln(os.Stderr, "pitlang: opening log file:", err)
		return 1
	}
	defer closeLog()

	logger := slog.New(slog.NewJSONHandler(logOut, &slog.HandlerOptions{Level: parseLogLevel(*logLevel)}))
	slog.SetDefault(logger)

	scriptArgs := fs.Args()
	if len(scriptArgs) == 0 {
		logger.Info("starting repl")
		repl.Start(os.Stdin, os.Stdout)
		return 0
	}

	return runScript(scriptArgs[0], scriptArgs[1:], cfg, logger, *debugAST)
}

func runScript(path string, scriptArgs []string, cfg *config.Config, logger *slog.Logger, debugAST bool) int {
	logger.Info("running script", "path", path, "args", scriptArgs)
	source, err := os.ReadFile(path)
	if err != nil {
		logger.Error("reading script", "path", path, "error", err)
		fmt.Fprintln(os.Stderr, "pitlang:", err)
		return 1
	}

	p, err := parser.New(lexer.New(string(source)), path)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}

	program, err := p.ParseProgram()
	if err != nil {
		logger.Error("parsing script", "path", path, "error", err)
		fmt.Fprintln(os.Stderr, err)
		return 1
	}

	if debugAST {
		dump, err := parser.DumpAST(program)
		if err != nil {
			fmt.Fprintln(os.Stderr, "pitlang:", err)
			return 1
		}
		fmt.Println(dump)
		return 0
	}

	env := object.NewEnvironment()
	env.Define("std", stdlib.New(stdlib.Options{
		Argv:    append([]string{"pitlang", path}, scriptArgs...),
		Stdout:  os.Stdout,
		Stdin:   os.Stdin,
		Root:    cfg.Root,
		Sandbox: cfg.Sandbox,
		DBDSN:   cfg.DBDSN,
	}))

	eval := evaluator.New(path)
	result := eval.Eval(program, env)

	if errObj, ok := result.(*object.Error); ok {
		logger.Error("script failed", "kind", errObj.Kind, "message", errObj.Message)
		fmt.Fprintln(os.Stderr, errObj.Diagnostic(path))
		return 1
	}

	logger.Info("script finished", "path", path)
	return 0
}

func openLogOutput(path string) (*os.File, func(), error) {
	if path == "" {
		return os.Stderr, func() {}, nil
	}
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return nil, nil, err
	}
	return f, func() { f.Close() }, nil
}

func parseLogLevel(level string) slog.Level {
	switch level {
	case "trace":
		return slog.LevelDebug - 4
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	case "none":
		return slog.LevelError + 4
	default:
		return slog.LevelInfo
	}
}

func printUsage(fs *flag.FlagSet) {
	fmt.Fprintln(os.Stderr, "usage: pitlang [flags] [script.pit] [script args...]")
	fs.PrintDefaults()
}
