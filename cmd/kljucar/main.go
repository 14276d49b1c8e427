package main

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jvidmar/kljucar/internal/api"
	"github.com/jvidmar/kljucar/internal/auth"
	"github.com/jvidmar/kljucar/internal/custody"
	"github.com/jvidmar/kljucar/internal/db"
	"github.com/jvidmar/kljucar/internal/model"
	"github.com/jvidmar/kljucar/internal/notify"
	"github.com/jvidmar/kljucar/internal/store"
)

// levelRouter is a slog.Handler that routes INFO/WARN to stdout and ERROR+ to stderr.
type levelRouter struct {
	stdout slog.Handler
	stderr slog.Handler
}

func (lr *levelRouter) Enabled(_ context.Context, level slog.Level) bool {
	return level >= slog.LevelInfo
}

func (lr *levelRouter) Handle(ctx context.Context, r slog.Record) error {
	if r.Level >= slog.LevelError {
		return lr.stderr.Handle(ctx, r)
	}
	return lr.stdout.Handle(ctx, r)
}

func (lr *levelRouter) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &levelRouter{
		stdout: lr.stdout.WithAttrs(attrs),
		stderr: lr.stderr.WithAttrs(attrs),
	}
}

func (lr *levelRouter) WithGroup(name string) slog.Handler {
	return &levelRouter{
		stdout: lr.stdout.WithGroup(name),
		stderr: lr.stderr.WithGroup(name),
	}
}

// setupLogger configures structured logging. INFO/WARN go to stdout, ERROR goes
// to stderr. If logPath is non-empty, all levels are also written to that file.
// Returns a cleanup function that closes the log file (if opened).
func setupLogger(logPath string) (func(), error) {
	opts := &slog.HandlerOptions{Level: slog.LevelInfo}

	var cleanup func()

	stdoutW := io.Writer(os.Stdout)
	stderrW := io.Writer(os.Stderr)

	if logPath != "" {
		f, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			return nil, fmt.Errorf("opening log file: %w", err)
		}
		cleanup = func() { f.Close() }
		stdoutW = io.MultiWriter(os.Stdout, f)
		stderrW = io.MultiWriter(os.Stderr, f)
	}

	handler := &levelRouter{
		stdout: slog.NewTextHandler(stdoutW, opts),
		stderr: slog.NewTextHandler(stderrW, opts),
	}
	slog.SetDefault(slog.New(handler))
	return cleanup, nil
}

func main() {
	if len(os.Args) > 1 && os.Args[1] == "token" {
		cmdToken(os.Args[2:])
		return
	}
	cmdServe(os.Args[1:])
}

func cmdServe(args []string) {
	fs := flag.NewFlagSet("kljucar", flag.ContinueOnError)

	var dbPath string
	fs.StringVar(&dbPath, "db", "kljucar.sqlite3", "")
	fs.StringVar(&dbPath, "d", "kljucar.sqlite3", "")

	var addr string
	fs.StringVar(&addr, "addr", ":8080", "")
	fs.StringVar(&addr, "a", ":8080", "")

	var webhook string
	fs.StringVar(&webhook, "webhook", "", "")
	fs.StringVar(&webhook, "w", "", "")

	var logPath string
	fs.StringVar(&logPath, "log", "", "")
	fs.StringVar(&logPath, "l", "", "")

	fs.Usage = func() {
		fmt.Fprint(os.Stdout, `Usage: kljucar [flags]
       kljucar token -id <actor> [-name <name>] [-role <role>] [-db <path>]

Flags:
  -d, -db <path>          SQLite database path (default: kljucar.sqlite3)
  -a, -addr <host:port>   listen address (default: :8080)
  -w, -webhook <url>      notification webhook URL (default: log only)
  -l, -log <path>         log file path (default: no file, stdout/stderr only)
  -h, -help               show this help and exit

The token subcommand mints a development JWT for an actor, signed with
the JWT secret stored in the database.
`)
	}

	if err := fs.Parse(args); err != nil {
		if err == flag.ErrHelp {
			os.Exit(0)
		}
		os.Exit(1)
	}

	if fs.NArg() > 0 {
		fmt.Fprintf(os.Stderr, "unexpected argument: %s\n", fs.Arg(0))
		fs.Usage()
		os.Exit(1)
	}

	// Set up structured logging: INFO/WARN → stdout, ERROR → stderr.
	// Optionally also write to a log file.
	closeLog, err := setupLogger(logPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
	if closeLog != nil {
		defer closeLog()
	}

	database, jwtSecret, err := openDatabase(dbPath)
	if err != nil {
		slog.Error("failed to open database", "error", err)
		os.Exit(1)
	}
	defer database.Close()

	slog.Info("database ready", "path", dbPath)

	service := custody.NewService(database, notify.New(webhook))
	handler := api.LoggingMiddleware(api.NewRouter(service, jwtSecret))

	server := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	// Graceful shutdown on SIGINT/SIGTERM.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-quit
		slog.Info("shutdown signal received", "signal", sig.String())

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := server.Shutdown(ctx); err != nil {
			slog.Error("server forced to shutdown", "error", err)
		}
	}()

	slog.Info("server started", "addr", addr)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		slog.Error("server error", "error", err)
		os.Exit(1)
	}

	slog.Info("server stopped, closing database")
}

// cmdToken mints a development JWT for an actor, signed with the secret
// stored in the database. The external identity provider issues tokens
// with the same claim shape in production.
func cmdToken(args []string) {
	fs := flag.NewFlagSet("token", flag.ExitOnError)
	dbPath := fs.String("db", "kljucar.sqlite3", "SQLite database path")
	actorID := fs.String("id", "", "actor id (required)")
	name := fs.String("name", "", "actor display name")
	role := fs.String("role", model.RoleUser, "actor role (admin or user)")
	fs.Parse(args)

	if *actorID == "" {
		fmt.Fprintln(os.Stderr, "Error: -id is required")
		os.Exit(1)
	}
	if *role != model.RoleAdmin && *role != model.RoleUser {
		fmt.Fprintf(os.Stderr, "Error: unknown role %q\n", *role)
		os.Exit(1)
	}

	database, jwtSecret, err := openDatabase(*dbPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	defer database.Close()

	token, err := auth.GenerateToken(jwtSecret, *actorID, *name, *role)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	fmt.Println(token)
}

// openDatabase opens (or creates) the database, ensures the schema and
// returns the persisted JWT secret.
func openDatabase(path string) (*sql.DB, string, error) {
	database, err := db.Open(path)
	if err != nil {
		return nil, "", fmt.Errorf("opening database: %w", err)
	}

	if err := db.Migrate(database); err != nil {
		database.Close()
		return nil, "", fmt.Errorf("running migrations: %w", err)
	}

	jwtSecret, err := store.GetJWTSecret(context.Background(), database)
	if err != nil {
		database.Close()
		return nil, "", fmt.Errorf("getting jwt secret: %w", err)
	}

	return database, jwtSecret, nil
}
