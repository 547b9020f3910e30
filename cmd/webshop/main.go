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

	"github.com/erazemk/webshop/internal/api"
	"github.com/erazemk/webshop/internal/auth"
	"github.com/erazemk/webshop/internal/config"
	"github.com/erazemk/webshop/internal/db"
	"github.com/erazemk/webshop/internal/model"
	"github.com/erazemk/webshop/internal/policy"
	"github.com/erazemk/webshop/internal/store"
)

// defaultConfigPath is read when present and no -config flag is given.
const defaultConfigPath = "webshop.yaml"

// levelRouter is a slog.Handler that routes INFO/WARN to stdout and ERROR+ to stderr.
type levelRouter struct {
	level  slog.Leveler
	stdout slog.Handler
	stderr slog.Handler
}

func (lr *levelRouter) Enabled(_ context.Context, level slog.Level) bool {
	return level >= lr.level.Level()
}

func (lr *levelRouter) Handle(ctx context.Context, r slog.Record) error {
	if r.Level >= slog.LevelError {
		return lr.stderr.Handle(ctx, r)
	}
	return lr.stdout.Handle(ctx, r)
}

func (lr *levelRouter) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &levelRouter{
		level:  lr.level,
		stdout: lr.stdout.WithAttrs(attrs),
		stderr: lr.stderr.WithAttrs(attrs),
	}
}

func (lr *levelRouter) WithGroup(name string) slog.Handler {
	return &levelRouter{
		level:  lr.level,
		stdout: lr.stdout.WithGroup(name),
		stderr: lr.stderr.WithGroup(name),
	}
}

// setupLogger configures structured logging. If logPath is non-empty, all
// levels are also written to that file. The returned cleanup closes the file.
func setupLogger(logPath string, level slog.Level) (func(), error) {
	opts := &slog.HandlerOptions{Level: level}

	cleanup := func() {}
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

	slog.SetDefault(slog.New(&levelRouter{
		level:  level,
		stdout: slog.NewTextHandler(stdoutW, opts),
		stderr: slog.NewTextHandler(stderrW, opts),
	}))
	return cleanup, nil
}

type flags struct {
	configPath string
	dbPath     string
	addr       string
	logPath    string
}

func parseFlags(args []string) (*flags, error) {
	fs := flag.NewFlagSet("webshop", flag.ContinueOnError)

	var f flags
	fs.StringVar(&f.configPath, "config", "", "")
	fs.StringVar(&f.configPath, "c", "", "")
	fs.StringVar(&f.dbPath, "db", "", "")
	fs.StringVar(&f.dbPath, "d", "", "")
	fs.StringVar(&f.addr, "addr", "", "")
	fs.StringVar(&f.addr, "a", "", "")
	fs.StringVar(&f.logPath, "log", "", "")
	fs.StringVar(&f.logPath, "l", "", "")

	fs.Usage = func() {
		fmt.Fprint(os.Stdout, `Usage: webshop [flags]

Flags:
  -c, -config <path>      YAML config file (default: webshop.yaml if present)
  -d, -db <path>          SQLite database path (default: webshop.sqlite3)
  -a, -addr <host:port>   listen address (default: :8080)
  -l, -log <path>         log file path (default: no file, stdout/stderr only)
  -h, -help               show this help and exit

Environment variables prefixed with WEBSHOP_ override the config file,
e.g. WEBSHOP_AUTH_JWTSECRET or WEBSHOP_POLICY_OPENWAREHOUSEWRITES.
`)
	}

	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if fs.NArg() > 0 {
		fs.Usage()
		return nil, fmt.Errorf("unexpected argument: %s", fs.Arg(0))
	}
	return &f, nil
}

// loadConfig reads the config file and applies command-line overrides.
func loadConfig(f *flags) (*config.Config, error) {
	path := f.configPath
	if path == "" && config.Exists(defaultConfigPath) {
		path = defaultConfigPath
	}

	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	if f.dbPath != "" {
		cfg.DB.Path = f.dbPath
	}
	if f.addr != "" {
		cfg.HTTP.Addr = f.addr
	}
	if f.logPath != "" {
		cfg.Log.Path = f.logPath
	}
	return cfg, nil
}

func main() {
	f, err := parseFlags(os.Args[1:])
	if err != nil {
		if err == flag.ErrHelp {
			os.Exit(0)
		}
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	cfg, err := loadConfig(f)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	level, err := cfg.SlogLevel()
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
	closeLog, err := setupLogger(cfg.Log.Path, level)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
	defer closeLog()

	if err := run(cfg); err != nil {
		slog.Error("server error", "error", err)
		closeLog()
		os.Exit(1)
	}
}

func run(cfg *config.Config) error {
	ctx := context.Background()

	database, err := db.Open(cfg.DB.Path)
	if err != nil {
		return err
	}
	defer database.Close()

	if err := db.EnsureSchema(database); err != nil {
		return fmt.Errorf("ensuring schema: %w", err)
	}
	slog.Info("database ready", "path", cfg.DB.Path)

	password, err := bootstrapUser(ctx, database, cfg)
	if err != nil {
		return err
	}
	if password != "" {
		printBootstrapResult(cfg.Bootstrap.Username, password)
	}

	secret := cfg.Auth.JWTSecret
	if secret == "" {
		if secret, err = store.GetJWTSecret(ctx, database); err != nil {
			return fmt.Errorf("loading JWT secret: %w", err)
		}
	}

	var policyOpts []policy.Option
	if cfg.Policy.OpenWarehouseWrites {
		policyOpts = append(policyOpts, policy.WithOpenWarehouseWrites())
		slog.Warn("warehouse writes are open to anonymous callers")
	}

	handler := api.NewRouter(database, api.Options{
		Signer:            auth.NewSigner(secret, cfg.Auth.TokenExpiry),
		Policy:            policy.New(policyOpts...),
		BcryptCost:        cfg.Auth.BcryptCost,
		MaxBodyBytes:      cfg.HTTP.MaxBodyBytes,
		MaxPhotoBytes:     cfg.Photos.MaxBytes,
		MaxPhotoDimension: cfg.Photos.MaxDimension,
	})

	server := &http.Server{
		Addr:              cfg.HTTP.Addr,
		Handler:           handler,
		ReadHeaderTimeout: cfg.HTTP.ReadHeaderTimeout,
		ReadTimeout:       cfg.HTTP.ReadTimeout,
		WriteTimeout:      cfg.HTTP.WriteTimeout,
		IdleTimeout:       cfg.HTTP.IdleTimeout,
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

	slog.Info("server started", "addr", cfg.HTTP.Addr)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}

	slog.Info("server stopped, closing database")
	return nil
}

// bootstrapUser creates the configured account when the database has no
// users and returns its generated password. It returns "" when users exist.
func bootstrapUser(ctx context.Context, database *sql.DB, cfg *config.Config) (string, error) {
	count, err := store.CountUsers(ctx, database)
	if err != nil {
		return "", err
	}
	if count > 0 {
		return "", nil
	}

	password, err := auth.GeneratePassword(16)
	if err != nil {
		return "", fmt.Errorf("generating password: %w", err)
	}
	hash, err := auth.HashPassword(password, cfg.Auth.BcryptCost)
	if err != nil {
		return "", err
	}

	user, err := store.CreateUser(ctx, database, &model.User{
		Username:     cfg.Bootstrap.Username,
		Email:        cfg.Bootstrap.Email,
		PasswordHash: hash,
	})
	if err != nil {
		return "", fmt.Errorf("creating bootstrap user: %w", err)
	}

	slog.Info("bootstrap user created", "id", user.ID, "username", user.Username)
	return password, nil
}

func printBootstrapResult(username, password string) {
	fmt.Println("Account created:")
	fmt.Printf("  Username: %s\n", username)
	fmt.Printf("  Password: %s\n", password)
	fmt.Println()
	fmt.Println("Save this password, it is shown only once.")
	fmt.Println("Change it with PUT /api/auth/password after logging in.")
	fmt.Println()
}
