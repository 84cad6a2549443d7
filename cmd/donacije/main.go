package main

import (
	"context"
	"crypto/rand"
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"math/big"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/erazemk/donacije/internal/api"
	"github.com/erazemk/donacije/internal/auth"
	"github.com/erazemk/donacije/internal/config"
	"github.com/erazemk/donacije/internal/db"
	"github.com/erazemk/donacije/internal/imaging"
	"github.com/erazemk/donacije/internal/metrics"
	"github.com/erazemk/donacije/internal/model"
	"github.com/erazemk/donacije/internal/service"
	"github.com/erazemk/donacije/internal/store"
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

// setupLogger configures structured logging. If logPath is non-empty, all
// levels are also written to that file. The returned cleanup closes it.
func setupLogger(logPath string) (func(), error) {
	opts := &slog.HandlerOptions{Level: slog.LevelInfo}

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
		stdout: slog.NewTextHandler(stdoutW, opts),
		stderr: slog.NewTextHandler(stderrW, opts),
	}))
	return cleanup, nil
}

func main() {
	fs := flag.NewFlagSet("donacije", flag.ContinueOnError)

	var configPath string
	fs.StringVar(&configPath, "config", "", "")
	fs.StringVar(&configPath, "c", "", "")

	var dbPath string
	fs.StringVar(&dbPath, "db", "", "")
	fs.StringVar(&dbPath, "d", "", "")

	var addr string
	fs.StringVar(&addr, "addr", "", "")
	fs.StringVar(&addr, "a", "", "")

	var staffUser string
	fs.StringVar(&staffUser, "user", "staff", "")
	fs.StringVar(&staffUser, "u", "staff", "")

	var logPath string
	fs.StringVar(&logPath, "log", "", "")
	fs.StringVar(&logPath, "l", "", "")

	fs.Usage = func() {
		fmt.Fprint(os.Stdout, `Usage: donacije [flags]

Flags:
  -c, -config <path>      YAML config file (default: none)
  -d, -db <path>          SQLite database path (default: donacije.sqlite3)
  -a, -addr <host:port>   listen address (default: :8080)
  -u, -user <name>        staff username created on first run (default: staff)
  -l, -log <path>         log file path (default: no file, stdout/stderr only)
  -h, -help               show this help and exit

Settings can also come from a .env file and DONACIJE_* environment variables.
Flags take precedence over both.
`)
	}

	if err := fs.Parse(os.Args[1:]); err != nil {
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

	cfg, err := config.Load(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
	if dbPath != "" {
		cfg.DB.Path = dbPath
	}
	if addr != "" {
		cfg.Server.Addr = addr
	}
	if logPath != "" {
		cfg.Log.Path = logPath
	}

	closeLog, err := setupLogger(cfg.Log.Path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
	defer closeLog()

	if err := run(cfg, staffUser); err != nil {
		slog.Error("server error", "error", err)
		closeLog()
		os.Exit(1)
	}
}

func run(cfg *config.Config, staffUser string) error {
	_, statErr := os.Stat(cfg.DB.Path)
	firstRun := errors.Is(statErr, os.ErrNotExist)

	database, err := db.Open(cfg.DB.Path)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer database.Close()

	if err := db.EnsureSchema(database); err != nil {
		return fmt.Errorf("ensuring database schema: %w", err)
	}

	st := db.NewStore(database, cfg.DB.MaxConns, cfg.DB.AcquireTimeout)
	if err := metrics.RegisterDB(database, "donacije"); err != nil {
		return fmt.Errorf("registering database metrics: %w", err)
	}

	if firstRun {
		password, err := createStaff(st, staffUser)
		if err != nil {
			database.Close()
			os.Remove(cfg.DB.Path)
			return fmt.Errorf("creating staff account: %w", err)
		}
		printInitResult(cfg.DB.Path, staffUser, password)
	}

	slog.Info("database ready", "path", cfg.DB.Path, "max_conns", cfg.DB.MaxConns)

	// A configured secret wins; otherwise one is generated and kept in the
	// database so tokens survive restarts.
	secret := cfg.Auth.JWTSecret
	if secret == "" {
		err := st.WithTx(context.Background(), func(tx *sql.Tx) error {
			secret, err = store.GetJWTSecret(context.Background(), tx)
			return err
		})
		if err != nil {
			return fmt.Errorf("loading JWT secret: %w", err)
		}
	}

	photos := imaging.Options{
		MaxDimension: cfg.Photos.MaxDimension,
		Quality:      cfg.Photos.Quality,
		MaxBytes:     cfg.Photos.MaxBytes,
	}

	router := api.NewRouter(api.Options{
		Store:        st,
		Services:     service.New(st, photos),
		Tokens:       auth.NewProvider(secret, cfg.Auth.TokenTTL),
		LoginLimiter: api.NewRateLimiter(cfg.Server.LoginRate, cfg.Server.LoginBurst),
		MaxUpload:    cfg.Photos.MaxBytes + 1<<20,
	})

	handler := api.LoggingMiddleware(
		http.TimeoutHandler(router, cfg.Server.RequestTimeout, `{"error":"request timed out"}`),
	)

	server := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      cfg.Server.RequestTimeout + 10*time.Second,
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

	slog.Info("server started", "addr", cfg.Server.Addr)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}

	slog.Info("server stopped, closing database")
	return nil
}

// createStaff creates the first staff account with a random password.
func createStaff(st *db.Store, username string) (string, error) {
	password, err := generatePassword(16)
	if err != nil {
		return "", fmt.Errorf("generating password: %w", err)
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return "", err
	}

	ctx := context.Background()
	err = st.WithTx(ctx, func(tx *sql.Tx) error {
		_, err := store.CreateUser(ctx, tx, model.User{
			Username:     username,
			FirstName:    "Staff",
			LastName:     "Account",
			PasswordHash: hash,
			Role:         model.RoleStaff,
		})
		return err
	})
	if err != nil {
		return "", err
	}
	return password, nil
}

// printInitResult prints the database initialization result to stdout.
func printInitResult(dbPath, username, password string) {
	fmt.Printf("Database created: %s\n", dbPath)
	fmt.Println("Schema initialized.")
	fmt.Println()
	fmt.Println("Staff account created:")
	fmt.Printf("  Username: %s\n", username)
	fmt.Printf("  Password: %s\n", password)
	fmt.Println()
	fmt.Println("Save this password. It cannot be recovered.")
	fmt.Println()
}

// generatePassword creates a random password of the given length.
func generatePassword(length int) (string, error) {
	const charset = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789!@#$%&*"
	result := make([]byte, length)
	for i := range result {
		n, err := rand.Int(rand.Reader, big.NewInt(int64(len(charset))))
		if err != nil {
			return "", err
		}
		result[i] = charset[n.Int64()]
	}
	return string(result), nil
}
