package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"chatprojects/internal/auth"
	"chatprojects/internal/config"
	"chatprojects/internal/repository/memory"
	"chatprojects/internal/repository/postgres"
	"chatprojects/internal/seed"
)

var (
	cfg    *config.Config
	logger *slog.Logger

	seedOpts = seed.DefaultOptions()
	dryRun   bool
	verbose  bool
)

// rootCmd is the seed tool entrypoint
var rootCmd = &cobra.Command{
	Use:   "seed",
	Short: "Create tables and demo data for local development",
	Long: `Create tables and demo data for local development.

Available subcommands:
  run    - Ensure the schema and seed a demo user, project and chat
  schema - Ensure the schema only
  reset  - Drop all tables for the configured prefix`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		_ = godotenv.Load()
		cfg = config.Load()

		level := slog.LevelInfo
		if verbose {
			level = slog.LevelDebug
		}
		logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	},
}

// runCmd seeds demo data
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Ensure the schema and seed demo data",
	RunE:  runSeed,
}

// schemaCmd only creates tables
var schemaCmd = &cobra.Command{
	Use:   "schema",
	Short: "Ensure the schema exists",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		pool, err := connect(ctx)
		if err != nil {
			return err
		}
		defer pool.Close()

		if err := postgres.EnsureSchema(ctx, pool, cfg.TablePrefix); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "schema ready (prefix %s)\n", cfg.TablePrefix)
		return nil
	},
}

// resetCmd drops every table for the prefix
var resetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Drop all tables for the configured prefix",
	RunE: func(cmd *cobra.Command, args []string) error {
		// Prevent destructive operations in production
		if cfg.Environment == "prod" {
			return fmt.Errorf("refusing to drop tables in production")
		}

		ctx := cmd.Context()
		pool, err := connect(ctx)
		if err != nil {
			return err
		}
		defer pool.Close()

		if err := postgres.DropSchema(ctx, pool, cfg.TablePrefix); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "dropped tables (prefix %s)\n", cfg.TablePrefix)
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Debug logging")

	runCmd.Flags().StringVar(&seedOpts.Email, "email", seedOpts.Email, "Demo user email")
	runCmd.Flags().StringVar(&seedOpts.Password, "password", seedOpts.Password, "Demo user password")
	runCmd.Flags().StringVar(&seedOpts.ProjectName, "project", seedOpts.ProjectName, "Demo project name")
	runCmd.Flags().StringVar(&seedOpts.BaseInstructions, "instructions", seedOpts.BaseInstructions, "Base instructions of the demo project")
	runCmd.Flags().StringVar(&seedOpts.ChatTitle, "chat", seedOpts.ChatTitle, "Demo chat title")
	runCmd.Flags().BoolVar(&seedOpts.WithHistory, "history", seedOpts.WithHistory, "Add a sample exchange to the chat")
	runCmd.Flags().BoolVar(&dryRun, "dry-run", false, "Seed an in-memory store instead of the database")

	rootCmd.AddCommand(runCmd, schemaCmd, resetCmd)
}

func main() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}

func runSeed(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	hasher := auth.NewBcryptHasher(cfg.BcryptCost)

	var seeder *seed.Seeder
	if dryRun {
		store := memory.NewStore()
		seeder = seed.NewSeeder(store.Users(), store.Projects(), store.Chats(), store.Messages(), store, hasher, logger)
	} else {
		pool, err := connect(ctx)
		if err != nil {
			return err
		}
		defer pool.Close()

		if err := postgres.EnsureSchema(ctx, pool, cfg.TablePrefix); err != nil {
			return err
		}

		repoConfig := &postgres.RepositoryConfig{
			Pool:   pool,
			Tables: postgres.NewTableNames(cfg.TablePrefix),
			Logger: logger,
		}
		seeder = seed.NewSeeder(
			postgres.NewUserRepository(repoConfig),
			postgres.NewProjectRepository(repoConfig),
			postgres.NewChatRepository(repoConfig),
			postgres.NewMessageRepository(repoConfig),
			postgres.NewTransactionManager(pool, logger),
			hasher,
			logger,
		)
	}

	result, err := seeder.Seed(ctx, seedOpts)
	if err != nil {
		return fmt.Errorf("seed: %w", err)
	}

	printResult(cmd.OutOrStdout(), result)
	return nil
}

func connect(ctx context.Context) (*pgxpool.Pool, error) {
	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is not set")
	}
	pool, err := postgres.CreateConnectionPool(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}
	return pool, nil
}

func printResult(w io.Writer, r *seed.Result) {
	status := "created"
	if r.UserExisted {
		status = "reused"
	}
	fmt.Fprintf(w, "user     %s (%s)\n", r.UserID, status)
	fmt.Fprintf(w, "project  %s\n", r.ProjectID)
	fmt.Fprintf(w, "chat     %s (%d messages)\n", r.ChatID, r.Messages)
	if !dryRun {
		fmt.Fprintf(w, "login with %s / %s\n", seedOpts.Email, seedOpts.Password)
	}
}
