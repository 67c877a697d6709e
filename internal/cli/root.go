// Package cli implements the pipefyctl command line.
package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/jamesprial/pipefy-mcp/internal/config"
	"github.com/jamesprial/pipefy-mcp/internal/pipefy"
	"github.com/jamesprial/pipefy-mcp/internal/storage"
)

// App holds the output streams and the Manager factory shared by every
// command.
type App struct {
	Out io.Writer
	Err io.Writer
	// NewManager builds the client from the loaded configuration.
	NewManager func(ctx context.Context, cfg *config.Config, logger *log.Logger) (pipefy.Manager, error)

	configPath string
	asJSON     bool
}

// NewApp returns an App writing to stdout and stderr.
func NewApp() *App {
	return &App{Out: os.Stdout, Err: os.Stderr, NewManager: DefaultManager}
}

// DefaultManager builds a pipefy.Client, with an S3 object source when one
// is configured.
func DefaultManager(ctx context.Context, cfg *config.Config, logger *log.Logger) (pipefy.Manager, error) {
	var objects pipefy.ObjectSource
	if storage.Enabled(cfg.Storage.S3) {
		src, err := storage.NewS3Source(ctx, cfg.Storage.S3)
		if err != nil {
			return nil, err
		}
		objects = src
	}
	return pipefy.NewClientFromConfig(cfg.Pipefy, objects, logger)
}

// NewRootCmd assembles the pipefyctl command tree.
func NewRootCmd(app *App) *cobra.Command {
	root := &cobra.Command{
		Use:   "pipefyctl",
		Short: "Command line client for the Pipefy GraphQL API",
		Long: `pipefyctl runs single Pipefy operations from the shell: reading and
moving cards, searching tables, clearing pipes and uploading attachments.

Configuration is read from --config (or PIPEFY_MCP_CONFIG_PATH) and the
PIPEFY_API_TOKEN, PIPEFY_ORGANIZATION_ID, PIPEFY_GRAPHQL_URL and
PIPEFY_LOG_TABLE environment variables.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetOut(app.Out)
	root.SetErr(app.Err)
	root.PersistentFlags().StringVarP(&app.configPath, "config", "c", os.Getenv("PIPEFY_MCP_CONFIG_PATH"), "Path to a YAML or TOML config file")
	root.PersistentFlags().BoolVar(&app.asJSON, "json", false, "Print results as JSON")

	root.AddCommand(newCardCmd(app), newPipeCmd(app), newTableCmd(app), newUploadCmd(app))
	return root
}

// Execute runs pipefyctl with os.Args.
func Execute() error {
	return NewRootCmd(NewApp()).Execute()
}

// manager loads configuration and builds the Manager.
func (a *App) manager(cmd *cobra.Command) (pipefy.Manager, error) {
	cfg := config.DefaultConfig()
	if a.configPath != "" {
		loaded, err := config.LoadConfig(a.configPath)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}
	config.ApplyEnvOverrides(cfg)
	return a.NewManager(cmd.Context(), cfg, log.New(a.Err, "pipefyctl: ", 0))
}

func (a *App) ok(format string, args ...any) {
	color.New(color.FgGreen).Fprintf(a.Out, format+"\n", args...)
}

func (a *App) warn(format string, args ...any) {
	color.New(color.FgYellow).Fprintf(a.Out, format+"\n", args...)
}

func (a *App) printJSON(v any) error {
	enc := json.NewEncoder(a.Out)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encode output: %w", err)
	}
	return nil
}

// printBulk reports a bulk delete and returns its joined failure error.
func (a *App) printBulk(what string, result *pipefy.BulkResult, err error) error {
	if result != nil {
		a.ok("deleted %d %s", result.Deleted(), what)
		for _, o := range result.Failed() {
			color.New(color.FgRed).Fprintf(a.Out, "failed %s: %v\n", o.ID, o.Err)
		}
	}
	if err != nil {
		return err
	}
	if result != nil {
		return result.Err()
	}
	return nil
}

// requireYes refuses destructive commands without --yes.
func requireYes(cmd *cobra.Command, action string) error {
	yes, _ := cmd.Flags().GetBool("yes")
	if !yes {
		return fmt.Errorf("refusing to %s without --yes", action)
	}
	return nil
}
