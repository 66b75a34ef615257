package cmd

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/luminastro/lumina/internal/app"
	"github.com/luminastro/lumina/internal/config"
)

var ingestCmd = &cobra.Command{
	Use:   "ingest <report-id> [file]",
	Short: "Chunk and embed a report into the knowledge store",
	Long: `Reads a report from the given file (or stdin when omitted or "-"),
splits it into chunks, embeds each chunk and stores the vectors.
Re-ingesting a report id overwrites its previous chunks.`,
	Args: cobra.RangeArgs(1, 2),
	RunE: runIngest,
}

var removeCmd = &cobra.Command{
	Use:   "remove <report-id>",
	Short: "Delete a report's chunks from the knowledge store",
	Args:  cobra.ExactArgs(1),
	RunE:  runRemove,
}

func init() {
	rootCmd.AddCommand(ingestCmd)
	rootCmd.AddCommand(removeCmd)
}

func runIngest(cmd *cobra.Command, args []string) error {
	reportID := args[0]

	var text []byte
	var err error
	if len(args) < 2 || args[1] == "-" {
		text, err = io.ReadAll(os.Stdin)
	} else {
		text, err = os.ReadFile(args[1])
	}
	if err != nil {
		return fmt.Errorf("reading report: %w", err)
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	ctx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	a, err := app.Setup(ctx, cfg, slog.Default())
	if err != nil {
		return fmt.Errorf("initializing application: %w", err)
	}
	defer func() {
		if closeErr := a.Close(); closeErr != nil {
			slog.Warn("shutdown error", "error", closeErr)
		}
	}()

	n, err := a.Ingestor.Process(ctx, reportID, string(text))
	if err != nil {
		return fmt.Errorf("ingesting report: %w", err)
	}

	fmt.Printf("stored %d chunks for report %s\n", n, reportID)
	return nil
}

func runRemove(cmd *cobra.Command, args []string) error {
	reportID := args[0]

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	ctx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	a, err := app.Setup(ctx, cfg, slog.Default())
	if err != nil {
		return fmt.Errorf("initializing application: %w", err)
	}
	defer func() {
		if closeErr := a.Close(); closeErr != nil {
			slog.Warn("shutdown error", "error", closeErr)
		}
	}()

	if err := a.Ingestor.Remove(ctx, reportID); err != nil {
		return fmt.Errorf("removing report: %w", err)
	}

	fmt.Printf("removed report %s\n", reportID)
	return nil
}
