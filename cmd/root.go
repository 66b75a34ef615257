// Package cmd provides the lumina CLI commands.
//
// Commands:
//   - serve: JSON API server for report Q&A
//   - ingest: chunk and embed a report into the knowledge store
//   - remove: delete a report's chunks
//   - version: build information
package cmd

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/luminastro/lumina/internal/log"
)

var rootCmd = &cobra.Command{
	Use:   "lumina",
	Short: "lumina - 紫微斗數報告問答服務",
	Long: `lumina 將紫微斗數命盤報告切塊、嵌入並存入向量資料庫，
讓使用者針對自己的報告提問並獲得有引用依據的回答。`,
	SilenceUsage: true,
}

// Execute runs the root command. Called once from main.
func Execute() error {
	level := slog.LevelInfo
	if os.Getenv("DEBUG") != "" {
		level = slog.LevelDebug
	}
	slog.SetDefault(log.New(log.Config{Level: level, JSON: os.Getenv("LUMINA_ENV") == "production"}))

	return rootCmd.Execute()
}
