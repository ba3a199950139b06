/*
Copyright © 2026 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/myflix/apiserver/config"
	"github.com/myflix/apiserver/internal/services"
	"github.com/spf13/cobra"
)

// publishCmd represents the publish command.
var publishCmd = &cobra.Command{
	Use:   "publish <document.json>",
	Short: "Publish a catalog document to the ingest channel",
	Long: `Publishes a movie document (JSON) to the catalog channel for the
ingest consumer to pick up. The document is decoded locally first so obvious
mistakes fail before they reach the broker.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.LoadConfig()

		data, err := os.ReadFile(args[0])
		if err != nil {
			return fmt.Errorf("failed to read document: %w", err)
		}

		var doc services.MovieDocument
		if err := json.Unmarshal(data, &doc); err != nil {
			return fmt.Errorf("document is not valid JSON: %w", err)
		}
		if doc.Title == "" {
			return fmt.Errorf("document has no title")
		}

		broker, err := buildBroker(cmd.Context(), cfg.MQ)
		if err != nil {
			return fmt.Errorf("failed to connect to broker: %w", err)
		}
		defer broker.Close()

		messageID, err := broker.Publish(cmd.Context(), cfg.MQ.CatalogChannel, data, map[string]string{
			"title": doc.Title,
		})
		if err != nil {
			return fmt.Errorf("publish failed: %w", err)
		}

		fmt.Printf("published %q to %s (message %s)\n", doc.Title, cfg.MQ.CatalogChannel, messageID)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(publishCmd)
}
