// Package main provides the fusionmcp CLI entry point.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/richinex/fusionmcp/cli"
	"github.com/richinex/fusionmcp/schema"
	"github.com/spf13/cobra"
)

var (
	// Global flags
	configPath string
	verbose    bool
)

func main() {
	// Load .env file if present (ignore "file not found" errors)
	if err := godotenv.Load(); err != nil {
		if !os.IsNotExist(err) {
			fmt.Fprintf(os.Stderr, "Warning: failed to load .env file: %v\n", err)
		}
	}

	rootCmd := &cobra.Command{
		Use:   "fusionmcp",
		Short: "Bridge server between a CAD add-in and LLM providers",
		Long: `fusionmcp turns natural-language design requests into structured CAD actions.

It accepts design commands over HTTP, dispatches them to a configured LLM
provider (ollama, openai, gemini, claude), walks a fallback chain when the
primary provider fails, and returns typed actions the add-in can execute.`,
	}

	// Global flags
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path to config.json (default: ./config.json)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Debug logging")

	// Add commands
	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(askCmd())
	rootCmd.AddCommand(modelsCmd())
	rootCmd.AddCommand(healthCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func options() cli.Options {
	return cli.Options{
		ConfigPath: configPath,
		Verbose:    verbose,
	}
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the bridge HTTP server",
		Long: `Run the HTTP server the CAD add-in talks to.

The server accepts design commands on POST /mcp/command, records executor
outcomes on POST /mcp/execute_action, and exposes health, model listing,
history and Prometheus metrics endpoints. It shuts down gracefully on
SIGINT/SIGTERM.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cli.Serve(context.Background(), options())
		},
	}
}

func askCmd() *cobra.Command {
	var (
		provider    string
		model       string
		temperature float64
		maxTokens   int
	)

	cmd := &cobra.Command{
		Use:   "ask [prompt]",
		Short: "Send one design prompt and print the response envelope",
		Long: `Send a single design prompt through the command router and print the
response envelope as JSON.

Without flags the configured default model is used. The response includes
the typed actions, the provider that answered, and generation metadata.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			params := cli.AskParams{
				Provider:    provider,
				Model:       model,
				Temperature: temperature,
				MaxTokens:   maxTokens,
			}
			return cli.Ask(context.Background(), args[0], params, options())
		},
	}

	cmd.Flags().StringVarP(&provider, "provider", "p", "", "LLM provider (ollama, openai, gemini, claude)")
	cmd.Flags().StringVarP(&model, "model", "m", "", "Model name (default from settings)")
	cmd.Flags().Float64VarP(&temperature, "temperature", "t", schema.DefaultTemperature, "Sampling temperature")
	cmd.Flags().IntVar(&maxTokens, "max-tokens", schema.DefaultMaxTokens, "Response token cap")

	return cmd
}

func modelsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "models",
		Short: "List models advertised by each configured provider",
		RunE: func(cmd *cobra.Command, args []string) error {
			return cli.Models(context.Background(), options())
		},
	}
}

func healthCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Report configured provider readiness",
		RunE: func(cmd *cobra.Command, args []string) error {
			return cli.Health(context.Background(), options())
		},
	}
}
