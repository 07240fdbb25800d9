package main

import (
	"embed"
	"fmt"
	"os"
	"path/filepath"

	"github.com/nao1215/proxycheck/internal/config"
	"github.com/spf13/cobra"
)

//go:embed templates/proxycheck.yaml
var configTemplate embed.FS

const configTemplatePath = "templates/proxycheck.yaml"

// NewInitCmd creates the init command.
func NewInitCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Initialize a new proxycheck configuration file",
		Long: `Initialize creates a new .proxycheck.yaml configuration file in the current directory.

The generated file lists every option with its default value:
- Worker count, per-attempt timeout and retry policy
- Test endpoints and HTTPS behavior
- Proxy scheme and User-Agent

Examples:
  # Create .proxycheck.yaml in current directory
  proxycheck init

  # Create config file at a specific path
  proxycheck init -o ~/.config/proxycheck/config.yaml

  # Force overwrite existing file
  proxycheck init -f`,
		Args: cobra.NoArgs,
		RunE: runInitCmd,
	}

	cmd.Flags().StringP("output", "o", config.DefaultConfigFile,
		"Output file path for the configuration")
	cmd.Flags().BoolP("force", "f", false,
		"Overwrite existing configuration file")

	return cmd
}

// runInitCmd executes the init command.
func runInitCmd(cmd *cobra.Command, _ []string) error {
	outputPath, err := cmd.Flags().GetString("output")
	if err != nil {
		return err
	}

	force, err := cmd.Flags().GetBool("force")
	if err != nil {
		return err
	}

	if !force {
		if _, err := os.Stat(outputPath); err == nil {
			return fmt.Errorf("configuration file already exists: %s (use -f to overwrite)", outputPath)
		}
	}

	content, err := configTemplate.ReadFile(configTemplatePath)
	if err != nil {
		return fmt.Errorf("failed to read config template: %w", err)
	}

	dir := filepath.Dir(outputPath)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
	}

	if err := os.WriteFile(outputPath, content, 0600); err != nil {
		return fmt.Errorf("failed to write configuration file: %w", err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Created configuration file: %s\n", outputPath)
	fmt.Fprintln(out, "\nEdit this file to adjust settings such as:")
	fmt.Fprintln(out, "  - Number of concurrent probes")
	fmt.Fprintln(out, "  - Timeout and retry policy")
	fmt.Fprintln(out, "  - Test endpoints")

	return nil
}
