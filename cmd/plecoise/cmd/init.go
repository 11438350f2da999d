package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/f3rmion/plecoise/internal/config"
	"github.com/spf13/cobra"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize plecoise configuration",
	Long: `Write a config.yaml with the default settings to your config directory.

Edit it to point at a full CC-CEDICT file, pick the fields to convert, or
turn on CSS injection for every run.`,
	Args: cobra.NoArgs,
	RunE: runInit,
}

func init() {
	rootCmd.AddCommand(initCmd)
	initCmd.Flags().Bool("force", false, "overwrite existing configuration")
}

func runInit(cmd *cobra.Command, args []string) error {
	force, _ := cmd.Flags().GetBool("force")
	configDir := getConfigDir()
	path := filepath.Join(configDir, config.FileName)

	// Check if config already exists
	if _, err := os.Stat(path); err == nil && !force {
		return fmt.Errorf("config file already exists: %s\nUse --force to overwrite", path)
	}

	if err := config.EnsureConfigDir(configDir); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	if err := config.Save(path, config.Default()); err != nil {
		return err
	}

	fmt.Printf("Created %s\n", path)
	fmt.Println()
	fmt.Println("Next steps:")
	fmt.Println("  1. Download CC-CEDICT and set dictionary.path to it (the bundled subset is small)")
	fmt.Println("  2. Run 'plecoise inspect <deck.apkg>' to find the fields to convert")
	fmt.Println("  3. Run 'plecoise -f <deck.apkg> --dry-run' to preview the changes")

	return nil
}
