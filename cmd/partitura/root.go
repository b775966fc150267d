package main

import (
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/lewtec/partitura/internal/library"
	"github.com/lewtec/partitura/viewer"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "partitura [scores-folder]",
	Short: "Annotate and organize PDF music scores",
	Long: strings.TrimSpace(`
Keeps a library of PDF scores with handwritten-style ink and text
annotations stored next to each file, plus setlists for performances.
Scores are named "Composer - Title -- tag1 tag2.pdf"; folder names
become tags too.
    `),
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, appDir, err := loadSetup(cmd, args)
		if err != nil {
			return err
		}

		ix, err := library.OpenIndex(filepath.Join(appDir, "library.db"))
		if err != nil {
			return fmt.Errorf("failed to open library index: %w", err)
		}
		defer ix.Close()

		scores, err := ix.Refresh(cmd.Context(), cfg.ScanDir)
		if err != nil {
			return fmt.Errorf("failed to scan %s: %w", cfg.ScanDir, err)
		}
		library.Sort(scores, cfg.SortByTitle)

		log.Printf("Library: %s", cfg.ScanDir)
		log.Printf("Scores indexed: %d", len(scores))
		for _, s := range scores {
			line := s.Title
			if s.Composer != "" {
				line = s.Composer + ": " + line
			}
			if tags := s.TagList(); len(tags) > 0 {
				line += " [" + strings.Join(tags, " ") + "]"
			}
			fmt.Fprintln(cmd.OutOrStdout(), line)
		}
		return nil
	},
}

// loadSetup resolves the application directory, applies logging flags and
// returns the effective configuration. A config file is created on first
// run so the user has something to edit.
func loadSetup(cmd *cobra.Command, args []string) (*viewer.Config, string, error) {
	if logFile, _ := cmd.Flags().GetString("log-file"); logFile != "" {
		f, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, "", fmt.Errorf("failed to open log file: %w", err)
		}
		log.SetOutput(f)
	}
	verbose, _ := cmd.Flags().GetBool("verbose")
	debug, _ := cmd.Flags().GetBool("debug")
	if debug {
		log.SetFlags(log.LstdFlags | log.Lshortfile)
	} else if !verbose {
		log.SetOutput(io.Discard)
	}

	appDir, err := applicationDir(cmd)
	if err != nil {
		return nil, "", err
	}

	configFile := filepath.Join(appDir, "config.yaml")
	if _, err := os.Stat(configFile); os.IsNotExist(err) {
		log.Printf("Creating default config: %s", configFile)
		if err := viewer.SaveDefaultConfig(configFile); err != nil {
			return nil, "", fmt.Errorf("failed to create config: %w", err)
		}
	}
	cfg, err := viewer.LoadConfig(configFile)
	if err != nil {
		return nil, "", fmt.Errorf("failed to load config: %w", err)
	}

	if len(args) == 1 {
		cfg.ScanDir = args[0]
	} else if dir, _ := cmd.Flags().GetString("dir"); dir != "" {
		cfg.ScanDir = dir
	}
	if cfg.ScanDir == "" {
		return nil, "", fmt.Errorf("no scores folder: pass one as argument, with --dir, or set scan_dir in %s", configFile)
	}
	if stat, err := os.Stat(cfg.ScanDir); err != nil || !stat.IsDir() {
		return nil, "", fmt.Errorf("scores folder is not a directory: %s", cfg.ScanDir)
	}

	if cmd.Flags().Changed("title-first") {
		cfg.SortByTitle, _ = cmd.Flags().GetBool("title-first")
	}
	return cfg, appDir, nil
}

// applicationDir returns the directory holding config, library index and
// setlists, creating it when missing.
func applicationDir(cmd *cobra.Command) (string, error) {
	if dir, _ := cmd.Flags().GetString("app-dir"); dir != "" {
		return dir, os.MkdirAll(dir, 0o755)
	}
	base, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("failed to locate config dir: %w", err)
	}
	dir := filepath.Join(base, "partitura")
	return dir, os.MkdirAll(dir, 0o755)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		log.SetOutput(os.Stderr)
		log.Fatalf("Error executing command: %v", err)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Log progress information")
	rootCmd.PersistentFlags().BoolP("debug", "D", false, "Log with file and line information")
	rootCmd.PersistentFlags().StringP("log-file", "l", "", "Append logs to this file instead of stderr")
	rootCmd.PersistentFlags().StringP("dir", "d", "", "Scores folder to scan")
	rootCmd.PersistentFlags().BoolP("title-first", "t", false, "Sort the library by title before composer")
	rootCmd.PersistentFlags().String("app-dir", "", "Application data directory (default: user config dir)")
	rootCmd.PersistentFlags().MarkHidden("app-dir")
}
