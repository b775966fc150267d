package main

import (
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/lewtec/partitura/internal/library"
	"github.com/lewtec/partitura/internal/setlist"
	"github.com/lewtec/partitura/internal/storage"
	"github.com/lewtec/partitura/viewer"
)

// exportCmd represents the export command
var exportCmd = &cobra.Command{
	Use:   "export <output.html>",
	Short: "Export the score library and setlists to an HTML page",
	Long: `Writes a standalone HTML page listing every indexed score and the
saved setlists, for printing or sharing.

Example: partitura export -d ~/scores repertoire.html`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		output := args[0]

		cfg, appDir, err := loadSetup(cmd, nil)
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

		lists := setlist.NewManager(storage.NewOS(nil), filepath.Join(appDir, "setlists.json"))
		lists.Load()

		data := viewer.ExportData{Scores: scores}
		data.Title, _ = cmd.Flags().GetString("title")
		data.Notes, _ = cmd.Flags().GetString("notes")
		for _, name := range lists.Names() {
			data.Setlists = append(data.Setlists, viewer.ExportSetlist{
				Name:    name,
				Entries: lists.Entries(name),
			})
		}

		exporter, err := viewer.NewExporter()
		if err != nil {
			return fmt.Errorf("failed to load export templates: %w", err)
		}

		f, err := os.Create(output)
		if err != nil {
			return fmt.Errorf("failed to create %s: %w", output, err)
		}
		if err := exporter.WriteLibrary(f, data); err != nil {
			f.Close()
			return fmt.Errorf("failed to render %s: %w", output, err)
		}
		if err := f.Close(); err != nil {
			return err
		}

		log.Printf("Exported %d scores to %s", len(scores), output)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(exportCmd)

	exportCmd.Flags().String("title", "", "Page title")
	exportCmd.Flags().String("notes", "", "Markdown notes shown at the top of the page")
}
