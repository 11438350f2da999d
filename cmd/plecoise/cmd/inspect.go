package cmd

import (
	"fmt"
	"sort"

	"github.com/f3rmion/plecoise/internal/anki"
	"github.com/f3rmion/plecoise/internal/annotate"
	"github.com/f3rmion/plecoise/internal/tui"
	"github.com/spf13/cobra"
)

var inspectCmd = &cobra.Command{
	Use:   "inspect <file.apkg>",
	Short: "Inspect an Anki deck",
	Long: `Inspect an Anki .apkg file to see its structure:
  - Collections inside the package
  - Note types and their fields
  - Sample notes, with the converted form of each field

Nothing is written. Use the field names shown here with --field.

Example:
  plecoise inspect chinese.apkg`,
	Args: cobra.ExactArgs(1),
	RunE: runInspect,
}

var (
	inspectLimit int
	inspectWidth int
)

func init() {
	rootCmd.AddCommand(inspectCmd)
	inspectCmd.Flags().IntVarP(&inspectLimit, "limit", "n", 5, "Number of sample notes to show")
	inspectCmd.Flags().IntVarP(&inspectWidth, "width", "w", 60, "Truncate field values to this many columns")
}

func runInspect(cmd *cobra.Command, args []string) error {
	cfg, closeLog, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	defer closeLog()

	d, err := openDictionary(cfg)
	if err != nil {
		return err
	}
	tr := annotate.NewTransformer(d)

	ctx := cmd.Context()
	path := args[0]
	fmt.Printf("Opening: %s\n\n", path)

	pkg, err := anki.Open(ctx, path)
	if err != nil {
		return fmt.Errorf("opening package: %w", err)
	}
	defer pkg.Close()

	fmt.Println("Entries:")
	for _, e := range pkg.Entries() {
		fmt.Printf("  %s\n", e.Name)
	}
	fmt.Println()

	names := pkg.Collections()
	if len(names) == 0 {
		return anki.ErrNoCollection
	}

	for i, name := range names {
		if i > 0 {
			fmt.Println(tui.Divider(inspectWidth))
			fmt.Println()
		}
		col, err := pkg.OpenCollection(ctx, name)
		if err != nil {
			return fmt.Errorf("opening %s: %w", name, err)
		}
		err = inspectCollection(cmd, col, tr)
		col.Close()
		if err != nil {
			return fmt.Errorf("inspecting %s: %w", name, err)
		}
	}

	return nil
}

func inspectCollection(cmd *cobra.Command, col *anki.Collection, tr *annotate.Transformer) error {
	ctx := cmd.Context()

	notes, err := col.Notes(ctx)
	if err != nil {
		return err
	}
	models, err := col.Models(ctx)
	if err != nil {
		return err
	}

	fmt.Println(tui.TitleStyle.Render(col.Name()))
	fmt.Printf("  Notes: %d\n", len(notes))
	fmt.Printf("  Note types: %d\n\n", len(models))

	ids := make([]int64, 0, len(models))
	for id := range models {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	fmt.Println("Field Details:")
	for _, id := range ids {
		model := models[id]
		fmt.Printf("  %s (%d):\n", model.Name, model.ID)
		for i, name := range model.FieldNames() {
			fmt.Printf("    [%d] %s\n", i, name)
		}
	}
	fmt.Println()

	if len(notes) == 0 {
		return nil
	}

	fmt.Printf("Sample Notes (first %d):\n", inspectLimit)
	for i, note := range notes {
		if i >= inspectLimit {
			break
		}

		modelName := "unknown"
		var fieldNames []string
		if model, ok := models[note.ModelID]; ok {
			modelName = model.Name
			fieldNames = model.FieldNames()
		}

		fmt.Printf("\n  Note %d (Model: %s):\n", note.ID, modelName)
		for j, value := range note.Fields() {
			fieldName := fmt.Sprintf("Field %d", j)
			if j < len(fieldNames) {
				fieldName = fieldNames[j]
			}
			fmt.Printf("    %s: %s\n", fieldName, tui.Truncate(value, inspectWidth))
			if converted := tr.Transform(value); converted != value {
				fmt.Printf("    %s  %s\n", tui.HelpStyle.Render("→"), tui.MarkupStyle.Render(tui.Truncate(converted, inspectWidth)))
			}
		}
	}
	fmt.Println()

	return nil
}
