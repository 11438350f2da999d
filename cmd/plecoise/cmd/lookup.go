package cmd

import (
	"fmt"
	"strings"

	"github.com/f3rmion/plecoise/internal/annotate"
	"github.com/f3rmion/plecoise/internal/dict"
	"github.com/f3rmion/plecoise/internal/logger"
	"github.com/f3rmion/plecoise/internal/tui"
	"github.com/f3rmion/plecoise/internal/tui/bigchar"
	"github.com/spf13/cobra"
)

var lookupCmd = &cobra.Command{
	Use:   "lookup <word>...",
	Short: "Show the dictionary entries and tones for a word",
	Long: `Look up Chinese words and display:
  - Every dictionary entry, in order (the first one colors the deck)
  - Each character colored by its tone
  - Pinyin and definitions

Words the dictionary does not know fall back to go-pinyin readings.
With --big the word is also drawn as block art using a system CJK font.

Example:
  plecoise lookup 你好
  plecoise lookup 中国 学习
  plecoise lookup --big 汉字`,
	Args: cobra.MinimumNArgs(1),
	RunE: runLookup,
}

func init() {
	rootCmd.AddCommand(lookupCmd)
	lookupCmd.Flags().Bool("big", false, "draw each character as block art")
	lookupCmd.Flags().String("font", "", "CJK font file for --big (default: search system fonts)")
}

func runLookup(cmd *cobra.Command, args []string) error {
	cfg, closeLog, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	defer closeLog()

	d, err := openDictionary(cfg)
	if err != nil {
		return err
	}

	var fallback dict.Lookuper
	if _, ok := d.(*dict.PinyinLookup); !ok {
		fallback = dict.NewPinyinLookup()
	}

	big, _ := cmd.Flags().GetBool("big")
	var rd *bigchar.Renderer
	if big {
		rd = loadRenderer(cmd)
	}

	for _, word := range args {
		fmt.Printf("Looking up: %s\n\n", word)

		entries := d.Lookup(word)
		source := cfg.Dictionary.Source
		if len(entries) == 0 && fallback != nil {
			entries = fallback.Lookup(word)
			source = dict.SourcePinyin
		}
		if len(entries) == 0 {
			fmt.Println(tui.ErrorStyle.Render("  No entries found."))
			fmt.Println()
			continue
		}

		if rd != nil {
			fmt.Println(tui.RenderBig(rd, word, entries, 16, 8))
			fmt.Println()
		}

		for i, e := range entries {
			fmt.Printf("  %s %s  %s\n",
				tui.LabelStyle.Render(fmt.Sprintf("[%d]", i+1)),
				tui.RenderWord(word, []dict.Entry{e}),
				tui.PinyinStyle.Render(e.Pinyin),
			)
			if e.Traditional != "" && e.Traditional != e.Simplified {
				fmt.Printf("  %s %s\n", tui.LabelStyle.Render("Traditional"), tui.ValueStyle.Render(e.Traditional))
			}
			tones := make([]string, len(e.Tones))
			for j, t := range e.Tones {
				tones[j] = t.String()
			}
			fmt.Printf("  %s %s\n", tui.LabelStyle.Render("Tones"), tui.ValueStyle.Render(strings.Join(tones, " ")))
			for _, def := range e.Definitions {
				fmt.Printf("  %s %s\n", tui.LabelStyle.Render(""), tui.ValueStyle.Render(def))
			}
		}

		fmt.Println()
		fmt.Printf("  %s %s\n", tui.LabelStyle.Render("Source"), tui.HelpStyle.Render(source))
		fmt.Printf("  %s %s\n", tui.LabelStyle.Render("Markup"), tui.MarkupStyle.Render(annotate.Render(word, entries)))
		fmt.Println()
	}

	return nil
}

func loadRenderer(cmd *cobra.Command) *bigchar.Renderer {
	paths := bigchar.DefaultFontPaths
	if font, _ := cmd.Flags().GetString("font"); font != "" {
		paths = []string{font}
	}
	rd := bigchar.Load(paths...)
	if !rd.Available() {
		logger.Warn("no CJK font found, skipping block art", "searched", len(paths))
		return nil
	}
	return rd
}
