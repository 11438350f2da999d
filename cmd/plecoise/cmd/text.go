package cmd

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/f3rmion/plecoise/internal/annotate"
	"github.com/f3rmion/plecoise/internal/clipboard"
	"github.com/f3rmion/plecoise/internal/logger"
	"github.com/spf13/cobra"
)

var textCmd = &cobra.Command{
	Use:   "text [text...]",
	Short: "Convert a piece of text",
	Long: `Convert text the same way deck fields are converted and print the markup.
With no arguments the text is read from standard input.

Examples:
  plecoise text "hello there, 你好"
  echo 你怎么样 | plecoise text --copy`,
	RunE: runText,
}

var textCopy bool

func init() {
	rootCmd.AddCommand(textCmd)
	textCmd.Flags().BoolVarP(&textCopy, "copy", "c", false, "also copy the result to the clipboard")
}

func runText(cmd *cobra.Command, args []string) error {
	cfg, closeLog, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	defer closeLog()

	d, err := openDictionary(cfg)
	if err != nil {
		return err
	}

	var input string
	if len(args) > 0 {
		input = strings.Join(args, " ")
	} else {
		data, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return fmt.Errorf("reading input: %w", err)
		}
		input = strings.TrimRight(string(data), "\r\n")
	}

	out := annotate.NewTransformer(d).Transform(input)
	fmt.Fprintln(cmd.OutOrStdout(), out)

	if textCopy {
		if err := clipboard.Write(out); err != nil {
			logger.Warn("could not copy to clipboard", "error", err)
			return nil
		}
		fmt.Fprintln(os.Stderr, "Copied to clipboard.")
	}
	return nil
}
