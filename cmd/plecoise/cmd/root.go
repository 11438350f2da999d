// Package cmd contains all CLI commands for plecoise.
package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"

	"github.com/f3rmion/plecoise/internal/annotate"
	"github.com/f3rmion/plecoise/internal/config"
	"github.com/f3rmion/plecoise/internal/convert"
	"github.com/f3rmion/plecoise/internal/dict"
	"github.com/f3rmion/plecoise/internal/logger"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	cfgFile    string
	inputFile  string
	outputFile string
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "plecoise",
	Short: "Link the Chinese in an Anki deck to Pleco, colored by tone",
	Long: `plecoise rewrites the notes of an Anki .apkg deck. Every run of Chinese
characters becomes a link that opens the word in Pleco, and every character
gets a tone1..tone5 class so the card template can color it.

Running it again on its own output changes nothing.

Examples:
  plecoise -f chinese.apkg
  plecoise -f chinese.apkg -o linked.apkg --field Hanzi --inject-css
  plecoise -f chinese.apkg --dictionary cedict_ts.u8.gz --dry-run`,
	Args:         cobra.NoArgs,
	RunE:         runConvert,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	return rootCmd.ExecuteContext(ctx)
}

func init() {
	cobra.OnInitialize(initConfig)

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&cfgFile, "config", "", "config directory (default is $HOME/.config/plecoise)")
	pf.Bool("verbose", false, "verbose output")
	pf.String("log-file", "", "also write JSON logs to this file")
	pf.String("dictionary", "", "CC-CEDICT file, optionally gzipped (default is the bundled subset)")
	pf.String("dict-source", dict.SourceCEDICT, "where tones come from: cedict, pinyin or none")

	viper.BindPFlag("verbose", pf.Lookup("verbose"))
	viper.BindPFlag("log.file", pf.Lookup("log-file"))
	viper.BindPFlag("dictionary.path", pf.Lookup("dictionary"))
	viper.BindPFlag("dictionary.source", pf.Lookup("dict-source"))

	f := rootCmd.Flags()
	f.StringVarP(&inputFile, "file", "f", "", "Anki .apkg file to convert")
	f.StringVarP(&outputFile, "out-file", "o", "out.apkg", "where to write the converted deck")
	f.StringSlice("field", nil, "only convert these fields (name or 0-based index, repeatable)")
	f.Int("workers", 0, "notes transformed in parallel (default is the number of CPUs)")
	f.Bool("dry-run", false, "report what would change without writing a deck")
	f.Bool("inject-css", false, "add the tone colors to every note type's styling")
	rootCmd.MarkFlagRequired("file")

	viper.BindPFlag("fields", f.Lookup("field"))
	viper.BindPFlag("dry_run", f.Lookup("dry-run"))
	viper.BindPFlag("inject_css", f.Lookup("inject-css"))
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	configDir := cfgFile
	if configDir == "" {
		dir, err := config.GetConfigDir()
		if err != nil {
			fmt.Fprintln(os.Stderr, "Error finding home directory:", err)
			os.Exit(1)
		}
		configDir = dir
	}
	viper.Set("config_dir", configDir)

	if err := config.Setup(viper.GetViper(), configDir); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

// getConfigDir returns the configuration directory path.
func getConfigDir() string {
	return viper.GetString("config_dir")
}

// loadConfig decodes the merged configuration and sets up logging. The
// returned function closes the log file, if any.
func loadConfig(cmd *cobra.Command) (*config.Config, func(), error) {
	v := viper.GetViper()
	if cmd.Flags().Changed("workers") {
		n, _ := cmd.Flags().GetInt("workers")
		v.Set("workers", n)
	}

	cfg, err := config.Load(v)
	if err != nil {
		return nil, nil, err
	}

	level, _ := logger.ParseLevel(cfg.Log.Level)
	if v.GetBool("verbose") {
		level = logger.LevelDebug
	}

	var logFile io.Writer
	closeLog := func() {}
	if cfg.Log.File != "" {
		f, err := os.OpenFile(cfg.Log.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			return nil, nil, fmt.Errorf("opening log file: %w", err)
		}
		logFile = f
		closeLog = func() { f.Close() }
	}
	logger.Init(level, logFile)

	return cfg, closeLog, nil
}

// openDictionary builds the configured tone source.
func openDictionary(cfg *config.Config) (dict.Lookuper, error) {
	d, err := dict.Open(cfg.Dictionary.Source, cfg.Dictionary.Path)
	if err != nil {
		return nil, fmt.Errorf("loading dictionary: %w", err)
	}
	if full, ok := d.(*dict.Dictionary); ok {
		logger.Debug("dictionary loaded", "words", full.Size(), "skipped_lines", full.Skipped())
	}
	return d, nil
}

func runConvert(cmd *cobra.Command, args []string) error {
	cfg, closeLog, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	defer closeLog()

	d, err := openDictionary(cfg)
	if err != nil {
		return err
	}

	conv := convert.New(annotate.NewTransformer(d), convert.Options{
		Fields:    cfg.Fields,
		Workers:   cfg.Workers,
		DryRun:    cfg.DryRun,
		InjectCSS: cfg.InjectCSS,
		Logger:    logger.L(),
	})

	logger.Info("converting deck", "file", inputFile, "workers", conv.Workers())
	stats, err := conv.Run(cmd.Context(), inputFile, outputFile)
	if err != nil {
		logger.Error("conversion failed", "file", inputFile, "error", err)
		return err
	}

	fmt.Printf("Notes:          %d\n", stats.Notes)
	fmt.Printf("Notes changed:  %d\n", stats.NotesChanged)
	fmt.Printf("Fields changed: %d\n", stats.FieldsChanged)
	if stats.ModelsSkipped > 0 {
		fmt.Printf("Note types skipped: %d\n", stats.ModelsSkipped)
	}
	if cfg.InjectCSS {
		fmt.Printf("Note types styled:  %d\n", stats.ModelsStyled)
	}
	if cfg.DryRun {
		fmt.Println("\nDry run: no deck written.")
	} else {
		fmt.Printf("\nWrote %s\n", outputFile)
	}
	return nil
}
