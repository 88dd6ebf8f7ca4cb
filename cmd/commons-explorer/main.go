package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path"
	"strings"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"golang.org/x/sync/errgroup"

	"github.com/Allknowingroger/Commons-Explorer/cmd/commons-explorer/tui"
	"github.com/Allknowingroger/Commons-Explorer/internal/assist"
	"github.com/Allknowingroger/Commons-Explorer/internal/commons"
	"github.com/Allknowingroger/Commons-Explorer/internal/config"
	"github.com/Allknowingroger/Commons-Explorer/internal/gemini"
	"github.com/Allknowingroger/Commons-Explorer/internal/logging"
)

var (
	// Global flags
	verbose  bool
	apiKey   string
	endpoint string
	model    string
	timeout  time.Duration

	// Loaded user configuration
	userConfig *config.UserConfig

	// Logger for non-interactive commands
	logger *zap.Logger
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "commons-explorer [query]",
	Short: "Commons Explorer - browse Wikimedia Commons with an AI sidekick",
	Long: `Commons Explorer is a terminal browser for Wikimedia Commons.

Search millions of freely licensed media files, scroll through results
with automatic pagination, and open any image to have Gemini write a
short story about it, describe what it shows, or chat about it.

Run without arguments to start the interactive browser. A query argument
starts the browser with that search already running.`,
	Args: cobra.ArbitraryArgs,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.GlobalConfig()
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}
		userConfig = cfg
		applyFlagOverrides(userConfig)

		if err := logging.Initialize(config.ConfigDir()); err != nil {
			fmt.Fprintf(os.Stderr, "warning: file logging disabled: %v\n", err)
		}

		// Skip zap init for interactive mode (it has its own UI)
		if cmd.Name() == cmd.Root().Name() {
			return nil
		}

		zcfg := zap.NewProductionConfig()
		zcfg.Encoding = "console"
		zcfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
		if verbose {
			zcfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
		}
		logger, err = zcfg.Build()
		if err != nil {
			return fmt.Errorf("build logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
		logging.CloseAll()
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		return runInteractive(strings.Join(args, " "))
	},
}

// searchCmd runs one search and prints the first page of results
var searchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Search Commons and print one page of results",
	Long: `Runs a single file search against the Commons API and prints the
matches without starting the interactive browser.

Example:
  commons-explorer search "aurora borealis" --limit 10
  commons-explorer search lighthouse --json`,
	Args: cobra.MinimumNArgs(1),
	RunE: runSearch,
}

// describeCmd generates AI text about one file
var describeCmd = &cobra.Command{
	Use:   "describe [File:Title | URL]",
	Short: "Generate a story and an analysis for one file",
	Long: `Feeds one Commons file to Gemini and prints a short story and a
factual description of it.

The argument is either a Commons file title (File:Example.jpg) or a
direct image URL.

Examples:
  commons-explorer describe "File:Aurora in Abisko.jpg"
  commons-explorer describe "File:Cat.jpg" --genre horror --stream`,
	Args: cobra.ExactArgs(1),
	RunE: runDescribe,
}

// configCmd groups configuration helpers
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage the user configuration file",
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a default config file",
	Long: `Creates a config file with every setting spelled out so it can be
edited by hand. Existing files are left untouched.`,
	RunE: runConfigInit,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the resolved configuration",
	RunE:  runConfigShow,
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Verbose console logging")
	rootCmd.PersistentFlags().StringVar(&apiKey, "api-key", "", "Gemini API key (or set GEMINI_API_KEY env)")
	rootCmd.PersistentFlags().StringVar(&endpoint, "endpoint", "", "MediaWiki API endpoint override")
	rootCmd.PersistentFlags().StringVar(&model, "model", "", "Gemini model override")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 2*time.Minute, "Operation timeout")

	searchCmd.Flags().Int("limit", 0, "Number of results (default: configured page size)")
	searchCmd.Flags().Int("offset", 0, "Result offset to start from")
	searchCmd.Flags().Bool("json", false, "Print results as JSON")

	describeCmd.Flags().String("genre", "noir", "Story genre")
	describeCmd.Flags().Bool("stream", false, "Stream text as it is generated")
	describeCmd.Flags().Bool("story-only", false, "Skip the analysis")
	describeCmd.Flags().Bool("analysis-only", false, "Skip the story")

	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configShowCmd)

	rootCmd.AddCommand(searchCmd)
	rootCmd.AddCommand(describeCmd)
	rootCmd.AddCommand(configCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// applyFlagOverrides lets command line flags win over the config file.
func applyFlagOverrides(cfg *config.UserConfig) {
	if apiKey != "" {
		cfg.GeminiAPIKey = apiKey
	}
	if endpoint != "" {
		cfg.SearchEndpoint = endpoint
	}
	if model != "" {
		cfg.Model = model
	}
}

func commonsClient(cfg *config.UserConfig) *commons.Client {
	return commons.NewClient(commons.Config{
		Endpoint:   cfg.GetSearchEndpoint(),
		ThumbWidth: cfg.GetThumbWidth(),
	})
}

// geminiClient builds the generation client, or returns nil when no API key
// is configured.
func geminiClient(cfg *config.UserConfig) (*gemini.Client, error) {
	key := cfg.GetGeminiAPIKey()
	if key == "" {
		return nil, nil
	}
	gcfg := gemini.DefaultConfig(key)
	gcfg.Model = cfg.GetModel()
	gcfg.BaseURL = cfg.GetGeminiBaseURL()
	if cfg.MaxOutputTokens > 0 {
		gcfg.MaxOutputTokens = cfg.MaxOutputTokens
	}
	return gemini.New(gcfg)
}

// runInteractive starts the TUI, optionally with a search already running.
func runInteractive(initialQuery string) error {
	gen, err := geminiClient(userConfig)
	if err != nil {
		return err
	}

	genres, err := assist.LoadGenres(config.GenresPath())
	if err != nil {
		fmt.Fprintf(os.Stderr, "warning: ignoring genres file: %v\n", err)
		genres = assist.DefaultGenres()
	}

	m := tui.New(tui.Options{
		Config:       userConfig,
		Commons:      commonsClient(userConfig),
		Gemini:       gen,
		Genres:       genres,
		InitialQuery: strings.TrimSpace(initialQuery),
	})

	p := tea.NewProgram(m, tea.WithAltScreen())
	_, err = p.Run()
	return err
}

func runSearch(cmd *cobra.Command, args []string) error {
	ctx, cancel := signalContext()
	defer cancel()

	query := strings.Join(args, " ")
	limit, _ := cmd.Flags().GetInt("limit")
	offset, _ := cmd.Flags().GetInt("offset")
	asJSON, _ := cmd.Flags().GetBool("json")
	if limit <= 0 {
		limit = userConfig.GetPageSize()
	}

	logger.Debug("Searching Commons",
		zap.String("query", query),
		zap.Int("limit", limit),
		zap.Int("offset", offset))

	page, err := commonsClient(userConfig).Search(ctx, query, limit, offset)
	if err != nil {
		return err
	}

	if asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(page)
	}

	if len(page.Results) == 0 {
		fmt.Printf("No files match %q.\n", query)
		return nil
	}
	for _, r := range page.Results {
		fmt.Printf("%s\n", r.DisplayTitle())
		if r.Width > 0 {
			fmt.Printf("    %dx%d  %s  %s\n", r.Width, r.Height, r.MIME, r.License)
		}
		fmt.Printf("    %s\n", r.PageURL)
	}
	if page.HasMore {
		fmt.Printf("\nMore results: rerun with --offset %d\n", page.NextOffset)
	}
	return nil
}

// textOutput routes generated text to a writer. Errors are reported by the
// controller's return value, so Fail stays quiet here.
type textOutput struct{ w io.Writer }

func (t textOutput) Reset()           {}
func (t textOutput) SetText(s string) { fmt.Fprint(t.w, s) }
func (t textOutput) Append(s string)  { fmt.Fprint(t.w, s) }
func (t textOutput) Fail(string)      {}

func runDescribe(cmd *cobra.Command, args []string) error {
	ctx, cancel := signalContext()
	defer cancel()

	genreTag, _ := cmd.Flags().GetString("genre")
	stream, _ := cmd.Flags().GetBool("stream")
	storyOnly, _ := cmd.Flags().GetBool("story-only")
	analysisOnly, _ := cmd.Flags().GetBool("analysis-only")

	gen, err := geminiClient(userConfig)
	if err != nil {
		return err
	}
	if gen == nil {
		return fmt.Errorf("no Gemini API key configured (set GEMINI_API_KEY or run `commons-explorer config init`)")
	}

	imageURL, title, err := resolveFile(ctx, args[0])
	if err != nil {
		return err
	}
	logger.Info("Describing file", zap.String("title", title), zap.String("url", imageURL))

	genres, err := assist.LoadGenres(config.GenresPath())
	if err != nil {
		genres = assist.DefaultGenres()
	}
	genre := assist.FindGenre(genres, genreTag)

	ctrl := assist.NewController(gen, assist.Panes{})
	ctrl.SelectImage(imageURL, title)

	wantStory := !analysisOnly
	wantAnalysis := !storyOnly

	if stream {
		// Streaming writes straight to stdout, so run the sections in order.
		if wantStory {
			fmt.Printf("## %s story\n\n", genre.Tag)
			if _, err := ctrl.Generate(ctx, assist.StoryPrompt(title, genre), textOutput{os.Stdout}, true); err != nil {
				return err
			}
			fmt.Println()
		}
		if wantAnalysis {
			fmt.Printf("\n## Analysis\n\n")
			if _, err := ctrl.Generate(ctx, assist.AnalysisPrompt(title), textOutput{os.Stdout}, true); err != nil {
				return err
			}
			fmt.Println()
		}
		return nil
	}

	var story, analysis string
	g, gctx := errgroup.WithContext(ctx)
	if wantStory {
		g.Go(func() error {
			var err error
			story, err = ctrl.Generate(gctx, assist.StoryPrompt(title, genre), textOutput{io.Discard}, false)
			return err
		})
	}
	if wantAnalysis {
		g.Go(func() error {
			var err error
			analysis, err = ctrl.Generate(gctx, assist.AnalysisPrompt(title), textOutput{io.Discard}, false)
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	if wantStory {
		fmt.Printf("## %s story\n\n%s\n", genre.Tag, story)
	}
	if wantAnalysis {
		fmt.Printf("\n## Analysis\n\n%s\n", analysis)
	}
	return nil
}

// resolveFile turns the describe argument into an image URL and a display
// title. Titles are looked up through the API; URLs pass through.
func resolveFile(ctx context.Context, arg string) (imageURL, title string, err error) {
	if strings.HasPrefix(arg, "http://") || strings.HasPrefix(arg, "https://") {
		return arg, path.Base(arg), nil
	}
	res, err := commonsClient(userConfig).ImageInfo(ctx, arg)
	if err != nil {
		return "", "", err
	}
	url := res.ThumbURL
	if url == "" {
		url = res.URL
	}
	return url, res.DisplayTitle(), nil
}

func runConfigInit(cmd *cobra.Command, args []string) error {
	path := config.DefaultUserConfigPath()
	if _, err := os.Stat(path); err == nil {
		fmt.Printf("Config already exists: %s\n", path)
		return nil
	}
	if err := config.DefaultUserConfig().Save(path); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	fmt.Printf("Wrote %s\n", path)
	fmt.Println("Add your Gemini API key there or export GEMINI_API_KEY.")
	return nil
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	cfg := userConfig
	key := cfg.GetGeminiAPIKey()
	keyState := "not set"
	if key != "" {
		keyState = "set"
	}
	fmt.Printf("config file:   %s\n", config.DefaultUserConfigPath())
	fmt.Printf("api key:       %s\n", keyState)
	fmt.Printf("model:         %s\n", cfg.GetModel())
	fmt.Printf("endpoint:      %s\n", cfg.GetSearchEndpoint())
	fmt.Printf("page size:     %d\n", cfg.GetPageSize())
	fmt.Printf("thumb width:   %d\n", cfg.GetThumbWidth())
	fmt.Printf("theme:         %s\n", cfg.GetTheme())
	return nil
}

// signalContext cancels on Ctrl+C or SIGTERM, bounded by the global timeout.
func signalContext() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	sigCtx, sigCancel := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	return sigCtx, func() {
		sigCancel()
		cancel()
	}
}
