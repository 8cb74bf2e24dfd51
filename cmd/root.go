package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"clipgate/classify"
	"clipgate/internal"
	"clipgate/resolver"
	"clipgate/utils"
)

var (
	outputPath string
	proxyURL   string
	timeout    int
	providers  string
	quiet      bool
	debug      bool
	logLevel   string
	logFile    string
	config     *internal.Config
)

var rootCmd = &cobra.Command{
	Use:     "clipgate",
	Short:   "Resolve TikTok/YouTube share links to direct media URLs",
	Version: "v1.0.0",
	Long: `ClipGate resolves TikTok and YouTube share links to directly downloadable
media URLs by querying a chain of third-party mirrors, advancing past
rate-limited or broken mirrors automatically.

Examples:
  clipgate resolve https://vm.tiktok.com/ZMabcdefg/
  clipgate fetch -o clip.mp4 https://www.tiktok.com/@user/video/7301234567890123456
  clipgate resolve --providers tikwm,cobalt https://youtu.be/dQw4w9WgXcQ

Environment Variables:
  CLIPGATE_TIMEOUT       HTTP timeout in seconds
  CLIPGATE_PROXY         Proxy URL (http, https or socks5)
  CLIPGATE_PROVIDERS     Comma-separated provider priority order
  CLIPGATE_MAX_ATTEMPTS  Attempts per provider (429 retries)

DISCLAIMER: Respect the platforms' Terms of Service and copyright laws.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := loadConfiguration(); err != nil {
			return fmt.Errorf("configuration error: %v", err)
		}
		if err := internal.SetupLogging(config); err != nil {
			return fmt.Errorf("failed to initialize logging: %v", err)
		}
		return nil
	},
}

var resolveCmd = &cobra.Command{
	Use:   "resolve <URL>",
	Short: "Resolve a share link and print the direct media URL",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := signalContext()
		defer cancel()

		media, _, err := resolveLink(ctx, args[0])
		if err != nil {
			return err
		}

		if quiet {
			fmt.Println(media.DirectURL)
			return nil
		}
		fmt.Printf("Provider: %s\n", media.SourceProvider)
		fmt.Printf("Direct URL: %s\n", media.DirectURL)
		return nil
	},
}

var fetchCmd = &cobra.Command{
	Use:   "fetch <URL>",
	Short: "Resolve a share link and download the media file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := signalContext()
		defer cancel()

		media, ref, err := resolveLink(ctx, args[0])
		if err != nil {
			return err
		}

		if outputPath == "" {
			outputPath = defaultOutputPath(ref)
		}

		if !quiet {
			fmt.Printf("Provider: %s\n", media.SourceProvider)
			fmt.Printf("Output: %s\n", outputPath)
		}

		client := utils.NewHTTPClientWithConfig(&utils.HTTPClientConfig{
			Timeout:  10 * time.Minute,
			ProxyURL: config.ProxyURL,
		})
		fetcher := utils.NewMediaFetcher(client, quiet)
		if err := fetcher.Fetch(ctx, media.DirectURL, outputPath); err != nil {
			return err
		}

		if !quiet {
			fmt.Printf("Saved to: %s\n", outputPath)
		}
		return nil
	},
}

// resolveLink runs classification and the provider chain for one URL.
func resolveLink(ctx context.Context, rawURL string) (*internal.ResolvedMedia, *internal.MediaReference, error) {
	if !strings.HasPrefix(rawURL, "http://") && !strings.HasPrefix(rawURL, "https://") {
		return nil, nil, fmt.Errorf("URL must start with http:// or https://")
	}

	client := utils.NewHTTPClientWithConfig(&utils.HTTPClientConfig{
		Timeout:  config.HTTPTimeout,
		ProxyURL: config.ProxyURL,
	})
	redirectClient := utils.NewHTTPClientWithConfig(&utils.HTTPClientConfig{
		Timeout:    config.HTTPTimeout,
		ProxyURL:   config.ProxyURL,
		NoRedirect: true,
	})

	classifier := classify.NewLinkClassifier(classify.NewRedirectExpander(redirectClient, config.RedirectHopMax))
	ref, ok := classifier.Classify(ctx, rawURL)
	if !ok {
		return nil, nil, fmt.Errorf("unsupported link: %s\n\nSupported formats:\n  - https://www.tiktok.com/@user/video/<id>\n  - https://vm.tiktok.com/<code>\n  - https://www.youtube.com/watch?v=<id>\n  - https://youtu.be/<id>", rawURL)
	}

	if !quiet {
		fmt.Printf("Classified: %s\n", ref)
	}

	providerSet, err := resolver.NewProviders(config.ProviderOrder, client)
	if err != nil {
		return nil, nil, err
	}
	chain := resolver.NewChain(providerSet, resolver.ChainOptions{
		MaxAttempts:     config.MaxAttempts,
		BreakerFailures: config.BreakerFailures,
	})

	media, err := chain.Resolve(ctx, ref)
	if err != nil {
		if failure, ok := internal.IsAllProvidersFailed(err); ok {
			return nil, nil, fmt.Errorf("temporarily unavailable: tried %s", strings.Join(failure.Attempted, ", "))
		}
		return nil, nil, err
	}
	return media, ref, nil
}

// signalContext returns a context cancelled on SIGINT/SIGTERM.
func signalContext() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		if !quiet {
			fmt.Fprintln(os.Stderr, "\nInterrupted, shutting down...")
		}
		cancel()
	}()

	return ctx, cancel
}

// loadConfiguration merges defaults, environment variables and CLI flags.
func loadConfiguration() error {
	config = internal.DefaultConfig()
	config.LoadFromEnv()

	if timeout > 0 {
		config.HTTPTimeout = time.Duration(timeout) * time.Second
	}
	if proxyURL != "" {
		config.ProxyURL = proxyURL
	}
	if providers != "" {
		var order []string
		for _, p := range strings.Split(providers, ",") {
			if p = strings.TrimSpace(p); p != "" {
				order = append(order, p)
			}
		}
		config.ProviderOrder = order
	}

	if debug {
		config.EnableDebug = true
		config.LogLevel = "debug"
	}
	if quiet {
		config.QuietMode = true
	}
	if logLevel != "" {
		config.LogLevel = logLevel
	}
	if logFile != "" {
		config.LogFile = logFile
	}

	return config.ValidateConfig()
}

// defaultOutputPath derives an output filename from the reference.
func defaultOutputPath(ref *internal.MediaReference) string {
	name := fmt.Sprintf("%s_%s.mp4", ref.Platform, ref.CanonicalID)
	return filepath.Clean(name)
}

func init() {
	rootCmd.AddCommand(resolveCmd)
	rootCmd.AddCommand(fetchCmd)

	rootCmd.PersistentFlags().StringVar(&proxyURL, "proxy", "", "HTTP/SOCKS proxy URL (env: CLIPGATE_PROXY)")
	rootCmd.PersistentFlags().IntVar(&timeout, "timeout", 0, "HTTP timeout in seconds (env: CLIPGATE_TIMEOUT)")
	rootCmd.PersistentFlags().StringVar(&providers, "providers", "", "Comma-separated provider priority order (env: CLIPGATE_PROVIDERS)")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "Print only the result")
	rootCmd.PersistentFlags().BoolVarP(&debug, "debug", "d", false, "Enable debug logging (env: CLIPGATE_DEBUG)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Set log level (debug, info, warn, error) (env: CLIPGATE_LOG_LEVEL)")
	rootCmd.PersistentFlags().StringVar(&logFile, "log-file", "", "Write logs to file instead of stderr (env: CLIPGATE_LOG_FILE)")

	fetchCmd.Flags().StringVarP(&outputPath, "output", "o", "", "Custom output file path")
}

func Execute() error {
	return rootCmd.Execute()
}
