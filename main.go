package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/spf13/cobra"
)

var (
	apiKey       string
	model        string
	maxPerSource int
	dryRun       bool
	debugMode    bool
)

var rootCmd = &cobra.Command{
	Use:   "news-digest [sources-file]",
	Short: "Daily news digest pipeline with AI summaries",
	Long:  `Fetches articles from configured news sites, extracts their text, summarizes them with an LLM, and emails the digest.`,
	Args:  cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		sourcesFile := defaultSourcesFile
		if len(args) > 0 {
			sourcesFile = args[0]
		}

		// Set debug mode globally
		if debugMode {
			SetDebugMode(true)
		}

		cfg, err := LoadConfig(sourcesFile)
		if err != nil {
			log.Fatalf("Failed to load configuration: %v", err)
		}

		// Flags win over environment values
		if apiKey != "" {
			cfg.OpenRouterAPIKey = apiKey
		}
		if model != "" {
			cfg.OpenRouterModel = model
		}
		if maxPerSource > 0 {
			cfg.MaxPerSource = maxPerSource
		}

		fetcher := NewPageFetcher()
		summarizer, err := NewLLMSummarizer(cfg)
		if err != nil {
			log.Fatalf("Failed to create summarizer: %v", err)
		}

		workflow := NewWorkflow(
			NewArticleDiscoverer(fetcher, cfg.MaxPerSource),
			NewContentExtractor(fetcher),
			summarizer,
			NewEmailNotifier(cfg.Email, dryRun),
		)

		state := workflow.Run(context.Background(), cfg.RawSources)
		NewReportPrinter().PrintReport(state)
	},
}

func init() {
	rootCmd.Flags().StringVar(&apiKey, "api-key", "", "OpenRouter API key")
	rootCmd.Flags().StringVar(&model, "model", "", "Summarization model")
	rootCmd.Flags().IntVar(&maxPerSource, "max-per-source", 0, "Maximum articles to process per source")
	rootCmd.Flags().BoolVar(&dryRun, "dry-run", false, "Log the digest email instead of sending it")
	rootCmd.Flags().BoolVar(&debugMode, "debug", false, "Enable debug logging")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}
