package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/tryfit/stylist/internal/catalog"
	"github.com/tryfit/stylist/internal/logger"
	"github.com/tryfit/stylist/internal/recommend"
	"github.com/tryfit/stylist/internal/styling"
)

const (
	PromptYes = "Yes"
	PromptNo  = "No"
)

var rerankPrompt = promptui.Select{
	Label: "Use AI reranking (external model call)?",
	Items: []string{PromptYes, PromptNo},
}

var recommendCmd = &cobra.Command{
	Use:   "recommend",
	Short: "Recommend catalog items matching a style analysis",
	Run: func(cmd *cobra.Command, _ []string) {
		runRecommend(cmd)
	},
}

func init() {
	rootCmd.AddCommand(recommendCmd)

	recommendCmd.Flags().StringP("analysis", "a", "", "path to a style analysis JSON file (required)")
	recommendCmd.Flags().Int("max-per-category", 0, "maximum recommendations per category (default 3, capped at 20)")
	recommendCmd.Flags().Int("min-price", -1, "minimum price, inclusive")
	recommendCmd.Flags().Int("max-price", -1, "maximum price, inclusive")
	recommendCmd.Flags().StringSlice("exclude-tags", nil, "tags to exclude, case-insensitive")
	recommendCmd.Flags().Bool("rerank", false, "force AI reranking on or off (default: reranker availability)")
	recommendCmd.Flags().BoolP("yes", "y", false, "do not ask for confirmation before external model calls")
	recommendCmd.Flags().StringP("output", "o", "", "write the result to a file instead of stdout")

	recommendCmd.MarkFlagRequired("analysis")
}

func runRecommend(cmd *cobra.Command) {
	ctx := context.Background()

	zlog, err := logger.New(viper.GetBool("json"), viper.GetBool("debug"))
	if err != nil {
		log.Fatalf("creating a logger: %s", err)
	}

	config, err := getConfig()
	if err != nil {
		zlog.Fatal("getting a config", zap.Error(err))
	}

	analysis, err := loadAnalysis(cmd.Flag("analysis").Value.String())
	if err != nil {
		zlog.Fatal("loading style analysis", zap.Error(err))
	}

	index := catalog.NewIndex(catalogPath(config), zlog)
	index.Load()

	ranker := newRanker(config.AI, zlog)

	opts := recommendOptions(cmd, config)

	if opts.UseRerank == nil && ranker != nil && ranker.Available() && !flagBool(cmd, "yes") {
		_, answer, err := rerankPrompt.Run()
		if err != nil {
			zlog.Fatal("exiting", zap.Error(err))
		}
		use := answer == PromptYes
		opts.UseRerank = &use
	}

	recommender := recommend.New(index, ranker, zlog)

	result, err := recommender.Recommend(ctx, analysis, opts)
	if err != nil {
		zlog.Fatal("recommendation failed", zap.Error(err))
	}

	if err := writeJSON(cmd.Flag("output").Value.String(), result); err != nil {
		zlog.Fatal("writing result", zap.Error(err))
	}
}

func loadAnalysis(path string) (*styling.Analysis, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read analysis file: %w", err)
	}

	var analysis styling.Analysis
	if err := json.Unmarshal(data, &analysis); err != nil {
		return nil, fmt.Errorf("parse analysis file: %w", err)
	}

	return &analysis, nil
}

func recommendOptions(cmd *cobra.Command, config *Config) recommend.Options {
	opts := recommend.Options{}

	if config != nil && config.Recommend != nil {
		opts.MaxPerCategory = config.Recommend.MaxPerCategory
		opts.ExcludeTags = config.Recommend.ExcludeTags
	}

	if cmd.Flags().Changed("max-per-category") {
		opts.MaxPerCategory = flagInt(cmd, "max-per-category")
	}
	if cmd.Flags().Changed("min-price") {
		v := flagInt(cmd, "min-price")
		opts.MinPrice = &v
	}
	if cmd.Flags().Changed("max-price") {
		v := flagInt(cmd, "max-price")
		opts.MaxPrice = &v
	}
	if cmd.Flags().Changed("exclude-tags") {
		tags, _ := cmd.Flags().GetStringSlice("exclude-tags")
		opts.ExcludeTags = tags
	}
	if cmd.Flags().Changed("rerank") {
		use := flagBool(cmd, "rerank")
		opts.UseRerank = &use
	}

	return opts
}

func flagBool(cmd *cobra.Command, name string) bool {
	v, _ := cmd.Flags().GetBool(name)
	return v
}

func flagInt(cmd *cobra.Command, name string) int {
	v, _ := cmd.Flags().GetInt(name)
	return v
}

func writeJSON(path string, v any) error {
	pretty, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}

	if path == "" {
		fmt.Println(string(pretty))
		return nil
	}

	return os.WriteFile(path, append(pretty, '\n'), 0o644)
}
