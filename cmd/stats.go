package cmd

import (
	"log"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/tryfit/stylist/internal/catalog"
	"github.com/tryfit/stylist/internal/logger"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Print catalog statistics",
	Run: func(cmd *cobra.Command, _ []string) {
		runStats(cmd)
	},
}

func init() {
	rootCmd.AddCommand(statsCmd)

	statsCmd.Flags().StringP("output", "o", "", "write the stats to a file instead of stdout")
}

func runStats(cmd *cobra.Command) {
	zlog, err := logger.New(viper.GetBool("json"), viper.GetBool("debug"))
	if err != nil {
		log.Fatalf("creating a logger: %s", err)
	}

	config, err := getConfig()
	if err != nil {
		zlog.Fatal("getting a config", zap.Error(err))
	}

	index := catalog.NewIndex(catalogPath(config), zlog)
	index.Load()

	if err := writeJSON(cmd.Flag("output").Value.String(), index.Stats()); err != nil {
		zlog.Fatal("writing stats", zap.Error(err))
	}
}
