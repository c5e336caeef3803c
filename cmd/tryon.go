package cmd

import (
	"context"
	"encoding/base64"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/tryfit/stylist/internal/ai"
	"github.com/tryfit/stylist/internal/ai/gemini"
	"github.com/tryfit/stylist/internal/logger"
)

var tryonPrompt = promptui.Select{
	Label: "Generate the try-on image (external model call)?",
	Items: []string{PromptYes, PromptNo},
}

var tryonCmd = &cobra.Command{
	Use:   "tryon",
	Short: "Generate a virtual try-on image of the person wearing the provided garments",
	Run: func(cmd *cobra.Command, _ []string) {
		runTryon(cmd)
	},
}

func init() {
	rootCmd.AddCommand(tryonCmd)

	tryonCmd.Flags().StringP("person", "p", "", "path to the person reference image (required)")
	tryonCmd.Flags().String("top", "", "path to a top garment image")
	tryonCmd.Flags().String("pants", "", "path to a pants garment image")
	tryonCmd.Flags().String("shoes", "", "path to a shoes garment image")
	tryonCmd.Flags().BoolP("yes", "y", false, "do not ask for confirmation before external model calls")
	tryonCmd.Flags().StringP("output", "o", "tryon.txt", "file the generated image data URI is written to")

	tryonCmd.MarkFlagRequired("person")
}

func runTryon(cmd *cobra.Command) {
	ctx := context.Background()

	zlog, err := logger.New(viper.GetBool("json"), viper.GetBool("debug"))
	if err != nil {
		log.Fatalf("creating a logger: %s", err)
	}

	config, err := getConfig()
	if err != nil {
		zlog.Fatal("getting a config", zap.Error(err))
	}

	client, err := newGeminiClient(config.AI, zlog)
	if err != nil {
		zlog.Fatal("try-on requires a configured image model", zap.Error(err))
	}

	req, err := buildTryOnRequest(cmd)
	if err != nil {
		zlog.Fatal("building try-on request", zap.Error(err))
	}

	if !flagBool(cmd, "yes") {
		_, answer, err := tryonPrompt.Run()
		if err != nil {
			zlog.Fatal("exiting", zap.Error(err))
		}
		if answer != PromptYes {
			zlog.Info("exiting", zap.String("reason", "got no from prompt"))
			return
		}
	}

	tryon := gemini.NewTryOn(client, logger.WithFields(zlog,
		logger.CommonFields("gemini", client.ImageModel())...,
	))

	result, err := tryon.Generate(ctx, req)
	if err != nil {
		zlog.Fatal("try-on generation failed", zap.Error(err))
	}

	if result.DataURI == "" {
		zlog.Warn("the model returned no image; nothing written")
		return
	}

	output := cmd.Flag("output").Value.String()
	if err := os.WriteFile(output, []byte(result.DataURI), 0o644); err != nil {
		zlog.Fatal("writing generated image", zap.Error(err))
	}

	zlog.Info("try-on image generated", zap.String("output", output))
}

func buildTryOnRequest(cmd *cobra.Command) (*ai.TryOnRequest, error) {
	person, err := readImageFile(cmd.Flag("person").Value.String())
	if err != nil {
		return nil, fmt.Errorf("person image: %w", err)
	}

	req := &ai.TryOnRequest{Person: *person}

	garments := map[string]**ai.ImageFile{
		"top":   &req.Garments.Top,
		"pants": &req.Garments.Pants,
		"shoes": &req.Garments.Shoes,
	}

	for name, slot := range garments {
		path := cmd.Flag(name).Value.String()
		if path == "" {
			continue
		}
		file, err := readImageFile(path)
		if err != nil {
			return nil, fmt.Errorf("%s image: %w", name, err)
		}
		*slot = file
	}

	return req, nil
}

func readImageFile(path string) (*ai.ImageFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	return &ai.ImageFile{
		Base64:   base64.StdEncoding.EncodeToString(data),
		MimeType: mimeFromPath(path),
	}, nil
}

func mimeFromPath(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".png":
		return "image/png"
	case ".webp":
		return "image/webp"
	default:
		return "image/jpeg"
	}
}
