package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"posterbot/compose"
	"posterbot/config"
	"posterbot/distribute"
	"posterbot/idea"
	"posterbot/media"
	"posterbot/narration"
	"posterbot/pipeline"
	"posterbot/script"
)

var (
	configName   string
	count        int
	distributeTo string
	noDistribute bool

	rootCmd = &cobra.Command{
		Use:   "posterbot",
		Short: "PosterBot - automated video creation and distribution",
		Long: `PosterBot generates short videos end to end: it invents a topic,
writes a script, synthesizes narration, gathers matching imagery,
composes the video and pushes the result to a distribution channel.`,
		RunE: run,
	}
)

func init() {
	rootCmd.Flags().StringVar(&configName, "config", "cars", "content configuration to use (prompt_configs/<name>.yaml)")
	rootCmd.Flags().IntVar(&count, "count", 1, "number of videos to create")
	rootCmd.Flags().StringVar(&distributeTo, "distribute-to", "", "distribution target: none|mail|tiktok|youtube (default: config's platform)")
	rootCmd.Flags().BoolVar(&noDistribute, "no-distribute", false, "create videos but do not distribute them")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(cmd *cobra.Command, _ []string) error {
	cmd.SilenceUsage = true

	// local dev only, CI injects real env vars
	_ = godotenv.Load()

	content, err := config.LoadContent("prompt_configs", configName)
	if err != nil {
		return err
	}
	log.Printf("Loaded config: %s - %s", content.Name, content.Description)

	target := distributeTo
	if target == "" {
		target = content.DefaultPlatform()
	}
	if noDistribute {
		target = "none"
	}

	settings := config.FromEnv()
	if err := settings.Validate(target); err != nil {
		return err
	}
	if err := settings.EnsureDirs(); err != nil {
		return err
	}

	publisher, err := distribute.ForTarget(target, settings)
	if err != nil {
		return err
	}

	orch := pipeline.New(pipeline.Stages{
		Ideas:     idea.New(settings.OpenAIAPIKey, content),
		Scripts:   script.New(settings.OpenAIAPIKey, content),
		Narrator:  narration.New(settings.OpenAIAPIKey, settings.Voice, settings.Paths.Audio, settings.Paths.Output),
		Media:     media.NewCollector(settings, content),
		Composer:  compose.New(settings.VideoWidth, settings.VideoHeight, settings.VideoFPS, settings.Paths.Videos),
		Publisher: publisher,
	}, pipeline.Options{
		TransientDirs: []string{settings.Paths.Audio, settings.Paths.Images},
		LogsDir:       settings.Paths.Logs,
	})

	videos, err := orch.Run(context.Background(), count)
	if err != nil {
		return err
	}

	fmt.Printf("\nCreated %d video(s)\n", len(videos))
	for i, v := range videos {
		fmt.Printf("  %d. %s\n", i+1, v)
	}
	return nil
}
