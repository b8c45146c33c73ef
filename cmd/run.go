package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/spigell/jobsheet/internal/logger"
)

const (
	PromptYes = "Yes"
	PromptNo  = "No"
)

var prompt = promptui.Select{
	Label: "Process unread job alerts and write to the spreadsheet?",
	Items: []string{PromptYes, PromptNo},
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Process unread job alert emails once and exit",
	Run: func(cmd *cobra.Command, _ []string) {
		run(cmd)
	},
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().BoolP("yes", "y", false, "do not ask for confirmation before writing")
	runCmd.Flags().Bool("dry-run", false, "parse and classify but skip scoring and write nothing")
}

// run is the one-shot command for the cli.
func run(cmd *cobra.Command) {
	ctx := context.Background()

	logger, err := logger.New(viper.GetBool("json"), viper.GetBool("debug"))
	if err != nil {
		log.Fatalf("creating a logger: %s", err)
	}

	config, err := getConfig()
	if err != nil {
		logger.Fatal("getting a config", zap.Error(err))
	}

	logger.Info("starting the jobsheet", zap.String("version", version))

	dryRun := cmd.Flag("dry-run").Value.String() == "true"

	if cmd.Flag("yes").Value.String() == "false" && !dryRun {
		_, action, err := prompt.Run()
		if err != nil {
			logger.Fatal("exiting", zap.Error(err))
		}
		if action != PromptYes {
			logger.Info("exiting", zap.String("reason", "got no from prompt"))
			return
		}
	}

	p, err := buildPipeline(ctx, config, dryRun, logger)
	if err != nil {
		logger.Fatal("building the pipeline", zap.Error(err))
	}

	summary := p.Run(ctx)

	pretty, _ := json.MarshalIndent(summary, "", "  ")
	fmt.Println(string(pretty))

	if !summary.Success {
		logger.Fatal("run failed", zap.String("error", summary.Error))
	}
}
