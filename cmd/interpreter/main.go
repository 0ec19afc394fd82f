// Command interpreter serves the natural-language wallet interpreter over
// HTTP and Zeebe, or answers a single utterance from the command line.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"milo-interpreter/internal/common/config"
)

var configPath string

func main() {
	root := &cobra.Command{
		Use:           "interpreter",
		Short:         "Natural-language command interpreter for a Sui wallet",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&configPath, "config", "", "config file (default: configs/config.yaml)")

	root.AddCommand(newServeCommand(), newAskCommand())

	if err := root.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func loadConfig() (*config.Config, error) {
	if configPath != "" {
		return config.LoadFromFile(configPath)
	}
	return config.Load()
}
