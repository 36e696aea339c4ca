// Package cli provides the Cobra-based command-line interface for the
// gateway binary.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/daoch4n/zen-router/internal/buildinfo"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "zen-router",
	Short: "OpenAI/Anthropic-compatible gateway fronting Gemini",
	Long:  `zen-router turns Gemini API access into OpenAI- and Anthropic-compatible endpoints, with credential rotation and a resumable TTS pipeline.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return serveCmd.RunE(serveCmd, args)
	},
}

// Execute runs the root command, exiting the process with status 1 on
// failure.
func Execute() {
	rootCmd.Version = buildinfo.Version
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "config.yaml", "config file path")
	rootCmd.Version = buildinfo.Version
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(versionCmd)
}

// GetConfigPath returns the --config flag value for commands that need
// it outside the cobra RunE closure.
func GetConfigPath() string { return cfgFile }
