package command

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var logLevel string

var rootCmd = &cobra.Command{
	Use:   "measurement-gateway",
	Short: "Patient self-monitoring gateway",
	Long:  "Serves device registration, measurements and risk prediction for patients",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// Overwrite the configured log level
		if logLevel != "" {
			return os.Setenv("LOG_LEVEL", logLevel)
		}
		return nil
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		return serveCmd.RunE(cmd, args)
	},
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&logLevel, "log-level", "v", "", "Log level (debug, info, warn, error)")
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}
