// Package cmd provides CLI commands for ostrich-api.
package cmd

import (
	"os"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var (
	cfgFile  string
	logLevel string
	log      *logrus.Logger
)

func init() {
	log = logrus.New()
	log.SetOutput(os.Stderr)
	log.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05",
	})
}

var rootCmd = &cobra.Command{
	Use:   "ostrich-api",
	Short: "Authentication gateway in front of AWS Cognito",
	Long: `ostrich-api is a small HTTP front door for authentication.

It accepts login, sign-up, verification and resend-code requests, forwards
them to an AWS Cognito user pool, and normalizes every provider outcome into
a uniform JSON error contract. A /health endpoint reflects provider
reachability.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		level, err := logrus.ParseLevel(strings.ToLower(logLevel))
		if err != nil {
			return err
		}
		log.SetLevel(level)
		return nil
	},
	SilenceUsage: true,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "",
		"config file (default: CONFIG_PATH env var or config.yaml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info",
		"log level (debug, info, warn, error)")
}
