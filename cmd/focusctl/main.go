package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "focusctl",
	Short: "focusctl - operate a focusboard backend",
	Long:  `focusctl watches and drives a user's timer over the API and inspects persisted timer state on disk.`,
}

var (
	apiAddr  string
	apiToken string
)

func init() {
	rootCmd.PersistentFlags().StringVar(&apiAddr, "api", envOr("FOCUS_API", "http://127.0.0.1:8080"), "API server address")
	rootCmd.PersistentFlags().StringVar(&apiToken, "token", os.Getenv("FOCUS_TOKEN"), "bearer token of the user")

	rootCmd.AddCommand(watchCmd)
	rootCmd.AddCommand(tasksCmd)
	rootCmd.AddCommand(startCmd)
	rootCmd.AddCommand(inspectCmd)
}

func envOr(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func main() {
	_ = godotenv.Load()
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
