package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	authToken string
	apiURL    string = "http://localhost:8787"
	output    string = "text" // "text" or "json"
)

var rootCmd = &cobra.Command{
	Use:   "unsaid",
	Short: "Unsaid CLI - Read the feed, vote, and chat from your terminal",
	Long: `Unsaid CLI provides command-line access to your Unsaid account.
Browse the feed, vote on posts, and talk to the study assistant.`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if authToken == "" {
			authToken = os.Getenv("UNSAID_TOKEN")
		}
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&authToken, "token", "", "Authentication token (defaults to UNSAID_TOKEN env var)")
	rootCmd.PersistentFlags().StringVar(&apiURL, "api", apiURL, "API server URL")
	rootCmd.PersistentFlags().StringVar(&output, "output", output, "Output format: text or json")

	rootCmd.AddCommand(loginCmd)
	rootCmd.AddCommand(feedCmd)
	rootCmd.AddCommand(postCmd)
	rootCmd.AddCommand(voteCmd)
	rootCmd.AddCommand(chatCmd)
}

func requireToken() error {
	if authToken == "" {
		return fmt.Errorf("UNSAID_TOKEN environment variable not set; log in and export your token")
	}
	return nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
