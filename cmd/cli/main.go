package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/mietwerk/rentledger/internal/infrastructure/auth"
)

var (
	baseURL   string
	timeout   time.Duration
	authToken string
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "rentledger-cli",
		Short: "RentLedger CLI tool",
		Long:  `A command line interface for interacting with the RentLedger API.`,
	}

	rootCmd.PersistentFlags().StringVar(&baseURL, "url", "http://localhost:8080", "Base URL of the RentLedger API")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 10*time.Second, "Request timeout")
	rootCmd.PersistentFlags().StringVar(&authToken, "token", "", "Bearer token for authenticated requests")

	rootCmd.AddCommand(importCmd())
	rootCmd.AddCommand(undoImportCmd())
	rootCmd.AddCommand(transactionsCmd())
	rootCmd.AddCommand(matchesCmd())
	rootCmd.AddCommand(tokenCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func importCmd() *cobra.Command {
	var accountID string
	var preview bool

	cmd := &cobra.Command{
		Use:   "import <statement-file>",
		Short: "Import a bank statement file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			content, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("failed to read statement: %w", err)
			}

			path := "/api/v1/imports"
			if preview {
				path += "/preview"
			}

			return postJSON(path, map[string]string{
				"account_id": accountID,
				"file_name":  args[0],
				"content":    string(content),
			})
		},
	}

	cmd.Flags().StringVar(&accountID, "account", "", "Account ID to import into")
	cmd.Flags().BoolVar(&preview, "preview", false, "Dry run: show what would be imported")
	_ = cmd.MarkFlagRequired("account")

	return cmd
}

func undoImportCmd() *cobra.Command {
	var accountID string

	cmd := &cobra.Command{
		Use:   "undo-import",
		Short: "Undo the most recent import of an account",
		RunE: func(cmd *cobra.Command, args []string) error {
			return postJSON("/api/v1/imports/undo", map[string]string{
				"account_id": accountID,
			})
		},
	}

	cmd.Flags().StringVar(&accountID, "account", "", "Account ID")
	_ = cmd.MarkFlagRequired("account")

	return cmd
}

func transactionsCmd() *cobra.Command {
	var accountID string

	cmd := &cobra.Command{
		Use:   "transactions",
		Short: "List transactions of an account",
		RunE: func(cmd *cobra.Command, args []string) error {
			return getJSON("/api/v1/accounts/" + accountID + "/transactions")
		},
	}

	cmd.Flags().StringVar(&accountID, "account", "", "Account ID")
	_ = cmd.MarkFlagRequired("account")

	return cmd
}

func matchesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "matches <transaction-id>",
		Short: "Show ranked contract suggestions for a transaction",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return getJSON("/api/v1/transactions/" + args[0] + "/matches")
		},
	}
}

func tokenCmd() *cobra.Command {
	var secret, userID, email, role string
	var ttl time.Duration

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Generate a JWT for API access",
		RunE: func(cmd *cobra.Command, args []string) error {
			manager := auth.NewJWTManager(secret, ttl)

			token, err := manager.Generate(userID, email, role)
			if err != nil {
				return err
			}

			fmt.Println(token)
			return nil
		},
	}

	cmd.Flags().StringVar(&secret, "secret", "", "JWT signing secret")
	cmd.Flags().StringVar(&userID, "user", "", "User ID claim")
	cmd.Flags().StringVar(&email, "email", "", "Email claim")
	cmd.Flags().StringVar(&role, "role", auth.RoleViewer, "Role claim (admin, operator, viewer)")
	cmd.Flags().DurationVar(&ttl, "ttl", 24*time.Hour, "Token lifetime")
	_ = cmd.MarkFlagRequired("secret")
	_ = cmd.MarkFlagRequired("user")

	return cmd
}

func postJSON(path string, body any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return err
	}

	req, err := http.NewRequest(http.MethodPost, baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	return doRequest(req)
}

func getJSON(path string) error {
	req, err := http.NewRequest(http.MethodGet, baseURL+path, nil)
	if err != nil {
		return err
	}

	return doRequest(req)
}

func doRequest(req *http.Request) error {
	if authToken != "" {
		req.Header.Set("Authorization", "Bearer "+authToken)
	}

	client := &http.Client{Timeout: timeout}
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode >= http.StatusBadRequest {
		fmt.Fprintf(os.Stderr, "HTTP %d\n", resp.StatusCode)
	}

	var decoded any
	if err := json.Unmarshal(data, &decoded); err != nil {
		fmt.Println(string(data))
		return nil
	}

	printJSON(decoded)
	return nil
}

func printJSON(v any) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		fmt.Printf("failed to render response: %v\n", err)
		return
	}

	fmt.Println(string(data))
}
