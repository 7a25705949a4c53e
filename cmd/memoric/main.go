// Package main implements the memoric CLI for manual operations against the
// memorid HTTP server.
package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"time"

	"github.com/spf13/cobra"
)

var (
	// serverURL is the base URL for the memorid HTTP server
	serverURL string
	// version information
	version = "dev"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "memoric",
	Short: "CLI for memorid HTTP server operations",
	Long: `memoric is a command-line interface for interacting with the memorid HTTP server.
It provides commands for sending chat messages and inspecting memory state.`,
	Version: version,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&serverURL, "server", "http://localhost:8002", "memorid server URL")
	rootCmd.AddCommand(chatCmd)
	rootCmd.AddCommand(statsCmd)
	rootCmd.AddCommand(namespacesCmd)
	rootCmd.AddCommand(healthCmd)
}

// chatCmd sends a chat message through the gateway
var chatCmd = &cobra.Command{
	Use:   "chat [message]",
	Short: "Send a chat message through the memory gateway",
	Long: `Send a chat message through the memorid server.

Examples:
  # Chat in the default namespace
  memoric chat "What did we discuss yesterday?"

  # Chat in a specific namespace
  memoric chat --namespace acct1 "hello"

  # Chat with per-user memory isolation
  memoric chat --namespace acct1 --user u9 "hello"`,
	Args: cobra.ExactArgs(1),
	RunE: runChat,
}

// statsCmd reports memory backend statistics
var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show memory statistics for a namespace",
	Long: `Show memory backend statistics for a namespace.

Examples:
  # Stats for the default namespace
  memoric stats

  # Stats for a user-scoped namespace
  memoric stats --namespace acct1 --user u9`,
	RunE: runStats,
}

// namespacesCmd lists active namespaces
var namespacesCmd = &cobra.Command{
	Use:   "namespaces",
	Short: "List active memory namespaces",
	RunE:  runNamespaces,
}

// healthCmd checks server health
var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Check memorid server health",
	Long: `Check the health status of the memorid HTTP server.

Examples:
  # Check health
  memoric health

  # Check health on a different server
  memoric health --server http://localhost:9002`,
	RunE: runHealth,
}

var (
	chatNamespace string
	chatUser      string
	chatModel     string
	chatSystem    string
)

func init() {
	chatCmd.Flags().StringVar(&chatNamespace, "namespace", "", "memory namespace")
	chatCmd.Flags().StringVar(&chatUser, "user", "", "user id for per-user memory isolation")
	chatCmd.Flags().StringVar(&chatModel, "model", "", "model override")
	chatCmd.Flags().StringVar(&chatSystem, "system", "", "system prompt")
	statsCmd.Flags().StringVar(&chatNamespace, "namespace", "", "memory namespace")
	statsCmd.Flags().StringVar(&chatUser, "user", "", "user id for per-user memory isolation")
}

// ChatRequest matches internal/http/types.go ChatRequest
type ChatRequest struct {
	Message      string `json:"message"`
	UserID       string `json:"user_id,omitempty"`
	Namespace    string `json:"namespace,omitempty"`
	Model        string `json:"model,omitempty"`
	SystemPrompt string `json:"system_prompt,omitempty"`
}

// ChatResponse matches internal/http/types.go ChatResponse
type ChatResponse struct {
	Success  bool   `json:"success"`
	Response string `json:"response,omitempty"`
	Error    string `json:"error,omitempty"`
	Metadata *struct {
		Model     string `json:"model"`
		Namespace string `json:"namespace"`
		Usage     struct {
			TotalTokens int `json:"total_tokens"`
		} `json:"usage"`
	} `json:"metadata,omitempty"`
}

// StatsResponse matches internal/memori/service.go Stats
type StatsResponse struct {
	Namespace string `json:"namespace"`
	Database  string `json:"database"`
	Status    string `json:"status"`
}

// NamespacesResponse matches internal/http/types.go NamespacesResponse
type NamespacesResponse struct {
	Namespaces []string `json:"namespaces"`
	Count      int      `json:"count"`
}

// HealthResponse matches internal/http/types.go HealthResponse
type HealthResponse struct {
	Status  string `json:"status"`
	Service string `json:"service"`
	Version string `json:"version"`
}

// runChat handles the chat command
func runChat(cmd *cobra.Command, args []string) error {
	reqBody := ChatRequest{
		Message:      args[0],
		UserID:       chatUser,
		Namespace:    chatNamespace,
		Model:        chatModel,
		SystemPrompt: chatSystem,
	}

	reqJSON, err := json.Marshal(reqBody)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	endpoint := fmt.Sprintf("%s/chat", serverURL)
	httpReq, err := http.NewRequest(http.MethodPost, endpoint, bytes.NewReader(reqJSON))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	client := &http.Client{
		Timeout: 120 * time.Second,
	}

	resp, err := client.Do(httpReq)
	if err != nil {
		return fmt.Errorf("failed to send request to %s: %w", endpoint, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, readErr := io.ReadAll(resp.Body)
		if readErr != nil {
			return fmt.Errorf("server returned status %d (failed to read response body: %w)", resp.StatusCode, readErr)
		}
		return fmt.Errorf("server returned status %d: %s", resp.StatusCode, string(body))
	}

	var chatResp ChatResponse
	if err := json.NewDecoder(resp.Body).Decode(&chatResp); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}

	if !chatResp.Success {
		return fmt.Errorf("chat failed: %s", chatResp.Error)
	}

	fmt.Println(chatResp.Response)
	if chatResp.Metadata != nil {
		fmt.Fprintf(os.Stderr, "[memoric] model=%s namespace=%s tokens=%d\n",
			chatResp.Metadata.Model, chatResp.Metadata.Namespace, chatResp.Metadata.Usage.TotalTokens)
	}

	return nil
}

// runStats handles the stats command
func runStats(cmd *cobra.Command, args []string) error {
	endpoint := fmt.Sprintf("%s/memory/stats", serverURL)
	query := url.Values{}
	if chatNamespace != "" {
		query.Set("namespace", chatNamespace)
	}
	if chatUser != "" {
		query.Set("user_id", chatUser)
	}
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	var statsResp StatsResponse
	if err := getJSON(endpoint, &statsResp); err != nil {
		return err
	}

	fmt.Printf("Namespace: %s\n", statsResp.Namespace)
	fmt.Printf("Database:  %s\n", statsResp.Database)
	fmt.Printf("Status:    %s\n", statsResp.Status)
	return nil
}

// runNamespaces handles the namespaces command
func runNamespaces(cmd *cobra.Command, args []string) error {
	var nsResp NamespacesResponse
	if err := getJSON(fmt.Sprintf("%s/memory/namespaces", serverURL), &nsResp); err != nil {
		return err
	}

	for _, ns := range nsResp.Namespaces {
		fmt.Println(ns)
	}
	fmt.Fprintf(os.Stderr, "[memoric] %d namespace(s)\n", nsResp.Count)
	return nil
}

// runHealth handles the health command
func runHealth(cmd *cobra.Command, args []string) error {
	var healthResp HealthResponse
	endpoint := fmt.Sprintf("%s/health", serverURL)
	if err := getJSON(endpoint, &healthResp); err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to reach %s\n", endpoint)
		return err
	}

	fmt.Printf("Server Status: %s\n", healthResp.Status)
	fmt.Printf("Server URL: %s\n", serverURL)
	fmt.Printf("Version: %s\n", healthResp.Version)
	return nil
}

// getJSON performs a GET request and decodes the JSON response into out.
func getJSON(endpoint string, out any) error {
	client := &http.Client{
		Timeout: 5 * time.Second,
	}

	resp, err := client.Get(endpoint)
	if err != nil {
		return fmt.Errorf("failed to send request to %s: %w", endpoint, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, readErr := io.ReadAll(resp.Body)
		if readErr != nil {
			return fmt.Errorf("server returned status %d (failed to read response body: %w)", resp.StatusCode, readErr)
		}
		return fmt.Errorf("server returned status %d: %s", resp.StatusCode, string(body))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}
