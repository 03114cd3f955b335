// Package main implements the tiisctl CLI for manual operations against the
// tiisd HTTP server.
package main

import (
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
	// serverURL is the base URL for the tiisd HTTP server
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
	Use:   "tiisctl",
	Short: "CLI for tiisd HTTP server operations",
	Long: `tiisctl is a command-line interface for interacting with the tiisd HTTP
server. It provides commands for checking server health and inspecting the
tool mention aggregation.`,
	Version: version,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&serverURL, "server", "http://localhost:8080", "tiisd server URL")
	rootCmd.AddCommand(healthCmd)
	rootCmd.AddCommand(toolsCmd)
	toolsCmd.AddCommand(toolsStatsCmd)
	toolsCmd.AddCommand(toolsDetailCmd)
	toolsCmd.Flags().BoolVar(&byCategory, "category", false, "group tools by category")
}

var byCategory bool

// healthCmd checks server health
var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Check tiisd server health",
	Long: `Check the health status of the tiisd HTTP server.

Examples:
  # Check health
  tiisctl health

  # Check health on a different server
  tiisctl health --server http://localhost:9090`,
	RunE: runHealth,
}

// toolsCmd prints the global tool table
var toolsCmd = &cobra.Command{
	Use:   "tools",
	Short: "Show aggregated tool mentions",
	Long: `Show the tool mention aggregation computed over all conversations.

Examples:
  # Global tool table
  tiisctl tools

  # Grouped by category
  tiisctl tools --category`,
	RunE: runTools,
}

// toolsStatsCmd prints aggregation totals
var toolsStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show tool aggregation totals",
	RunE:  runToolsStats,
}

// toolsDetailCmd prints the drill-down for one tool
var toolsDetailCmd = &cobra.Command{
	Use:   "detail <name>",
	Short: "Show the per-user detail for one tool",
	Args:  cobra.ExactArgs(1),
	RunE:  runToolsDetail,
}

// HealthResponse matches internal/httpapi HealthResponse
type HealthResponse struct {
	Status string `json:"status"`
}

// ToolStat matches internal/toolmentions ToolStat
type ToolStat struct {
	Name          string `json:"name"`
	Category      string `json:"category"`
	TotalMentions int    `json:"total_mentions"`
	UserCount     int    `json:"user_count"`
}

// CategoryGroup matches internal/toolmentions CategoryGroup
type CategoryGroup struct {
	Category      string     `json:"category"`
	ToolCount     int        `json:"tool_count"`
	TotalMentions int        `json:"total_mentions"`
	Tools         []ToolStat `json:"tools"`
}

// getJSON fetches path from the server and decodes the body into out.
func getJSON(path string, out any) error {
	client := &http.Client{
		Timeout: 30 * time.Second,
	}

	fullURL := serverURL + path
	resp, err := client.Get(fullURL)
	if err != nil {
		return fmt.Errorf("failed to send request to %s: %w", fullURL, err)
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

// runHealth handles the health command
func runHealth(cmd *cobra.Command, args []string) error {
	var resp HealthResponse
	if err := getJSON("/health", &resp); err != nil {
		return err
	}
	fmt.Printf("Server status: %s\n", resp.Status)
	return nil
}

// runTools handles the tools command
func runTools(cmd *cobra.Command, args []string) error {
	if byCategory {
		var groups []CategoryGroup
		if err := getJSON("/api/v1/tools/categories", &groups); err != nil {
			return err
		}
		for _, g := range groups {
			fmt.Printf("%s (%d tools, %d mentions)\n", g.Category, g.ToolCount, g.TotalMentions)
			for _, t := range g.Tools {
				fmt.Printf("  %-24s %4d mentions  %3d users\n", t.Name, t.TotalMentions, t.UserCount)
			}
		}
		return nil
	}

	var stats []ToolStat
	if err := getJSON("/api/v1/tools", &stats); err != nil {
		return err
	}
	for _, t := range stats {
		fmt.Printf("%-24s %-24s %4d mentions  %3d users\n", t.Name, t.Category, t.TotalMentions, t.UserCount)
	}
	return nil
}

// runToolsStats handles the tools stats command
func runToolsStats(cmd *cobra.Command, args []string) error {
	var stats map[string]any
	if err := getJSON("/api/v1/tools/stats", &stats); err != nil {
		return err
	}
	out, err := json.MarshalIndent(stats, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to format stats: %w", err)
	}
	fmt.Println(string(out))
	return nil
}

// runToolsDetail handles the tools detail command
func runToolsDetail(cmd *cobra.Command, args []string) error {
	var detail map[string]any
	if err := getJSON("/api/v1/tools/"+url.PathEscape(args[0]), &detail); err != nil {
		return err
	}
	out, err := json.MarshalIndent(detail, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to format detail: %w", err)
	}
	fmt.Println(string(out))
	return nil
}
