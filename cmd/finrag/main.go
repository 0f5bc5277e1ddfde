// Package main implements the finrag CLI for manual operations against the finragd HTTP server.
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
)

var (
	// serverURL is the base URL for the finragd HTTP server
	serverURL string
	// version information
	version = "dev"

	// ingest flags
	ingestCompany    string
	ingestYear       string
	ingestFilingType string
	ingestTotalPages int
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "finrag",
	Short: "CLI for finragd HTTP server operations",
	Long: `finrag is a command-line interface for interacting with the finragd HTTP server.
It provides commands for asking questions over indexed filings, ingesting
new documents and inspecting the index.`,
	Version: version,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&serverURL, "server", "http://localhost:9090", "finragd server URL")

	ingestCmd.Flags().StringVar(&ingestCompany, "company", "", "company ticker or name (required)")
	ingestCmd.Flags().StringVar(&ingestYear, "year", "", "filing year (required)")
	ingestCmd.Flags().StringVar(&ingestFilingType, "filing-type", "10-K", "filing type")
	ingestCmd.Flags().IntVar(&ingestTotalPages, "total-pages", 0, "page count of the source document")

	rootCmd.AddCommand(queryCmd)
	rootCmd.AddCommand(ingestCmd)
	rootCmd.AddCommand(statsCmd)
	rootCmd.AddCommand(healthCmd)
}

// queryCmd asks a question against the indexed filings
var queryCmd = &cobra.Command{
	Use:   "query <question>",
	Short: "Ask a question over the indexed filings",
	Long: `Ask a natural-language question over the indexed filings.

Examples:
  # Simple lookup
  finrag query "What was Microsoft's revenue in 2023?"

  # Comparative question, decomposed server-side
  finrag query "Compare Apple and Microsoft R&D spending"

  # Use a different server
  finrag query --server http://localhost:8080 "What was Apple's net income?"`,
	Args: cobra.ExactArgs(1),
	RunE: runQuery,
}

// ingestCmd ingests a filing from a file or stdin
var ingestCmd = &cobra.Command{
	Use:   "ingest [file]",
	Short: "Ingest a filing from a file or stdin",
	Long: `Ingest an extracted filing text into the index.

Examples:
  # Ingest a file
  finrag ingest --company MSFT --year 2023 msft_10k.txt

  # Ingest from stdin
  cat msft_10k.txt | finrag ingest --company MSFT --year 2023 -`,
	Args: cobra.MaximumNArgs(1),
	RunE: runIngest,
}

// statsCmd reports index contents
var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show index statistics",
	Long: `Show index statistics reported by the finragd HTTP server.

Examples:
  # Show stats
  finrag stats`,
	RunE: runStats,
}

// healthCmd checks server health
var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Check finragd server health",
	Long: `Check the health status of the finragd HTTP server.

Examples:
  # Check health
  finrag health

  # Check health on a different server
  finrag health --server http://localhost:8080`,
	RunE: runHealth,
}

// QueryRequest matches internal/server QueryRequest
type QueryRequest struct {
	Query string `json:"query"`
}

// QueryResponse matches the body returned by POST /api/v1/query
type QueryResponse struct {
	Query            string   `json:"query"`
	Answer           string   `json:"answer"`
	Reasoning        string   `json:"reasoning"`
	SubQueries       []string `json:"sub_queries"`
	Sources          []Source `json:"sources"`
	ProcessingTimeMS int64    `json:"processing_time_ms"`
}

// Source matches internal/domain Source
type Source struct {
	Company string `json:"company"`
	Year    string `json:"year"`
	Section string `json:"section"`
	Excerpt string `json:"excerpt"`
}

// IngestRequest matches internal/server IngestRequest
type IngestRequest struct {
	Company    string `json:"company"`
	Year       string `json:"year"`
	FilingType string `json:"filing_type"`
	Text       string `json:"text"`
	TotalPages int    `json:"total_pages"`
}

// IngestResponse matches internal/ingest Result
type IngestResponse struct {
	JobID      string `json:"job_id"`
	ChunkCount int    `json:"chunk_count"`
}

// StatsResponse matches internal/server StatsResponse
type StatsResponse struct {
	Index struct {
		TotalChunks int      `json:"total_chunks"`
		Companies   []string `json:"companies"`
		Years       []string `json:"years"`
		Sections    []string `json:"sections"`
		Dimension   int      `json:"embedding_dimension"`
	} `json:"index"`
	Status string `json:"status"`
}

// HealthResponse matches internal/server HealthResponse
type HealthResponse struct {
	Status string `json:"status"`
}

// runQuery handles the query command
func runQuery(cmd *cobra.Command, args []string) error {
	reqJSON, err := json.Marshal(QueryRequest{Query: args[0]})
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	body, err := postJSON(fmt.Sprintf("%s/api/v1/query", serverURL), reqJSON, 120*time.Second)
	if err != nil {
		return err
	}

	var queryResp QueryResponse
	if err := json.Unmarshal(body, &queryResp); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}

	fmt.Printf("Answer: %s\n", queryResp.Answer)
	if queryResp.Reasoning != "" {
		fmt.Printf("\nReasoning: %s\n", queryResp.Reasoning)
	}
	if len(queryResp.SubQueries) > 1 {
		fmt.Println("\nSub-queries:")
		for _, sq := range queryResp.SubQueries {
			fmt.Printf("  - %s\n", sq)
		}
	}
	if len(queryResp.Sources) > 0 {
		fmt.Println("\nSources:")
		for _, src := range queryResp.Sources {
			fmt.Printf("  - %s %s %s\n", src.Company, src.Year, src.Section)
		}
	}
	fmt.Fprintf(os.Stderr, "\n[finrag] Answered in %dms\n", queryResp.ProcessingTimeMS)

	return nil
}

// runIngest handles the ingest command
func runIngest(cmd *cobra.Command, args []string) error {
	if ingestCompany == "" || ingestYear == "" {
		return fmt.Errorf("--company and --year are required")
	}

	var content []byte
	var err error

	// Read input from file or stdin
	if len(args) == 0 || args[0] == "-" {
		content, err = io.ReadAll(os.Stdin)
		if err != nil {
			return fmt.Errorf("failed to read from stdin: %w", err)
		}
	} else {
		content, err = os.ReadFile(args[0])
		if err != nil {
			return fmt.Errorf("failed to read file %s: %w", args[0], err)
		}
	}

	if len(content) == 0 {
		return fmt.Errorf("no content to ingest")
	}

	reqJSON, err := json.Marshal(IngestRequest{
		Company:    ingestCompany,
		Year:       ingestYear,
		FilingType: ingestFilingType,
		Text:       string(content),
		TotalPages: ingestTotalPages,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	body, err := postJSON(fmt.Sprintf("%s/api/v1/ingest", serverURL), reqJSON, 300*time.Second)
	if err != nil {
		return err
	}

	var ingestResp IngestResponse
	if err := json.Unmarshal(body, &ingestResp); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}

	fmt.Printf("Ingested %d chunk(s) (job %s)\n", ingestResp.ChunkCount, ingestResp.JobID)

	return nil
}

// runStats handles the stats command
func runStats(cmd *cobra.Command, args []string) error {
	url := fmt.Sprintf("%s/stats", serverURL)

	client := &http.Client{
		Timeout: 10 * time.Second,
	}

	resp, err := client.Get(url)
	if err != nil {
		return fmt.Errorf("failed to send request to %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, readErr := io.ReadAll(resp.Body)
		if readErr != nil {
			return fmt.Errorf("server returned status %d (failed to read response body: %w)", resp.StatusCode, readErr)
		}
		return fmt.Errorf("server returned status %d: %s", resp.StatusCode, string(body))
	}

	var statsResp StatsResponse
	if err := json.NewDecoder(resp.Body).Decode(&statsResp); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}

	fmt.Printf("Status:    %s\n", statsResp.Status)
	fmt.Printf("Chunks:    %d\n", statsResp.Index.TotalChunks)
	fmt.Printf("Dimension: %d\n", statsResp.Index.Dimension)
	fmt.Printf("Companies: %v\n", statsResp.Index.Companies)
	fmt.Printf("Years:     %v\n", statsResp.Index.Years)
	fmt.Printf("Sections:  %v\n", statsResp.Index.Sections)

	return nil
}

// runHealth handles the health command
func runHealth(cmd *cobra.Command, args []string) error {
	url := fmt.Sprintf("%s/health", serverURL)

	client := &http.Client{
		Timeout: 5 * time.Second,
	}

	resp, err := client.Get(url)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: Failed to connect to %s: %v\n", url, err)
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, readErr := io.ReadAll(resp.Body)
		if readErr != nil {
			return fmt.Errorf("server returned status %d (failed to read response body: %w)", resp.StatusCode, readErr)
		}
		return fmt.Errorf("server returned status %d: %s", resp.StatusCode, string(body))
	}

	var healthResp HealthResponse
	if err := json.NewDecoder(resp.Body).Decode(&healthResp); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}

	fmt.Printf("Server Status: %s\n", healthResp.Status)

	return nil
}

// postJSON sends a JSON POST request and returns the response body.
func postJSON(url string, payload []byte, timeout time.Duration) ([]byte, error) {
	httpReq, err := http.NewRequest("POST", url, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	client := &http.Client{
		Timeout: timeout,
	}

	resp, err := client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("failed to send request to %s: %w", url, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("server returned status %d: %s", resp.StatusCode, string(body))
	}

	return body, nil
}
