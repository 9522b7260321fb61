package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// apiError mirrors models.ErrorDetail.
type apiError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// awardsResponse mirrors the Ratewalk awards API response.
type awardsResponse struct {
	Success     bool      `json:"success"`
	Awards      []string  `json:"awards"`
	CacheStatus string    `json:"cache_status"`
	Error       *apiError `json:"error"`
}

// walkResponse mirrors the Ratewalk walk creation response.
type walkResponse struct {
	ID     string    `json:"id"`
	Status string    `json:"status"`
	Error  *apiError `json:"error"`
}

// walkStatusResponse mirrors the Ratewalk walk status response.
type walkStatusResponse struct {
	ID        string `json:"id"`
	Award     string `json:"award"`
	Status    string `json:"status"`
	Completed int    `json:"completed"`
	Failures  int    `json:"failures"`
	Entries   []struct {
		Classification string `json:"classification"`
		Age            string `json:"age"`
		HourlyRate     string `json:"hourly_rate"`
		Penalties      []struct {
			Name string `json:"name"`
			Rate string `json:"rate"`
		} `json:"penalties"`
	} `json:"entries"`
	Error *apiError `json:"error"`
}

func main() {
	apiURL := os.Getenv("RATEWALK_API_URL")
	if apiURL == "" {
		apiURL = "http://127.0.0.1:8080"
	}
	apiKey := os.Getenv("RATEWALK_API_KEY")
	if apiKey == "" {
		fmt.Fprintln(os.Stderr, "RATEWALK_API_KEY is required")
		os.Exit(1)
	}

	s := server.NewMCPServer(
		"ratewalk",
		"1.0.0",
		server.WithToolCapabilities(false),
	)

	listAwardsTool := mcp.NewTool("list_awards",
		mcp.WithDescription("List the award codes offered by the Fair Work pay calculator."),
		mcp.WithBoolean("refresh",
			mcp.Description("Bypass the server's cached listing and read the calculator again"),
		),
	)
	s.AddTool(listAwardsTool, handleListAwards(apiURL, apiKey))

	startWalkTool := mcp.NewTool("start_walk",
		mcp.WithDescription("Start walking every classification and age bracket of an award. Returns a walk ID to poll with get_walk; set wait to block until the walk ends."),
		mcp.WithString("award",
			mcp.Required(),
			mcp.Description("The award code, as returned by list_awards"),
		),
		mcp.WithNumber("max_combinations",
			mcp.Description("Stop after this many combinations (default: all)"),
		),
		mcp.WithBoolean("wait",
			mcp.Description("Block until the walk finishes and return its rates (default: false)"),
		),
	)
	s.AddTool(startWalkTool, handleStartWalk(apiURL, apiKey))

	getWalkTool := mcp.NewTool("get_walk",
		mcp.WithDescription("Get the status and captured rates of a walk."),
		mcp.WithString("id",
			mcp.Required(),
			mcp.Description("The walk ID returned by start_walk"),
		),
	)
	s.AddTool(getWalkTool, handleGetWalk(apiURL, apiKey))

	if err := server.ServeStdio(s); err != nil {
		fmt.Fprintf(os.Stderr, "server error: %v\n", err)
		os.Exit(1)
	}
}

// apiDo sends a request to the Ratewalk API and returns the response body.
// payload is JSON-encoded when non-nil.
func apiDo(ctx context.Context, client *http.Client, method, apiURL, apiKey, path string, payload any) ([]byte, error) {
	var body io.Reader
	if payload != nil {
		b, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("marshal request: %w", err)
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, apiURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("X-API-Key", apiKey)

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("API request failed: %w", err)
	}
	defer resp.Body.Close()
	return io.ReadAll(resp.Body)
}

// pollWalk polls a walk until its status is no longer "processing" or ctx is cancelled.
func pollWalk(ctx context.Context, client *http.Client, apiURL, apiKey, id string) (*walkStatusResponse, error) {
	ticker := time.NewTicker(2 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
			body, err := apiDo(ctx, client, http.MethodGet, apiURL, apiKey, "/api/v1/walks/"+id, nil)
			if err != nil {
				return nil, err
			}
			var status walkStatusResponse
			if err := json.Unmarshal(body, &status); err != nil {
				return nil, fmt.Errorf("parse poll status: %w", err)
			}
			if status.Status != "processing" {
				return &status, nil
			}
		}
	}
}

func handleListAwards(apiURL, apiKey string) server.ToolHandlerFunc {
	client := &http.Client{Timeout: 120 * time.Second}

	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		path := "/api/v1/awards"
		if request.GetBool("refresh", false) {
			path += "?refresh=true"
		}

		body, err := apiDo(ctx, client, http.MethodGet, apiURL, apiKey, path, nil)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}

		var resp awardsResponse
		if err := json.Unmarshal(body, &resp); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("failed to parse response: %v", err)), nil
		}
		if !resp.Success {
			return mcp.NewToolResultError(errorText("listing awards failed", resp.Error)), nil
		}

		return mcp.NewToolResultText(fmt.Sprintf("%d awards:\n%s", len(resp.Awards), strings.Join(resp.Awards, "\n"))), nil
	}
}

func handleStartWalk(apiURL, apiKey string) server.ToolHandlerFunc {
	client := &http.Client{Timeout: 60 * time.Second}

	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		award, err := request.RequireString("award")
		if err != nil {
			return mcp.NewToolResultError("award is required"), nil
		}

		payload := map[string]any{"award": award}
		if n := request.GetInt("max_combinations", 0); n > 0 {
			payload["max_combinations"] = n
		}

		body, err := apiDo(ctx, client, http.MethodPost, apiURL, apiKey, "/api/v1/walks", payload)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}

		var resp walkResponse
		if err := json.Unmarshal(body, &resp); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("failed to parse response: %v", err)), nil
		}
		if resp.ID == "" {
			return mcp.NewToolResultError(errorText("walk creation failed", resp.Error)), nil
		}

		if !request.GetBool("wait", false) {
			return mcp.NewToolResultText(fmt.Sprintf("Walk %s started for award %s. Poll it with get_walk.", resp.ID, award)), nil
		}

		status, err := pollWalk(ctx, client, apiURL, apiKey, resp.ID)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("polling walk failed: %v", err)), nil
		}
		return mcp.NewToolResultText(formatWalk(status)), nil
	}
}

func handleGetWalk(apiURL, apiKey string) server.ToolHandlerFunc {
	client := &http.Client{Timeout: 60 * time.Second}

	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		id, err := request.RequireString("id")
		if err != nil {
			return mcp.NewToolResultError("id is required"), nil
		}

		body, err := apiDo(ctx, client, http.MethodGet, apiURL, apiKey, "/api/v1/walks/"+id, nil)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}

		var status walkStatusResponse
		if err := json.Unmarshal(body, &status); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("failed to parse response: %v", err)), nil
		}
		if status.ID == "" {
			return mcp.NewToolResultError(errorText("walk not found", status.Error)), nil
		}
		return mcp.NewToolResultText(formatWalk(&status)), nil
	}
}

func formatWalk(s *walkStatusResponse) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Walk %s (%s): %s, %d combinations, %d retried passes\n", s.ID, s.Award, s.Status, s.Completed, s.Failures)
	if s.Error != nil {
		fmt.Fprintf(&sb, "Error: [%s] %s\n", s.Error.Code, s.Error.Message)
	}
	for _, e := range s.Entries {
		fmt.Fprintf(&sb, "\n- %s / %s: %s", e.Classification, e.Age, e.HourlyRate)
		for _, p := range e.Penalties {
			fmt.Fprintf(&sb, "\n    %s: %s", p.Name, p.Rate)
		}
	}
	return sb.String()
}

func errorText(fallback string, e *apiError) string {
	if e == nil {
		return fallback
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}
