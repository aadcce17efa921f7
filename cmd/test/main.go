package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
)

const (
	colorReset  = "\033[0m"
	colorRed    = "\033[31m"
	colorGreen  = "\033[32m"
	colorYellow = "\033[33m"
	colorBlue   = "\033[34m"
	colorPurple = "\033[35m"
	colorCyan   = "\033[36m"
)

var (
	baseURL  string
	testType string
	niche    string
)

var rootCmd = &cobra.Command{
	Use:           "niche-smoke",
	Short:         "Run end-to-end checks against a running niche detector.",
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		client := NewTestClient(baseURL)

		printHeader("Niche Detector - Test Suite")
		fmt.Printf("%sBase URL: %s%s\n\n", colorCyan, baseURL, colorReset)

		tests, ok := client.suite()[testType]
		if testType == "all" {
			tests, ok = client.all(), true
		}
		if !ok {
			fmt.Println("\nAvailable tests: all, health, agent-card, search, a2a, relay")
			return fmt.Errorf("unknown test type: %s", testType)
		}
		return client.run(tests)
	},
}

func init() {
	rootCmd.Flags().StringVar(&baseURL, "url", "http://localhost:8080", "base URL of the server")
	rootCmd.Flags().StringVar(&testType, "test", "all", "test to run: all, health, agent-card, search, a2a, relay")
	rootCmd.Flags().StringVar(&niche, "niche", "First-time dog owners", "niche to analyze")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		printError(err.Error())
		os.Exit(1)
	}
}

type TestClient struct {
	baseURL string
	client  *http.Client
}

func NewTestClient(baseURL string) *TestClient {
	return &TestClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		client: &http.Client{
			Timeout: 90 * time.Second,
		},
	}
}

type namedTest struct {
	name string
	fn   func() bool
}

func (tc *TestClient) suite() map[string][]namedTest {
	return map[string][]namedTest{
		"health":     {{"Health Check", tc.testHealthCheck}},
		"agent-card": {{"Agent Card", tc.testAgentCard}},
		"search":     {{"Search Flow", tc.testSearchFlow}},
		"a2a":        {{"A2A Pain Points", tc.testA2A}},
		"relay":      {{"Gemini Relay", tc.testRelay}},
	}
}

func (tc *TestClient) all() []namedTest {
	var tests []namedTest
	suite := tc.suite()
	for _, name := range []string{"health", "agent-card", "search", "a2a", "relay"} {
		tests = append(tests, suite[name]...)
	}
	return tests
}

func (tc *TestClient) run(tests []namedTest) error {
	passed, failed := 0, 0
	for _, test := range tests {
		if test.fn() {
			passed++
		} else {
			failed++
		}
		fmt.Println()
	}

	if len(tests) > 1 {
		printHeader("Test Summary")
		fmt.Printf("%sPassed: %d%s\n", colorGreen, passed, colorReset)
		fmt.Printf("%sFailed: %d%s\n", colorRed, failed, colorReset)
		fmt.Printf("Total: %d\n", passed+failed)
	}

	if failed > 0 {
		return fmt.Errorf("%d test(s) failed", failed)
	}
	return nil
}

func (tc *TestClient) testHealthCheck() bool {
	printTestHeader("Testing Health Check Endpoint")

	status, body, err := tc.do(http.MethodGet, "/health", nil)
	if err != nil {
		printError(fmt.Sprintf("Request failed: %v", err))
		return false
	}
	if status != http.StatusOK {
		printError(fmt.Sprintf("Expected status 200, got %d", status))
		return false
	}
	if string(body) != "OK" {
		printError(fmt.Sprintf("Expected body 'OK', got '%s'", string(body)))
		return false
	}

	printSuccess("Health check passed")
	return true
}

func (tc *TestClient) testAgentCard() bool {
	printTestHeader("Testing Agent Card Endpoint")

	status, body, err := tc.do(http.MethodGet, "/.well-known/agent.json", nil)
	if err != nil {
		printError(fmt.Sprintf("Request failed: %v", err))
		return false
	}
	if status != http.StatusOK {
		printError(fmt.Sprintf("Expected status 200, got %d", status))
		fmt.Printf("Response: %s\n", string(body))
		return false
	}

	var card map[string]any
	if err := json.Unmarshal(body, &card); err != nil {
		printError(fmt.Sprintf("Invalid JSON response: %v", err))
		return false
	}
	for _, field := range []string{"name", "description", "url", "version", "capabilities", "skills"} {
		if _, ok := card[field]; !ok {
			printError(fmt.Sprintf("Missing required field: %s", field))
			return false
		}
	}

	printSuccess("Agent card is valid")
	printJSON(body)
	return true
}

type sessionView struct {
	State      string `json:"state"`
	PainPoints []struct {
		Summary string `json:"summary"`
		Quote   string `json:"quote"`
	} `json:"painPoints"`
	ProductIdeas []struct {
		Name        string `json:"name"`
		Description string `json:"description"`
	} `json:"productIdeas"`
	SellingAngles []string `json:"sellingAngles"`
}

type sessionResponse struct {
	SessionID string      `json:"sessionId"`
	View      sessionView `json:"view"`
	Error     string      `json:"error"`
}

func (tc *TestClient) testSearchFlow() bool {
	printTestHeader("Testing Search Flow")
	fmt.Printf("%sNiche:%s %s\n\n", colorCyan, colorReset, niche)

	created, ok := tc.sessionCall("/api/sessions", nil, http.StatusCreated)
	if !ok {
		return false
	}
	base := "/api/sessions/" + created.SessionID

	resp, ok := tc.sessionCall(base+"/search", map[string]any{"niche": niche}, http.StatusOK)
	if !ok {
		return false
	}
	if resp.View.State != "problems_ready" || len(resp.View.PainPoints) == 0 {
		printError(fmt.Sprintf("Expected pain points, got state '%s'", resp.View.State))
		return false
	}
	fmt.Printf("\n%sPain Points:%s\n", colorGreen, colorReset)
	for i, p := range resp.View.PainPoints {
		fmt.Printf("%d. %s\n   \"%s\"\n", i+1, p.Summary, p.Quote)
	}

	resp, ok = tc.sessionCall(base+"/pain-point", map[string]any{"index": 0}, http.StatusOK)
	if !ok {
		return false
	}
	if resp.View.State != "ideas_ready" || len(resp.View.ProductIdeas) == 0 {
		printError(fmt.Sprintf("Expected product ideas, got state '%s'", resp.View.State))
		return false
	}
	fmt.Printf("\n%sProduct Ideas:%s\n", colorGreen, colorReset)
	for _, idea := range resp.View.ProductIdeas {
		fmt.Printf("- %s: %s\n", idea.Name, idea.Description)
	}

	resp, ok = tc.sessionCall(base+"/idea", map[string]any{"index": 0}, http.StatusOK)
	if !ok {
		return false
	}
	if resp.View.State != "angles_ready" || len(resp.View.SellingAngles) == 0 {
		printError(fmt.Sprintf("Expected selling angles, got state '%s'", resp.View.State))
		return false
	}
	fmt.Printf("\n%sSelling Angles:%s\n", colorPurple, colorReset)
	for _, angle := range resp.View.SellingAngles {
		fmt.Printf("- %s\n", angle)
	}
	fmt.Println()

	printSuccess("Search flow completed successfully")
	return true
}

func (tc *TestClient) sessionCall(path string, payload any, want int) (sessionResponse, bool) {
	fmt.Printf("POST %s\n", path)

	status, body, err := tc.do(http.MethodPost, path, payload)
	if err != nil {
		printError(fmt.Sprintf("Request failed: %v", err))
		return sessionResponse{}, false
	}

	var resp sessionResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		printError(fmt.Sprintf("Invalid JSON response: %v", err))
		return sessionResponse{}, false
	}
	if status != want {
		printError(fmt.Sprintf("Expected status %d, got %d: %s", want, status, resp.Error))
		return sessionResponse{}, false
	}
	return resp, true
}

func (tc *TestClient) testA2A() bool {
	printTestHeader("Testing A2A Pain Points")

	request := map[string]any{
		"jsonrpc": "2.0",
		"id":      fmt.Sprintf("test-%d", time.Now().Unix()),
		"method":  "message/send",
		"params": map[string]any{
			"message": map[string]any{
				"kind":  "message",
				"role":  "user",
				"parts": []map[string]any{{"kind": "text", "text": niche}},
			},
			"configuration": map[string]any{
				"blocking":            true,
				"acceptedOutputModes": []string{"text", "data"},
			},
		},
	}

	jsonData, _ := json.MarshalIndent(request, "", "  ")
	fmt.Printf("%sRequest:%s\n%s\n\n", colorYellow, colorReset, string(jsonData))

	status, body, err := tc.do(http.MethodPost, "/a2a/niche", request)
	if err != nil {
		printError(fmt.Sprintf("Request failed: %v", err))
		return false
	}
	if status != http.StatusOK {
		printError(fmt.Sprintf("Expected status 200, got %d", status))
		fmt.Printf("Response: %s\n", string(body))
		return false
	}

	var response struct {
		Error  json.RawMessage `json:"error"`
		Result *struct {
			Status struct {
				State   string `json:"state"`
				Message struct {
					Parts []struct {
						Text string `json:"text"`
					} `json:"parts"`
				} `json:"message"`
			} `json:"status"`
			Artifacts json.RawMessage `json:"artifacts"`
		} `json:"result"`
	}
	if err := json.Unmarshal(body, &response); err != nil {
		printError(fmt.Sprintf("Invalid JSON response: %v", err))
		return false
	}
	if len(response.Error) > 0 {
		printError("Request returned an error")
		printJSON(response.Error)
		return false
	}
	if response.Result == nil {
		printError("Invalid result format")
		return false
	}
	if state := response.Result.Status.State; state != "completed" {
		printError(fmt.Sprintf("Expected state 'completed', got '%s'", state))
		return false
	}

	printSuccess("Pain point analysis completed successfully")
	fmt.Println(strings.Repeat("=", 80))
	for _, part := range response.Result.Status.Message.Parts {
		fmt.Println(part.Text)
	}
	fmt.Println(strings.Repeat("=", 80))

	if len(response.Result.Artifacts) > 0 {
		fmt.Printf("\n%sArtifacts:%s\n", colorPurple, colorReset)
		printJSON(response.Result.Artifacts)
	}
	return true
}

func (tc *TestClient) testRelay() bool {
	printTestHeader("Testing Gemini Relay")

	prompt := fmt.Sprintf("List three problems people in the niche %q talk about. One line each.", niche)
	status, body, err := tc.do(http.MethodPost, "/api/gemini", map[string]string{"prompt": prompt})
	if err != nil {
		printError(fmt.Sprintf("Request failed: %v", err))
		return false
	}
	if status != http.StatusOK {
		printError(fmt.Sprintf("Expected status 200, got %d", status))
		fmt.Printf("Response: %s\n", string(body))
		return false
	}

	printSuccess("Relay returned a response")
	printJSON(body)
	return true
}

func (tc *TestClient) do(method, path string, payload any) (int, []byte, error) {
	var reader io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return 0, nil, err
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequest(method, tc.baseURL+path, reader)
	if err != nil {
		return 0, nil, err
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept-Language", "en")

	resp, err := tc.client.Do(req)
	if err != nil {
		return 0, nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	return resp.StatusCode, body, err
}

func printHeader(text string) {
	fmt.Printf("\n%s%s%s\n", colorBlue, strings.Repeat("=", len(text)+4), colorReset)
	fmt.Printf("%s= %s =%s\n", colorBlue, text, colorReset)
	fmt.Printf("%s%s%s\n\n", colorBlue, strings.Repeat("=", len(text)+4), colorReset)
}

func printTestHeader(text string) {
	fmt.Printf("%s[TEST] %s%s\n", colorCyan, text, colorReset)
	fmt.Println(strings.Repeat("-", 80))
}

func printSuccess(text string) {
	fmt.Printf("%s✓ %s%s\n", colorGreen, text, colorReset)
}

func printError(text string) {
	fmt.Printf("%s✗ %s%s\n", colorRed, text, colorReset)
}

func printJSON(data []byte) {
	var prettyJSON bytes.Buffer
	if err := json.Indent(&prettyJSON, data, "", "  "); err == nil {
		fmt.Printf("\n%sResponse:%s\n%s\n", colorYellow, colorReset, prettyJSON.String())
	}
}
