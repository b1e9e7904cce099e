package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/fatih/color"
)

const defaultBaseURL = "http://localhost:8000"

func baseURL() string {
	if url := os.Getenv("API_BASE_URL"); url != "" {
		return url
	}
	return defaultBaseURL
}

// Pretty print JSON helper
func prettyPrint(v interface{}) {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		fmt.Printf("%v\n", v)
		return
	}
	fmt.Println(string(b))
}

// Request helper
func sendRequest(method, path string, body interface{}) (*http.Response, []byte, error) {
	var bodyReader io.Reader
	if body != nil {
		jsonBody, _ := json.Marshal(body)
		bodyReader = bytes.NewBuffer(jsonBody)
	}

	req, err := http.NewRequest(method, baseURL()+path, bodyReader)
	if err != nil {
		return nil, nil, err
	}

	req.Header.Set("Content-Type", "application/json")

	client := &http.Client{} // No timeout: generate can take a while
	resp, err := client.Do(req)
	if err != nil {
		return nil, nil, err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	return resp, respBody, err
}

func main() {
	color.Cyan("🚀 Sketch Engine API Smoke Test (%s)\n", baseURL())

	// 1. Health
	color.Yellow("\n1. GET /health")
	resp, body, err := sendRequest("GET", "/health", nil)
	if err != nil {
		color.Red("Failed: %v", err)
		os.Exit(1)
	}
	color.Green("Status: %s", resp.Status)
	var healthResp map[string]interface{}
	json.Unmarshal(body, &healthResp)
	prettyPrint(healthResp)
	if healthResp["status"] != "ok" {
		color.Red("Health check reported %v", healthResp["status"])
		os.Exit(1)
	}

	// 2. Styles, grabbing the first style id for the generate call
	color.Yellow("\n2. GET /styles")
	resp, body, err = sendRequest("GET", "/styles", nil)
	if err != nil {
		color.Red("Failed: %v", err)
		os.Exit(1)
	}
	color.Green("Status: %s", resp.Status)
	var stylesResp struct {
		Success bool `json:"success"`
		Styles  []struct {
			Id   string `json:"id"`
			Name string `json:"name"`
		} `json:"styles"`
	}
	json.Unmarshal(body, &stylesResp)
	if !stylesResp.Success || len(stylesResp.Styles) == 0 {
		color.Red("No styles available; seed the style library first")
		os.Exit(1)
	}
	for _, s := range stylesResp.Styles {
		fmt.Printf("  - %s (%s)\n", s.Id, s.Name)
	}
	styleId := stylesResp.Styles[0].Id

	// 3. Generate a small batch against the first style
	color.Yellow("\n3. POST /generate (style=%s)", styleId)
	generateReq := map[string]interface{}{
		"input":     "a leaping fox mascot",
		"styleId":   styleId,
		"numImages": 3,
		"sessionId": "smoke-test",
	}
	resp, body, err = sendRequest("POST", "/generate", generateReq)
	if err != nil {
		color.Red("Failed: %v", err)
		os.Exit(1)
	}
	color.Green("Status: %s", resp.Status)
	var generateResp map[string]interface{}
	json.Unmarshal(body, &generateResp)
	prettyPrint(generateResp)

	if success, ok := generateResp["success"].(bool); !ok || !success {
		color.Red("Generate reported failure")
		os.Exit(1)
	}

	color.Cyan("\n✅ Smoke test passed")
}
