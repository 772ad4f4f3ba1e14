// Package planner asks Gemini for an expansion timeline and turns the answer
// into plan entries.
package planner

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/sudorandom/expansion-globe/pkg/plan"
	"github.com/sudorandom/expansion-globe/pkg/timeline"
)

var ErrNoAPIKey = errors.New("gemini API key not set")

// Client calls the Gemini generateContent endpoint.
type Client struct {
	APIKey     string
	Model      string
	Endpoint   string
	HTTPClient *http.Client
}

func NewClient(apiKey, model, endpoint string, timeout time.Duration) *Client {
	return &Client{
		APIKey:     apiKey,
		Model:      model,
		Endpoint:   strings.TrimSuffix(endpoint, "/"),
		HTTPClient: &http.Client{Timeout: timeout},
	}
}

// Item is one location in the model's answer. Every field may be missing.
type Item struct {
	CountryName string `json:"countryName"`
	Year        int    `json:"year"`
	Month       int    `json:"month"`
	Day         int    `json:"day"`
	Description string `json:"description,omitempty"`
}

type part struct {
	Text string `json:"text"`
}

type content struct {
	Role  string `json:"role,omitempty"`
	Parts []part `json:"parts"`
}

type schema struct {
	Type       string            `json:"type"`
	Items      *schema           `json:"items,omitempty"`
	Properties map[string]schema `json:"properties,omitempty"`
	Required   []string          `json:"required,omitempty"`
}

type generationConfig struct {
	ResponseMimeType string  `json:"responseMimeType"`
	ResponseSchema   *schema `json:"responseSchema"`
}

type apiRequest struct {
	SystemInstruction content          `json:"systemInstruction"`
	Contents          []content        `json:"contents"`
	GenerationConfig  generationConfig `json:"generationConfig"`
}

type apiResponse struct {
	Candidates []struct {
		Content content `json:"content"`
	} `json:"candidates"`
	Error *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Status  string `json:"status"`
	} `json:"error,omitempty"`
}

var itemSchema = &schema{
	Type: "ARRAY",
	Items: &schema{
		Type: "OBJECT",
		Properties: map[string]schema{
			"countryName": {Type: "STRING"},
			"year":        {Type: "INTEGER"},
			"month":       {Type: "INTEGER"},
			"day":         {Type: "INTEGER"},
			"description": {Type: "STRING"},
		},
		Required: []string{"countryName", "year", "month", "day"},
	},
}

func systemInstruction(year int) string {
	return fmt.Sprintf(`You are a strategic business consultant.
Generate a global expansion timeline based on the user's request.
Return a list of locations with realistic dates starting from %d.

Valid locations include:
1. All Countries (e.g., "Japan", "France", "Brazil", "Kenya").
2. All 50 United States (e.g., "California", "Texas", "New York", "Florida").

IMPORTANT FORMATTING RULES:
- For Countries: Use the common English name (e.g., "South Korea", "Vietnam").
- For US States: Return ONLY the state name. Do NOT prefix with 'US', 'USA', or 'State of'.
  - Correct: "California"
  - Incorrect: "USA - California", "US California"

Ensure names match standard English naming conventions found on maps.`, year)
}

// Generate returns the plan entries for prompt. Any failure is logged and
// yields an empty list.
func (c *Client) Generate(ctx context.Context, prompt string, year int) []plan.Entry {
	items, err := c.Items(ctx, prompt, year)
	if err != nil {
		log.Printf("[PLANNER] Plan generation failed: %v", err)
		return nil
	}
	log.Printf("[PLANNER] Generated %d locations", len(items))
	return Entries(items, year)
}

// Items performs the request and parses the raw answer.
func (c *Client) Items(ctx context.Context, prompt string, year int) ([]Item, error) {
	if c.APIKey == "" {
		return nil, ErrNoAPIKey
	}
	body, err := json.Marshal(apiRequest{
		SystemInstruction: content{Parts: []part{{Text: systemInstruction(year)}}},
		Contents:          []content{{Role: "user", Parts: []part{{Text: prompt}}}},
		GenerationConfig:  generationConfig{ResponseMimeType: "application/json", ResponseSchema: itemSchema},
	})
	if err != nil {
		return nil, fmt.Errorf("marshaling request: %w", err)
	}

	url := fmt.Sprintf("%s/models/%s:generateContent", c.Endpoint, c.Model)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-goog-api-key", c.APIKey)

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("API request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}

	var apiResp apiResponse
	if err := json.Unmarshal(respBody, &apiResp); err != nil {
		return nil, fmt.Errorf("parsing response (status %d): %w", resp.StatusCode, err)
	}
	if apiResp.Error != nil {
		return nil, fmt.Errorf("API error (%s): %s", apiResp.Error.Status, apiResp.Error.Message)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("API returned status %d: %.200s", resp.StatusCode, respBody)
	}
	if len(apiResp.Candidates) == 0 || len(apiResp.Candidates[0].Content.Parts) == 0 {
		return nil, errors.New("empty response from API")
	}

	var text strings.Builder
	for _, p := range apiResp.Candidates[0].Content.Parts {
		text.WriteString(p.Text)
	}
	return ParseItems(text.String())
}

// ParseItems reads a JSON array of items from the model's text. It tries a
// direct parse, then the outermost brackets, then a fenced code block.
func ParseItems(text string) ([]Item, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, nil
	}

	var items []Item
	if err := json.Unmarshal([]byte(text), &items); err == nil {
		return items, nil
	}

	if start := strings.Index(text, "["); start >= 0 {
		if end := strings.LastIndex(text, "]"); end > start {
			if err := json.Unmarshal([]byte(text[start:end+1]), &items); err == nil {
				return items, nil
			}
		}
	}

	for _, fence := range []string{"```json", "```"} {
		idx := strings.Index(text, fence)
		if idx < 0 {
			continue
		}
		after := text[idx+len(fence):]
		if end := strings.Index(after, "```"); end >= 0 {
			if err := json.Unmarshal([]byte(strings.TrimSpace(after[:end])), &items); err == nil {
				return items, nil
			}
		}
	}

	return nil, fmt.Errorf("failed to parse plan response as JSON: %.200s", text)
}

// Entries fills in defaults: a missing name becomes "Unknown", a missing
// year becomes year, and a missing month or day becomes 1.
func Entries(items []Item, year int) []plan.Entry {
	out := make([]plan.Entry, 0, len(items))
	for _, it := range items {
		e := plan.Entry{
			Country:     strings.TrimSpace(it.CountryName),
			Start:       timeline.Date{Year: it.Year, Month: it.Month, Day: it.Day},
			Description: it.Description,
		}
		if e.Country == "" {
			e.Country = "Unknown"
		}
		if e.Start.Year == 0 {
			e.Start.Year = year
		}
		if e.Start.Month == 0 {
			e.Start.Month = 1
		}
		if e.Start.Day == 0 {
			e.Start.Day = 1
		}
		out = append(out, e)
	}
	return out
}
