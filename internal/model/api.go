package model

import (
	"time"

	"github.com/naramarket/naramarket-mcp/internal/projection"
)

type CrawlListResult struct {
	Success     bool   `json:"success"`
	Items       []any  `json:"items"`
	TotalCount  int    `json:"total_count"`
	CurrentPage int    `json:"current_page"`
	Category    string `json:"category"`
	Error       string `json:"error,omitempty"`
}

type DetailResult struct {
	Success    bool              `json:"success"`
	APIItem    map[string]any    `json:"api_item"`
	Attributes map[string]string `json:"attributes,omitempty"`
	Error      string            `json:"error,omitempty"`
}

// Pagination describes where a page sits in the full result set.
type Pagination struct {
	CurrentPage     int            `json:"current_page"`
	NumOfRows       int            `json:"num_of_rows"`
	TotalCount      int            `json:"total_count"`
	TotalPages      int            `json:"total_pages"`
	HasNext         bool           `json:"has_next"`
	NextPageRequest map[string]any `json:"next_page_request,omitempty"`
}

type PaginatedResult struct {
	Data       any                   `json:"data"`
	Pagination Pagination            `json:"pagination"`
	Size       projection.SizeReport `json:"size_check"`
	Tips       []string              `json:"tips,omitempty"`
}

type ExplorationConfig struct {
	NumOfRows int    `json:"num_rows"`
	Strategy  string `json:"strategy"`
}

type ExplorationGuide struct {
	ServiceType        string            `json:"service_type"`
	Operation          string            `json:"operation"`
	RecommendedConfig  ExplorationConfig `json:"recommended_config"`
	SampleFirstRequest map[string]int    `json:"sample_first_request"`
	ExplorationTips    []string          `json:"exploration_tips"`
}

type OperationInfo struct {
	Name        string `json:"name"`
	Upstream    string `json:"upstream"`
	Description string `json:"description,omitempty"`
}

type ServiceInfo struct {
	Name             string          `json:"name"`
	Description      string          `json:"description"`
	ResponseType     string          `json:"response_type"`
	DefaultNumOfRows int             `json:"default_num_of_rows"`
	Parameters       []string        `json:"parameters"`
	InqryDivs        []string        `json:"inqry_divs,omitempty"`
	Operations       []OperationInfo `json:"operations"`
}

type ServerInfo struct {
	Success              bool     `json:"success"`
	App                  string   `json:"app"`
	Version              string   `json:"version"`
	Transport            string   `json:"transport"`
	ServiceKeyConfigured bool     `json:"service_key_configured"`
	Services             []string `json:"services"`
	Tools                []string `json:"tools,omitempty"`
}

type HealthStatus struct {
	Status     string            `json:"status"`
	Server     string            `json:"server"`
	Version    string            `json:"version"`
	Components map[string]string `json:"components,omitempty"`
	CheckedAt  time.Time         `json:"checked_at"`
}
