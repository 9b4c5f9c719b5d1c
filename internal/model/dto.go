package model

import (
	"encoding/json"

	"github.com/golang-jwt/jwt/v5"
)

// DTOToolRequest is the body of POST /api/v1/tools/{service} and the common
// shape of every search tool.
type DTOToolRequest struct {
	Service        string            `json:"-"`
	Operation      string            `json:"operation" validate:"required"`
	Params         map[string]string `json:"params"`
	Fields         []string          `json:"fields" validate:"omitempty,dive,required"`
	// A format without a preset leaves the response unprojected.
	ResponseFormat string            `json:"response_format"`
	InqryDiv       string            `json:"inqry_div" validate:"omitempty,oneof=1 2 3 4"`
	DaysBack       int               `json:"days_back" validate:"gte=0,lte=365"` // 0 means the service default
	NumOfRows      int               `json:"num_of_rows" validate:"gte=0,lte=1000"`
	PageNo         int               `json:"page_no" validate:"gte=0"`
}

// DTOCrawlListRequest asks for one page of the shopping mall product list.
type DTOCrawlListRequest struct {
	Category     string `json:"category" validate:"required"`
	PageNo       int    `json:"page_no" validate:"gte=0"`
	NumOfRows    int    `json:"num_of_rows" validate:"gte=0,lte=1000"`
	DaysBack     int    `json:"days_back" validate:"gte=0,lte=365"`
	InqryBgnDate string `json:"inqry_bgn_date" validate:"omitempty,len=8,numeric"`
	InqryEndDate string `json:"inqry_end_date" validate:"omitempty,len=8,numeric"`
}

type DTOSizeCheckRequest struct {
	Response json.RawMessage `json:"response" validate:"required"`
	MaxSize  int             `json:"max_size" validate:"gte=0"`
}

// Claims are the JWT claims accepted on the tool endpoints.
type Claims struct {
	Scope string `json:"scope,omitempty"`
	jwt.RegisteredClaims
}
