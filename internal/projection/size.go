package projection

import (
	"encoding/json"
	"fmt"
	"unicode/utf8"
)

// DefaultMaxSize is the size advisory threshold, in characters.
const DefaultMaxSize = 50000

// SizeReport is the result of CheckSize.
type SizeReport struct {
	CurrentSize       int      `json:"current_size"`
	MaxSize           int      `json:"max_size"`
	SizeOK            bool     `json:"size_ok"`
	CompressionNeeded bool     `json:"compression_needed"`
	Recommendations   []string `json:"recommendations,omitempty"`
}

// CheckSize measures the JSON text of resp in characters and advises how to
// shrink it when it exceeds maxSize. maxSize <= 0 selects DefaultMaxSize.
func CheckSize(resp any, maxSize int) SizeReport {
	if maxSize <= 0 {
		maxSize = DefaultMaxSize
	}

	var text string
	if b, err := json.Marshal(resp); err == nil {
		text = string(b)
	} else {
		text = fmt.Sprint(resp)
	}
	size := utf8.RuneCountInString(text)

	report := SizeReport{
		CurrentSize:       size,
		MaxSize:           maxSize,
		SizeOK:            size <= maxSize,
		CompressionNeeded: size > maxSize,
	}
	if report.CompressionNeeded {
		report.Recommendations = []string{
			"The response is large. Consider the following:",
			"1. use response_format='summary' or 'minimal'",
			"2. lower num_rows and page through the results",
			"3. pass fields to keep only the fields you need",
			fmt.Sprintf("current size: %d characters, recommended: %d or fewer", size, maxSize),
		}
	}
	return report
}
