package mcpserver

import (
	"context"
	"fmt"

	"github.com/naramarket/naramarket-mcp/internal/model"
	"github.com/naramarket/naramarket-mcp/internal/projection"
	"github.com/naramarket/naramarket-mcp/internal/service"
)

// Services with a fixed set of operations get one tool per operation, named
// prefix + operation.
var operationToolPrefixes = map[string]string{
	"bid_announcement": "get_bid_announcement_",
	"successful_bid":   "get_successful_bid_list_",
	"contract_info":    "get_contract_info_",
}

// Services addressed by upstream operation name get a single tool.
var serviceTools = map[string]string{
	"procurement_statistics": "call_procurement_statistics_api",
	"product_list":           "call_product_list_api",
	"shopping_mall":          "call_shopping_mall_api",
}

type noInput struct{}

type searchInput struct {
	Params         map[string]string `json:"params,omitempty" jsonschema:"search conditions keyed by parameter name, e.g. bid_ntce_nm"`
	InqryDiv       string            `json:"inqry_div,omitempty" jsonschema:"inquiry division code"`
	DaysBack       int               `json:"days_back,omitempty" jsonschema:"how many days back the date range starts"`
	NumOfRows      int               `json:"num_of_rows,omitempty" jsonschema:"rows per page"`
	PageNo         int               `json:"page_no,omitempty" jsonschema:"page number starting at 1"`
	Fields         []string          `json:"fields,omitempty" jsonschema:"item fields to keep, overrides response_format"`
	ResponseFormat string            `json:"response_format,omitempty" jsonschema:"full, summary, minimal or key_fields"`
}

type operationInput struct {
	Operation      string            `json:"operation" jsonschema:"upstream operation name"`
	Params         map[string]string `json:"params,omitempty" jsonschema:"search conditions keyed by parameter name"`
	NumOfRows      int               `json:"num_of_rows,omitempty" jsonschema:"rows per page"`
	PageNo         int               `json:"page_no,omitempty" jsonschema:"page number starting at 1"`
	Fields         []string          `json:"fields,omitempty" jsonschema:"item fields to keep, overrides response_format"`
	ResponseFormat string            `json:"response_format,omitempty" jsonschema:"full, summary, minimal or key_fields"`
}

type paginationInput struct {
	ServiceType    string            `json:"service_type" jsonschema:"catalog service name"`
	Operation      string            `json:"operation" jsonschema:"operation name"`
	Params         map[string]string `json:"params,omitempty" jsonschema:"search conditions keyed by parameter name"`
	InqryDiv       string            `json:"inqry_div,omitempty" jsonschema:"inquiry division code"`
	DaysBack       int               `json:"days_back,omitempty" jsonschema:"how many days back the date range starts"`
	NumOfRows      int               `json:"num_of_rows,omitempty" jsonschema:"rows per page"`
	PageNo         int               `json:"page_no,omitempty" jsonschema:"page number starting at 1"`
	Fields         []string          `json:"fields,omitempty" jsonschema:"item fields to keep, overrides response_format"`
	ResponseFormat string            `json:"response_format,omitempty" jsonschema:"full, summary, minimal or key_fields"`
}

type crawlListInput struct {
	Category     string `json:"category" jsonschema:"detailed product classification name, e.g. 데스크톱컴퓨터"`
	PageNo       int    `json:"page_no,omitempty" jsonschema:"page number starting at 1"`
	NumOfRows    int    `json:"num_of_rows,omitempty" jsonschema:"rows per page, default 100"`
	DaysBack     int    `json:"days_back,omitempty" jsonschema:"how many days back the date range starts, default 7"`
	InqryBgnDate string `json:"inqry_bgn_date,omitempty" jsonschema:"explicit start date YYYYMMDD"`
	InqryEndDate string `json:"inqry_end_date,omitempty" jsonschema:"explicit end date YYYYMMDD"`
}

type detailInput struct {
	APIItem map[string]any `json:"api_item" jsonschema:"one item returned by crawl_list"`
}

type serviceTypeInput struct {
	ServiceType string `json:"service_type" jsonschema:"catalog service name"`
}

type fieldInfoInput struct {
	ServiceType string `json:"service_type,omitempty" jsonschema:"response type, default bid_announcement"`
}

type sizeCheckInput struct {
	Response any `json:"response" jsonschema:"the response to measure"`
	MaxSize  int `json:"max_size,omitempty" jsonschema:"threshold in characters, default 50000"`
}

type explorationInput struct {
	ServiceType      string `json:"service_type" jsonschema:"catalog service name"`
	Operation        string `json:"operation" jsonschema:"operation name"`
	ExpectedDataSize string `json:"expected_data_size,omitempty" jsonschema:"small, medium or large"`
}

type yearInput struct {
	Year      string `json:"year" jsonschema:"base year YYYY"`
	NumOfRows int    `json:"num_of_rows,omitempty" jsonschema:"rows per page, default 10"`
}

type shoppingInput struct {
	ProductName string `json:"product_name,omitempty" jsonschema:"product classification name"`
	CompanyName string `json:"company_name,omitempty" jsonschema:"contract company name"`
	NumOfRows   int    `json:"num_of_rows,omitempty" jsonschema:"rows per page"`
}

func (s *Server) registerTools() {
	addTool(s, "crawl_list", "Fetch one page of Naramarket shopping mall products in a detailed product category",
		func(ctx context.Context, in crawlListInput) (any, error) {
			req := &model.DTOCrawlListRequest{
				Category:     in.Category,
				PageNo:       in.PageNo,
				NumOfRows:    in.NumOfRows,
				DaysBack:     in.DaysBack,
				InqryBgnDate: in.InqryBgnDate,
				InqryEndDate: in.InqryEndDate,
			}
			if err := service.Validate(req); err != nil {
				return nil, err
			}
			return s.svc.CrawlList(ctx, req), nil
		})

	addTool(s, "get_detailed_attributes", "Fetch the G2B detail attributes of one crawl_list item",
		func(ctx context.Context, in detailInput) (any, error) {
			return s.svc.DetailedAttributes(ctx, in.APIItem), nil
		})

	for _, svc := range service.Services() {
		if prefix, ok := operationToolPrefixes[svc.Name]; ok {
			for _, op := range svc.Operations {
				s.addSearchTool(prefix+op.Name, svc.Name, op.Name, fmt.Sprintf("%s: %s", svc.Description, op.Description))
			}
			continue
		}
		if name, ok := serviceTools[svc.Name]; ok {
			s.addOperationTool(name, svc.Name, svc.Description)
		}
	}

	addTool(s, "get_procurement_statistics_by_year", "Total public procurement statistics for one year",
		func(ctx context.Context, in yearInput) (any, error) {
			return s.svc.StatisticsByYear(ctx, in.Year, in.NumOfRows)
		})

	addTool(s, "search_shopping_mall_products", "Search multiple award schedule contract products by product and/or company name",
		func(ctx context.Context, in shoppingInput) (any, error) {
			if in.ProductName == "" && in.CompanyName == "" {
				return nil, fmt.Errorf("%w: product_name or company_name is required", service.ErrInvalidInput)
			}
			return s.svc.SearchShoppingMall(ctx, in.ProductName, in.CompanyName, in.NumOfRows)
		})

	addTool(s, "call_api_with_pagination_support", "Run a search and get pagination guidance with a ready next page request",
		func(ctx context.Context, in paginationInput) (any, error) {
			req := &model.DTOToolRequest{
				Service:        in.ServiceType,
				Operation:      in.Operation,
				Params:         in.Params,
				Fields:         in.Fields,
				ResponseFormat: in.ResponseFormat,
				InqryDiv:       in.InqryDiv,
				DaysBack:       in.DaysBack,
				NumOfRows:      in.NumOfRows,
				PageNo:         in.PageNo,
			}
			if err := service.Validate(req); err != nil {
				return nil, err
			}
			return s.svc.Paginate(ctx, req)
		})

	addTool(s, "get_data_exploration_guide", "Recommend a page size and strategy for exploring an operation",
		func(_ context.Context, in explorationInput) (any, error) {
			return s.svc.ExplorationGuide(in.ServiceType, in.Operation, in.ExpectedDataSize), nil
		})

	addTool(s, "get_all_api_services_info", "List every API service with its operations and parameters",
		func(context.Context, noInput) (any, error) {
			return map[string]any{"success": true, "services": s.svc.ServicesInfo()}, nil
		})

	addTool(s, "get_api_operations", "List the operations of one API service",
		func(_ context.Context, in serviceTypeInput) (any, error) {
			return s.svc.Operations(in.ServiceType)
		})

	addTool(s, "get_response_field_info", "Describe the response formats and fields of a response type",
		func(_ context.Context, in fieldInfoInput) (any, error) {
			st := in.ServiceType
			if st == "" {
				st = string(projection.BidAnnouncement)
			}
			return projection.AvailableFields(st), nil
		})

	addTool(s, "get_all_response_format_info", "Describe every response format and the field count per response type",
		func(context.Context, noInput) (any, error) {
			return projection.AllFormats(), nil
		})

	addTool(s, "check_response_size", "Measure a response and advise how to shrink it",
		func(_ context.Context, in sizeCheckInput) (any, error) {
			return projection.CheckSize(in.Response, in.MaxSize), nil
		})

	addTool(s, "get_region_codes", "Participation restricted region codes",
		func(context.Context, noInput) (any, error) {
			return s.svc.RegionCodes(), nil
		})

	addTool(s, "server_info", "Server name, version, transport and available tools",
		func(context.Context, noInput) (any, error) {
			return s.svc.ServerInfo(), nil
		})

	addTool(s, "health_check", "Report server health and dependency status",
		func(ctx context.Context, _ noInput) (any, error) {
			return s.svc.Health(ctx), nil
		})
}

func (s *Server) addSearchTool(name, serviceName, operation, description string) {
	addTool(s, name, description, func(ctx context.Context, in searchInput) (any, error) {
		req := &model.DTOToolRequest{
			Service:        serviceName,
			Operation:      operation,
			Params:         in.Params,
			Fields:         in.Fields,
			ResponseFormat: in.ResponseFormat,
			InqryDiv:       in.InqryDiv,
			DaysBack:       in.DaysBack,
			NumOfRows:      in.NumOfRows,
			PageNo:         in.PageNo,
		}
		if err := service.Validate(req); err != nil {
			return nil, err
		}
		return s.svc.Search(ctx, req)
	})
}

func (s *Server) addOperationTool(name, serviceName, description string) {
	addTool(s, name, description, func(ctx context.Context, in operationInput) (any, error) {
		req := &model.DTOToolRequest{
			Service:        serviceName,
			Operation:      in.Operation,
			Params:         in.Params,
			Fields:         in.Fields,
			ResponseFormat: in.ResponseFormat,
			NumOfRows:      in.NumOfRows,
			PageNo:         in.PageNo,
		}
		if err := service.Validate(req); err != nil {
			return nil, err
		}
		return s.svc.Search(ctx, req)
	})
}
