package service

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/naramarket/naramarket-mcp/internal/config"
	"github.com/naramarket/naramarket-mcp/internal/model"
	"github.com/naramarket/naramarket-mcp/internal/projection"
)

const (
	AppName    = "naramarket-mcp"
	AppVersion = "2.0.0"

	crawlDefaultRows     = 100
	crawlDefaultDaysBack = 7
	crawlOperation       = "getShoppingMallPrdctInfoList"
	healthPingTimeout    = 2 * time.Second
)

// detailHeaders are what shop.g2b.go.kr expects from its own product page.
var detailHeaders = http.Header{
	"Accept":           {"application/json, text/plain, */*"},
	"Content-Type":     {"application/json;charset=UTF-8"},
	"Origin":           {"https://shop.g2b.go.kr"},
	"Referer":          {"https://shop.g2b.go.kr/"},
	"User-Agent":       {"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"},
	"X-Requested-With": {"XMLHttpRequest"},
}

// detailPayloadKeys are copied from a list item into the detail request.
var detailPayloadKeys = []string{"prdctIdntNo", "prdctClsfcNo"}

type ProcurementService struct {
	caller    Caller
	cfg       config.UpstreamConfig
	transport string
	pingers   map[string]Pinger
	tools     []string
	logger    zerolog.Logger
	now       func() time.Time
}

type ProcurementOption func(*ProcurementService)

// WithPinger adds a dependency reported by Health under name.
func WithPinger(name string, p Pinger) ProcurementOption {
	return func(s *ProcurementService) {
		if p != nil {
			s.pingers[name] = p
		}
	}
}

func WithTransport(transport string) ProcurementOption {
	return func(s *ProcurementService) { s.transport = transport }
}

func WithClock(now func() time.Time) ProcurementOption {
	return func(s *ProcurementService) { s.now = now }
}

func NewProcurementService(caller Caller, cfg config.UpstreamConfig, logger zerolog.Logger, opts ...ProcurementOption) *ProcurementService {
	s := &ProcurementService{
		caller:    caller,
		cfg:       cfg,
		transport: config.TransportStdio,
		pingers:   map[string]Pinger{},
		logger:    logger,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// SetToolNames records the tool names reported by ServerInfo. Call it before
// serving.
func (s *ProcurementService) SetToolNames(names []string) {
	s.tools = append([]string(nil), names...)
}

// Search runs one catalog operation and projects the response according to
// the request's fields and response format.
func (s *ProcurementService) Search(ctx context.Context, req *model.DTOToolRequest) (any, error) {
	svc, raw, err := s.fetch(ctx, req)
	if err != nil {
		return nil, err
	}
	return projection.Project(raw, req.Fields, projection.ParseFormat(req.ResponseFormat), svc.ServiceType), nil
}

func (s *ProcurementService) fetch(ctx context.Context, req *model.DTOToolRequest) (*Service, any, error) {
	svc, err := LookupService(req.Service)
	if err != nil {
		return nil, nil, err
	}
	call, err := svc.Resolve(req, s.now())
	if err != nil {
		return nil, nil, err
	}

	raw, err := s.caller.Call(ctx, RequestSpec{
		Endpoint: svc.Name + "." + call.Operation.Upstream,
		Method:   http.MethodGet,
		URL:      strings.TrimRight(s.cfg.BaseURL, "/") + "/" + call.Path,
		Params:   append([]Param{{Key: serviceKeyParam, Value: s.cfg.ServiceKey}}, call.Params...),
		Timeout:  s.cfg.Timeout,
	})
	if err != nil {
		return nil, nil, err
	}
	return svc, raw, nil
}

// CrawlList fetches one page of shopping mall products in a detailed
// product category. Upstream failures are reported in the result.
func (s *ProcurementService) CrawlList(ctx context.Context, req *model.DTOCrawlListRequest) *model.CrawlListResult {
	page := req.PageNo
	if page <= 0 {
		page = 1
	}
	rows := req.NumOfRows
	if rows <= 0 {
		rows = crawlDefaultRows
	}
	result := &model.CrawlListResult{CurrentPage: page, Category: req.Category, Items: []any{}}

	params := map[string]string{"detail_product_classification_name": req.Category}
	if req.InqryBgnDate != "" && req.InqryEndDate != "" {
		params["inquiry_start_date"] = req.InqryBgnDate
		params["inquiry_end_date"] = req.InqryEndDate
	} else {
		daysBack := req.DaysBack
		if daysBack <= 0 {
			daysBack = crawlDefaultDaysBack
		}
		params["inquiry_start_date"], params["inquiry_end_date"] = DateRangeFor(DateRange, daysBack, s.now())
	}
	params["inquiry_div"] = "1"

	_, raw, err := s.fetch(ctx, &model.DTOToolRequest{
		Service:   "shopping_mall",
		Operation: crawlOperation,
		Params:    params,
		NumOfRows: rows,
		PageNo:    page,
	})
	if err != nil {
		result.Error = err.Error()
		return result
	}

	body, _ := projection.Lookup(raw, "response", "body")
	items, _ := projection.Lookup(body, "items")
	result.Items = normalizeItems(items)
	if total, ok := projection.Lookup(body, "totalCount"); ok {
		result.TotalCount = toInt(total)
	}
	result.Success = true
	return result
}

// DetailedAttributes posts the identifiers of a list item to the G2B detail
// API and flattens resultList into attribute name -> value.
func (s *ProcurementService) DetailedAttributes(ctx context.Context, item map[string]any) *model.DetailResult {
	result := &model.DetailResult{APIItem: item}

	payload := map[string]string{}
	for _, k := range detailPayloadKeys {
		if v := stringValue(item[k]); v != "" {
			payload[k] = v
		}
	}
	if payload["prdctIdntNo"] == "" {
		result.Error = fmt.Sprintf("%v: api_item has no prdctIdntNo", ErrInvalidInput)
		return result
	}
	body, err := json.Marshal(payload)
	if err != nil {
		result.Error = err.Error()
		return result
	}

	raw, err := s.caller.Call(ctx, RequestSpec{
		Endpoint: "g2b.detail",
		Method:   http.MethodPost,
		URL:      s.cfg.DetailURL,
		Headers:  detailHeaders,
		Body:     body,
		Timeout:  s.cfg.Timeout,
	})
	if err != nil {
		result.Error = err.Error()
		return result
	}

	attrs := map[string]string{}
	if list, ok := projection.Lookup(raw, "resultList"); ok {
		if entries, ok := list.([]any); ok {
			for _, e := range entries {
				m, ok := e.(map[string]any)
				if !ok {
					continue
				}
				name, value := stringValue(m["prdctAtrbNm"]), stringValue(m["prdctAtrbVl"])
				if name != "" && value != "" {
					attrs[name] = value
				}
			}
		}
	}
	result.Success = true
	result.Attributes = attrs
	return result
}

// StatisticsByYear returns total public procurement figures for year.
func (s *ProcurementService) StatisticsByYear(ctx context.Context, year string, rows int) (any, error) {
	if len(year) != 4 {
		return nil, fmt.Errorf("%w: year must be YYYY, got %q", ErrInvalidInput, year)
	}
	if _, err := strconv.Atoi(year); err != nil {
		return nil, fmt.Errorf("%w: year must be YYYY, got %q", ErrInvalidInput, year)
	}
	if rows <= 0 {
		rows = 10
	}
	return s.Search(ctx, &model.DTOToolRequest{
		Service:   "procurement_statistics",
		Operation: "getTotlPubPrcrmntSttus",
		Params:    map[string]string{"search_base_year": year},
		NumOfRows: rows,
	})
}

// SearchShoppingMall looks up MAS contract products by product and/or
// company name.
func (s *ProcurementService) SearchShoppingMall(ctx context.Context, product, company string, rows int) (any, error) {
	return s.Search(ctx, &model.DTOToolRequest{
		Service:   "shopping_mall",
		Operation: "getMASCntrctPrdctInfoList",
		Params: map[string]string{
			"product_classification_name": product,
			"contract_corp_name":          company,
		},
		NumOfRows: rows,
	})
}

// Paginate runs a search and describes how to fetch the next page.
func (s *ProcurementService) Paginate(ctx context.Context, req *model.DTOToolRequest) (*model.PaginatedResult, error) {
	svc, raw, err := s.fetch(ctx, req)
	if err != nil {
		return nil, err
	}
	data := projection.Project(raw, req.Fields, projection.ParseFormat(req.ResponseFormat), svc.ServiceType)

	rows := req.NumOfRows
	if rows <= 0 {
		rows = svc.DefaultRows
	}
	page := req.PageNo
	if page <= 0 {
		page = 1
	}
	total := 0
	if v, ok := projection.Lookup(raw, "response", "body", "totalCount"); ok {
		total = toInt(v)
	}
	totalPages := 0
	if total > 0 {
		totalPages = (total + rows - 1) / rows
	}

	p := model.Pagination{
		CurrentPage: page,
		NumOfRows:   rows,
		TotalCount:  total,
		TotalPages:  totalPages,
		HasNext:     page < totalPages,
	}
	if p.HasNext {
		next := map[string]any{
			"service_type": svc.Name,
			"operation":    req.Operation,
			"page_no":      page + 1,
			"num_of_rows":  rows,
		}
		if len(req.Params) > 0 {
			next["params"] = req.Params
		}
		if req.ResponseFormat != "" {
			next["response_format"] = req.ResponseFormat
		}
		p.NextPageRequest = next
	}

	size := projection.CheckSize(data, 0)
	tips := []string{
		fmt.Sprintf("page %d of %d (%d records in total)", page, totalPages, total),
	}
	if p.HasNext {
		tips = append(tips, "send next_page_request to continue")
	}
	if size.CompressionNeeded {
		tips = append(tips, "response is large: lower num_of_rows or request a summary format")
	}
	return &model.PaginatedResult{Data: data, Pagination: p, Size: size, Tips: tips}, nil
}

var explorationConfigs = map[string]model.ExplorationConfig{
	"small":  {NumOfRows: 10, Strategy: "a single request is enough"},
	"medium": {NumOfRows: 5, Strategy: "page two or three times"},
	"large":  {NumOfRows: 3, Strategy: "explore gradually over many pages"},
}

// ExplorationGuide recommends a page size for the expected data size.
// Unknown sizes are treated as medium.
func (s *ProcurementService) ExplorationGuide(serviceType, operation, expectedSize string) model.ExplorationGuide {
	cfg, ok := explorationConfigs[strings.ToLower(expectedSize)]
	if !ok {
		cfg = explorationConfigs["medium"]
	}
	return model.ExplorationGuide{
		ServiceType:        serviceType,
		Operation:          operation,
		RecommendedConfig:  cfg,
		SampleFirstRequest: map[string]int{"num_of_rows": cfg.NumOfRows, "page_no": 1},
		ExplorationTips: []string{
			"use the first request to learn the data structure",
			"check total_count in the pagination block for the full size",
			"add search conditions to narrow the range when needed",
			"keep pages small to protect the context window",
		},
	}
}

// ServicesInfo lists every catalog service with its operations.
func (s *ProcurementService) ServicesInfo() []model.ServiceInfo {
	out := make([]model.ServiceInfo, 0, len(catalog))
	for _, svc := range catalog {
		out = append(out, svc.Info())
	}
	return out
}

func (s *ProcurementService) Operations(service string) (*model.ServiceInfo, error) {
	svc, err := LookupService(service)
	if err != nil {
		return nil, err
	}
	info := svc.Info()
	return &info, nil
}

func (s *ProcurementService) RegionCodes() map[string]string {
	return RegionCodes()
}

func (s *ProcurementService) ServerInfo() model.ServerInfo {
	return model.ServerInfo{
		Success:              true,
		App:                  AppName,
		Version:              AppVersion,
		Transport:            s.transport,
		ServiceKeyConfigured: config.HasServiceKey(s.cfg.ServiceKey),
		Services:             ServiceNames(),
		Tools:                s.tools,
	}
}

// Health pings every registered dependency. Any failure marks the server
// degraded; the upstream APIs are not probed.
func (s *ProcurementService) Health(ctx context.Context) model.HealthStatus {
	status := model.HealthStatus{
		Status:    "healthy",
		Server:    AppName,
		Version:   AppVersion,
		CheckedAt: s.now().UTC(),
	}
	if len(s.pingers) == 0 {
		return status
	}

	names := make([]string, 0, len(s.pingers))
	for name := range s.pingers {
		names = append(names, name)
	}
	sort.Strings(names)

	status.Components = make(map[string]string, len(names))
	for _, name := range names {
		pctx, cancel := context.WithTimeout(ctx, healthPingTimeout)
		err := s.pingers[name].Ping(pctx)
		cancel()
		if err != nil {
			s.logger.Warn().Err(err).Str("component", name).Msg("health check failed")
			status.Components[name] = "unavailable"
			status.Status = "degraded"
			continue
		}
		status.Components[name] = "ok"
	}
	return status
}

// normalizeItems accepts the item shapes data.go.kr uses: a list, an object
// wrapping a list or a single record under "item", or "" for no results.
func normalizeItems(v any) []any {
	switch items := v.(type) {
	case []any:
		return items
	case map[string]any:
		inner, ok := items["item"]
		if !ok {
			return []any{items}
		}
		switch iv := inner.(type) {
		case []any:
			return iv
		case map[string]any:
			return []any{iv}
		}
	}
	return []any{}
}

func toInt(v any) int {
	switch n := v.(type) {
	case float64:
		return int(n)
	case int:
		return n
	case json.Number:
		i, _ := n.Int64()
		return int(i)
	case string:
		i, _ := strconv.Atoi(strings.TrimSpace(n))
		return i
	}
	return 0
}

func stringValue(v any) string {
	switch s := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(s)
	case float64:
		return strconv.FormatFloat(s, 'f', -1, 64)
	case json.Number:
		return s.String()
	}
	return fmt.Sprint(v)
}
