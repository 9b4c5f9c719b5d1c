package service

import (
	"context"

	"github.com/naramarket/naramarket-mcp/internal/model"
)

// Caller executes one upstream request. *G2BClient is the production
// implementation.
type Caller interface {
	Call(ctx context.Context, spec RequestSpec) (any, error)
}

type IAuthService interface {
	ValidateToken(ctx context.Context, tokenString string) (*model.Claims, error)
}

// Pinger is a dependency whose liveness is reported by Health.
type Pinger interface {
	Ping(ctx context.Context) error
}

// IProcurementService is what the REST handlers and the MCP tools need from
// the procurement layer.
type IProcurementService interface {
	Search(ctx context.Context, req *model.DTOToolRequest) (any, error)
	Paginate(ctx context.Context, req *model.DTOToolRequest) (*model.PaginatedResult, error)
	CrawlList(ctx context.Context, req *model.DTOCrawlListRequest) *model.CrawlListResult
	DetailedAttributes(ctx context.Context, item map[string]any) *model.DetailResult
	StatisticsByYear(ctx context.Context, year string, rows int) (any, error)
	SearchShoppingMall(ctx context.Context, product, company string, rows int) (any, error)
	ExplorationGuide(serviceType, operation, expectedSize string) model.ExplorationGuide
	ServicesInfo() []model.ServiceInfo
	Operations(service string) (*model.ServiceInfo, error)
	RegionCodes() map[string]string
	ServerInfo() model.ServerInfo
	Health(ctx context.Context) model.HealthStatus
}
