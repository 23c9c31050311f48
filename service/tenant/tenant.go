package tenant

import (
	"context"
	"errors"
	"fmt"

	"github.com/Xushengqwer/go-common/commonerrors"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/Xushengqwer/starter_hub/apperrors"
	"github.com/Xushengqwer/starter_hub/models/dto"
	"github.com/Xushengqwer/starter_hub/models/entities"
	"github.com/Xushengqwer/starter_hub/models/enums"
	"github.com/Xushengqwer/starter_hub/querybuilder"
	"github.com/Xushengqwer/starter_hub/repository/mysql"
)

// tenantQueryOptions 租户列表允许的排序、过滤和搜索字段
var tenantQueryOptions = querybuilder.Options{
	AllowedSortFields:   []string{"created_at", "slug", "name"},
	AllowedFilterFields: []string{"status", "slug", "created_at"},
	AllowedSearchFields: []string{"slug", "name"},
}

// TenantService 租户管理，以及供中间件使用的租户解析。
type TenantService interface {
	CreateTenant(ctx context.Context, data dto.CreateTenantDTO) (*entities.Tenant, error)
	GetTenant(ctx context.Context, tenantID string) (*entities.Tenant, error)
	ListTenants(ctx context.Context, q querybuilder.QueryOptions) (*querybuilder.PaginatedResult[entities.Tenant], error)

	// ResolveActive 返回处于启用状态的租户；不存在或已停用都返回 apperrors.ErrTenantNotFound。
	ResolveActive(ctx context.Context, tenantID string) (*entities.Tenant, error)
}

type tenantService struct {
	tenantRepo mysql.TenantRepository
	queryOpts  querybuilder.Options
	logger     *zap.Logger
}

// NewTenantService 创建 TenantService，defaults 为全局分页配置。
func NewTenantService(tenantRepo mysql.TenantRepository, defaults querybuilder.Options, logger *zap.Logger) TenantService {
	return &tenantService{
		tenantRepo: tenantRepo,
		queryOpts:  defaults.Merge(tenantQueryOptions),
		logger:     logger,
	}
}

func (s *tenantService) CreateTenant(ctx context.Context, data dto.CreateTenantDTO) (*entities.Tenant, error) {
	const operation = "TenantService.CreateTenant"

	tenant := &entities.Tenant{
		ID:     uuid.NewString(),
		Slug:   data.Slug,
		Name:   data.Name,
		Status: enums.TenantActive,
	}
	if err := s.tenantRepo.CreateTenant(ctx, tenant); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			s.logger.Warn("租户标识已被占用", zap.String("operation", operation), zap.String("slug", data.Slug))
			return nil, apperrors.ErrTenantSlugTaken.WithArgs(map[string]any{"slug": data.Slug})
		}
		s.logger.Error("创建租户失败", zap.String("operation", operation), zap.String("slug", data.Slug), zap.Error(err))
		return nil, fmt.Errorf("%s: %w", operation, err)
	}

	s.logger.Info("租户创建成功", zap.String("operation", operation), zap.String("tenantID", tenant.ID), zap.String("slug", tenant.Slug))
	return tenant, nil
}

func (s *tenantService) GetTenant(ctx context.Context, tenantID string) (*entities.Tenant, error) {
	tenant, err := s.tenantRepo.GetTenantByID(ctx, tenantID)
	if err != nil {
		if errors.Is(err, commonerrors.ErrRepoNotFound) {
			return nil, apperrors.ErrTenantNotFound
		}
		return nil, fmt.Errorf("TenantService.GetTenant: %w", err)
	}
	return tenant, nil
}

func (s *tenantService) ResolveActive(ctx context.Context, tenantID string) (*entities.Tenant, error) {
	if tenantID == "" {
		return nil, apperrors.ErrTenantRequired
	}
	tenant, err := s.GetTenant(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	if tenant.Status != enums.TenantActive {
		s.logger.Warn("访问已停用的租户", zap.String("operation", "TenantService.ResolveActive"), zap.String("tenantID", tenantID))
		return nil, apperrors.ErrTenantNotFound
	}
	return tenant, nil
}

func (s *tenantService) ListTenants(ctx context.Context, q querybuilder.QueryOptions) (*querybuilder.PaginatedResult[entities.Tenant], error) {
	return querybuilder.Build[entities.Tenant](ctx, s.tenantRepo.Lister(), q, s.queryOpts)
}
