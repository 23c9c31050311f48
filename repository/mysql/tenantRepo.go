package mysql

import (
	"context"
	"errors"
	"fmt"

	"github.com/Xushengqwer/go-common/commonerrors"
	"gorm.io/gorm"

	"github.com/Xushengqwer/starter_hub/models/entities"
	"github.com/Xushengqwer/starter_hub/querybuilder"
)

// TenantRepository 定义了租户的数据访问接口。
type TenantRepository interface {
	// CreateTenant 创建租户，slug 冲突时返回的错误满足 errors.Is(err, gorm.ErrDuplicatedKey)。
	CreateTenant(ctx context.Context, tenant *entities.Tenant) error

	// GetTenantByID 未找到返回 commonerrors.ErrRepoNotFound。
	GetTenantByID(ctx context.Context, tenantID string) (*entities.Tenant, error)

	// GetTenantBySlug 未找到返回 commonerrors.ErrRepoNotFound。
	GetTenantBySlug(ctx context.Context, slug string) (*entities.Tenant, error)

	// Lister 返回租户列表的查询委托，仅供平台管理员使用。
	Lister() querybuilder.CursorDelegate[entities.Tenant]
}

type tenantRepository struct {
	db *gorm.DB
}

// NewTenantRepository 创建 TenantRepository。
func NewTenantRepository(db *gorm.DB) TenantRepository {
	return &tenantRepository{db: db}
}

func (r *tenantRepository) CreateTenant(ctx context.Context, tenant *entities.Tenant) error {
	if err := r.db.WithContext(ctx).Create(tenant).Error; err != nil {
		return fmt.Errorf("tenantRepo.CreateTenant: 创建租户失败 (Slug: %s): %w", tenant.Slug, err)
	}
	return nil
}

func (r *tenantRepository) GetTenantByID(ctx context.Context, tenantID string) (*entities.Tenant, error) {
	return r.first(ctx, "id = ?", tenantID)
}

func (r *tenantRepository) GetTenantBySlug(ctx context.Context, slug string) (*entities.Tenant, error) {
	return r.first(ctx, "slug = ?", slug)
}

func (r *tenantRepository) first(ctx context.Context, query string, arg string) (*entities.Tenant, error) {
	var tenant entities.Tenant
	if err := r.db.WithContext(ctx).Where(query, arg).First(&tenant).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, commonerrors.ErrRepoNotFound
		}
		return nil, fmt.Errorf("tenantRepo.first: 查询租户失败 (%s): %w", arg, err)
	}
	return &tenant, nil
}

func (r *tenantRepository) Lister() querybuilder.CursorDelegate[entities.Tenant] {
	return NewDelegate[entities.Tenant](r.db, TenantModel)
}
