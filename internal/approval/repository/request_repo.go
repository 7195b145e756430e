package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bitfantasy/credit/internal/approval/entity"
	"gorm.io/gorm"
)

// RequestRepository 额度审批单仓库
type RequestRepository struct {
	db *gorm.DB
}

func NewRequestRepository(db *gorm.DB) *RequestRepository {
	return &RequestRepository{db: db}
}

// FindAll 查询审批单列表
func (r *RequestRepository) FindAll(ctx context.Context, page, pageSize int, filters map[string]string) ([]entity.CreditLimitRequest, int64, error) {
	var items []entity.CreditLimitRequest
	var total int64

	query := r.db.WithContext(ctx).Model(&entity.CreditLimitRequest{})

	if status := filters["status"]; status != "" {
		query = query.Where("status = ?", status)
	}
	if customerID := filters["customer_id"]; customerID != "" {
		query = query.Where("customer_id = ?", customerID)
	}
	if createdBy := filters["created_by"]; createdBy != "" {
		query = query.Where("created_by = ?", createdBy)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * pageSize
	err := query.
		Preload("Customer").
		Order("created_at DESC").
		Offset(offset).
		Limit(pageSize).
		Find(&items).Error
	if err != nil {
		return nil, 0, err
	}

	for i := range items {
		normalizeStatus(&items[i])
	}
	return items, total, nil
}

// FindByID 根据ID查找审批单
func (r *RequestRepository) FindByID(ctx context.Context, id string) (*entity.CreditLimitRequest, error) {
	var req entity.CreditLimitRequest
	err := r.db.WithContext(ctx).Preload("Customer").Where("id = ?", id).First(&req).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	normalizeStatus(&req)
	return &req, nil
}

// normalizeStatus 历史数据的状态列可能为空，统一按待初审处理
func normalizeStatus(req *entity.CreditLimitRequest) {
	if req.Status == "" {
		req.Status = entity.StatusPendingReview
	}
}

// Create 创建审批单
func (r *RequestRepository) Create(ctx context.Context, req *entity.CreditLimitRequest) error {
	return r.db.WithContext(ctx).Create(req).Error
}

// UpdateFields 部分字段更新。每次状态流转只落一次库。
func (r *RequestRepository) UpdateFields(ctx context.Context, id string, fields map[string]interface{}) error {
	result := r.db.WithContext(ctx).
		Model(&entity.CreditLimitRequest{}).
		Where("id = ?", id).
		Updates(fields)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete 删除审批单
func (r *RequestRepository) Delete(ctx context.Context, id string) error {
	result := r.db.WithContext(ctx).Where("id = ?", id).Delete(&entity.CreditLimitRequest{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// BatchDelete 批量删除审批单
func (r *RequestRepository) BatchDelete(ctx context.Context, ids []string) (int64, error) {
	result := r.db.WithContext(ctx).Where("id IN ?", ids).Delete(&entity.CreditLimitRequest{})
	return result.RowsAffected, result.Error
}

// GenerateCode 生成审批单编码 CLR-{year}-{4位}
func (r *RequestRepository) GenerateCode(ctx context.Context) (string, error) {
	year := time.Now().Format("2006")
	prefix := fmt.Sprintf("CLR-%s-", year)

	var maxCode string
	err := r.db.WithContext(ctx).
		Model(&entity.CreditLimitRequest{}).
		Select("COALESCE(MAX(code), '')").
		Where("code LIKE ?", prefix+"%").
		Scan(&maxCode).Error
	if err != nil {
		return "", err
	}

	var seq int
	if maxCode != "" {
		fmt.Sscanf(maxCode, "CLR-"+year+"-%04d", &seq)
	}
	seq++
	return fmt.Sprintf("CLR-%s-%04d", year, seq), nil
}
