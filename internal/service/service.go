package service

import (
	"go.uber.org/zap"

	"github.com/nathan-omana/SFU-INSIGHT-sub000/internal/catalog"
	"github.com/nathan-omana/SFU-INSIGHT-sub000/internal/repository"
	"github.com/nathan-omana/SFU-INSIGHT-sub000/internal/storage"
)

// Deps 构建 Service 聚合所需的外部依赖
type Deps struct {
	Repo    *repository.Repository
	Catalog catalog.Client
	Loader  CourseLoader
	Store   *SessionStore
	// Objects 为 nil 时分享功能不可用
	Objects storage.ObjectStore
	Planner PlannerOptions
	Export  ExportOptions
}

// Service 所有 Service 的聚合入口
type Service struct {
	Catalog       CatalogService
	Planner       PlannerService
	SavedSchedule SavedScheduleService
	Export        ExportService
}

// NewService 创建 Service 聚合
func NewService(deps Deps, logger *zap.Logger) *Service {
	plannerSvc := NewPlannerService(deps.Store, deps.Loader, deps.Planner, logger)
	return &Service{
		Catalog:       NewCatalogService(deps.Catalog, deps.Loader, logger),
		Planner:       plannerSvc,
		SavedSchedule: NewSavedScheduleService(deps.Repo, deps.Store, plannerSvc, logger),
		Export:        NewExportService(deps.Store, deps.Objects, deps.Export, logger),
	}
}
