package handler

import "github.com/nathan-omana/SFU-INSIGHT-sub000/internal/service"

// Handler 所有 Handler 的聚合入口
type Handler struct {
	Catalog       *CatalogHandler
	Planner       *PlannerHandler
	SavedSchedule *SavedScheduleHandler
	Export        *ExportHandler
}

// NewHandler 创建 Handler 聚合
func NewHandler(svc *service.Service) *Handler {
	return &Handler{
		Catalog:       NewCatalogHandler(svc.Catalog),
		Planner:       NewPlannerHandler(svc.Planner),
		SavedSchedule: NewSavedScheduleHandler(svc.SavedSchedule),
		Export:        NewExportHandler(svc.Export),
	}
}
