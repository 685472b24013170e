package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/nathan-omana/SFU-INSIGHT-sub000/internal/catalog"
	"github.com/nathan-omana/SFU-INSIGHT-sub000/internal/dto"
)

// CatalogService 课程目录浏览接口（只读，结果经缓存层）
type CatalogService interface {
	ListDepartments(ctx context.Context, q *dto.TermQuery) ([]catalog.Department, error)
	ListCourses(ctx context.Context, q *dto.TermQuery, dept string) ([]catalog.Course, error)
	ListSections(ctx context.Context, q *dto.TermQuery, dept, number string) (*dto.CourseSectionsResponse, error)
}

type catalogService struct {
	client catalog.Client
	loader CourseLoader
	logger *zap.Logger
}

// NewCatalogService 创建 CatalogService 实例
func NewCatalogService(client catalog.Client, loader CourseLoader, logger *zap.Logger) CatalogService {
	return &catalogService{client: client, loader: loader, logger: logger}
}

func (s *catalogService) ListDepartments(ctx context.Context, q *dto.TermQuery) ([]catalog.Department, error) {
	term, err := catalog.ParseTerm(q.Year, q.Term)
	if err != nil {
		return nil, err
	}
	depts, err := s.client.ListDepartments(ctx, term)
	if err != nil {
		s.logger.Warn("获取院系列表失败", zap.String("term", term.Key()), zap.Error(err))
		return nil, err
	}
	if depts == nil {
		depts = []catalog.Department{}
	}
	return depts, nil
}

func (s *catalogService) ListCourses(ctx context.Context, q *dto.TermQuery, dept string) ([]catalog.Course, error) {
	term, err := catalog.ParseTerm(q.Year, q.Term)
	if err != nil {
		return nil, err
	}
	courses, err := s.client.ListCourses(ctx, term, dept)
	if err != nil {
		s.logger.Warn("获取课程列表失败",
			zap.String("term", term.Key()),
			zap.String("dept", dept),
			zap.Error(err),
		)
		return nil, err
	}
	if courses == nil {
		courses = []catalog.Course{}
	}
	return courses, nil
}

// ListSections 加载课程全部教学班（含分类与时间块），不影响任何会话
func (s *catalogService) ListSections(ctx context.Context, q *dto.TermQuery, dept, number string) (*dto.CourseSectionsResponse, error) {
	term, err := catalog.ParseTerm(q.Year, q.Term)
	if err != nil {
		return nil, err
	}
	course, err := s.loader.LoadCourse(ctx, term, dept, number)
	if err != nil {
		return nil, err
	}
	return &dto.CourseSectionsResponse{
		Term:         term.Key(),
		CourseCode:   course.CourseCode,
		PartialCount: course.PartialCount,
		Lectures:     dto.NewSectionResponses(course.Lectures()),
		Others:       dto.NewSectionResponses(course.Others()),
	}, nil
}
