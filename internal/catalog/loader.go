package catalog

import (
	"context"
	"sort"

	"github.com/sourcegraph/conc/pool"
	"go.uber.org/zap"

	"github.com/nathan-omana/SFU-INSIGHT-sub000/internal/planner"
)

// DefaultMaxConcurrency 详情并发请求上限
const DefaultMaxConcurrency = 8

// CourseSections 一门课程加载完成后的教学班集合
type CourseSections struct {
	Term       Term                    `json:"term"`
	Dept       string                  `json:"dept"`
	Number     string                  `json:"number"`
	CourseCode string                  `json:"course_code"`
	Sections   []planner.SectionRecord `json:"sections"`
	// PartialCount 详情获取失败、仅含基础字段的教学班数
	PartialCount int `json:"partial_count"`
}

// Lectures 讲座班
func (c *CourseSections) Lectures() []planner.SectionRecord {
	lectures, _ := planner.SplitByComponent(c.Sections)
	return lectures
}

// Others 非讲座班
func (c *CourseSections) Others() []planner.SectionRecord {
	_, others := planner.SplitByComponent(c.Sections)
	return others
}

// Find 按班号查找（大小写不敏感）
func (c *CourseSections) Find(label string) (planner.SectionRecord, bool) {
	for _, s := range c.Sections {
		if equalFoldTrim(s.SectionLabel, label) {
			return s, true
		}
	}
	return planner.SectionRecord{}, false
}

// Loader 加载一门课程的全部教学班：列表 + 并发获取详情 + 分类
type Loader struct {
	client         Client
	classifier     *planner.Classifier
	maxConcurrency int
	logger         *zap.Logger
}

// NewLoader 创建 Loader
func NewLoader(client Client, classifier *planner.Classifier, maxConcurrency int, logger *zap.Logger) *Loader {
	if maxConcurrency <= 0 {
		maxConcurrency = DefaultMaxConcurrency
	}
	return &Loader{
		client:         client,
		classifier:     classifier,
		maxConcurrency: maxConcurrency,
		logger:         logger,
	}
}

type indexedSection struct {
	idx     int
	record  planner.SectionRecord
	partial bool
}

// LoadCourse 加载课程。
//
// 教学班列表获取失败返回 ErrCatalogFetch；单个详情失败不影响整体，
// 该教学班以基础字段表示（Partial=true）。
func (l *Loader) LoadCourse(ctx context.Context, term Term, dept, number string) (*CourseSections, error) {
	summaries, err := l.client.ListSections(ctx, term, dept, number)
	if err != nil {
		return nil, err
	}

	code := CourseCode(dept, number)
	p := pool.NewWithResults[indexedSection]().WithMaxGoroutines(l.maxConcurrency)
	for i, sum := range summaries {
		p.Go(func() indexedSection {
			record := l.basicRecord(code, sum)
			details, err := l.client.GetSectionDetails(ctx, term, dept, number, sum.Label)
			if err != nil || details == nil {
				l.logger.Warn("教学班详情获取失败，使用基础信息",
					zap.String("course", code),
					zap.String("section", sum.Label),
					zap.Error(err),
				)
				record.Partial = true
				return indexedSection{idx: i, record: record, partial: true}
			}
			applyDetails(&record, details)
			return indexedSection{idx: i, record: record}
		})
	}
	results := p.Wait()
	sort.Slice(results, func(i, j int) bool { return results[i].idx < results[j].idx })

	out := &CourseSections{
		Term:       term,
		Dept:       toUpper(dept),
		Number:     toUpper(number),
		CourseCode: code,
		Sections:   make([]planner.SectionRecord, 0, len(results)),
	}
	for _, r := range results {
		out.Sections = append(out.Sections, r.record)
		if r.partial {
			out.PartialCount++
		}
	}
	return out, nil
}

func (l *Loader) basicRecord(code string, sum SectionSummary) planner.SectionRecord {
	return planner.SectionRecord{
		CourseCode:   code,
		Title:        sum.Title,
		SectionLabel: sum.Label,
		RawType:      sum.RawType,
		Component: l.classifier.Classify(planner.RawSection{
			ClassType:    sum.ClassType,
			DeclaredType: sum.RawType,
			Label:        sum.Label,
		}),
		Blocks: []planner.MeetingBlock{},
	}
}

func applyDetails(r *planner.SectionRecord, d *SectionDetails) {
	if d.Title != "" {
		r.Title = d.Title
	}
	r.Instructor = d.Instructor
	r.CreditUnits = d.CreditUnits
	r.Campus = d.Campus
	r.Blocks = append(make([]planner.MeetingBlock, 0, len(d.Blocks)), d.Blocks...)
}
