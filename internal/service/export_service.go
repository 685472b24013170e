package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"github.com/nathan-omana/SFU-INSIGHT-sub000/internal/dto"
	"github.com/nathan-omana/SFU-INSIGHT-sub000/internal/planner"
	"github.com/nathan-omana/SFU-INSIGHT-sub000/internal/storage"
)

// ── 导出模块业务错误 ──

var (
	ErrExportEmpty         = errors.New("课表为空，无可导出内容")
	ErrExportGenerateFail  = errors.New("生成导出文件失败")
	ErrExportFormatUnknown = errors.New("不支持的导出格式")
	ErrStorageDisabled     = errors.New("未启用对象存储，无法生成分享链接")
)

// 导出格式
const (
	FormatICS   = "ics"
	FormatExcel = "xlsx"
)

const (
	contentTypeICS   = "text/calendar; charset=utf-8"
	contentTypeExcel = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

// ExportFile 导出结果
type ExportFile struct {
	Data        *bytes.Buffer
	FileName    string
	ContentType string
}

// ExportOptions 导出参数
type ExportOptions struct {
	ICS planner.ICSOptions
	// 表格导出的起始时间（分钟），课程更早时自动前移
	DayStartMinutes int
}

// ExportService 导出业务接口
//
// 设计说明：
//   - ICS：每个时间块一个按周重复的 VEVENT，学期窗口来自配置
//   - Excel：Sheet "课表" 为 星期列 × 10 分钟行 的网格，按课程颜色填充；
//     Sheet "课程列表" 列出全部条目与学分合计
//   - Share 将导出文件上传对象存储并返回预签名链接；未启用存储时返回 ErrStorageDisabled
type ExportService interface {
	ExportICS(ctx context.Context, sessionID string) (*ExportFile, error)
	ExportExcel(ctx context.Context, sessionID string) (*ExportFile, error)
	Share(ctx context.Context, sessionID, format string) (*dto.ShareResponse, error)
}

type exportService struct {
	store   *SessionStore
	objects storage.ObjectStore
	opts    ExportOptions
	logger  *zap.Logger
}

// NewExportService 创建 ExportService 实例；objects 可为 nil
func NewExportService(store *SessionStore, objects storage.ObjectStore, opts ExportOptions, logger *zap.Logger) ExportService {
	if opts.DayStartMinutes <= 0 {
		opts.DayStartMinutes = planner.DefaultDayStartMinutes
	}
	return &exportService{store: store, objects: objects, opts: opts, logger: logger}
}

func (s *exportService) ExportICS(_ context.Context, sessionID string) (*ExportFile, error) {
	schedule, err := s.nonEmptySnapshot(sessionID)
	if err != nil {
		return nil, err
	}
	data, err := planner.ExportICS(schedule, s.opts.ICS)
	if err != nil {
		s.logger.Error("生成 ICS 失败", zap.String("session_id", sessionID), zap.Error(err))
		return nil, ErrExportGenerateFail
	}
	return &ExportFile{
		Data:        bytes.NewBuffer(data),
		FileName:    exportFileName(FormatICS),
		ContentType: contentTypeICS,
	}, nil
}

// ═══════════════════════════════════════════════════════════
// ExportExcel 导出课表为 Excel
// ═══════════════════════════════════════════════════════════
//
// 输出格式：
//   - 行头：10 分钟一行，整点与半点显示时间
//   - 列头：周一 ~ 周五（有周末课程时扩展到周日）
//   - 单元格：课程代码 班号 / 组件 / 地点，跨行合并并按课程颜色填充

const excelRowMinutes = 10

var excelDayNames = map[planner.Weekday]string{
	planner.Monday: "周一", planner.Tuesday: "周二", planner.Wednesday: "周三",
	planner.Thursday: "周四", planner.Friday: "周五", planner.Saturday: "周六", planner.Sunday: "周日",
}

func (s *exportService) ExportExcel(_ context.Context, sessionID string) (*ExportFile, error) {
	schedule, err := s.nonEmptySnapshot(sessionID)
	if err != nil {
		return nil, err
	}

	f := excelize.NewFile()
	defer f.Close()

	if err := s.writeGridSheet(f, schedule); err != nil {
		s.logger.Error("写入课表网格失败", zap.Error(err))
		return nil, ErrExportGenerateFail
	}
	if err := writeListSheet(f, schedule); err != nil {
		s.logger.Error("写入课程列表失败", zap.Error(err))
		return nil, ErrExportGenerateFail
	}
	// 删除默认 Sheet1
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return nil, ErrExportGenerateFail
	}

	buf := new(bytes.Buffer)
	if err := f.Write(buf); err != nil {
		s.logger.Error("写入 Excel 失败", zap.Error(err))
		return nil, ErrExportGenerateFail
	}
	return &ExportFile{
		Data:        buf,
		FileName:    exportFileName(FormatExcel),
		ContentType: contentTypeExcel,
	}, nil
}

func (s *exportService) writeGridSheet(f *excelize.File, schedule *planner.Schedule) error {
	const sheet = "课表"
	idx, err := f.NewSheet(sheet)
	if err != nil {
		return err
	}
	f.SetActiveSheet(idx)

	cells := planner.GridGeometry{DayStartMinutes: s.opts.DayStartMinutes, PixelsPerMinute: 1}.BuildGrid(schedule)

	// 时间范围：按 10 分钟取整
	first, last := s.opts.DayStartMinutes, s.opts.DayStartMinutes+9*60
	lastDay := planner.Friday
	for _, c := range cells {
		if m := planner.TimeToMinutes(c.StartTime); m < first {
			first = m
		}
		if m := planner.TimeToMinutes(c.EndTime); m > last {
			last = m
		}
		if c.Day > lastDay {
			lastDay = c.Day
		}
	}
	first = first / excelRowMinutes * excelRowMinutes
	last = (last + excelRowMinutes - 1) / excelRowMinutes * excelRowMinutes
	rowOf := func(minutes int) int { return 2 + (minutes-first)/excelRowMinutes }

	_ = f.SetColWidth(sheet, "A", "A", 8)
	_ = f.SetColWidth(sheet, "B", colName(int(lastDay)), 20)

	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 11, Color: "#FFFFFF"},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#4472C4"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})

	// 表头
	_ = f.SetCellValue(sheet, "A1", "时间")
	for d := planner.Monday; d <= lastDay; d++ {
		_ = f.SetCellValue(sheet, cell(colName(int(d)), 1), excelDayNames[d])
	}
	_ = f.SetCellStyle(sheet, "A1", cell(colName(int(lastDay)), 1), headerStyle)

	// 时间列
	for m := first; m < last; m += excelRowMinutes {
		if m%30 == 0 {
			_ = f.SetCellValue(sheet, cell("A", rowOf(m)), planner.MinutesToClock(m))
		}
		_ = f.SetRowHeight(sheet, rowOf(m), 12)
	}

	// 课程块
	styles := make(map[string]int)
	occupied := make(map[string]bool)
	for _, c := range cells {
		col := colName(int(c.Day))
		top := rowOf(planner.TimeToMinutes(c.StartTime) / excelRowMinutes * excelRowMinutes)
		bottom := rowOf((planner.TimeToMinutes(c.EndTime)+excelRowMinutes-1)/excelRowMinutes*excelRowMinutes) - 1

		// 相邻课程取整后可能共用一行
		for top <= bottom && occupied[cell(col, top)] {
			top++
		}
		if top > bottom {
			continue
		}
		for r := top; r <= bottom; r++ {
			occupied[cell(col, r)] = true
		}

		style, ok := styles[c.Color]
		if !ok {
			style, err = f.NewStyle(&excelize.Style{
				Fill:      excelize.Fill{Type: "pattern", Color: []string{c.Color}, Pattern: 1},
				Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center", WrapText: true},
				Font:      &excelize.Font{Size: 9},
			})
			if err != nil {
				return err
			}
			styles[c.Color] = style
		}

		text := fmt.Sprintf("%s %s\n%s", c.CourseCode, c.SectionLabel, c.Component)
		if c.Location != "" {
			text += "\n" + c.Location
		}
		if err := f.SetCellValue(sheet, cell(col, top), text); err != nil {
			return err
		}
		if bottom > top {
			if err := f.MergeCell(sheet, cell(col, top), cell(col, bottom)); err != nil {
				return err
			}
		}
		if err := f.SetCellStyle(sheet, cell(col, top), cell(col, bottom), style); err != nil {
			return err
		}
	}
	return nil
}

func writeListSheet(f *excelize.File, schedule *planner.Schedule) error {
	const sheet = "课程列表"
	if _, err := f.NewSheet(sheet); err != nil {
		return err
	}

	headers := []string{"课程", "班号", "组件", "名称", "教师", "学分", "时间", "地点"}
	widths := []float64{12, 8, 10, 30, 20, 6, 28, 20}
	for i, h := range headers {
		_ = f.SetCellValue(sheet, cell(colName(i), 1), h)
		_ = f.SetColWidth(sheet, colName(i), colName(i), widths[i])
	}

	row := 2
	for _, e := range schedule.Entries() {
		sec := e.Section
		var times, places []string
		for _, b := range sec.Blocks {
			if !b.Schedulable() {
				continue
			}
			days := make([]string, 0, len(b.Days))
			for _, d := range b.Days {
				days = append(days, d.String())
			}
			times = append(times, fmt.Sprintf("%s %s-%s", strings.Join(days, ""), b.StartTime, b.EndTime))
			if loc := b.Location(); loc != "" {
				places = append(places, loc)
			}
		}
		values := []interface{}{
			sec.CourseCode, sec.SectionLabel, string(sec.Component), sec.Title,
			sec.Instructor, sec.Credits(), strings.Join(times, "; "), strings.Join(places, "; "),
		}
		for i, v := range values {
			if err := f.SetCellValue(sheet, cell(colName(i), row), v); err != nil {
				return err
			}
		}
		row++
	}

	_ = f.SetCellValue(sheet, cell("E", row), "合计")
	return f.SetCellValue(sheet, cell("F", row), planner.CreditTotal(schedule))
}

// ────────────────────── Share ──────────────────────

func (s *exportService) Share(ctx context.Context, sessionID, format string) (*dto.ShareResponse, error) {
	if s.objects == nil {
		return nil, ErrStorageDisabled
	}

	var (
		file *ExportFile
		err  error
	)
	switch format {
	case FormatICS:
		file, err = s.ExportICS(ctx, sessionID)
	case FormatExcel:
		file, err = s.ExportExcel(ctx, sessionID)
	default:
		return nil, ErrExportFormatUnknown
	}
	if err != nil {
		return nil, err
	}

	key := fmt.Sprintf("exports/%s/%s/%s", sessionID, uuid.New().String()[:8], file.FileName)
	obj, err := s.objects.Share(ctx, key, file.Data.Bytes(), file.ContentType)
	if err != nil {
		s.logger.Error("分享导出文件失败", zap.String("session_id", sessionID), zap.Error(err))
		return nil, err
	}
	return &dto.ShareResponse{URL: obj.URL, FileName: obj.FileName, ExpiresAt: obj.ExpiresAt}, nil
}

// ── 辅助函数 ──

func (s *exportService) nonEmptySnapshot(sessionID string) (*planner.Schedule, error) {
	schedule, err := s.store.snapshot(sessionID)
	if err != nil {
		return nil, err
	}
	if schedule.Len() == 0 {
		return nil, ErrExportEmpty
	}
	return schedule, nil
}

func exportFileName(format string) string {
	return fmt.Sprintf("schedule_%s.%s", time.Now().Format("20060102"), format)
}

func colName(idx int) string {
	name, _ := excelize.ColumnNumberToName(idx + 1)
	return name
}

func cell(col string, row int) string {
	return fmt.Sprintf("%s%d", col, row)
}
