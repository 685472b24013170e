package catalog

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrInvalidTerm 学期参数非法
var ErrInvalidTerm = errors.New("学期参数无效")

// 目录支持的学期
const (
	SeasonSpring = "spring"
	SeasonSummer = "summer"
	SeasonFall   = "fall"
)

// Term 学年 + 学期
type Term struct {
	Year   int    `json:"year"`
	Season string `json:"term"`
}

// ParseTerm 校验并规范化 year/term 参数
func ParseTerm(year, season string) (Term, error) {
	y, err := strconv.Atoi(strings.TrimSpace(year))
	if err != nil || y < 1965 || y > 2100 {
		return Term{}, fmt.Errorf("%w: year=%q", ErrInvalidTerm, year)
	}
	s := strings.ToLower(strings.TrimSpace(season))
	switch s {
	case SeasonSpring, SeasonSummer, SeasonFall:
	default:
		return Term{}, fmt.Errorf("%w: term=%q", ErrInvalidTerm, season)
	}
	return Term{Year: y, Season: s}, nil
}

// Path 目录 API 路径片段："2025/fall"
func (t Term) Path() string {
	return fmt.Sprintf("%d/%s", t.Year, t.Season)
}

// Key 缓存与持久化使用的学期键："2025-fall"
func (t Term) Key() string {
	return fmt.Sprintf("%d-%s", t.Year, t.Season)
}

func (t Term) String() string { return t.Path() }
