package planner

import (
	"strings"

	"go.uber.org/zap"
)

// ── 教学班分类器 ────────────────────────────────────────────
//
// 规则顺序（先命中者生效）：
//   1. 目录声明的选课类型为"计入选课"标记 → LECTURE
//   2. 目录声明的选课类型为"不计入选课"标记 → LAB
//   3. 声明类型文本含 lab / tut / sem / lec（大小写不敏感）
//   4. 班号末尾匹配讲座后缀（默认 "00"，如 D100）→ LECTURE
//   5. 兜底 LECTURE，并记录日志
//
// 各目录编号习惯不同，1、2、4 的标记可按目录覆盖。
// ─────────────────────────────────────────────────────────────

// ClassifierOptions 分类规则的目录级覆盖项
type ClassifierOptions struct {
	EnrollmentMarkers    []string // 默认 ["e"]
	NonEnrollmentMarkers []string // 默认 ["n"]
	LectureSuffixes      []string // 默认 ["00"]
}

// DefaultClassifierOptions 默认分类规则
func DefaultClassifierOptions() ClassifierOptions {
	return ClassifierOptions{
		EnrollmentMarkers:    []string{"e"},
		NonEnrollmentMarkers: []string{"n"},
		LectureSuffixes:      []string{"00"},
	}
}

// RawSection 分类器输入：目录原始字段
type RawSection struct {
	ClassType    string // 选课类型标记，如 "e" / "n"
	DeclaredType string // 声明类型文本，如 "LEC" / "LAB" / "Tutorial"
	Label        string // 班号，如 "D100"
}

// Classifier 教学班组件类型分类器
type Classifier struct {
	opts   ClassifierOptions
	logger *zap.Logger
}

// NewClassifier 创建分类器；logger 为 nil 时静默
func NewClassifier(opts ClassifierOptions, logger *zap.Logger) *Classifier {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Classifier{opts: opts, logger: logger}
}

// declaredKeywords 规则 3 的关键字映射，按顺序匹配
var declaredKeywords = []struct {
	keyword   string
	component ComponentType
}{
	{"lab", ComponentLab},
	{"tut", ComponentTutorial},
	{"sem", ComponentSeminar},
	{"lec", ComponentLecture},
}

// Classify 返回规范化的组件类型
func (c *Classifier) Classify(raw RawSection) ComponentType {
	classType := strings.TrimSpace(raw.ClassType)
	if matchesAny(classType, c.opts.EnrollmentMarkers) {
		return ComponentLecture
	}
	if matchesAny(classType, c.opts.NonEnrollmentMarkers) {
		return ComponentLab
	}

	declared := strings.ToLower(raw.DeclaredType)
	for _, kw := range declaredKeywords {
		if strings.Contains(declared, kw.keyword) {
			return kw.component
		}
	}

	label := strings.ToUpper(strings.TrimSpace(raw.Label))
	for _, suffix := range c.opts.LectureSuffixes {
		if suffix != "" && len(label) >= len(suffix) && strings.HasSuffix(label, strings.ToUpper(suffix)) {
			return ComponentLecture
		}
	}

	c.logger.Warn("无法确定教学班类型，按讲座处理",
		zap.String("label", raw.Label),
		zap.String("class_type", raw.ClassType),
		zap.String("declared_type", raw.DeclaredType),
	)
	return ComponentLecture
}

func matchesAny(value string, markers []string) bool {
	if value == "" {
		return false
	}
	for _, m := range markers {
		if strings.EqualFold(value, strings.TrimSpace(m)) {
			return true
		}
	}
	return false
}
