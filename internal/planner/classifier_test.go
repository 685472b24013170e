package planner

import (
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestClassifier_RuleOrder(t *testing.T) {
	c := NewClassifier(DefaultClassifierOptions(), nil)

	tests := []struct {
		name string
		raw  RawSection
		want ComponentType
	}{
		{"选课标记优先于声明类型", RawSection{ClassType: "e", DeclaredType: "LAB", Label: "D101"}, ComponentLecture},
		{"非选课标记", RawSection{ClassType: "n", DeclaredType: "LEC", Label: "D100"}, ComponentLab},
		{"标记大小写不敏感", RawSection{ClassType: "E", Label: "D101"}, ComponentLecture},
		{"声明 LAB", RawSection{DeclaredType: "LAB", Label: "D100"}, ComponentLab},
		{"声明 Tutorial", RawSection{DeclaredType: "Tutorial", Label: "D100"}, ComponentTutorial},
		{"声明 SEM", RawSection{DeclaredType: "sem", Label: "D101"}, ComponentSeminar},
		{"声明 LEC", RawSection{DeclaredType: "Lecture", Label: "D101"}, ComponentLecture},
		{"后缀 00", RawSection{DeclaredType: "OPL", Label: "D100"}, ComponentLecture},
		{"兜底讲座", RawSection{Label: "D103"}, ComponentLecture},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := c.Classify(tt.raw); got != tt.want {
				t.Errorf("期望 %s，实际 %s", tt.want, got)
			}
		})
	}
}

func TestClassifier_Overrides(t *testing.T) {
	c := NewClassifier(ClassifierOptions{
		EnrollmentMarkers:    []string{"primary"},
		NonEnrollmentMarkers: []string{"secondary"},
		LectureSuffixes:      []string{"01"},
	}, nil)

	if got := c.Classify(RawSection{ClassType: "primary"}); got != ComponentLecture {
		t.Errorf("自定义选课标记期望 LECTURE，实际 %s", got)
	}
	if got := c.Classify(RawSection{ClassType: "secondary"}); got != ComponentLab {
		t.Errorf("自定义非选课标记期望 LAB，实际 %s", got)
	}
	// 默认标记不再生效，落到后缀规则
	if got := c.Classify(RawSection{ClassType: "n", Label: "A01"}); got != ComponentLecture {
		t.Errorf("期望按后缀 01 判为 LECTURE，实际 %s", got)
	}
}

func TestClassifier_LogsUnresolved(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	c := NewClassifier(DefaultClassifierOptions(), zap.New(core))

	c.Classify(RawSection{Label: "D103"})
	if logs.Len() != 1 {
		t.Fatalf("兜底分类应记录 1 条警告，实际 %d", logs.Len())
	}
	c.Classify(RawSection{Label: "D100"})
	if logs.Len() != 1 {
		t.Errorf("后缀命中不应记录警告，实际 %d", logs.Len())
	}
}
