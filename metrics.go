package main

import (
	"log/slog"
	"time"
)

// RunMetrics accumulates phase and per-question timings for one pipeline
// run. Observability only; nothing reads these to make decisions.
type RunMetrics struct {
	Download      time.Duration
	Save          time.Duration
	Process       time.Duration
	Total         time.Duration
	QuestionTimes []time.Duration
}

func (m *RunMetrics) AddQuestionTime(d time.Duration) {
	m.QuestionTimes = append(m.QuestionTimes, d)
}

// AvgQuestionTime returns the mean per-question duration, or zero for an
// empty batch.
func (m *RunMetrics) AvgQuestionTime() time.Duration {
	if len(m.QuestionTimes) == 0 {
		return 0
	}

	var sum time.Duration
	for _, d := range m.QuestionTimes {
		sum += d
	}

	return sum / time.Duration(len(m.QuestionTimes))
}

// LogValue lets the whole record be attached to a single slog attribute.
func (m *RunMetrics) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Duration("download", m.Download),
		slog.Duration("save", m.Save),
		slog.Duration("process", m.Process),
		slog.Duration("total", m.Total),
		slog.Int("questions", len(m.QuestionTimes)),
		slog.Duration("avg_question", m.AvgQuestionTime()),
	)
}
