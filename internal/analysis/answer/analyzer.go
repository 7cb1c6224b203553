// Package answer extracts cheap lexical signals from a candidate's answer.
package answer

import (
	"strings"
	"unicode"
)

// Signal 表示回答中可识别的一类行为线索。
type Signal string

const (
	None       Signal = "none"
	Ownership  Signal = "ownership"
	Action     Signal = "action"
	Reflection Signal = "reflection"
	Hedging    Signal = "hedging"
)

// MinWords 是一个回答被视为展开作答的最少词数。
const MinWords = 12

// Assessment 汇总一次回答的信号。
type Assessment struct {
	Words    int
	Scores   map[Signal]int
	Dominant Signal
}

var keywordBuckets = map[Signal][]string{
	Ownership: {
		"i would", "i'd", "i will", "i'll", "my responsibility", "i own", "i take", "on me", "i decided",
		"i made sure", "accountable", "我会", "我负责", "我的责任", "由我", "我决定",
	},
	Action: {
		"talk to", "speak with", "meet with", "reach out", "escalate", "document", "report", "schedule",
		"first", "then", "next", "follow up", "fix", "roll back", "propose", "沟通", "找他", "汇报", "记录",
		"首先", "然后", "接着", "修复", "回滚", "提出",
	},
	Reflection: {
		"because", "so that", "in order to", "learned", "lesson", "impact", "trust", "long term", "team",
		"因为", "为了", "学到", "教训", "影响", "信任", "长期", "团队",
	},
	Hedging: {
		"maybe", "i guess", "not sure", "depends", "probably", "i don't know", "whatever", "kind of", "sort of",
		"可能", "不确定", "看情况", "大概", "不知道", "随便",
	},
}

// Analyze 统计回答的词数与各类信号得分。
func Analyze(response string) Assessment {
	normalized := strings.TrimSpace(strings.ToLower(response))
	a := Assessment{Words: countWords(normalized), Scores: make(map[Signal]int), Dominant: None}
	if normalized == "" {
		return a
	}

	for signal, keywords := range keywordBuckets {
		for _, word := range keywords {
			if strings.Contains(normalized, word) {
				a.Scores[signal]++
			}
		}
	}

	best := 0
	for _, signal := range []Signal{Ownership, Action, Reflection, Hedging} {
		if s := a.Scores[signal]; s > best {
			best = s
			a.Dominant = signal
		}
	}
	return a
}

// Brief reports whether the answer is too short to judge.
func (a Assessment) Brief() bool {
	return a.Words < MinWords
}

// Concrete reports whether the answer names something the candidate would do.
func (a Assessment) Concrete() bool {
	return a.Scores[Ownership]+a.Scores[Action] > 0
}

// countWords 对中文按每两个汉字计一个词。
func countWords(text string) int {
	words := 0
	han := 0
	for _, field := range strings.Fields(text) {
		fieldHan := 0
		for _, r := range field {
			if unicode.Is(unicode.Han, r) {
				fieldHan++
			}
		}
		if fieldHan == 0 {
			words++
		}
		han += fieldHan
	}
	return words + (han+1)/2
}
