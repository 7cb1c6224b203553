package answer

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAnalyzeConcreteAnswer(t *testing.T) {
	a := Analyze("First I would talk to my teammate privately, then report the real numbers because trust matters to the team.")
	assert.False(t, a.Brief())
	assert.True(t, a.Concrete())
	assert.Equal(t, Action, a.Dominant)
}

func TestAnalyzeHedgingAnswer(t *testing.T) {
	a := Analyze("Maybe, I guess it depends.")
	assert.True(t, a.Brief())
	assert.False(t, a.Concrete())
	assert.Equal(t, Hedging, a.Dominant)
}

func TestAnalyzeEmpty(t *testing.T) {
	a := Analyze("   ")
	assert.Equal(t, 0, a.Words)
	assert.Equal(t, None, a.Dominant)
}

func TestCountWordsHan(t *testing.T) {
	assert.Equal(t, 3, countWords("我会先沟通"))
	assert.Equal(t, 2, countWords("hello world"))
}
