package agent

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/zhouzirui/trait-interview/backend/internal/analysis/answer"
	"github.com/zhouzirui/trait-interview/backend/internal/model/interview"
)

const (
	minScore = 1
	maxScore = 10
)

var numberPattern = regexp.MustCompile(`-?\d+(\.\d+)?`)

type verdictPayload struct {
	Status   string `json:"status"`
	Feedback string `json:"feedback"`
}

type scorePayload struct {
	Score     json.Number `json:"score"`
	Rationale string      `json:"rationale"`
}

// extractJSONObject returns the outermost {...} span of content.
func extractJSONObject(content string) (string, error) {
	trimmed := strings.TrimSpace(content)
	start := strings.Index(trimmed, "{")
	end := strings.LastIndex(trimmed, "}")
	if start == -1 || end == -1 || end <= start {
		return "", fmt.Errorf("missing json object")
	}
	return trimmed[start : end+1], nil
}

// parseVerdict always yields a verdict; the error only reports that the JSON path failed.
func parseVerdict(content, response string) (Verdict, error) {
	raw, err := extractJSONObject(content)
	if err == nil {
		var payload verdictPayload
		if err = json.Unmarshal([]byte(raw), &payload); err == nil {
			return Verdict{
				Classification: normalizeClassification(payload.Status),
				Feedback:       strings.TrimSpace(payload.Feedback),
			}, nil
		}
	}
	return Verdict{Classification: classifyFreeText(content, response), Feedback: strings.TrimSpace(content)}, err
}

// classifyFreeText reads a status word out of content. When the model named none, a brief
// response counts as insufficient and anything else as unsatisfied.
func classifyFreeText(content, response string) interview.Classification {
	text := strings.ToLower(content)
	if strings.Contains(text, string(interview.Satisfied)) || strings.Contains(text, string(interview.Insufficient)) {
		return normalizeClassification(content)
	}
	if answer.Analyze(response).Brief() {
		return interview.Insufficient
	}
	return interview.Unsatisfied
}

// normalizeClassification maps free text to a classification. Anything that is neither
// satisfied nor insufficient counts as unsatisfied.
func normalizeClassification(raw string) interview.Classification {
	text := strings.ToLower(raw)
	switch {
	case strings.Contains(text, string(interview.Unsatisfied)), strings.Contains(text, "not satisfied"):
		return interview.Unsatisfied
	case strings.Contains(text, string(interview.Insufficient)):
		return interview.Insufficient
	case strings.Contains(text, string(interview.Satisfied)):
		return interview.Satisfied
	default:
		return interview.Unsatisfied
	}
}

func parseScore(content string) (float64, error) {
	var value float64
	raw, err := extractJSONObject(content)
	if err == nil {
		var payload scorePayload
		if err = json.Unmarshal([]byte(raw), &payload); err == nil {
			value, err = payload.Score.Float64()
		}
	}
	if err != nil {
		match := numberPattern.FindString(content)
		if match == "" {
			return 0, fmt.Errorf("no score in model output %q", content)
		}
		if value, err = strconv.ParseFloat(match, 64); err != nil {
			return 0, fmt.Errorf("parse score %q: %w", match, err)
		}
	}
	return clampScore(value), nil
}

func clampScore(v float64) float64 {
	if v < minScore {
		return minScore
	}
	if v > maxScore {
		return maxScore
	}
	return v
}
