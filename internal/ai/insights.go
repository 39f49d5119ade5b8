package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"habitual/internal/core"
)

// HabitSpending summarizes one habit's recent entries for the prompt.
type HabitSpending struct {
	Habit         string        `json:"habit"`
	Category      string        `json:"category"`
	TotalSpent    float64       `json:"totalSpent"`
	EntryCount    int           `json:"entryCount"`
	AverageAmount float64       `json:"averageAmount"`
	RecentEntries []RecentEntry `json:"recentEntries"`
}

// RecentEntry is one recent spend in the prompt summary.
type RecentEntry struct {
	Amount    string `json:"amount"`
	Date      string `json:"date"`
	DayOfWeek string `json:"dayOfWeek"`
}

// GeneratedInsight is one insight parsed out of the model's reply.
type GeneratedInsight struct {
	Type    core.InsightType `json:"type"`
	Title   string           `json:"title"`
	Content string           `json:"content"`
}

// SummarizeSpending folds habit entries into the prompt summary shape.
func SummarizeSpending(habits []core.Habit, entriesByHabit map[string][]core.Entry) []HabitSpending {
	var summaries []HabitSpending
	for _, h := range habits {
		entries := entriesByHabit[h.ID]
		s := HabitSpending{
			Habit:      h.Name,
			Category:   string(h.Category),
			EntryCount: len(entries),
		}
		for _, e := range entries {
			s.TotalSpent += e.Amount.Float64()
		}
		if len(entries) > 0 {
			s.AverageAmount = s.TotalSpent / float64(len(entries))
		}
		for i, e := range entries {
			if i >= 10 {
				break
			}
			s.RecentEntries = append(s.RecentEntries, RecentEntry{
				Amount:    e.Amount.String(),
				Date:      e.Date.Format("2006-01-02"),
				DayOfWeek: e.Date.Weekday().String(),
			})
		}
		summaries = append(summaries, s)
	}
	return summaries
}

// BuildPrompt renders the insight-generation prompt for the given summary.
func BuildPrompt(summaries []HabitSpending) (string, error) {
	data, err := json.MarshalIndent(summaries, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal spending summary: %w", err)
	}

	return fmt.Sprintf(`You are a financial wellness assistant helping users understand their spending habits. Analyze the following spending data and provide actionable insights.

User's spending data:
%s

Generate 3-5 insights in the following categories:
1. PATTERN: Identify spending patterns (e.g., "You spend 40%% more on Mondays")
2. SUGGESTION: Actionable money-saving tips (e.g., "Making coffee at home could save $50/month")
3. PREDICTION: Forecast based on current habits (e.g., "At this rate, you'll spend $X this year on coffee")
4. CELEBRATION: Positive reinforcement for any improvements or good habits

Format your response as a JSON array with objects containing:
- type: "pattern" | "suggestion" | "prediction" | "celebration"
- title: A short, engaging title (max 50 chars)
- content: The insight details (2-3 sentences)

Respond ONLY with the JSON array, no other text.`, data), nil
}

// ParseInsights decodes the model's reply into insights. Code fences and
// surrounding prose are tolerated; unknown types are dropped.
func ParseInsights(raw string) ([]GeneratedInsight, error) {
	trimmed := strings.TrimSpace(raw)
	if start := strings.Index(trimmed, "["); start >= 0 {
		if end := strings.LastIndex(trimmed, "]"); end > start {
			trimmed = trimmed[start : end+1]
		}
	}

	var decoded []struct {
		Type    string `json:"type"`
		Title   string `json:"title"`
		Content string `json:"content"`
	}
	if err := json.Unmarshal([]byte(trimmed), &decoded); err != nil {
		return nil, fmt.Errorf("decode insights: %w", err)
	}

	var insights []GeneratedInsight
	for _, d := range decoded {
		insightType, err := core.ParseInsightType(d.Type)
		if err != nil {
			continue
		}
		if d.Title == "" || d.Content == "" {
			continue
		}
		insights = append(insights, GeneratedInsight{
			Type:    insightType,
			Title:   d.Title,
			Content: d.Content,
		})
	}
	if len(insights) == 0 {
		return nil, fmt.Errorf("model reply contained no usable insights")
	}
	return insights, nil
}

// GenerateInsights runs the full prompt-call-parse pipeline.
func (c *Client) GenerateInsights(ctx context.Context, summaries []HabitSpending) ([]GeneratedInsight, error) {
	prompt, err := BuildPrompt(summaries)
	if err != nil {
		return nil, err
	}

	reply, err := c.Complete(ctx, prompt)
	if err != nil {
		return nil, err
	}

	return ParseInsights(reply)
}

// InsightExpiry is how long generated insights stay visible.
const InsightExpiry = 7 * 24 * time.Hour
