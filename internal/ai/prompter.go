// Package ai produces the reflective question and activity suggestions shown
// after a mood is logged. A model is asked first; local rules answer when the
// model is missing or fails.
package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"moodtrack-backend/internal/common"
	"moodtrack-backend/internal/logger"
)

type Prompter struct {
	gen       Generator
	catalogue []Activity
}

// NewPrompter accepts a nil gen.
func NewPrompter(gen Generator) *Prompter {
	return &Prompter{gen: gen, catalogue: Catalogue}
}

// ReflectivePrompt never fails; it falls back to a fixed question.
func (p *Prompter) ReflectivePrompt(ctx context.Context, rating int) string {
	if p.gen == nil {
		return common.FallbackPrompt
	}
	reply, err := p.gen.Generate(ctx, common.ReflectivePromptTemplate, map[string]any{"rating": rating})
	if err != nil {
		logger.Warn("reflective prompt failed, using fallback", "err", err)
		return common.FallbackPrompt
	}
	reply = strings.TrimSpace(reply)
	if reply == "" {
		return common.FallbackPrompt
	}
	return reply
}

// Activities returns at most MaxActivities suggestions, never none.
func (p *Prompter) Activities(ctx context.Context, rating int, details string) []Activity {
	local := Rank(p.catalogue, rating, details)
	if p.gen == nil {
		return local
	}
	reply, err := p.gen.Generate(ctx, common.ActivityPromptTemplate, map[string]any{
		"rating":    rating,
		"details":   details,
		"catalogue": p.describeCatalogue(),
	})
	if err != nil {
		logger.Warn("activity suggestion failed, using local ranking", "err", err)
		return local
	}
	picked := p.pick(reply)
	if len(picked) == 0 {
		logger.Warn("activity suggestion unusable, using local ranking", "reply", reply)
		return local
	}
	return picked
}

func (p *Prompter) describeCatalogue() string {
	var b strings.Builder
	for _, a := range p.catalogue {
		fmt.Fprintf(&b, "- id %s: %s (%s, %d min) %s\n", a.ID, a.Title, a.Category, a.Duration, a.Description)
	}
	return b.String()
}

// pick reads a JSON array of ids out of a model reply, which may wrap it in prose.
func (p *Prompter) pick(reply string) []Activity {
	start := strings.Index(reply, "[")
	end := strings.LastIndex(reply, "]")
	if start < 0 || end <= start {
		return nil
	}
	var ids []string
	if err := json.Unmarshal([]byte(reply[start:end+1]), &ids); err != nil {
		return nil
	}
	byID := make(map[string]Activity, len(p.catalogue))
	for _, a := range p.catalogue {
		byID[a.ID] = a
	}
	seen := make(map[string]bool)
	var out []Activity
	for _, id := range ids {
		a, ok := byID[strings.TrimSpace(id)]
		if !ok || seen[a.ID] {
			continue
		}
		seen[a.ID] = true
		out = append(out, a)
		if len(out) == MaxActivities {
			break
		}
	}
	return out
}
