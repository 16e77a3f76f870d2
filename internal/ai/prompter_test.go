package ai

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tmc/langchaingo/llms"

	"moodtrack-backend/internal/common"
)

type fakeGenerator struct {
	reply  string
	err    error
	values []map[string]any
}

func (f *fakeGenerator) Generate(ctx context.Context, template string, values map[string]any) (string, error) {
	f.values = append(f.values, values)
	return f.reply, f.err
}

func TestReflectivePrompt(t *testing.T) {
	ctx := context.Background()

	assert.Equal(t, common.FallbackPrompt, NewPrompter(nil).ReflectivePrompt(ctx, 3))

	gen := &fakeGenerator{reply: "  What made today feel heavy?\n"}
	assert.Equal(t, "What made today feel heavy?", NewPrompter(gen).ReflectivePrompt(ctx, 2))
	require.Len(t, gen.values, 1)
	assert.Equal(t, 2, gen.values[0]["rating"])

	failing := &fakeGenerator{err: errors.New("timeout")}
	assert.Equal(t, common.FallbackPrompt, NewPrompter(failing).ReflectivePrompt(ctx, 2))

	blank := &fakeGenerator{reply: "   "}
	assert.Equal(t, common.FallbackPrompt, NewPrompter(blank).ReflectivePrompt(ctx, 2))
}

func TestActivities(t *testing.T) {
	ctx := context.Background()
	local := ids(Rank(Catalogue, 2, "stressed"))

	assert.Equal(t, local, ids(NewPrompter(nil).Activities(ctx, 2, "stressed")))

	gen := &fakeGenerator{reply: `Sure! ["5", "5", "9", "2"]`}
	assert.Equal(t, []string{"5", "2"}, ids(NewPrompter(gen).Activities(ctx, 2, "stressed")))
	assert.Equal(t, "stressed", gen.values[0]["details"])
	assert.Contains(t, gen.values[0]["catalogue"], "id 4: Call a Friend")

	for _, reply := range []string{"no idea", `["42"]`, `[1, 2]`} {
		gen := &fakeGenerator{reply: reply}
		assert.Equal(t, local, ids(NewPrompter(gen).Activities(ctx, 2, "stressed")), reply)
	}

	failing := &fakeGenerator{err: errors.New("quota")}
	assert.Equal(t, local, ids(NewPrompter(failing).Activities(ctx, 2, "stressed")))
}

type fakeLLM struct {
	reply   string
	err     error
	prompts []string
}

func (f *fakeLLM) GenerateContent(ctx context.Context, messages []llms.MessageContent, options ...llms.CallOption) (*llms.ContentResponse, error) {
	for _, m := range messages {
		for _, part := range m.Parts {
			if text, ok := part.(llms.TextContent); ok {
				f.prompts = append(f.prompts, text.Text)
			}
		}
	}
	if f.err != nil {
		return nil, f.err
	}
	return &llms.ContentResponse{Choices: []*llms.ContentChoice{{Content: f.reply}}}, nil
}

func (f *fakeLLM) Call(ctx context.Context, prompt string, options ...llms.CallOption) (string, error) {
	return llms.GenerateFromSinglePrompt(ctx, f, prompt, options...)
}

func TestChainGenerator(t *testing.T) {
	llm := &fakeLLM{reply: "How did your day go?"}
	gen := NewChainGenerator(llm)

	out, err := gen.Generate(context.Background(), common.ReflectivePromptTemplate, map[string]any{"rating": 4})
	require.NoError(t, err)
	assert.Equal(t, "How did your day go?", out)
	require.Len(t, llm.prompts, 1)
	assert.True(t, strings.HasPrefix(llm.prompts[0], common.RolePrompt))
	assert.Contains(t, llm.prompts[0], "rated today's mood 4")

	_, err = NewChainGenerator(&fakeLLM{}).Generate(context.Background(), "say {{.x}}", map[string]any{"x": 1})
	assert.ErrorIs(t, err, ErrEmptyReply)

	_, err = NewChainGenerator(&fakeLLM{err: errors.New("down")}).Generate(context.Background(), "say {{.x}}", map[string]any{"x": 1})
	assert.Error(t, err)
}

func TestRender(t *testing.T) {
	out, err := render(common.ActivityPromptTemplate, map[string]any{"rating": 3, "details": "meh", "catalogue": "- id 1"})
	require.NoError(t, err)
	assert.Contains(t, out, "rated today's mood 3 out of 5")
	assert.Contains(t, out, `"meh"`)
}

func TestNewGenerator(t *testing.T) {
	gen, err := NewGenerator(GeneratorConfig{Provider: ProviderNone})
	require.NoError(t, err)
	assert.Nil(t, gen)

	gen, err = NewGenerator(GeneratorConfig{Provider: ProviderOpenAI, Token: "sk-test"})
	require.NoError(t, err)
	assert.IsType(t, &ChainGenerator{}, gen)

	_, err = NewGenerator(GeneratorConfig{Provider: "bard"})
	assert.Error(t, err)
}
