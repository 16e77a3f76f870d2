package ai

import (
	"context"
	"errors"
	"fmt"

	"github.com/tencentcloud/tencentcloud-sdk-go/tencentcloud/common"
	"github.com/tencentcloud/tencentcloud-sdk-go/tencentcloud/common/profile"
	hunyuan "github.com/tencentcloud/tencentcloud-sdk-go/tencentcloud/hunyuan/v20230901"
	"github.com/tmc/langchaingo/chains"
	"github.com/tmc/langchaingo/llms"
	langopenai "github.com/tmc/langchaingo/llms/openai"
	"github.com/tmc/langchaingo/prompts"

	appcommon "moodtrack-backend/internal/common"
)

const MaxTokens = 200

const (
	ProviderOpenAI  = "openai"
	ProviderHunyuan = "hunyuan"
	ProviderNone    = "none"
)

var ErrEmptyReply = errors.New("ai: empty reply")

// Generator fills a Go-template prompt with values and returns the model's reply.
type Generator interface {
	Generate(ctx context.Context, template string, values map[string]any) (string, error)
}

func templateVars(values map[string]any) []string {
	vars := make([]string, 0, len(values))
	for k := range values {
		vars = append(vars, k)
	}
	return vars
}

func render(template string, values map[string]any) (string, error) {
	return prompts.NewPromptTemplate(template, templateVars(values)).Format(values)
}

// ChainGenerator talks to an OpenAI-compatible endpoint through a langchaingo LLM chain.
type ChainGenerator struct {
	llm llms.Model
}

func NewChainGenerator(llm llms.Model) *ChainGenerator {
	return &ChainGenerator{llm: llm}
}

func (g *ChainGenerator) Generate(ctx context.Context, template string, values map[string]any) (string, error) {
	prompt := prompts.NewPromptTemplate(appcommon.RolePrompt+"\n\n"+template, templateVars(values))
	chain := chains.NewLLMChain(g.llm, prompt)
	out, err := chains.Call(ctx, chain, values, chains.WithMaxTokens(MaxTokens))
	if err != nil {
		return "", err
	}
	text, _ := out[chain.OutputKey].(string)
	if text == "" {
		return "", ErrEmptyReply
	}
	return text, nil
}

// HunyuanGenerator calls Tencent hunyuan ChatCompletions with the SDK.
type HunyuanGenerator struct {
	client *hunyuan.Client
	model  string
}

func NewHunyuanGenerator(secretID, secretKey, model string) (*HunyuanGenerator, error) {
	credential := common.NewCredential(secretID, secretKey)
	cpf := profile.NewClientProfile()
	cpf.HttpProfile.Endpoint = appcommon.DefaultHunyuanEndpoint
	client, err := hunyuan.NewClient(credential, "", cpf)
	if err != nil {
		return nil, err
	}
	if model == "" {
		model = appcommon.DefaultHunyuanModel
	}
	return &HunyuanGenerator{client: client, model: model}, nil
}

func (g *HunyuanGenerator) Generate(ctx context.Context, template string, values map[string]any) (string, error) {
	text, err := render(template, values)
	if err != nil {
		return "", err
	}
	req := hunyuan.NewChatCompletionsRequest()
	req.Model = common.StringPtr(g.model)
	req.Stream = common.BoolPtr(false)
	req.Messages = []*hunyuan.Message{
		{Role: common.StringPtr("system"), Content: common.StringPtr(appcommon.RolePrompt)},
		{Role: common.StringPtr("user"), Content: common.StringPtr(text)},
	}
	resp, err := g.client.ChatCompletionsWithContext(ctx, req)
	if err != nil {
		return "", err
	}
	if resp == nil || resp.Response == nil || len(resp.Response.Choices) == 0 {
		return "", ErrEmptyReply
	}
	msg := resp.Response.Choices[0].Message
	if msg == nil || msg.Content == nil || *msg.Content == "" {
		return "", ErrEmptyReply
	}
	return *msg.Content, nil
}

// GeneratorConfig selects and configures a Generator.
type GeneratorConfig struct {
	Provider  string
	Token     string
	Model     string
	BaseURL   string
	SecretID  string
	SecretKey string
}

// NewGenerator returns nil, nil for ProviderNone so callers use local fallbacks only.
func NewGenerator(cfg GeneratorConfig) (Generator, error) {
	switch cfg.Provider {
	case ProviderNone, "":
		return nil, nil
	case ProviderOpenAI:
		model := cfg.Model
		if model == "" {
			model = appcommon.DefaultHunyuanModel
		}
		baseURL := cfg.BaseURL
		if baseURL == "" {
			baseURL = appcommon.DefaultHunyuanBaseUrl
		}
		llm, err := langopenai.New(
			langopenai.WithToken(cfg.Token),
			langopenai.WithModel(model),
			langopenai.WithBaseURL(baseURL))
		if err != nil {
			return nil, err
		}
		return NewChainGenerator(llm), nil
	case ProviderHunyuan:
		return NewHunyuanGenerator(cfg.SecretID, cfg.SecretKey, cfg.Model)
	default:
		return nil, fmt.Errorf("unknown ai provider %q", cfg.Provider)
	}
}
