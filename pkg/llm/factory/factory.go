package factory

import (
	"fmt"

	"github.com/zhusanqiang2025/ZhiRong-LawAssist-V2-sub001/pkg/llm"
	"github.com/zhusanqiang2025/ZhiRong-LawAssist-V2-sub001/pkg/llm/deepseek"
	"github.com/zhusanqiang2025/ZhiRong-LawAssist-V2-sub001/pkg/llm/ollama"
)

func NewProvider(providerType, modelName, baseURL, apiKey string) (llm.Provider, error) {
	switch providerType {
	case "ollama":
		if baseURL == "" {
			baseURL = "http://localhost:11434" // Default
		}
		return ollama.NewOllamaProvider(baseURL, modelName), nil
	case "deepseek":
		return deepseek.NewDeepSeekProvider(apiKey, baseURL, modelName), nil
	default:
		return nil, fmt.Errorf("unsupported LLM provider: %s", providerType)
	}
}
