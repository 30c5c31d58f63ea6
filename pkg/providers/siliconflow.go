package providers

import (
	"fmt"
	"strings"

	"github.com/MoXuan9X/GoodSleep/pkg/config"
)

const (
	defaultSiliconFlowAPIBase = "https://api.siliconflow.cn/v1"
	defaultSiliconFlowModel   = "deepseek-ai/DeepSeek-V3"
)

func init() {
	RegisterFactory(ProviderSiliconFlow, newSiliconFlowProviderFromConfig, validateSiliconFlowConfig)
}

func validateSiliconFlowConfig(cfg *config.Config) error {
	if cfg == nil {
		return fmt.Errorf("config is required")
	}
	if strings.TrimSpace(cfg.Providers.SiliconFlow.APIKey) == "" {
		return fmt.Errorf("SiliconFlow API key is required (set providers.siliconflow.api_key or GOODSLEEP_PROVIDERS_SILICONFLOW_API_KEY)")
	}
	return nil
}

func newSiliconFlowProviderFromConfig(cfg *config.Config) (LLMProvider, error) {
	if err := validateSiliconFlowConfig(cfg); err != nil {
		return nil, err
	}

	apiBase := strings.TrimSpace(cfg.Providers.SiliconFlow.APIBase)
	if apiBase == "" {
		apiBase = defaultSiliconFlowAPIBase
	}
	auth := NewBearerAuth(NewStaticTokenSource(cfg.Providers.SiliconFlow.APIKey, "providers.siliconflow.api_key"))
	return newChatCompletionsProvider(
		ProviderSiliconFlow,
		apiBase,
		defaultSiliconFlowModel,
		strings.TrimSpace(cfg.Providers.SiliconFlow.Proxy),
		auth,
	)
}
