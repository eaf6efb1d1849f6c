package media

// Strategy names an image-acquisition backend
type Strategy string

const (
	// StrategyGenerate renders images with the FLUX generation endpoint
	StrategyGenerate Strategy = "generate"
	// StrategyStock searches a stock-photo API
	StrategyStock Strategy = "stock"
	// StrategySearch falls back to web image search
	StrategySearch Strategy = "search"
)

// fallbackChain is the order tried when the configured strategy is not
// recognized: prefer generated shots, then stock, then web search.
var fallbackChain = []Strategy{StrategyGenerate, StrategyStock, StrategySearch}

// ResolveStrategy maps a configured strategy name to the ordered chain of
// backends to try. Known names (including the legacy aliases) resolve to a
// single backend; anything else resolves to the full fallback chain.
func ResolveStrategy(name string) []Strategy {
	switch name {
	case "generate", "flux", "flux-schnell", "flux-dev":
		return []Strategy{StrategyGenerate}
	case "stock", "pexels":
		return []Strategy{StrategyStock}
	case "search", "duckduckgo":
		return []Strategy{StrategySearch}
	default:
		return append([]Strategy(nil), fallbackChain...)
	}
}
