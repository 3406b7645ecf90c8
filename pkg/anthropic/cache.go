package anthropic

// BuildCachedSystemBlocks wraps a static system prompt in a block with a
// 1-hour cache breakpoint, so every batch of a run reuses the cached
// checklist and schema.
func BuildCachedSystemBlocks(text string) []SystemBlock {
	return []SystemBlock{{
		Text:         text,
		CacheControl: &CacheControl{TTL: "1h"},
	}}
}
