package loadtest

import (
	"sync"

	"github.com/tiktoken-go/tokenizer"

	"github.com/linanwx/tutorbot/logger"
)

var (
	codecOnce sync.Once
	codec     tokenizer.Codec
)

// countTokens approximates the token count of text with cl100k_base. It
// returns 0 if the codec is unavailable.
func countTokens(text string) int {
	codecOnce.Do(func() {
		c, err := tokenizer.Get(tokenizer.Cl100kBase)
		if err != nil {
			logger.Warn("tokenizer unavailable, tokens/s disabled", "err", err)
			return
		}
		codec = c
	})
	if codec == nil || text == "" {
		return 0
	}
	ids, _, err := codec.Encode(text)
	if err != nil {
		return 0
	}
	return len(ids)
}
