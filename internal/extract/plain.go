package extract

import (
	"bytes"
	"context"
	"strings"
)

func init() {
	Register("text/plain", ExtractorFunc(extractPlain))
}

func extractPlain(_ context.Context, data []byte) (*Result, error) {
	data = bytes.TrimPrefix(data, []byte{0xef, 0xbb, 0xbf})
	text := strings.ReplaceAll(string(data), "\r\n", "\n")
	return &Result{Text: strings.TrimSpace(text)}, nil
}
