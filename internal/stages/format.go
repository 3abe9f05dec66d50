package stages

import (
	"fmt"
	"strings"
)

// bullets renders items as a Markdown list, or fallback when empty.
func bullets(items []string, fallback string) string {
	if len(items) == 0 {
		return fallback
	}
	var b strings.Builder
	for i, item := range items {
		if i > 0 {
			b.WriteByte('\n')
		}
		b.WriteString("- ")
		b.WriteString(item)
	}
	return b.String()
}

func head[T any](items []T, n int) []T {
	if len(items) > n {
		return items[:n]
	}
	return items
}

func deref(s *string, fallback string) string {
	if s == nil || *s == "" {
		return fallback
	}
	return *s
}

func orDefault(s, fallback string) string {
	if strings.TrimSpace(s) == "" {
		return fallback
	}
	return s
}

func section(label, body string) string {
	if body == "" {
		return ""
	}
	return fmt.Sprintf("**%s:**%s", label, body)
}
