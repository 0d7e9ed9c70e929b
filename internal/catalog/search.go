package catalog

import (
	"strings"

	"github.com/cloudpe/pemarket/internal/domain"
)

// Search filters a catalog in memory: case-insensitive substring match on
// name, author, description and version, plus an optional exact category
// filter. Catalog order is preserved; the input is never mutated.
func Search(plugins []domain.Plugin, query, category string) []domain.Plugin {
	query = strings.ToLower(strings.TrimSpace(query))

	var out []domain.Plugin
	for _, p := range plugins {
		if category != "" && p.Category != category {
			continue
		}
		if query != "" && !matches(p, query) {
			continue
		}
		out = append(out, p)
	}
	return out
}

func matches(p domain.Plugin, query string) bool {
	haystack := strings.ToLower(strings.Join([]string{
		p.Name, p.Author, p.Description, p.Version,
	}, " "))
	return strings.Contains(haystack, query)
}

// Categories returns the distinct category tags in first-seen order.
func Categories(plugins []domain.Plugin) []string {
	seen := make(map[string]bool)
	var out []string
	for _, p := range plugins {
		if p.Category == "" || seen[p.Category] {
			continue
		}
		seen[p.Category] = true
		out = append(out, p.Category)
	}
	return out
}

// FindByID locates a catalog entry by its stable plugin id.
func FindByID(plugins []domain.Plugin, id string) (domain.Plugin, bool) {
	for _, p := range plugins {
		if p.ID == id {
			return p, true
		}
	}
	return domain.Plugin{}, false
}
