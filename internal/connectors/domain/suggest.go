package domain

import "strings"

// Suggestion is the result of scanning rule text for connector keywords.
type Suggestion struct {
	ConnectorIDs []ID
	Keywords     []string
}

// Has reports whether id was suggested.
func (s Suggestion) Has(id ID) bool {
	for _, c := range s.ConnectorIDs {
		if c == id {
			return true
		}
	}
	return false
}

// Suggest matches rawText against every connector's keywords using
// case-insensitive substring matching. Connector ids come back in catalog
// order and both lists are free of duplicates. Empty text suggests nothing.
func (c *Catalog) Suggest(rawText string) Suggestion {
	var s Suggestion
	text := strings.ToLower(rawText)
	if strings.TrimSpace(text) == "" {
		return s
	}

	seenKeyword := make(map[string]bool)
	for _, d := range c.defs {
		matched := false
		for _, kw := range d.Keywords {
			kw = strings.ToLower(kw)
			if !strings.Contains(text, kw) {
				continue
			}
			matched = true
			if !seenKeyword[kw] {
				seenKeyword[kw] = true
				s.Keywords = append(s.Keywords, kw)
			}
		}
		if matched {
			s.ConnectorIDs = append(s.ConnectorIDs, d.ID)
		}
	}
	return s
}

// Select keeps the suggested connectors that are connected, in suggestion
// order. Connectors absent from the list count as not connected.
func Select(suggested []ID, connectors []Connector) []Connector {
	byID := make(map[ID]Connector, len(connectors))
	for _, c := range connectors {
		byID[c.ID] = c
	}
	var out []Connector
	for _, id := range suggested {
		if c, ok := byID[id]; ok && c.IsConnected {
			out = append(out, c)
		}
	}
	return out
}
