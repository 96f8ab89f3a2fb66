package services

import (
	"regexp"
	"strings"

	"datashorts/internal/apis/dtos"
)

var (
	affectedTableRe = regexp.MustCompile("(?i)\\b(?:FROM|JOIN|INTO|UPDATE|TABLE)\\s+(?:IF\\s+(?:NOT\\s+)?EXISTS\\s+)?(?:ONLY\\s+)?([\\w$.\"`]+)")
	mongoCommandRe  = regexp.MustCompile(`^db\.([\w$-]+)\.(\w+)\s*\(`)
)

var readOnlyQueryTypes = map[string]bool{
	"SELECT":   true,
	"WITH":     true,
	"SHOW":     true,
	"EXPLAIN":  true,
	"DESCRIBE": true,
	// mongodb
	"FIND":           true,
	"AGGREGATE":      true,
	"COUNTDOCUMENTS": true,
}

// ClassifyQuery derives the statement type, the tables it touches and whether it only reads
func ClassifyQuery(sql string) dtos.QueryMetadata {
	trimmed := strings.TrimSpace(sql)
	meta := dtos.QueryMetadata{AffectedTables: []string{}}

	if m := mongoCommandRe.FindStringSubmatch(trimmed); m != nil {
		meta.QueryType = strings.ToUpper(m[2])
		meta.AffectedTables = append(meta.AffectedTables, m[1])
		meta.ReadOnly = readOnlyQueryTypes[meta.QueryType]
		return meta
	}

	if fields := strings.Fields(trimmed); len(fields) > 0 {
		meta.QueryType = strings.ToUpper(strings.TrimRight(fields[0], ";("))
	} else {
		meta.QueryType = "UNKNOWN"
	}
	meta.ReadOnly = readOnlyQueryTypes[meta.QueryType]

	seen := make(map[string]bool)
	for _, m := range affectedTableRe.FindAllStringSubmatch(trimmed, -1) {
		name := cleanTableName(m[1])
		if name == "" || seen[name] {
			continue
		}
		seen[name] = true
		meta.AffectedTables = append(meta.AffectedTables, name)
	}
	return meta
}

func cleanTableName(raw string) string {
	name := strings.TrimRight(raw, ".")
	if i := strings.LastIndex(name, "."); i >= 0 {
		name = name[i+1:]
	}
	return strings.Trim(name, "\"`")
}

// shouldSkipOptimization reports whether a statement is too trivial to be worth an LLM rewrite
func shouldSkipOptimization(sql string) bool {
	trimmed := strings.TrimSpace(sql)
	if len(trimmed) >= 20 {
		return false
	}
	upper := strings.ToUpper(trimmed)
	for _, kw := range []string{"JOIN", "WHERE", "ORDER BY", "GROUP BY"} {
		if strings.Contains(upper, kw) {
			return false
		}
	}
	return true
}
