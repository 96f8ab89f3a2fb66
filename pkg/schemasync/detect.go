package schemasync

import (
	"regexp"
	"strings"

	"datashorts/internal/constants"
)

const tableNamePattern = `((?:"[^"]+"|` + "`[^`]+`" + `|[\w$]+)(?:\.(?:"[^"]+"|` + "`[^`]+`" + `|[\w$]+))?)`

var (
	createTableRe = regexp.MustCompile(`(?i)CREATE\s+TABLE\s+(?:IF\s+NOT\s+EXISTS\s+)?` + tableNamePattern)
	dropTableRe   = regexp.MustCompile(`(?i)DROP\s+TABLE\s+(?:IF\s+EXISTS\s+)?` + tableNamePattern)
	alterTableRe  = regexp.MustCompile(`(?i)ALTER\s+TABLE\s+(?:IF\s+EXISTS\s+)?(?:ONLY\s+)?` + tableNamePattern)
)

var otherSchemaKeywords = []string{"CREATE INDEX", "DROP INDEX", "RENAME TABLE"}

var schemaChangeKeywords = []string{
	"CREATE TABLE",
	"DROP TABLE",
	"ALTER TABLE",
	"ADD COLUMN",
	"DROP COLUMN",
	"RENAME COLUMN",
	"MODIFY COLUMN",
	"ALTER COLUMN",
	"CREATE INDEX",
	"DROP INDEX",
	"RENAME TABLE",
}

// DetectSchemaChangeType classifies one statement. The first matching rule wins:
// CREATE TABLE, DROP TABLE, ALTER TABLE, then index/rename keywords (OTHER).
func DetectSchemaChangeType(sql string) ChangeDetection {
	sql = strings.TrimSpace(sql)

	rules := []struct {
		re         *regexp.Regexp
		changeType string
	}{
		{createTableRe, constants.ChangeTypeCreateTable},
		{dropTableRe, constants.ChangeTypeDropTable},
		{alterTableRe, constants.ChangeTypeAlterTable},
	}
	for _, rule := range rules {
		if m := rule.re.FindStringSubmatch(sql); m != nil {
			schema, table := splitTableName(m[1])
			return ChangeDetection{Type: rule.changeType, Schema: schema, AffectedTable: table}
		}
	}

	upper := strings.ToUpper(sql)
	for _, kw := range otherSchemaKeywords {
		if strings.Contains(upper, kw) {
			return ChangeDetection{Type: constants.ChangeTypeOther}
		}
	}
	return ChangeDetection{Type: constants.ChangeTypeNone}
}

// DetectSchemaChanges is the coarse gate deciding whether any sync runs
func DetectSchemaChanges(sql string) bool {
	upper := strings.ToUpper(sql)
	for _, kw := range schemaChangeKeywords {
		if strings.Contains(upper, kw) {
			return true
		}
	}
	return false
}

// splitTableName separates an optional schema qualifier from the table name
func splitTableName(raw string) (schema, table string) {
	if i := lastUnquotedDot(raw); i >= 0 {
		return normalizeIdentifier(raw[:i]), normalizeIdentifier(raw[i+1:])
	}
	return "", normalizeIdentifier(raw)
}

// normalizeIdentifier strips quotes. Unquoted identifiers fold to lower case.
func normalizeIdentifier(name string) string {
	if len(name) >= 2 && (name[0] == '"' || name[0] == '`') {
		return name[1 : len(name)-1]
	}
	return strings.ToLower(name)
}

func lastUnquotedDot(s string) int {
	var quote byte
	last := -1
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case quote != 0:
			if c == quote {
				quote = 0
			}
		case c == '"' || c == '`':
			quote = c
		case c == '.':
			last = i
		}
	}
	return last
}
