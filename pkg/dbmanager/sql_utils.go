package dbmanager

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"unicode"
)

// splitStatements splits on semicolons that are not inside quotes, comments or
// PostgreSQL dollar-quoted bodies
func splitStatements(query string) []string {
	var (
		result  []string
		current strings.Builder
		quote   rune
	)

	runes := []rune(query)
	for i := 0; i < len(runes); i++ {
		r := runes[i]

		if quote != 0 {
			current.WriteRune(r)
			if r == quote {
				// doubled quote is an escaped quote
				if i+1 < len(runes) && runes[i+1] == quote {
					current.WriteRune(runes[i+1])
					i++
					continue
				}
				quote = 0
			}
			continue
		}

		switch {
		case r == '\'' || r == '"' || r == '`':
			quote = r
			current.WriteRune(r)
		case r == '-' && i+1 < len(runes) && runes[i+1] == '-':
			for i < len(runes) && runes[i] != '\n' {
				i++
			}
			current.WriteRune('\n')
		case r == '/' && i+1 < len(runes) && runes[i+1] == '*':
			// block comments are kept, MySQL reads hints from them
			end := indexRunes(runes, i+2, []rune("*/"))
			if end < 0 {
				end = len(runes)
			} else {
				end += 2
			}
			current.WriteString(string(runes[i:end]))
			i = end - 1
		case r == '$':
			tag, ok := dollarQuoteTag(runes, i)
			if !ok {
				current.WriteRune(r)
				break
			}
			end := indexRunes(runes, i+len(tag), tag)
			if end < 0 {
				end = len(runes)
			} else {
				end += len(tag)
			}
			current.WriteString(string(runes[i:end]))
			i = end - 1
		case r == ';':
			if stmt := strings.TrimSpace(current.String()); stmt != "" {
				result = append(result, stmt)
			}
			current.Reset()
		default:
			current.WriteRune(r)
		}
	}

	if stmt := strings.TrimSpace(current.String()); stmt != "" {
		result = append(result, stmt)
	}
	return result
}

// dollarQuoteTag returns the opening $tag$ at runes[i]. Positional parameters
// such as $1 and dollars inside identifiers are not tags.
func dollarQuoteTag(runes []rune, i int) ([]rune, bool) {
	if i > 0 && (runes[i-1] == '_' || unicode.IsLetter(runes[i-1]) || unicode.IsDigit(runes[i-1])) {
		return nil, false
	}
	j := i + 1
	for j < len(runes) && (runes[j] == '_' || unicode.IsLetter(runes[j]) || (j > i+1 && unicode.IsDigit(runes[j]))) {
		j++
	}
	if j >= len(runes) || runes[j] != '$' {
		return nil, false
	}
	return runes[i : j+1], true
}

func indexRunes(runes []rune, from int, sub []rune) int {
	for i := from; i+len(sub) <= len(runes); i++ {
		match := true
		for k := range sub {
			if runes[i+k] != sub[k] {
				match = false
				break
			}
		}
		if match {
			return i
		}
	}
	return -1
}

// returnsRows reports whether stmt should be run with QueryContext
func returnsRows(stmt string) bool {
	upper := strings.ToUpper(strings.TrimSpace(stmt))
	for _, prefix := range []string{"SELECT", "WITH", "SHOW", "EXPLAIN", "DESCRIBE", "DESC ", "VALUES", "TABLE "} {
		if strings.HasPrefix(upper, prefix) {
			return true
		}
	}
	return strings.Contains(upper, " RETURNING ")
}

type sqlRunner interface {
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
}

// runStatements executes every statement of query in order and keeps the
// rows of the last row-returning statement.
func runStatements(ctx context.Context, runner sqlRunner, query string) *QueryResult {
	statements := splitStatements(query)
	if len(statements) == 0 {
		return failedResult(fmt.Errorf("empty query"))
	}

	result := &QueryResult{
		Success: true,
		Rows:    []map[string]interface{}{},
	}

	for _, stmt := range statements {
		if returnsRows(stmt) {
			rows, err := runner.QueryContext(ctx, stmt)
			if err != nil {
				return failedResult(err)
			}
			columns, data, err := processRows(rows)
			rows.Close()
			if err != nil {
				return failedResult(err)
			}
			result.Columns = columns
			result.Rows = data
			result.RowCount = len(data)
			continue
		}

		res, err := runner.ExecContext(ctx, stmt)
		if err != nil {
			return failedResult(err)
		}
		if affected, err := res.RowsAffected(); err == nil && affected > 0 {
			result.RowsAffected += affected
		}
	}

	return result
}

func processRows(rows *sql.Rows) ([]string, []map[string]interface{}, error) {
	columns, err := rows.Columns()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get columns: %w", err)
	}

	results := make([]map[string]interface{}, 0)
	values := make([]interface{}, len(columns))
	scanArgs := make([]interface{}, len(columns))

	for i := range values {
		scanArgs[i] = &values[i]
	}

	for rows.Next() {
		if err := rows.Scan(scanArgs...); err != nil {
			return nil, nil, fmt.Errorf("failed to scan row: %w", err)
		}

		row := make(map[string]interface{}, len(columns))
		for i, col := range columns {
			switch v := values[i].(type) {
			case nil:
				row[col] = nil
			case []byte:
				row[col] = string(v)
			default:
				row[col] = v
			}
		}
		results = append(results, row)
	}

	if err := rows.Err(); err != nil {
		return nil, nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return columns, results, nil
}
