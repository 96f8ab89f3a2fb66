package constants

import "time"

const (
	DatabaseTypePostgreSQL = "postgresql"
	DatabaseTypeMySQL      = "mysql"
	DatabaseTypeMongoDB    = "mongodb"
	DatabaseTypeClickhouse = "clickhouse"
)

const DatabaseConnectionTTL = 10 * time.Minute // 10 minutes for an idle database connection

// IsSQLDatabase reports whether dbType is queried through an information_schema style catalog
func IsSQLDatabase(dbType string) bool {
	switch dbType {
	case DatabaseTypePostgreSQL, DatabaseTypeMySQL, DatabaseTypeClickhouse:
		return true
	default:
		return false
	}
}
