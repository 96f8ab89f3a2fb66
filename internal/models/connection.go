package models

import (
	"datashorts/internal/constants"
)

// Connection is a registered user database. TableSchema holds the JSON snapshot
// written by the last full schema sync and is display-only.
type Connection struct {
	ID             string  `gorm:"column:id;primaryKey" json:"id"`
	ConnectionName string  `gorm:"column:connection_name;not null" json:"connectionName"`
	DBType         string  `gorm:"column:db_type;not null" json:"dbType"`
	PostgresURL    *string `gorm:"column:postgres_url" json:"-"`
	MongoURL       *string `gorm:"column:mongo_url" json:"-"`
	DatabaseURL    *string `gorm:"column:database_url" json:"-"` // mysql / clickhouse DSN
	TableSchema    *string `gorm:"column:table_schema;type:jsonb" json:"tableSchema,omitempty"`
	Base
}

func (Connection) TableName() string {
	return "connections"
}

// URL returns the connection string matching the connection's database type
func (c *Connection) URL() string {
	var url *string
	switch c.DBType {
	case constants.DatabaseTypePostgreSQL:
		url = c.PostgresURL
	case constants.DatabaseTypeMongoDB:
		url = c.MongoURL
	default:
		url = c.DatabaseURL
	}
	if url == nil {
		return ""
	}
	return *url
}
