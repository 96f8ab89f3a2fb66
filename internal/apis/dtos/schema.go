package dtos

type SchemaSyncRequest struct {
	SQL string `json:"sql"`
}

type DetectSchemaChangeRequest struct {
	SQL string `json:"sql" binding:"required"`
}

type DetectSchemaChangeResponse struct {
	ChangeType      string `json:"changeType"`
	AffectedSchema  string `json:"affectedSchema,omitempty"`
	AffectedTable   string `json:"affectedTable,omitempty"`
	SchemaAffecting bool   `json:"schemaAffecting"`
}
