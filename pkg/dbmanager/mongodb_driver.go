package dbmanager

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const defaultSampleSize = 100

// FieldInfo is a top-level document field observed while sampling a collection
type FieldInfo struct {
	Name     string
	Type     string
	Required bool // present in every sampled document
}

type CollectionSchema struct {
	Name   string
	Fields []FieldInfo
}

// MongoDBDriver runs a small subset of shell syntax:
// db.<collection>.find|aggregate|countDocuments|insertOne|deleteMany(<extended json>...)[.limit(n)]
type MongoDBDriver struct {
	logger *slog.Logger
}

func NewMongoDBDriver(logger *slog.Logger) *MongoDBDriver {
	return &MongoDBDriver{logger: logger}
}

func (d *MongoDBDriver) Connect(ctx context.Context, config ConnectionConfig) (*Connection, error) {
	if config.URL == "" {
		return nil, fmt.Errorf("MongoDB connection %s has no connection URL", config.ConnectionID)
	}

	dbName, err := mongoDatabaseName(config.URL)
	if err != nil {
		return nil, err
	}

	connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(connectCtx, options.Client().ApplyURI(config.URL))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}
	if err := client.Ping(connectCtx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("ping failed: %w", err)
	}

	d.logger.Info("Database connection established", "driver", "MongoDB", "connection_id", config.ConnectionID, "database", dbName)

	return &Connection{
		Mongo:         client,
		MongoDatabase: dbName,
		LastUsed:      time.Now(),
		Status:        StatusConnected,
		Config:        config,
	}, nil
}

func (d *MongoDBDriver) Disconnect(conn *Connection) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return conn.Mongo.Disconnect(ctx)
}

func (d *MongoDBDriver) Ping(ctx context.Context, conn *Connection) error {
	return conn.Mongo.Ping(ctx, nil)
}

func (d *MongoDBDriver) BeginTx(context.Context, *Connection) (Transaction, error) {
	return nil, fmt.Errorf("MongoDB transactions: %w", ErrNotSupported)
}

func (d *MongoDBDriver) ExecuteQuery(ctx context.Context, conn *Connection, query string) *QueryResult {
	cmd, err := parseMongoCommand(query)
	if err != nil {
		return failedResult(err)
	}

	coll := conn.Mongo.Database(conn.MongoDatabase).Collection(cmd.Collection)
	arg := func(i int) interface{} {
		if i < len(cmd.Args) {
			return cmd.Args[i]
		}
		return bson.M{}
	}

	switch cmd.Operation {
	case "find":
		opts := options.Find()
		if len(cmd.Args) > 1 {
			opts.SetProjection(cmd.Args[1])
		}
		if cmd.Limit > 0 {
			opts.SetLimit(cmd.Limit)
		}
		cursor, err := coll.Find(ctx, arg(0), opts)
		if err != nil {
			return failedResult(err)
		}
		return documentsResult(ctx, cursor)

	case "aggregate":
		pipeline, ok := arg(0).(bson.A)
		if !ok {
			return failedResult(fmt.Errorf("aggregate expects an array pipeline"))
		}
		if cmd.Limit > 0 {
			pipeline = append(pipeline, bson.M{"$limit": cmd.Limit})
		}
		cursor, err := coll.Aggregate(ctx, pipeline)
		if err != nil {
			return failedResult(err)
		}
		return documentsResult(ctx, cursor)

	case "countDocuments":
		count, err := coll.CountDocuments(ctx, arg(0))
		if err != nil {
			return failedResult(err)
		}
		return &QueryResult{
			Success:  true,
			Rows:     []map[string]interface{}{{"count": count}},
			RowCount: 1,
			Columns:  []string{"count"},
		}

	case "insertOne":
		res, err := coll.InsertOne(ctx, arg(0))
		if err != nil {
			return failedResult(err)
		}
		return &QueryResult{
			Success:      true,
			Rows:         []map[string]interface{}{{"insertedId": convertMongoValue(res.InsertedID)}},
			RowCount:     1,
			Columns:      []string{"insertedId"},
			RowsAffected: 1,
		}

	case "deleteMany":
		res, err := coll.DeleteMany(ctx, arg(0))
		if err != nil {
			return failedResult(err)
		}
		return &QueryResult{
			Success:      true,
			Rows:         []map[string]interface{}{},
			RowsAffected: res.DeletedCount,
		}
	}

	return failedResult(fmt.Errorf("unsupported MongoDB operation: %s", cmd.Operation))
}

// SampleCollections infers a flat schema per collection from a random sample.
// An empty names list samples every collection of the database.
func (d *MongoDBDriver) SampleCollections(ctx context.Context, conn *Connection, names []string, sampleSize int) ([]CollectionSchema, error) {
	if sampleSize <= 0 {
		sampleSize = defaultSampleSize
	}
	db := conn.Mongo.Database(conn.MongoDatabase)

	if len(names) == 0 {
		all, err := db.ListCollectionNames(ctx, bson.D{})
		if err != nil {
			return nil, fmt.Errorf("failed to list collections: %w", err)
		}
		names = all
	}
	sort.Strings(names)

	schemas := make([]CollectionSchema, 0, len(names))
	for _, name := range names {
		pipeline := mongo.Pipeline{{{Key: "$sample", Value: bson.D{{Key: "size", Value: sampleSize}}}}}
		cursor, err := db.Collection(name).Aggregate(ctx, pipeline)
		if err != nil {
			return nil, fmt.Errorf("failed to sample collection %s: %w", name, err)
		}
		var docs []bson.D
		if err := cursor.All(ctx, &docs); err != nil {
			return nil, fmt.Errorf("failed to read sample of %s: %w", name, err)
		}
		if len(docs) == 0 {
			continue
		}
		schemas = append(schemas, CollectionSchema{Name: name, Fields: inferFields(docs)})
	}
	return schemas, nil
}

// inferFields keeps first-seen field order and the first non-null type per field
func inferFields(docs []bson.D) []FieldInfo {
	var order []string
	seen := make(map[string]int)
	types := make(map[string]string)

	for _, doc := range docs {
		for _, elem := range doc {
			if _, ok := seen[elem.Key]; !ok {
				order = append(order, elem.Key)
			}
			seen[elem.Key]++
			if t := bsonTypeName(elem.Value); t != "null" && types[elem.Key] == "" {
				types[elem.Key] = t
			}
		}
	}

	fields := make([]FieldInfo, 0, len(order))
	for _, key := range order {
		t := types[key]
		if t == "" {
			t = "null"
		}
		fields = append(fields, FieldInfo{
			Name:     key,
			Type:     t,
			Required: seen[key] == len(docs),
		})
	}
	return fields
}

func bsonTypeName(v interface{}) string {
	switch v.(type) {
	case nil, primitive.Null:
		return "null"
	case string:
		return "string"
	case int32:
		return "int"
	case int64:
		return "long"
	case float64:
		return "double"
	case bool:
		return "bool"
	case primitive.ObjectID:
		return "objectId"
	case primitive.DateTime:
		return "date"
	case primitive.Timestamp:
		return "timestamp"
	case primitive.Decimal128:
		return "decimal"
	case primitive.Binary:
		return "binData"
	case bson.D, bson.M:
		return "object"
	case bson.A:
		return "array"
	default:
		return fmt.Sprintf("%T", v)
	}
}

type mongoCommand struct {
	Collection string
	Operation  string
	Args       bson.A
	Limit      int64
}

var (
	mongoCommandRe = regexp.MustCompile(`(?s)^db\.([A-Za-z_][\w.-]*?)\.(find|aggregate|countDocuments|insertOne|deleteMany)\((.*)\)$`)
	mongoLimitRe   = regexp.MustCompile(`\.limit\((\d+)\)\s*$`)
)

func parseMongoCommand(query string) (*mongoCommand, error) {
	query = strings.TrimSuffix(strings.TrimSpace(query), ";")

	var limit int64
	if m := mongoLimitRe.FindStringSubmatch(query); m != nil {
		limit, _ = strconv.ParseInt(m[1], 10, 64)
		query = strings.TrimSpace(query[:len(query)-len(m[0])])
	}

	m := mongoCommandRe.FindStringSubmatch(query)
	if m == nil {
		return nil, fmt.Errorf("unsupported MongoDB query syntax: expected db.<collection>.<operation>(...)")
	}

	cmd := &mongoCommand{Collection: m[1], Operation: m[2], Limit: limit}
	if raw := strings.TrimSpace(m[3]); raw != "" {
		var wrapper bson.M
		if err := bson.UnmarshalExtJSON([]byte(`{"args":[`+raw+`]}`), false, &wrapper); err != nil {
			return nil, fmt.Errorf("invalid MongoDB query arguments: %w", err)
		}
		args, ok := wrapper["args"].(bson.A)
		if !ok {
			return nil, fmt.Errorf("invalid MongoDB query arguments")
		}
		cmd.Args = args
	}
	return cmd, nil
}

func documentsResult(ctx context.Context, cursor *mongo.Cursor) *QueryResult {
	defer cursor.Close(ctx)

	var docs []bson.M
	if err := cursor.All(ctx, &docs); err != nil {
		return failedResult(err)
	}

	rows := make([]map[string]interface{}, 0, len(docs))
	columnSet := make(map[string]struct{})
	var columns []string
	for _, doc := range docs {
		row := make(map[string]interface{}, len(doc))
		for k, v := range doc {
			row[k] = convertMongoValue(v)
			if _, ok := columnSet[k]; !ok {
				columnSet[k] = struct{}{}
				columns = append(columns, k)
			}
		}
		rows = append(rows, row)
	}
	sort.Strings(columns)

	return &QueryResult{
		Success:  true,
		Rows:     rows,
		RowCount: len(rows),
		Columns:  columns,
	}
}

// convertMongoValue turns BSON values into JSON friendly ones
func convertMongoValue(v interface{}) interface{} {
	switch val := v.(type) {
	case primitive.ObjectID:
		return val.Hex()
	case primitive.DateTime:
		return val.Time().UTC()
	case primitive.Decimal128:
		return val.String()
	case bson.M:
		out := make(map[string]interface{}, len(val))
		for k, inner := range val {
			out[k] = convertMongoValue(inner)
		}
		return out
	case bson.D:
		out := make(map[string]interface{}, len(val))
		for _, elem := range val {
			out[elem.Key] = convertMongoValue(elem.Value)
		}
		return out
	case bson.A:
		out := make([]interface{}, len(val))
		for i, inner := range val {
			out[i] = convertMongoValue(inner)
		}
		return out
	default:
		return val
	}
}

func mongoDatabaseName(rawURL string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", fmt.Errorf("invalid MongoDB URL: %w", err)
	}
	name := strings.Trim(u.Path, "/")
	if name == "" {
		return "", fmt.Errorf("MongoDB URL must include a database name")
	}
	return name, nil
}
