//go:build cgo

package graph

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	kuzu "github.com/kuzudb/go-kuzu"
)

// KuzuStore implements the Store interface using KuzuDB as the graph backend.
// It requires CGO because the go-kuzu driver wraps KuzuDB's C library.
type KuzuStore struct {
	db   *kuzu.Database
	conn *kuzu.Connection
}

// Compile-time check that KuzuStore satisfies Store.
var _ Store = (*KuzuStore)(nil)

// NewKuzuStore creates a KuzuStore backed by an in-memory KuzuDB instance.
func NewKuzuStore() (*KuzuStore, error) {
	return openKuzu(":memory:")
}

// NewKuzuFileStore creates a KuzuStore backed by a database directory so the
// scheduling graph survives across runs. KuzuDB creates the leaf directory.
func NewKuzuFileStore(dbPath string) (*KuzuStore, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("kuzu: create parent directory: %w", err)
	}
	return openKuzu(dbPath)
}

func openKuzu(path string) (*KuzuStore, error) {
	cfg := kuzu.DefaultSystemConfig()
	db, err := kuzu.OpenDatabase(path, cfg)
	if err != nil {
		return nil, fmt.Errorf("kuzu: open database: %w", err)
	}
	conn, err := kuzu.OpenConnection(db)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("kuzu: open connection: %w", err)
	}
	return &KuzuStore{db: db, conn: conn}, nil
}

// Close releases the KuzuDB connection and database.
func (s *KuzuStore) Close() error {
	if s.conn != nil {
		s.conn.Close()
	}
	if s.db != nil {
		s.db.Close()
	}
	return nil
}

// ---------- Schema setup ----------

// nodeTables maps node kinds to their table names.
var nodeTables = map[NodeKind]string{
	NodeKindClient: "Client",
	NodeKindTask:   "Task",
	NodeKindWorker: "Worker",
}

// ddlStatements defines the Cypher DDL executed by InitSchema.
// Node tables must precede relationship tables.
var ddlStatements = []string{
	`CREATE NODE TABLE IF NOT EXISTS Client(id STRING, detail STRING, PRIMARY KEY(id))`,
	`CREATE NODE TABLE IF NOT EXISTS Task(id STRING, detail STRING, PRIMARY KEY(id))`,
	`CREATE NODE TABLE IF NOT EXISTS Worker(id STRING, detail STRING, PRIMARY KEY(id))`,
	`CREATE REL TABLE IF NOT EXISTS REQUESTS(FROM Client TO Task)`,
	`CREATE REL TABLE IF NOT EXISTS CO_RUNS(FROM Task TO Task)`,
	`CREATE REL TABLE IF NOT EXISTS QUALIFIED(FROM Worker TO Task)`,
}

// InitSchema creates all node and relationship tables if they do not exist.
func (s *KuzuStore) InitSchema(_ context.Context) error {
	for _, stmt := range ddlStatements {
		res, err := s.conn.Query(stmt)
		if err != nil {
			return fmt.Errorf("kuzu: init schema: %w", err)
		}
		res.Close()
	}
	return nil
}

// ---------- Write operations ----------

// AddNode merges a node by ID and sets its detail.
func (s *KuzuStore) AddNode(_ context.Context, node Node) error {
	table, ok := nodeTables[node.Kind]
	if !ok {
		return fmt.Errorf("kuzu: unknown node kind: %s", node.Kind)
	}
	// Table name comes from nodeTables, not user input.
	cypher := fmt.Sprintf(
		"MERGE (n:%s {id: $id}) ON CREATE SET n.detail = $detail ON MATCH SET n.detail = $detail",
		table,
	)
	return s.exec(cypher, map[string]any{"id": node.ID, "detail": node.Detail})
}

// AddEdge merges a relationship between two existing nodes. Missing
// endpoints leave the graph unchanged.
func (s *KuzuStore) AddEdge(_ context.Context, edge Edge) error {
	cypher, err := edgeCypher(edge.Kind)
	if err != nil {
		return err
	}
	return s.exec(cypher, map[string]any{
		"src": edge.SourceID,
		"dst": edge.TargetID,
	})
}

// edgeCypher returns the MATCH-MERGE Cypher for the given edge kind.
func edgeCypher(kind EdgeKind) (string, error) {
	src, dst, ok := kind.endpoints()
	if !ok {
		return "", fmt.Errorf("kuzu: %w: %s", ErrUnknownEdgeKind, kind)
	}
	return fmt.Sprintf(
		`MATCH (a:%s {id: $src}), (b:%s {id: $dst})
		 MERGE (a)-[:%s]->(b)`,
		nodeTables[src], nodeTables[dst], kind,
	), nil
}

// ---------- Read operations ----------

// GetNode retrieves a node by kind and ID, or returns nil if not found.
func (s *KuzuStore) GetNode(_ context.Context, kind NodeKind, id string) (*Node, error) {
	table, ok := nodeTables[kind]
	if !ok {
		return nil, fmt.Errorf("kuzu: unknown node kind: %s", kind)
	}
	rows, err := s.query(
		fmt.Sprintf("MATCH (n:%s {id: $id}) RETURN n.id, n.detail", table),
		map[string]any{"id": id},
	)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return &Node{ID: toString(rows[0][0]), Kind: kind, Detail: toString(rows[0][1])}, nil
}

// GetAllEdges returns all edges across all relationship tables.
func (s *KuzuStore) GetAllEdges(_ context.Context) ([]Edge, error) {
	var edges []Edge
	for _, kind := range EdgeKinds {
		src, dst, _ := kind.endpoints()
		cypher := fmt.Sprintf(
			"MATCH (a:%s)-[:%s]->(b:%s) RETURN a.id, b.id ORDER BY a.id, b.id",
			nodeTables[src], kind, nodeTables[dst],
		)
		rows, err := s.query(cypher, nil)
		if err != nil {
			// Table may not exist yet; skip.
			continue
		}
		for _, r := range rows {
			edges = append(edges, Edge{
				SourceID: toString(r[0]),
				TargetID: toString(r[1]),
				Kind:     kind,
			})
		}
	}
	return edges, nil
}

// Neighbors returns immediate neighbors along edges of the given kind.
func (s *KuzuStore) Neighbors(_ context.Context, kind EdgeKind, id string, direction Direction) ([]string, error) {
	return s.neighbors(kind, id, direction)
}

func (s *KuzuStore) neighbors(kind EdgeKind, id string, direction Direction) ([]string, error) {
	src, dst, ok := kind.endpoints()
	if !ok {
		return nil, fmt.Errorf("kuzu: %w: %s", ErrUnknownEdgeKind, kind)
	}
	var cypher string
	switch direction {
	case DirectionDownstream:
		cypher = fmt.Sprintf("MATCH (a:%s {id: $id})-[:%s]->(b:%s) RETURN b.id ORDER BY b.id",
			nodeTables[src], kind, nodeTables[dst])
	case DirectionUpstream:
		cypher = fmt.Sprintf("MATCH (a:%s)-[:%s]->(b:%s {id: $id}) RETURN a.id ORDER BY a.id",
			nodeTables[src], kind, nodeTables[dst])
	default:
		return nil, fmt.Errorf("kuzu: unknown direction: %s", direction)
	}
	rows, err := s.query(cypher, map[string]any{"id": id})
	if err != nil {
		return nil, err
	}
	out := make([]string, 0, len(rows))
	for _, r := range rows {
		out = append(out, toString(r[0]))
	}
	return out, nil
}

// GetDependencies performs a BFS over CO_RUNS edges starting from taskID.
func (s *KuzuStore) GetDependencies(_ context.Context, taskID string, direction Direction, maxDepth int) ([]DependencyChain, error) {
	return walkDependencies(taskID, maxDepth, func(id string) ([]string, error) {
		return s.neighbors(EdgeKindCoRuns, id, direction)
	})
}

// ---------- Stats ----------

// Stats returns counts of all node and edge tables.
func (s *KuzuStore) Stats(_ context.Context) (*GraphStats, error) {
	clients, err := s.countTable(nodeTables[NodeKindClient])
	if err != nil {
		return nil, err
	}
	tasks, err := s.countTable(nodeTables[NodeKindTask])
	if err != nil {
		return nil, err
	}
	workers, err := s.countTable(nodeTables[NodeKindWorker])
	if err != nil {
		return nil, err
	}
	edges, err := s.countEdges()
	if err != nil {
		return nil, err
	}
	return &GraphStats{
		ClientCount: clients,
		TaskCount:   tasks,
		WorkerCount: workers,
		EdgeCount:   edges,
	}, nil
}

// ---------- Internal helpers ----------

// exec runs a parameterized Cypher statement that produces no result rows.
func (s *KuzuStore) exec(cypher string, params map[string]any) error {
	stmt, err := s.conn.Prepare(cypher)
	if err != nil {
		return fmt.Errorf("kuzu: prepare: %w", err)
	}
	defer stmt.Close()

	res, err := s.conn.Execute(stmt, params)
	if err != nil {
		return fmt.Errorf("kuzu: execute: %w", err)
	}
	res.Close()
	return nil
}

// query runs a Cypher statement and collects all result rows in column order.
func (s *KuzuStore) query(cypher string, params map[string]any) ([][]any, error) {
	var res *kuzu.QueryResult
	var err error

	if len(params) == 0 {
		res, err = s.conn.Query(cypher)
	} else {
		var stmt *kuzu.PreparedStatement
		stmt, err = s.conn.Prepare(cypher)
		if err != nil {
			return nil, fmt.Errorf("kuzu: prepare: %w", err)
		}
		defer stmt.Close()
		res, err = s.conn.Execute(stmt, params)
	}
	if err != nil {
		return nil, fmt.Errorf("kuzu: query: %w", err)
	}
	defer res.Close()

	var rows [][]any
	for res.HasNext() {
		tuple, err := res.Next()
		if err != nil {
			return nil, fmt.Errorf("kuzu: next: %w", err)
		}
		vals, err := tuple.GetAsSlice()
		if err != nil {
			return nil, fmt.Errorf("kuzu: row values: %w", err)
		}
		rows = append(rows, vals)
	}
	return rows, nil
}

func (s *KuzuStore) countTable(table string) (int, error) {
	rows, err := s.query(fmt.Sprintf("MATCH (n:%s) RETURN count(n)", table), nil)
	if err != nil {
		return 0, err
	}
	if len(rows) == 0 || len(rows[0]) == 0 {
		return 0, nil
	}
	return toInt(rows[0][0]), nil
}

// countEdges returns the total number of edges across all relationship tables.
func (s *KuzuStore) countEdges() (int, error) {
	total := 0
	for _, kind := range EdgeKinds {
		rows, err := s.query(fmt.Sprintf("MATCH ()-[r:%s]->() RETURN count(r)", kind), nil)
		if err != nil {
			// Table may not exist yet; treat as zero.
			continue
		}
		if len(rows) > 0 && len(rows[0]) > 0 {
			total += toInt(rows[0][0])
		}
	}
	return total, nil
}

// KuzuDB returns typed Go values; these coerce any to the concrete type.

func toString(v any) string {
	switch s := v.(type) {
	case string:
		return s
	case nil:
		return ""
	}
	return fmt.Sprintf("%v", v)
}

func toInt(v any) int {
	switch n := v.(type) {
	case int64:
		return int(n)
	case int:
		return n
	case int32:
		return int(n)
	case float64:
		return int(n)
	default:
		return 0
	}
}
