package services

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"github.com/yeah-genie/chalk-backend/internal/logger"
	"github.com/yeah-genie/chalk-backend/internal/types"
)

// GraphMirror keeps a queryable copy of the approved curriculum graph in
// neo4j. Mirroring is best-effort: approval already succeeded in Postgres by
// the time a node is merged here, so failures are logged, not propagated.
type GraphMirror interface {
	MergeUnit(ctx context.Context, unit *types.KBUnit) error
	MergeTopic(ctx context.Context, topic *types.KBTopic) error
	Close(ctx context.Context) error
}

type neo4jGraphMirror struct {
	log    *logger.Logger
	driver neo4j.DriverWithContext
}

// NewGraphMirror returns nil (mirroring disabled) when NEO4J_URI is not set.
func NewGraphMirror(log *logger.Logger) (GraphMirror, error) {
	uri := strings.TrimSpace(os.Getenv("NEO4J_URI"))
	if uri == "" {
		return nil, nil
	}
	user := os.Getenv("NEO4J_USER")
	password := os.Getenv("NEO4J_PASSWORD")
	driver, err := neo4j.NewDriverWithContext(uri, neo4j.BasicAuth(user, password, ""))
	if err != nil {
		return nil, fmt.Errorf("neo4j driver: %w", err)
	}
	return &neo4jGraphMirror{
		log:    log.With("service", "GraphMirror"),
		driver: driver,
	}, nil
}

func (g *neo4jGraphMirror) MergeUnit(ctx context.Context, unit *types.KBUnit) error {
	session := g.driver.NewSession(ctx, neo4j.SessionConfig{})
	defer session.Close(ctx)

	_, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		return tx.Run(ctx, `
			MERGE (s:Subject {id: $subjectId})
			MERGE (u:Unit {id: $id})
			SET u.name = $name, u.weight = $weight
			MERGE (s)-[:HAS_UNIT]->(u)
		`, map[string]any{
			"subjectId": unit.SubjectID,
			"id":        unit.ID,
			"name":      unit.Name,
			"weight":    unit.Weight,
		})
	})
	if err != nil {
		return fmt.Errorf("merge unit %s: %w", unit.ID, err)
	}
	return nil
}

func (g *neo4jGraphMirror) MergeTopic(ctx context.Context, topic *types.KBTopic) error {
	session := g.driver.NewSession(ctx, neo4j.SessionConfig{})
	defer session.Close(ctx)

	_, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		return tx.Run(ctx, `
			MERGE (u:Unit {id: $unitId})
			MERGE (t:Topic {id: $id})
			SET t.name = $name, t.description = $description
			MERGE (u)-[:HAS_TOPIC]->(t)
		`, map[string]any{
			"unitId":      topic.UnitID,
			"id":          topic.ID,
			"name":        topic.Name,
			"description": topic.Description,
		})
	})
	if err != nil {
		return fmt.Errorf("merge topic %s: %w", topic.ID, err)
	}
	return nil
}

func (g *neo4jGraphMirror) Close(ctx context.Context) error {
	return g.driver.Close(ctx)
}
