// model/neo4j/nodes.go
package echo_neo4j

// Node Labels
const (
	// LabelPolicy represents an access control policy
	LabelPolicy = "POLICY"
)
