// Package directory implements the cluster state directory port.
//
// The Redis layout mirrors the one written by the cluster's orchestrator:
//
//	node:capabilities:<node>   JSON capability descriptor
//	instance:<instance>        JSON {"node_id", "class_type", "annotations"}
//	provider:<provider>        JSON {"node_id", "class_type"}
//	intent:migrate:<instance>  destination node id
//	intents                    list of pending intent keys
//
// Migration intents for one cycle are written in a single MULTI/EXEC
// transaction so that the orchestrator never observes a partial batch.
package directory
