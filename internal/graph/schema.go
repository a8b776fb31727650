package graph

// --- Enums ---

// NodeKind classifies nodes in the scheduling graph.
type NodeKind string

const (
	NodeKindClient NodeKind = "client"
	NodeKindTask   NodeKind = "task"
	NodeKindWorker NodeKind = "worker"
)

// EdgeKind classifies relationships between nodes.
type EdgeKind string

const (
	// EdgeKindRequests links a client to a task it requested.
	EdgeKindRequests EdgeKind = "REQUESTS"
	// EdgeKindCoRuns links a task to a task it must run with.
	EdgeKindCoRuns EdgeKind = "CO_RUNS"
	// EdgeKindQualified links a worker to a task whose skills it covers.
	EdgeKindQualified EdgeKind = "QUALIFIED"
)

// EdgeKinds lists every relationship kind.
var EdgeKinds = []EdgeKind{EdgeKindRequests, EdgeKindCoRuns, EdgeKindQualified}

// endpoints returns the source and target node kinds of an edge kind.
func (k EdgeKind) endpoints() (NodeKind, NodeKind, bool) {
	switch k {
	case EdgeKindRequests:
		return NodeKindClient, NodeKindTask, true
	case EdgeKindCoRuns:
		return NodeKindTask, NodeKindTask, true
	case EdgeKindQualified:
		return NodeKindWorker, NodeKindTask, true
	}
	return "", "", false
}

// --- Models ---

// Node is one client, task or worker. Detail carries the attribute the
// graph views care about: priority for clients, required skills for tasks
// and skills for workers.
type Node struct {
	ID     string   `json:"id"`
	Kind   NodeKind `json:"kind"`
	Detail string   `json:"detail,omitempty"`
}

// Edge represents a relationship between two nodes.
type Edge struct {
	SourceID string   `json:"sourceId"`
	TargetID string   `json:"targetId"`
	Kind     EdgeKind `json:"kind"`
}

// GraphStats summarizes a scheduling graph.
type GraphStats struct {
	ClientCount int `json:"clientCount"`
	TaskCount   int `json:"taskCount"`
	WorkerCount int `json:"workerCount"`
	EdgeCount   int `json:"edgeCount"`
}

// DependencyChain is an ordered sequence of task IDs linked by co-run edges.
type DependencyChain struct {
	Nodes []string `json:"nodes"`
	Depth int      `json:"depth"`
}
