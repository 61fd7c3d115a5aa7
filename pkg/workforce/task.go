// Package workforce implements the Workforce Scheduler (spec §4.4): the
// complex-branch decompose → assign → run → summarize pipeline, backed
// by a small in-memory agent pool drawn from the configured roster.
package workforce

// TaskState is the closed set of Task Node states.
type TaskState string

const (
	TaskOpen    TaskState = "OPEN"
	TaskRunning TaskState = "RUNNING"
	TaskDone    TaskState = "DONE"
	TaskFailed  TaskState = "FAILED"
)

// TaskNode is one node of the task tree rooted at the user question.
// Parent/children are integer indices into a Tree's arena rather than
// pointers, per spec §9's note against cyclic parent/subtask references.
type TaskNode struct {
	ID           string
	Content      string
	State        TaskState
	Result       string
	FailureCount int
	AssignedRole string
	ParentIndex  int // -1 for the root
	ChildIndices []int
}

// Tree is an arena-allocated task tree, owned by the workforce for the
// duration of one turn; results are copied into the caller's
// conversation ring on completion and the tree itself is discarded.
type Tree struct {
	Nodes []TaskNode
	Root  int
}

// NewTree creates a tree with a single root node holding the user
// question as content.
func NewTree(rootID, question string) *Tree {
	return &Tree{
		Nodes: []TaskNode{{ID: rootID, Content: question, State: TaskOpen, ParentIndex: -1}},
		Root:  0,
	}
}

// AddChild appends a new node as a child of parentIndex and returns its
// index.
func (t *Tree) AddChild(parentIndex int, n TaskNode) int {
	n.ParentIndex = parentIndex
	idx := len(t.Nodes)
	t.Nodes = append(t.Nodes, n)
	t.Nodes[parentIndex].ChildIndices = append(t.Nodes[parentIndex].ChildIndices, idx)
	return idx
}

// Children returns the child nodes of parentIndex in insertion order.
func (t *Tree) Children(parentIndex int) []*TaskNode {
	idxs := t.Nodes[parentIndex].ChildIndices
	out := make([]*TaskNode, len(idxs))
	for i, ci := range idxs {
		out[i] = &t.Nodes[ci]
	}
	return out
}
