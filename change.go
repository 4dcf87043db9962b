package memdb

import "fmt"

type Op int

const (
	OpNone   Op = 0
	OpInsert Op = 1
	OpUpdate Op = 2
	OpDelete Op = 3
)

func (op Op) String() string {
	switch op {
	case OpNone:
		return "none"
	case OpInsert:
		return "insert"
	case OpUpdate:
		return "update"
	case OpDelete:
		return "delete"
	default:
		return fmt.Sprintf("op%d", int(op))
	}
}

func changeOp(doc, prev Document) Op {
	switch {
	case doc.Deleted():
		return OpDelete
	case prev == nil || prev.Deleted():
		return OpInsert
	default:
		return OpUpdate
	}
}

// Checkpoint is a position in the change feed.
type Checkpoint struct {
	ID  string
	LWT float64
}

func checkpointOf(id string, doc Document) Checkpoint {
	return Checkpoint{ID: id, LWT: doc.LWT()}
}

type ChangeEvent struct {
	Op         Op
	DocumentID string
	Document   Document
	Previous   Document
}

// EventBatch holds the events of one bulk write, in application order.
type EventBatch struct {
	ID         string
	Events     []ChangeEvent
	Checkpoint Checkpoint
	Context    string
}

type ChangedDocument struct {
	Document   Document
	Checkpoint Checkpoint
}
