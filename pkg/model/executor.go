package model

import "strings"

// ContainerPrefix marks an executor id as a container-resource executor,
// e.g. "@titan-executor-01", per the prefer-list rules.
const ContainerPrefix = "@"

// Executor is the in-memory projection of an /executors/<exe> subtree.
type Executor struct {
	ID      string
	Online  bool // true iff /executors/<exe>/ip exists
	IP      string
	Version string // /executors/<exe>/version, informational only
	HasTask bool   // /executors/<exe>/task exists (container runtime tag)

	// ContainerOnly marks an executor that is excluded from the
	// "preferList empty -> all online executors eligible" default per
	// spec.md §4.4.3. When a job has a preferList, it is judged by the
	// preferList/useDispreferList rules like any other executor.
	ContainerOnly bool
	Capacity      int
}

// IsContainer reports whether e is a container-resource executor: id
// prefixed with "@" and tagged with a task node.
func (e Executor) IsContainer() bool {
	return strings.HasPrefix(e.ID, ContainerPrefix) && e.HasTask
}

// ExecutorView is the engine's snapshot of all known executors, keyed
// by executor id.
type ExecutorView map[string]*Executor

func (v ExecutorView) Online(id string) bool {
	e, ok := v[id]
	return ok && e.Online
}
