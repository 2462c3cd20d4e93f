// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package tasktree

// Node is one task with its children resolved.
type Node struct {
	Task     TaskInfo `json:"task"`
	Children []Node   `json:"children,omitempty"`
}

// Count returns the number of tasks in the subtree rooted at node.
func (node Node) Count() int {
	count := 1
	for _, child := range node.Children {
		count += child.Count()
	}
	return count
}

// Walk visits node and its descendants depth-first, parents before
// children, passing each node's depth below node.
func (node Node) Walk(visit func(node Node, depth int)) {
	node.walk(visit, 0)
}

func (node Node) walk(visit func(Node, int), depth int) {
	visit(node, depth)
	for _, child := range node.Children {
		child.walk(visit, depth+1)
	}
}

// BuildForest resolves tasks into trees, one per root, primary root
// first. Child ids that name no task are skipped, and a task is placed
// at most once, so malformed parent links cannot loop. Tasks caught in
// a parent cycle form trees of their own after the rooted ones.
func BuildForest(tasks map[string]TaskInfo, order []string) []Node {
	pointers := make(map[string]*TaskInfo, len(tasks))
	for id := range tasks {
		task := tasks[id]
		pointers[id] = &task
	}
	return buildForest(pointers, order)
}

func buildForest(tasks map[string]*TaskInfo, order []string) []Node {
	placed := make(map[string]bool, len(tasks))
	var build func(id string) Node
	build = func(id string) Node {
		placed[id] = true
		node := Node{Task: tasks[id].clone()}
		for _, childID := range tasks[id].Children {
			if _, known := tasks[childID]; !known || placed[childID] {
				continue
			}
			node.Children = append(node.Children, build(childID))
		}
		return node
	}

	var forest []Node
	for _, rootID := range rootsOf(tasks, order) {
		if placed[rootID] {
			continue
		}
		forest = append(forest, build(rootID))
	}
	return forest
}
