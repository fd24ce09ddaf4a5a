// Copyright 2026 lkml-mcp project authors. All rights reserved.
// Use of this source code is governed by Apache 2 LICENSE that can be found in the LICENSE file.

package lore

import (
	"sort"
)

// ThreadNode wraps one message and its direct replies.
type ThreadNode struct {
	Msg      *Message      `json:"message"`
	Children []*ThreadNode `json:"children,omitempty"`
}

// Threads builds the reply forest for a set of messages. A message is
// linked under its In-Reply-To target when that target is in the set;
// otherwise it becomes a root. Parent chains that loop back on
// themselves (malformed headers do happen in the archive) are broken by
// demoting the message that closes the loop to a root. Children and
// roots are ordered by date ascending (a missing date sorts like the
// zero time), with input order breaking ties.
func Threads(msgs []*Message) []*ThreadNode {
	byID := make(map[string]*Message, len(msgs))
	order := make(map[string]int, len(msgs))
	for i, msg := range msgs {
		if _, dup := byID[msg.ID]; dup {
			continue
		}
		byID[msg.ID] = msg
		order[msg.ID] = i
	}

	parent := map[string]string{}
	for _, msg := range msgs {
		if byID[msg.ID] != msg {
			// A later duplicate must not re-link the kept message.
			continue
		}
		pid := msg.InReplyTo
		if pid == "" || pid == msg.ID {
			continue
		}
		if _, ok := byID[pid]; !ok {
			// Parent outside the fetched set: root promotion.
			continue
		}
		parent[msg.ID] = pid
	}
	// Walk every parent chain; the edge that revisits a seen id gets cut.
	for _, msg := range msgs {
		visited := map[string]bool{}
		cur := msg.ID
		for {
			visited[cur] = true
			next, ok := parent[cur]
			if !ok {
				break
			}
			if visited[next] {
				delete(parent, cur)
				break
			}
			cur = next
		}
	}

	nodes := make(map[string]*ThreadNode, len(byID))
	var roots []*ThreadNode
	for _, msg := range msgs {
		if byID[msg.ID] != msg {
			continue
		}
		nodes[msg.ID] = &ThreadNode{Msg: msg}
	}
	for _, msg := range msgs {
		node := nodes[msg.ID]
		if node == nil || node.Msg != msg {
			continue
		}
		if pid, ok := parent[msg.ID]; ok {
			p := nodes[pid]
			p.Children = append(p.Children, node)
		} else {
			roots = append(roots, node)
		}
	}

	sortNodes(roots, order)
	for _, node := range nodes {
		sortNodes(node.Children, order)
	}
	return roots
}

func sortNodes(nodes []*ThreadNode, order map[string]int) {
	sort.SliceStable(nodes, func(i, j int) bool {
		a, b := nodes[i].Msg, nodes[j].Msg
		if !a.Date.Equal(b.Date) {
			return a.Date.Before(b.Date)
		}
		return order[a.ID] < order[b.ID]
	})
}

// Flatten returns the forest's messages in pre-order: each root followed
// by its subtree, children in their sorted order.
func Flatten(forest []*ThreadNode) []*Message {
	var out []*Message
	var walk func(node *ThreadNode)
	walk = func(node *ThreadNode) {
		out = append(out, node.Msg)
		for _, child := range node.Children {
			walk(child)
		}
	}
	for _, root := range forest {
		walk(root)
	}
	return out
}
