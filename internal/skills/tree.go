package skills

import (
	"fmt"
	"strings"

	"github.com/Zaltu/AIGIS/pkg/aigisclient"
	"github.com/hashicorp/go-hclog"
)

type nodeKind int

const (
	kindNamespace nodeKind = iota
	kindValue
	kindCallable
)

// node is one segment of the skills tree. Namespace nodes have children;
// leaf nodes hold either a plain value or a callable wrapped down to a
// uniform signature.
type node struct {
	kind     nodeKind
	children map[string]*node
	value    interface{}
	wrapped  func(args []interface{}, kwargs map[string]interface{}) (interface{}, error)
}

func newNamespace() *node {
	return &node{kind: kindNamespace, children: map[string]*node{}}
}

// wrapLeaf normalizes a plugin's exported value into a single calling
// convention. A plugin author registers either an aigisclient.SkillFunc
// (wants the log) or an aigisclient.SkillFuncNoLog (doesn't); anything
// else is stored as an inert value.
func wrapLeaf(value interface{}, log hclog.Logger) *node {
	switch fn := value.(type) {
	case aigisclient.SkillFunc:
		return &node{kind: kindCallable, value: value, wrapped: func(args []interface{}, kwargs map[string]interface{}) (interface{}, error) {
			return fn(args, kwargs, log)
		}}
	case aigisclient.SkillFuncNoLog:
		return &node{kind: kindCallable, value: value, wrapped: func(args []interface{}, kwargs map[string]interface{}) (interface{}, error) {
			return fn(args, kwargs)
		}}
	default:
		return &node{kind: kindValue, value: value}
	}
}

// NamespaceLockError is raised when a skill path tries to descend through
// a segment that is already a leaf rather than a namespace.
type NamespaceLockError struct {
	Path string
}

func (e *NamespaceLockError) Error() string {
	return fmt.Sprintf("NamespaceLockError: %q is already a leaf skill, cannot nest under it", e.Path)
}

func insert(root *node, segments []string, value interface{}, log hclog.Logger) error {
	cur := root
	for i, seg := range segments {
		last := i == len(segments)-1

		child, ok := cur.children[seg]
		if !ok {
			if last {
				cur.children[seg] = wrapLeaf(value, log)
				return nil
			}
			child = newNamespace()
			cur.children[seg] = child
			cur = child
			continue
		}

		if last {
			cur.children[seg] = wrapLeaf(value, log)
			return nil
		}
		if child.kind != kindNamespace {
			return &NamespaceLockError{Path: strings.Join(segments[:i+1], ".")}
		}
		cur = child
	}
	return nil
}
