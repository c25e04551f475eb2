package services

import (
	"testing"

	"github.com/princeprakhar/marketplace-backend/internal/models"
)

func flatComment(id uint, parent *uint) models.Comment {
	return models.Comment{ID: id, LaunchID: 1, ParentID: parent, Content: "c"}
}

func countNodes(nodes []*CommentNode) int {
	n := 0
	for _, node := range nodes {
		n += 1 + countNodes(node.Replies)
	}
	return n
}

func TestBuildCommentTree_NestsInOrder(t *testing.T) {
	// Newest first, as the list query returns them.
	flat := []models.Comment{
		flatComment(5, uintPtr(2)),
		flatComment(4, nil),
		flatComment(3, uintPtr(2)),
		flatComment(2, uintPtr(1)),
		flatComment(1, nil),
	}

	roots := BuildCommentTree(flat)
	if len(roots) != 2 || roots[0].ID != 4 || roots[1].ID != 1 {
		t.Fatalf("roots: got %d", len(roots))
	}
	if len(roots[0].Replies) != 0 {
		t.Errorf("comment 4 has no replies, got %d", len(roots[0].Replies))
	}

	one := roots[1]
	if len(one.Replies) != 1 || one.Replies[0].ID != 2 {
		t.Fatalf("comment 1 replies: got %+v", one.Replies)
	}
	two := one.Replies[0]
	if len(two.Replies) != 2 || two.Replies[0].ID != 5 || two.Replies[1].ID != 3 {
		t.Errorf("comment 2 replies should keep list order 5, 3")
	}
	if countNodes(roots) != len(flat) {
		t.Errorf("node count: got %d, want %d", countNodes(roots), len(flat))
	}
}

func TestBuildCommentTree_DropsOrphans(t *testing.T) {
	flat := []models.Comment{
		flatComment(3, uintPtr(2)),
		flatComment(2, uintPtr(99)),
		flatComment(1, nil),
	}

	roots := BuildCommentTree(flat)
	if len(roots) != 1 || roots[0].ID != 1 {
		t.Fatalf("roots: got %d", len(roots))
	}
	if countNodes(roots) != 1 {
		t.Errorf("orphan and its reply should be dropped, got %d nodes", countNodes(roots))
	}
}

func TestBuildCommentTree_Empty(t *testing.T) {
	roots := BuildCommentTree(nil)
	if roots == nil || len(roots) != 0 {
		t.Errorf("expected empty non-nil slice, got %#v", roots)
	}
}

func TestBuildCommentTree_DeepThread(t *testing.T) {
	flat := []models.Comment{flatComment(1, nil)}
	for id := uint(2); id <= 50; id++ {
		flat = append(flat, flatComment(id, uintPtr(id-1)))
	}

	roots := BuildCommentTree(flat)
	depth := 0
	for node := roots[0]; ; node = node.Replies[0] {
		depth++
		if len(node.Replies) == 0 {
			break
		}
	}
	if depth != 50 {
		t.Errorf("depth: got %d, want 50", depth)
	}
}
