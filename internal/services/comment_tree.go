package services

import "github.com/princeprakhar/marketplace-backend/internal/models"

// BuildCommentTree threads a flat comment list. Roots and replies keep the order they had
// in comments. A comment whose parent is not in the list is dropped together with its replies.
func BuildCommentTree(comments []models.Comment) []*CommentNode {
	nodes := make(map[uint]*CommentNode, len(comments))
	for i := range comments {
		nodes[comments[i].ID] = newCommentNode(&comments[i])
	}

	roots := make([]*CommentNode, 0)
	for i := range comments {
		node := nodes[comments[i].ID]
		if node.ParentID == nil {
			roots = append(roots, node)
			continue
		}
		if parent, ok := nodes[*node.ParentID]; ok && parent != node {
			parent.Replies = append(parent.Replies, node)
		}
	}
	return roots
}
