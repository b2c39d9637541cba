package notionclient

import (
	"context"
	"fmt"

	"github.com/jomei/notionapi"
)

// batchSize is the max number of blocks appended per request.
const batchSize = 100

// GetChildBlocks fetches the direct children of a page or block,
// following pagination cursors until exhausted. It does not recurse
// into nested children — callers needing the full tree call it again
// on child block IDs as needed.
func (c *Client) GetChildBlocks(ctx context.Context, parentID string) ([]notionapi.Block, error) {
	var all []notionapi.Block
	var cursor notionapi.Cursor

	for {
		var results []notionapi.Block
		var hasMore bool
		var nextCursor notionapi.Cursor

		err := withRetry(ctx, c.limiter, func() error {
			resp, err := c.api.Block.GetChildren(ctx, notionapi.BlockID(parentID), &notionapi.Pagination{
				StartCursor: cursor,
				PageSize:    100,
			})
			if err != nil {
				return fmt.Errorf("get children of %s: %w", parentID, err)
			}
			results = resp.Results
			hasMore = resp.HasMore
			nextCursor = notionapi.Cursor(resp.NextCursor)
			return nil
		})
		if err != nil {
			return nil, err
		}

		all = append(all, results...)
		if !hasMore {
			break
		}
		cursor = nextCursor
	}

	return all, nil
}

// AppendBlocks appends blocks to parentID in batches of batchSize.
func (c *Client) AppendBlocks(ctx context.Context, parentID string, blocks []notionapi.Block) error {
	for i := 0; i < len(blocks); i += batchSize {
		end := i + batchSize
		if end > len(blocks) {
			end = len(blocks)
		}
		batch := blocks[i:end]

		err := withRetry(ctx, c.limiter, func() error {
			_, err := c.api.Block.AppendChildren(ctx, notionapi.BlockID(parentID), &notionapi.AppendBlockChildrenRequest{
				Children: batch,
			})
			if err != nil {
				return fmt.Errorf("append blocks %d-%d to %s: %w", i, end, parentID, err)
			}
			return nil
		})
		if err != nil {
			return err
		}
	}
	return nil
}

// DeleteBlock deletes a single block by ID.
func (c *Client) DeleteBlock(ctx context.Context, blockID string) error {
	return withRetry(ctx, c.limiter, func() error {
		_, err := c.api.Block.Delete(ctx, notionapi.BlockID(blockID))
		if err != nil {
			return fmt.Errorf("delete block %s: %w", blockID, err)
		}
		return nil
	})
}

// ReplaceBlocks implements the delete-then-append full-replace update
// strategy: it deletes every existing child of parentID, then appends
// the new block set.
func (c *Client) ReplaceBlocks(ctx context.Context, parentID string, blocks []notionapi.Block) error {
	existing, err := c.GetChildBlocks(ctx, parentID)
	if err != nil {
		return fmt.Errorf("list existing blocks of %s: %w", parentID, err)
	}

	for _, block := range existing {
		id := blockID(block)
		if id == "" {
			continue
		}
		if err := c.DeleteBlock(ctx, id); err != nil {
			return err
		}
	}

	return c.AppendBlocks(ctx, parentID, blocks)
}

// GetBlockTree fetches pageID's children and recursively resolves any
// nested children, so the returned blocks carry their full subtree —
// grounded on the teacher's GetAllBlocks recursion in internal/notion.
func (c *Client) GetBlockTree(ctx context.Context, pageID string) ([]notionapi.Block, error) {
	blocks, err := c.GetChildBlocks(ctx, pageID)
	if err != nil {
		return nil, err
	}

	for i, block := range blocks {
		if !blockHasChildren(block) {
			continue
		}
		id := blockID(block)
		if id == "" {
			continue
		}
		children, err := c.GetBlockTree(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("get nested blocks of %s: %w", id, err)
		}
		blocks[i] = setBlockChildren(block, children)
	}

	return blocks, nil
}

// blockHasChildren reports whether a block type may carry nested
// children that GetChildBlocks must be called again to retrieve.
func blockHasChildren(block notionapi.Block) bool {
	switch b := block.(type) {
	case *notionapi.ParagraphBlock:
		return b.HasChildren
	case *notionapi.BulletedListItemBlock:
		return b.HasChildren
	case *notionapi.NumberedListItemBlock:
		return b.HasChildren
	case *notionapi.ToDoBlock:
		return b.HasChildren
	case *notionapi.ToggleBlock:
		return b.HasChildren
	case *notionapi.QuoteBlock:
		return b.HasChildren
	case *notionapi.CalloutBlock:
		return b.HasChildren
	default:
		return false
	}
}

// setBlockChildren attaches children to a block that supports them.
func setBlockChildren(block notionapi.Block, children []notionapi.Block) notionapi.Block {
	switch b := block.(type) {
	case *notionapi.ParagraphBlock:
		b.Paragraph.Children = children
		return b
	case *notionapi.BulletedListItemBlock:
		b.BulletedListItem.Children = children
		return b
	case *notionapi.NumberedListItemBlock:
		b.NumberedListItem.Children = children
		return b
	case *notionapi.ToDoBlock:
		b.ToDo.Children = children
		return b
	case *notionapi.ToggleBlock:
		b.Toggle.Children = children
		return b
	case *notionapi.QuoteBlock:
		b.Quote.Children = children
		return b
	case *notionapi.CalloutBlock:
		b.Callout.Children = children
		return b
	default:
		return block
	}
}

// ChildPageRef is a direct child page discovered under a parent.
type ChildPageRef struct {
	PageID string
	Title  string
}

// ListChildPages returns the direct child pages of parentID. Notion
// exposes sub-pages as child_page blocks rather than a query endpoint,
// so this filters GetChildBlocks for that block type.
func (c *Client) ListChildPages(ctx context.Context, parentID string) ([]ChildPageRef, error) {
	blocks, err := c.GetChildBlocks(ctx, parentID)
	if err != nil {
		return nil, err
	}

	var refs []ChildPageRef
	for _, block := range blocks {
		cp, ok := block.(*notionapi.ChildPageBlock)
		if !ok {
			continue
		}
		refs = append(refs, ChildPageRef{PageID: string(cp.ID), Title: cp.ChildPage.Title})
	}
	return refs, nil
}

// blockID extracts the ID from a notionapi.Block, returning "" for
// block types this client never emits or deletes.
func blockID(block notionapi.Block) string {
	switch b := block.(type) {
	case *notionapi.ParagraphBlock:
		return string(b.ID)
	case *notionapi.Heading1Block:
		return string(b.ID)
	case *notionapi.Heading2Block:
		return string(b.ID)
	case *notionapi.Heading3Block:
		return string(b.ID)
	case *notionapi.BulletedListItemBlock:
		return string(b.ID)
	case *notionapi.NumberedListItemBlock:
		return string(b.ID)
	case *notionapi.ToDoBlock:
		return string(b.ID)
	case *notionapi.QuoteBlock:
		return string(b.ID)
	case *notionapi.CodeBlock:
		return string(b.ID)
	case *notionapi.DividerBlock:
		return string(b.ID)
	case *notionapi.ImageBlock:
		return string(b.ID)
	case *notionapi.EquationBlock:
		return string(b.ID)
	case *notionapi.TableBlock:
		return string(b.ID)
	case *notionapi.TableRowBlock:
		return string(b.ID)
	case *notionapi.ChildPageBlock:
		return string(b.ID)
	default:
		return ""
	}
}
