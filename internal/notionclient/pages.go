package notionclient

import (
	"context"
	"fmt"

	"github.com/jomei/notionapi"
)

// RetrievePage fetches a page's properties and metadata by ID.
func (c *Client) RetrievePage(ctx context.Context, pageID string) (*notionapi.Page, error) {
	var page *notionapi.Page
	err := withRetry(ctx, c.limiter, func() error {
		p, err := c.api.Page.Get(ctx, notionapi.PageID(pageID))
		if err != nil {
			return fmt.Errorf("retrieve page %s: %w", pageID, err)
		}
		page = p
		return nil
	})
	return page, err
}

// GetLastEditedTime fetches only the page's last-edited timestamp, for
// change detection without pulling the full block tree.
func (c *Client) GetLastEditedTime(ctx context.Context, pageID string) (string, error) {
	page, err := c.RetrievePage(ctx, pageID)
	if err != nil {
		return "", err
	}
	return page.LastEditedTime.String(), nil
}

// EmojiIcon builds a page Icon from a single emoji, for marking
// directory pages created by CreateChildPage (spec §4.5).
func EmojiIcon(emoji string) *notionapi.Icon {
	e := notionapi.Emoji(emoji)
	return &notionapi.Icon{Type: "emoji", Emoji: &e}
}

// CreateChildPage creates pageID as a child of parentPageID with the
// given title, icon, and block children, remapping the title property
// since Notion requires page-parented pages to use the "title" key.
// icon may be nil, in which case the new page gets no icon.
func (c *Client) CreateChildPage(ctx context.Context, parentPageID, title string, icon *notionapi.Icon, children []notionapi.Block) (*notionapi.Page, error) {
	var created *notionapi.Page
	err := withRetry(ctx, c.limiter, func() error {
		p, err := c.api.Page.Create(ctx, &notionapi.PageCreateRequest{
			Parent: notionapi.Parent{
				Type:   notionapi.ParentTypePageID,
				PageID: notionapi.PageID(parentPageID),
			},
			Properties: notionapi.Properties{
				"title": notionapi.TitleProperty{
					Title: []notionapi.RichText{
						{Type: notionapi.ObjectTypeText, Text: &notionapi.Text{Content: title}},
					},
				},
			},
			Icon: icon,
		})
		if err != nil {
			return fmt.Errorf("create child page under %s: %w", parentPageID, err)
		}
		created = p
		return nil
	})
	if err != nil {
		return nil, err
	}

	if err := c.AppendBlocks(ctx, string(created.ID), children); err != nil {
		return created, fmt.Errorf("append blocks to new page %s: %w", created.ID, err)
	}
	return created, nil
}

// UpdatePageTitle sets a page's title property.
func (c *Client) UpdatePageTitle(ctx context.Context, pageID, title string) error {
	return withRetry(ctx, c.limiter, func() error {
		_, err := c.api.Page.Update(ctx, notionapi.PageID(pageID), &notionapi.PageUpdateRequest{
			Properties: notionapi.Properties{
				"title": notionapi.TitleProperty{
					Title: []notionapi.RichText{
						{Type: notionapi.ObjectTypeText, Text: &notionapi.Text{Content: title}},
					},
				},
			},
		})
		if err != nil {
			return fmt.Errorf("update page title %s: %w", pageID, err)
		}
		return nil
	})
}

// ArchivePage archives a page. Notion's API has no permanent-delete
// endpoint; archived pages land in trash.
func (c *Client) ArchivePage(ctx context.Context, pageID string) error {
	return withRetry(ctx, c.limiter, func() error {
		_, err := c.api.Page.Update(ctx, notionapi.PageID(pageID), &notionapi.PageUpdateRequest{
			Properties: notionapi.Properties{},
			Archived:   true,
		})
		if err != nil {
			return fmt.Errorf("archive page %s: %w", pageID, err)
		}
		return nil
	})
}

// FindChildPageByTitle searches parentPageID's direct child pages for
// one whose title matches exactly, returning its ID.
func (c *Client) FindChildPageByTitle(ctx context.Context, parentPageID, title string) (string, bool, error) {
	refs, err := c.ListChildPages(ctx, parentPageID)
	if err != nil {
		return "", false, err
	}
	for _, ref := range refs {
		if ref.Title == title {
			return ref.PageID, true, nil
		}
	}
	return "", false, nil
}
