package notion

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jomei/notionapi"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/jmtracker/internal/model"
)

// Property names of the applications database.
const (
	PropName     = "Name"
	PropStatus   = "Status"
	PropDeadline = "Deadline"
	PropURL      = "URL"
	PropLetters  = "Letters"
	PropKey      = "Key"
)

// PushResult counts the pages written by PushApplications.
type PushResult struct {
	Created int `json:"created"`
	Updated int `json:"updated"`
}

// PushApplications upserts one page per applied posting, matching existing
// pages on the Key property.
func PushApplications(ctx context.Context, c Client, dbID string, postings []model.Posting) (PushResult, error) {
	var res PushResult
	pages, err := QueryAll(ctx, c, dbID, nil)
	if err != nil {
		return res, eris.Wrap(err, "notion: load existing applications")
	}
	existing := make(map[string]string, len(pages))
	for _, p := range pages {
		if k := richText(p.Properties[PropKey]); k != "" {
			existing[k] = string(p.ID)
		}
	}

	for i := range postings {
		p := &postings[i]
		if p.Status != model.StatusApplied {
			continue
		}
		props := applicationProperties(p)
		key := p.Key().String()

		if pageID, ok := existing[key]; ok {
			if _, err := c.UpdatePage(ctx, pageID, &notionapi.PageUpdateRequest{Properties: props}); err != nil {
				return res, eris.Wrapf(err, "notion: update %s", key)
			}
			res.Updated++
			continue
		}

		page, err := c.CreatePage(ctx, &notionapi.PageCreateRequest{
			Parent: notionapi.Parent{
				Type:       notionapi.ParentTypeDatabaseID,
				DatabaseID: notionapi.DatabaseID(dbID),
			},
			Properties: props,
		})
		if err != nil {
			return res, eris.Wrapf(err, "notion: create %s", key)
		}
		existing[key] = string(page.ID)
		res.Created++
	}

	zap.L().Info("pushed applications to notion",
		zap.String("database_id", dbID),
		zap.Int("created", res.Created),
		zap.Int("updated", res.Updated),
	)
	return res, nil
}

// applicationProperties converts a posting to page properties. The deadline
// is a date property when it parses and is omitted otherwise.
func applicationProperties(p *model.Posting) notionapi.Properties {
	props := notionapi.Properties{
		PropName: notionapi.TitleProperty{
			Type:  notionapi.PropertyTypeTitle,
			Title: textBlock(fmt.Sprintf("%s - %s", p.Institution, p.Title)),
		},
		PropStatus: notionapi.StatusProperty{
			Status: notionapi.Status{Name: string(p.ApplicationStatus)},
		},
		PropLetters: notionapi.RichTextProperty{
			Type:     notionapi.PropertyTypeRichText,
			RichText: textBlock(p.LettersStatus),
		},
		PropKey: notionapi.RichTextProperty{
			Type:     notionapi.PropertyTypeRichText,
			RichText: textBlock(p.Key().String()),
		},
	}
	if p.URL != "" {
		props[PropURL] = notionapi.URLProperty{Type: notionapi.PropertyTypeURL, URL: p.URL}
	}
	if d, ok := model.ParseDate(p.Deadline); ok {
		start := notionapi.Date(time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, time.UTC))
		props[PropDeadline] = notionapi.DateProperty{
			Type: notionapi.PropertyTypeDate,
			Date: &notionapi.DateObject{Start: &start},
		}
	}
	return props
}

func textBlock(s string) []notionapi.RichText {
	return []notionapi.RichText{{Type: notionapi.ObjectTypeText, Text: &notionapi.Text{Content: s}}}
}

// richText flattens a rich text property read back from the API.
func richText(prop notionapi.Property) string {
	var parts []notionapi.RichText
	switch v := prop.(type) {
	case *notionapi.RichTextProperty:
		parts = v.RichText
	case notionapi.RichTextProperty:
		parts = v.RichText
	default:
		return ""
	}
	var b strings.Builder
	for _, rt := range parts {
		b.WriteString(rt.PlainText)
		if rt.PlainText == "" && rt.Text != nil {
			b.WriteString(rt.Text.Content)
		}
	}
	return b.String()
}
