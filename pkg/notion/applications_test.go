package notion

import (
	"context"
	"testing"
	"time"

	"github.com/jomei/notionapi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/jmtracker/internal/model"
)

func applied(id string) model.Posting {
	return model.Posting{
		Origin: "EJM", OriginID: id, Title: "Assistant Professor", Institution: "Rice",
		Deadline: "2024-11-15", URL: "https://econjobmarket.org/positions/view/" + id,
		Status: model.StatusApplied, ApplicationStatus: model.AppGotInterview, LettersStatus: "2/3",
	}
}

func TestApplicationProperties(t *testing.T) {
	p := applied("7")
	props := applicationProperties(&p)

	title := props[PropName].(notionapi.TitleProperty)
	assert.Equal(t, "Rice - Assistant Professor", title.Title[0].Text.Content)
	assert.Equal(t, "got interview", props[PropStatus].(notionapi.StatusProperty).Status.Name)
	assert.Equal(t, "EJM/7", richText(props[PropKey]))
	assert.Equal(t, "2/3", richText(props[PropLetters]))

	date := props[PropDeadline].(notionapi.DateProperty)
	assert.Equal(t, time.Date(2024, 11, 15, 0, 0, 0, 0, time.UTC), time.Time(*date.Date.Start))

	p.Deadline = "rolling"
	p.URL = ""
	props = applicationProperties(&p)
	assert.NotContains(t, props, PropDeadline)
	assert.NotContains(t, props, PropURL)
}

func TestPushApplications_CreatesAndUpdates(t *testing.T) {
	mc := new(MockClient)
	ctx := context.Background()

	mc.On("QueryDatabase", ctx, "db-apps", mock.Anything).Return(&notionapi.DatabaseQueryResponse{
		Results: []notionapi.Page{{
			ID: "page-1",
			Properties: notionapi.Properties{
				PropKey: &notionapi.RichTextProperty{RichText: []notionapi.RichText{{PlainText: "EJM/1"}}},
			},
		}},
	}, nil).Once()
	mc.On("UpdatePage", ctx, "page-1", mock.AnythingOfType("*notionapi.PageUpdateRequest")).
		Return(&notionapi.Page{ID: "page-1"}, nil).Once()
	mc.On("CreatePage", ctx, mock.MatchedBy(func(req *notionapi.PageCreateRequest) bool {
		return req.Parent.DatabaseID == "db-apps" && richText(req.Properties[PropKey]) == "EJM/2"
	})).Return(&notionapi.Page{ID: "page-2"}, nil).Once()

	interested := applied("3")
	interested.Status = model.StatusInterested

	res, err := PushApplications(ctx, mc, "db-apps", []model.Posting{applied("1"), applied("2"), interested})
	require.NoError(t, err)
	assert.Equal(t, PushResult{Created: 1, Updated: 1}, res)
	mc.AssertExpectations(t)
}

func TestPushApplications_CreateError(t *testing.T) {
	mc := new(MockClient)
	ctx := context.Background()

	mc.On("QueryDatabase", ctx, "db-apps", mock.Anything).Return(&notionapi.DatabaseQueryResponse{}, nil).Once()
	mc.On("CreatePage", ctx, mock.Anything).Return(nil, assert.AnError).Once()

	res, err := PushApplications(ctx, mc, "db-apps", []model.Posting{applied("1")})
	assert.Error(t, err)
	assert.Zero(t, res.Created)
}
