package tracker

import (
	"context"
	"slices"
	"sort"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/rotisserie/eris"

	"github.com/sells-group/jmtracker/internal/model"
)

// UnknownDeadline labels postings whose deadline does not parse.
const UnknownDeadline = "Unknown"

// Filter selects postings for the interested, ignored and deadline views.
type Filter struct {
	Maybe   bool // include maybe
	Applied bool // include applied
	Expired bool // include postings whose deadline has passed
	SortBy  string
}

// DeadlineGroup is one row of the deadlines view.
type DeadlineGroup struct {
	Deadline string          `json:"deadline"`
	Count    int             `json:"count"`
	TimeLeft string          `json:"time_left"`
	Postings []model.Posting `json:"postings"`
}

// TimeLeft renders how far the deadline is from today, e.g. "3 days left"
// or "2 weeks ago".
func TimeLeft(deadline string, today time.Time) string {
	d, ok := model.ParseDate(deadline)
	if !ok {
		return "Unknown deadline"
	}
	return humanize.RelTime(d, today, "ago", "left")
}

// NewPostings returns postings awaiting triage.
func (s *Service) NewPostings(ctx context.Context) ([]model.Posting, error) {
	return s.view(ctx, Filter{SortBy: model.ColDeadline}, model.StatusNew)
}

// Interested returns interested postings, optionally with maybe and applied.
func (s *Service) Interested(ctx context.Context, f Filter) ([]model.Posting, error) {
	return s.view(ctx, f, trackedStatuses(f)...)
}

// Ignored returns ignored postings.
func (s *Service) Ignored(ctx context.Context, f Filter) ([]model.Posting, error) {
	return s.view(ctx, f, model.StatusIgnore)
}

// ByStatus returns every posting with status, including expired ones.
func (s *Service) ByStatus(ctx context.Context, status model.Status) ([]model.Posting, error) {
	return s.view(ctx, Filter{Expired: true, SortBy: model.ColDeadline}, status)
}

// Deadlines groups interested postings by calendar deadline. Unknown
// deadlines come last.
func (s *Service) Deadlines(ctx context.Context, f Filter) ([]DeadlineGroup, error) {
	postings, err := s.view(ctx, f, trackedStatuses(f)...)
	if err != nil {
		return nil, err
	}
	today := s.today()

	byDay := make(map[string]*DeadlineGroup)
	var order []string
	for _, p := range postings {
		day := UnknownDeadline
		if d, ok := model.ParseDate(p.Deadline); ok {
			day = d.Format(model.DateLayout)
		}
		g, ok := byDay[day]
		if !ok {
			g = &DeadlineGroup{Deadline: day, TimeLeft: TimeLeft(day, today)}
			byDay[day] = g
			order = append(order, day)
		}
		g.Count++
		g.Postings = append(g.Postings, p)
	}

	sort.Slice(order, func(i, j int) bool {
		if order[i] == UnknownDeadline || order[j] == UnknownDeadline {
			return order[j] == UnknownDeadline && order[i] != UnknownDeadline
		}
		return order[i] < order[j]
	})
	groups := make([]DeadlineGroup, 0, len(order))
	for _, day := range order {
		groups = append(groups, *byDay[day])
	}
	return groups, nil
}

// Applications returns applied postings sorted by institution. Unless
// resolved is set, applications with a final outcome are hidden. Applied
// postings missing application fields are initialized and saved.
func (s *Service) Applications(ctx context.Context, resolved bool) ([]model.Posting, error) {
	postings, err := s.postings(ctx)
	if err != nil {
		return nil, err
	}

	changed := false
	var out []model.Posting
	for i := range postings {
		p := &postings[i]
		if p.Status != model.StatusApplied {
			continue
		}
		if s.initApplication(p) {
			changed = true
		}
		if !resolved && p.ApplicationStatus.Resolved() {
			continue
		}
		out = append(out, *p)
	}
	if changed {
		if err := s.store.SavePostings(ctx, postings); err != nil {
			return nil, eris.Wrap(err, "tracker: initialize applications")
		}
	}
	if len(out) == 0 {
		return nil, eris.Wrap(ErrNoPostings, "no postings are marked as applied")
	}
	sortPostings(out, model.ColInstitution)
	return out, nil
}

func trackedStatuses(f Filter) []model.Status {
	statuses := []model.Status{model.StatusInterested}
	if f.Maybe {
		statuses = append(statuses, model.StatusMaybe)
	}
	if f.Applied {
		statuses = append(statuses, model.StatusApplied)
	}
	return statuses
}

func (s *Service) view(ctx context.Context, f Filter, statuses ...model.Status) ([]model.Posting, error) {
	postings, err := s.postings(ctx)
	if err != nil {
		return nil, err
	}
	today := s.today()

	var out []model.Posting
	for _, p := range postings {
		if !slices.Contains(statuses, p.Status) {
			continue
		}
		if !f.Expired && expired(p.Deadline, today) {
			continue
		}
		out = append(out, p)
	}
	if len(out) == 0 {
		return nil, eris.Wrapf(ErrNoPostings, "no postings with status %v", statuses)
	}
	sortPostings(out, f.SortBy)
	return out, nil
}

func expired(deadline string, today time.Time) bool {
	d, ok := model.ParseDate(deadline)
	return ok && d.Before(today)
}

// sortPostings orders postings by column. Deadlines sort by date with
// unknown deadlines last; other columns sort case-insensitively.
func sortPostings(postings []model.Posting, col string) {
	if col == "" {
		col = model.ColDeadline
	}
	sort.SliceStable(postings, func(i, j int) bool {
		if col == model.ColDeadline {
			di, oki := model.ParseDate(postings[i].Deadline)
			dj, okj := model.ParseDate(postings[j].Deadline)
			if oki != okj {
				return oki
			}
			return di.Before(dj)
		}
		a, _ := postings[i].Get(col)
		b, _ := postings[j].Get(col)
		return strings.ToLower(a) < strings.ToLower(b)
	})
}
