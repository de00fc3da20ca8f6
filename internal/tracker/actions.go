package tracker

import (
	"context"
	"slices"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/jmtracker/internal/model"
)

// ManualOrigin is the origin of postings entered by hand.
const ManualOrigin = "manual entry"

// EditableFields are the canonical columns a user may edit in place.
var EditableFields = []string{
	model.ColTitle, model.ColInstitution, model.ColDivision, model.ColSection,
	model.ColDepartment, model.ColDeadline, model.ColLocation,
}

// SetStatus moves a posting to status. Entering applied initializes the
// application fields.
func (s *Service) SetStatus(ctx context.Context, key model.Key, status model.Status) (model.Posting, error) {
	return s.Update(ctx, key, func(p *model.Posting) error {
		if !p.Status.CanTransition(status) {
			return eris.Wrapf(ErrInvalidTransition, "cannot move %s from %q to %q", key, p.Status, status)
		}
		p.Status = status
		if status == model.StatusApplied {
			s.initApplication(p)
		}
		return nil
	})
}

// initApplication fills the post-application fields of an applied posting
// that lacks them. It reports whether anything changed.
func (s *Service) initApplication(p *model.Posting) bool {
	changed := false
	if p.ApplicationStatus == "" {
		p.ApplicationStatus = model.AppAwaitingResponse
		changed = true
	}
	if p.LettersReceived == "" && p.LettersStatus == "" {
		p.LettersStatus = model.LettersStatus(0, len(s.personal.LetterWriters))
		changed = true
	}
	return changed
}

// Triage applies the user's decisions on new postings in one write and
// marks them reviewed. Every key is resolved before anything is changed.
func (s *Service) Triage(ctx context.Context, decisions map[model.Key]model.Status) (int, error) {
	if len(decisions) == 0 {
		return 0, nil
	}
	postings, err := s.postings(ctx)
	if err != nil {
		return 0, err
	}

	for key, status := range decisions {
		i, err := Resolve(postings, key)
		if err != nil {
			return 0, err
		}
		p := &postings[i]
		if p.Status != model.StatusNew {
			return 0, eris.Errorf("%s is not a new posting (status %q)", key, p.Status)
		}
		if !p.Status.CanTransition(status) {
			return 0, eris.Errorf("cannot triage %s as %q", key, status)
		}
		p.Status = status
		p.Reviewed = true
	}

	if err := s.store.SavePostings(ctx, postings); err != nil {
		return 0, eris.Wrap(err, "tracker: save triage")
	}
	zap.L().Info("triaged new postings", zap.Int("count", len(decisions)))
	return len(decisions), nil
}

// EditFields edits descriptive fields and custom columns of a posting. The
// first deadline edit records the ingested deadline as original_deadline.
func (s *Service) EditFields(ctx context.Context, key model.Key, fields map[string]string) (model.Posting, error) {
	for col := range fields {
		if !slices.Contains(EditableFields, col) && !s.personal.HasCustomColumn(col) {
			return model.Posting{}, eris.Errorf("column %q is not editable", col)
		}
	}
	return s.Update(ctx, key, func(p *model.Posting) error {
		for col, v := range fields {
			if col == model.ColDeadline {
				if p.OriginalDeadline == nil {
					orig := p.Deadline
					p.OriginalDeadline = &orig
				}
				p.Deadline = model.NormalizeDate(v)
				continue
			}
			if err := p.Set(col, strings.TrimSpace(v)); err != nil {
				return err
			}
		}
		return nil
	})
}

// SetNotes replaces the user's notes on a posting.
func (s *Service) SetNotes(ctx context.Context, key model.Key, notes string) (model.Posting, error) {
	return s.Update(ctx, key, func(p *model.Posting) error {
		p.Notes = notes
		return nil
	})
}

// Progress advances an application to its next positive state.
func (s *Service) Progress(ctx context.Context, key model.Key) (model.Posting, error) {
	return s.ApplyAction(ctx, key, model.ActionProgress)
}

// Interrupt moves an application to the negative outcome of its state.
func (s *Service) Interrupt(ctx context.Context, key model.Key) (model.Posting, error) {
	return s.ApplyAction(ctx, key, model.ActionInterrupt)
}

// Regress undoes the last positive step of an application.
func (s *Service) Regress(ctx context.Context, key model.Key) (model.Posting, error) {
	return s.ApplyAction(ctx, key, model.ActionRegress)
}

// ApplyAction runs an application action on an applied posting.
func (s *Service) ApplyAction(ctx context.Context, key model.Key, action model.ApplicationAction) (model.Posting, error) {
	return s.Update(ctx, key, func(p *model.Posting) error {
		if p.Status != model.StatusApplied {
			return eris.Errorf("%s has not been applied to", key)
		}
		s.initApplication(p)
		next, err := p.ApplicationStatus.Apply(action)
		if err != nil {
			return err
		}
		p.ApplicationStatus = next
		return nil
	})
}

// SetLetters records which letter writers have sent their letters.
func (s *Service) SetLetters(ctx context.Context, key model.Key, received []string) (model.Posting, error) {
	writers := s.personal.LetterWriters
	if len(writers) == 0 {
		return model.Posting{}, eris.New("no letter writers are configured")
	}
	names := make([]string, 0, len(received))
	for _, r := range received {
		r = strings.TrimSpace(r)
		if r == "" || slices.Contains(names, r) {
			continue
		}
		if !s.personal.HasWriter(r) {
			return model.Posting{}, eris.Errorf("%q is not a configured letter writer", r)
		}
		names = append(names, r)
	}
	slices.Sort(names)

	return s.Update(ctx, key, func(p *model.Posting) error {
		if p.Status != model.StatusApplied {
			return eris.Errorf("%s has not been applied to", key)
		}
		p.LettersReceived = strings.Join(names, ",")
		p.LettersStatus = model.LettersStatus(len(names), len(writers))
		return nil
	})
}

// ManualEntry appends a hand-entered posting under ManualOrigin. Ids count
// up from 0.
func (s *Service) ManualEntry(ctx context.Context, fields map[string]string) (model.Posting, error) {
	written, err := s.store.PostingsWritten(ctx)
	if err != nil {
		return model.Posting{}, err
	}
	var postings []model.Posting
	if written {
		if postings, err = s.store.LoadPostings(ctx); err != nil {
			return model.Posting{}, err
		}
	}

	next := 0
	for i := range postings {
		if postings[i].Origin != ManualOrigin {
			continue
		}
		if n, err := strconv.Atoi(postings[i].OriginID); err == nil && n >= next {
			next = n + 1
		}
	}

	p := model.Posting{
		Origin:       ManualOrigin,
		OriginID:     strconv.Itoa(next),
		Title:        "no title",
		Institution:  "unknown",
		Department:   "unknown",
		DateReceived: s.today().Format(model.DateLayout),
		Status:       model.StatusInterested,
		Reviewed:     true,
	}
	for col, v := range fields {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		if col == model.ColDeadline {
			p.Deadline = model.NormalizeDate(v)
			continue
		}
		if col != model.ColURL && col != model.ColKeywords && !slices.Contains(EditableFields, col) && !s.personal.HasCustomColumn(col) {
			return model.Posting{}, eris.Errorf("column %q cannot be set on a manual entry", col)
		}
		if err := p.Set(col, v); err != nil {
			return model.Posting{}, err
		}
	}
	for _, col := range s.personal.CustomColumns {
		if _, ok := p.Extra[col]; !ok {
			_ = p.Set(col, "")
		}
	}

	if err := s.store.SavePostings(ctx, append(postings, p)); err != nil {
		return model.Posting{}, eris.Wrap(err, "tracker: save manual entry")
	}
	zap.L().Info("added manual posting", zap.String("origin_id", p.OriginID))
	return p, nil
}
