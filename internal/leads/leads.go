// Package leads holds the lead/NPS pipeline rules and the CSV export.
package leads

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/boddenberg/linkbio-api-go/internal/domain"
)

// CSVHeader is the export column order.
var CSVHeader = []string{"Name", "Contact", "Status", "Origin", "Date", "Message"}

// DateLayout formats the Date column.
const DateLayout = "02/01/2006 15:04"

var statuses = []domain.LeadStatus{
	domain.LeadNovo, domain.LeadContatado, domain.LeadNegociando, domain.LeadFechado,
	domain.LeadPerdido, domain.LeadRespondido, domain.LeadArquivado,
}

// Statuses returns every pipeline status in display order.
func Statuses() []domain.LeadStatus {
	return append([]domain.LeadStatus(nil), statuses...)
}

// ValidStatus reports whether s is a pipeline status.
func ValidStatus(s domain.LeadStatus) bool {
	for _, v := range statuses {
		if v == s {
			return true
		}
	}
	return false
}

// Transition moves a lead to a new status and appends a history entry.
// Earlier entries are never touched.
func Transition(l *domain.Lead, to domain.LeadStatus, note string, at time.Time) error {
	if !ValidStatus(to) {
		return &domain.ErrValidation{Field: "status", Message: fmt.Sprintf("unknown status %q", to)}
	}
	if to == l.Status {
		return &domain.ErrValidation{Field: "status", Message: "lead already has this status"}
	}
	entry := domain.LeadHistoryEntry{At: at.UTC(), From: l.Status, To: to, Note: strings.TrimSpace(note)}
	history := make([]domain.LeadHistoryEntry, len(l.History), len(l.History)+1)
	copy(history, l.History)
	l.History = append(history, entry)
	l.Status = to
	return nil
}

// NewLead builds a lead from the public form.
func NewLead(clientID, profileID string, req domain.LeadCaptureRequest, at time.Time) (*domain.Lead, error) {
	name := strings.TrimSpace(req.Name)
	contact := strings.TrimSpace(req.Contact)
	if name == "" {
		return nil, &domain.ErrValidation{Field: "name", Message: "is required"}
	}
	if contact == "" {
		return nil, &domain.ErrValidation{Field: "contact", Message: "is required"}
	}
	if len([]rune(req.Message)) > 2000 {
		return nil, &domain.ErrValidation{Field: "message", Message: "must be at most 2000 characters"}
	}
	origin := strings.TrimSpace(req.Origin)
	if origin == "" {
		origin = "perfil"
	}
	return &domain.Lead{
		ClientID:  clientID,
		ProfileID: profileID,
		Kind:      domain.LeadKindLead,
		Name:      name,
		Contact:   contact,
		Message:   strings.TrimSpace(req.Message),
		Origin:    origin,
		Status:    domain.LeadNovo,
		History:   []domain.LeadHistoryEntry{},
		CreatedAt: at.UTC(),
	}, nil
}

// NewNPS builds an NPS answer. Score must be 0..10.
func NewNPS(clientID, profileID string, req domain.NPSCaptureRequest, at time.Time) (*domain.Lead, error) {
	if req.Score < 0 || req.Score > 10 {
		return nil, &domain.ErrValidation{Field: "score", Message: "must be between 0 and 10"}
	}
	score := req.Score
	name := strings.TrimSpace(req.Name)
	if name == "" {
		name = "Anônimo"
	}
	return &domain.Lead{
		ClientID:  clientID,
		ProfileID: profileID,
		Kind:      domain.LeadKindNPS,
		Name:      name,
		Contact:   strings.TrimSpace(req.Contact),
		Message:   strings.TrimSpace(req.Comment),
		Score:     &score,
		Origin:    "nps",
		Status:    domain.LeadNovo,
		History:   []domain.LeadHistoryEntry{},
		CreatedAt: at.UTC(),
	}, nil
}

// NPSScore is the net promoter score of a set of answers: % promoters (9-10)
// minus % detractors (0-6), rounded toward zero. ok is false without answers.
func NPSScore(answers []domain.Lead) (score int, ok bool) {
	var total, promoters, detractors int
	for _, a := range answers {
		if a.Kind != domain.LeadKindNPS || a.Score == nil {
			continue
		}
		total++
		switch {
		case *a.Score >= 9:
			promoters++
		case *a.Score <= 6:
			detractors++
		}
	}
	if total == 0 {
		return 0, false
	}
	return (promoters - detractors) * 100 / total, true
}

// WriteCSV writes the export with the fixed header. Dates use loc.
func WriteCSV(w io.Writer, leads []domain.Lead, loc *time.Location) error {
	if loc == nil {
		loc = time.UTC
	}
	cw := csv.NewWriter(w)
	if err := cw.Write(CSVHeader); err != nil {
		return err
	}
	for _, l := range leads {
		msg := l.Message
		if l.Kind == domain.LeadKindNPS && l.Score != nil {
			msg = strings.TrimSpace("[" + strconv.Itoa(*l.Score) + "] " + msg)
		}
		rec := []string{
			csvCell(l.Name),
			csvCell(l.Contact),
			string(l.Status),
			csvCell(l.Origin),
			l.CreatedAt.In(loc).Format(DateLayout),
			csvCell(msg),
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// csvCell neutralises values that spreadsheets would evaluate as formulas.
func csvCell(v string) string {
	if v != "" && strings.IndexByte("=+-@\t\r", v[0]) >= 0 {
		return "'" + v
	}
	return v
}
