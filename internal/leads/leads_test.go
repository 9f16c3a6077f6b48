package leads

import (
	"bytes"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/boddenberg/linkbio-api-go/internal/domain"
)

var t0 = time.Date(2025, 3, 10, 14, 30, 0, 0, time.UTC)

func TestTransition_AppendsHistory(t *testing.T) {
	l := &domain.Lead{Status: domain.LeadNovo}
	if err := Transition(l, domain.LeadContatado, " liguei ", t0); err != nil {
		t.Fatalf("Transition: %v", err)
	}
	first := l.History
	if err := Transition(l, domain.LeadFechado, "", t0.Add(time.Hour)); err != nil {
		t.Fatalf("Transition: %v", err)
	}
	if l.Status != domain.LeadFechado || len(l.History) != 2 {
		t.Fatalf("lead = %+v", l)
	}
	if h := l.History[0]; h.From != domain.LeadNovo || h.To != domain.LeadContatado || h.Note != "liguei" {
		t.Errorf("history[0] = %+v", h)
	}
	if h := l.History[1]; h.From != domain.LeadContatado || h.To != domain.LeadFechado {
		t.Errorf("history[1] = %+v", h)
	}
	if len(first) != 1 || first[0].To != domain.LeadContatado {
		t.Errorf("earlier history slice was modified: %+v", first)
	}
}

func TestTransition_Rejects(t *testing.T) {
	l := &domain.Lead{Status: domain.LeadNovo}
	var ve *domain.ErrValidation
	if err := Transition(l, "ganho", "", t0); !errors.As(err, &ve) {
		t.Errorf("unknown status err = %v", err)
	}
	if err := Transition(l, domain.LeadNovo, "", t0); !errors.As(err, &ve) {
		t.Errorf("same status err = %v", err)
	}
	if len(l.History) != 0 {
		t.Error("rejected transition appended history")
	}
}

func TestNewLeadAndNPS(t *testing.T) {
	if _, err := NewLead("c", "p", domain.LeadCaptureRequest{Name: "Ana"}, t0); err == nil {
		t.Error("lead without contact accepted")
	}
	l, err := NewLead("c", "p", domain.LeadCaptureRequest{Name: " Ana ", Contact: "11 9999"}, t0)
	if err != nil || l.Status != domain.LeadNovo || l.Origin != "perfil" || l.Name != "Ana" {
		t.Fatalf("lead = %+v, %v", l, err)
	}

	if _, err := NewNPS("c", "p", domain.NPSCaptureRequest{Score: 11}, t0); err == nil {
		t.Error("score 11 accepted")
	}
	n, err := NewNPS("c", "p", domain.NPSCaptureRequest{Score: 0}, t0)
	if err != nil || *n.Score != 0 || n.Kind != domain.LeadKindNPS || n.Name != "Anônimo" {
		t.Fatalf("nps = %+v, %v", n, err)
	}
}

func TestNPSScore(t *testing.T) {
	mk := func(s int) domain.Lead { return domain.Lead{Kind: domain.LeadKindNPS, Score: &s} }
	answers := []domain.Lead{mk(10), mk(9), mk(8), mk(3), {Kind: domain.LeadKindLead}}
	score, ok := NPSScore(answers)
	if !ok || score != 25 {
		t.Errorf("NPS = %d, %v; want 25", score, ok)
	}
	if _, ok := NPSScore(nil); ok {
		t.Error("NPS of nothing reported ok")
	}
}

func TestWriteCSV(t *testing.T) {
	score := 9
	rows := []domain.Lead{
		{Name: "Ana", Contact: "ana@x.com", Status: domain.LeadNovo, Origin: "perfil", Message: "Oi, tudo bem?", CreatedAt: t0},
		{Name: "Bia", Kind: domain.LeadKindNPS, Score: &score, Status: domain.LeadRespondido, Origin: "nps", Message: "ótimo", CreatedAt: t0},
	}
	var buf bytes.Buffer
	if err := WriteCSV(&buf, rows, time.UTC); err != nil {
		t.Fatalf("WriteCSV: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if lines[0] != "Name,Contact,Status,Origin,Date,Message" {
		t.Errorf("header = %q", lines[0])
	}
	if lines[1] != `Ana,ana@x.com,novo,perfil,10/03/2025 14:30,"Oi, tudo bem?"` {
		t.Errorf("row 1 = %q", lines[1])
	}
	if lines[2] != "Bia,,respondido,nps,10/03/2025 14:30,[9] ótimo" {
		t.Errorf("row 2 = %q", lines[2])
	}
}

func TestWriteCSV_NeutralisesFormulas(t *testing.T) {
	rows := []domain.Lead{
		{Name: `=HYPERLINK("http://evil","x")`, Contact: "+5511999999999", Status: domain.LeadNovo, Origin: "perfil", Message: "@SUM(A1)", CreatedAt: t0},
		{Name: "-2+3", Contact: "ana@x.com", Status: domain.LeadNovo, Origin: "perfil", CreatedAt: t0},
	}
	var buf bytes.Buffer
	if err := WriteCSV(&buf, rows, time.UTC); err != nil {
		t.Fatalf("WriteCSV: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	want := `"'=HYPERLINK(""http://evil"",""x"")",'+5511999999999,novo,perfil,10/03/2025 14:30,'@SUM(A1)`
	if lines[1] != want {
		t.Errorf("row 1 = %q, want %q", lines[1], want)
	}
	if !strings.HasPrefix(lines[2], "'-2+3,ana@x.com,") {
		t.Errorf("row 2 = %q", lines[2])
	}
}
