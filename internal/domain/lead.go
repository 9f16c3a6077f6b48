package domain

import "time"

// ============================================================
// Leads & NPS: captured by public forms
// ============================================================

// LeadStatus is the pipeline stage of a lead or NPS answer.
type LeadStatus string

const (
	LeadNovo       LeadStatus = "novo"
	LeadContatado  LeadStatus = "contatado"
	LeadNegociando LeadStatus = "negociando"
	LeadFechado    LeadStatus = "fechado"
	LeadPerdido    LeadStatus = "perdido"
	LeadRespondido LeadStatus = "respondido"
	LeadArquivado  LeadStatus = "arquivado"
)

const (
	LeadKindLead = "lead"
	LeadKindNPS  = "nps"
)

// LeadHistoryEntry is one append-only status change.
type LeadHistoryEntry struct {
	At   time.Time  `json:"at"`
	From LeadStatus `json:"from"`
	To   LeadStatus `json:"to"`
	Note string     `json:"note,omitempty"`
}

// Lead is a contact request or NPS answer.
type Lead struct {
	ID        string             `json:"id"`
	ClientID  string             `json:"clientId"`
	ProfileID string             `json:"profileId"`
	Kind      string             `json:"kind"`
	Name      string             `json:"name"`
	Contact   string             `json:"contact"`
	Message   string             `json:"message"`
	Score     *int               `json:"score,omitempty"`
	Origin    string             `json:"origin"`
	Status    LeadStatus         `json:"status"`
	History   []LeadHistoryEntry `json:"history"`
	CreatedAt time.Time          `json:"createdAt"`
}

// LeadCaptureRequest is the public lead form body.
type LeadCaptureRequest struct {
	Name    string `json:"name"`
	Contact string `json:"contact"`
	Message string `json:"message"`
	Origin  string `json:"origin"`
}

// NPSCaptureRequest is the public NPS form body.
type NPSCaptureRequest struct {
	Name    string `json:"name"`
	Contact string `json:"contact"`
	Score   int    `json:"score"`
	Comment string `json:"comment"`
}

// LeadStatusRequest is the body for PATCH /v1/leads/{id}/status.
type LeadStatusRequest struct {
	Status LeadStatus `json:"status"`
	Note   string     `json:"note"`
}
