package dmh

import (
	"context"

	"dmhmr/internal/template"
	"dmhmr/internal/validate"
)

// Client is the submission surface exposed to workflow components. Submit is
// synchronous: one request, one acknowledgement per record.
type Client interface {
	// Login establishes a session. Safe to call more than once; an existing
	// session is reused.
	Login(ctx context.Context) error
	// Submit sends one record. A transport-level failure (including timeout)
	// returns an error; a well-formed rejection returns Success=false with
	// the upstream code and message.
	Submit(ctx context.Context, req Request) (Response, error)
}

// Request carries the header keys and validated fields for one record.
type Request struct {
	ClientID string             `json:"client_id"`
	AssetID  string             `json:"asset_id"`
	Group    string             `json:"group,omitempty"`
	Fund     string             `json:"fund,omitempty"`
	TypeTag  string             `json:"type"`
	Template string             `json:"template"`
	ExDate   string             `json:"ex_date"`
	PayDate  string             `json:"pay_date"`
	Fields   map[string]float64 `json:"fields"`
}

// Response is the upstream acknowledgement for one submission.
type Response struct {
	Success bool   `json:"success"`
	Code    string `json:"code"`
	Message string `json:"message,omitempty"`
}

const wireDateLayout = "2006-01-02"

// BuildRequest flattens a validated record into the wire request. Only
// numeric fields travel in the fields map; dates and identity keys have
// dedicated slots.
func BuildRequest(rec *validate.Record) Request {
	req := Request{
		ClientID: rec.Header.ClientID,
		AssetID:  rec.AssetID(),
		Group:    rec.Header.Group,
		Fund:     rec.Header.Fund,
		TypeTag:  rec.TypeTag,
		Template: rec.Template,
		ExDate:   rec.ExDate().Format(wireDateLayout),
		PayDate:  rec.PayDate().Format(wireDateLayout),
		Fields:   make(map[string]float64),
	}
	for name, v := range rec.Fields {
		if !v.Valid {
			continue
		}
		switch v.Type {
		case template.TypeDecimal, template.TypeCurrency:
			req.Fields[name] = v.Number
		}
	}
	return req
}
