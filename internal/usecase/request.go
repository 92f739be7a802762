package usecase

import (
	"strings"

	"github.com/memberdesk/backend/internal/domain"
)

// Operation names a dispatcher entry point.
type Operation string

const (
	OpMemberFind         Operation = "member.find"
	OpMemberRegister     Operation = "member.register"
	OpMemberSave         Operation = "member.save"
	OpMemberUpdate       Operation = "member.update"
	OpMemberDelete       Operation = "member.delete"
	OpOrderFind          Operation = "order.find"
	OpOrderRegister      Operation = "order.register"
	OpOrderUpdate        Operation = "order.update"
	OpOrderDelete        Operation = "order.delete"
	OpOrderProxy         Operation = "order.proxy"
	OpMemoSave           Operation = "memo.save"
	OpMemoSearch         Operation = "memo.search"
	OpCommissionFind     Operation = "commission.find"
	OpCommissionRegister Operation = "commission.register"
	OpCommissionUpdate   Operation = "commission.update"
	OpCommissionDelete   Operation = "commission.delete"
	OpCommand            Operation = "command"
)

// TextKeys are the payload keys carrying free text, in priority order.
var TextKeys = []string{"text", "query", "요청문"}

// Upload is an attached file.
type Upload struct {
	Data        []byte
	ContentType string
}

// Request is an inbound payload: decoded JSON or form fields plus an
// optional file.
type Request struct {
	Fields map[string]interface{}
	File   *Upload
}

// Shape is the request shape decided once by DetectMode. It is one of
// TextShape, StructuredShape, FileShape or InvalidShape.
type Shape interface {
	mode() string
}

// TextShape carries free text; Fields may add identifiers (mixed mode).
type TextShape struct {
	Text   string
	Fields map[string]interface{}
}

// StructuredShape carries field values keyed by column name.
type StructuredShape struct {
	Fields map[string]interface{}
}

// FileShape carries an image, either uploaded or by URL.
type FileShape struct {
	Upload *Upload
	URL    string
	Fields map[string]interface{}
}

// InvalidShape is a payload no mode accepts.
type InvalidShape struct {
	Reason string
}

func (TextShape) mode() string       { return "text" }
func (StructuredShape) mode() string { return "structured" }
func (FileShape) mode() string       { return "file" }
func (InvalidShape) mode() string    { return "invalid" }

func fieldKeys(fields []domain.Field) []string {
	out := make([]string, len(fields))
	for i, f := range fields {
		out[i] = string(f)
	}
	return out
}

// identifyingKeys lists, per operation, the keys whose presence makes a
// payload structured. A nil entry accepts any non-empty payload; a missing
// entry means the operation takes text only.
var identifyingKeys = map[Operation][]string{
	OpMemberFind:         append(fieldKeys(domain.MemberColumns), "limit", "offset"),
	OpMemberRegister:     {string(domain.FieldName), string(domain.FieldMemberNumber)},
	OpMemberSave:         {string(domain.FieldName)},
	OpMemberUpdate:       {string(domain.FieldName), string(domain.FieldMemberNumber)},
	OpMemberDelete:       {string(domain.FieldName), string(domain.FieldMemberNumber)},
	OpOrderFind:          {string(domain.FieldName), string(domain.FieldProduct)},
	OpOrderRegister:      {string(domain.FieldName), string(domain.FieldProduct), "orders"},
	OpOrderUpdate:        {string(domain.FieldName)},
	OpOrderDelete:        {string(domain.FieldName)},
	OpOrderProxy:         nil,
	OpMemoSave:           {string(domain.FieldName), string(domain.FieldLogType), string(domain.FieldContent)},
	OpMemoSearch:         {"sheet", "keywords", "member_name"},
	OpCommissionFind:     {string(domain.FieldName)},
	OpCommissionRegister: {string(domain.FieldName)},
	OpCommissionUpdate:   {string(domain.FieldName)},
	OpCommissionDelete:   {string(domain.FieldName)},
}

// fileOperations accept FileShape.
var fileOperations = map[Operation]bool{OpOrderRegister: true}

// DetectMode decides the shape of req for op. Files win over text, and
// text wins over structured keys.
func DetectMode(op Operation, req Request) Shape {
	fields := req.Fields
	if fields == nil {
		fields = map[string]interface{}{}
	}

	imageURL, _ := fields["image_url"].(string)
	if req.File != nil || strings.TrimSpace(imageURL) != "" {
		if !fileOperations[op] {
			return InvalidShape{Reason: "operation " + string(op) + " does not accept files"}
		}
		return FileShape{Upload: req.File, URL: strings.TrimSpace(imageURL), Fields: fields}
	}

	for _, k := range TextKeys {
		if s, ok := fields[k].(string); ok && strings.TrimSpace(s) != "" {
			return TextShape{Text: strings.TrimSpace(s), Fields: fields}
		}
	}

	keys, structured := identifyingKeys[op]
	if !structured {
		return InvalidShape{Reason: "operation " + string(op) + " needs one of " + strings.Join(TextKeys, ", ")}
	}
	if keys == nil {
		if len(fields) > 0 {
			return StructuredShape{Fields: fields}
		}
		return InvalidShape{Reason: "empty payload"}
	}
	for _, k := range keys {
		if v, ok := fields[k]; ok && v != nil && v != "" {
			return StructuredShape{Fields: fields}
		}
	}
	return InvalidShape{Reason: "payload has neither text nor any of " + strings.Join(keys, ", ")}
}
