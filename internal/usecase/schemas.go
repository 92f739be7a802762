package usecase

import (
	"fmt"
	"strings"

	"github.com/memberdesk/backend/internal/domain"
	"github.com/xeipuuv/gojsonschema"
)

// Structured payload schemas. Values that end up in sheet cells may be
// strings or numbers.
const (
	cellDef = `"cell": {"type": ["string", "number"]}`

	memberSchema = `{
		"type": "object",
		"definitions": {` + cellDef + `},
		"properties": {
			"회원명": {"type": "string", "pattern": "^[가-힣A-Za-z ]{1,20}$"},
			"회원번호": {"$ref": "#/definitions/cell"},
			"휴대폰번호": {"$ref": "#/definitions/cell"},
			"limit": {"type": "integer", "minimum": 0},
			"offset": {"type": "integer", "minimum": 0}
		}
	}`

	memberRegisterSchema = `{
		"type": "object",
		"definitions": {` + cellDef + `},
		"required": ["회원명", "회원번호"],
		"properties": {
			"회원명": {"type": "string", "minLength": 1},
			"회원번호": {"$ref": "#/definitions/cell"}
		}
	}`

	memberDeleteSchema = `{
		"type": "object",
		"required": ["회원명"],
		"properties": {
			"회원명": {"type": "string", "minLength": 1},
			"fields": {"type": "array", "items": {"type": "string"}},
			"confirm": {"type": "boolean"}
		}
	}`

	orderSchema = `{
		"type": "object",
		"definitions": {` + cellDef + `},
		"properties": {
			"회원명": {"type": "string"},
			"제품명": {"type": "string"},
			"제품가격": {"$ref": "#/definitions/cell"},
			"PV": {"$ref": "#/definitions/cell"},
			"orders": {"type": "array", "minItems": 1, "items": {"type": "object"}},
			"limit": {"type": "integer", "minimum": 0},
			"offset": {"type": "integer", "minimum": 0}
		}
	}`

	memoSaveSchema = `{
		"type": "object",
		"required": ["회원명", "일지종류", "내용"],
		"properties": {
			"회원명": {"type": "string", "minLength": 1},
			"일지종류": {"enum": ["상담일지", "개인일지", "활동일지"]},
			"내용": {"type": "string", "minLength": 1}
		}
	}`

	memoSearchSchema = `{
		"type": "object",
		"properties": {
			"sheet": {"type": "string"},
			"keywords": {"type": ["string", "array"], "items": {"type": "string"}},
			"member_name": {"type": "string"},
			"mode": {"enum": ["any", "all", "동시"]},
			"start_date": {"type": "string"},
			"end_date": {"type": "string"},
			"limit": {"type": "integer", "minimum": 0},
			"offset": {"type": "integer", "minimum": 0}
		}
	}`

	commissionSchema = `{
		"type": "object",
		"definitions": {` + cellDef + `},
		"required": ["회원명"],
		"properties": {
			"회원명": {"type": "string", "minLength": 1},
			"지급일자": {"type": "string"},
			"후원수당": {"$ref": "#/definitions/cell"},
			"비고": {"type": "string"}
		}
	}`

	commissionRegisterSchema = `{
		"type": "object",
		"definitions": {` + cellDef + `},
		"required": ["회원명", "후원수당"],
		"properties": {
			"회원명": {"type": "string", "minLength": 1},
			"지급일자": {"type": "string"},
			"후원수당": {"$ref": "#/definitions/cell"},
			"비고": {"type": "string"}
		}
	}`

	commissionUpdateSchema = `{
		"type": "object",
		"definitions": {` + cellDef + `},
		"required": ["회원명", "지급일자"],
		"properties": {
			"회원명": {"type": "string", "minLength": 1},
			"지급일자": {"type": "string", "minLength": 1},
			"후원수당": {"$ref": "#/definitions/cell"},
			"비고": {"type": "string"}
		}
	}`

	anyObjectSchema = `{"type": "object", "minProperties": 1}`
)

var schemaSources = map[Operation]string{
	OpMemberFind:         memberSchema,
	OpMemberRegister:     memberRegisterSchema,
	OpMemberSave:         memberSchema,
	OpMemberUpdate:       memberSchema,
	OpMemberDelete:       memberDeleteSchema,
	OpOrderFind:          orderSchema,
	OpOrderRegister:      orderSchema,
	OpOrderUpdate:        orderSchema,
	OpOrderDelete:        orderSchema,
	OpOrderProxy:         anyObjectSchema,
	OpMemoSave:           memoSaveSchema,
	OpMemoSearch:         memoSearchSchema,
	OpCommissionFind:     commissionSchema,
	OpCommissionRegister: commissionRegisterSchema,
	OpCommissionUpdate:   commissionUpdateSchema,
	OpCommissionDelete:   commissionSchema,
}

// compileSchemas parses every payload schema.
func compileSchemas() (map[Operation]*gojsonschema.Schema, error) {
	out := make(map[Operation]*gojsonschema.Schema, len(schemaSources))
	for op, src := range schemaSources {
		s, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(src))
		if err != nil {
			return nil, fmt.Errorf("schema %s: %w", op, err)
		}
		out[op] = s
	}
	return out, nil
}

// validatePayload checks fields against schema and reports every
// violation in one ValidationError.
func validatePayload(schema *gojsonschema.Schema, fields map[string]interface{}) error {
	result, err := schema.Validate(gojsonschema.NewGoLoader(fields))
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}
	if result.Valid() {
		return nil
	}
	msgs := make([]string, 0, len(result.Errors()))
	for _, e := range result.Errors() {
		msgs = append(msgs, e.String())
	}
	return fmt.Errorf("%w: %s", domain.ErrValidation, strings.Join(msgs, "; "))
}
