package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "Lead Insights API",
        "description": "Lead reporting and CRM requalification",
        "version": "1.0.0"
    },
    "basePath": "/api/v1",
    "schemes": [
        "http",
        "https"
    ],
    "securityDefinitions": {
        "BearerAuth": {"type": "apiKey", "name": "Authorization", "in": "header"}
    },
    "tags": [
        {"name": "Leads", "description": "Lead report and downloads"},
        {"name": "CRM", "description": "Requalification against the connected CRM"}
    ],
    "paths": {
        "/leads/report": {
            "get": {
                "tags": ["Leads"],
                "summary": "Lead report",
                "description": "Paginated leads with owner and direction labels plus statistics over the whole filter.",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "period", "in": "query", "type": "string", "enum": ["today", "7d", "30d", "all"], "default": "7d"},
                    {"name": "userAccountId", "in": "query", "type": "string"},
                    {"name": "page", "in": "query", "type": "integer", "default": 1},
                    {"name": "limit", "in": "query", "type": "integer", "default": 20}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/LeadReportEnvelope"}},
                    "400": {"description": "Invalid filter", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "403": {"description": "Forbidden", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/leads/report/export": {
            "get": {
                "tags": ["Leads"],
                "summary": "Download the lead report",
                "produces": ["text/csv", "application/pdf"],
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "period", "in": "query", "type": "string", "enum": ["today", "7d", "30d", "all"], "default": "7d"},
                    {"name": "userAccountId", "in": "query", "type": "string"},
                    {"name": "page", "in": "query", "type": "integer", "default": 1},
                    {"name": "limit", "in": "query", "type": "integer", "default": 20},
                    {"name": "format", "in": "query", "type": "string", "enum": ["csv", "pdf"], "default": "csv"}
                ],
                "responses": {
                    "200": {"description": "Attachment", "schema": {"type": "file"}},
                    "400": {"description": "Invalid filter or format", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/crm/requalify": {
            "post": {
                "tags": ["CRM"],
                "summary": "Requalify synced leads against the CRM",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/RequalifyRequest"}}
                ],
                "responses": {
                    "200": {"description": "Run finished", "schema": {"$ref": "#/definitions/RequalifyResponse"}},
                    "400": {"description": "Invalid payload", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "403": {"description": "Forbidden", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "A run for the scope is in progress", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "412": {"description": "Qualification field not configured", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "424": {"description": "CRM not connected", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/crm/requalify/status": {
            "get": {
                "tags": ["CRM"],
                "summary": "Latest requalification run of a scope",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "userAccountId", "in": "query", "type": "string", "required": true},
                    {"name": "accountId", "in": "query", "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK; data is null when the scope never ran", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Invalid scope", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        }
    },
    "definitions": {
        "Lead": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "name": {"type": "string"},
                "phone": {"type": "string"},
                "user_account_id": {"type": "string"},
                "account_id": {"type": "string"},
                "direction_id": {"type": "string"},
                "creative_id": {"type": "string"},
                "crm_lead_id": {"type": "integer"},
                "is_qualified": {"type": "boolean"},
                "qualification_checked_at": {"type": "string", "format": "date-time"},
                "created_at": {"type": "string", "format": "date-time"},
                "user_account_label": {"type": "string"},
                "direction_label": {"type": "string"},
                "cost_cents": {"type": "integer"}
            }
        },
        "ReportStats": {
            "type": "object",
            "properties": {
                "total": {"type": "integer"},
                "averageCplCents": {"type": "integer"},
                "totalSpendCents": {"type": "integer"}
            }
        },
        "ReferenceEntity": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "label": {"type": "string"}
            }
        },
        "LeadReport": {
            "type": "object",
            "properties": {
                "rows": {"type": "array", "items": {"$ref": "#/definitions/Lead"}},
                "stats": {"$ref": "#/definitions/ReportStats"},
                "userAccounts": {"type": "array", "items": {"$ref": "#/definitions/ReferenceEntity"}}
            }
        },
        "LeadReportEnvelope": {
            "type": "object",
            "properties": {
                "data": {"$ref": "#/definitions/LeadReport"},
                "pagination": {"$ref": "#/definitions/Pagination"}
            }
        },
        "RequalifyRequest": {
            "type": "object",
            "required": ["userAccountId"],
            "properties": {
                "userAccountId": {"type": "string", "format": "uuid"},
                "accountId": {"type": "string", "format": "uuid"},
                "batchSize": {"type": "integer", "minimum": 1, "maximum": 250},
                "dryRun": {"type": "boolean"},
                "startDate": {"type": "string", "format": "date"},
                "endDate": {"type": "string", "format": "date"}
            }
        },
        "LeadError": {
            "type": "object",
            "properties": {
                "leadId": {"type": "string"},
                "error": {"type": "string"}
            }
        },
        "RequalifyResult": {
            "type": "object",
            "properties": {
                "examined": {"type": "integer"},
                "changed": {"type": "integer"},
                "unchanged": {"type": "integer"},
                "errors": {"type": "array", "items": {"$ref": "#/definitions/LeadError"}},
                "dryRun": {"type": "boolean"}
            }
        },
        "RequalifyResponse": {
            "type": "object",
            "properties": {
                "data": {
                    "type": "object",
                    "properties": {
                        "success": {"type": "boolean"},
                        "result": {"$ref": "#/definitions/RequalifyResult"},
                        "message": {"type": "string"}
                    }
                }
            }
        },
        "Pagination": {
            "type": "object",
            "properties": {
                "page": {"type": "integer"},
                "page_size": {"type": "integer"},
                "total_count": {"type": "integer"},
                "total_pages": {"type": "integer"}
            }
        },
        "APIError": {
            "type": "object",
            "properties": {
                "code": {"type": "string"},
                "message": {"type": "string"},
                "status": {"type": "integer"}
            }
        },
        "ResponseEnvelope": {
            "type": "object",
            "properties": {
                "data": {"type": "object"},
                "error": {"$ref": "#/definitions/APIError"},
                "pagination": {"$ref": "#/definitions/Pagination"},
                "meta": {"type": "object"}
            }
        }
    }
}`

type swaggerDoc struct{}

// ReadDoc returns the Swagger document.
func (s *swaggerDoc) ReadDoc() string {
	return docTemplate
}

func init() {
	swag.Register(swag.Name, &swaggerDoc{})
}
