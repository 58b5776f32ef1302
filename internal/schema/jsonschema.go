package schema

import (
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// Maximum sizes for manifest and write-proposal payloads.
const (
	MaxContextFiles       = 10
	MaxContextBytes       = 200 * 1024
	MaxWriteContentBytes  = 200 * 1024
	MaxProposalTotalBytes = 500 * 1024
	MaxManifestJSONBytes  = 10 * 1024 * 1024
)

const manifestSchemaDoc = `{
  "type": "object",
  "required": ["system_overview", "work_orders"],
  "properties": {
    "system_overview": {"type": "string"},
    "verify_contract": {
      "type": "object",
      "properties": {
        "requires": {"type": "array", "items": {"$ref": "#/$defs/condition"}}
      }
    },
    "work_orders": {"type": "array", "items": {"$ref": "#/$defs/work_order"}, "minItems": 1}
  },
  "$defs": {
    "condition": {
      "type": "object",
      "required": ["kind", "path"],
      "properties": {
        "kind": {"enum": ["file_exists", "file_absent"]},
        "path": {"type": "string", "minLength": 1}
      }
    },
    "postcondition": {
      "type": "object",
      "required": ["kind", "path"],
      "properties": {
        "kind": {"const": "file_exists"},
        "path": {"type": "string", "minLength": 1}
      }
    },
    "work_order": {
      "type": "object",
      "required": ["id", "title", "intent", "allowed_files", "context_files", "acceptance_commands"],
      "properties": {
        "id": {"type": "string", "pattern": "^WO-[0-9]{2}$"},
        "title": {"type": "string"},
        "intent": {"type": "string"},
        "allowed_files": {"type": "array", "items": {"type": "string"}},
        "context_files": {"type": "array", "items": {"type": "string"}},
        "forbidden": {"type": "array", "items": {"type": "string"}},
        "acceptance_commands": {"type": "array", "items": {"type": "string"}, "minItems": 1},
        "preconditions": {"type": "array", "items": {"$ref": "#/$defs/condition"}},
        "postconditions": {"type": "array", "items": {"$ref": "#/$defs/postcondition"}},
        "verify_exempt": {"type": "boolean"},
        "notes": {"type": "string"}
      }
    }
  }
}`

const writeProposalSchemaDoc = `{
  "type": "object",
  "required": ["summary", "writes"],
  "properties": {
    "summary": {"type": "string"},
    "writes": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["path", "base_sha256", "content"],
        "properties": {
          "path": {"type": "string", "minLength": 1},
          "base_sha256": {"type": "string", "pattern": "^[0-9a-f]{64}$"},
          "content": {"type": "string"}
        }
      }
    }
  }
}`

var (
	manifestSchemaOnce sync.Once
	manifestSchema     *jsonschema.Schema
	manifestSchemaErr  error

	proposalSchemaOnce sync.Once
	proposalSchema     *jsonschema.Schema
	proposalSchemaErr  error
)

// compileSchema compiles a JSON Schema document string the same way the
// teacher compiles per-tool parameter schemas (kilroy
// internal/agent/tool_registry.go compileSchema): marshal/hand to an
// in-memory resource, compile once.
func compileSchema(name, doc string) (*jsonschema.Schema, error) {
	c := jsonschema.NewCompiler()
	if err := c.AddResource(name, strings.NewReader(doc)); err != nil {
		return nil, fmt.Errorf("add schema resource %s: %w", name, err)
	}
	return c.Compile(name)
}

func manifestJSONSchema() (*jsonschema.Schema, error) {
	manifestSchemaOnce.Do(func() {
		manifestSchema, manifestSchemaErr = compileSchema("manifest.json", manifestSchemaDoc)
	})
	return manifestSchema, manifestSchemaErr
}

func writeProposalJSONSchema() (*jsonschema.Schema, error) {
	proposalSchemaOnce.Do(func() {
		proposalSchema, proposalSchemaErr = compileSchema("write_proposal.json", writeProposalSchemaDoc)
	})
	return proposalSchema, proposalSchemaErr
}

// ValidateManifestJSON runs JSON Schema validation over raw manifest bytes.
// This is the generic structural gate that catches type errors, missing
// required fields, and malformed condition/work-order shapes before the
// semantic validator ever sees the decoded struct.
func ValidateManifestJSON(raw []byte) error {
	if len(raw) > MaxManifestJSONBytes {
		return fmt.Errorf("manifest payload exceeds %d bytes", MaxManifestJSONBytes)
	}
	if err := RejectDuplicateKeys(raw); err != nil {
		return err
	}
	s, err := manifestJSONSchema()
	if err != nil {
		return fmt.Errorf("compile manifest schema: %w", err)
	}
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return fmt.Errorf("parse manifest JSON: %w", err)
	}
	if err := s.Validate(v); err != nil {
		return err
	}
	return nil
}

// ValidateWriteProposalJSON runs JSON Schema validation over raw
// WriteProposal bytes, backing the factory SE node's parse/validate step.
func ValidateWriteProposalJSON(raw []byte) error {
	if len(raw) > MaxProposalTotalBytes {
		return fmt.Errorf("write proposal payload exceeds %d bytes", MaxProposalTotalBytes)
	}
	if err := RejectDuplicateKeys(raw); err != nil {
		return err
	}
	s, err := writeProposalJSONSchema()
	if err != nil {
		return fmt.Errorf("compile write proposal schema: %w", err)
	}
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return fmt.Errorf("parse write proposal JSON: %w", err)
	}
	if err := s.Validate(v); err != nil {
		return err
	}
	return nil
}
