package protocol

import (
	"bytes"
	"embed"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

//go:embed schemas/*.schema.json
var schemaFS embed.FS

var schemaFiles = map[string]string{
	TypeHello:     "hello.schema.json",
	TypeWelcome:   "welcome.schema.json",
	TypeCommand:   "command.schema.json",
	TypeResult:    "result.schema.json",
	TypeChat:      "chat.schema.json",
	TypeMove:      "move.schema.json",
	TypeBroadcast: "broadcast.schema.json",
}

var (
	schemasOnce sync.Once
	schemas     map[string]*jsonschema.Schema
	schemasErr  error
)

func loadSchemas() {
	c := jsonschema.NewCompiler()
	for _, file := range schemaFiles {
		b, err := schemaFS.ReadFile("schemas/" + file)
		if err != nil {
			schemasErr = err
			return
		}
		if err := c.AddResource(file, bytes.NewReader(b)); err != nil {
			schemasErr = fmt.Errorf("schema %s: %w", file, err)
			return
		}
	}
	out := make(map[string]*jsonschema.Schema, len(schemaFiles))
	for typ, file := range schemaFiles {
		s, err := c.Compile(file)
		if err != nil {
			schemasErr = fmt.Errorf("compile %s: %w", file, err)
			return
		}
		out[typ] = s
	}
	schemas = out
}

// Validate checks a raw message against the schema for its type.
func Validate(msgType string, raw []byte) error {
	schemasOnce.Do(loadSchemas)
	if schemasErr != nil {
		return schemasErr
	}
	s, ok := schemas[msgType]
	if !ok {
		return fmt.Errorf("unknown message type %q", msgType)
	}
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return err
	}
	return s.Validate(v)
}
