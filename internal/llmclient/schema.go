package llmclient

import "github.com/invopop/jsonschema"

// GenerateSchema reflects a Go type into the strict JSON Schema shape
// OpenAI's structured-output mode requires, exactly as the teacher's
// common/llm.GenerateSchema[T] does.
func GenerateSchema[T any]() any {
	reflector := jsonschema.Reflector{
		AllowAdditionalProperties: false,
		DoNotReference:            true,
	}
	var v T
	return reflector.Reflect(v)
}
