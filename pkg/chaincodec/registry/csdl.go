package registry

import (
	"fmt"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	cerrors "github.com/chainkit/chainkit/pkg/chaincodec/errors"
	"github.com/chainkit/chainkit/pkg/chaincodec/schema"
	"github.com/chainkit/chainkit/pkg/chaincodec/types"
)

// ParseCSDL parses a CSDL document (possibly multiple "---"-separated YAML
// documents, each one top-level "schema <Name>:" mapping) into a sequence of
// schemas, preserving field declaration order. Per spec §9 Open Question 3,
// both the brace-style inline field map (`field: { type: T, indexed: b }`)
// and the two-line indented form are accepted — both are ordinary YAML
// flow/block mappings, so a single yaml.Node walk handles them uniformly.
func ParseCSDL(doc string) ([]*schema.Schema, error) {
	dec := yaml.NewDecoder(strings.NewReader(doc))
	var out []*schema.Schema
	for {
		var root yaml.Node
		err := dec.Decode(&root)
		if err != nil {
			if err.Error() == "EOF" {
				break
			}
			return nil, &cerrors.RegistryError{Kind: cerrors.ParseError, Detail: err.Error(), Cause: err}
		}
		if root.Kind == 0 {
			continue
		}
		s, err := parseCSDLDocument(&root)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, nil
}

func parseCSDLDocument(root *yaml.Node) (*schema.Schema, error) {
	body := root
	if root.Kind == yaml.DocumentNode {
		if len(root.Content) != 1 {
			return nil, &cerrors.RegistryError{Kind: cerrors.ParseError, Detail: "empty document"}
		}
		body = root.Content[0]
	}
	if body.Kind != yaml.MappingNode || len(body.Content) != 2 {
		return nil, &cerrors.RegistryError{Kind: cerrors.ParseError, Detail: "expected a single \"schema <Name>:\" top-level key"}
	}
	keyNode, valNode := body.Content[0], body.Content[1]
	key := keyNode.Value
	const prefix = "schema "
	if !strings.HasPrefix(key, prefix) {
		return nil, &cerrors.RegistryError{Kind: cerrors.ParseError, Detail: fmt.Sprintf("top-level key %q must start with %q", key, prefix)}
	}
	name := strings.TrimSpace(strings.TrimPrefix(key, prefix))
	if name == "" {
		return nil, &cerrors.RegistryError{Kind: cerrors.ParseError, Detail: "empty schema name"}
	}

	s := &schema.Schema{Name: name}
	if valNode.Kind != yaml.MappingNode {
		return nil, &cerrors.RegistryError{Kind: cerrors.ParseError, Name: name, Detail: "schema body must be a mapping"}
	}
	for i := 0; i+1 < len(valNode.Content); i += 2 {
		k, v := valNode.Content[i], valNode.Content[i+1]
		switch k.Value {
		case "version":
			n, err := strconv.ParseUint(v.Value, 10, 32)
			if err != nil {
				return nil, &cerrors.RegistryError{Kind: cerrors.ParseError, Name: name, Detail: "bad version", Cause: err}
			}
			s.Version = uint32(n)
		case "chains":
			var chains []string
			if err := v.Decode(&chains); err != nil {
				return nil, &cerrors.RegistryError{Kind: cerrors.ParseError, Name: name, Detail: "bad chains", Cause: err}
			}
			s.Chains = chains
		case "event":
			s.Event = v.Value
		case "fingerprint":
			if v.Value == "" {
				return nil, &cerrors.RegistryError{Kind: cerrors.ParseError, Name: name, Detail: "missing fingerprint"}
			}
			s.Fingerprint = v.Value
		case "fields":
			fields, err := parseCSDLFields(name, v)
			if err != nil {
				return nil, err
			}
			s.Fields = fields
		case "meta":
			meta, err := parseCSDLMeta(name, v)
			if err != nil {
				return nil, err
			}
			s.Meta = meta
		default:
			return nil, &cerrors.RegistryError{Kind: cerrors.ParseError, Name: name, Detail: fmt.Sprintf("unknown key %q", k.Value)}
		}
	}
	if s.Fingerprint == "" {
		return nil, &cerrors.RegistryError{Kind: cerrors.ParseError, Name: name, Detail: "missing fingerprint"}
	}
	return s, nil
}

func parseCSDLFields(schemaName string, node *yaml.Node) ([]schema.Field, error) {
	if node.Kind != yaml.MappingNode {
		return nil, &cerrors.RegistryError{Kind: cerrors.ParseError, Name: schemaName, Detail: "fields must be a mapping"}
	}
	seen := make(map[string]struct{})
	var out []schema.Field
	for i := 0; i+1 < len(node.Content); i += 2 {
		nameNode, defNode := node.Content[i], node.Content[i+1]
		fieldName := nameNode.Value
		if _, dup := seen[fieldName]; dup {
			return nil, &cerrors.RegistryError{Kind: cerrors.ParseError, Name: schemaName, Detail: fmt.Sprintf("duplicate field %q", fieldName)}
		}
		seen[fieldName] = struct{}{}

		if defNode.Kind != yaml.MappingNode {
			return nil, &cerrors.RegistryError{Kind: cerrors.ParseError, Name: schemaName, Detail: fmt.Sprintf("field %q must be a mapping", fieldName)}
		}
		var typeStr string
		var indexed bool
		for j := 0; j+1 < len(defNode.Content); j += 2 {
			dk, dv := defNode.Content[j], defNode.Content[j+1]
			switch dk.Value {
			case "type":
				typeStr = dv.Value
			case "indexed":
				indexed = dv.Value == "true"
			default:
				return nil, &cerrors.RegistryError{Kind: cerrors.ParseError, Name: schemaName, Detail: fmt.Sprintf("field %q: unknown key %q", fieldName, dk.Value)}
			}
		}
		ct, err := types.ParseSignatureFragment(typeStr)
		if err != nil {
			return nil, &cerrors.RegistryError{Kind: cerrors.ParseError, Name: schemaName, Detail: fmt.Sprintf("field %q: %v", fieldName, err)}
		}
		out = append(out, schema.Field{Name: fieldName, Type: ct, Indexed: indexed})
	}
	return out, nil
}

func parseCSDLMeta(schemaName string, node *yaml.Node) (schema.Meta, error) {
	var m schema.Meta
	if node.Kind != yaml.MappingNode {
		return m, &cerrors.RegistryError{Kind: cerrors.ParseError, Name: schemaName, Detail: "meta must be a mapping"}
	}
	for i := 0; i+1 < len(node.Content); i += 2 {
		k, v := node.Content[i], node.Content[i+1]
		switch k.Value {
		case "protocol":
			m.Protocol = v.Value
		case "category":
			m.Category = v.Value
		case "verified":
			m.Verified = v.Value == "true"
		case "trust_level":
			tl, err := schema.ParseTrustLevel(v.Value)
			if err != nil {
				return m, &cerrors.RegistryError{Kind: cerrors.ParseError, Name: schemaName, Detail: err.Error()}
			}
			m.TrustLevel = tl
		default:
			return m, &cerrors.RegistryError{Kind: cerrors.ParseError, Name: schemaName, Detail: fmt.Sprintf("meta: unknown key %q", k.Value)}
		}
	}
	return m, nil
}
