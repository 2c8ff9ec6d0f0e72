package state

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"

	"go.mongodb.org/mongo-driver/bson"
	"gopkg.in/yaml.v3"
)

// Codec converts a Document to and from its on-disk form.
type Codec interface {
	Name() string
	Marshal(doc *Document) ([]byte, error)
	Unmarshal(data []byte, doc *Document) error
}

type jsonCodec struct{}

func (jsonCodec) Name() string { return "json" }

func (jsonCodec) Marshal(doc *Document) ([]byte, error) {
	return json.MarshalIndent(doc, "", "  ")
}

func (jsonCodec) Unmarshal(data []byte, doc *Document) error {
	return json.Unmarshal(data, doc)
}

type yamlCodec struct{}

func (yamlCodec) Name() string { return "yaml" }

func (yamlCodec) Marshal(doc *Document) ([]byte, error) {
	return yaml.Marshal(doc)
}

func (yamlCodec) Unmarshal(data []byte, doc *Document) error {
	return yaml.Unmarshal(data, doc)
}

type bsonCodec struct{}

func (bsonCodec) Name() string { return "bson" }

func (bsonCodec) Marshal(doc *Document) ([]byte, error) {
	return bson.Marshal(doc)
}

func (bsonCodec) Unmarshal(data []byte, doc *Document) error {
	return bson.Unmarshal(data, doc)
}

// Codecs supported for the state file, by name.
var (
	JSON Codec = jsonCodec{}
	YAML Codec = yamlCodec{}
	BSON Codec = bsonCodec{}
)

// CodecFor returns the codec called name. An empty name picks one from the
// extension of path and falls back to JSON.
func CodecFor(name, path string) (Codec, error) {
	explicit := name != ""
	if !explicit {
		name = strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), ".")
	}
	switch name {
	case "json":
		return JSON, nil
	case "yaml", "yml":
		return YAML, nil
	case "bson":
		return BSON, nil
	}
	if !explicit {
		return JSON, nil
	}
	return nil, fmt.Errorf("unsupported state format %q", name)
}
