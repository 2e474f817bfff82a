// Package buildbot reads the job and build listing of a Buildbot master,
// either from its state database or through its REST data API.
//
// Buildbot calls jobs "builders". A build may carry a virtual_builder_name
// property when several logical jobs share one builder; that name is then
// used as the job's display name.
package buildbot

import (
	"encoding/json"
	"fmt"
)

// VirtualBuilderProperty is the build property overriding the builder name.
const VirtualBuilderProperty = "virtual_builder_name"

// propertyString decodes a JSON-encoded property value that is expected to
// be a string. Non-string values are ignored.
func propertyString(raw []byte) (string, error) {
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return "", fmt.Errorf("decode property: %w", err)
	}
	s, _ := v.(string)
	return s, nil
}
