package soap

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// serviceFile is the on-disk override format:
//
//	operations:
//	  Intimation:
//	    url: https://uat.example/ClaimIntimation.svc
//	    soap_action: http://tempuri.org/IClaimIntimation/ClaimIntimation
type serviceFile struct {
	Operations map[string]Operation `yaml:"operations"`
}

// LoadServiceMap reads a YAML file and overlays it onto base. Fields left
// empty in the file keep the base value; unknown operation names are added.
func LoadServiceMap(path string, base ServiceMap) (ServiceMap, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read service map: %w", err)
	}
	return ParseServiceMap(data, base)
}

// ParseServiceMap overlays the YAML document data onto base.
func ParseServiceMap(data []byte, base ServiceMap) (ServiceMap, error) {
	var file serviceFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse service map: %w", err)
	}

	out := make(ServiceMap, len(base)+len(file.Operations))
	for name, op := range base {
		out[name] = op
	}

	for rawName, override := range file.Operations {
		name := OperationName(rawName)
		if existing, err := base.Lookup(rawName); err == nil {
			name = existing.Name
		}
		op := out[name]
		op.Name = name
		if override.URL != "" {
			op.URL = override.URL
		}
		if override.Method != "" {
			op.Method = override.Method
		}
		if override.Action != "" {
			op.Action = override.Action
		}
		if override.Result != "" {
			op.Result = override.Result
		}
		if op.URL == "" || op.Method == "" {
			return nil, fmt.Errorf("parse service map: operation %q needs url and method", rawName)
		}
		out[name] = op
	}
	return out, nil
}
