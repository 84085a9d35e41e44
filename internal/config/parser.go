package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Format identifies a settings file encoding.
type Format string

// Supported settings formats.
const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// DetectFormat detects the settings format from a file extension.
// Returns an empty Format when the extension is not recognized.
func DetectFormat(filepath string) Format {
	switch strings.ToLower(path.Ext(filepath)) {
	case ".json":
		return FormatJSON
	case ".yaml", ".yml":
		return FormatYAML
	default:
		return ""
	}
}

// DetectContentFormat guesses the format of content. JSON is tried first
// because every JSON document is also YAML.
func DetectContentFormat(content string) Format {
	switch {
	case IsJSON(content):
		return FormatJSON
	case IsYAML(content):
		return FormatYAML
	default:
		return ""
	}
}

// IsJSON checks if the content appears to be JSON format.
func IsJSON(content string) bool {
	content = strings.TrimSpace(content)
	return strings.HasPrefix(content, "{") || strings.HasPrefix(content, "[")
}

// IsYAML checks if the content parses as a non-empty YAML document.
func IsYAML(content string) bool {
	if strings.TrimSpace(content) == "" {
		return false
	}
	var data interface{}
	err := yaml.Unmarshal([]byte(content), &data)
	return err == nil && data != nil
}

// ParseFile reads and parses a settings file without validating it. An empty
// format is detected from the extension, then from the content.
func ParseFile(filepath string, format Format) *ParseResult {
	result := &ParseResult{FilePath: filepath, Format: format}

	content, err := os.ReadFile(filepath)
	if err != nil {
		result.Errors = append(result.Errors, ParseError{
			Path:    filepath,
			Message: fmt.Sprintf("failed to read file: %v", err),
			Type:    ErrorTypeIO,
			Err:     err,
		})
		return result
	}

	if format == "" {
		format = DetectFormat(filepath)
	}
	parsed := ParseString(string(content), format)
	parsed.FilePath = filepath
	for i := range parsed.Errors {
		if parsed.Errors[i].Path == "" {
			parsed.Errors[i].Path = filepath
		}
	}
	return parsed
}

// ParseString parses settings content without validating it. An empty format
// is detected from the content.
func ParseString(content string, format Format) *ParseResult {
	if format == "" {
		format = DetectContentFormat(content)
	}
	result := &ParseResult{Format: format}

	if strings.TrimSpace(content) == "" {
		result.Errors = append(result.Errors, ParseError{
			Message: "empty content: expected a settings document",
			Type:    ErrorTypeSyntax,
		})
		return result
	}

	var (
		data interface{}
		err  error
	)
	switch format {
	case FormatJSON:
		data, err = decodeJSON(content)
	case FormatYAML:
		data, err = decodeYAML(content)
	case "":
		result.Errors = append(result.Errors, ParseError{
			Message: "unable to detect settings format: not valid JSON or YAML",
			Type:    ErrorTypeFormat,
		})
		return result
	default:
		result.Errors = append(result.Errors, ParseError{
			Message: fmt.Sprintf("unsupported format: %s", format),
			Type:    ErrorTypeFormat,
		})
		return result
	}
	if err != nil {
		result.Errors = append(result.Errors, syntaxError(err, content))
		return result
	}

	// A null document or a comments-only file parses to nothing.
	if data == nil {
		return result
	}
	dataMap, ok := data.(map[string]interface{})
	if !ok {
		result.Errors = append(result.Errors, ParseError{
			Message: fmt.Sprintf("invalid settings: expected a mapping at the top level, got %T", data),
			Type:    ErrorTypeFormat,
		})
		return result
	}
	result.Data = dataMap
	return result
}

// ParseJSONString parses JSON settings content.
func ParseJSONString(content string) *ParseResult {
	return ParseString(content, FormatJSON)
}

// ParseYAMLString parses YAML settings content.
func ParseYAMLString(content string) *ParseResult {
	return ParseString(content, FormatYAML)
}

func decodeJSON(content string) (interface{}, error) {
	var data interface{}
	if err := json.Unmarshal([]byte(content), &data); err != nil {
		return nil, err
	}
	return data, nil
}

func decodeYAML(content string) (interface{}, error) {
	var data interface{}
	if err := yaml.Unmarshal([]byte(content), &data); err != nil {
		return nil, err
	}
	return normalizeYAML(data), nil
}

// normalizeYAML converts YAML-decoded values into the shapes encoding/json
// produces: string-keyed maps and float64 numbers. Dictionary keys such as
// 1 or true become their string form.
func normalizeYAML(v interface{}) interface{} {
	switch x := v.(type) {
	case map[string]interface{}:
		out := make(map[string]interface{}, len(x))
		for k, val := range x {
			out[k] = normalizeYAML(val)
		}
		return out
	case map[interface{}]interface{}:
		out := make(map[string]interface{}, len(x))
		for k, val := range x {
			out[yamlKey(k)] = normalizeYAML(val)
		}
		return out
	case []interface{}:
		out := make([]interface{}, len(x))
		for i, val := range x {
			out[i] = normalizeYAML(val)
		}
		return out
	case int:
		return float64(x)
	case int64:
		return float64(x)
	case uint64:
		return float64(x)
	case time.Time:
		return x.Format("2006-01-02 15:04:05")
	default:
		return v
	}
}

func yamlKey(k interface{}) string {
	switch x := k.(type) {
	case string:
		return x
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case nil:
		return "null"
	default:
		return fmt.Sprint(x)
	}
}

// syntaxError extracts location information from a decoding error.
func syntaxError(err error, content string) ParseError {
	parseErr := ParseError{
		Message: err.Error(),
		Type:    ErrorTypeSyntax,
		Err:     err,
	}

	var (
		jsonSyntax *json.SyntaxError
		jsonType   *json.UnmarshalTypeError
		yamlType   *yaml.TypeError
	)
	switch {
	case errors.As(err, &jsonSyntax):
		parseErr.Offset = jsonSyntax.Offset
		parseErr.Line, parseErr.Column = offsetToLineColumn(content, jsonSyntax.Offset)
		parseErr.Message = fmt.Sprintf("JSON syntax error at offset %d: %s", jsonSyntax.Offset, jsonSyntax.Error())
	case errors.As(err, &jsonType):
		parseErr.Offset = jsonType.Offset
		parseErr.Line, parseErr.Column = offsetToLineColumn(content, jsonType.Offset)
		parseErr.Message = fmt.Sprintf("type error at field '%s': expected %s, got %s",
			jsonType.Field, jsonType.Type.String(), jsonType.Value)
	case errors.As(err, &yamlType):
		parseErr.Message = fmt.Sprintf("YAML type error: %s", strings.Join(yamlType.Errors, "; "))
	}

	// yaml.v3 reports positions as "yaml: line X: ..."
	if strings.HasPrefix(err.Error(), "yaml: line ") {
		var line int
		if _, scanErr := fmt.Sscanf(err.Error(), "yaml: line %d:", &line); scanErr == nil {
			parseErr.Line = line
		}
	}
	return parseErr
}

// offsetToLineColumn converts a byte offset to line and column numbers (1-based).
func offsetToLineColumn(content string, offset int64) (line, column int) {
	line, column = 1, 1
	for i := int64(0); i < offset && i < int64(len(content)); i++ {
		if content[i] == '\n' {
			line++
			column = 1
		} else {
			column++
		}
	}
	return line, column
}
