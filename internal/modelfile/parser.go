package modelfile

import (
	"bytes"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"gopkg.in/yaml.v3"
)

// ErrParse wraps every syntax and validation failure.
var ErrParse = errors.New("invalid model file")

// Parser evaluates project and typekit text.
type Parser struct {
	validate       *validator.Validate
	defaultLatency time.Duration
}

// ParserOption configures a Parser.
type ParserOption func(*Parser)

// WithDefaultLatency sets the latency given to deployments that do not
// declare one.
func WithDefaultLatency(d time.Duration) ParserOption {
	return func(p *Parser) { p.defaultLatency = d }
}

// NewParser creates a parser.
func NewParser(opts ...ParserOption) *Parser {
	p := &Parser{validate: validator.New(validator.WithRequiredStructEnabled())}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// DecodeProject decodes project text without validating it.
func DecodeProject(text ProjectText) (*ProjectDef, error) {
	var def ProjectDef
	switch text.Format {
	case FormatHCL:
		file, diags := hclparse.NewParser().ParseHCL(text.Data, text.Origin)
		if diags.HasErrors() {
			return nil, fmt.Errorf("%w: parse %s: %w", ErrParse, text.Origin, diags)
		}
		if diags := gohcl.DecodeBody(file.Body, nil, &def); diags.HasErrors() {
			return nil, fmt.Errorf("%w: decode %s: %w", ErrParse, text.Origin, diags)
		}
	case FormatYAML, "":
		dec := yaml.NewDecoder(bytes.NewReader(text.Data))
		dec.KnownFields(true)
		if err := dec.Decode(&def); err != nil {
			return nil, fmt.Errorf("%w: parse %s: %w", ErrParse, text.Origin, err)
		}
	default:
		return nil, fmt.Errorf("%w: %s: unsupported format %q", ErrParse, text.Origin, text.Format)
	}
	return &def, nil
}

// DecodeProject decodes and validates project text.
func (p *Parser) DecodeProject(text ProjectText) (*ProjectDef, error) {
	def, err := DecodeProject(text)
	if err != nil {
		return nil, err
	}
	if err := p.validate.Struct(def); err != nil {
		return nil, fmt.Errorf("%w: validate %s: %w", ErrParse, text.Origin, err)
	}
	return def, nil
}

func (p *Parser) decodeYAML(data []byte, origin string, out any) error {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(out); err != nil {
		return fmt.Errorf("%w: parse %s: %w", ErrParse, origin, err)
	}
	if err := p.validate.Struct(out); err != nil {
		return fmt.Errorf("%w: validate %s: %w", ErrParse, origin, err)
	}
	return nil
}
