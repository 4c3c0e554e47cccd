package specfile

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/mgracik/alda/pkg/errors"
)

// LoadManifestFile reads a manifest from disk.
func LoadManifestFile(path string) ([]*Package, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "cannot read manifest %s", path)
	}
	packages, err := LoadManifest(data)
	return packages, errors.Wrapf(err, "invalid manifest %s", path)
}

// LoadManifest parses a manifest document. The manifest is a JSON array of
// [name, values] pairs; values holds header fields in order, plus the
// optional "__body__" object and "__subpkg__" pair list. Header and body
// values are strings or arrays of strings. Header order is preserved, which
// is why the document is token-parsed rather than unmarshaled into maps.
func LoadManifest(data []byte) ([]*Package, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	if err := expectDelim(dec, '['); err != nil {
		return nil, err
	}
	var packages []*Package
	for dec.More() {
		pkg, err := parsePackagePair(dec)
		if err != nil {
			return nil, err
		}
		packages = append(packages, pkg)
	}
	if err := expectDelim(dec, ']'); err != nil {
		return nil, err
	}
	return packages, nil
}

func parsePackagePair(dec *json.Decoder) (*Package, error) {
	name, err := parsePairName(dec)
	if err != nil {
		return nil, err
	}
	header, body, subpackages, err := parseValues(dec, true)
	if err != nil {
		return nil, err
	}
	if err := expectDelim(dec, ']'); err != nil {
		return nil, err
	}
	pkg := NewPackage(name, header, body)
	pkg.Subpackages = subpackages
	return pkg, nil
}

func parseSubpackagePair(dec *json.Decoder) (*SubPackage, error) {
	name, err := parsePairName(dec)
	if err != nil {
		return nil, err
	}
	header, body, _, err := parseValues(dec, false)
	if err != nil {
		return nil, err
	}
	if err := expectDelim(dec, ']'); err != nil {
		return nil, err
	}
	return &SubPackage{Name: name, Header: header, Body: body}, nil
}

func parsePairName(dec *json.Decoder) (string, error) {
	if err := expectDelim(dec, '['); err != nil {
		return "", err
	}
	tok, err := dec.Token()
	if err != nil {
		return "", err
	}
	name, ok := tok.(string)
	if !ok {
		return "", fmt.Errorf("expected package name, got %v", tok)
	}
	return name, nil
}

// parseValues parses one values object: header fields in order, the body
// and, for top-level packages, the subpackage list.
func parseValues(dec *json.Decoder, allowSubpackages bool) (Header, Body, []*SubPackage, error) {
	var header Header
	var body Body
	var subpackages []*SubPackage

	if err := expectDelim(dec, '{'); err != nil {
		return nil, Body{}, nil, err
	}
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, Body{}, nil, err
		}
		key, ok := tok.(string)
		if !ok {
			return nil, Body{}, nil, fmt.Errorf("expected object key, got %v", tok)
		}

		switch {
		case key == bodyTag:
			if body, err = parseBody(dec); err != nil {
				return nil, Body{}, nil, err
			}
		case key == subpackageTag && allowSubpackages:
			if subpackages, err = parseSubpackages(dec); err != nil {
				return nil, Body{}, nil, err
			}
		default:
			value, err := parseStringOrList(dec)
			if err != nil {
				return nil, Body{}, nil, err
			}
			header = append(header, Field{Key: key, Value: value})
		}
	}
	if err := expectDelim(dec, '}'); err != nil {
		return nil, Body{}, nil, err
	}
	return header, body, subpackages, nil
}

func parseBody(dec *json.Decoder) (Body, error) {
	var body Body
	if err := expectDelim(dec, '{'); err != nil {
		return Body{}, err
	}
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return Body{}, err
		}
		key, ok := tok.(string)
		if !ok {
			return Body{}, fmt.Errorf("expected body key, got %v", tok)
		}
		value, err := parseStringOrList(dec)
		if err != nil {
			return Body{}, err
		}
		switch key {
		case "description":
			body.Description = value
		case "prep":
			body.Prep = value
		case "build":
			body.Build = value
		case "install":
			body.Install = value
		case "files":
			body.Files = value
		default:
			return Body{}, fmt.Errorf("unknown body section %q", key)
		}
	}
	if err := expectDelim(dec, '}'); err != nil {
		return Body{}, err
	}
	return body, nil
}

func parseSubpackages(dec *json.Decoder) ([]*SubPackage, error) {
	if err := expectDelim(dec, '['); err != nil {
		return nil, err
	}
	var subpackages []*SubPackage
	for dec.More() {
		sub, err := parseSubpackagePair(dec)
		if err != nil {
			return nil, err
		}
		subpackages = append(subpackages, sub)
	}
	if err := expectDelim(dec, ']'); err != nil {
		return nil, err
	}
	return subpackages, nil
}

// parseStringOrList accepts a scalar or an array of scalars. Numbers are
// kept verbatim, so a version written as 1.0 renders as "1.0".
func parseStringOrList(dec *json.Decoder) ([]string, error) {
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	switch v := tok.(type) {
	case string:
		return []string{v}, nil
	case json.Number:
		return []string{v.String()}, nil
	case json.Delim:
		if v != '[' {
			return nil, fmt.Errorf("unexpected delimiter %v", v)
		}
		var values []string
		for dec.More() {
			item, err := dec.Token()
			if err != nil {
				return nil, err
			}
			switch s := item.(type) {
			case string:
				values = append(values, s)
			case json.Number:
				values = append(values, s.String())
			default:
				return nil, fmt.Errorf("unexpected list item %v", item)
			}
		}
		if err := expectDelim(dec, ']'); err != nil {
			return nil, err
		}
		return values, nil
	default:
		return nil, fmt.Errorf("unexpected value %v", tok)
	}
}

func expectDelim(dec *json.Decoder, delim rune) error {
	tok, err := dec.Token()
	if err != nil {
		if err == io.EOF {
			return fmt.Errorf("unexpected end of manifest")
		}
		return err
	}
	d, ok := tok.(json.Delim)
	if !ok || rune(d) != delim {
		return fmt.Errorf("expected %q, got %v", delim, tok)
	}
	return nil
}
