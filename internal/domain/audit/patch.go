package audit

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
)

var (
	ErrBadPatch     = errors.New("invalid patch body")
	ErrUnknownField = errors.New("unknown field")
)

// ParsePatch decodifica el body de un PATCH preservando el orden de los
// campos tal como vienen en el JSON. encoding/json sobre un map pierde ese
// orden, así que leemos token a token.
//
// Convenio canónico de valores:
//   - null y "" colapsan a nil (ausencia de valor / NULL en SQL)
//   - números conservan su literal ("5000", "99.5")
//   - booleanos se vuelven "true"/"false"
//   - objetos y arrays se rechazan: los campos auditados son escalares
//
// Campos fuera de `allowed` se rechazan (mismo criterio que
// DisallowUnknownFields en los decoders de structs).
func ParsePatch(r io.Reader, allowed []string) ([]Field, error) {
	ok := make(map[string]struct{}, len(allowed))
	for _, name := range allowed {
		ok[name] = struct{}{}
	}

	dec := json.NewDecoder(r)
	dec.UseNumber()

	tok, err := dec.Token()
	if err != nil {
		return nil, ErrBadPatch
	}
	if d, isDelim := tok.(json.Delim); !isDelim || d != '{' {
		return nil, ErrBadPatch
	}

	fields := make([]Field, 0, 8)
	index := make(map[string]int, 8)

	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return nil, ErrBadPatch
		}
		key, isStr := keyTok.(string)
		if !isStr {
			return nil, ErrBadPatch
		}
		if _, known := ok[key]; !known {
			return nil, fmt.Errorf("%w: %s", ErrUnknownField, key)
		}

		val, err := scalarValue(dec)
		if err != nil {
			return nil, fmt.Errorf("field %s: %w", key, err)
		}

		// Clave repetida: gana el último valor, conserva la posición original.
		if i, dup := index[key]; dup {
			fields[i].Value = val
			continue
		}
		index[key] = len(fields)
		fields = append(fields, Field{Name: key, Value: val})
	}

	if _, err := dec.Token(); err != nil { // '}'
		return nil, ErrBadPatch
	}
	return fields, nil
}

func scalarValue(dec *json.Decoder) (*string, error) {
	tok, err := dec.Token()
	if err != nil {
		return nil, ErrBadPatch
	}

	switch v := tok.(type) {
	case nil:
		return nil, nil
	case string:
		if v == "" {
			return nil, nil
		}
		return &v, nil
	case json.Number:
		s := v.String()
		return &s, nil
	case bool:
		s := strconv.FormatBool(v)
		return &s, nil
	case json.Delim:
		return nil, errors.New("must be a scalar value")
	default:
		return nil, ErrBadPatch
	}
}
