package verdict

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// ErrTrailingData is returned by Reformat when text follows the JSON value.
var ErrTrailingData = errors.New("trailing data after JSON value")

// Reformat parses one JSON value and writes it back without whitespace.
//
// The output is what a JavaScript runtime prints for JSON.stringify(JSON.parse(s)):
// object members keep their order except array-index keys, which come first in
// ascending order; a duplicated key keeps its first position and its last value;
// numbers use the shortest round-trip form.
func Reformat(s string) (string, error) {
	dec := json.NewDecoder(strings.NewReader(s))
	dec.UseNumber()

	var b strings.Builder
	if err := writeValue(&b, dec); err != nil {
		return "", err
	}
	if _, err := dec.Token(); err != io.EOF {
		return "", ErrTrailingData
	}
	return b.String(), nil
}

func writeValue(b *strings.Builder, dec *json.Decoder) error {
	tok, err := dec.Token()
	if err != nil {
		return err
	}

	switch v := tok.(type) {
	case json.Delim:
		switch v {
		case '[':
			return writeArray(b, dec)
		case '{':
			return writeObject(b, dec)
		}
		return errors.Errorf("unexpected delimiter %q", v)
	case string:
		b.WriteString(quote(v))
	case json.Number:
		n, err := formatNumber(v)
		if err != nil {
			return err
		}
		b.WriteString(n)
	case bool:
		b.WriteString(strconv.FormatBool(v))
	case nil:
		b.WriteString("null")
	default:
		return errors.Errorf("unexpected token %v", tok)
	}
	return nil
}

func writeArray(b *strings.Builder, dec *json.Decoder) error {
	b.WriteByte('[')
	for i := 0; dec.More(); i++ {
		if i > 0 {
			b.WriteByte(',')
		}
		if err := writeValue(b, dec); err != nil {
			return err
		}
	}
	if _, err := dec.Token(); err != nil {
		return err
	}
	b.WriteByte(']')
	return nil
}

func writeObject(b *strings.Builder, dec *json.Decoder) error {
	var keys []string
	values := map[string]string{}
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		key, ok := tok.(string)
		if !ok {
			return errors.Errorf("unexpected object key %v", tok)
		}
		var vb strings.Builder
		if err := writeValue(&vb, dec); err != nil {
			return err
		}
		if _, seen := values[key]; !seen {
			keys = append(keys, key)
		}
		values[key] = vb.String()
	}
	if _, err := dec.Token(); err != nil {
		return err
	}

	sort.SliceStable(keys, func(i, j int) bool {
		a, aIndex := arrayIndex(keys[i])
		c, cIndex := arrayIndex(keys[j])
		if aIndex && cIndex {
			return a < c
		}
		return aIndex && !cIndex
	})

	b.WriteByte('{')
	for i, key := range keys {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(quote(key))
		b.WriteByte(':')
		b.WriteString(values[key])
	}
	b.WriteByte('}')
	return nil
}

// arrayIndex reports whether key is the canonical decimal form of an integer below 2^32-1.
func arrayIndex(key string) (uint64, bool) {
	if key == "" || (len(key) > 1 && key[0] == '0') {
		return 0, false
	}
	n, err := strconv.ParseUint(key, 10, 32)
	if err != nil || n == 1<<32-1 {
		return 0, false
	}
	return n, true
}

func formatNumber(n json.Number) (string, error) {
	f, err := n.Float64()
	if err != nil {
		// Out of range numbers parse as infinity, which JSON.stringify prints as null.
		if numErr, ok := err.(*strconv.NumError); ok && numErr.Err == strconv.ErrRange {
			if f == 0 {
				return "0", nil
			}
			return "null", nil
		}
		return "", err
	}
	if f == 0 {
		return "0", nil
	}
	out, err := json.Marshal(f)
	if err != nil {
		return "", err
	}
	return string(out), nil
}

// quote writes s as a JSON string, escaping only what JSON.stringify escapes.
func quote(s string) string {
	var b bytes.Buffer
	b.WriteByte('"')
	for _, r := range s {
		switch r {
		case '"':
			b.WriteString(`\"`)
		case '\\':
			b.WriteString(`\\`)
		case '\b':
			b.WriteString(`\b`)
		case '\f':
			b.WriteString(`\f`)
		case '\n':
			b.WriteString(`\n`)
		case '\r':
			b.WriteString(`\r`)
		case '\t':
			b.WriteString(`\t`)
		default:
			if r < 0x20 {
				fmt.Fprintf(&b, `\u%04x`, r)
			} else {
				b.WriteRune(r)
			}
		}
	}
	b.WriteByte('"')
	return b.String()
}
