package mtgjson

import (
	"bytes"
	"encoding/json"
	"fmt"
	"reflect"
	"strings"

	"github.com/tidwall/gjson"
)

// knownFields collects the JSON keys a struct models, plus any aliases.
func knownFields(v any, aliases ...string) map[string]struct{} {
	known := make(map[string]struct{})
	t := reflect.TypeOf(v)
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if !f.IsExported() {
			continue
		}
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			continue
		}
		if name == "" {
			name = f.Name
		}
		known[name] = struct{}{}
	}
	for _, a := range aliases {
		known[a] = struct{}{}
	}
	return known
}

// unknownKeys returns the top-level keys of a JSON object that are not in
// known, in document order.
func unknownKeys(raw []byte, known map[string]struct{}) []string {
	var extra []string
	gjson.ParseBytes(raw).ForEach(func(key, _ gjson.Result) bool {
		if _, ok := known[key.String()]; !ok {
			extra = append(extra, key.String())
		}
		return true
	})
	return extra
}

func prefixed(prefix string, fields []string) []string {
	out := make([]string, 0, len(fields))
	for _, f := range fields {
		out = append(out, prefix+"."+f)
	}
	return out
}

// parseObject validates that raw is a JSON object or null.
func parseObject(raw []byte, what string) (gjson.Result, bool, error) {
	if !gjson.ValidBytes(raw) {
		return gjson.Result{}, false, fmt.Errorf("%s: invalid JSON", what)
	}
	res := gjson.ParseBytes(raw)
	if res.Type == gjson.Null {
		return res, false, nil
	}
	if !res.IsObject() {
		return res, false, fmt.Errorf("%s: expected object, got %s", what, res.Type)
	}
	return res, true, nil
}

// --- Ordered maps ---
//
// MTGJSON encodes legalities, prices and set translations as objects. Go
// maps would lose the key order, so they decode into slices instead.

type Legality struct {
	Format string
	Status string
}

// Legalities is the format -> status object of a card.
type Legalities []Legality

func (l *Legalities) UnmarshalJSON(b []byte) error {
	obj, ok, err := parseObject(b, "legalities")
	if err != nil || !ok {
		*l = nil
		return err
	}
	var out Legalities
	obj.ForEach(func(key, value gjson.Result) bool {
		if value.Type != gjson.String {
			err = fmt.Errorf("legalities.%s: expected string, got %s", key.String(), value.Type)
			return false
		}
		out = append(out, Legality{Format: key.String(), Status: value.Str})
		return true
	})
	if err != nil {
		return err
	}
	*l = out
	return nil
}

func (l Legalities) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, e := range l {
		if i > 0 {
			buf.WriteByte(',')
		}
		if err := writeMember(&buf, e.Format, e.Status); err != nil {
			return nil, err
		}
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// PricePoint is one dated price of a given type ("paper", "mtgo", ...).
type PricePoint struct {
	Type  string
	Date  string
	Price *float64
}

// Prices is the type -> date -> price object of a card.
type Prices []PricePoint

func (p *Prices) UnmarshalJSON(b []byte) error {
	obj, ok, err := parseObject(b, "prices")
	if err != nil || !ok {
		*p = nil
		return err
	}
	var out Prices
	obj.ForEach(func(priceType, series gjson.Result) bool {
		// A null series, like an empty one, has no points to store.
		if series.Type == gjson.Null {
			return true
		}
		if !series.IsObject() {
			err = fmt.Errorf("prices.%s: expected object, got %s", priceType.String(), series.Type)
			return false
		}
		series.ForEach(func(date, value gjson.Result) bool {
			point := PricePoint{Type: priceType.String(), Date: date.String()}
			switch value.Type {
			case gjson.Number:
				v := value.Num
				point.Price = &v
			case gjson.Null:
			default:
				err = fmt.Errorf("prices.%s.%s: expected number, got %s", priceType.String(), date.String(), value.Type)
				return false
			}
			out = append(out, point)
			return true
		})
		return err == nil
	})
	if err != nil {
		return err
	}
	*p = out
	return nil
}

func (p Prices) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i := 0; i < len(p); {
		if i > 0 {
			buf.WriteByte(',')
		}
		priceType := p[i].Type
		key, err := json.Marshal(priceType)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteString(":{")
		for j := i; i < len(p) && p[i].Type == priceType; i++ {
			if i > j {
				buf.WriteByte(',')
			}
			if err := writeMember(&buf, p[i].Date, p[i].Price); err != nil {
				return nil, err
			}
		}
		buf.WriteByte('}')
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

type Translation struct {
	Language string
	Name     *string
}

// Translations is the language -> set name object of a set.
type Translations []Translation

func (t *Translations) UnmarshalJSON(b []byte) error {
	obj, ok, err := parseObject(b, "translations")
	if err != nil || !ok {
		*t = nil
		return err
	}
	var out Translations
	obj.ForEach(func(key, value gjson.Result) bool {
		tr := Translation{Language: key.String()}
		switch value.Type {
		case gjson.String:
			name := value.Str
			tr.Name = &name
		case gjson.Null:
		default:
			err = fmt.Errorf("translations.%s: expected string, got %s", key.String(), value.Type)
			return false
		}
		out = append(out, tr)
		return true
	})
	if err != nil {
		return err
	}
	*t = out
	return nil
}

func (t Translations) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, e := range t {
		if i > 0 {
			buf.WriteByte(',')
		}
		if err := writeMember(&buf, e.Language, e.Name); err != nil {
			return nil, err
		}
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func writeMember(buf *bytes.Buffer, key string, value any) error {
	k, err := json.Marshal(key)
	if err != nil {
		return err
	}
	v, err := json.Marshal(value)
	if err != nil {
		return err
	}
	buf.Write(k)
	buf.WriteByte(':')
	buf.Write(v)
	return nil
}
