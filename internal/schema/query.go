package schema

import (
	"fmt"
	"sort"
	"strings"
	"time"
	"unicode"
)

// CondOp es el operador de una condición de filtro.
type CondOp string

const (
	CondEq  CondOp = "="
	CondNeq CondOp = "!="
)

// Condition es `field op "value"`.
type Condition struct {
	Field string
	Op    CondOp
	Value string
}

// SortField es un campo de orden; Desc con prefijo "-".
type SortField struct {
	Field string
	Desc  bool
}

// Query es la forma parseada de (filter, sort) de un list.
// Las condiciones se combinan con AND. Limit se aplica después de la regla de list.
type Query struct {
	Conditions []Condition
	Sort       []SortField
	Limit      int
}

// ParseQuery parsea filter y sort validando los nombres de campo contra la colección.
//
// Gramática del filtro (subset de la sintaxis de PocketBase):
//
//	expr  := cond ( "&&" cond )*
//	cond  := field ( "=" | "!=" ) value
//	value := "texto" | 'texto' | número | true | false
func ParseQuery(c *Collection, filter, sortExpr string) (Query, error) {
	var q Query

	conds, err := parseFilter(filter)
	if err != nil {
		return Query{}, err
	}
	for _, cond := range conds {
		if !c.HasField(cond.Field) {
			return Query{}, fmt.Errorf("%w: unknown field %q", ErrInvalidQuery, cond.Field)
		}
		if f, _ := c.Field(cond.Field); f.Hidden {
			return Query{}, fmt.Errorf("%w: field %q is not filterable", ErrInvalidQuery, cond.Field)
		}
	}
	q.Conditions = conds

	for _, raw := range strings.Split(sortExpr, ",") {
		raw = strings.TrimSpace(raw)
		if raw == "" {
			continue
		}
		sf := SortField{Field: raw}
		switch raw[0] {
		case '-':
			sf.Desc = true
			sf.Field = strings.TrimSpace(raw[1:])
		case '+':
			sf.Field = strings.TrimSpace(raw[1:])
		}
		f, ok := c.Field(sf.Field)
		if !ok || f.Hidden {
			return Query{}, fmt.Errorf("%w: unknown sort field %q", ErrInvalidQuery, sf.Field)
		}
		q.Sort = append(q.Sort, sf)
	}

	return q, nil
}

// Match reporta si rec cumple todas las condiciones.
func (q Query) Match(rec Record) bool {
	for _, c := range q.Conditions {
		got := rec.String(c.Field)
		switch c.Op {
		case CondEq:
			if got != c.Value {
				return false
			}
		case CondNeq:
			if got == c.Value {
				return false
			}
		}
	}
	return true
}

// Apply filtra y ordena en memoria (adapters sin motor de queries).
func (q Query) Apply(recs []Record) []Record {
	out := make([]Record, 0, len(recs))
	for _, r := range recs {
		if q.Match(r) {
			out = append(out, r)
		}
	}
	SortRecords(out, q.Sort)
	return out
}

// Paginate recorta a Limit (0 = sin límite).
func (q Query) Paginate(recs []Record) []Record {
	if q.Limit <= 0 || len(recs) <= q.Limit {
		return recs
	}
	return recs[:q.Limit]
}

// SortRecords ordena de forma estable según sorts.
func SortRecords(recs []Record, sorts []SortField) {
	if len(sorts) == 0 {
		return
	}
	sort.SliceStable(recs, func(i, j int) bool {
		for _, s := range sorts {
			c := compareValues(recs[i], recs[j], s.Field)
			if c == 0 {
				continue
			}
			if s.Desc {
				return c > 0
			}
			return c < 0
		}
		return false
	})
}

func compareValues(a, b Record, field string) int {
	if ta, ok := a[field].(time.Time); ok {
		if tb, ok := b[field].(time.Time); ok {
			return ta.Compare(tb)
		}
	}
	fa, okA := a.Float(field)
	fb, okB := b.Float(field)
	if okA && okB {
		switch {
		case fa < fb:
			return -1
		case fa > fb:
			return 1
		default:
			return 0
		}
	}
	return strings.Compare(a.String(field), b.String(field))
}

func parseFilter(in string) ([]Condition, error) {
	in = strings.TrimSpace(in)
	if in == "" {
		return nil, nil
	}
	if strings.Contains(in, "||") {
		return nil, fmt.Errorf("%w: only && is supported", ErrInvalidQuery)
	}

	var out []Condition
	for _, part := range splitAnd(in) {
		c, err := parseCondition(part)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, nil
}

// splitAnd separa por && fuera de comillas.
func splitAnd(s string) []string {
	var (
		parts []string
		cur   strings.Builder
		quote rune
	)
	runes := []rune(s)
	for i := 0; i < len(runes); i++ {
		r := runes[i]
		if quote != 0 {
			cur.WriteRune(r)
			if r == quote {
				quote = 0
			}
			continue
		}
		if r == '"' || r == '\'' {
			quote = r
			cur.WriteRune(r)
			continue
		}
		if r == '&' && i+1 < len(runes) && runes[i+1] == '&' {
			parts = append(parts, cur.String())
			cur.Reset()
			i++
			continue
		}
		cur.WriteRune(r)
	}
	parts = append(parts, cur.String())
	return parts
}

func parseCondition(s string) (Condition, error) {
	s = strings.TrimSpace(s)

	i := 0
	for i < len(s) && (unicode.IsLetter(rune(s[i])) || unicode.IsDigit(rune(s[i])) || s[i] == '_') {
		i++
	}
	field := s[:i]
	if field == "" {
		return Condition{}, fmt.Errorf("%w: missing field in %q", ErrInvalidQuery, s)
	}

	rest := strings.TrimSpace(s[i:])
	var op CondOp
	switch {
	case strings.HasPrefix(rest, "!="):
		op = CondNeq
		rest = rest[2:]
	case strings.HasPrefix(rest, "="):
		op = CondEq
		rest = rest[1:]
	default:
		return Condition{}, fmt.Errorf("%w: unsupported operator in %q", ErrInvalidQuery, s)
	}

	value, err := parseValue(strings.TrimSpace(rest))
	if err != nil {
		return Condition{}, err
	}
	return Condition{Field: field, Op: op, Value: value}, nil
}

func parseValue(s string) (string, error) {
	if s == "" {
		return "", fmt.Errorf("%w: missing value", ErrInvalidQuery)
	}
	if q := s[0]; q == '"' || q == '\'' {
		if len(s) < 2 || s[len(s)-1] != q {
			return "", fmt.Errorf("%w: unterminated string", ErrInvalidQuery)
		}
		inner := s[1 : len(s)-1]
		if strings.ContainsRune(inner, rune(q)) {
			return "", fmt.Errorf("%w: unexpected quote", ErrInvalidQuery)
		}
		return inner, nil
	}
	for _, r := range s {
		if unicode.IsSpace(r) {
			return "", fmt.Errorf("%w: unexpected token %q", ErrInvalidQuery, s)
		}
	}
	return s, nil
}
