package schema

import "strings"

// Caller es la identidad autenticada que hace el request ("" = anónimo).
type Caller struct {
	ID string
}

func (c Caller) IsAuthenticated() bool { return strings.TrimSpace(c.ID) != "" }

// Rule es un predicado tipado (caller, record) -> bool evaluado en el servidor.
// Una Rule nil significa "bloqueado": nadie puede hacer la operación vía API.
type Rule func(caller Caller, rec Record) bool

// Op identifica una de las operaciones gobernadas por reglas.
type Op string

const (
	OpList   Op = "list"
	OpView   Op = "view"
	OpCreate Op = "create"
	OpUpdate Op = "update"
	OpDelete Op = "delete"
)

// Rules agrupa los predicados de una colección.
type Rules struct {
	List   Rule
	View   Rule
	Create Rule
	Update Rule
	Delete Rule
}

func (rs Rules) For(op Op) Rule {
	switch op {
	case OpList:
		return rs.List
	case OpView:
		return rs.View
	case OpCreate:
		return rs.Create
	case OpUpdate:
		return rs.Update
	case OpDelete:
		return rs.Delete
	default:
		return nil
	}
}

// Public permite a cualquiera (incluido anónimo).
func Public() Rule {
	return func(Caller, Record) bool { return true }
}

// Authenticated exige un caller autenticado.
func Authenticated() Rule {
	return func(c Caller, _ Record) bool { return c.IsAuthenticated() }
}

// FieldIsCaller: field = caller.id (nunca matchea para anónimos).
func FieldIsCaller(field string) Rule {
	return func(c Caller, rec Record) bool {
		if !c.IsAuthenticated() {
			return false
		}
		return rec.String(field) == c.ID
	}
}

// IsSelf: id = caller.id (colecciones auth).
func IsSelf() Rule { return FieldIsCaller("id") }

func AnyOf(rules ...Rule) Rule {
	return func(c Caller, rec Record) bool {
		for _, r := range rules {
			if r != nil && r(c, rec) {
				return true
			}
		}
		return false
	}
}

func AllOf(rules ...Rule) Rule {
	return func(c Caller, rec Record) bool {
		if len(rules) == 0 {
			return false
		}
		for _, r := range rules {
			if r == nil || !r(c, rec) {
				return false
			}
		}
		return true
	}
}
