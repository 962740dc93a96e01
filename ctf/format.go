package ctf

import (
	"fmt"
	"strings"
)

// TypeName renders a C-like name for id, such as "struct point",
// "const char *" or "int [16]". Unresolvable ids render as "<bad 0x....>".
func (c *Container) TypeName(id TypeID) string {
	budget := maxNameNodes
	return c.typeName(id, &budget)
}

// maxNameNodes bounds the types visited for one name, so cyclic or
// self-referencing function types cannot blow up.
const maxNameNodes = 256

func (c *Container) typeName(id TypeID, budget *int) string {
	if *budget <= 0 {
		return "..."
	}
	*budget--
	owner, err := c.Owner(id)
	if err != nil {
		return fmt.Sprintf("<bad 0x%04x>", uint16(id))
	}
	t, err := c.Resolve(id)
	if err != nil {
		return fmt.Sprintf("<bad 0x%04x>", uint16(id))
	}
	if t.IsVoid() {
		return "void"
	}
	name, err := owner.Name(t.Name)
	if err != nil {
		name = "<bad name>"
	}

	switch t.Kind {
	case KindStruct, KindUnion, KindEnum:
		if name == "" {
			name = "(anon)"
		}
		return t.Kind.String() + " " + name
	case KindPointer:
		return owner.typeName(t.Ref, budget) + " *"
	case KindConst, KindVolatile, KindRestrict:
		return t.Kind.String() + " " + owner.typeName(t.Ref, budget)
	case KindArray:
		if t.Array == nil {
			return "[]"
		}
		return fmt.Sprintf("%s [%d]", owner.typeName(t.Array.Contents, budget), t.Array.Count)
	case KindFunction:
		params := make([]string, 0, len(t.Params))
		for i, p := range t.Params {
			if p == 0 && i == len(t.Params)-1 {
				params = append(params, "...")
				continue
			}
			params = append(params, owner.typeName(p, budget))
		}
		return fmt.Sprintf("%s (*)(%s)", owner.typeName(t.Ref, budget), strings.Join(params, ", "))
	}
	if name == "" {
		return "(anon " + t.Kind.String() + ")"
	}
	return name
}
