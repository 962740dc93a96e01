package ctf

import (
	ctferrors "github.com/wippyai/ctfkit/errors"
)

// Resolve returns the type id refers to. The null id resolves to Void; ids
// with the parent bit set resolve in the parent container.
func (c *Container) Resolve(id TypeID) (*Type, error) {
	if id == 0 {
		return Void, nil
	}
	if id.InParent() {
		if c.Parent == nil {
			return nil, ctferrors.NoParent(uint16(id))
		}
		return c.Parent.local(id)
	}
	return c.local(id)
}

// local indexes the container's own type sequence, ignoring the parent bit.
func (c *Container) local(id TypeID) (*Type, error) {
	idx := int(id.Index())
	if idx == 0 {
		return Void, nil
	}
	if idx > len(c.Types) {
		return nil, ctferrors.TypeIDOutOfRange(uint16(id), len(c.Types))
	}
	return c.Types[idx-1], nil
}

// Owner returns the container that defines id.
func (c *Container) Owner(id TypeID) (*Container, error) {
	if !id.InParent() {
		return c, nil
	}
	if c.Parent == nil {
		return nil, ctferrors.NoParent(uint16(id))
	}
	return c.Parent, nil
}

// TypeNameOf resolves id and returns the name of the type in its owning
// container's string tables.
func (c *Container) TypeNameOf(id TypeID) (string, error) {
	owner, err := c.Owner(id)
	if err != nil {
		return "", err
	}
	t, err := c.Resolve(id)
	if err != nil {
		return "", err
	}
	if t.IsVoid() {
		return "", nil
	}
	return owner.Name(t.Name)
}

// Resolved follows typedefs and qualifiers from id to the underlying type.
func (c *Container) Resolved(id TypeID) (*Type, error) {
	cur := c
	for depth := 0; depth < maxChain; depth++ {
		owner, err := cur.Owner(id)
		if err != nil {
			return nil, err
		}
		t, err := cur.Resolve(id)
		if err != nil {
			return nil, err
		}
		switch t.Kind {
		case KindTypedef, KindVolatile, KindConst, KindRestrict:
			id, cur = t.Ref, owner
		default:
			return t, nil
		}
	}
	return nil, ctferrors.New(ctferrors.PhaseResolve, ctferrors.KindTypeIDOutOfRange).
		Detail("reference chain longer than %d", maxChain).Actual(uint16(id)).Build()
}

// maxChain bounds reference chains so cyclic input cannot loop forever.
const maxChain = 64
