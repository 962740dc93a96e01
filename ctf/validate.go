package ctf

import (
	"strconv"

	ctferrors "github.com/wippyai/ctfkit/errors"
)

// Validate checks that every type id and name the container references
// resolves, in this container or its parent.
func (c *Container) Validate() error {
	if err := c.validateLabels(); err != nil {
		return err
	}
	for i, id := range c.Objects {
		if err := c.checkRef(id); err != nil {
			return asValidate(err, "objects", strconv.Itoa(i))
		}
	}
	for i, id := range c.Functions {
		if err := c.checkRef(id); err != nil {
			return asValidate(err, "functions", strconv.Itoa(i))
		}
	}
	for _, t := range c.Types {
		if err := c.validateType(t); err != nil {
			return asValidate(err, typePath(int(t.ID)))
		}
	}
	return nil
}

func (c *Container) validateLabels() error {
	for i, l := range c.Labels {
		if _, err := c.Name(l.Name); err != nil {
			return asValidate(err, "labels", strconv.Itoa(i))
		}
		if l.Type > uint32(len(c.Types)) {
			return asValidate(ctferrors.TypeIDOutOfRange(uint16(l.Type), len(c.Types)), "labels", strconv.Itoa(i))
		}
	}
	return nil
}

func (c *Container) validateType(t *Type) error {
	if _, err := c.Name(t.Name); err != nil {
		return err
	}
	switch t.Kind {
	case KindPointer, KindTypedef, KindVolatile, KindConst, KindRestrict, KindFunction:
		if err := c.checkRef(t.Ref); err != nil {
			return err
		}
	}
	switch t.Kind {
	case KindStruct, KindUnion:
		for i, m := range t.Members {
			if _, err := c.Name(m.Name); err != nil {
				return ctferrors.At(err, "member "+strconv.Itoa(i))
			}
			if err := c.checkRef(m.Type); err != nil {
				return ctferrors.At(err, "member "+strconv.Itoa(i))
			}
		}
	case KindEnum:
		for i, e := range t.Enumerators {
			if _, err := c.Name(e.Name); err != nil {
				return ctferrors.At(err, "enumerator "+strconv.Itoa(i))
			}
		}
	case KindArray:
		if t.Array == nil {
			return ctferrors.InvalidInput(ctferrors.PhaseValidate, "array without descriptor")
		}
		if err := c.checkRef(t.Array.Contents); err != nil {
			return ctferrors.At(err, "contents")
		}
		if err := c.checkRef(t.Array.Index); err != nil {
			return ctferrors.At(err, "index")
		}
	case KindFunction:
		for i, p := range t.Params {
			if err := c.checkRef(p); err != nil {
				return ctferrors.At(err, "param "+strconv.Itoa(i))
			}
		}
	}
	return nil
}

func (c *Container) checkRef(id TypeID) error {
	_, err := c.Resolve(id)
	return err
}

// asValidate re-labels a resolution error as a validation failure.
func asValidate(err error, path ...string) error {
	e, ok := ctferrors.At(err, path...).(*ctferrors.Error)
	if !ok {
		return err
	}
	e.Phase = ctferrors.PhaseValidate
	return e
}
