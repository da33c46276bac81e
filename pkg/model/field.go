package model

// Get reads a field's value, applying the default (or default factory) when
// unset, re-parenting a persistent or wrapper-container value's Top to obj,
// and returning FieldUnset if neither a stored value nor a default exists.
func Get[T any](obj Object, spec *FieldSpec) (T, error) {
	st := obj.State()
	v, ok := st.fieldValue(spec.Name)
	if !ok {
		switch {
		case spec.DefaultFactory != nil:
			v = spec.DefaultFactory()
		case spec.Default != nil:
			v = spec.Default
		default:
			var zero T
			return zero, &FieldUnset{Field: spec.Name}
		}
		st.setFieldValue(spec.Name, v)
	}
	promoteTop(obj, v)

	t, ok := v.(T)
	if !ok {
		var zero T
		return zero, &ValidationError{Field: spec.Name, Reason: "stored value has unexpected type"}
	}
	return t, nil
}

// Set validates, coerces, stores and dirties a field assignment.
//
//   - nil is rejected unless spec.Nullable.
//   - spec.Coerce (if set) runs before spec.Guard. This is also where a
//     native slice or map assigned by user code gets wrapped into a
//     PersistentList/PersistentDict, the Go equivalent of the Python
//     descriptor's attribute-set-time wrapping.
//   - spec.Guard (if set) performs the type/value check; a failure is a
//     ValidationError.
//   - on success, obj is marked dirty (via Top) and, if value is itself a
//     persistent object or wrapper container, its Top is re-parented to obj's
//     Top.
func Set(obj Object, spec *FieldSpec, value any) error {
	return setValue(obj, spec, value, true)
}

// SetLoaded stores a field value read back from a document: it runs the
// same coercion/guard pipeline as Set (so a loaded native slice/map is
// wrapped exactly as a freshly-assigned one would be), but does not mark
// obj dirty -- a just-loaded object is clean by definition.
func SetLoaded(obj Object, spec *FieldSpec, value any) error {
	return setValue(obj, spec, value, false)
}

func setValue(obj Object, spec *FieldSpec, value any, dirty bool) error {
	if value == nil {
		if !spec.Nullable {
			return &ValidationError{Field: spec.Name, Reason: "nil is not allowed"}
		}
	} else {
		if spec.Coerce != nil {
			coerced, err := spec.Coerce(value)
			if err != nil {
				return &ValidationError{Field: spec.Name, Reason: err.Error()}
			}
			value = coerced
		}
		if spec.Guard != nil {
			if err := spec.Guard(value); err != nil {
				return &ValidationError{Field: spec.Name, Reason: err.Error()}
			}
		}
	}

	obj.State().setFieldValue(spec.Name, value)
	promoteTop(obj, value)
	if dirty {
		SetDirty(obj)
	}
	return nil
}

// Has reports whether a field has an explicitly stored value (distinct from
// "has a default").
func Has(obj Object, spec *FieldSpec) bool {
	_, ok := obj.State().fieldValue(spec.Name)
	return ok
}
