// Package validation checks flat string maps against pipe-separated rule
// strings. The runtime uses it to validate service descriptors before they
// are registered.
//
//	v := validation.Make(map[string]string{
//	    "interface": "app.UserService",
//	    "unique_id": "primary",
//	}, validation.Rules{
//	    "interface": "required|identifier|max:255",
//	    "unique_id": "alpha_dash|max:64",
//	})
//
//	if v.Fails() {
//	    return v.Errors() // *Errors implements error
//	}
//
// # Rules
//
//   - required        field must be present and non-blank
//   - min:n / max:n   length bounds in UTF-8 characters
//   - alpha_dash      letters, numbers, dashes, underscores
//   - identifier      dot-separated identifiers, e.g. "app.v1.Users"
//   - in:a,b,c        value must be one of the list
//   - regex:pattern   value must match pattern
//
// Every rule except required passes on an empty value, so optional fields
// are simply those without required. The first failing rule of a field
// stops the remaining rules of that field.
package validation
