// Package userfields provides the domain model of a User backend whose
// schema can be extended at runtime with admin-defined custom fields:
//
// - UserCustomField definitions (text, number, dropdown, multi_dropdown)
// - User records with a static core (id, email, timestamps) and a dynamic
//   attribute bag keyed by internal names
// - A stable error model via Issues (JSON Pointer, code, message) plus the
//   error taxonomy mapped by the gateway (not found, validation, missing
//   parameter, malformed body, conflict)
//
// Design policy:
// - Keep only the domain types in the root package; resolution lives in
//   schema/, persistence under store/, the CRUD surface in gateway/ and the
//   HTTP adapters under middleware/.
// - Custom fields never add methods or struct fields at runtime. Every
//   dynamic attribute flows through the map returned by schema.Schema.
//
// Typical usage:
//
//	sch, err := schema.NewResolver(fieldStore).Resolve(ctx)
//	values, iss := sch.Validate(ctx, payload)
package userfields
