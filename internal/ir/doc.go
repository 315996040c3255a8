// Package ir provides the foundation types shared by the compiler, the
// registry and the negotiator: element templates and their pad templates.
//
// ir imports nothing internal. Caps are carried as their canonical text so
// that specs can be stored, hashed and compared without the algebra.
//
// Key constraints:
//   - All JSON tags use snake_case
//   - Template hashes use RFC 8785 canonical JSON with domain separation
//   - No floats in hashed data; caps text keeps its own number formatting
package ir
