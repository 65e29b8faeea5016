// Package decode reconstructs program-level values from one shot of
// measurements.
//
// Deserialize walks a binding tree and resolves each leaf against the
// measurement map. Assemble does this for every binding of an object file
// and produces the result set handed back to callers.
//
// Both are pure functions of their inputs. A missing measurement, an
// unknown binding variant, or (in strict mode) an over-wide register is
// always an error; no default value is ever substituted and no partial
// result is ever returned.
package decode
