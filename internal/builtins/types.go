// Package builtins names the primitive types the resolver's prelude and the
// instance resolver's Copy/Clone prelude both need to agree on, so neither
// has to hardcode the other's string literals.
package builtins

// BuiltinType represents a primitive type name recognized directly by the
// resolver and the unifier, rather than looked up against a struct/enum
// declaration.
type BuiltinType string

const (
	Int    BuiltinType = "Int"
	Bool   BuiltinType = "Bool"
	String BuiltinType = "String"
	U8     BuiltinType = "U8"
	Unit   BuiltinType = "Unit"
)

// BuiltinTypes contains every primitive type name.
var BuiltinTypes = map[string]bool{
	string(Int):    true,
	string(Bool):   true,
	string(String): true,
	string(U8):     true,
	string(Unit):   true,
}

// IsBuiltinType reports whether typeName names a primitive rather than a
// user struct/enum.
func IsBuiltinType(typeName string) bool {
	return BuiltinTypes[typeName]
}

// IsCopyByDefault reports whether typeName is unconditionally Copy — every
// primitive except String, which owns heap data and must be cloned
// explicitly. This seeds the instance resolver's built-in Copy prelude
// (§4.C); String still gets a real Clone instance, just not an implicit one.
func IsCopyByDefault(typeName string) bool {
	switch BuiltinType(typeName) {
	case Int, Bool, U8, Unit:
		return true
	default:
		return false
	}
}
