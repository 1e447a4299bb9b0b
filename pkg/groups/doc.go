// Package groups provides the built-in group source backends and the
// configuration loader that assembles them into a nodeset.Resolver.
//
// Four backend types are available: file sources backed by a YAML
// group map, command sources that shell out to an external inventory
// tool, sqlite sources backed by an embedded-migration database, and
// starlark sources that evaluate a script defining a groups dict.
// Which backends exist, and which one answers unqualified @group
// references, is decided by a CUE configuration file.
package groups
