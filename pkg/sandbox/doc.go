// Package sandbox provides the two gatekeepers every tool execution
// passes through: the pipeline validator, which decides whether a shell
// command is safe to hand to the shell, and the path resolver, which
// confines filesystem access to the configured roots.
//
// Both gatekeepers assume their input is adversarial. Directives arrive
// from a language model without intent verification, so validation is
// structural: commands are rejected on the presence of injection-capable
// metacharacters and on any program outside a fixed allowlist, and paths
// are rejected unless their fully symlink-resolved form still falls
// under an approved root.
package sandbox
