// Package ir provides the leaf value types of the tickbot progression core.
//
// This package contains the instruction set, the program, the wallet, the
// unlock set and the interpreter parameters. All other internal packages
// import ir; ir imports nothing internal. This keeps the data model the
// foundational layer with no circular dependencies.
//
// Key design constraints:
//   - Instruction is a closed set; every switch over it is exhaustive
//   - Currency is an integer, never a float
//   - Program capacity only grows
//   - Commands that would break an invariant are rejected with *RejectedError,
//     never clamped
package ir
