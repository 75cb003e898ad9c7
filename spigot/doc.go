// Package spigot generates decimal digits of pi with a bounded-integer
// spigot algorithm.
//
// The engine is pure: it performs no I/O and keeps no state between calls.
// Each call allocates its own working array, runs the digit production
// rounds, and returns the digits after the decimal point as a string.
//
//	e := spigot.New(spigot.Config{MaxDigits: 10000})
//	digits, err := e.Generate(10) // "1415926535"
package spigot
