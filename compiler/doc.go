/*
Package compiler is the 6502 backend driver.

Process of code generation

IR Text (yaml) ->
	load ->
Program and Heap (ir) ->
	rename ->
Assembler-safe Program (ir) ->
	select ->
Fragments (rules, idioms, fallbacks) ->
	peephole ->
Assembly Text (64tass)
*/
package compiler
