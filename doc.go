/*
Package spinesim provides a naive, level-sensitive simulator for combinational
routing fabrics, and an API to compose basic components (logic gates, muxers,
tri-state buffers, etc.) into more complex ones.

Wires carry a Level: Low, High, or Z when no tri-state driver is enabled.
Every component of a Circuit reads the wire states of the current step and
writes those of the next one, so a change propagates through one component per
step. Settle runs the circuit until no wire changes, which gives a propagation
delay in steps for any path through the circuit.

The API is designed to mimic a real hardware description language. As a
result, it relies heavily on closures and can feel a bit awkward when
implementing custom components; see MakePart for a struct based alternative.

The address-routed spine mux fabric built on top of it lives in the fabric
sub-package.
*/
package spinesim
