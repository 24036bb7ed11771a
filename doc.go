/*
Package locksim provides a cycle-based simulator for the register bus and the
lock-in/PID signal graph of a laser frequency stabilization core.

The simulator kernel in this package is word-level: nets carry fixed-width
integers and parts are composed by naming the nets their ports connect to.
Parts are described by a PartSpec whose MountFn registers combinational and
clocked closures with a Socket. A Builder checks the resulting wiring once
(single driver per net, no undriven nets, no combinational loops) and freezes
it into a Circuit, which is then stepped one clock edge at a time.

Subpackages provide the register bus (csr), the signal processing blocks
(blocks), the rotation primitive (cordic) and the top-level composition (top).
Package client and package server carry register accesses between a host and
a running simulation.
*/
package locksim
