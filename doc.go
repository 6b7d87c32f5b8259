/*
Package bootx delivers the lifecycle events of an application as it boots.

The packages build on each other:
  - patterns/multicast filters events by kind and source type, and dispatches them to listeners in order.
  - lifecycle sequences the events of a run, from starting to running or failing.
  - appctx is an fx-backed application context that events are published through once it's loaded.
  - env layers configuration properties from arguments, environment variables, and files.
  - metrics counts events and listener failures with Prometheus.

The cmd/bootdemo command puts them together.
*/
package bootx
