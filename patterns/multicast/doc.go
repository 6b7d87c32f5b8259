/*
Package multicast provides a synchronous, ordered event multicaster with per-listener failure containment.

# Primitives

Every [Event] has a [Kind], which is a small integer tag from a closed set declared by the publishing domain.
[KindNone] is reserved and is never delivered.
An [Event] also has a source, which is the object that raised it.

A [Listener] declares its interest with two predicates: one for the [Kind], and one for the dynamic type of the source.
Both must hold for the listener to receive an event, which is decided by [ShouldDeliver].
For simple cases, [On] adapts a function and a [KindSet] into a [Listener].

# Dispatch

[Multicaster.Dispatch] selects the interested listeners and stable-sorts them by [Listener.Order], so equal orders keep registration order.
Each listener is then called in turn on the calling goroutine.
There is no asynchronous delivery, because both the ordering and the failure containment depend on sequential calls.

A listener that returns an error or panics doesn't stop delivery to the listeners after it.
The failure is wrapped in a [ListenerError] and passed to the [Multicaster]'s [ErrorHandler], which logs it by default.
Use [CollectingErrorHandler] to inspect failures after a dispatch.

# Fallback delivery

[Multicaster.Clone] and [Multicaster.Merge] support assembling a standalone multicaster from listeners owned elsewhere, without sharing mutable state with their owner.
*/
package multicast
