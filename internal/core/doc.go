// Package core is the merge engine behind the restroom map.
//
// It turns two delimited-text sources into the effective record set the map
// renders: a static baseline of places and an append-only log of moderated
// suggestions. Nothing here knows about HTTP handlers, templates or storage
// drivers; those live in internal/web and internal/store and talk to core
// through plain records.
//
// # Pipeline
//
//  1. [Source.Fetch] reads a CSV ([HTTPSource] or [FileSource]) into a [Table]
//     of [RawRecord] values keyed by lowercased header.
//  2. [NormalizeBaseline] and [NormalizeUpdate] coerce text into typed
//     records. Coercion is total: bad coordinates become [NoCoordinate] and
//     bad timestamps become [UnknownTime]. [ValidateRows] counts what was
//     discarded per column so the load can report it.
//  3. [SelectLatestApproved] keeps one approved update per place id, the one
//     with the strictly greatest timestamp.
//  4. [Merge] applies those updates field by field, producing exactly one
//     [EffectiveRecord] per baseline row in baseline order.
//  5. [ExtractNewPoints] turns approved action=new suggestions into
//     standalone records.
//
// [BuildSnapshot] runs steps 2 to 5 and is pure. [Service.Load] wraps it with
// concurrent fetching, fallbacks and publication.
//
// # Serving
//
// The [Service] holds the current [Snapshot] and swaps it wholesale on each
// load. When the baseline cannot be fetched the previous snapshot, or the one
// persisted in the [SnapshotStore], is served again marked stale.
//
// # Suggestions
//
// [Service.Submit] validates a [Submission] and forwards it to the ingestion
// endpoint through a [SubmitLimiter]. Suggestions only reach the map after a
// moderator approves them in the update log.
//
// # Errors
//
// Failures are wrapped around sentinel errors ([ErrSourceUnavailable],
// [ErrMalformedSource], [ErrSubmissionFailed] and friends). [MapError]
// converts any of them to a coded [UserMessage] for display.
package core
