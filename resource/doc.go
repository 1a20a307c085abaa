// Package resource provides the per-context handle table.
//
// A guest holds small integers; the table maps them to host values of any
// type. Capability checks are structural: a handle is usable as a file when
// its value implements file.File, as a directory when it implements dir.Dir.
//
//	table := resource.NewTable()
//
//	h, err := table.Insert(myFile)
//
//	f, err := resource.Get[file.File](table, h)  // typed view
//	d, err := resource.Get[dir.Dir](table, h)    // KindNotSupported
//
//	v, err := table.Remove(h) // ownership back to the caller
//
// # Handle Allocation
//
// Handles start at 0. A removed handle goes to a free list and may be
// handed out by a later insert; a live handle is never handed out twice.
// InsertAt and Renumber place entries at handles the guest picked.
//
// # Rights
//
// Entries may carry a legacy (base, inheriting) Rights pair. The table only
// stores it; enforcement lives with the callers that know which right an
// operation needs.
//
// # Observers
//
// Register observers to track lifecycle events:
//
//	table.Subscribe(resource.ObserverFunc(func(e resource.Event) {
//	    log.Printf("%s handle=%d", e.Type, e.Handle)
//	}))
//
// # Teardown
//
// Close drops every remaining entry and closes values implementing Closer
// (or Dropper). Remove does not close; the caller owns the value.
package resource
